package fdm

import (
	"context"
	"testing"
	"time"
)

func TestFakeDeviceCounters(t *testing.T) {
	dev := NewFakeDevice("")
	dev.Now = func() time.Time { return time.Date(2024, 1, 15, 14, 30, 1, 0, time.UTC) }
	client := New(Config{}, dev)

	sale := validRecord()
	refund := validRecord()
	refund.Type = TypeNormalRefund

	first, err := client.RegisterReceipt(context.Background(), sale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := client.RegisterReceipt(context.Background(), refund)
	third, _ := client.RegisterReceipt(context.Background(), sale)

	checks := []struct {
		got  *SignedReceipt
		tc   string
		ttc  string
		name string
	}{
		{first, "1", "1", "первая продажа"},
		{second, "1", "2", "первый возврат"},
		{third, "2", "3", "вторая продажа"},
	}
	for _, c := range checks {
		if c.got.TicketCounter != c.tc || c.got.TotalTicketCounter != c.ttc {
			t.Errorf("%s: counters %s/%s, want %s/%s", c.name, c.got.TicketCounter, c.got.TotalTicketCounter, c.tc, c.ttc)
		}
	}
	if first.Date != "20240115" || first.Time != "143001" {
		t.Errorf("unexpected device time %s %s", first.Date, first.Time)
	}
	if first.Signature == third.Signature {
		t.Error("signatures of different tickets must differ")
	}
}

func TestFakeDevicePin(t *testing.T) {
	dev := NewFakeDevice("4321")
	client := New(Config{}, dev)

	_, err := client.RegisterReceipt(context.Background(), validRecord())
	if !IsPinRequired(err) {
		t.Fatalf("expected PIN challenge, got %v", err)
	}

	if err := client.SubmitPin(context.Background(), "0000"); !IsPinRequired(err) {
		t.Errorf("wrong PIN must be rejected, got %v", err)
	}
	if !dev.Locked() {
		t.Fatal("device must stay locked after a wrong PIN")
	}

	if err := client.SubmitPin(context.Background(), "4321"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.RegisterReceipt(context.Background(), validRecord()); err != nil {
		t.Fatalf("unexpected error after unlock: %v", err)
	}
	if n := len(dev.Requests()); n != 4 {
		t.Errorf("expected 4 requests, got %d", n)
	}
}
