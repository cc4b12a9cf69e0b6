package fdm

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestRecordMarshalClock(t *testing.T) {
	rec := validRecord()

	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(b), `"clock":false`) {
		t.Errorf("absent clock must be encoded as false: %s", b)
	}
	if !strings.Contains(string(b), `"insz_or_bis_number":"85073003328"`) {
		t.Errorf("operator key is missing: %s", b)
	}
	if !strings.Contains(string(b), `"vat1":""`) {
		t.Errorf("empty VAT bucket must be kept as empty string: %s", b)
	}

	rec.Clock = ClockIn
	b, _ = json.Marshal(rec)
	if !strings.Contains(string(b), `"clock":"in"`) {
		t.Errorf("clock marker is missing: %s", b)
	}

	var back Record
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back != rec {
		t.Errorf("record changed after decoding: %+v", back)
	}
}

func TestRecordUnmarshalFalseClock(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"type":"NS","clock":false}`), &rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Clock != "" || rec.Type != TypeNormalSale {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *Record)
	}{
		{"Дата", func(r *Record) { r.Date = "2024011" }},
		{"Время", func(r *Record) { r.TicketTime = "14:30:00" }},
		{"Оператор", func(r *Record) { r.Operator = "" }},
		{"Номер чека", func(r *Record) { r.TicketNumber = "A1" }},
		{"Тип", func(r *Record) { r.Type = "XX" }},
		{"Сумма", func(r *Record) { r.ReceiptTotal = "2.50" }},
		{"НДС", func(r *Record) { r.VAT1 = "-10" }},
		{"PLU", func(r *Record) { r.PLU = "6056F32" }},
		{"Отметка", func(r *Record) { r.Clock = "break" }},
	}

	if err := validRecord().Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.modify(&rec)
			if err := rec.Validate(); !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("expected ErrInvalidRecord, got %v", err)
			}
		})
	}
}

func TestCounterUnmarshal(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`{"ticket_counter": 12, "total_ticket_counter": "345"}`), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.TicketCounter != "12" || v.TotalTicketCounter != "345" {
		t.Errorf("unexpected counters %q/%q", v.TicketCounter, v.TotalTicketCounter)
	}
}
