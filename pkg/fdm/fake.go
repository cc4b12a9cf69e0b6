package fdm

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FakeDevice — программная имитация фискального модуля для тестов и демонстрационного режима.
// Ведёт счётчики по типам чеков и общий счётчик, подписывает записи детерминированно
// и умеет требовать PIN-код до первой регистрации.
type FakeDevice struct {
	mu sync.Mutex

	VSC       string
	FDMNumber string
	Status    string           // статус подключения, по умолчанию "connected"
	FailCode  string           // если задан, каждая регистрация завершается этим кодом ошибки
	Now       func() time.Time // источник времени устройства

	pin      string
	locked   bool
	counters map[string]int
	total    int
	requests []Request
}

// NewFakeDevice создаёт имитацию модуля. Непустой pin блокирует модуль до его ввода.
func NewFakeDevice(pin string) *FakeDevice {
	return &FakeDevice{
		VSC:       "BODO001BE0000001",
		FDMNumber: "BODO001BE00000",
		Status:    StatusConnected,
		Now:       time.Now,
		pin:       pin,
		locked:    pin != "",
		counters:  make(map[string]int),
	}
}

// Send реализует Transport
func (d *FakeDevice) Send(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.requests = append(d.requests, req)

	resp := &Response{Status: DeviceStatus{Status: d.Status}}
	if d.Status != StatusConnected {
		return resp, nil
	}

	if msg, ok := req.HighLevelMessage.(string); ok {
		if strings.HasPrefix(msg, pinPrefix) && d.pin != "" && msg[len(pinPrefix):] == d.pin {
			d.locked = false
			resp.Value.Error = &Fault{ErrorCode: ErrorCodeNone}
			return resp, nil
		}
		resp.Value.Error = &Fault{ErrorCode: ErrorCodePinRequired, Status: "Invalid PIN"}
		return resp, nil
	}

	if d.locked {
		resp.Value.Error = &Fault{ErrorCode: ErrorCodePinRequired, Status: "PIN required"}
		return resp, nil
	}
	if d.FailCode != "" {
		resp.Value.Error = &Fault{ErrorCode: d.FailCode, Status: "Simulated failure"}
		return resp, nil
	}

	rec, err := recordFrom(req.HighLevelMessage)
	if err != nil {
		resp.Value.Error = &Fault{ErrorCode: "999999", Status: err.Error()}
		return resp, nil
	}

	d.total++
	d.counters[rec.Type]++

	raw, _ := json.Marshal(rec)
	sum := sha1.Sum(append(raw, strconv.Itoa(d.total)...))
	now := d.Now()

	resp.Value = Value{
		Signature:          strings.ToUpper(hex.EncodeToString(sum[:])),
		VSC:                d.VSC,
		FDMNumber:          d.FDMNumber,
		TicketCounter:      Counter(strconv.Itoa(d.counters[rec.Type])),
		TotalTicketCounter: Counter(strconv.Itoa(d.total)),
		Time:               now.Format("150405"),
		Date:               now.Format("20060102"),
		Error:              &Fault{ErrorCode: ErrorCodeNone},
	}
	return resp, nil
}

// Close реализует Transport
func (d *FakeDevice) Close() error {
	return nil
}

// Requests возвращает копию всех полученных запросов
func (d *FakeDevice) Requests() []Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Request, len(d.requests))
	copy(out, d.requests)
	return out
}

// Locked сообщает, ждёт ли модуль PIN-код
func (d *FakeDevice) Locked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locked
}

// recordFrom извлекает запись из полезной нагрузки любого вида (структура или разобранный JSON)
func recordFrom(msg any) (Record, error) {
	switch v := msg.(type) {
	case Record:
		return v, v.Validate()
	case *Record:
		return *v, v.Validate()
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, err
	}
	return rec, rec.Validate()
}
