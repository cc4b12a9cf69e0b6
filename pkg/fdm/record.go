package fdm

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Типы чеков
const (
	TypeNormalSale     = "NS"
	TypeNormalRefund   = "NR"
	TypeProFormaSale   = "PS"
	TypeProFormaRefund = "PR"
)

// Отметки прихода и ухода кассира
const (
	ClockIn  = "in"
	ClockOut = "out"
)

var (
	reDate     = regexp.MustCompile(`^\d{8}$`)
	reTime     = regexp.MustCompile(`^\d{6}$`)
	reOperator = regexp.MustCompile(`^\d{11}$`)
	reNumber   = regexp.MustCompile(`^\d+$`)
	reAmount   = regexp.MustCompile(`^\d{3,}$`)
	rePLU      = regexp.MustCompile(`^[0-9a-f]{8}$`)
)

// Record — фискальная запись заказа в формате устройства.
// Суммы передаются без разделителя, два последних знака — центы.
// Пустая строка в VAT1..VAT4 означает, что ставка в заказе не применялась.
type Record struct {
	Date         string `json:"date"`               // YYYYMMDD
	TicketTime   string `json:"ticket_time"`        // HHMMSS
	Operator     string `json:"insz_or_bis_number"` // INSZ/BIS кассира
	TicketNumber string `json:"ticket_number"`
	Type         string `json:"type"`
	ReceiptTotal string `json:"receipt_total"`
	VAT1         string `json:"vat1"` // 21%
	VAT2         string `json:"vat2"` // 12%
	VAT3         string `json:"vat3"` // 6%
	VAT4         string `json:"vat4"` // 0%
	PLU          string `json:"plu"`
	Clock        string `json:"-"`
}

// MarshalJSON выводит отсутствующую отметку времени как false.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	var clock any = false
	if r.Clock != "" {
		clock = r.Clock
	}
	return json.Marshal(struct {
		plain
		Clock any `json:"clock"`
	}{plain(r), clock})
}

func (r *Record) UnmarshalJSON(b []byte) error {
	type plain Record
	aux := struct {
		*plain
		Clock json.RawMessage `json:"clock"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.Clock = ""
	if len(aux.Clock) > 0 && aux.Clock[0] == '"' {
		return json.Unmarshal(aux.Clock, &r.Clock)
	}
	return nil
}

// Validate проверяет формат всех полей записи.
func (r Record) Validate() error {
	switch {
	case !reDate.MatchString(r.Date):
		return fmt.Errorf("%w: date %q", ErrInvalidRecord, r.Date)
	case !reTime.MatchString(r.TicketTime):
		return fmt.Errorf("%w: ticket_time %q", ErrInvalidRecord, r.TicketTime)
	case !reOperator.MatchString(r.Operator):
		return fmt.Errorf("%w: insz_or_bis_number %q", ErrInvalidRecord, r.Operator)
	case !reNumber.MatchString(r.TicketNumber):
		return fmt.Errorf("%w: ticket_number %q", ErrInvalidRecord, r.TicketNumber)
	case !validType(r.Type):
		return fmt.Errorf("%w: type %q", ErrInvalidRecord, r.Type)
	case !reAmount.MatchString(r.ReceiptTotal):
		return fmt.Errorf("%w: receipt_total %q", ErrInvalidRecord, r.ReceiptTotal)
	case !rePLU.MatchString(r.PLU):
		return fmt.Errorf("%w: plu %q", ErrInvalidRecord, r.PLU)
	}

	for i, v := range []string{r.VAT1, r.VAT2, r.VAT3, r.VAT4} {
		if v != "" && !reAmount.MatchString(v) {
			return fmt.Errorf("%w: vat%d %q", ErrInvalidRecord, i+1, v)
		}
	}

	if r.Clock != "" && r.Clock != ClockIn && r.Clock != ClockOut {
		return fmt.Errorf("%w: clock %q", ErrInvalidRecord, r.Clock)
	}
	return nil
}

func validType(t string) bool {
	switch t {
	case TypeNormalSale, TypeNormalRefund, TypeProFormaSale, TypeProFormaRefund:
		return true
	}
	return false
}
