package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Действия журнала аудита
const (
	AuditCreate = "create"
	AuditModify = "modify"
	AuditDelete = "delete"
)

// AuditEntry — запись журнала изменений, сделанных при работе с фискальным модулем.
type AuditEntry struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user"`
	Action      string    `json:"action"`
	Date        time.Time `json:"date"`
	ModelName   string    `json:"model_name"`
	RecordName  string    `json:"record_name"`
	Description string    `json:"description"`
}

// Report — отчёт о продажах сессии.
type Report struct {
	SessionID              int64           `json:"session_id"`
	CashierName            string          `json:"cashier_name"`
	INSZ                   string          `json:"insz_or_bis_number"`
	CashRegisterID         string          `json:"cash_register_id"`
	FDMIdentifier          string          `json:"fdm_id"`
	NormalSales            int             `json:"ns_number"`
	NormalRefunds          int             `json:"nr_number"`
	ProFormaNumber         int             `json:"pf_number"`
	ProFormaAmount         decimal.Decimal `json:"pf_amount"`
	PositiveDiscountNumber int             `json:"positive_discount_number"`
	NegativeDiscountNumber int             `json:"negative_discount_number"`
	PositiveDiscountAmount decimal.Decimal `json:"positive_discount_amount"`
	NegativeDiscountAmount decimal.Decimal `json:"negative_discount_amount"`
	CorrectionNumber       int             `json:"correction_number"`
	CorrectionAmount       decimal.Decimal `json:"correction_amount"`
	CashBoxOpening         int             `json:"cash_box_opening"`
	Taxes                  []ReportTax     `json:"taxes"`
	RefundTaxes            []ReportTax     `json:"refund_taxes"`
	Shifts                 []WorkShift     `json:"shifts"`
}

// ReportTax — итог налога в отчёте.
type ReportTax struct {
	Name       string          `json:"name"`
	Letter     VATCategory     `json:"identification_letter"`
	TaxAmount  decimal.Decimal `json:"tax_amount"`
	BaseAmount decimal.Decimal `json:"base_amount"`
}

// WorkShift — смена кассира между приходом и уходом.
type WorkShift struct {
	INSZ         string          `json:"insz_or_bis_number"`
	CashierName  string          `json:"cashier_name"`
	ClockIn      time.Time       `json:"clock_in"`
	ClockOut     time.Time       `json:"clock_out,omitempty"`
	Revenue      decimal.Decimal `json:"revenue"`
	CashRounding decimal.Decimal `json:"cash_rounding"`
	FirstTicket  time.Time       `json:"first_ticket_time,omitempty"`
	LastTicket   time.Time       `json:"last_ticket_time,omitempty"`
	TicketCount  int             `json:"ticket_count"`
}
