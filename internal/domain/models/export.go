package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderExport — представление заказа, передаваемое в бэк-офис.
type OrderExport struct {
	UID            string          `json:"uid"`
	Name           string          `json:"name"`
	SessionID      int64           `json:"pos_session_id"`
	SequenceNumber int64           `json:"sequence_number"`
	UserID         int64           `json:"user_id"`
	EmployeeID     int64           `json:"employee_id,omitempty"`
	CashierName    string          `json:"cashier_name"`
	INSZ           string          `json:"insz_or_bis_number"`
	CreatedAt      time.Time       `json:"creation_date"`
	AmountTotal    decimal.Decimal `json:"amount_total"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	Clock          ClockEvent      `json:"clock,omitempty"`
	Lines          []LineExport    `json:"lines"`
	PosVersion     string          `json:"blackbox_pos_version"`
	Draft          bool            `json:"draft,omitempty"`
	ProForma       []BlackboxData  `json:"proforma_tickets,omitempty"`
	BlackboxData
}

// LineExport — строка заказа в представлении бэк-офиса.
type LineExport struct {
	ProductID         int64           `json:"product_id"`
	ProductName       string          `json:"full_product_name"`
	Quantity          decimal.Decimal `json:"qty"`
	PriceUnit         decimal.Decimal `json:"price_unit"`
	Discount          decimal.Decimal `json:"discount"`
	PriceSubtotalIncl decimal.Decimal `json:"price_subtotal_incl"`
	VATLetter         VATCategory     `json:"vat_letter"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
}

// Signed сообщает, что экспорт содержит подпись окончательного чека.
func (e OrderExport) Signed() bool {
	return e.Signature != "" && !e.ReceiptType.ProForma()
}

// JournalEntry — запись локального журнала подписанных чеков.
type JournalEntry struct {
	ID             int64     `db:"id" json:"id"`
	OrderUID       string    `db:"order_uid" json:"order_uid"`
	SequenceNumber int64     `db:"sequence_number" json:"sequence_number"`
	ReceiptType    string    `db:"receipt_type" json:"receipt_type"`
	Signature      string    `db:"signature" json:"signature"`
	TicketCounters string    `db:"ticket_counters" json:"ticket_counters"`
	PLUHash        string    `db:"plu_hash" json:"plu_hash"`
	FDMNumber      string    `db:"fdm_number" json:"fdm_number"`
	DeviceDate     string    `db:"device_date" json:"device_date"`
	DeviceTime     string    `db:"device_time" json:"device_time"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// OrderFilter — отбор заказов сессии в бэк-офисе.
type OrderFilter struct {
	SessionID     int64
	INSZ          string // пусто — все кассиры
	IncludeDrafts bool
	Limit         uint64 // 0 — без ограничения
}
