package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Форматы даты и времени, в которых подпись хранится на заказе
const (
	BlackboxDateLayout = "02-01-2006"
	BlackboxTimeLayout = "15:04:05"
)

// BlackboxData — данные, которые проставляются на заказ после подписи фискальным модулем.
type BlackboxData struct {
	ReceiptType             ReceiptType         `json:"receipt_type"`
	Signature               string              `json:"blackbox_signature"`
	UnitID                  string              `json:"blackbox_unit_id"`
	VSCIdentificationNumber string              `json:"blackbox_vsc_identification_number"`
	FDMProductionNumber     string              `json:"blackbox_unique_fdm_production_number"`
	TicketCounter           string              `json:"blackbox_ticket_counter"`
	TotalTicketCounter      string              `json:"blackbox_total_ticket_counter"`
	TicketCounters          string              `json:"blackbox_ticket_counters"` // "NS 12/345"
	Date                    string              `json:"blackbox_date"`            // DD-MM-YYYY
	Time                    string              `json:"blackbox_time"`            // HH:MM:SS
	PLUHash                 string              `json:"blackbox_plu_hash"`
	TaxCategoryA            decimal.NullDecimal `json:"blackbox_tax_category_a"`
	TaxCategoryB            decimal.NullDecimal `json:"blackbox_tax_category_b"`
	TaxCategoryC            decimal.NullDecimal `json:"blackbox_tax_category_c"`
	TaxCategoryD            decimal.NullDecimal `json:"blackbox_tax_category_d"`
	ReceiptTotal            decimal.Decimal     `json:"blackbox_receipt_total"`
	POSReceiptTime          time.Time           `json:"blackbox_pos_receipt_time"`
}

// ReceiptTime разбирает дату и время устройства.
func (b BlackboxData) ReceiptTime(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(BlackboxDateLayout+" "+BlackboxTimeLayout, b.Date+" "+b.Time, loc)
}

// TaxCategory возвращает сумму налога по букве.
func (b BlackboxData) TaxCategory(c VATCategory) decimal.NullDecimal {
	switch c {
	case VATCategoryA:
		return b.TaxCategoryA
	case VATCategoryB:
		return b.TaxCategoryB
	case VATCategoryC:
		return b.TaxCategoryC
	case VATCategoryD:
		return b.TaxCategoryD
	}
	return decimal.NullDecimal{}
}
