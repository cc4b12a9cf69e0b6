package models

import (
	"blackboxbe/pkg/plu"

	"github.com/shopspring/decimal"
)

// Product — товар кассы.
type Product struct {
	ID          int64           `json:"id"`
	DisplayName string          `json:"display_name"`
	Price       decimal.Decimal `json:"lst_price"` // цена с налогом
	Taxes       []Tax           `json:"taxes"`
	Unit        plu.Unit        `json:"uom"`
}

// FirstTax возвращает первый налог товара; по нему определяется буква НДС строки.
func (p Product) FirstTax() (Tax, bool) {
	if len(p.Taxes) == 0 {
		return Tax{}, false
	}
	return p.Taxes[0], true
}

// IsZero сообщает, что товар не задан.
func (p Product) IsZero() bool {
	return p.ID == 0
}
