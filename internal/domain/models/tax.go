package models

import "github.com/shopspring/decimal"

// VATCategory — буква категории НДС, принимаемая фискальным модулем.
type VATCategory string

const (
	VATCategoryA VATCategory = "A" // 21%
	VATCategoryB VATCategory = "B" // 12%
	VATCategoryC VATCategory = "C" // 6%
	VATCategoryD VATCategory = "D" // 0%
)

// VATCategories перечисляет категории в порядке полей vat1..vat4 фискальной записи.
var VATCategories = []VATCategory{VATCategoryA, VATCategoryB, VATCategoryC, VATCategoryD}

var vatRates = map[VATCategory]int64{
	VATCategoryA: 21,
	VATCategoryB: 12,
	VATCategoryC: 6,
	VATCategoryD: 0,
}

// Rate возвращает ставку категории в процентах.
func (c VATCategory) Rate() (decimal.Decimal, bool) {
	r, ok := vatRates[c]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(r), true
}

// Valid сообщает, является ли буква допустимой категорией.
func (c VATCategory) Valid() bool {
	_, ok := vatRates[c]
	return ok
}

// CategoryForRate подбирает букву для ставки. Для прочих ставок возвращает пустую категорию.
func CategoryForRate(rate decimal.Decimal) VATCategory {
	for _, c := range VATCategories {
		if r, _ := c.Rate(); r.Equal(rate) {
			return c
		}
	}
	return ""
}

// Tax — налог, включённый в цену товара.
type Tax struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"` // ставка в процентах
	Letter VATCategory     `json:"identification_letter,omitempty"`
}

// NewTax создаёт налог и назначает ему букву по ставке.
func NewTax(id int64, name string, rate int64) Tax {
	amount := decimal.NewFromInt(rate)
	return Tax{ID: id, Name: name, Amount: amount, Letter: CategoryForRate(amount)}
}

// TaxDetail — сумма налога заказа по одному налогу.
type TaxDetail struct {
	Tax    Tax             `json:"tax"`
	Amount decimal.Decimal `json:"amount"`
	Base   decimal.Decimal `json:"base"`
}
