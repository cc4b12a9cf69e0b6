package models

import (
	"fmt"
	"sort"
	"time"

	"blackboxbe/pkg/fdm"
	"blackboxbe/pkg/plu"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// ReceiptType — тип фискального чека.
type ReceiptType string

const (
	ReceiptNormalSale     ReceiptType = fdm.TypeNormalSale
	ReceiptNormalRefund   ReceiptType = fdm.TypeNormalRefund
	ReceiptProFormaSale   ReceiptType = fdm.TypeProFormaSale
	ReceiptProFormaRefund ReceiptType = fdm.TypeProFormaRefund
)

// ProForma сообщает, что чек предварительный (печать счёта).
func (t ReceiptType) ProForma() bool {
	return t == ReceiptProFormaSale || t == ReceiptProFormaRefund
}

// ClockEvent — отметка прихода/ухода, передаваемая вместе с чеком.
type ClockEvent string

const (
	ClockNone ClockEvent = ""
	ClockIn   ClockEvent = fdm.ClockIn
	ClockOut  ClockEvent = fdm.ClockOut
)

// MaxLineQuantity — наибольшее количество в строке, которое помещается в поле PLU.
const MaxLineQuantity = 9999

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// OrderLine — строка заказа. Цена единицы включает налоги.
type OrderLine struct {
	Product   Product         `json:"product"`
	Quantity  decimal.Decimal `json:"qty"`
	PriceUnit decimal.Decimal `json:"price_unit"`
	Discount  decimal.Decimal `json:"discount"` // скидка в процентах
	Taxes     []Tax           `json:"taxes"`
	Unit      plu.Unit        `json:"uom"`
}

// NewOrderLine создаёт строку по товару с его ценой, налогами и единицей.
func NewOrderLine(p Product, qty decimal.Decimal) OrderLine {
	return OrderLine{
		Product:   p,
		Quantity:  qty,
		PriceUnit: p.Price,
		Taxes:     append([]Tax(nil), p.Taxes...),
		Unit:      p.Unit,
	}
}

// DisplayPrice возвращает сумму строки с налогом и скидкой, округлённую до центов.
func (l OrderLine) DisplayPrice() decimal.Decimal {
	factor := one.Sub(l.Discount.Div(hundred))
	return l.PriceUnit.Mul(l.Quantity).Mul(factor).Round(2)
}

// UnitPrice возвращает цену единицы с налогом после скидки, округлённую до центов.
func (l OrderLine) UnitPrice() decimal.Decimal {
	factor := one.Sub(l.Discount.Div(hundred))
	return l.PriceUnit.Mul(factor).Round(2)
}

// TaxLetter возвращает букву НДС по первому налогу строки.
func (l OrderLine) TaxLetter() VATCategory {
	if len(l.Taxes) == 0 {
		return ""
	}
	return l.Taxes[0].Letter
}

// IsRefund сообщает, что строка является возвратом.
func (l OrderLine) IsRefund() bool {
	return l.Quantity.IsNegative()
}

// PLU возвращает данные строки для кодирования фрагмента PLU.
func (l OrderLine) PLU() plu.Line {
	return plu.Line{
		Quantity:    l.Quantity,
		Unit:        l.Unit,
		Description: l.Product.DisplayName,
		Price:       l.UnitPrice(),
		VATLetter:   string(l.TaxLetter()),
	}
}

// taxAmounts раскладывает сумму строки по налогам, включённым в цену.
func (l OrderLine) taxAmounts() []TaxDetail {
	if len(l.Taxes) == 0 {
		return nil
	}
	total := l.DisplayPrice()
	rates := decimal.Zero
	for _, t := range l.Taxes {
		rates = rates.Add(t.Amount)
	}
	base := total.Div(one.Add(rates.Div(hundred)))

	out := make([]TaxDetail, 0, len(l.Taxes))
	for _, t := range l.Taxes {
		out = append(out, TaxDetail{
			Tax:    t,
			Amount: base.Mul(t.Amount).Div(hundred),
			Base:   base,
		})
	}
	return out
}

// Order — заказ кассы вместе с фискальными данными.
type Order struct {
	UID            string          `json:"uid"`
	Name           string          `json:"name"`
	SessionID      int64           `json:"pos_session_id"`
	SequenceNumber int64           `json:"sequence_number"`
	UserID         int64           `json:"user_id"`
	Cashier        Cashier         `json:"cashier"`
	CreatedAt      time.Time       `json:"creation_date"`
	Lines          []OrderLine     `json:"lines"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`

	// ReceiptType задаётся явно только для предварительных чеков, иначе тип выводится из суммы
	ReceiptType ReceiptType    `json:"receipt_type,omitempty"`
	Clock       ClockEvent     `json:"clock,omitempty"`
	Blackbox    *BlackboxData  `json:"blackbox,omitempty"`
	ProForma    []BlackboxData `json:"proforma,omitempty"`
	Finalized   bool           `json:"finalized"`
}

// NewOrder создаёт пустой заказ сессии от имени текущего кассира.
func NewOrder(s *Session, sequence int64) (*Order, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate order uid: %w", err)
	}
	return &Order{
		UID:            id.String(),
		Name:           fmt.Sprintf("Order %05d-%04d", s.ID, sequence),
		SessionID:      s.ID,
		SequenceNumber: sequence,
		UserID:         s.User.ID,
		Cashier:        s.Cashier(),
		CreatedAt:      time.Now(),
	}, nil
}

// IsEmpty сообщает, что в заказе нет строк.
func (o *Order) IsEmpty() bool {
	return len(o.Lines) == 0
}

// Signed сообщает, что заказ подписан фискальным модулем окончательным чеком.
func (o *Order) Signed() bool {
	return o.Blackbox != nil
}

// AddLine добавляет строку в конец заказа.
func (o *Order) AddLine(l OrderLine) {
	o.Lines = append(o.Lines, l)
}

// TotalWithTax возвращает итог заказа с налогами.
func (o *Order) TotalWithTax() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.DisplayPrice())
	}
	return total
}

// TaxDetails группирует налоги заказа. Порядок соответствует первому появлению налога.
func (o *Order) TaxDetails() []TaxDetail {
	var order []int64
	byID := make(map[int64]*TaxDetail)
	for _, l := range o.Lines {
		for _, d := range l.taxAmounts() {
			acc, ok := byID[d.Tax.ID]
			if !ok {
				acc = &TaxDetail{Tax: d.Tax}
				byID[d.Tax.ID] = acc
				order = append(order, d.Tax.ID)
			}
			acc.Amount = acc.Amount.Add(d.Amount)
			acc.Base = acc.Base.Add(d.Base)
		}
	}

	out := make([]TaxDetail, 0, len(order))
	for _, id := range order {
		d := byID[id]
		d.Amount = d.Amount.Round(2)
		d.Base = d.Base.Round(2)
		out = append(out, *d)
	}
	return out
}

// SpecificTax возвращает сумму налога с заданной ставкой.
// ok=false означает, что такого налога в заказе нет (в отличие от налога с нулевой суммой).
func (o *Order) SpecificTax(rate int64) (amount decimal.Decimal, ok bool) {
	r := decimal.NewFromInt(rate)
	for _, d := range o.TaxDetails() {
		if d.Tax.Amount.Equal(r) {
			return d.Amount, true
		}
	}
	return decimal.Zero, false
}

// HasRefundLines и HasSaleLines используются для запрета смешанных заказов.
func (o *Order) HasRefundLines() bool {
	for _, l := range o.Lines {
		if l.IsRefund() {
			return true
		}
	}
	return false
}

func (o *Order) HasSaleLines() bool {
	for _, l := range o.Lines {
		if l.Quantity.IsPositive() {
			return true
		}
	}
	return false
}

// ProductIDs возвращает отсортированные идентификаторы товаров заказа.
func (o *Order) ProductIDs() []int64 {
	ids := make([]int64, 0, len(o.Lines))
	for _, l := range o.Lines {
		ids = append(ids, l.Product.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
