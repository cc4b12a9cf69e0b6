package plu

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Ширины полей строки PLU
const (
	QuantityWidth    = 4
	DescriptionWidth = 20
	PriceWidth       = 8
	LineWidth        = QuantityWidth + DescriptionWidth + PriceWidth + 1
)

// Категории единиц измерения, для которых количество пересчитывается
const (
	CategoryWeight = "Weight"
	CategoryVolume = "Volume"

	gramName       = "g"
	milliliterName = "Milliliter(s)"
)

var hundred = decimal.NewFromInt(100)

// Unit описывает единицу измерения товара.
type Unit struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	IsUnit   bool            `json:"is_unit"`
	Factor   decimal.Decimal `json:"factor"`
}

// UnitTable — справочник единиц измерения терминала.
type UnitTable []Unit

// Find ищет единицу по категории и имени.
func (t UnitTable) Find(category, name string) (Unit, bool) {
	for _, u := range t {
		if u.Category == category && u.Name == name {
			return u, true
		}
	}
	return Unit{}, false
}

// Line — данные одной строки заказа, из которых строится фрагмент PLU.
type Line struct {
	Quantity    decimal.Decimal
	Unit        Unit
	Description string
	Price       decimal.Decimal // цена единицы с налогом, в евро
	VATLetter   string
}

// NormalizedQuantity приводит количество к базовой единице:
// вес к граммам, объём к миллилитрам. Штучные товары не пересчитываются,
// как и товары, для которых в справочнике нет эталонной единицы.
func NormalizedQuantity(qty decimal.Decimal, unit Unit, table UnitTable) decimal.Decimal {
	if unit.IsUnit {
		return qty
	}

	var ref Unit
	var ok bool
	switch unit.Category {
	case CategoryWeight:
		ref, ok = table.Find(CategoryWeight, gramName)
	case CategoryVolume:
		ref, ok = table.Find(CategoryVolume, milliliterName)
	}
	if !ok || unit.Factor.IsZero() {
		return qty
	}
	return qty.Div(unit.Factor).Mul(ref.Factor)
}

// FormatNumber форматирует число для поля фиксированной ширины:
// модуль, округление до целого, младшие width цифр, дополнение нулями слева.
func FormatNumber(v decimal.Decimal, width int) string {
	s := Normalize(v.Abs().Round(0).String())
	if len(s) > width {
		s = s[len(s)-width:]
	}
	return strings.Repeat("0", width-len(s)) + s
}

// FormatDescription нормализует описание, берёт первые 20 символов и дополняет пробелами справа.
func FormatDescription(description string) string {
	s := Normalize(description)
	if len(s) > DescriptionWidth {
		s = s[:DescriptionWidth]
	}
	return s + strings.Repeat(" ", DescriptionWidth-len(s))
}

// ValidVATLetter сообщает, является ли буква допустимой категорией НДС.
func ValidVATLetter(letter string) bool {
	switch letter {
	case "A", "B", "C", "D":
		return true
	}
	return false
}

// EncodeLine строит фрагмент PLU длиной 33 символа:
// количество(4) + описание(20) + цена в центах(8) + буква НДС(1).
func EncodeLine(line Line, table UnitTable) (string, error) {
	if !ValidVATLetter(line.VATLetter) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVATLetter, line.VATLetter)
	}

	qty := NormalizedQuantity(line.Quantity, line.Unit, table)

	var b strings.Builder
	b.Grow(LineWidth)
	b.WriteString(FormatNumber(qty, QuantityWidth))
	b.WriteString(FormatDescription(line.Description))
	b.WriteString(FormatNumber(line.Price.Mul(hundred), PriceWidth))
	b.WriteString(line.VATLetter)
	return b.String(), nil
}
