package fiscal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"blackboxbe/internal/domain/models"
	"blackboxbe/pkg/fdm"
	"blackboxbe/pkg/plu"

	"github.com/shopspring/decimal"
)

// Ставки НДС в порядке полей vat1..vat4
var vatRates = [4]int64{21, 12, 6, 0}

var (
	ErrMissingOperator = errors.New("fiscal: cashier has no INSZ or BIS number")
	ErrAlreadySigned   = errors.New("fiscal: order is already signed")
)

// Draft — фискальная запись заказа и данные, которые будут проставлены на заказ после подписи.
// Запись строится заново для каждой попытки отправки.
type Draft struct {
	Record      fdm.Record
	ReceiptType models.ReceiptType
	PLUHash     string
	Taxes       [4]decimal.NullDecimal // суммы налогов по категориям A..D
	Total       decimal.Decimal
	CreatedAt   time.Time
}

// Builder строит фискальные записи заказов.
type Builder struct {
	Now func() time.Time
}

// NewBuilder создаёт построитель с системными часами.
func NewBuilder() *Builder {
	return &Builder{Now: time.Now}
}

// Build собирает фискальную запись заказа. Заказ при этом не изменяется.
func (b *Builder) Build(order *models.Order, session *models.Session) (*Draft, error) {
	now := b.now()

	operator := session.User.INSZ
	if session.HRMode {
		operator = session.Cashier().INSZ
	}
	if operator == "" {
		return nil, ErrMissingOperator
	}

	hash, err := PLUHash(order, session.Units)
	if err != nil {
		return nil, err
	}

	total := order.TotalWithTax()
	draft := &Draft{
		ReceiptType: ReceiptTypeOf(order),
		PLUHash:     hash,
		Total:       total,
		CreatedAt:   now,
	}

	var buckets [4]string
	for i, rate := range vatRates {
		amount, ok := order.SpecificTax(rate)
		draft.Taxes[i] = decimal.NullDecimal{Decimal: amount, Valid: ok}
		if ok {
			buckets[i] = FormatAmount(amount)
		}
	}

	draft.Record = fdm.Record{
		Date:         now.Format("20060102"),
		TicketTime:   now.Format("150405"),
		Operator:     operator,
		TicketNumber: strconv.FormatInt(order.SequenceNumber, 10),
		Type:         string(draft.ReceiptType),
		ReceiptTotal: FormatAmount(total),
		VAT1:         buckets[0],
		VAT2:         buckets[1],
		VAT3:         buckets[2],
		VAT4:         buckets[3],
		PLU:          hash,
		Clock:        string(order.Clock),
	}
	return draft, nil
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

// ReceiptTypeOf возвращает явно заданный тип чека либо NS/NR по знаку итога.
func ReceiptTypeOf(order *models.Order) models.ReceiptType {
	if order.ReceiptType != "" {
		return order.ReceiptType
	}
	if order.TotalWithTax().IsNegative() {
		return models.ReceiptNormalRefund
	}
	return models.ReceiptNormalSale
}

// ProFormaTypeOf возвращает тип предварительного чека по знаку итога.
func ProFormaTypeOf(order *models.Order) models.ReceiptType {
	if order.TotalWithTax().IsNegative() {
		return models.ReceiptProFormaRefund
	}
	return models.ReceiptProFormaSale
}

// PLUHash считает хеш PLU по строкам заказа.
func PLUHash(order *models.Order, units plu.UnitTable) (string, error) {
	lines := make([]plu.Line, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, l.PLU())
	}
	hash, err := plu.HashLines(lines, units)
	if err != nil {
		return "", fmt.Errorf("failed to compute PLU hash of %s: %w", order.Name, err)
	}
	return hash, nil
}

// FormatAmount записывает модуль суммы с двумя знаками после запятой без разделителя: 3.50 → "350".
func FormatAmount(v decimal.Decimal) string {
	return strings.Replace(v.Abs().StringFixed(2), ".", "", 1)
}
