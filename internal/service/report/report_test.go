package report_test

import (
	"testing"
	"time"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/service/report"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(qty, price, discount, subtotal string, letter models.VATCategory, rate string) models.LineExport {
	return models.LineExport{
		Quantity:          d(qty),
		PriceUnit:         d(price),
		Discount:          d(discount),
		PriceSubtotalIncl: d(subtotal),
		VATLetter:         letter,
		TaxRate:           d(rate),
	}
}

func order(insz string, minute int, total string, lines ...models.LineExport) models.OrderExport {
	return models.OrderExport{
		INSZ:        insz,
		CashierName: "Cashier " + insz,
		CreatedAt:   start.Add(time.Duration(minute) * time.Minute),
		AmountTotal: d(total),
		AmountPaid:  d(total),
		Lines:       lines,
	}
}

func clockOrder(insz string, minute int, event models.ClockEvent) models.OrderExport {
	o := order(insz, minute, "0", line("1", "0", "0", "0", models.VATCategoryD, "0"))
	o.Clock = event
	return o
}

func TestBuild(t *testing.T) {
	info := models.SessionInfo{
		ID:             7,
		ConfigName:     "Shop",
		User:           models.Cashier{Name: "Admin", INSZ: "85073003328"},
		FDMIdentifier:  "BODO002",
		CashBoxOpening: 3,
	}

	sale := order("A", 10, "12.10", line("1", "12.10", "0", "12.10", models.VATCategoryA, "21"))
	discounted := order("A", 20, "9.00", line("1", "10.00", "10", "9.00", models.VATCategoryA, "21"))
	correction := order("A", 30, "5.00",
		line("2", "3.00", "0", "6.00", models.VATCategoryC, "6"),
		line("-1", "1.00", "0", "-1.00", models.VATCategoryC, "6"),
	)
	refund := order("A", 40, "-3.50", line("-1", "3.50", "0", "-3.50", models.VATCategoryC, "6"))

	draft := order("A", 50, "7.00", line("1", "7.00", "0", "7.00", models.VATCategoryB, "12"))
	draft.Draft = true
	draft.ProForma = []models.BlackboxData{
		{ReceiptType: models.ReceiptProFormaSale, ReceiptTotal: d("7.00")},
		{ReceiptType: models.ReceiptProFormaSale, ReceiptTotal: d("8.00")},
	}

	r := report.Build(info, []models.OrderExport{sale, discounted, correction, refund, draft})

	assert.Equal(t, int64(7), r.SessionID)
	assert.Equal(t, "Admin", r.CashierName)
	assert.Equal(t, "Shop", r.CashRegisterID)
	assert.Equal(t, "BODO002", r.FDMIdentifier)
	assert.Equal(t, 3, r.CashBoxOpening)

	assert.Equal(t, 3, r.NormalSales)
	assert.Equal(t, 1, r.NormalRefunds)

	assert.Equal(t, 2, r.ProFormaNumber)
	assert.Equal(t, "15.00", r.ProFormaAmount.StringFixed(2))

	assert.Equal(t, 1, r.PositiveDiscountNumber)
	assert.Equal(t, 0, r.NegativeDiscountNumber)
	assert.Equal(t, "1.00", r.PositiveDiscountAmount.StringFixed(2))

	assert.Equal(t, 1, r.CorrectionNumber)
	assert.Equal(t, "-1.00", r.CorrectionAmount.StringFixed(2))

	require.Len(t, r.Taxes, 4)
	letters := make([]models.VATCategory, 0, 4)
	for _, tax := range r.Taxes {
		letters = append(letters, tax.Letter)
	}
	assert.Equal(t, []models.VATCategory{"D", "C", "B", "A"}, letters)

	taxA := r.Taxes[3]
	assert.Equal(t, "21%", taxA.Name)
	assert.Equal(t, "3.66", taxA.TaxAmount.StringFixed(2))  // 2.10 + 1.56
	assert.Equal(t, "17.44", taxA.BaseAmount.StringFixed(2)) // 10.00 + 7.44

	taxB := r.Taxes[2]
	assert.True(t, taxB.TaxAmount.IsZero(), "unpaid order must not count in taxes")
	assert.Equal(t, "12%", taxB.Name)

	require.Len(t, r.RefundTaxes, 4)
	refundC := r.RefundTaxes[1]
	assert.Equal(t, models.VATCategoryC, refundC.Letter)
	assert.Equal(t, "-0.26", refundC.TaxAmount.StringFixed(2)) // -0.06 - 0.20
}

func TestBuildEmptySession(t *testing.T) {
	r := report.Build(models.SessionInfo{ID: 1}, nil)

	assert.Zero(t, r.NormalSales)
	require.Len(t, r.Taxes, 4)
	for _, tax := range r.Taxes {
		assert.True(t, tax.TaxAmount.IsZero())
	}
	assert.Equal(t, "0%", r.Taxes[0].Name)
	assert.Equal(t, "21%", r.Taxes[3].Name)
	assert.Empty(t, r.Shifts)
}

func TestShifts(t *testing.T) {
	orders := []models.OrderExport{
		clockOrder("B", 0, models.ClockIn),
		order("B", 5, "4.00", line("1", "4.00", "0", "4.00", models.VATCategoryC, "6")),
		clockOrder("A", 1, models.ClockIn),
		order("A", 2, "10.00", line("1", "10.00", "0", "10.00", models.VATCategoryA, "21")),
		order("A", 3, "5.00", line("1", "5.00", "0", "5.00", models.VATCategoryA, "21")),
		clockOrder("A", 4, models.ClockOut),
		// вне смены
		order("A", 6, "1.00", line("1", "1.00", "0", "1.00", models.VATCategoryA, "21")),
		clockOrder("A", 7, models.ClockIn),
	}
	orders[3].AmountPaid = d("10.00")
	orders[4].AmountTotal = d("5.02")

	shifts := report.Shifts(orders)
	require.Len(t, shifts, 3)

	first := shifts[0]
	assert.Equal(t, "A", first.INSZ)
	assert.Equal(t, start.Add(time.Minute), first.ClockIn)
	assert.Equal(t, start.Add(4*time.Minute), first.ClockOut)
	assert.Equal(t, start.Add(2*time.Minute), first.FirstTicket)
	assert.Equal(t, start.Add(3*time.Minute), first.LastTicket)
	assert.Equal(t, 2, first.TicketCount)
	assert.Equal(t, "15.00", first.Revenue.StringFixed(2))
	assert.Equal(t, "0.02", first.CashRounding.StringFixed(2))

	reopened := shifts[1]
	assert.Equal(t, "A", reopened.INSZ)
	assert.True(t, reopened.ClockOut.IsZero())
	assert.Zero(t, reopened.TicketCount)

	other := shifts[2]
	assert.Equal(t, "B", other.INSZ)
	assert.Equal(t, "Cashier B", other.CashierName)
	assert.Equal(t, 1, other.TicketCount)
}
