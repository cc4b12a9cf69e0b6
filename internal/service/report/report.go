// Package report собирает отчёт о продажах кассовой сессии и смены кассиров.
package report

import (
	"sort"

	"blackboxbe/internal/domain/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Build собирает отчёт по заказам сессии.
// Неоплаченные заказы учитываются только в итогах предварительных чеков.
func Build(info models.SessionInfo, orders []models.OrderExport) models.Report {
	r := models.Report{
		SessionID:              info.ID,
		CashierName:            info.User.Name,
		INSZ:                   info.User.INSZ,
		CashRegisterID:         info.ConfigName,
		FDMIdentifier:          info.FDMIdentifier,
		CashBoxOpening:         info.CashBoxOpening,
		ProFormaAmount:         decimal.Zero,
		PositiveDiscountAmount: decimal.Zero,
		NegativeDiscountAmount: decimal.Zero,
		CorrectionAmount:       decimal.Zero,
	}

	sales := newTaxTotals()
	refunds := newTaxTotals()
	registered := make([]models.OrderExport, 0, len(orders))

	for _, o := range orders {
		for _, pf := range o.ProForma {
			r.ProFormaNumber++
			r.ProFormaAmount = r.ProFormaAmount.Add(pf.ReceiptTotal)
		}
		if o.Draft {
			continue
		}
		registered = append(registered, o)

		positive := !o.AmountTotal.IsNegative()
		if positive {
			r.NormalSales++
		} else {
			r.NormalRefunds++
		}

		discounted := false
		corrected := false
		for _, l := range o.Lines {
			if l.Quantity.IsNegative() {
				refunds.add(l)
			} else {
				sales.add(l)
			}

			if l.Discount.IsPositive() {
				discounted = true
				amount := l.PriceUnit.Mul(l.Quantity).Sub(l.PriceSubtotalIncl)
				if l.PriceSubtotalIncl.IsNegative() {
					r.NegativeDiscountAmount = r.NegativeDiscountAmount.Add(amount)
				} else {
					r.PositiveDiscountAmount = r.PositiveDiscountAmount.Add(amount)
				}
			}

			if o.AmountTotal.IsPositive() {
				if l.Quantity.IsNegative() {
					corrected = true
				}
				if l.PriceSubtotalIncl.IsNegative() {
					r.CorrectionAmount = r.CorrectionAmount.Add(l.PriceSubtotalIncl)
				}
			}
		}

		if discounted {
			if positive {
				r.PositiveDiscountNumber++
			} else {
				r.NegativeDiscountNumber++
			}
		}
		if corrected {
			r.CorrectionNumber++
		}
	}

	r.Taxes = sales.list()
	r.RefundTaxes = refunds.list()
	r.Shifts = Shifts(registered)
	return r
}

// taxTotals копит суммы налога и базы по букве категории.
type taxTotals map[models.VATCategory]*models.ReportTax

func newTaxTotals() taxTotals {
	return make(taxTotals)
}

func (t taxTotals) add(l models.LineExport) {
	letter := l.VATLetter
	if letter == "" {
		letter = models.CategoryForRate(l.TaxRate)
	}
	if letter == "" {
		return
	}

	base := l.PriceSubtotalIncl.Div(hundred.Add(l.TaxRate).Div(hundred)).Round(2)
	tax := l.PriceSubtotalIncl.Sub(base)

	total, ok := t[letter]
	if !ok {
		total = &models.ReportTax{
			Name:       taxName(letter),
			Letter:     letter,
			TaxAmount:  decimal.Zero,
			BaseAmount: decimal.Zero,
		}
		t[letter] = total
	}
	total.TaxAmount = total.TaxAmount.Add(tax)
	total.BaseAmount = total.BaseAmount.Add(base)
}

// list возвращает налоги всех четырёх категорий, отсутствующие заполняются нулями.
// Порядок — по убыванию буквы.
func (t taxTotals) list() []models.ReportTax {
	out := make([]models.ReportTax, 0, len(models.VATCategories))
	for _, c := range models.VATCategories {
		if total, ok := t[c]; ok {
			out = append(out, *total)
			continue
		}
		out = append(out, models.ReportTax{
			Name:       taxName(c),
			Letter:     c,
			TaxAmount:  decimal.Zero,
			BaseAmount: decimal.Zero,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Letter > out[j].Letter })
	return out
}

func taxName(c models.VATCategory) string {
	rate, _ := c.Rate()
	return rate.String() + "%"
}
