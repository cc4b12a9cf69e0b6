package report

import (
	"sort"

	"blackboxbe/internal/domain/models"
)

// Shifts разбивает заказы на смены кассиров.
// Смена начинается заказом прихода и заканчивается заказом ухода; заказы вне смены не учитываются.
func Shifts(orders []models.OrderExport) []models.WorkShift {
	sorted := make([]models.OrderExport, 0, len(orders))
	for _, o := range orders {
		if !o.Draft {
			sorted = append(sorted, o)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].INSZ != sorted[j].INSZ {
			return sorted[i].INSZ < sorted[j].INSZ
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var (
		shifts  []models.WorkShift
		current *models.WorkShift
		insz    string
	)
	for _, o := range sorted {
		if o.INSZ != insz {
			insz = o.INSZ
			current = nil
		}

		if o.Clock == models.ClockIn {
			shifts = append(shifts, models.WorkShift{
				INSZ:        o.INSZ,
				CashierName: o.CashierName,
				ClockIn:     o.CreatedAt,
			})
			current = &shifts[len(shifts)-1]
		}
		if current == nil {
			continue
		}

		current.Revenue = current.Revenue.Add(o.AmountPaid)
		current.CashRounding = current.CashRounding.Add(o.AmountTotal.Sub(o.AmountPaid).Round(2))

		switch o.Clock {
		case models.ClockOut:
			current.ClockOut = o.CreatedAt
			current = nil
		case models.ClockNone:
			current.TicketCount++
			if current.FirstTicket.IsZero() {
				current.FirstTicket = o.CreatedAt
			}
			current.LastTicket = o.CreatedAt
		}
	}
	return shifts
}
