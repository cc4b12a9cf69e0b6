package backoffice

import (
	"fmt"
	"strings"

	"blackboxbe/internal/domain/models"
)

// Describe формирует текст записи журнала аудита для заказа.
func Describe(order models.OrderExport, info models.SessionInfo) string {
	title := "NORMAL"
	if order.Draft {
		title = "PRO FORMA"
	}
	if order.AmountPaid.Round(2).IsNegative() {
		title += " REFUNDS"
	} else {
		title += " SALES"
	}

	var b strings.Builder
	fmt.Fprintln(&b, title)
	fmt.Fprintf(&b, "Date: %s\n", order.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Ref: %s\n", order.Name)
	fmt.Fprintf(&b, "Cashier: %s\n", order.CashierName)
	b.WriteString("Order lines:")
	for _, l := range order.Lines {
		fmt.Fprintf(&b, "\n* %s x %s: %s", l.Quantity, l.ProductName, l.PriceSubtotalIncl.StringFixed(2))
		if l.Discount.IsPositive() {
			fmt.Fprintf(&b, " (disc: %s%%)", l.Discount)
		}
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Total: %s\n", order.AmountPaid.StringFixed(2))
	fmt.Fprintf(&b, "Rounding: %s\n", order.AmountTotal.Sub(order.AmountPaid).StringFixed(2))
	fmt.Fprintf(&b, "Ticket Counter: %s\n", order.TicketCounters)
	fmt.Fprintf(&b, "Hash: %s\n", order.PLUHash)
	fmt.Fprintf(&b, "POS Version: %s\n", order.PosVersion)
	fmt.Fprintf(&b, "FDM ID: %s\n", order.FDMProductionNumber)
	fmt.Fprintf(&b, "POS ID: %s\n", info.ConfigName)
	fmt.Fprintf(&b, "FDM Identifier: %s", info.FDMIdentifier)
	return b.String()
}
