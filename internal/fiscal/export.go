package fiscal

import (
	"blackboxbe/internal/domain/models"
)

// PosVersion передаётся в бэк-офис вместе с каждым заказом.
const PosVersion = "blackboxbe-1.0"

// Export формирует представление заказа для бэк-офиса.
func Export(order *models.Order, session *models.Session) models.OrderExport {
	exp := models.OrderExport{
		UID:            order.UID,
		Name:           order.Name,
		SessionID:      order.SessionID,
		SequenceNumber: order.SequenceNumber,
		UserID:         order.UserID,
		CashierName:    order.Cashier.Name,
		INSZ:           order.Cashier.INSZ,
		CreatedAt:      order.CreatedAt,
		AmountTotal:    order.TotalWithTax(),
		AmountPaid:     order.AmountPaid,
		Clock:          order.Clock,
		PosVersion:     PosVersion,
		Draft:          !order.Signed(),
	}
	if session.HRMode {
		exp.EmployeeID = order.Cashier.ID
	}

	exp.Lines = make([]models.LineExport, 0, len(order.Lines))
	for _, l := range order.Lines {
		le := models.LineExport{
			ProductID:         l.Product.ID,
			ProductName:       l.Product.DisplayName,
			Quantity:          l.Quantity,
			PriceUnit:         l.PriceUnit,
			Discount:          l.Discount,
			PriceSubtotalIncl: l.DisplayPrice(),
			VATLetter:         l.TaxLetter(),
		}
		if len(l.Taxes) > 0 {
			le.TaxRate = l.Taxes[0].Amount
		}
		exp.Lines = append(exp.Lines, le)
	}

	if order.Blackbox != nil {
		exp.BlackboxData = *order.Blackbox
	}
	if len(order.ProForma) > 0 {
		exp.ProForma = append([]models.BlackboxData(nil), order.ProForma...)
	}
	return exp
}
