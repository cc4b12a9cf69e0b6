package fiscal

import (
	"fmt"

	"blackboxbe/internal/domain/models"
	"blackboxbe/pkg/fdm"
)

// Seal переносит данные подписи на заказ.
// Окончательный чек проставляется один раз, предварительные добавляются в историю заказа.
func Seal(order *models.Order, draft *Draft, receipt *fdm.SignedReceipt) (models.BlackboxData, error) {
	data := models.BlackboxData{
		ReceiptType:             draft.ReceiptType,
		Signature:               receipt.Signature,
		UnitID:                  receipt.VSC,
		VSCIdentificationNumber: receipt.VSC,
		FDMProductionNumber:     receipt.FDMNumber,
		TicketCounter:           receipt.TicketCounter,
		TotalTicketCounter:      receipt.TotalTicketCounter,
		TicketCounters:          fmt.Sprintf("%s %s/%s", draft.ReceiptType, receipt.TicketCounter, receipt.TotalTicketCounter),
		Date:                    deviceDate(receipt.Date),
		Time:                    deviceTime(receipt.Time),
		PLUHash:                 draft.PLUHash,
		TaxCategoryA:            draft.Taxes[0],
		TaxCategoryB:            draft.Taxes[1],
		TaxCategoryC:            draft.Taxes[2],
		TaxCategoryD:            draft.Taxes[3],
		ReceiptTotal:            draft.Total,
		POSReceiptTime:          draft.CreatedAt,
	}

	if draft.ReceiptType.ProForma() {
		order.ProForma = append(order.ProForma, data)
		return data, nil
	}
	if order.Signed() {
		return models.BlackboxData{}, fmt.Errorf("%w: %s", ErrAlreadySigned, order.Name)
	}
	order.ReceiptType = draft.ReceiptType
	order.Blackbox = &data
	return data, nil
}

// deviceTime: HHMMSS → HH:MM:SS
func deviceTime(s string) string {
	if len(s) != 6 || !digits(s) {
		return s
	}
	return s[0:2] + ":" + s[2:4] + ":" + s[4:6]
}

// deviceDate: YYYYMMDD → DD-MM-YYYY
func deviceDate(s string) string {
	if len(s) != 8 || !digits(s) {
		return s
	}
	return s[6:8] + "-" + s[4:6] + "-" + s[0:4]
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
