package ports

import (
	"context"

	"blackboxbe/internal/domain/models"
)

// PinPrompter запрашивает у пользователя PIN-код устройства.
// ok=false означает, что пользователь отказался от ввода.
type PinPrompter interface {
	PromptPin(ctx context.Context, title string) (pin string, ok bool, err error)
}

// Notifier показывает пользователю блокирующее уведомление.
type Notifier interface {
	Notify(title, body string)
}

// ReceiptPrinter печатает чек заказа.
type ReceiptPrinter interface {
	PrintReceipt(ctx context.Context, order *models.Order) error
}
