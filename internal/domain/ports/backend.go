package ports

import (
	"context"

	"blackboxbe/internal/domain/models"
)

// SessionBackend — удалённые вызовы бэк-офиса, которыми пользуется терминал.
type SessionBackend interface {
	// WorkStatus сообщает, отмечен ли кассир в сессии
	WorkStatus(ctx context.Context, sessionID, cashierID int64, employee bool) (bool, error)

	// SetWorkStatus сохраняет отметку и возвращает идентификаторы отмеченных кассиров сессии
	SetWorkStatus(ctx context.Context, status models.WorkStatus) ([]int64, error)

	// RegisterOrder регистрирует подписанный заказ
	RegisterOrder(ctx context.Context, order models.OrderExport) error

	// SaveDraft сохраняет неоплаченный заказ перед предварительным чеком
	SaveDraft(ctx context.Context, order models.OrderExport) error

	// IncreaseCashBoxOpening увеличивает счётчик открытий денежного ящика
	IncreaseCashBoxOpening(ctx context.Context, sessionID int64) (int, error)
}
