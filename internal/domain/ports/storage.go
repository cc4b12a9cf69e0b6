package ports

import (
	"context"

	"blackboxbe/internal/domain/models"
)

// UnpaidOrderStore хранит заказы, которые ещё не подписаны и не зарегистрированы в бэк-офисе.
// Реализация интерфейса находится в слое Infrastructure.
type UnpaidOrderStore interface {
	// Save добавляет или обновляет заказ
	Save(order *models.Order) error

	// Remove удаляет заказ по UID
	Remove(uid string) error

	// Find находит заказ по UID
	Find(uid string) (*models.Order, error)

	// List возвращает все неоплаченные заказы
	List() ([]*models.Order, error)
}

// ReceiptJournal — локальный журнал подписанных чеков терминала.
type ReceiptJournal interface {
	Append(ctx context.Context, entry models.JournalEntry) error
	List(ctx context.Context, limit int) ([]models.JournalEntry, error)
}

// SequenceSource выдаёт номера чеков терминала.
type SequenceSource interface {
	NextSequence() (int64, error)
}
