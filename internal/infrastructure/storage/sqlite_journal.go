package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/domain/ports"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS receipt_journal (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	order_uid       TEXT    NOT NULL,
	sequence_number INTEGER NOT NULL,
	receipt_type    TEXT    NOT NULL,
	signature       TEXT    NOT NULL,
	ticket_counters TEXT    NOT NULL,
	plu_hash        TEXT    NOT NULL,
	fdm_number      TEXT    NOT NULL,
	device_date     TEXT    NOT NULL,
	device_time     TEXT    NOT NULL,
	created_at      DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS receipt_journal_order_idx ON receipt_journal (order_uid);`

const insertJournalEntry = `
INSERT INTO receipt_journal (order_uid, sequence_number, receipt_type, signature, ticket_counters,
	plu_hash, fdm_number, device_date, device_time, created_at)
VALUES (:order_uid, :sequence_number, :receipt_type, :signature, :ticket_counters,
	:plu_hash, :fdm_number, :device_date, :device_time, :created_at)`

const selectJournalEntries = `
SELECT id, order_uid, sequence_number, receipt_type, signature, ticket_counters,
	plu_hash, fdm_number, device_date, device_time, created_at
FROM receipt_journal
ORDER BY id DESC
LIMIT ?`

// SQLiteJournal — журнал подписанных чеков терминала в файле SQLite.
type SQLiteJournal struct {
	db *sqlx.DB
}

var _ ports.ReceiptJournal = (*SQLiteJournal)(nil)

// OpenJournal открывает (или создаёт) журнал по указанному пути.
func OpenJournal(path string) (*SQLiteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории журнала: %w", err)
	}

	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия журнала: %w", err)
	}
	// SQLite не допускает параллельной записи
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка создания схемы журнала: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// Append добавляет запись в журнал.
func (j *SQLiteJournal) Append(ctx context.Context, entry models.JournalEntry) error {
	if _, err := j.db.NamedExecContext(ctx, insertJournalEntry, entry); err != nil {
		return fmt.Errorf("ошибка записи в журнал: %w", err)
	}
	return nil
}

// List возвращает последние записи журнала, новые первыми. limit <= 0 — все записи.
func (j *SQLiteJournal) List(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	if limit <= 0 {
		limit = -1
	}

	entries := []models.JournalEntry{}
	if err := j.db.SelectContext(ctx, &entries, selectJournalEntries, limit); err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала: %w", err)
	}
	return entries, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
