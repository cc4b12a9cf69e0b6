package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"blackboxbe/internal/domain/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository реализует backoffice.Store.
type Repository struct {
	db *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{
		db: pool,
	}
}

func (r *Repository) CreateSession(ctx context.Context, info models.SessionInfo) (int64, error) {
	const q = `
	INSERT INTO sessions (
		config_name,
		user_id,
		user_name,
		user_insz,
		hr_mode,
		fiscal_mode,
		fdm_identifier,
		start_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, q,
		info.ConfigName,
		info.User.ID,
		info.User.Name,
		info.User.INSZ,
		info.HRMode,
		info.FiscalMode,
		info.FDMIdentifier,
		info.StartedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (r *Repository) Session(ctx context.Context, id int64) (models.SessionInfo, error) {
	q := selectSession + " WHERE id = $1"

	var info models.SessionInfo
	err := r.db.QueryRow(ctx, q, id).Scan(
		&info.ID,
		&info.ConfigName,
		&info.User.ID,
		&info.User.Name,
		&info.User.INSZ,
		&info.HRMode,
		&info.FiscalMode,
		&info.FDMIdentifier,
		&info.CashBoxOpening,
		&info.StartedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.SessionInfo{}, fmt.Errorf("session %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.SessionInfo{}, err
	}

	return info, nil
}

func (r *Repository) WorkStatus(ctx context.Context, sessionID, cashierID int64, employee bool) (bool, error) {
	const q = `SELECT EXISTS (
		SELECT 1 FROM session_clocking WHERE session_id = $1 AND employee = $2 AND cashier_id = $3
	)`

	var ok bool
	if err := r.db.QueryRow(ctx, q, sessionID, employee, cashierID).Scan(&ok); err != nil {
		return false, err
	}

	return ok, nil
}

func (r *Repository) SetWorkStatus(ctx context.Context, st models.WorkStatus) ([]int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if st.ClockedIn {
		const q = `INSERT INTO session_clocking (session_id, employee, cashier_id) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`
		_, err = tx.Exec(ctx, q, st.SessionID, st.Employee, st.CashierID)
	} else {
		const q = `DELETE FROM session_clocking WHERE session_id = $1 AND employee = $2 AND cashier_id = $3`
		_, err = tx.Exec(ctx, q, st.SessionID, st.Employee, st.CashierID)
	}
	if err != nil {
		return nil, err
	}

	const q = `SELECT cashier_id FROM session_clocking WHERE session_id = $1 AND employee = $2 ORDER BY cashier_id`

	rows, err := tx.Query(ctx, q, st.SessionID, st.Employee)
	if err != nil {
		return nil, err
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *Repository) Order(ctx context.Context, uid string) (models.OrderExport, error) {
	const q = `SELECT payload FROM orders WHERE uid = $1`

	var payload []byte
	err := r.db.QueryRow(ctx, q, uid).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.OrderExport{}, fmt.Errorf("order %s: %w", uid, models.ErrNotFound)
	}
	if err != nil {
		return models.OrderExport{}, err
	}

	return decodeOrder(payload)
}

func (r *Repository) SaveOrder(ctx context.Context, order models.OrderExport) error {
	const q = `
	INSERT INTO orders (
		uid,
		session_id,
		name,
		sequence_number,
		insz,
		draft,
		amount_total,
		signature,
		ticket_counters,
		created_at,
		payload
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (uid) DO UPDATE SET
		draft = EXCLUDED.draft,
		amount_total = EXCLUDED.amount_total,
		signature = EXCLUDED.signature,
		ticket_counters = EXCLUDED.ticket_counters,
		payload = EXCLUDED.payload`

	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	_, err = r.db.Exec(ctx, q,
		order.UID,
		order.SessionID,
		order.Name,
		order.SequenceNumber,
		order.INSZ,
		order.Draft,
		order.AmountTotal,
		order.Signature,
		order.TicketCounters,
		order.CreatedAt,
		payload,
	)

	return err
}

func (r *Repository) DeleteOrder(ctx context.Context, uid string) error {
	const q = `DELETE FROM orders WHERE uid = $1`

	result, err := r.db.Exec(ctx, q, uid)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", uid, models.ErrNotFound)
	}

	return nil
}

func (r *Repository) SessionOrders(ctx context.Context, f models.OrderFilter) ([]models.OrderExport, error) {
	stmt := sq.Select("payload").
		From("orders").
		Where(sq.Eq{"session_id": f.SessionID}).
		OrderBy("sequence_number").
		PlaceholderFormat(sq.Dollar)

	stmt = applyOrderFilter(stmt, f)

	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.OrderExport

	for rows.Next() {
		var payload []byte

		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}

		order, err := decodeOrder(payload)
		if err != nil {
			return nil, err
		}

		orders = append(orders, order)
	}

	return orders, rows.Err()
}

func applyOrderFilter(stmt sq.SelectBuilder, f models.OrderFilter) sq.SelectBuilder {
	if !f.IncludeDrafts {
		stmt = stmt.Where(sq.Eq{"draft": false})
	}

	if f.INSZ != "" {
		stmt = stmt.Where(sq.Eq{"insz": f.INSZ})
	}

	if f.Limit > 0 {
		stmt = stmt.Limit(f.Limit)
	}

	return stmt
}

func (r *Repository) IncreaseCashBoxOpening(ctx context.Context, sessionID int64) (int, error) {
	const q = `UPDATE sessions SET cash_box_opening_number = cash_box_opening_number + 1
	WHERE id = $1
	RETURNING cash_box_opening_number`

	var n int
	err := r.db.QueryRow(ctx, q, sessionID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("session %d: %w", sessionID, models.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}

	return n, nil
}

func (r *Repository) AddAudit(ctx context.Context, e models.AuditEntry) error {
	const q = `
	INSERT INTO blackbox_log (
		user_id,
		action,
		date,
		model_name,
		record_name,
		description
	) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, q, e.UserID, e.Action, e.Date, e.ModelName, e.RecordName, e.Description)

	return err
}

func (r *Repository) AuditLog(ctx context.Context, limit uint64) ([]models.AuditEntry, error) {
	stmt := sq.Select(
		"id",
		"user_id",
		"action",
		"date",
		"model_name",
		"record_name",
		"description",
	).From("blackbox_log").OrderBy("id DESC").PlaceholderFormat(sq.Dollar)

	if limit > 0 {
		stmt = stmt.Limit(limit)
	}

	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AuditEntry, error) {
		var e models.AuditEntry
		err := row.Scan(&e.ID, &e.UserID, &e.Action, &e.Date, &e.ModelName, &e.RecordName, &e.Description)
		return e, err
	})
}

func decodeOrder(payload []byte) (models.OrderExport, error) {
	var order models.OrderExport
	if err := json.Unmarshal(payload, &order); err != nil {
		return models.OrderExport{}, fmt.Errorf("decode order: %w", err)
	}
	return order, nil
}
