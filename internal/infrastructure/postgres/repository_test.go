package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/infrastructure/postgres"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepository(t *testing.T) *postgres.Repository {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN is not set")
	}

	require.NoError(t, postgres.UpMigrations(dsn))

	pool, err := postgres.Connect(context.Background(), dsn, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return postgres.New(pool)
}

func TestRepository_Session(t *testing.T) {
	r := newRepository(t)
	ctx := context.Background()

	info := models.SessionInfo{
		ConfigName:    "Shop 1",
		User:          models.Cashier{ID: 1, Name: "Admin", INSZ: "85073003328"},
		FiscalMode:    true,
		FDMIdentifier: "DO002422000123",
		StartedAt:     time.Now().UTC().Truncate(time.Second),
	}

	id, err := r.CreateSession(ctx, info)
	require.NoError(t, err)

	got, err := r.Session(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Shop 1", got.ConfigName)
	assert.Equal(t, info.User, got.User)
	assert.True(t, got.StartedAt.Equal(info.StartedAt))

	n, err := r.IncreaseCashBoxOpening(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = r.Session(ctx, -1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRepository_WorkStatus(t *testing.T) {
	r := newRepository(t)
	ctx := context.Background()

	id, err := r.CreateSession(ctx, models.SessionInfo{ConfigName: "Shop", StartedAt: time.Now()})
	require.NoError(t, err)

	ids, err := r.SetWorkStatus(ctx, models.WorkStatus{SessionID: id, CashierID: 7, ClockedIn: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids)

	// повторная отметка не дублирует запись
	ids, err = r.SetWorkStatus(ctx, models.WorkStatus{SessionID: id, CashierID: 7, ClockedIn: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids)

	in, err := r.WorkStatus(ctx, id, 7, false)
	require.NoError(t, err)
	assert.True(t, in)

	ids, err = r.SetWorkStatus(ctx, models.WorkStatus{SessionID: id, CashierID: 7})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRepository_Orders(t *testing.T) {
	r := newRepository(t)
	ctx := context.Background()

	id, err := r.CreateSession(ctx, models.SessionInfo{ConfigName: "Shop", StartedAt: time.Now()})
	require.NoError(t, err)

	paid := models.OrderExport{
		UID:            uuid.Must(uuid.NewV4()).String(),
		Name:           "Order 1",
		SessionID:      id,
		SequenceNumber: 1,
		INSZ:           "85073003328",
		CreatedAt:      time.Now().UTC(),
		AmountTotal:    decimal.RequireFromString("3.50"),
		BlackboxData:   models.BlackboxData{ReceiptType: models.ReceiptNormalSale, Signature: "S", TicketCounters: "NS 1/1"},
	}
	draft := paid
	draft.UID = uuid.Must(uuid.NewV4()).String()
	draft.SequenceNumber = 2
	draft.Draft = true
	draft.BlackboxData = models.BlackboxData{}

	require.NoError(t, r.SaveOrder(ctx, paid))
	require.NoError(t, r.SaveOrder(ctx, draft))

	got, err := r.Order(ctx, paid.UID)
	require.NoError(t, err)
	assert.Equal(t, "NS 1/1", got.TicketCounters)
	assert.True(t, got.AmountTotal.Equal(paid.AmountTotal))

	orders, err := r.SessionOrders(ctx, models.OrderFilter{SessionID: id})
	require.NoError(t, err)
	require.Len(t, orders, 1)

	orders, err = r.SessionOrders(ctx, models.OrderFilter{SessionID: id, IncludeDrafts: true})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, paid.UID, orders[0].UID)

	require.NoError(t, r.DeleteOrder(ctx, draft.UID))
	assert.ErrorIs(t, r.DeleteOrder(ctx, draft.UID), models.ErrNotFound)
}

func TestRepository_Audit(t *testing.T) {
	r := newRepository(t)
	ctx := context.Background()

	record := uuid.Must(uuid.NewV4()).String()
	require.NoError(t, r.AddAudit(ctx, models.AuditEntry{
		UserID:      1,
		Action:      models.AuditCreate,
		Date:        time.Now().UTC(),
		ModelName:   "pos.order",
		RecordName:  record,
		Description: "NORMAL SALES",
	}))

	log, err := r.AuditLog(ctx, 1)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, record, log[0].RecordName)
}
