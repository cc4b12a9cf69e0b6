package backoffice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/infrastructure/logger"
	"blackboxbe/internal/infrastructure/memstore"
	"blackboxbe/internal/service/backoffice"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	orders []models.OrderExport
}

func (p *recordingPublisher) OrderRegistered(_ context.Context, o models.OrderExport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, o)
}

type fixture struct {
	store  *memstore.Store
	events *recordingPublisher
	svc    *backoffice.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memstore.New(), events: &recordingPublisher{}}
	f.svc = backoffice.NewService(f.store, f.events, logger.NewNopLogger())
	f.svc.Now = func() time.Time { return now }
	return f
}

func fiscalConfig() models.PosConfig {
	zero := models.NewTax(3, "0%", 0)
	return models.PosConfig{
		Name:              "Shop 1",
		FiscalDevice:      "fdm_BODO002422000123",
		CompanyStreet:     "Rue de la Loi 16",
		CompanyRegistry:   "BE0477472701",
		CashRounding:      true,
		RoundingStep:      decimal.RequireFromString("0.05"),
		RoundingMethod:    models.RoundingHalfUp,
		PrinterConfigured: true,
		AutoPrint:         true,
		SkipPreview:       true,
		WorkIn:            models.Product{ID: 1, Taxes: []models.Tax{zero}},
		WorkOut:           models.Product{ID: 2, Taxes: []models.Tax{zero}},
	}
}

var admin = models.Cashier{ID: 1, Name: "Admin", INSZ: "85073003328"}

func (f *fixture) openFiscal(t *testing.T) models.SessionInfo {
	t.Helper()
	info, err := f.svc.OpenSession(context.Background(), backoffice.OpenSessionRequest{Config: fiscalConfig(), User: admin})
	require.NoError(t, err)
	return info
}

func signedOrder(sessionID int64, uid string) models.OrderExport {
	return models.OrderExport{
		UID:         uid,
		Name:        "Order 00001-0001",
		SessionID:   sessionID,
		UserID:      admin.ID,
		CashierName: admin.Name,
		INSZ:        admin.INSZ,
		CreatedAt:   now,
		AmountTotal: decimal.RequireFromString("3.52"),
		AmountPaid:  decimal.RequireFromString("3.50"),
		PosVersion:  "blackboxbe-1.0",
		Lines: []models.LineExport{{
			ProductName:       "Bread",
			Quantity:          decimal.NewFromInt(2),
			PriceUnit:         decimal.RequireFromString("1.76"),
			PriceSubtotalIncl: decimal.RequireFromString("3.52"),
			VATLetter:         models.VATCategoryC,
			TaxRate:           decimal.NewFromInt(6),
		}},
		BlackboxData: models.BlackboxData{
			ReceiptType:         models.ReceiptNormalSale,
			Signature:           "SIGNATURE",
			FDMProductionNumber: "BODO002422000123",
			TicketCounters:      "NS 1/1",
			Date:                "15-01-2024",
			Time:                "14:30:01",
			PLUHash:             "6056f327",
		},
	}
}

func TestOpenSession(t *testing.T) {
	f := newFixture(t)

	info := f.openFiscal(t)
	assert.Equal(t, int64(1), info.ID)
	assert.True(t, info.FiscalMode)
	assert.Equal(t, "DO002422000123", info.FDMIdentifier)
	assert.Equal(t, now, info.StartedAt)

	log, err := f.svc.AuditLog(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "Session started with: DO002422000123", log[0].Description)
	assert.Equal(t, backoffice.AuditModelConfig, log[0].ModelName)
}

func TestOpenSessionRejectsConfig(t *testing.T) {
	f := newFixture(t)
	cfg := fiscalConfig()
	cfg.AutoPrint = false

	_, err := f.svc.OpenSession(context.Background(), backoffice.OpenSessionRequest{Config: cfg, User: admin})
	require.ErrorIs(t, err, models.ErrInvalidConfig)
	assert.EqualError(t, err, "Automatic Receipt Printing must be activated")

	user := admin
	user.INSZ = "85073003329"
	_, err = f.svc.OpenSession(context.Background(), backoffice.OpenSessionRequest{Config: fiscalConfig(), User: user})
	assert.ErrorIs(t, err, models.ErrInvalidINSZ)
}

func TestWorkStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	info := f.openFiscal(t)

	ids, err := f.svc.SetWorkStatus(ctx, models.WorkStatus{SessionID: info.ID, CashierID: 5, ClockedIn: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, ids)

	ids, err = f.svc.SetWorkStatus(ctx, models.WorkStatus{SessionID: info.ID, CashierID: 3, ClockedIn: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5}, ids)

	in, err := f.svc.WorkStatus(ctx, info.ID, 5, false)
	require.NoError(t, err)
	assert.True(t, in)

	// отметки сотрудников хранятся отдельно от отметок пользователей
	in, err = f.svc.WorkStatus(ctx, info.ID, 5, true)
	require.NoError(t, err)
	assert.False(t, in)

	ids, err = f.svc.SetWorkStatus(ctx, models.WorkStatus{SessionID: info.ID, CashierID: 5})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids)

	_, err = f.svc.WorkStatus(ctx, 42, 5, false)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRegisterOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	info := f.openFiscal(t)

	order := signedOrder(info.ID, "a")
	require.NoError(t, f.svc.RegisterOrder(ctx, order))

	stored, err := f.store.Order(ctx, "a")
	require.NoError(t, err)
	assert.False(t, stored.Draft)
	assert.Equal(t, time.Date(2024, 1, 15, 14, 30, 1, 0, time.UTC), stored.POSReceiptTime)

	require.Len(t, f.events.orders, 1)
	assert.Equal(t, "a", f.events.orders[0].UID)

	log, err := f.svc.AuditLog(ctx, 1)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, backoffice.AuditModelOrder, log[0].ModelName)
	assert.Contains(t, log[0].Description, "NORMAL SALES\n")
	assert.Contains(t, log[0].Description, "* 2 x Bread: 3.52")
	assert.Contains(t, log[0].Description, "Rounding: 0.02")
	assert.Contains(t, log[0].Description, "FDM Identifier: DO002422000123")

	// повтор той же регистрации ничего не меняет
	require.NoError(t, f.svc.RegisterOrder(ctx, order))
	assert.Len(t, f.events.orders, 1)

	changed := order
	changed.Signature = "OTHER"
	err = f.svc.RegisterOrder(ctx, changed)
	assert.ErrorIs(t, err, models.ErrOrderRegistered)
}

func TestRegisterUnsignedOrder(t *testing.T) {
	f := newFixture(t)
	info := f.openFiscal(t)

	order := signedOrder(info.ID, "a")
	order.BlackboxData = models.BlackboxData{}

	err := f.svc.RegisterOrder(context.Background(), order)
	assert.ErrorIs(t, err, models.ErrUnsignedOrder)
	assert.Empty(t, f.events.orders)

	// предварительный чек тоже не даёт права на регистрацию
	order.BlackboxData = models.BlackboxData{ReceiptType: models.ReceiptProFormaSale, Signature: "PF"}
	err = f.svc.RegisterOrder(context.Background(), order)
	assert.ErrorIs(t, err, models.ErrUnsignedOrder)
}

func TestRegisterOrderWithoutDevice(t *testing.T) {
	f := newFixture(t)
	info, err := f.svc.OpenSession(context.Background(), backoffice.OpenSessionRequest{
		Config: models.PosConfig{Name: "Bar"},
		User:   models.Cashier{ID: 2, Name: "Waiter"},
	})
	require.NoError(t, err)
	assert.False(t, info.FiscalMode)

	order := signedOrder(info.ID, "a")
	order.BlackboxData = models.BlackboxData{}
	require.NoError(t, f.svc.RegisterOrder(context.Background(), order))

	log, err := f.svc.AuditLog(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestSaveDraftAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	info := f.openFiscal(t)

	draft := signedOrder(info.ID, "d")
	draft.BlackboxData = models.BlackboxData{}
	require.NoError(t, f.svc.SaveDraft(ctx, draft))

	stored, err := f.store.Order(ctx, "d")
	require.NoError(t, err)
	assert.True(t, stored.Draft)

	log, err := f.svc.AuditLog(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, log[0].Description, "PRO FORMA SALES")

	require.NoError(t, f.svc.DeleteOrder(ctx, "d", admin.ID))
	_, err = f.store.Order(ctx, "d")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	registered := signedOrder(info.ID, "r")
	require.NoError(t, f.svc.RegisterOrder(ctx, registered))
	assert.ErrorIs(t, f.svc.SaveDraft(ctx, registered), models.ErrOrderRegistered)
	assert.ErrorIs(t, f.svc.DeleteOrder(ctx, "r", admin.ID), models.ErrOrderDeletion)
}

func TestCashBoxAndReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	info := f.openFiscal(t)

	n, err := f.svc.IncreaseCashBoxOpening(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = f.svc.IncreaseCashBoxOpening(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, f.svc.RegisterOrder(ctx, signedOrder(info.ID, "a")))

	draft := signedOrder(info.ID, "d")
	draft.BlackboxData = models.BlackboxData{}
	draft.ProForma = []models.BlackboxData{{ReceiptType: models.ReceiptProFormaSale, ReceiptTotal: decimal.RequireFromString("4.00")}}
	require.NoError(t, f.svc.SaveDraft(ctx, draft))

	r, err := f.svc.SessionReport(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, r.CashBoxOpening)
	assert.Equal(t, 1, r.NormalSales)
	assert.Equal(t, 1, r.ProFormaNumber)
	assert.Equal(t, "Shop 1", r.CashRegisterID)
	assert.Equal(t, admin.INSZ, r.INSZ)
}
