package clock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/fiscal"
	"blackboxbe/internal/infrastructure/logger"
	"blackboxbe/internal/service/blackbox"
	"blackboxbe/pkg/fdm"
	"blackboxbe/pkg/plu"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	vat21   = models.NewTax(1, "21%", 21)
	vat0    = models.NewTax(2, "0%", 0)
	pieces  = plu.Unit{ID: 1, Name: "Units", IsUnit: true, Factor: decimal.NewFromInt(1)}
	workIn  = models.Product{ID: 100, DisplayName: "Work in", Price: decimal.Zero, Taxes: []models.Tax{vat0}, Unit: pieces}
	workOut = models.Product{ID: 101, DisplayName: "Work out", Price: decimal.Zero, Taxes: []models.Tax{vat0}, Unit: pieces}
	bread   = models.Product{ID: 5, DisplayName: "Bread", Price: decimal.RequireFromString("3.50"), Taxes: []models.Tax{vat21}, Unit: pieces}
)

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// workBackend хранит отметки в памяти, как бэк-офис
type workBackend struct {
	mu         sync.Mutex
	clocked    map[int64]bool
	registered []models.OrderExport
	openings   int
}

func newWorkBackend() *workBackend { return &workBackend{clocked: map[int64]bool{}} }

func (b *workBackend) WorkStatus(ctx context.Context, sessionID, cashierID int64, employee bool) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clocked[cashierID], nil
}

func (b *workBackend) SetWorkStatus(ctx context.Context, st models.WorkStatus) ([]int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st.ClockedIn {
		b.clocked[st.CashierID] = true
	} else {
		delete(b.clocked, st.CashierID)
	}
	var ids []int64
	for id := range b.clocked {
		ids = append(ids, id)
	}
	return ids, nil
}

func (b *workBackend) RegisterOrder(ctx context.Context, o models.OrderExport) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registered = append(b.registered, o)
	return nil
}

func (b *workBackend) SaveDraft(ctx context.Context, o models.OrderExport) error { return nil }

func (b *workBackend) IncreaseCashBoxOpening(ctx context.Context, sessionID int64) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openings++
	return b.openings, nil
}

type counter struct{ n int64 }

func (c *counter) NextSequence() (int64, error) {
	c.n++
	return c.n, nil
}

type nopUnpaid struct{}

func (nopUnpaid) Save(*models.Order) error           { return nil }
func (nopUnpaid) Remove(string) error                { return nil }
func (nopUnpaid) Find(string) (*models.Order, error) { return nil, errors.New("not found") }
func (nopUnpaid) List() ([]*models.Order, error)     { return nil, nil }

type cancelPrompter struct{}

func (cancelPrompter) PromptPin(ctx context.Context, title string) (string, bool, error) {
	return "", false, nil
}

type silentNotifier struct{ count int }

func (n *silentNotifier) Notify(title, body string) { n.count++ }

type printer struct{ printed []*models.Order }

func (p *printer) PrintReceipt(ctx context.Context, o *models.Order) error {
	p.printed = append(p.printed, o)
	return nil
}

type fixture struct {
	session *models.Session
	guard   *Guard
	svc     *Service
	dev     *fdm.FakeDevice
	backend *workBackend
	printer *printer
}

func newFixture(t *testing.T, pin string) *fixture {
	t.Helper()
	s := models.NewSession(7, models.Cashier{ID: 1, Name: "Admin", INSZ: "85073003328"})
	s.FiscalMode = true
	s.WorkIn = workIn
	s.WorkOut = workOut
	s.Units = plu.UnitTable{pieces}

	f := &fixture{
		session: s,
		dev:     fdm.NewFakeDevice(pin),
		backend: newWorkBackend(),
		printer: &printer{},
	}
	log := logger.NewNopLogger()
	pusher := blackbox.NewService(blackbox.Deps{
		Device:   fdm.New(fdm.Config{Timeout: time.Second}, f.dev),
		Builder:  fiscal.NewBuilder(),
		Session:  s,
		Backend:  f.backend,
		Unpaid:   nopUnpaid{},
		Prompter: cancelPrompter{},
		Notifier: &silentNotifier{},
		Logger:   log,
	})
	f.guard = NewGuard(s, f.backend)
	f.svc = NewService(s, f.guard, pusher, f.backend, &counter{}, f.printer, log)
	return f
}

func assertReason(t *testing.T, err error, reason error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, reason), "expected %v, got %v", reason, err)
}

func TestCheckAddProduct(t *testing.T) {
	f := newFixture(t, "")

	negative := bread
	negative.Price = decimal.RequireFromString("-1")
	negative.Taxes = nil
	assertReason(t, f.guard.CheckAddProduct(negative, false), models.ErrNegativePrice)

	noTax := bread
	noTax.Taxes = nil
	assertReason(t, f.guard.CheckAddProduct(noTax, false), models.ErrNoTax)

	err := f.guard.CheckAddProduct(bread, false)
	assertReason(t, err, models.ErrNotClockedIn)
	var cerr *models.ClockError
	assert.True(t, errors.As(err, &cerr))
	assert.Equal(t, "User must be clocked in.", cerr.Message)

	// товар прихода проходит проверку отметки, но без force не продаётся
	assertReason(t, f.guard.CheckAddProduct(workIn, false), models.ErrNotSellable)
	assert.NoError(t, f.guard.CheckAddProduct(workIn, true))
	assert.NoError(t, f.guard.CheckAddProduct(workOut, true))
	assertReason(t, f.guard.CheckAddProduct(workOut, false), models.ErrNotClockedIn)

	f.session.ReplaceClocked([]int64{1})
	assert.NoError(t, f.guard.CheckAddProduct(bread, false))

	cigars := bread
	cigars.Taxes = []models.Tax{models.NewTax(9, "17%", 17)}
	assertReason(t, f.guard.CheckAddProduct(cigars, false), models.ErrInvalidTax)
	assertReason(t, f.guard.CheckAddProduct(workOut, false), models.ErrNotSellable)

	f.session.FiscalMode = false
	assert.NoError(t, f.guard.CheckAddProduct(negative, false))
}

func TestQuantityLimits(t *testing.T) {
	f := newFixture(t, "")
	assert.NoError(t, f.guard.CheckQuantity(qty(9999)))
	assert.NoError(t, f.guard.CheckQuantity(decimal.RequireFromString("9999.5")))
	assert.NoError(t, f.guard.CheckQuantity(decimal.RequireFromString("-9999.999")))
	assertReason(t, f.guard.CheckQuantity(qty(10000)), models.ErrQuantityTooLarge)
	assertReason(t, f.guard.CheckQuantity(qty(-10000)), models.ErrQuantityTooLarge)
	assert.True(t, f.guard.ClampQuantity(qty(12345)).Equal(qty(9999)))
	assert.True(t, f.guard.ClampQuantity(qty(12)).Equal(qty(12)))
}

func TestAddProductMerge(t *testing.T) {
	f := newFixture(t, "")
	f.session.ReplaceClocked([]int64{1})
	order := &models.Order{}

	require.NoError(t, f.guard.AddProduct(order, bread, qty(9998), false))
	require.NoError(t, f.guard.AddProduct(order, bread, qty(1), false))
	require.Len(t, order.Lines, 1)
	assert.True(t, order.Lines[0].Quantity.Equal(qty(9999)))

	require.NoError(t, f.guard.AddProduct(order, bread, qty(1), false))
	assert.Len(t, order.Lines, 2, "a line at 9999 must not be merged")

	assertReason(t, f.guard.AddProduct(order, bread, qty(-1), false), models.ErrMixedOrder)
}

func TestCheckRefundAndValidate(t *testing.T) {
	f := newFixture(t, "")
	assertReason(t, f.guard.CheckRefundLine(models.NewOrderLine(workOut, qty(1))), models.ErrWorkProductRefund)
	assert.NoError(t, f.guard.CheckRefundLine(models.NewOrderLine(bread, qty(1))))

	order := &models.Order{}
	order.AddLine(models.NewOrderLine(bread, qty(1)))
	assertReason(t, f.guard.CheckValidateOrder(order), models.ErrNotClockedIn)

	f.session.ReplaceClocked([]int64{1})
	assert.NoError(t, f.guard.CheckValidateOrder(order))
	order.AddLine(models.NewOrderLine(bread, qty(-1)))
	assertReason(t, f.guard.CheckValidateOrder(order), models.ErrMixedOrder)
}

func TestCheckCloseRegister(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	assert.NoError(t, f.guard.CheckCloseRegister(ctx))

	f.backend.clocked[1] = true
	err := f.guard.CheckCloseRegister(ctx)
	assertReason(t, err, models.ErrStillClockedIn)
	assert.Equal(t, "You need to clock out before closing the POS.", err.Error())

	delete(f.backend.clocked, 1)
	f.session.ReplaceClocked([]int64{4})
	assertReason(t, f.guard.CheckCloseRegister(ctx), models.ErrStillClockedIn)
}

func TestCheckChangeCashier(t *testing.T) {
	f := newFixture(t, "")
	assert.NoError(t, f.guard.CheckChangeCashier())
	f.session.ReplaceClocked([]int64{1})
	assertReason(t, f.guard.CheckChangeCashier(), models.ErrStillClockedIn)
}

func TestFiscalModeRestrictions(t *testing.T) {
	f := newFixture(t, "")
	assert.False(t, f.guard.PriceControlAllowed())
	assert.False(t, f.guard.CashMoveAllowed())
	assert.False(t, f.guard.LineQuantityChangeAllowed())
	assert.False(t, f.guard.RefundAndSalesMixAllowed())
	assert.False(t, f.guard.DeleteOrderAllowed())
	f.session.FiscalMode = false
	assert.True(t, f.guard.PriceControlAllowed())
}

func TestClockInOut(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	state, err := f.svc.ClockIn(ctx, &models.Order{})
	require.NoError(t, err)
	assert.Equal(t, models.ClockedIn, state)
	assert.True(t, f.backend.clocked[1])
	assert.NoError(t, f.guard.CheckAddProduct(bread, false))

	reqs := f.dev.Requests()
	require.Len(t, reqs, 1)
	rec := reqs[0].HighLevelMessage.(fdm.Record)
	assert.Equal(t, fdm.ClockIn, rec.Clock)
	assert.Equal(t, "000", rec.ReceiptTotal)
	assert.Equal(t, "000", rec.VAT4)

	require.Len(t, f.backend.registered, 1)
	assert.Equal(t, models.ClockIn, f.backend.registered[0].Clock)
	require.Len(t, f.printer.printed, 1)
	assert.Equal(t, int64(1), f.printer.printed[0].SequenceNumber)

	state, err = f.svc.Toggle(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ClockedOut, state)
	assert.False(t, f.backend.clocked[1])
	assert.Equal(t, fdm.ClockOut, f.dev.Requests()[1].HighLevelMessage.(fdm.Record).Clock)
}

func TestClockInRejected(t *testing.T) {
	ctx := context.Background()

	t.Run("Заказ не пуст", func(t *testing.T) {
		f := newFixture(t, "")
		order := &models.Order{}
		order.AddLine(models.NewOrderLine(bread, qty(1)))
		_, err := f.svc.ClockIn(ctx, order)
		assertReason(t, err, models.ErrOrderNotEmpty)
		assert.Empty(t, f.dev.Requests())
	})

	t.Run("Отметка изменена на другом устройстве", func(t *testing.T) {
		f := newFixture(t, "")
		f.backend.clocked[1] = true
		_, err := f.svc.ClockIn(ctx, nil)
		assertReason(t, err, models.ErrClockStateChanged)
		assert.Empty(t, f.dev.Requests())
	})

	t.Run("Ошибка устройства", func(t *testing.T) {
		f := newFixture(t, "")
		f.dev.FailCode = "101000"
		state, err := f.svc.ClockIn(ctx, nil)
		assert.Error(t, err)
		assert.Equal(t, models.ClockedOut, state)
		assert.False(t, f.backend.clocked[1])
		assert.Empty(t, f.printer.printed)
	})

	t.Run("Отказ от ввода PIN", func(t *testing.T) {
		f := newFixture(t, "1234")
		state, err := f.svc.ClockIn(ctx, nil)
		assert.NoError(t, err)
		assert.Equal(t, models.ClockedOut, state)
		assert.False(t, f.session.IsCashierClocked())
	})

	t.Run("Касса без модуля", func(t *testing.T) {
		f := newFixture(t, "")
		f.session.FiscalMode = false
		_, err := f.svc.ClockIn(ctx, nil)
		assert.ErrorIs(t, err, ErrNotFiscal)
	})
}

func TestOpenCashbox(t *testing.T) {
	f := newFixture(t, "")
	n, err := f.svc.OpenCashbox(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, _ = f.svc.OpenCashbox(context.Background())
	assert.Equal(t, 2, n)
}
