package clock

import (
	"context"
	"errors"
	"fmt"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/domain/ports"
	"blackboxbe/internal/service/blackbox"

	"github.com/shopspring/decimal"
)

// ErrNotFiscal возвращается при попытке отметки на кассе без фискального модуля.
var ErrNotFiscal = errors.New("clock: point of sale has no fiscal data module")

// Pusher подписывает и регистрирует заказ; реализуется blackbox.Service.
type Pusher interface {
	PushSingleOrder(ctx context.Context, order *models.Order) (blackbox.State, error)
}

// Service выполняет приход и уход кассира через фискальный модуль.
type Service struct {
	session  *models.Session
	guard    *Guard
	pusher   Pusher
	backend  ports.SessionBackend
	sequence ports.SequenceSource
	printer  ports.ReceiptPrinter
	log      ports.Logger
}

// NewService создает новый экземпляр Service
func NewService(
	session *models.Session,
	guard *Guard,
	pusher Pusher,
	backend ports.SessionBackend,
	sequence ports.SequenceSource,
	printer ports.ReceiptPrinter,
	log ports.Logger,
) *Service {
	return &Service{
		session:  session,
		guard:    guard,
		pusher:   pusher,
		backend:  backend,
		sequence: sequence,
		printer:  printer,
		log:      log.With("component", "clock", "session", session.ID),
	}
}

// Toggle отмечает приход, если кассир не отмечен, иначе уход.
func (s *Service) Toggle(ctx context.Context, current *models.Order) (models.ClockState, error) {
	if s.session.IsCashierClocked() {
		return s.ClockOut(ctx, current)
	}
	return s.ClockIn(ctx, current)
}

// ClockIn отмечает приход текущего кассира.
func (s *Service) ClockIn(ctx context.Context, current *models.Order) (models.ClockState, error) {
	return s.clock(ctx, current, models.ClockIn)
}

// ClockOut отмечает уход текущего кассира.
func (s *Service) ClockOut(ctx context.Context, current *models.Order) (models.ClockState, error) {
	return s.clock(ctx, current, models.ClockOut)
}

// clock проводит заказ с товаром прихода или ухода через фискальный модуль.
// Состояние меняется только после подписи и сохранения отметки в бэк-офисе.
func (s *Service) clock(ctx context.Context, current *models.Order, event models.ClockEvent) (models.ClockState, error) {
	cashier := s.session.Cashier()
	state := s.session.ClockState(cashier.ID)

	if !s.session.FiscalMode {
		return state, ErrNotFiscal
	}
	if current != nil && !current.IsEmpty() {
		return state, models.NewClockError(models.ErrOrderNotEmpty, "")
	}

	wantIn := event == models.ClockIn
	remote, err := s.backend.WorkStatus(ctx, s.session.ID, cashier.ID, s.session.HRMode)
	if err != nil {
		return state, fmt.Errorf("failed to get work status: %w", err)
	}
	if remote == wantIn || (state == models.ClockedIn) == wantIn {
		return state, models.NewClockError(models.ErrClockStateChanged, "")
	}

	order, err := s.clockOrder(event)
	if err != nil {
		return state, err
	}

	pushed, err := s.pusher.PushSingleOrder(ctx, order)
	if err != nil {
		return state, err
	}
	if pushed != blackbox.Signed {
		s.log.Info("clock order not signed", "cashier", cashier.ID, "event", event, "state", pushed)
		return state, nil
	}

	if err := s.printer.PrintReceipt(ctx, order); err != nil {
		s.log.Warn("failed to print clock receipt", "order", order.Name, "error", err)
	}

	ids, err := s.backend.SetWorkStatus(ctx, models.WorkStatus{
		SessionID: s.session.ID,
		CashierID: cashier.ID,
		Employee:  s.session.HRMode,
		ClockedIn: wantIn,
	})
	if err != nil {
		return state, fmt.Errorf("failed to save work status: %w", err)
	}
	s.session.ReplaceClocked(ids)

	newState := s.session.ClockState(cashier.ID)
	s.log.Info("cashier clocked", "cashier", cashier.ID, "event", event, "state", newState)
	return newState, nil
}

func (s *Service) clockOrder(event models.ClockEvent) (*models.Order, error) {
	seq, err := s.sequence.NextSequence()
	if err != nil {
		return nil, fmt.Errorf("failed to get sequence number: %w", err)
	}
	order, err := models.NewOrder(s.session, seq)
	if err != nil {
		return nil, err
	}

	product := s.session.WorkIn
	if event == models.ClockOut {
		product = s.session.WorkOut
	}
	if err := s.guard.AddProduct(order, product, decimal.NewFromInt(1), true); err != nil {
		return nil, err
	}
	order.Clock = event
	return order, nil
}

// OpenCashbox увеличивает счётчик открытий денежного ящика сессии.
func (s *Service) OpenCashbox(ctx context.Context) (int, error) {
	n, err := s.backend.IncreaseCashBoxOpening(ctx, s.session.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to increase cash box opening: %w", err)
	}
	s.log.Info("cash box opened", "count", n)
	return n, nil
}
