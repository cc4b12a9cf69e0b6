package blackbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/domain/ports"
	"blackboxbe/internal/fiscal"
	"blackboxbe/pkg/fdm"
)

// PinPromptTitle — заголовок запроса PIN-кода.
const PinPromptTitle = "Enter pin code:"

// ErrPushInProgress возвращается при повторной отправке заказа, пока предыдущая не завершена.
var ErrPushInProgress = errors.New("blackbox: push already in progress for this order")

// Deps — зависимости сервиса.
type Deps struct {
	Device   fdm.Client
	Builder  *fiscal.Builder
	Session  *models.Session
	Backend  ports.SessionBackend
	Unpaid   ports.UnpaidOrderStore
	Journal  ports.ReceiptJournal // может быть nil
	Prompter ports.PinPrompter
	Notifier ports.Notifier
	Logger   ports.Logger
}

// Service отправляет заказы в фискальный модуль и переносит подпись на заказ.
type Service struct {
	device   fdm.Client
	builder  *fiscal.Builder
	session  *models.Session
	backend  ports.SessionBackend
	unpaid   ports.UnpaidOrderStore
	journal  ports.ReceiptJournal
	prompter ports.PinPrompter
	notifier ports.Notifier
	log      ports.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService создает новый экземпляр Service
func NewService(d Deps) *Service {
	if d.Builder == nil {
		d.Builder = fiscal.NewBuilder()
	}
	return &Service{
		device:   d.Device,
		builder:  d.Builder,
		session:  d.Session,
		backend:  d.Backend,
		unpaid:   d.Unpaid,
		journal:  d.Journal,
		prompter: d.Prompter,
		notifier: d.Notifier,
		log:      d.Logger.With("component", "blackbox", "session", d.Session.ID),
		inFlight: make(map[string]struct{}),
	}
}

// Session возвращает контекст сессии, с которым работает сервис.
func (s *Service) Session() *models.Session {
	return s.session
}

// PushToBlackbox отправляет заказ и при успехе проставляет подпись.
// Ошибки показываются пользователю; при отказе от ввода PIN возвращается Abandoned без ошибки.
func (s *Service) PushToBlackbox(ctx context.Context, order *models.Order) (State, error) {
	if !s.acquire(order.UID) {
		return Idle, ErrPushInProgress
	}
	defer s.release(order.UID)

	return s.push(ctx, order)
}

// PushProForma отправляет предварительный чек (PS/PR), предварительно сохранив черновик в бэк-офисе.
// После подписи черновик синхронизируется ещё раз вместе с новым чеком.
func (s *Service) PushProForma(ctx context.Context, order *models.Order) (State, error) {
	if !s.acquire(order.UID) {
		return Idle, ErrPushInProgress
	}
	defer s.release(order.UID)

	order.ReceiptType = fiscal.ProFormaTypeOf(order)
	if err := s.backend.SaveDraft(ctx, fiscal.Export(order, s.session)); err != nil {
		return s.fail(order, fmt.Errorf("failed to save draft %s: %w", order.Name, err))
	}

	state, err := s.push(ctx, order)
	if state == Signed {
		// история предварительных чеков нужна отчёту сессии
		if serr := s.backend.SaveDraft(ctx, fiscal.Export(order, s.session)); serr != nil {
			s.log.Warn("failed to sync signed draft", "order", order.Name, "error", serr)
		}
	}
	return state, err
}

// PushSingleOrder подписывает окончательный чек и регистрирует заказ в бэк-офисе.
// Заказ удаляется из неоплаченных только после подписи и регистрации.
// Без фискального модуля заказ регистрируется сразу, состояние остаётся Idle.
func (s *Service) PushSingleOrder(ctx context.Context, order *models.Order) (State, error) {
	if !s.acquire(order.UID) {
		return Idle, ErrPushInProgress
	}
	defer s.release(order.UID)

	state := Idle
	switch {
	case !s.session.FiscalMode:
	case order.Signed():
		state = Signed
	default:
		order.ReceiptType = ""

		var err error
		state, err = s.push(ctx, order)
		if state != Signed {
			if serr := s.unpaid.Save(order); serr != nil {
				s.log.Error("failed to keep unsigned order", "order", order.Name, "error", serr)
			}
			return state, err
		}
	}

	if err := s.backend.RegisterOrder(ctx, fiscal.Export(order, s.session)); err != nil {
		if serr := s.unpaid.Save(order); serr != nil {
			s.log.Error("failed to keep unregistered order", "order", order.Name, "error", serr)
		}
		return state, fmt.Errorf("failed to register order %s: %w", order.Name, err)
	}

	order.Finalized = true
	if err := s.unpaid.Remove(order.UID); err != nil {
		s.log.Warn("failed to remove order from unpaid store", "order", order.Name, "error", err)
	}
	s.log.Info("order registered", "order", order.Name, "receipt_type", order.ReceiptType)
	return state, nil
}

// PrintBill отправляет предварительный чек перед печатью счёта.
func (s *Service) PrintBill(ctx context.Context, order *models.Order, printer ports.ReceiptPrinter) error {
	if s.session.FiscalMode && !order.IsEmpty() {
		state, err := s.PushProForma(ctx, order)
		if err != nil {
			return err
		}
		if state != Signed {
			return nil
		}
	}
	return printer.PrintReceipt(ctx, order)
}

// SyncTableOrders отправляет предварительные чеки всех изменённых заказов зала.
func (s *Service) SyncTableOrders(ctx context.Context, orders []*models.Order) error {
	if !s.session.FiscalMode {
		return nil
	}
	var errs []error
	for _, order := range orders {
		if _, err := s.PushProForma(ctx, order); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// push проходит цикл Sending → {Signed | PinRequired → Sending → {Signed | Failed} | Failed}
func (s *Service) push(ctx context.Context, order *models.Order) (State, error) {
	log := s.log.With("order", order.Name)
	log.Debug("state changed", "state", Sending)

	err := s.send(ctx, order)
	if err == nil {
		return Signed, nil
	}
	if !fdm.IsPinRequired(err) {
		return s.fail(order, err)
	}

	log.Info("state changed", "state", PinRequired)
	pin, ok, perr := s.prompter.PromptPin(ctx, PinPromptTitle)
	if perr != nil {
		return s.fail(order, fmt.Errorf("failed to read PIN: %w", perr))
	}
	if !ok {
		log.Info("PIN entry cancelled, push abandoned")
		return Abandoned, nil
	}

	if err := s.device.SubmitPin(ctx, pin); err != nil {
		return s.fail(order, err)
	}

	log.Debug("state changed", "state", Sending)
	if err := s.send(ctx, order); err != nil {
		return s.fail(order, err)
	}
	return Signed, nil
}

// send строит свежую запись, отправляет её и переносит подпись на заказ
func (s *Service) send(ctx context.Context, order *models.Order) error {
	draft, err := s.builder.Build(order, s.session)
	if err != nil {
		return err
	}

	receipt, err := s.device.RegisterReceipt(ctx, draft.Record)
	if err != nil {
		return err
	}

	data, err := fiscal.Seal(order, draft, receipt)
	if err != nil {
		return err
	}

	s.log.Info("ticket signed",
		"order", order.Name,
		"counters", data.TicketCounters,
		"plu", data.PLUHash,
	)
	if drift, status := fiscal.CompareDeviceTime(data, time.Now()); status != fiscal.DriftOk {
		s.log.Warn("fiscal data module clock differs from terminal", "order", order.Name, "drift", drift.String(), "status", status.String())
	}
	s.record(ctx, order, data)
	return nil
}

// record добавляет подпись в локальный журнал; ошибка журнала не отменяет подпись
func (s *Service) record(ctx context.Context, order *models.Order, data models.BlackboxData) {
	if s.journal == nil {
		return
	}
	entry := models.JournalEntry{
		OrderUID:       order.UID,
		SequenceNumber: order.SequenceNumber,
		ReceiptType:    string(data.ReceiptType),
		Signature:      data.Signature,
		TicketCounters: data.TicketCounters,
		PLUHash:        data.PLUHash,
		FDMNumber:      data.FDMProductionNumber,
		DeviceDate:     data.Date,
		DeviceTime:     data.Time,
		CreatedAt:      data.POSReceiptTime,
	}
	if err := s.journal.Append(ctx, entry); err != nil {
		s.log.Error("failed to append journal entry", "order", order.Name, "error", err)
	}
}

func (s *Service) fail(order *models.Order, err error) (State, error) {
	s.log.Error("push failed", "order", order.Name, "error", err)
	s.notifier.Notify(models.Notice(err))
	return Failed, err
}

func (s *Service) acquire(uid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[uid]; busy {
		return false
	}
	s.inFlight[uid] = struct{}{}
	return true
}

func (s *Service) release(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, uid)
}
