// Package backoffice — серверная часть вызовов, которыми терминал пользуется во время сессии:
// отметки кассиров, регистрация заказов, счётчик открытий ящика, журнал аудита и отчёт.
package backoffice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/domain/ports"
	"blackboxbe/internal/service/report"
)

// Имена моделей в журнале аудита
const (
	AuditModelConfig = "pos.config"
	AuditModelOrder  = "pos.order"
)

// Store — хранилище бэк-офиса.
type Store interface {
	CreateSession(ctx context.Context, info models.SessionInfo) (int64, error)
	Session(ctx context.Context, id int64) (models.SessionInfo, error)

	WorkStatus(ctx context.Context, sessionID, cashierID int64, employee bool) (bool, error)
	SetWorkStatus(ctx context.Context, status models.WorkStatus) ([]int64, error)

	Order(ctx context.Context, uid string) (models.OrderExport, error)
	SaveOrder(ctx context.Context, order models.OrderExport) error
	DeleteOrder(ctx context.Context, uid string) error
	SessionOrders(ctx context.Context, filter models.OrderFilter) ([]models.OrderExport, error)

	IncreaseCashBoxOpening(ctx context.Context, sessionID int64) (int, error)

	AddAudit(ctx context.Context, entry models.AuditEntry) error
	AuditLog(ctx context.Context, limit uint64) ([]models.AuditEntry, error)
}

// Publisher публикует события о зарегистрированных заказах.
type Publisher interface {
	OrderRegistered(ctx context.Context, order models.OrderExport)
}

// OpenSessionRequest — данные для открытия сессии.
type OpenSessionRequest struct {
	Config    models.PosConfig `json:"config"`
	User      models.Cashier   `json:"user"`
	Employees []models.Cashier `json:"employees,omitempty"`
}

// Service реализует операции бэк-офиса.
type Service struct {
	store  Store
	events Publisher
	log    ports.Logger

	Now func() time.Time
}

// NewService создает новый экземпляр Service. events может быть nil.
func NewService(store Store, events Publisher, log ports.Logger) *Service {
	return &Service{
		store:  store,
		events: events,
		log:    log.With("component", "backoffice"),
		Now:    time.Now,
	}
}

// OpenSession проверяет настройки кассы и открывает сессию.
func (s *Service) OpenSession(ctx context.Context, req OpenSessionRequest) (models.SessionInfo, error) {
	if err := req.Config.CheckBeforeOpening(req.User, req.Employees); err != nil {
		return models.SessionInfo{}, err
	}
	if req.User.INSZ != "" && !models.ValidINSZ(req.User.INSZ) {
		return models.SessionInfo{}, models.NewValidationError(models.ErrInvalidINSZ)
	}

	info := models.SessionInfo{
		ConfigName: req.Config.Name,
		User:       req.User,
		HRMode:     req.Config.HRMode,
		FiscalMode: req.Config.FiscalMode(),
		StartedAt:  s.Now().UTC(),
	}
	if info.FiscalMode {
		info.FDMIdentifier = req.Config.BlackboxIdentifier()
	}

	id, err := s.store.CreateSession(ctx, info)
	if err != nil {
		return models.SessionInfo{}, fmt.Errorf("failed to create session: %w", err)
	}
	info.ID = id

	if info.FiscalMode {
		s.audit(ctx, models.AuditEntry{
			UserID:      req.User.ID,
			Action:      models.AuditCreate,
			ModelName:   AuditModelConfig,
			RecordName:  req.Config.Name,
			Description: "Session started with: " + info.FDMIdentifier,
		})
	}
	s.log.Info("session opened", "session", id, "config", info.ConfigName, "fiscal", info.FiscalMode)
	return info, nil
}

// Session возвращает сессию по идентификатору.
func (s *Service) Session(ctx context.Context, id int64) (models.SessionInfo, error) {
	return s.store.Session(ctx, id)
}

// WorkStatus сообщает, отмечен ли кассир в сессии.
func (s *Service) WorkStatus(ctx context.Context, sessionID, cashierID int64, employee bool) (bool, error) {
	if _, err := s.store.Session(ctx, sessionID); err != nil {
		return false, err
	}
	return s.store.WorkStatus(ctx, sessionID, cashierID, employee)
}

// SetWorkStatus сохраняет отметку и возвращает отмеченных кассиров сессии.
func (s *Service) SetWorkStatus(ctx context.Context, status models.WorkStatus) ([]int64, error) {
	if _, err := s.store.Session(ctx, status.SessionID); err != nil {
		return nil, err
	}
	ids, err := s.store.SetWorkStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to set work status: %w", err)
	}
	s.log.Info("work status changed",
		"session", status.SessionID,
		"cashier", status.CashierID,
		"clocked_in", status.ClockedIn,
	)
	return ids, nil
}

// RegisterOrder регистрирует оплаченный заказ.
// В фискальной сессии заказ без подписи отклоняется, зарегистрированный заказ не изменяется.
// Повторная регистрация той же подписи ничего не меняет.
func (s *Service) RegisterOrder(ctx context.Context, order models.OrderExport) error {
	info, err := s.store.Session(ctx, order.SessionID)
	if err != nil {
		return err
	}
	if info.FiscalMode && !order.Signed() {
		return models.NewValidationError(models.ErrUnsignedOrder)
	}

	existing, err := s.store.Order(ctx, order.UID)
	switch {
	case errors.Is(err, models.ErrNotFound):
	case err != nil:
		return err
	case !existing.Draft && existing.Signature == order.Signature:
		s.log.Debug("order already registered", "order", order.Name)
		return nil
	case !existing.Draft && info.FiscalMode:
		return models.NewValidationError(models.ErrOrderRegistered)
	}

	order.Draft = false
	if order.Date != "" {
		ts, err := order.ReceiptTime(time.UTC)
		if err != nil {
			return fmt.Errorf("invalid receipt time of %s: %w", order.Name, err)
		}
		order.POSReceiptTime = ts
	}

	if err := s.store.SaveOrder(ctx, order); err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.Name, err)
	}

	if info.FiscalMode {
		s.audit(ctx, models.AuditEntry{
			UserID:      order.UserID,
			Action:      models.AuditCreate,
			ModelName:   AuditModelOrder,
			RecordName:  order.Name,
			Description: Describe(order, info),
		})
	}
	if s.events != nil {
		s.events.OrderRegistered(ctx, order)
	}
	s.log.Info("order registered", "order", order.Name, "counters", order.TicketCounters)
	return nil
}

// SaveDraft сохраняет неоплаченный заказ. Зарегистрированный заказ черновиком не перезаписывается.
func (s *Service) SaveDraft(ctx context.Context, order models.OrderExport) error {
	info, err := s.store.Session(ctx, order.SessionID)
	if err != nil {
		return err
	}

	existing, err := s.store.Order(ctx, order.UID)
	switch {
	case errors.Is(err, models.ErrNotFound):
	case err != nil:
		return err
	case !existing.Draft:
		return models.NewValidationError(models.ErrOrderRegistered)
	}

	order.Draft = true
	if err := s.store.SaveOrder(ctx, order); err != nil {
		return fmt.Errorf("failed to save draft %s: %w", order.Name, err)
	}

	if info.FiscalMode {
		s.audit(ctx, models.AuditEntry{
			UserID:      order.UserID,
			Action:      models.AuditCreate,
			ModelName:   AuditModelOrder,
			RecordName:  order.Name,
			Description: Describe(order, info),
		})
	}
	return nil
}

// DeleteOrder удаляет заказ. В фискальной сессии удалять можно только черновики.
func (s *Service) DeleteOrder(ctx context.Context, uid string, userID int64) error {
	order, err := s.store.Order(ctx, uid)
	if err != nil {
		return err
	}
	info, err := s.store.Session(ctx, order.SessionID)
	if err != nil {
		return err
	}
	if info.FiscalMode && !order.Draft {
		return models.NewValidationError(models.ErrOrderDeletion)
	}

	if err := s.store.DeleteOrder(ctx, uid); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", order.Name, err)
	}
	if info.FiscalMode {
		s.audit(ctx, models.AuditEntry{
			UserID:     userID,
			Action:     models.AuditDelete,
			ModelName:  AuditModelOrder,
			RecordName: order.Name,
		})
	}
	return nil
}

// IncreaseCashBoxOpening увеличивает счётчик открытий денежного ящика.
func (s *Service) IncreaseCashBoxOpening(ctx context.Context, sessionID int64) (int, error) {
	n, err := s.store.IncreaseCashBoxOpening(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	s.log.Debug("cash box opened", "session", sessionID, "count", n)
	return n, nil
}

// SessionReport собирает отчёт о продажах сессии.
func (s *Service) SessionReport(ctx context.Context, sessionID int64) (models.Report, error) {
	info, err := s.store.Session(ctx, sessionID)
	if err != nil {
		return models.Report{}, err
	}
	orders, err := s.store.SessionOrders(ctx, models.OrderFilter{SessionID: sessionID, IncludeDrafts: true})
	if err != nil {
		return models.Report{}, fmt.Errorf("failed to load orders of session %d: %w", sessionID, err)
	}
	return report.Build(info, orders), nil
}

// AuditLog возвращает последние записи журнала аудита.
func (s *Service) AuditLog(ctx context.Context, limit uint64) ([]models.AuditEntry, error) {
	return s.store.AuditLog(ctx, limit)
}

// audit пишет запись журнала; ошибка журнала не отменяет операцию
func (s *Service) audit(ctx context.Context, entry models.AuditEntry) {
	entry.Date = s.Now().UTC()
	if err := s.store.AddAudit(ctx, entry); err != nil {
		s.log.Error("failed to write audit entry", "record", entry.RecordName, "error", err)
	}
}
