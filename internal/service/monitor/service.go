package monitor

import (
	"context"
	"sync"
	"time"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/domain/ports"
	"blackboxbe/internal/service/blackbox"
)

// Pusher регистрирует подписанный заказ; реализуется blackbox.Service.
type Pusher interface {
	PushSingleOrder(ctx context.Context, order *models.Order) (blackbox.State, error)
}

// Status — состояние неоплаченных заказов терминала.
type Status struct {
	Pending    int // все неоплаченные заказы
	Signed     int // подписаны, но не зарегистрированы в бэк-офисе
	LastUpdate time.Time
	LastError  string
}

// Service периодически дорегистрирует в бэк-офисе заказы, уже подписанные модулем.
// Неподписанные заказы не трогает: подпись требует участия кассира.
type Service struct {
	unpaid         ports.UnpaidOrderStore
	pusher         Pusher
	log            ports.Logger
	config         Config
	status         Status
	cancel         context.CancelFunc
	done           chan struct{}
	mutex          sync.Mutex
	isPaused       bool
	updateCallback func(Status)
}

// Config содержит конфигурацию опроса
type Config struct {
	PollInterval time.Duration // Интервал опроса
}

// NewService создает новый экземпляр сервиса
func NewService(unpaid ports.UnpaidOrderStore, pusher Pusher, log ports.Logger, cfg Config) *Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	return &Service{
		unpaid: unpaid,
		pusher: pusher,
		log:    log.With("component", "monitor"),
		config: cfg,
	}
}

// Start запускает фоновую синхронизацию
func (s *Service) Start(ctx context.Context) {
	// Если уже запущен - остановим
	s.Stop()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.monitorRoutine(ctx, s.done)
	s.log.Info("pending orders sync started", "interval", s.config.PollInterval.String())
}

// Stop останавливает синхронизацию и дожидается завершения текущего прохода
func (s *Service) Stop() {
	s.mutex.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mutex.Unlock()

	if cancel != nil {
		cancel()
		<-done
		s.log.Info("pending orders sync stopped")
	}
}

// Pause приостанавливает синхронизацию
func (s *Service) Pause() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.isPaused = true
}

// Resume возобновляет синхронизацию
func (s *Service) Resume() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.isPaused = false
}

// SetUpdateCallback устанавливает callback, вызываемый при изменении состояния
func (s *Service) SetUpdateCallback(fn func(Status)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.updateCallback = fn
}

// GetCurrentStatus возвращает текущее состояние (потокобезопасно)
func (s *Service) GetCurrentStatus() Status {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.status
}

// SyncOnce регистрирует подписанные заказы и обновляет состояние
func (s *Service) SyncOnce(ctx context.Context) Status {
	orders, err := s.unpaid.List()
	if err != nil {
		s.log.Error("failed to list pending orders", "error", err)
		return s.update(Status{LastUpdate: time.Now(), LastError: err.Error()})
	}

	st := Status{LastUpdate: time.Now()}
	for _, order := range orders {
		if !order.Signed() {
			st.Pending++
			continue
		}
		if _, err := s.pusher.PushSingleOrder(ctx, order); err != nil {
			s.log.Warn("failed to register signed order", "order", order.Name, "error", err)
			st.Pending++
			st.Signed++
			st.LastError = err.Error()
			continue
		}
		s.log.Info("signed order registered", "order", order.Name)
	}
	return s.update(st)
}

// monitorRoutine - основная горутина синхронизации
func (s *Service) monitorRoutine(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			s.mutex.Lock()
			paused := s.isPaused
			s.mutex.Unlock()
			if paused {
				continue
			}

			s.SyncOnce(ctx)
		}
	}
}

// update сохраняет состояние и вызывает callback, если число заказов изменилось
func (s *Service) update(st Status) Status {
	s.mutex.Lock()
	changed := st.Pending != s.status.Pending || st.Signed != s.status.Signed
	s.status = st
	callback := s.updateCallback
	s.mutex.Unlock()

	if changed && callback != nil {
		callback(st)
	}
	return st
}
