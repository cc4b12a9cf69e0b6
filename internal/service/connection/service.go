package connection

import (
	"fmt"
	"sync"

	"blackboxbe/internal/domain/ports"
	"blackboxbe/pkg/config"
	"blackboxbe/pkg/fdm"
)

// ConnectionService отвечает за подключение к фискальному модулю выбранного вида.
type ConnectionService struct {
	cfg config.Device
	log ports.Logger

	mu     sync.Mutex
	client fdm.Client
	fake   *fdm.FakeDevice
}

// NewConnectionService создает новый экземпляр ConnectionService
func NewConnectionService(cfg config.Device, log ports.Logger) *ConnectionService {
	return &ConnectionService{
		cfg: cfg,
		log: log.With("component", "connection", "device", cfg.Kind),
	}
}

// GetSystemPorts возвращает список доступных в системе COM-портов
func (s *ConnectionService) GetSystemPorts() ([]string, error) {
	return fdm.ListPorts()
}

// Connect создаёт клиент модуля. Повторный вызов возвращает тот же клиент.
// Транспорт открывает соединение лениво, при первой отправке.
func (s *ConnectionService) Connect() (fdm.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	transport, err := s.transport()
	if err != nil {
		return nil, err
	}

	s.client = fdm.New(fdm.Config{Timeout: s.cfg.Timeout, Logger: s.debug}, transport)
	s.log.Info("fiscal data module configured")
	return s.client, nil
}

// Disconnect закрывает клиент модуля
func (s *ConnectionService) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	s.fake = nil
	return err
}

// IsConnected проверяет, создан ли клиент модуля
func (s *ConnectionService) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

// FakeDevice возвращает имитацию модуля, если выбран вид "fake" и клиент создан
func (s *ConnectionService) FakeDevice() *fdm.FakeDevice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fake
}

func (s *ConnectionService) transport() (fdm.Transport, error) {
	switch s.cfg.Kind {
	case config.DeviceSerial:
		return fdm.NewSerialTransport(fdm.SerialConfig{
			PortName:    s.cfg.Port,
			BaudRate:    s.cfg.BaudRate,
			ReadTimeout: s.cfg.ReadTimeout,
			Logger:      s.debug,
		}), nil
	case config.DeviceIoT:
		return fdm.NewIoTTransport(fdm.IoTConfig{
			BaseURL:          s.cfg.IoTURL,
			DeviceIdentifier: s.cfg.Identifier,
			PollTimeout:      s.cfg.IoTPollTimeout,
			RetryCount:       s.cfg.IoTRetryCount,
			Logger:           s.debug,
		}), nil
	case config.DeviceWebsocket:
		return fdm.NewWebsocketTransport(fdm.WebsocketConfig{
			URL:              s.cfg.WebsocketURL,
			DeviceIdentifier: s.cfg.Identifier,
			Logger:           s.debug,
		}), nil
	case config.DeviceFake:
		s.fake = fdm.NewFakeDevice(s.cfg.FakePIN)
		return s.fake, nil
	}
	return nil, fmt.Errorf("unknown device kind %q", s.cfg.Kind)
}

func (s *ConnectionService) debug(msg string) {
	s.log.Debug(msg)
}
