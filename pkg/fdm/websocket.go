package fdm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// WebsocketConfig определяет параметры канала событий IoT-коробки по websocket.
type WebsocketConfig struct {
	URL              string // например ws://192.168.1.20:8069/iot_drivers/websocket
	Origin           string
	DeviceIdentifier string
	Logger           func(string)
}

// WebsocketTransport держит одно соединение с коробкой и сопоставляет ответы по session_id.
// Запросы сериализуются мьютексом: в один момент времени ожидается один ответ.
type WebsocketTransport struct {
	cfg  WebsocketConfig
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebsocketTransport создаёт транспорт; соединение устанавливается при первой отправке
func NewWebsocketTransport(cfg WebsocketConfig) *WebsocketTransport {
	if cfg.Origin == "" {
		cfg.Origin = "http://localhost/"
	}
	return &WebsocketTransport{cfg: cfg}
}

// connectLocked устанавливает соединение (должен вызываться только под мьютексом)
func (t *WebsocketTransport) connectLocked(ctx context.Context) error {
	if t.conn != nil {
		return nil
	}
	wsCfg, err := websocket.NewConfig(t.cfg.URL, t.cfg.Origin)
	if err != nil {
		return fmt.Errorf("invalid websocket config: %w", err)
	}
	conn, err := wsCfg.DialContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	t.conn = conn
	return nil
}

// disconnectLocked закрывает соединение (должен вызываться только под мьютексом)
func (t *WebsocketTransport) disconnectLocked() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}

// Send отправляет действие и читает события до ответа своей сессии
func (t *WebsocketTransport) Send(ctx context.Context, req Request) (*Response, error) {
	sessionID, err := newSessionID()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.connectLocked(ctx); err != nil {
		return nil, err
	}
	conn := t.conn

	// Отмена контекста прерывает блокирующее чтение
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	err = websocket.JSON.Send(conn, actionEnvelope{
		SessionID:        sessionID,
		DeviceIdentifier: t.cfg.DeviceIdentifier,
		Data:             req,
	})
	if err != nil {
		t.disconnectLocked()
		return nil, t.ctxErr(ctx, fmt.Errorf("failed to send action: %w", err))
	}

	for {
		var ev event
		if err := websocket.JSON.Receive(conn, &ev); err != nil {
			t.disconnectLocked()
			return nil, t.ctxErr(ctx, fmt.Errorf("failed to receive event: %w", err))
		}
		if ev.SessionID != sessionID {
			t.log(fmt.Sprintf("Skipping event of session %s", ev.SessionID))
			continue
		}
		return &ev.Response, nil
	}
}

// ctxErr предпочитает ошибку контекста ошибке ввода-вывода, вызванной дедлайном
func (t *WebsocketTransport) ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Close закрывает соединение
func (t *WebsocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disconnectLocked()
	return nil
}

func (t *WebsocketTransport) log(msg string) {
	if t.cfg.Logger != nil {
		t.cfg.Logger(msg)
	}
}
