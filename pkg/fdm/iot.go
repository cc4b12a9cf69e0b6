package fdm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	iotActionPath = "/hw_drivers/action"
	iotEventPath  = "/hw_drivers/event"
)

// IoTConfig определяет параметры подключения к модулю через IoT-коробку.
type IoTConfig struct {
	BaseURL          string        // например http://192.168.1.20:8069
	DeviceIdentifier string        // идентификатор устройства на коробке
	PollTimeout      time.Duration // длительность одного long-poll запроса на стороне коробки
	RetryCount       int           // повторы запроса событий при сетевых ошибках
	Logger           func(string)
}

// IoTTransport отправляет действие через /hw_drivers/action и ждёт событие
// с тем же session_id через long-polling /hw_drivers/event.
// Чужие события (другие сессии, другие устройства) пропускаются.
type IoTTransport struct {
	cfg    IoTConfig
	action *http.Client
	events *retryablehttp.Client
}

// NewIoTTransport создаёт транспорт IoT-коробки
func NewIoTTransport(cfg IoTConfig) *IoTTransport {
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = 50 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryCount
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = cfg.PollTimeout + 10*time.Second
	rc.Logger = nil

	return &IoTTransport{
		cfg: cfg,
		// Действие не повторяется: повтор может привести к двойной регистрации чека
		action: &http.Client{Timeout: 10 * time.Second},
		events: rc,
	}
}

// HTTPClients возвращает HTTP-клиенты транспорта (для подмены в тестах)
func (t *IoTTransport) HTTPClients() []*http.Client {
	return []*http.Client{t.action, t.events.HTTPClient}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type listener struct {
	DeviceIdentifier string  `json:"device_identifier"`
	SessionID        string  `json:"session_id"`
	LastEvent        float64 `json:"last_event"`
}

// Send реализует отправку действия и ожидание ответа
func (t *IoTTransport) Send(ctx context.Context, req Request) (*Response, error) {
	sessionID, err := newSessionID()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params: actionEnvelope{
			SessionID:        sessionID,
			DeviceIdentifier: t.cfg.DeviceIdentifier,
			Data:             req,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal action: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+iotActionPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create action request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	t.log(fmt.Sprintf("Sending action to %s, session %s", t.cfg.DeviceIdentifier, sessionID))

	resp, err := t.action.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send action: %w", err)
	}
	if _, err := decodeRPC(resp); err != nil {
		return nil, err
	}

	var lastEvent float64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ev, err := t.poll(ctx, sessionID, lastEvent)
		if err != nil {
			return nil, err
		}
		if ev == nil {
			continue
		}
		if ev.Time > lastEvent {
			lastEvent = ev.Time
		}
		if ev.SessionID != sessionID || (ev.DeviceIdentifier != "" && ev.DeviceIdentifier != t.cfg.DeviceIdentifier) {
			t.log(fmt.Sprintf("Skipping event of session %s", ev.SessionID))
			continue
		}
		return &ev.Response, nil
	}
}

// poll выполняет один long-poll запрос; nil без ошибки означает, что событий не было
func (t *IoTTransport) poll(ctx context.Context, sessionID string, lastEvent float64) (*event, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params: map[string]any{
			"listener": []listener{{
				DeviceIdentifier: t.cfg.DeviceIdentifier,
				SessionID:        sessionID,
				LastEvent:        lastEvent,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal listener: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+iotEventPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create event request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.events.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to poll events: %w", err)
	}

	result, err := decodeRPC(resp)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || string(result) == "false" || string(result) == "null" {
		return nil, nil
	}

	var ev event
	if err := json.Unmarshal(result, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &ev, nil
}

// Close у HTTP-транспорта не держит соединений
func (t *IoTTransport) Close() error {
	t.action.CloseIdleConnections()
	t.events.HTTPClient.CloseIdleConnections()
	return nil
}

func (t *IoTTransport) log(msg string) {
	if t.cfg.Logger != nil {
		t.cfg.Logger(msg)
	}
}

func decodeRPC(resp *http.Response) (json.RawMessage, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrRemoteCallFailed, resp.StatusCode, body)
	}

	var data rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if data.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrRemoteCallFailed, data.Error.Message)
	}
	return data.Result, nil
}
