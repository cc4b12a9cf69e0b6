package fdm

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
)

// Transport определяет интерфейс транспорта для связи с фискальным модулем.
// На каждый запрос транспорт возвращает ровно один ответ, относящийся к этому запросу.
type Transport interface {
	// Send отправляет запрос и ждёт соответствующий ему ответ
	Send(ctx context.Context, req Request) (*Response, error)

	// Close закрывает соединение
	Close() error
}

// actionEnvelope — запрос к IoT-коробке с идентификатором сессии для сопоставления ответа
type actionEnvelope struct {
	SessionID        string  `json:"session_id"`
	DeviceIdentifier string  `json:"device_identifier"`
	Data             Request `json:"data"`
}

// event — событие устройства, доставленное IoT-коробкой
type event struct {
	SessionID        string  `json:"session_id"`
	DeviceIdentifier string  `json:"device_identifier"`
	Time             float64 `json:"time,omitempty"`
	Response
}

// newSessionID генерирует идентификатор для сопоставления запроса и ответа
func newSessionID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return id.String(), nil
}
