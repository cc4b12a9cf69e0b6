package fdm

import (
	"encoding/json"
	"time"
)

// Константы протокола устройства
const (
	ActionRegisterReceipt = "registerReceipt"

	StatusConnected = "connected"

	ErrorCodeNone        = "000000"
	ErrorCodePinRequired = "202000"

	pinPrefix = "P040"
)

// Request — сообщение, отправляемое фискальному модулю.
// HighLevelMessage содержит Record либо строку запроса PIN.
type Request struct {
	Action           string `json:"action"`
	HighLevelMessage any    `json:"high_level_message"`
}

// Response — асинхронный ответ фискального модуля.
type Response struct {
	Status DeviceStatus `json:"status"`
	Value  Value        `json:"value"`
}

// DeviceStatus — состояние подключения устройства.
type DeviceStatus struct {
	Status       string `json:"status"`
	MessageTitle string `json:"message_title,omitempty"`
}

// Value — полезная нагрузка ответа.
type Value struct {
	Signature          string  `json:"signature,omitempty"`
	VSC                string  `json:"vsc,omitempty"`
	FDMNumber          string  `json:"fdm_number,omitempty"`
	TicketCounter      Counter `json:"ticket_counter,omitempty"`
	TotalTicketCounter Counter `json:"total_ticket_counter,omitempty"`
	Time               string  `json:"time,omitempty"` // HHMMSS
	Date               string  `json:"date,omitempty"` // YYYYMMDD
	Error              *Fault  `json:"error,omitempty"`
}

// Fault — ошибка, сообщённая устройством.
type Fault struct {
	ErrorCode string `json:"errorCode"`
	Status    string `json:"status,omitempty"`
}

// Counter — счётчик, который устройство может прислать как числом, так и строкой.
type Counter string

func (c *Counter) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Counter(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = Counter(n.String())
	return nil
}

// SignedReceipt — данные подписи, возвращённые устройством для зарегистрированного чека.
type SignedReceipt struct {
	Signature          string
	VSC                string
	FDMNumber          string
	TicketCounter      string
	TotalTicketCounter string
	Time               string // HHMMSS
	Date               string // YYYYMMDD
}

// Config — конфигурация клиента
type Config struct {
	Timeout time.Duration // Таймаут ожидания ответа устройства (по умолчанию 60с)
	Logger  func(string)  // Опциональный логгер
}

// PinMessage формирует сообщение для разблокировки устройства PIN-кодом.
func PinMessage(pin string) string {
	return pinPrefix + pin
}
