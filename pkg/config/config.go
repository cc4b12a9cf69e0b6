package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Виды подключения фискального модуля
const (
	DeviceSerial    = "serial"
	DeviceIoT       = "iot"
	DeviceWebsocket = "websocket"
	DeviceFake      = "fake"
)

// Server — настройки бэк-офиса (blackboxd).
type Server struct {
	HTTP     HTTP
	Logger   Logger
	Postgres Postgres
	Kafka    Kafka
}

// Terminal — настройки кассового терминала (fdmctl).
type Terminal struct {
	Logger  Logger
	Backend Backend
	Device  Device

	SessionID   int64  `env:"TERMINAL_SESSION_ID" envDefault:"0"`
	ProfilePath string `env:"TERMINAL_PROFILE" envDefault:"pos.json"`
	UnpaidFile  string `env:"TERMINAL_UNPAID_FILE" envDefault:"data/unpaid.json"`
	JournalPath string `env:"TERMINAL_JOURNAL_PATH" envDefault:"data/journal.db"`
	PaperWidth  int    `env:"TERMINAL_PAPER_WIDTH" envDefault:"42"`
}

type HTTP struct {
	Port            int           `env:"HTTP_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type Logger struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// Postgres — хранилище бэк-офиса. Пустой DSN означает хранение в памяти.
type Postgres struct {
	DSN     string `env:"POSTGRES_DSN" envDefault:""`
	MaxConn int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
}

// Kafka — публикация зарегистрированных заказов. Без брокеров публикация отключена.
type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS" envDefault:""`
	Topic   string   `env:"KAFKA_ORDERS_TOPIC" envDefault:"pos.blackbox.orders"`
}

type Backend struct {
	URL      string        `env:"BACKEND_URL" envDefault:"http://localhost:8080"`
	Timeout  time.Duration `env:"BACKEND_TIMEOUT" envDefault:"30s"`
	RetryMax int           `env:"BACKEND_RETRY_MAX" envDefault:"3"`
}

// Device — подключение фискального модуля.
type Device struct {
	Kind    string        `env:"FDM_KIND" envDefault:"fake"`
	Timeout time.Duration `env:"FDM_TIMEOUT" envDefault:"60s"`

	Port        string        `env:"FDM_SERIAL_PORT" envDefault:""`
	BaudRate    int           `env:"FDM_SERIAL_BAUD_RATE" envDefault:"19200"`
	ReadTimeout time.Duration `env:"FDM_SERIAL_READ_TIMEOUT" envDefault:"500ms"`

	IoTURL         string        `env:"FDM_IOT_URL" envDefault:""`
	IoTPollTimeout time.Duration `env:"FDM_IOT_POLL_TIMEOUT" envDefault:"50s"`
	IoTRetryCount  int           `env:"FDM_IOT_RETRY_COUNT" envDefault:"3"`
	WebsocketURL   string        `env:"FDM_WEBSOCKET_URL" envDefault:""`
	Identifier     string        `env:"FDM_DEVICE_IDENTIFIER" envDefault:""`

	FakePIN string `env:"FDM_FAKE_PIN" envDefault:""`
}

// LoadServer читает настройки бэк-офиса из .env и окружения.
func LoadServer(envPath string) (Server, error) {
	return load[Server](envPath)
}

// LoadTerminal читает настройки терминала из .env и окружения.
func LoadTerminal(envPath string) (Terminal, error) {
	c, err := load[Terminal](envPath)
	if err != nil {
		return Terminal{}, err
	}
	if err := c.Device.Validate(); err != nil {
		return Terminal{}, err
	}
	return c, nil
}

func load[T any](envPath string) (T, error) {
	var zero T

	err := godotenv.Load(envPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return zero, err
	}

	c, err := env.ParseAsWithOptions[T](env.Options{
		RequiredIfNoDef: true,
	})
	if err != nil {
		return zero, err
	}

	return c, nil
}

// Validate проверяет, что для выбранного вида подключения заданы адреса.
func (d Device) Validate() error {
	switch d.Kind {
	case DeviceSerial:
		if d.Port == "" {
			return errors.New("FDM_SERIAL_PORT is required for serial device")
		}
	case DeviceIoT:
		if d.IoTURL == "" {
			return errors.New("FDM_IOT_URL is required for iot device")
		}
	case DeviceWebsocket:
		if d.WebsocketURL == "" {
			return errors.New("FDM_WEBSOCKET_URL is required for websocket device")
		}
	case DeviceFake:
	default:
		return fmt.Errorf("unknown FDM_KIND %q", d.Kind)
	}
	return nil
}
