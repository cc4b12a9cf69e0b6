package fdm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client определяет интерфейс клиента фискального модуля (FDM)
type Client interface {
	// RegisterReceipt отправляет фискальную запись и возвращает данные подписи
	RegisterReceipt(ctx context.Context, rec Record) (*SignedReceipt, error)

	// SubmitPin разблокирует устройство PIN-кодом
	SubmitPin(ctx context.Context, pin string) error

	// Close освобождает ресурсы клиента
	Close() error
}

// New создает клиент поверх заданного транспорта
func New(cfg Config, transport Transport) Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &fdmClient{
		cfg:       cfg,
		transport: transport,
	}
}

type fdmClient struct {
	cfg       Config
	transport Transport
}

// RegisterReceipt реализует регистрацию чека в фискальном модуле
func (c *fdmClient) RegisterReceipt(ctx context.Context, rec Record) (*SignedReceipt, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	c.log(fmt.Sprintf("Registering ticket %s (%s), total %s", rec.TicketNumber, rec.Type, rec.ReceiptTotal))

	resp, err := c.exchange(ctx, Request{
		Action:           ActionRegisterReceipt,
		HighLevelMessage: rec,
	})
	if err != nil {
		return nil, err
	}

	v := resp.Value
	if v.Signature == "" {
		return nil, fmt.Errorf("%w: signature is missing", ErrInvalidResponse)
	}

	c.log(fmt.Sprintf("Ticket %s signed, counters %s/%s", rec.TicketNumber, v.TicketCounter, v.TotalTicketCounter))

	return &SignedReceipt{
		Signature:          v.Signature,
		VSC:                v.VSC,
		FDMNumber:          v.FDMNumber,
		TicketCounter:      string(v.TicketCounter),
		TotalTicketCounter: string(v.TotalTicketCounter),
		Time:               v.Time,
		Date:               v.Date,
	}, nil
}

// SubmitPin отправляет PIN-код; исходная запись при этом не повторяется
func (c *fdmClient) SubmitPin(ctx context.Context, pin string) error {
	if pin == "" {
		return ErrInvalidPin
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return ErrInvalidPin
		}
	}

	c.log("Submitting PIN to the fiscal data module")

	_, err := c.exchange(ctx, Request{
		Action:           ActionRegisterReceipt,
		HighLevelMessage: PinMessage(pin),
	})
	return err
}

// Close освобождает ресурсы клиента
func (c *fdmClient) Close() error {
	return c.transport.Close()
}

// exchange отправляет запрос и разбирает статус ответа
func (c *fdmClient) exchange(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp == nil {
		return nil, ErrInvalidResponse
	}

	if resp.Status.Status != StatusConnected {
		c.log(fmt.Sprintf("Device status: %s", resp.Status.Status))
		return nil, &DeviceError{Status: resp.Status.Status}
	}

	if f := resp.Value.Error; f != nil && f.ErrorCode != "" && f.ErrorCode != ErrorCodeNone {
		c.log(fmt.Sprintf("Device error %s: %s", f.ErrorCode, f.Status))
		return nil, &DeviceError{Code: f.ErrorCode, Status: f.Status}
	}

	return resp, nil
}

func (c *fdmClient) log(msg string) {
	if c.cfg.Logger != nil {
		c.cfg.Logger(msg)
	}
}
