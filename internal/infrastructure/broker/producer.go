// Package broker публикует события бэк-офиса в Kafka.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"blackboxbe/internal/domain/models"
	"blackboxbe/internal/domain/ports"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// EventOrderRegistered — тип события о регистрации заказа.
const EventOrderRegistered = "order.registered"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer отправляет события о зарегистрированных заказах.
type Producer struct {
	l     ports.Logger
	w     messageWriter
	topic string
}

func NewProducer(l ports.Logger, brokers []string, topic string) *Producer {
	l = l.With("component", "kafka", "topic", topic)

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		Async:                  true,
		Logger:                 &infoLogger{l: l},
		ErrorLogger:            &errorLogger{l: l},
		AllowAutoTopicCreation: true,
	}

	return newProducer(l, w, topic)
}

func newProducer(l ports.Logger, w messageWriter, topic string) *Producer {
	return &Producer{
		l:     l,
		w:     w,
		topic: topic,
	}
}

// OrderRegisteredEvent — содержимое события о регистрации заказа.
type OrderRegisteredEvent struct {
	Type           string             `json:"type"`
	UID            string             `json:"uid"`
	Name           string             `json:"name"`
	SessionID      int64              `json:"pos_session_id"`
	ReceiptType    models.ReceiptType `json:"receipt_type"`
	TicketCounters string             `json:"ticket_counters"`
	Signature      string             `json:"signature"`
	FDMNumber      string             `json:"fdm_number"`
	AmountTotal    decimal.Decimal    `json:"amount_total"`
	ReceiptTime    time.Time          `json:"receipt_time"`
}

// OrderRegistered публикует событие; ошибка записи только логируется.
func (p *Producer) OrderRegistered(ctx context.Context, order models.OrderExport) {
	event := OrderRegisteredEvent{
		Type:           EventOrderRegistered,
		UID:            order.UID,
		Name:           order.Name,
		SessionID:      order.SessionID,
		ReceiptType:    order.ReceiptType,
		TicketCounters: order.TicketCounters,
		Signature:      order.Signature,
		FDMNumber:      order.FDMProductionNumber,
		AmountTotal:    order.AmountTotal,
		ReceiptTime:    order.POSReceiptTime,
	}

	b, err := json.Marshal(event)
	if err != nil {
		p.l.Error(fmt.Sprintf("marshal event: %s", err))
		return
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.UID),
		Value: b,
		Topic: p.topic,
	})
	if err != nil {
		p.l.Error(fmt.Sprintf("write kafka message: %s", err), "order", order.Name)
		return
	}
}

func (p *Producer) Close() {
	err := p.w.Close()
	if err != nil {
		p.l.Error(fmt.Sprintf("close kafka writer: %s", err))
	}
}

type infoLogger struct {
	l ports.Logger
}

func (l *infoLogger) Printf(format string, v ...any) {
	l.l.Debug(fmt.Sprintf(format, v...))
}

type errorLogger struct {
	l ports.Logger
}

func (l *errorLogger) Printf(format string, v ...any) {
	l.l.Error(fmt.Sprintf(format, v...))
}
