// Package events publishes receipt lifecycle events to Kafka for the rest of
// the clinic system (notifications, accounting export).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/vetmais/payments/internal/config"
	"github.com/vetmais/payments/internal/domain"
)

const (
	EventReceiptGenerated = "receipt.generated"
	EventReceiptSettled   = "receipt.settled"
)

type ReceiptEvent struct {
	Event         string    `json:"event"`
	ReceiptID     string    `json:"receipt_id"`
	PaymentID     string    `json:"payment_id"`
	ReceiptNumber string    `json:"receipt_number"`
	PaymentStatus string    `json:"payment_status"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	ClientEmail   string    `json:"client_email,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *KafkaPublisher) ReceiptGenerated(ctx context.Context, record *domain.ReceiptRecord) error {
	return p.publish(ctx, EventReceiptGenerated, record)
}

func (p *KafkaPublisher) ReceiptSettled(ctx context.Context, record *domain.ReceiptRecord) error {
	return p.publish(ctx, EventReceiptSettled, record)
}

func newReceiptEvent(event string, record *domain.ReceiptRecord) ReceiptEvent {
	return ReceiptEvent{
		Event:         event,
		ReceiptID:     record.ID.String(),
		PaymentID:     record.PaymentID,
		ReceiptNumber: record.Number,
		PaymentStatus: string(record.PaymentStatus),
		AmountCents:   record.AmountCents,
		Currency:      record.Currency,
		ClientEmail:   record.ClientEmail,
		OccurredAt:    time.Now().UTC(),
	}
}

func (p *KafkaPublisher) publish(ctx context.Context, event string, record *domain.ReceiptRecord) error {
	data, err := json.Marshal(newReceiptEvent(event, record))
	if err != nil {
		return fmt.Errorf("error marshaling event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(record.PaymentID),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("error publishing %s for payment %s: %w", event, record.PaymentID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
