// Package events publishes order lifecycle notifications to Kafka. Publishing
// is best effort: callers log failures and never roll back on them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Shopify/sarama"
	"github.com/lanchecard/canteen-api/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
	TypePaymentUpdated     = "payment.updated"
)

type Event struct {
	Type          string               `json:"type"`
	OrderID       int64                `json:"order_id"`
	UserID        int64                `json:"user_id"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	PaymentID     *string              `json:"payment_id,omitempty"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func FromOrder(eventType string, order *models.Order) Event {
	return Event{
		Type:          eventType,
		OrderID:       order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		PaymentID:     order.PaymentID,
		TotalAmount:   order.TotalAmount,
		OccurredAt:    time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// KafkaPublisher writes events to a single topic keyed by order id, so every
// event of one order lands on the same partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logrus.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *logrus.Logger) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Retry.Backoff = 250 * time.Millisecond
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return NewKafkaPublisherWithProducer(producer, topic, logger), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *logrus.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		log:      logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(event.OrderID, 10)),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s event: %w", event.Type, err)
	}

	p.log.WithFields(logrus.Fields{
		"event":     event.Type,
		"order_id":  event.OrderID,
		"partition": partition,
		"offset":    offset,
	}).Debug("Event published")

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
