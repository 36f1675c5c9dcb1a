package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ms-gatepass/internal/models"
)

type Producer struct {
	Writer     *kafka.Writer
	OrderTopic string
	ScanTopic  string
}

// NewProducer creates a writer that routes per-message topics, plus the two
// topics this service publishes on.
func NewProducer(brokers []string, orderTopic, scanTopic string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{
		Writer:     writer,
		OrderTopic: orderTopic,
		ScanTopic:  scanTopic,
	}
}

// Publish sends one message to a topic.
func (p *Producer) Publish(topic, key string, value []byte) error {
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

// PublishOrderCompleted streams an order completion so payment-side services
// and this service's own issuance consumer see the same event.
func (p *Producer) PublishOrderCompleted(order models.Order) error {
	msgBytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.Publish(p.OrderTopic, order.OrderID, msgBytes)
}

// PublishScanRecorded streams every audited scan attempt for downstream
// reporting consumers.
func (p *Producer) PublishScanRecorded(attempt models.ScanAttempt) error {
	msgBytes, err := json.Marshal(attempt)
	if err != nil {
		return err
	}
	return p.Publish(p.ScanTopic, attempt.AttemptID, msgBytes)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
