package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ms-gatepass/internal/logger"
	"ms-gatepass/internal/models"
)

type Consumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

// NewOrderConsumer creates a consumer-group reader for order completion
// events.
func NewOrderConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: log}
}

// Start consumes order events until ctx is cancelled. Malformed messages
// are logged and skipped; the handler owns idempotency.
func (c *Consumer) Start(ctx context.Context, handler func(ctx context.Context, order models.Order)) {
	if c.logger != nil {
		c.logger.LogKafka("CONSUMER", c.reader.Config().Topic, "consumer started")
	}

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if c.logger != nil {
				c.logger.Error("KAFKA", "error reading message: "+err.Error())
			}
			continue
		}

		var order models.Order
		if err := json.Unmarshal(msg.Value, &order); err != nil {
			if c.logger != nil {
				c.logger.Warn("KAFKA", "failed to unmarshal order event: "+err.Error())
			}
			continue
		}

		if c.logger != nil {
			c.logger.LogKafka("RECEIVED", msg.Topic, "order "+order.OrderID)
		}
		handler(ctx, order)
	}
}

// Close gracefully shuts down the Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
