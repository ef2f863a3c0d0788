package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer forwards invalidations to a Kafka topic so other dashboard
// instances can refresh their views too. It is optional: when no brokers
// are configured the service runs with the in-process bus alone.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer creates a Kafka producer for the watchlist events topic.
func NewProducer(brokers []string, topic, clientID string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Transport: &kafka.Transport{
			ClientID: clientID,
		},
	}
	return &Producer{writer: writer, logger: logger}
}

// PublishInvalidation sends one invalidation, keyed by resource name so all
// events for a resource land on the same partition in order.
func (p *Producer) PublishInvalidation(ctx context.Context, inv Invalidation) error {
	value, err := json.Marshal(inv)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(inv.Resource),
		Value: value,
		Time:  inv.At,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish invalidation event",
			zap.String("resource", inv.Resource),
			zap.Error(err))
		return err
	}

	p.logger.Debug("Invalidation event published",
		zap.String("resource", inv.Resource))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
