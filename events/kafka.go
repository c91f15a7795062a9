package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/freshcart/pricing-admin/pricing"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "events").Logger()

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter returns a writer for topic on the given brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// KafkaPublisher publishes completed pricing runs so storefront caches can
// drop stale prices.
type KafkaPublisher struct {
	writer MessageWriter
}

var _ pricing.Notifier = (*KafkaPublisher)(nil)

func NewKafkaPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// PricingApplied writes ev as JSON keyed by operation and run id.
func (p *KafkaPublisher) PricingApplied(ctx context.Context, ev pricing.RunEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("pricing-%s-%s", ev.Operation, ev.RunID)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "operation", Value: []byte(ev.Operation)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write run event: %w", err)
	}

	logger.Debug().Str("run_id", ev.RunID.String()).Str("operation", string(ev.Operation)).Msg("run event published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
