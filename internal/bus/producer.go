// Package bus implements the event pipeline between the profile API and
// the match detector on top of Redis Streams. Streams with a consumer
// group give at-least-once delivery with explicit acknowledgement;
// everything downstream is written to be idempotent under redelivery.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// schemaVersion tags every stream entry so consumers can reject wire
// forms they do not understand.
const schemaVersion = "1"

const (
	fieldVersion = "v"
	fieldPayload = "payload"
)

// Producer publishes events to a topic stream. Fire-and-forget with
// respect to consumers: callers block only on the broker append.
type Producer struct {
	client *redis.Client
	logger *slog.Logger
}

// NewProducer creates a producer on the given Redis connection.
func NewProducer(client *redis.Client, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{client: client, logger: logger}
}

// Publish serializes payload and appends it to the topic stream.
// Broker errors propagate to the caller as a delivery failure; retry is
// an operational concern, not handled here.
func (p *Producer) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", topic, err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]interface{}{
			fieldVersion: schemaVersion,
			fieldPayload: string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	p.logger.Debug("event published", "topic", topic)
	return nil
}
