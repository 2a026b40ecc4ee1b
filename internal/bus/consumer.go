package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	errs "github.com/walk-app/walk-profile/internal/errors"
)

// Handler processes one decoded event payload. Returning nil or
// ErrMalformedEvent acknowledges the entry; any other error leaves it
// pending for redelivery.
type Handler func(ctx context.Context, payload []byte) error

// Consumer is a single sequential loop over subscribed topic streams.
//
// Events are processed one at a time, in delivery order, with no
// overlap within one consumer instance. Scale-out means running more
// instances in the same group; each must independently tolerate
// duplicate delivery, since no cross-instance ordering exists.
type Consumer struct {
	client      *redis.Client
	group       string
	name        string
	maxDelivery int64
	logger      *slog.Logger

	topics   []string
	handlers map[string]Handler

	block          time.Duration
	reclaimMinIdle time.Duration
	handlerTimeout time.Duration
}

// ConsumerConfig carries the consumer group identity and retry bounds.
type ConsumerConfig struct {
	Group string
	Name  string

	// MaxDelivery bounds redelivery of failing events: an entry seen
	// more than this many times is dropped with a log line instead of
	// being retried forever.
	MaxDelivery int

	// Block is how long one XREADGROUP call waits for new entries.
	Block time.Duration

	// ReclaimMinIdle is the minimum pending age before an entry is
	// considered abandoned and eligible for reclaim.
	ReclaimMinIdle time.Duration

	// HandlerTimeout bounds a single handler invocation.
	HandlerTimeout time.Duration

	Logger *slog.Logger
}

// NewConsumer creates a consumer. Register handlers with Handle before
// calling Run. Zero durations fall back to defaults.
func NewConsumer(client *redis.Client, cfg ConsumerConfig) *Consumer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxDelivery := int64(cfg.MaxDelivery)
	if maxDelivery <= 0 {
		maxDelivery = 5
	}
	block := cfg.Block
	if block <= 0 {
		block = 2 * time.Second
	}
	reclaimMinIdle := cfg.ReclaimMinIdle
	if reclaimMinIdle <= 0 {
		reclaimMinIdle = 30 * time.Second
	}
	handlerTimeout := cfg.HandlerTimeout
	if handlerTimeout <= 0 {
		handlerTimeout = 10 * time.Second
	}
	return &Consumer{
		client:         client,
		group:          cfg.Group,
		name:           cfg.Name,
		maxDelivery:    maxDelivery,
		logger:         logger,
		handlers:       make(map[string]Handler),
		block:          block,
		reclaimMinIdle: reclaimMinIdle,
		handlerTimeout: handlerTimeout,
	}
}

// Handle subscribes the consumer to a topic. Not safe to call after Run.
func (c *Consumer) Handle(topic string, h Handler) {
	if _, dup := c.handlers[topic]; !dup {
		c.topics = append(c.topics, topic)
	}
	c.handlers[topic] = h
}

// Run blocks until ctx is canceled. An in-flight event always finishes
// processing before the loop exits; no event can stop the loop.
func (c *Consumer) Run(ctx context.Context) error {
	if len(c.topics) == 0 {
		return errors.New("consumer has no subscribed topics")
	}
	if err := c.ensureGroups(ctx); err != nil {
		return err
	}

	c.logger.Info("consumer started", "group", c.group, "consumer", c.name, "topics", strings.Join(c.topics, ","))

	streams := make([]string, 0, len(c.topics)*2)
	streams = append(streams, c.topics...)
	for range c.topics {
		streams = append(streams, ">")
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopped", "group", c.group, "consumer", c.name)
			return nil
		default:
		}

		c.reclaim(ctx)

		res, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.name,
			Streams:  streams,
			Count:    1,
			Block:    c.block,
		}).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			c.logger.Info("consumer stopped", "group", c.group, "consumer", c.name)
			return nil
		case err != nil:
			c.logger.Error("read from bus failed", "err", err)
			// transient broker failure; back off briefly and retry
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				c.process(ctx, stream.Stream, msg)
			}
		}
	}
}

func (c *Consumer) ensureGroups(ctx context.Context) error {
	for _, topic := range c.topics {
		err := c.client.XGroupCreateMkStream(ctx, topic, c.group, "$").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("create group %s on %s: %w", c.group, topic, err)
		}
	}
	return nil
}

// process runs one event through its handler. Panics and malformed
// payloads are logged and never escape: a single bad event must not
// stop match detection for everyone.
func (c *Consumer) process(ctx context.Context, topic string, msg redis.XMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("panic while processing event", "topic", topic, "id", msg.ID, "panic", rec)
		}
	}()

	handler, ok := c.handlers[topic]
	if !ok {
		c.ack(topic, msg.ID)
		return
	}

	payload, err := decodeEntry(msg)
	if err != nil {
		c.logger.Error("dropping malformed event", "topic", topic, "id", msg.ID, "err", err)
		c.ack(topic, msg.ID)
		return
	}

	// Detached from the loop ctx so a shutdown lets the in-flight
	// event finish instead of leaving it half-applied.
	handlerCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.handlerTimeout)
	defer cancel()

	err = handler(handlerCtx, payload)
	switch {
	case err == nil:
		c.ack(topic, msg.ID)
	case errors.Is(err, errs.ErrMalformedEvent):
		c.logger.Error("dropping malformed event", "topic", topic, "id", msg.ID, "err", err)
		c.ack(topic, msg.ID)
	default:
		// left pending; redelivered by the reclaim pass up to MaxDelivery
		c.logger.Error("event processing failed", "topic", topic, "id", msg.ID, "err", err)
	}
}

// reclaim retries pending entries from crashed or failed deliveries and
// drops poison entries that exceeded the delivery bound.
func (c *Consumer) reclaim(ctx context.Context) {
	for _, topic := range c.topics {
		pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
			Stream: topic,
			Group:  c.group,
			Idle:   c.reclaimMinIdle,
			Start:  "-",
			End:    "+",
			Count:  16,
		}).Result()
		if err != nil || len(pending) == 0 {
			continue
		}

		for _, p := range pending {
			if p.RetryCount > c.maxDelivery {
				c.logger.Warn("dropping event after too many deliveries",
					"topic", topic, "id", p.ID, "deliveries", p.RetryCount)
				c.ack(topic, p.ID)
				continue
			}

			claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
				Stream:   topic,
				Group:    c.group,
				Consumer: c.name,
				MinIdle:  c.reclaimMinIdle,
				Messages: []string{p.ID},
			}).Result()
			if err != nil {
				continue
			}
			for _, msg := range claimed {
				c.process(ctx, topic, msg)
			}
		}
	}
}

func (c *Consumer) ack(topic, id string) {
	if err := c.client.XAck(context.Background(), topic, c.group, id).Err(); err != nil {
		c.logger.Error("ack failed", "topic", topic, "id", id, "err", err)
	}
}

func decodeEntry(msg redis.XMessage) ([]byte, error) {
	v, ok := msg.Values[fieldVersion].(string)
	if !ok || v != schemaVersion {
		return nil, fmt.Errorf("unsupported event version %q", msg.Values[fieldVersion])
	}
	payload, ok := msg.Values[fieldPayload].(string)
	if !ok || payload == "" {
		return nil, errors.New("event entry has no payload")
	}
	return []byte(payload), nil
}
