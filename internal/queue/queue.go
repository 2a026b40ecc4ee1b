package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/walk-app/walk-profile/internal/config"
)

// CandidateQueue stores per-user ordered lists of candidate user ids in
// Redis. Entries are hints, not authoritative state: a lost queue is
// recovered by re-querying the search index.
type CandidateQueue struct {
	Client *redis.Client
}

// NewCandidateQueue initializes a Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewCandidateQueue(cfg *config.Config) *CandidateQueue {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &CandidateQueue{Client: redis.NewClient(opts)}
}

// NewCandidateQueueWithClient wraps an existing Redis client, used when
// the queue shares a connection with the event bus.
func NewCandidateQueueWithClient(client *redis.Client) *CandidateQueue {
	return &CandidateQueue{Client: client}
}

func (q *CandidateQueue) Ping(ctx context.Context) error {
	return q.Client.Ping(ctx).Err()
}

func key(userID string) string {
	return fmt.Sprintf("queue:candidates:%s", userID)
}

// Push appends candidate ids to the tail of the user's queue,
// preserving their ranked order. Pushing nothing is a no-op.
func (q *CandidateQueue) Push(ctx context.Context, userID string, candidateIDs ...string) error {
	if len(candidateIDs) == 0 {
		return nil
	}
	values := make([]interface{}, len(candidateIDs))
	for i, id := range candidateIDs {
		values[i] = id
	}
	return q.Client.RPush(ctx, key(userID), values...).Err()
}

// Pop atomically removes and returns the head of the user's queue.
// Returns "" when the queue is empty. LPOP is a single Redis command,
// so two concurrent callers can never receive the same head element.
func (q *CandidateQueue) Pop(ctx context.Context, userID string) (string, error) {
	id, err := q.Client.LPop(ctx, key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// All returns the whole queue without consuming it. Diagnostics only.
func (q *CandidateQueue) All(ctx context.Context, userID string) ([]string, error) {
	return q.Client.LRange(ctx, key(userID), 0, -1).Result()
}
