package queue_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walk-app/walk-profile/internal/queue"
)

func setupQueue(t *testing.T) *queue.CandidateQueue {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return queue.NewCandidateQueueWithClient(client)
}

func TestPushPopFIFO(t *testing.T) {
	ctx := context.Background()
	q := setupQueue(t)

	require.NoError(t, q.Push(ctx, "user-r", "x", "y", "z"))

	for _, want := range []string{"x", "y", "z"} {
		got, err := q.Pop(ctx, "user-r")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// drained queue yields empty, not an error
	got, err := q.Pop(ctx, "user-r")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestPushAppendsToTail(t *testing.T) {
	ctx := context.Background()
	q := setupQueue(t)

	require.NoError(t, q.Push(ctx, "user-r", "x"))
	require.NoError(t, q.Push(ctx, "user-r", "y"))

	got, err := q.Pop(ctx, "user-r")
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestPushNothingIsNoop(t *testing.T) {
	ctx := context.Background()
	q := setupQueue(t)

	require.NoError(t, q.Push(ctx, "user-r"))

	all, err := q.All(ctx, "user-r")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestQueuesAreIsolatedPerUser(t *testing.T) {
	ctx := context.Background()
	q := setupQueue(t)

	require.NoError(t, q.Push(ctx, "user-r", "x"))
	require.NoError(t, q.Push(ctx, "user-s", "y"))

	got, err := q.Pop(ctx, "user-s")
	require.NoError(t, err)
	assert.Equal(t, "y", got)

	all, err := q.All(ctx, "user-r")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, all)
}
