package feed_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walk-app/walk-profile/internal/db"
	errs "github.com/walk-app/walk-profile/internal/errors"
	"github.com/walk-app/walk-profile/internal/queue"
	"github.com/walk-app/walk-profile/internal/service/feed"
)

// stubSearcher returns a fixed candidate list and counts queries.
type stubSearcher struct {
	results []string
	err     error
	calls   int
}

func (s *stubSearcher) FindCandidates(ctx context.Context, requester *db.User) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

type stubUsers struct {
	user *db.User
	err  error
}

func (s *stubUsers) GetByID(ctx context.Context, userID string) (*db.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func setupQueue(t *testing.T) *queue.CandidateQueue {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return queue.NewCandidateQueueWithClient(client)
}

func TestNextCandidateRefillsFromSearch(t *testing.T) {
	ctx := context.Background()
	q := setupQueue(t)
	search := &stubSearcher{results: []string{"user-x", "user-y", "user-z"}}
	users := &stubUsers{user: &db.User{UserID: "user-a", City: "London"}}
	svc := feed.NewService(q, search, users, nil)

	// empty queue triggers exactly one search, then serves from the queue
	id, err := svc.NextCandidate(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, "user-x", id)
	assert.Equal(t, 1, search.calls)

	id, err = svc.NextCandidate(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, "user-y", id)
	assert.Equal(t, 1, search.calls)

	rest, err := q.All(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"user-z"}, rest)
}

func TestNextCandidateServesQueueWithoutSearching(t *testing.T) {
	ctx := context.Background()
	q := setupQueue(t)
	require.NoError(t, q.Push(ctx, "user-a", "user-q"))

	search := &stubSearcher{results: []string{"user-x"}}
	users := &stubUsers{user: &db.User{UserID: "user-a", City: "London"}}
	svc := feed.NewService(q, search, users, nil)

	id, err := svc.NextCandidate(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, "user-q", id)
	assert.Equal(t, 0, search.calls)
}

func TestNextCandidateExcludesRequester(t *testing.T) {
	ctx := context.Background()
	q := setupQueue(t)
	// a stale index document can return the requester; it must never
	// reach the queue
	search := &stubSearcher{results: []string{"user-a", "user-x", ""}}
	users := &stubUsers{user: &db.User{UserID: "user-a", City: "London"}}
	svc := feed.NewService(q, search, users, nil)

	id, err := svc.NextCandidate(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, "user-x", id)

	rest, err := q.All(ctx, "user-a")
	require.NoError(t, err)
	assert.Empty(t, rest)
}

func TestNextCandidateEmptySearch(t *testing.T) {
	ctx := context.Background()
	q := setupQueue(t)
	search := &stubSearcher{results: nil}
	users := &stubUsers{user: &db.User{UserID: "user-a", City: "London"}}
	svc := feed.NewService(q, search, users, nil)

	id, err := svc.NextCandidate(ctx, "user-a")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestNextCandidateProfileNotCompleted(t *testing.T) {
	ctx := context.Background()
	q := setupQueue(t)
	search := &stubSearcher{err: errs.ErrProfileNotCompleted}
	users := &stubUsers{user: &db.User{UserID: "user-a"}}
	svc := feed.NewService(q, search, users, nil)

	_, err := svc.NextCandidate(ctx, "user-a")
	assert.ErrorIs(t, err, errs.ErrProfileNotCompleted)
}

func TestNextCandidateUnknownUser(t *testing.T) {
	ctx := context.Background()
	q := setupQueue(t)
	search := &stubSearcher{results: []string{"user-x"}}
	users := &stubUsers{err: errs.ErrUserNotFound}
	svc := feed.NewService(q, search, users, nil)

	_, err := svc.NextCandidate(ctx, "user-a")
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
	assert.Equal(t, 0, search.calls)
}
