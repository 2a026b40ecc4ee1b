// Package feed supplies "who to show next": a per-user candidate queue
// popped on demand and refilled lazily from the search index.
package feed

import (
	"context"
	"log/slog"

	"github.com/walk-app/walk-profile/internal/db"
)

// QueueStore is the per-user candidate queue with atomic pop semantics.
type QueueStore interface {
	Pop(ctx context.Context, userID string) (string, error)
	Push(ctx context.Context, userID string, candidateIDs ...string) error
}

// Searcher finds ranked candidate ids for a requester profile.
type Searcher interface {
	FindCandidates(ctx context.Context, requester *db.User) ([]string, error)
}

// ProfileStore fetches the requester's profile attributes for the query.
type ProfileStore interface {
	GetByID(ctx context.Context, userID string) (*db.User, error)
}

// Service orchestrates queue pop and refill.
type Service struct {
	queue  QueueStore
	search Searcher
	users  ProfileStore
	logger *slog.Logger
}

func NewService(queue QueueStore, search Searcher, users ProfileStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{queue: queue, search: search, users: users, logger: logger}
}

// NextCandidate returns the next candidate user id for userID, or ""
// when the search index has nobody to offer.
//
// The queue is consulted first; on empty, one search query refills it
// in ranked order and the head is popped again. Two concurrent refills
// for the same user are tolerated: duplicate ids across refills are
// acceptable, callers skip already-seen profiles via like history.
// ErrProfileNotCompleted passes through from the searcher so callers
// can distinguish "cannot search yet" from "no candidates".
func (s *Service) NextCandidate(ctx context.Context, userID string) (string, error) {
	id, err := s.queue.Pop(ctx, userID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	requester, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	candidates, err := s.search.FindCandidates(ctx, requester)
	if err != nil {
		return "", err
	}

	// the query excludes the requester already; keep the invariant
	// local too so a stale or mis-indexed document cannot break it
	filtered := candidates[:0]
	for _, candidate := range candidates {
		if candidate != userID && candidate != "" {
			filtered = append(filtered, candidate)
		}
	}
	if len(filtered) == 0 {
		return "", nil
	}

	if err := s.queue.Push(ctx, userID, filtered...); err != nil {
		return "", err
	}
	s.logger.Debug("candidate queue refilled", "user_id", userID, "candidates", len(filtered))

	return s.queue.Pop(ctx, userID)
}
