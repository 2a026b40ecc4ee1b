// Package matching turns reciprocal likes into matches. The detector is
// the consumer-side state machine for the likes topic; exactly one
// match row per user pair survives no matter how often or in which
// order the two like events arrive.
package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/walk-app/walk-profile/internal/bus"
	"github.com/walk-app/walk-profile/internal/db"
	errs "github.com/walk-app/walk-profile/internal/errors"
)

// LikeStore is the slice of like persistence the detector needs.
type LikeStore interface {
	FindReciprocal(ctx context.Context, userID, likedUserID string) (*db.Like, error)
	UpdateStatus(ctx context.Context, likeID string, status db.LikeStatus) error
}

// MatchStore creates match rows; duplicates surface as ErrMatchExists.
type MatchStore interface {
	Create(ctx context.Context, user1ID, user2ID string) (*db.Match, error)
}

// Publisher publishes events to a bus topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Detector consumes like events and creates matches. It holds no state
// between invocations: the store's uniqueness constraint is the only
// concurrency control, so any number of detector instances can share a
// database.
type Detector struct {
	likes      LikeStore
	matches    MatchStore
	producer   Publisher
	matchTopic string
	logger     *slog.Logger
}

func NewDetector(likes LikeStore, matches MatchStore, producer Publisher, matchTopic string, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		likes:      likes,
		matches:    matches,
		producer:   producer,
		matchTopic: matchTopic,
		logger:     logger,
	}
}

// HandleLikeEvent processes one like event from the bus.
//
// Given (user_id=A, liked_user_id=B): if B has not liked A back, the
// event is a no-op. Otherwise the detector optimistically creates the
// match; a duplicate-key rejection means some delivery already created
// it and is treated as done, not as an error. The match insert and the
// two like-status writes are independently idempotent, so a transient
// failure at any point is safe to retry via bus redelivery.
func (d *Detector) HandleLikeEvent(ctx context.Context, payload []byte) error {
	var event bus.LikeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrMalformedEvent, err)
	}
	if event.LikeID == "" || event.UserID == "" || event.LikedUserID == "" {
		return fmt.Errorf("%w: like event missing ids", errs.ErrMalformedEvent)
	}

	reciprocal, err := d.likes.FindReciprocal(ctx, event.UserID, event.LikedUserID)
	if err != nil {
		return fmt.Errorf("reciprocal lookup: %w", err)
	}
	if reciprocal == nil {
		d.logger.Debug("no reciprocal like yet", "user_id", event.UserID, "liked_user_id", event.LikedUserID)
		return nil
	}
	if reciprocal.Status == db.LikeStatusMatch {
		// the other direction already completed the pair
		return nil
	}

	match, err := d.matches.Create(ctx, event.UserID, event.LikedUserID)
	switch {
	case errors.Is(err, errs.ErrMatchExists):
		// lost the race to the other direction or a redelivery; the
		// row exists, so this delivery only finishes the status writes
		d.logger.Info("match already exists", "user_id", event.UserID, "liked_user_id", event.LikedUserID)
	case err != nil:
		return fmt.Errorf("create match: %w", err)
	default:
		d.logger.Info("match created", "match_id", match.MatchID, "user1_id", match.User1ID, "user2_id", match.User2ID)
		if err := d.producer.Publish(ctx, d.matchTopic, bus.NewMatchEvent(match)); err != nil {
			// delivery failure only; the match row is durable
			d.logger.Error("failed to publish match event", "match_id", match.MatchID, "err", err)
		}
	}

	if err := d.likes.UpdateStatus(ctx, event.LikeID, db.LikeStatusMatch); err != nil {
		return fmt.Errorf("update like %s: %w", event.LikeID, err)
	}
	if err := d.likes.UpdateStatus(ctx, reciprocal.LikeID, db.LikeStatusMatch); err != nil {
		return fmt.Errorf("update like %s: %w", reciprocal.LikeID, err)
	}
	return nil
}
