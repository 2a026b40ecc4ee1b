package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/walk-app/walk-profile/internal/db"
	errs "github.com/walk-app/walk-profile/internal/errors"
)

// MatchRepository provides data access methods for the Match model.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// Create inserts the match for the unordered pair {user1, user2}.
//
// The pair is written in canonical order (smaller id first), so however
// many detector instances race on the two like directions, they all
// submit the same row and the uq_user_pair constraint lets exactly one
// insert through. The loser gets ErrMatchExists, which callers treat as
// success-already-done.
func (r *MatchRepository) Create(ctx context.Context, user1ID, user2ID string) (*db.Match, error) {
	if user2ID < user1ID {
		user1ID, user2ID = user2ID, user1ID
	}
	match := db.Match{
		User1ID: user1ID,
		User2ID: user2ID,
	}
	err := r.db.WithContext(ctx).Create(&match).Error
	if errs.IsDuplicate(err) {
		return nil, errs.ErrMatchExists
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// GetForPair returns the match row for the unordered pair, if any.
func (r *MatchRepository) GetForPair(ctx context.Context, user1ID, user2ID string) (*db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).
		First(&match,
			"(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)",
			user1ID, user2ID, user2ID, user1ID,
		).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// CountForUser returns how many non-deleted matches a user participates in.
func (r *MatchRepository) CountForUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("(user1_id = ? OR user2_id = ?) AND status <> ?", userID, userID, db.MatchStatusDeleted).
		Count(&count).Error
	return count, err
}
