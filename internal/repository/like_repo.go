package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/walk-app/walk-profile/internal/db"
	errs "github.com/walk-app/walk-profile/internal/errors"
)

// LikeRepository provides data access methods for the Like model.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// Create inserts a like from userID to likedUserID.
//
// The unique constraint on (user_id, liked_user_id) enforces at most one
// like per direction; a duplicate insert surfaces as ErrLikeExists.
func (r *LikeRepository) Create(ctx context.Context, userID, likedUserID string) (*db.Like, error) {
	like := db.Like{
		UserID:      userID,
		LikedUserID: likedUserID,
	}
	err := r.db.WithContext(ctx).Create(&like).Error
	if errs.IsDuplicate(err) {
		return nil, errs.ErrLikeExists
	}
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// FindReciprocal looks up the like in the opposite direction: the row
// where likedUserID already liked userID. Returns (nil, nil) when the
// other side has not liked back yet.
func (r *LikeRepository) FindReciprocal(ctx context.Context, userID, likedUserID string) (*db.Like, error) {
	var like db.Like
	err := r.db.WithContext(ctx).
		First(&like, "user_id = ? AND liked_user_id = ?", likedUserID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// UpdateStatus moves a like to the given status. Updating an already
// transitioned or missing row is not an error: status writes are
// idempotent so the match detector can safely retry them.
func (r *LikeRepository) UpdateStatus(ctx context.Context, likeID string, status db.LikeStatus) error {
	return r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("like_id = ?", likeID).
		Update("status", status).Error
}

// ListReceived returns likes addressed to userID that have not turned
// into a match yet, newest first.
func (r *LikeRepository) ListReceived(ctx context.Context, userID string, limit, offset int) ([]db.Like, error) {
	var likes []db.Like
	err := r.db.WithContext(ctx).
		Where("liked_user_id = ? AND status <> ?", userID, db.LikeStatusMatch).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&likes).Error
	if err != nil {
		return nil, err
	}
	return likes, nil
}
