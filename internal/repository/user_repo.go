package repository

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/walk-app/walk-profile/internal/db"
	errs "github.com/walk-app/walk-profile/internal/errors"
)

// UserRepository provides data access methods for the User model.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetByID returns the user with the given id, or ErrUserNotFound.
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).First(&user, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByTelegramID returns the user bound to the given Telegram account,
// or ErrUserNotFound so the login flow can create one.
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).First(&user, "telegram_id = ?", telegramID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateFromTelegram creates a bare profile from Telegram login data.
// Everything beyond the identity fields is filled in later via Update.
func (r *UserRepository) CreateFromTelegram(ctx context.Context, telegramID int64, name string) (*db.User, error) {
	user := db.User{
		TelegramID: telegramID,
		Name:       name,
	}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UserPatch carries optional profile updates. Nil fields are left untouched.
type UserPatch struct {
	Name      *string
	Age       *int
	Sex       *db.Sex
	Bio       *string
	PhotoURL  *string
	Interests *[]string
	City      *string
	Zodiac    *string
}

// Update applies a partial profile update and returns the fresh row.
func (r *UserRepository) Update(ctx context.Context, userID string, patch UserPatch) (*db.User, error) {
	values := map[string]any{}
	if patch.Name != nil {
		values["name"] = *patch.Name
	}
	if patch.Age != nil {
		values["age"] = *patch.Age
	}
	if patch.Sex != nil {
		values["sex"] = *patch.Sex
	}
	if patch.Bio != nil {
		values["bio"] = *patch.Bio
	}
	if patch.PhotoURL != nil {
		values["photo_url"] = *patch.PhotoURL
	}
	if patch.Interests != nil {
		encoded, err := encodeInterests(*patch.Interests)
		if err != nil {
			return nil, err
		}
		values["interests"] = encoded
	}
	if patch.City != nil {
		values["city"] = *patch.City
	}
	if patch.Zodiac != nil {
		values["zodiac"] = *patch.Zodiac
	}

	if len(values) > 0 {
		res := r.db.WithContext(ctx).Model(&db.User{}).Where("user_id = ?", userID).Updates(values)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, errs.ErrUserNotFound
		}
	}

	return r.GetByID(ctx, userID)
}

// encodeInterests serializes interests the same way the gorm json
// serializer stores them, since map-based Updates bypass the serializer.
func encodeInterests(interests []string) (string, error) {
	b, err := json.Marshal(interests)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
