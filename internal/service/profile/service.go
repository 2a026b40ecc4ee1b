// Package profile is the application service behind the HTTP API:
// Telegram login, profile reads/updates, photo upload and like creation.
// Profile writes trigger a best-effort async sync of the search index.
package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/walk-app/walk-profile/internal/auth"
	"github.com/walk-app/walk-profile/internal/bus"
	"github.com/walk-app/walk-profile/internal/db"
	errs "github.com/walk-app/walk-profile/internal/errors"
	"github.com/walk-app/walk-profile/internal/repository"
)

// indexSyncTimeout bounds the background search-index upsert.
const indexSyncTimeout = 5 * time.Second

type UserStore interface {
	GetByID(ctx context.Context, userID string) (*db.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*db.User, error)
	CreateFromTelegram(ctx context.Context, telegramID int64, name string) (*db.User, error)
	Update(ctx context.Context, userID string, patch repository.UserPatch) (*db.User, error)
}

type LikeStore interface {
	Create(ctx context.Context, userID, likedUserID string) (*db.Like, error)
	UpdateStatus(ctx context.Context, likeID string, status db.LikeStatus) error
	ListReceived(ctx context.Context, userID string, limit, offset int) ([]db.Like, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Indexer upserts profile documents into the search index.
type Indexer interface {
	UpsertProfile(ctx context.Context, user *db.User) error
}

// PhotoStore stores an uploaded photo and returns its public URL.
type PhotoStore interface {
	Store(ctx context.Context, userID, filename string, r io.Reader, size int64, contentType string) (string, error)
}

type Service struct {
	users      UserStore
	likes      LikeStore
	producer   Publisher
	index      Indexer
	photos     PhotoStore
	tokens     *auth.TokenIssuer
	botToken   string
	likesTopic string
	logger     *slog.Logger
}

func NewService(
	users UserStore,
	likes LikeStore,
	producer Publisher,
	index Indexer,
	photos PhotoStore,
	tokens *auth.TokenIssuer,
	botToken string,
	likesTopic string,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:      users,
		likes:      likes,
		producer:   producer,
		index:      index,
		photos:     photos,
		tokens:     tokens,
		botToken:   botToken,
		likesTopic: likesTopic,
		logger:     logger,
	}
}

// Authenticate verifies a Telegram login payload, creates the profile
// on first login, and mints a session token.
func (s *Service) Authenticate(ctx context.Context, login auth.TelegramLogin) (string, error) {
	if !auth.VerifyTelegramHash(login, s.botToken) {
		return "", errs.ErrInvalidTelegramData
	}

	user, err := s.users.GetByTelegramID(ctx, login.ID)
	if errors.Is(err, errs.ErrUserNotFound) {
		user, err = s.users.CreateFromTelegram(ctx, login.ID, login.FirstName)
		if err == nil {
			s.syncIndex(user)
		}
	}
	if err != nil {
		return "", err
	}

	return s.tokens.Issue(user.UserID)
}

// Me returns the caller's profile.
func (s *Service) Me(ctx context.Context, userID string) (*db.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Update applies a partial profile update and schedules an index sync.
func (s *Service) Update(ctx context.Context, userID string, patch repository.UserPatch) (*db.User, error) {
	user, err := s.users.Update(ctx, userID, patch)
	if err != nil {
		return nil, err
	}
	s.syncIndex(user)
	return user, nil
}

// UploadPhoto stores the photo, records its URL on the profile and
// schedules an index sync.
func (s *Service) UploadPhoto(ctx context.Context, userID, filename string, r io.Reader, size int64, contentType string) (*db.User, error) {
	url, err := s.photos.Store(ctx, userID, filename, r, size, contentType)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Update(ctx, userID, repository.UserPatch{PhotoURL: &url})
	if err != nil {
		return nil, err
	}
	s.syncIndex(user)
	return user, nil
}

// CreateLike persists a like and publishes the like event driving the
// match detector. The like is durable before the event goes out.
func (s *Service) CreateLike(ctx context.Context, userID, likedUserID string) (*db.Like, error) {
	if userID == likedUserID {
		return nil, errs.ErrSelfLike
	}
	if _, err := s.users.GetByID(ctx, likedUserID); err != nil {
		return nil, err
	}

	like, err := s.likes.Create(ctx, userID, likedUserID)
	if err != nil {
		return nil, err
	}

	if err := s.producer.Publish(ctx, s.likesTopic, bus.NewLikeEvent(like)); err != nil {
		return nil, err
	}
	s.logger.Info("like event published", "like_id", like.LikeID, "topic", s.likesTopic)
	return like, nil
}

// ListReceivedLikes returns likes addressed to the caller that have not
// become matches. Fresh likes are moved new → seen in the background;
// the transition is advisory and its failure only logged.
func (s *Service) ListReceivedLikes(ctx context.Context, userID string, limit, offset int) ([]db.Like, error) {
	likes, err := s.likes.ListReceived(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	for _, like := range likes {
		if like.Status != db.LikeStatusNew {
			continue
		}
		likeID := like.LikeID
		go func() {
			markCtx, cancel := context.WithTimeout(context.Background(), indexSyncTimeout)
			defer cancel()
			if err := s.likes.UpdateStatus(markCtx, likeID, db.LikeStatusSeen); err != nil {
				s.logger.Error("failed to mark like seen", "like_id", likeID, "err", err)
			}
		}()
	}
	return likes, nil
}

// syncIndex dispatches the fire-and-forget search-index upsert. The
// triggering request never waits on it and delivery is not guaranteed;
// the candidate feed tolerates the staleness window.
func (s *Service) syncIndex(user *db.User) {
	u := *user
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), indexSyncTimeout)
		defer cancel()
		if err := s.index.UpsertProfile(ctx, &u); err != nil {
			s.logger.Error("search index sync failed", "user_id", u.UserID, "err", err)
			return
		}
		s.logger.Debug("search index synced", "user_id", u.UserID)
	}()
}
