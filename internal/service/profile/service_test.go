package profile_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/walk-app/walk-profile/internal/auth"
	"github.com/walk-app/walk-profile/internal/bus"
	"github.com/walk-app/walk-profile/internal/config"
	"github.com/walk-app/walk-profile/internal/db"
	errs "github.com/walk-app/walk-profile/internal/errors"
	"github.com/walk-app/walk-profile/internal/repository"
	"github.com/walk-app/walk-profile/internal/service/profile"
)

const botToken = "123456:test-bot-token"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(&db.User{}, &db.Like{}, &db.Match{}))
	return database
}

type capturingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (p *capturingPublisher) Publish(ctx context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, payload)
	return nil
}

// recordingIndexer captures upserted documents from the async sync.
type recordingIndexer struct {
	mu    sync.Mutex
	users []db.User
}

func (i *recordingIndexer) UpsertProfile(ctx context.Context, user *db.User) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.users = append(i.users, *user)
	return nil
}

func (i *recordingIndexer) count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.users)
}

func (i *recordingIndexer) last() *db.User {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.users) == 0 {
		return nil
	}
	u := i.users[len(i.users)-1]
	return &u
}

type stubPhotoStore struct {
	url string
}

func (s *stubPhotoStore) Store(ctx context.Context, userID, filename string, r io.Reader, size int64, contentType string) (string, error) {
	return s.url, nil
}

type fixture struct {
	users    *repository.UserRepository
	likes    *repository.LikeRepository
	producer *capturingPublisher
	indexer  *recordingIndexer
	photos   *stubPhotoStore
	tokens   *auth.TokenIssuer
	svc      *profile.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := setupTestDB(t)

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTLHours = 3

	f := &fixture{
		users:    repository.NewUserRepository(database),
		likes:    repository.NewLikeRepository(database),
		producer: &capturingPublisher{},
		indexer:  &recordingIndexer{},
		photos:   &stubPhotoStore{url: "https://cdn.example.com/profiles/p.jpg"},
		tokens:   auth.NewTokenIssuer(cfg),
	}
	f.svc = profile.NewService(f.users, f.likes, f.producer, f.indexer, f.photos, f.tokens, botToken, "likes", nil)
	return f
}

func signedLogin(id int64, name string) auth.TelegramLogin {
	login := auth.TelegramLogin{
		ID:        id,
		FirstName: name,
		AuthDate:  time.Now().Unix(),
	}
	login.Hash = auth.SignTelegramLogin(login, botToken)
	return login
}

func TestAuthenticateCreatesProfileOnFirstLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	token, err := f.svc.Authenticate(ctx, signedLogin(42, "Alice"))
	require.NoError(t, err)

	userID, err := f.tokens.Parse(token)
	require.NoError(t, err)

	user, err := f.users.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.TelegramID)
	assert.Equal(t, "Alice", user.Name)

	// second login resolves to the same profile
	token2, err := f.svc.Authenticate(ctx, signedLogin(42, "Alice"))
	require.NoError(t, err)
	userID2, err := f.tokens.Parse(token2)
	require.NoError(t, err)
	assert.Equal(t, userID, userID2)
}

func TestAuthenticateRejectsForgedHash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	login := signedLogin(42, "Alice")
	login.FirstName = "Mallory"

	_, err := f.svc.Authenticate(ctx, login)
	assert.ErrorIs(t, err, errs.ErrInvalidTelegramData)
}

func TestCreateLikePublishesEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice, err := f.users.CreateFromTelegram(ctx, 1, "Alice")
	require.NoError(t, err)
	bob, err := f.users.CreateFromTelegram(ctx, 2, "Bob")
	require.NoError(t, err)

	like, err := f.svc.CreateLike(ctx, alice.UserID, bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, db.LikeStatusNew, like.Status)

	require.Len(t, f.producer.events, 1)
	assert.Equal(t, "likes", f.producer.topics[0])
	event, ok := f.producer.events[0].(bus.LikeEvent)
	require.True(t, ok)
	assert.Equal(t, like.LikeID, event.LikeID)
	assert.Equal(t, alice.UserID, event.UserID)
	assert.Equal(t, bob.UserID, event.LikedUserID)
}

func TestCreateLikeRejectsSelf(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice, err := f.users.CreateFromTelegram(ctx, 1, "Alice")
	require.NoError(t, err)

	_, err = f.svc.CreateLike(ctx, alice.UserID, alice.UserID)
	assert.ErrorIs(t, err, errs.ErrSelfLike)
	assert.Empty(t, f.producer.events)
}

func TestCreateLikeRejectsUnknownTarget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice, err := f.users.CreateFromTelegram(ctx, 1, "Alice")
	require.NoError(t, err)

	_, err = f.svc.CreateLike(ctx, alice.UserID, "no-such-user")
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
}

func TestCreateLikeRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice, err := f.users.CreateFromTelegram(ctx, 1, "Alice")
	require.NoError(t, err)
	bob, err := f.users.CreateFromTelegram(ctx, 2, "Bob")
	require.NoError(t, err)

	_, err = f.svc.CreateLike(ctx, alice.UserID, bob.UserID)
	require.NoError(t, err)
	_, err = f.svc.CreateLike(ctx, alice.UserID, bob.UserID)
	assert.ErrorIs(t, err, errs.ErrLikeExists)
	assert.Len(t, f.producer.events, 1)
}

func TestUpdateSchedulesIndexSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice, err := f.users.CreateFromTelegram(ctx, 1, "Alice")
	require.NoError(t, err)

	city := "London"
	interests := []string{"running", "chess"}
	updated, err := f.svc.Update(ctx, alice.UserID, repository.UserPatch{
		City:      &city,
		Interests: &interests,
	})
	require.NoError(t, err)
	assert.Equal(t, "London", updated.City)
	assert.Equal(t, interests, updated.Interests)

	require.Eventually(t, func() bool { return f.indexer.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	doc := f.indexer.last()
	assert.Equal(t, alice.UserID, doc.UserID)
	assert.Equal(t, "London", doc.City)
}

func TestUploadPhotoRecordsURL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice, err := f.users.CreateFromTelegram(ctx, 1, "Alice")
	require.NoError(t, err)

	updated, err := f.svc.UploadPhoto(ctx, alice.UserID, "selfie.jpg", nil, 0, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, f.photos.url, updated.PhotoURL)

	require.Eventually(t, func() bool { return f.indexer.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestListReceivedLikesMarksSeen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice, err := f.users.CreateFromTelegram(ctx, 1, "Alice")
	require.NoError(t, err)
	bob, err := f.users.CreateFromTelegram(ctx, 2, "Bob")
	require.NoError(t, err)

	like, err := f.likes.Create(ctx, bob.UserID, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, db.LikeStatusNew, like.Status)

	got, err := f.svc.ListReceivedLikes(ctx, alice.UserID, 30, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, like.LikeID, got[0].LikeID)

	// the new → seen transition happens in the background
	require.Eventually(t, func() bool {
		rows, err := f.likes.ListReceived(ctx, alice.UserID, 30, 0)
		return err == nil && len(rows) == 1 && rows[0].Status == db.LikeStatusSeen
	}, 2*time.Second, 10*time.Millisecond)
}
