// Package app wires the process's shared dependencies into services.
// The composition root owns every client; nothing is a hidden global.
package app

import (
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/walk-app/walk-profile/internal/auth"
	"github.com/walk-app/walk-profile/internal/blob"
	"github.com/walk-app/walk-profile/internal/bus"
	"github.com/walk-app/walk-profile/internal/config"
	"github.com/walk-app/walk-profile/internal/queue"
	"github.com/walk-app/walk-profile/internal/repository"
	"github.com/walk-app/walk-profile/internal/search"
	"github.com/walk-app/walk-profile/internal/service/feed"
	"github.com/walk-app/walk-profile/internal/service/matching"
	"github.com/walk-app/walk-profile/internal/service/profile"
)

// Context holds the process's constructed components.
type Context struct {
	Cfg    *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Logger *slog.Logger

	Users   *repository.UserRepository
	Likes   *repository.LikeRepository
	Matches *repository.MatchRepository

	Queue    *queue.CandidateQueue
	Index    *search.Index
	Photos   *blob.PhotoStore
	Producer *bus.Producer
	Consumer *bus.Consumer
	Tokens   *auth.TokenIssuer

	Detector *matching.Detector
	Feed     *feed.Service
	Profiles *profile.Service
}

// New wires repositories, infrastructure clients and services on top of
// the already-opened DB and Redis connections.
func New(cfg *config.Config, database *gorm.DB, rdb *redis.Client, logger *slog.Logger) (*Context, error) {
	index, err := search.NewIndex(cfg)
	if err != nil {
		return nil, err
	}
	photos, err := blob.NewPhotoStore(cfg)
	if err != nil {
		return nil, err
	}

	c := &Context{
		Cfg:    cfg,
		DB:     database,
		Redis:  rdb,
		Logger: logger,

		Users:   repository.NewUserRepository(database),
		Likes:   repository.NewLikeRepository(database),
		Matches: repository.NewMatchRepository(database),

		Queue:  queue.NewCandidateQueueWithClient(rdb),
		Index:  index,
		Photos: photos,
		Tokens: auth.NewTokenIssuer(cfg),
	}

	c.Producer = bus.NewProducer(rdb, logger.With("component", "producer"))
	c.Consumer = bus.NewConsumer(rdb, bus.ConsumerConfig{
		Group:          cfg.Bus.Group,
		Name:           cfg.Bus.Consumer,
		MaxDelivery:    cfg.Bus.MaxDelivery,
		Block:          cfg.Bus.Block,
		ReclaimMinIdle: cfg.Bus.ReclaimMinIdle,
		HandlerTimeout: cfg.Bus.HandlerTimeout,
		Logger:         logger.With("component", "consumer"),
	})

	c.Detector = matching.NewDetector(c.Likes, c.Matches, c.Producer, cfg.Bus.MatchTopic, logger.With("component", "match_detector"))
	c.Consumer.Handle(cfg.Bus.LikesTopic, c.Detector.HandleLikeEvent)

	c.Feed = feed.NewService(c.Queue, c.Index, c.Users, logger.With("component", "feed"))
	c.Profiles = profile.NewService(
		c.Users, c.Likes, c.Producer, c.Index, c.Photos, c.Tokens,
		cfg.Auth.TelegramToken, cfg.Bus.LikesTopic,
		logger.With("component", "profiles"),
	)

	return c, nil
}
