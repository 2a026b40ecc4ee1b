// Package server exposes the HTTP API over gin.
package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/walk-app/walk-profile/internal/auth"
	"github.com/walk-app/walk-profile/internal/config"
	"github.com/walk-app/walk-profile/internal/queue"
	"github.com/walk-app/walk-profile/internal/service/feed"
	"github.com/walk-app/walk-profile/internal/service/profile"
)

type Server struct {
	cfg      *config.Config
	profiles *profile.Service
	feed     *feed.Service
	queue    *queue.CandidateQueue
	tokens   *auth.TokenIssuer
	logger   *slog.Logger
}

func New(
	cfg *config.Config,
	profiles *profile.Service,
	feedSvc *feed.Service,
	candidateQueue *queue.CandidateQueue,
	tokens *auth.TokenIssuer,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		profiles: profiles,
		feed:     feedSvc,
		queue:    candidateQueue,
		tokens:   tokens,
		logger:   logger,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/auth/token", s.telegramAuth)

	authed := router.Group("/profile", s.requireAuth)
	authed.GET("/me", s.getMe)
	authed.PUT("/me", s.updateMe)
	authed.POST("/photo", s.uploadPhoto)
	authed.POST("/like", s.createLike)
	authed.GET("/likes", s.listLikes)
	authed.GET("/next", s.nextCandidate)
	authed.GET("/queue", s.queueState)

	return router
}
