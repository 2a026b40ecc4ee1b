package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/walk-app/walk-profile/internal/app"
	"github.com/walk-app/walk-profile/internal/config"
	"github.com/walk-app/walk-profile/internal/db"
	"github.com/walk-app/walk-profile/internal/logger"
	"github.com/walk-app/walk-profile/internal/server"
)

func main() {
	cfg := config.New()

	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	appCtx, err := app.New(cfg, database, rdb, log)
	if err != nil {
		log.Error("failed to wire application", "err", err)
		os.Exit(1)
	}

	if err := appCtx.Photos.EnsureBucket(ctx); err != nil {
		// photo upload degrades, everything else works
		log.Warn("photo bucket unavailable", "err", err)
	}

	// the match detector runs as one sequential consumer loop
	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- appCtx.Consumer.Run(ctx)
	}()

	httpSrv := &http.Server{
		Addr: cfg.HTTP.Host + ":" + cfg.HTTP.Port,
		Handler: server.New(
			cfg, appCtx.Profiles, appCtx.Feed, appCtx.Queue, appCtx.Tokens,
			log.With("component", "http"),
		).Router(),
	}

	go func() {
		log.Info("starting http server", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	if err := <-consumerDone; err != nil {
		log.Error("consumer stopped with error", "err", err)
	}
}
