package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Bus struct {
		Group          string
		Consumer       string
		LikesTopic     string
		MatchTopic     string
		MaxDelivery    int
		Block          time.Duration
		ReclaimMinIdle time.Duration
		HandlerTimeout time.Duration
	}

	Elastic struct {
		URL   string
		Index string
	}

	S3 struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		PublicURL string
		UseSSL    bool
	}

	Auth struct {
		JWTSecret     string
		TelegramToken string
		TokenTTLHours int
	}

	HTTP struct {
		Host string
		Port string
	}
}

func New() *Config {
	cfg := &Config{}

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "walk_profile")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "walk")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis backs both the candidate queues and the event bus streams.
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// Event bus
	cfg.Bus.Group = getEnvDefault("BUS_GROUP", "profiles")
	cfg.Bus.Consumer = getEnvDefault("BUS_CONSUMER", hostnameDefault())
	cfg.Bus.LikesTopic = getEnvDefault("BUS_LIKES_TOPIC", "likes")
	cfg.Bus.MatchTopic = getEnvDefault("BUS_MATCHES_TOPIC", "matches")
	cfg.Bus.MaxDelivery = getEnvInt("BUS_MAX_DELIVERY", 5)
	cfg.Bus.Block = getEnvDuration("BUS_BLOCK", 2*time.Second)
	cfg.Bus.ReclaimMinIdle = getEnvDuration("BUS_RECLAIM_MIN_IDLE", 30*time.Second)
	cfg.Bus.HandlerTimeout = getEnvDuration("BUS_HANDLER_TIMEOUT", 10*time.Second)

	// Elasticsearch
	cfg.Elastic.URL = getEnvDefault("ELASTIC_URL", "http://localhost:9200")
	cfg.Elastic.Index = getEnvDefault("ELASTIC_USERS_INDEX", "users")

	// S3-compatible photo storage
	cfg.S3.Endpoint = getEnvDefault("S3_ENDPOINT", "localhost:9000")
	cfg.S3.AccessKey = getEnvDefault("S3_ACCESS_KEY", "")
	cfg.S3.SecretKey = getEnvDefault("S3_SECRET_KEY", "")
	cfg.S3.Bucket = getEnvDefault("S3_BUCKET", "walk-photos")
	cfg.S3.PublicURL = getEnvDefault("S3_PUBLIC_URL", "")
	cfg.S3.UseSSL = isTruthy(os.Getenv("S3_USE_SSL"))

	// Auth
	cfg.Auth.JWTSecret = getEnvDefault("JWT_SECRET", "dev-secret")
	cfg.Auth.TelegramToken = getEnvDefault("TELEGRAM_BOT_TOKEN", "")
	cfg.Auth.TokenTTLHours = getEnvInt("TOKEN_TTL_HOURS", 3)

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8001")

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func hostnameDefault() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "consumer-1"
}
