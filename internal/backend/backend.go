// Package backend opens the per-user state stores selected by configuration.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/levelup-ai/internal/config"
	"github.com/benvon/levelup-ai/internal/database"
	"github.com/benvon/levelup-ai/internal/preferences"
	"github.com/benvon/levelup-ai/internal/quota"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores holds the quota and preference stores and the connections behind them
type Stores struct {
	Quota       quota.Store
	Preferences preferences.Store

	// Memory is set for the in-process backend so callers can run its janitor
	Memory *quota.MemoryStore
	// Redis is set whenever REDIS_URL is reachable, even for other backends
	Redis redis.UniversalClient
	// DB is set for the postgres backend
	DB *database.DB
}

// Open connects the backend named by cfg.StoreBackend. Redis is also opened when
// REDIS_URL is set so the rate limiter can share it; for other backends a failure
// there is logged and ignored.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	s := &Stores{}

	if cfg.RedisURL != "" {
		client, err := ConnectRedis(ctx, cfg.RedisURL)
		switch {
		case err == nil:
			s.Redis = client
			logger.Info("connected_to_redis")
		case cfg.StoreBackend == config.StoreRedis:
			return nil, err
		default:
			logger.Warn("redis_unavailable", zap.Error(err))
		}
	}

	switch cfg.StoreBackend {
	case config.StoreRedis:
		s.Quota = quota.NewRedisStore(s.Redis)
		s.Preferences = preferences.NewRedisStore(s.Redis)
	case config.StorePostgres:
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			s.Close(logger)
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.DB = db
		if err := db.Migrate(ctx); err != nil {
			s.Close(logger)
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("connected_to_database")
		s.Quota = quota.NewPostgresStore(db.DB)
		s.Preferences = preferences.NewPostgresStore(db.DB)
	default:
		s.Memory = quota.NewMemoryStore()
		s.Quota = s.Memory
		s.Preferences = preferences.NewMemoryStore()
	}

	logger.Info("store_backend_ready", zap.String("backend", cfg.StoreBackend))
	return s, nil
}

// Shared reports whether the stores outlive this process
func (s *Stores) Shared() bool {
	return s.Memory == nil
}

// Close releases every open connection
func (s *Stores) Close(logger *zap.Logger) {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			logger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}
}

// ConnectRedis parses a redis:// URL and verifies the connection
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
