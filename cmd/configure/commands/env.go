package commands

import (
	"context"
	"fmt"

	"github.com/benvon/levelup-ai/internal/backend"
	"github.com/benvon/levelup-ai/internal/config"
	"github.com/benvon/levelup-ai/internal/preferences"
	"github.com/benvon/levelup-ai/internal/quota"
	"go.uber.org/zap"
)

// env is the shared state a command runs against
type env struct {
	cfg     *config.Config
	stores  *backend.Stores
	tracker *quota.Tracker
	prefs   *preferences.Service
	logger  *zap.Logger
}

// openEnv connects to the configured stores. Commands that read or change user state
// refuse the in-memory backend since it belongs to the server process.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := zap.NewNop()
	stores, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if !stores.Shared() {
		stores.Close(logger)
		return nil, fmt.Errorf("STORE_BACKEND=%s keeps state inside the server; use redis or postgres", cfg.StoreBackend)
	}

	return &env{
		cfg:     cfg,
		stores:  stores,
		tracker: quota.NewTracker(stores.Quota, cfg.DailyQuota),
		prefs:   preferences.NewService(stores.Preferences, cfg.DefaultLanguage),
		logger:  logger,
	}, nil
}

func (e *env) Close() {
	e.stores.Close(e.logger)
}
