package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/levelup-ai/internal/config"
	"github.com/benvon/levelup-ai/internal/queue"
	"github.com/benvon/levelup-ai/internal/services/ai"
	"github.com/benvon/levelup-ai/internal/services/identity"
	"go.uber.org/zap"
)

// createGenerator returns nil when no API key is configured; generation requests then fail
// with an upstream error while the rest of the API keeps working.
func createGenerator(cfg *config.Config, logger *zap.Logger, debugMode bool) (ai.Generator, error) {
	apiKey := cfg.GenerationAPIKey()
	if apiKey == "" {
		return nil, nil
	}

	return ai.DefaultRegistry().GetProvider(cfg.AIProvider, ai.ProviderConfig{
		APIKey:    apiKey,
		BaseURL:   cfg.AIBaseURL,
		Model:     cfg.AIModel,
		Logger:    logger,
		DebugMode: debugMode,
	})
}

// createVerifier returns a nil interface for AUTH_PROVIDER=none
func createVerifier(ctx context.Context, cfg *config.Config) (identity.TokenVerifier, error) {
	switch cfg.AuthProvider {
	case config.AuthFirebase:
		verifier, err := identity.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentials)
		if err != nil {
			return nil, err
		}
		return verifier, nil
	case config.AuthOIDC:
		mgr := identity.NewJWKSManager(time.Hour, &http.Client{Timeout: 10 * time.Second})
		return identity.NewOIDCVerifier(mgr, cfg.OIDCIssuer, cfg.OIDCJWKSURL), nil
	default:
		return nil, nil
	}
}

// connectRabbitMQ retries with exponential backoff to ride out broker startup delays
func connectRabbitMQ(ctx context.Context, url string, logger *zap.Logger) (*queue.RabbitMQQueue, error) {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(url)
		if err == nil {
			logger.Info("connected_to_rabbitmq")
			return q, nil
		}
		lastErr = err

		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, lastErr)
}
