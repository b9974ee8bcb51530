package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/benvon/levelup-ai/internal/logger"
	"github.com/benvon/levelup-ai/internal/models"
	"github.com/benvon/levelup-ai/internal/request"
	"go.uber.org/zap"
)

// callLog is the debug trail of one upstream call. A nil *callLog logs nothing.
type callLog struct {
	logger *zap.Logger
	common []zap.Field
	start  time.Time
}

// startCall logs the outgoing prompt and returns the trail, or nil unless debug logging is on
func startCall(ctx context.Context, log *zap.Logger, debug bool, provider, model, prompt string, media *models.InlineMedia) *callLog {
	if log == nil || !debug {
		return nil
	}
	c := &callLog{
		logger: log,
		common: []zap.Field{
			zap.String("provider", provider),
			zap.String("model", model),
			zap.String("request_id", request.RequestIDFromContext(ctx)),
		},
		start: time.Now(),
	}
	c.logger.Debug("llm_api_request", append(c.common,
		zap.Int("prompt_length", len(prompt)),
		zap.String("prompt_preview", logger.Preview(prompt, true)),
		zap.String("media_type", mediaType(media)),
		zap.String("user_id", hashUserID(request.UserIDFromContext(ctx))),
	)...)
	return c
}

func (c *callLog) failed(err error) {
	if c == nil {
		return
	}
	c.logger.Debug("llm_api_error", append(c.common,
		zap.Error(err),
		zap.Int64("latency_ms", time.Since(c.start).Milliseconds()),
	)...)
}

func (c *callLog) done(text string) {
	if c == nil {
		return
	}
	c.logger.Debug("llm_api_response", append(c.common,
		zap.Int("response_length", len(text)),
		zap.String("response_preview", logger.Preview(text, true)),
		zap.Int64("latency_ms", time.Since(c.start).Milliseconds()),
	)...)
}

// hashUserID shortens a user id to a stable digest so provider traces never carry the raw id
func hashUserID(userID string) string {
	if userID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:8])
}

// redactKey keeps the first and last four characters of an API key
func redactKey(key string) string {
	const mask = "[REDACTED]"
	switch {
	case key == "":
		return ""
	case len(key) <= 8:
		return mask
	}
	return key[:4] + mask + key[len(key)-4:]
}
