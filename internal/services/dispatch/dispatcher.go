// Package dispatch runs one generation request end to end: identity, mode and payload
// checks, the daily quota gate, prompt construction and the provider call.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/levelup-ai/internal/logger"
	"github.com/benvon/levelup-ai/internal/models"
	"github.com/benvon/levelup-ai/internal/queue"
	"github.com/benvon/levelup-ai/internal/quota"
	"github.com/benvon/levelup-ai/internal/request"
	"github.com/benvon/levelup-ai/internal/services/ai"
	"github.com/benvon/levelup-ai/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

// QuotaGate consumes one request slot per accepted request
type QuotaGate interface {
	CheckAndConsume(ctx context.Context, userID string) (quota.Decision, error)
	Today() string
}

// LanguageSource resolves the user's output language
type LanguageSource interface {
	Language(ctx context.Context, userID string) (string, error)
}

// PromptBuilder renders prompts for each input kind
type PromptBuilder interface {
	Build(mode models.Mode, text string, params models.ModeParams, language string) (string, error)
	Transcription(language string) string
	Image(mode models.Mode, params models.ModeParams, language string) (string, error)
}

// Dispatcher is safe for concurrent use; each call is independent
type Dispatcher struct {
	quota           QuotaGate
	languages       LanguageSource
	prompts         PromptBuilder
	generator       ai.Generator
	publisher       queue.Publisher
	logger          *zap.Logger
	debugMode       bool
	defaultLanguage string
}

// Config wires a Dispatcher. Generator may be nil when no provider is configured;
// every request is then rejected before quota is consumed.
type Config struct {
	Quota           QuotaGate
	Languages       LanguageSource
	Prompts         PromptBuilder
	Generator       ai.Generator
	Publisher       queue.Publisher
	Logger          *zap.Logger
	DebugMode       bool
	DefaultLanguage string
}

// New creates a dispatcher
func New(cfg Config) *Dispatcher {
	d := &Dispatcher{
		quota:           cfg.Quota,
		languages:       cfg.Languages,
		prompts:         cfg.Prompts,
		generator:       cfg.Generator,
		publisher:       cfg.Publisher,
		logger:          cfg.Logger,
		debugMode:       cfg.DebugMode,
		defaultLanguage: cfg.DefaultLanguage,
	}
	if d.publisher == nil {
		d.publisher = queue.NoopPublisher{}
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.defaultLanguage == "" {
		d.defaultLanguage = "French"
	}
	return d
}

// GeneratorName reports the configured provider, or "" when none is configured
func (d *Dispatcher) GeneratorName() string {
	if d.generator == nil {
		return ""
	}
	return d.generator.Name()
}

// ProcessText generates from typed input
func (d *Dispatcher) ProcessText(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	mode, err := d.precheck(req.UserID, req.Mode)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", models.ErrMissingPayload)
	}

	return d.run(ctx, req.UserID, mode, models.InputText, func(ctx context.Context, language string) (*models.GenerationResult, error) {
		prompt, err := d.prompts.Build(mode, req.Text, req.Params, language)
		if err != nil {
			return nil, err
		}
		text, err := d.generate(ctx, "text", prompt, nil)
		if err != nil {
			return nil, err
		}
		return &models.GenerationResult{Result: text}, nil
	})
}

// ProcessAudio transcribes the audio in one call, then runs the mode prompt over the transcription
func (d *Dispatcher) ProcessAudio(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	mode, err := d.precheck(req.UserID, req.Mode)
	if err != nil {
		return nil, err
	}
	if err := checkMedia(req.Media, "audio/", "audio file"); err != nil {
		return nil, err
	}

	return d.run(ctx, req.UserID, mode, models.InputAudio, func(ctx context.Context, language string) (*models.GenerationResult, error) {
		transcription, err := d.generate(ctx, "transcription", d.prompts.Transcription(language), req.Media)
		if err != nil {
			return nil, err
		}
		prompt, err := d.prompts.Build(mode, transcription, req.Params, language)
		if err != nil {
			return nil, err
		}
		text, err := d.generate(ctx, "text", prompt, nil)
		if err != nil {
			return nil, err
		}
		return &models.GenerationResult{Result: text, Transcription: transcription}, nil
	})
}

// ProcessImage sends the mode-aware image prompt together with the image in one call
func (d *Dispatcher) ProcessImage(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	mode, err := d.precheck(req.UserID, req.Mode)
	if err != nil {
		return nil, err
	}
	if err := checkMedia(req.Media, "image/", "image"); err != nil {
		return nil, err
	}

	return d.run(ctx, req.UserID, mode, models.InputImage, func(ctx context.Context, language string) (*models.GenerationResult, error) {
		prompt, err := d.prompts.Image(mode, req.Params, language)
		if err != nil {
			return nil, err
		}
		text, err := d.generate(ctx, "image", prompt, req.Media)
		if err != nil {
			return nil, err
		}
		return &models.GenerationResult{Result: text}, nil
	})
}

// precheck validates everything that must hold before a quota slot is consumed
func (d *Dispatcher) precheck(userID, rawMode string) (models.Mode, error) {
	if strings.TrimSpace(userID) == "" {
		return "", models.ErrUnauthenticated
	}
	return models.ParseMode(rawMode)
}

func checkMedia(media *models.InlineMedia, prefix, what string) error {
	if media == nil || len(media.Data) == 0 {
		return fmt.Errorf("%w: no %s provided", models.ErrMissingPayload, what)
	}
	if !strings.HasPrefix(strings.ToLower(media.MIMEType), prefix) {
		return fmt.Errorf("%w: expected %s, got %s", models.ErrUnsupportedMedia, what, media.MIMEType)
	}
	return nil
}

type stage func(ctx context.Context, language string) (*models.GenerationResult, error)

// run applies the quota gate, resolves the language, executes the stage and records the event.
// A slot consumed here stays consumed when generation fails.
func (d *Dispatcher) run(ctx context.Context, userID string, mode models.Mode, kind models.InputKind, fn stage) (*models.GenerationResult, error) {
	if d.generator == nil {
		return nil, fmt.Errorf("%w: no generation provider configured", models.ErrUpstreamUnavailable)
	}

	ctx = request.WithUserID(ctx, userID)
	ctx, span := telemetry.StartSpan(ctx, "dispatch."+string(kind),
		attribute.String("mode", string(mode)),
		attribute.String("provider", d.generator.Name()),
	)

	decision, err := d.quota.CheckAndConsume(ctx, userID)
	if err != nil {
		telemetry.EndSpan(span, err)
		return nil, err
	}
	if !decision.Allowed {
		d.logger.Info("quota_exceeded",
			zap.String("user_id", logger.SanitizeUserID(userID)),
			zap.Int("count", decision.Count),
			zap.Int("limit", decision.Limit),
		)
		err := fmt.Errorf("%w: %d of %d requests used today", models.ErrQuotaExceeded, decision.Count, decision.Limit)
		telemetry.EndSpan(span, err)
		return nil, err
	}

	language, err := d.languages.Language(ctx, userID)
	if err != nil {
		d.logger.Warn("language_lookup_failed",
			zap.String("user_id", logger.SanitizeUserID(userID)),
			zap.Error(err),
		)
		language = d.defaultLanguage
	}

	start := time.Now()
	result, err := fn(ctx, language)
	latency := time.Since(start)
	d.publish(ctx, userID, mode, kind, decision.Count, latency, err)

	if err != nil {
		d.logger.Error("generation_failed",
			zap.String("user_id", logger.SanitizeUserID(userID)),
			zap.String("mode", string(mode)),
			zap.String("input_kind", string(kind)),
			zap.String("error", logger.SanitizeError(err)),
			zap.Bool("rate_limited", ai.IsRateLimitError(err)),
			zap.Bool("provider_quota", ai.IsQuotaError(err)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
		telemetry.EndSpan(span, err)
		if errors.Is(err, models.ErrInvalidMode) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}

	result.Usage = decision.Count
	d.logger.Info("generation_completed",
		zap.String("user_id", logger.SanitizeUserID(userID)),
		zap.String("mode", string(mode)),
		zap.String("input_kind", string(kind)),
		zap.Int("usage", decision.Count),
		zap.Int64("latency_ms", latency.Milliseconds()),
	)
	if d.debugMode {
		d.logger.Debug("generation_result",
			zap.String("result_preview", logger.Preview(result.Result, true)),
		)
	}
	telemetry.EndSpan(span, nil)
	return result, nil
}

func (d *Dispatcher) generate(ctx context.Context, step, prompt string, media *models.InlineMedia) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "generator."+step, attribute.Int("prompt_length", len(prompt)))
	text, err := d.generator.Generate(ctx, prompt, media)
	telemetry.EndSpan(span, err)
	return text, err
}

// publish records the usage event without blocking or failing the request
func (d *Dispatcher) publish(ctx context.Context, userID string, mode models.Mode, kind models.InputKind, count int, latency time.Duration, genErr error) {
	event := queue.NewEvent(userID, string(mode), string(kind), d.quota.Today(), count)
	event.Success = genErr == nil
	event.LatencyMS = latency.Milliseconds()
	event.Provider = d.generator.Name()
	event.RequestID = request.RequestIDFromContext(ctx)
	if genErr != nil {
		event.Error = logger.SanitizeError(genErr)
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := d.publisher.Publish(pubCtx, event); err != nil {
		d.logger.Warn("usage_event_publish_failed",
			zap.String("event_id", event.ID.String()),
			zap.Error(err),
		)
	}
}
