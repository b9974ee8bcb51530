package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/levelup-ai/internal/models"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is the default Gemini model
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements Generator on the Gemini API. Media is sent inline as a blob.
type GeminiProvider struct {
	client    *genai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewGeminiProvider creates a Gemini client. The client holds a connection and must be closed.
func NewGeminiProvider(ctx context.Context, config ProviderConfig) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	opts := []option.ClientOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(config.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiProvider{
		client:    client,
		model:     model,
		logger:    config.Logger,
		debugMode: config.DebugMode,
	}, nil
}

// Name implements Generator
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Close releases the underlying client
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// Generate implements Generator
func (p *GeminiProvider) Generate(ctx context.Context, prompt string, media *models.InlineMedia) (string, error) {
	parts := []genai.Part{genai.Text(prompt)}
	if media != nil && len(media.Data) > 0 {
		parts = append(parts, genai.Blob{MIMEType: media.MIMEType, Data: media.Data})
	}

	trail := startCall(ctx, p.logger, p.debugMode, p.Name(), p.model, prompt, media)
	resp, err := p.client.GenerativeModel(p.model).GenerateContent(ctx, parts...)
	if err != nil {
		trail.failed(err)
		return "", wrapProviderError("gemini generation failed", err)
	}

	text, err := responseText(resp)
	trail.done(text)
	return text, err
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("%w: %s", ErrBlocked, resp.PromptFeedback.BlockReason.String())
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
			return "", ErrBlocked
		}
		return "", ErrEmptyResponse
	}
	return text, nil
}

// RegisterGemini registers the Gemini provider with the registry
func RegisterGemini(registry *ProviderRegistry) {
	registry.Register("gemini", func(config ProviderConfig) (Generator, error) {
		return NewGeminiProvider(context.Background(), config)
	})
}
