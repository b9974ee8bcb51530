package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/levelup-ai/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 90 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIProvider implements Generator using OpenAI's chat completions API.
// Images are sent as data URLs and audio as input_audio parts.
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// Name implements Generator
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Generate implements Generator
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, media *models.InlineMedia) (string, error) {
	content, err := userContent(prompt, media)
	if err != nil {
		return "", err
	}
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(content)},
	}

	trail := startCall(ctx, p.logger, p.debugMode, p.Name(), p.model, prompt, media)
	resp, err := p.client.Chat.Completions.New(ctx, req)
	if err != nil {
		trail.failed(err)
		return "", wrapProviderError("openai generation failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	trail.done(text)
	if text == "" {
		if resp.Choices[0].Message.Refusal != "" {
			return "", fmt.Errorf("%w: %s", ErrBlocked, resp.Choices[0].Message.Refusal)
		}
		return "", ErrEmptyResponse
	}
	return text, nil
}

// userContent builds the multi-part user message for prompt and optional media
func userContent(prompt string, media *models.InlineMedia) ([]openai.ChatCompletionContentPartUnionParam, error) {
	parts := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(prompt)}
	if media == nil || len(media.Data) == 0 {
		return parts, nil
	}

	encoded := base64.StdEncoding.EncodeToString(media.Data)
	switch {
	case strings.HasPrefix(media.MIMEType, "image/"):
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: "data:" + media.MIMEType + ";base64," + encoded,
		}))
	case strings.HasPrefix(media.MIMEType, "audio/"):
		format, ok := openAIAudioFormat(media.MIMEType)
		if !ok {
			return nil, fmt.Errorf("openai does not accept audio type %s", media.MIMEType)
		}
		parts = append(parts, openai.InputAudioContentPart(openai.ChatCompletionContentPartInputAudioInputAudioParam{
			Data:   encoded,
			Format: format,
		}))
	default:
		return nil, fmt.Errorf("unsupported media type %s", media.MIMEType)
	}
	return parts, nil
}

// openAIAudioFormat maps a MIME type onto the input_audio formats the API accepts
func openAIAudioFormat(mimeType string) (string, bool) {
	switch strings.ToLower(mimeType) {
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return "wav", true
	case "audio/mpeg", "audio/mp3":
		return "mp3", true
	default:
		return "", false
	}
}

func mediaType(media *models.InlineMedia) string {
	if media == nil {
		return ""
	}
	return media.MIMEType
}

// RegisterOpenAI registers the OpenAI provider with the registry
func RegisterOpenAI(registry *ProviderRegistry) {
	registry.Register("openai", func(config ProviderConfig) (Generator, error) {
		if config.APIKey == "" {
			return nil, fmt.Errorf("openai api key is required")
		}
		return NewOpenAIProviderWithLogger(config.APIKey, config.BaseURL, config.Model, config.Logger, config.DebugMode), nil
	})
}
