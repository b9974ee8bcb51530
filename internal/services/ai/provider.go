package ai

import (
	"context"
	"sort"

	"github.com/benvon/levelup-ai/internal/models"
	"go.uber.org/zap"
)

// Generator is implemented by generation providers
type Generator interface {
	// Generate sends prompt, plus media when non-nil, and returns the generated text
	Generate(ctx context.Context, prompt string, media *models.InlineMedia) (string, error)

	// Name identifies the provider in logs and health output
	Name() string
}

// ProviderConfig carries the settings a provider factory needs
type ProviderConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Logger    *zap.Logger
	DebugMode bool
}

// ProviderFactory creates a generator from config
type ProviderFactory func(config ProviderConfig) (Generator, error)

// ProviderRegistry stores available generation providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// DefaultRegistry returns a registry with every built-in provider registered
func DefaultRegistry() *ProviderRegistry {
	r := NewProviderRegistry()
	RegisterGemini(r)
	RegisterOpenAI(r)
	return r
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config ProviderConfig) (Generator, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	g, err := factory(config)
	if err != nil {
		return nil, err
	}
	if config.Logger != nil {
		config.Logger.Info("generator_configured",
			zap.String("provider", name),
			zap.String("model", config.Model),
			zap.String("api_key", redactKey(config.APIKey)),
		)
	}
	return g, nil
}

// Names returns the registered provider names in sorted order
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
