package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Auth providers for the id-token verify endpoint
const (
	AuthNone     = "none"
	AuthFirebase = "firebase"
	AuthOIDC     = "oidc"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	ServerDebugMode bool
	WorkerDebugMode bool
	FrontendURL     string
	CORSOrigins     []string
	EnableHSTS      bool
	StaticDir       string

	AIProvider   string
	AIModel      string
	AIBaseURL    string
	GeminiAPIKey string
	OpenAIKey    string

	StoreBackend     string
	RedisURL         string
	DatabaseURL      string
	RabbitMQURL      string
	RabbitMQPrefetch int

	DailyQuota          int
	DefaultLanguage     string
	MaxUploadBytes      int64
	RateLimit           string
	RequestTimeout      time.Duration
	PromptTemplatesFile string

	AuthProvider        string
	FirebaseProjectID   string
	FirebaseCredentials string
	OIDCIssuer          string
	OIDCJWKSURL         string

	OTELEnabled  bool
	OTELEndpoint string
}

// Load reads configuration from the environment, after loading .env when present
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from the current environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", getEnv("PORT", "5000")),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode: getEnvBool("WORKER_DEBUG_MODE", false),
		FrontendURL:     getEnv("FRONTEND_URL", ""),
		CORSOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
		StaticDir:       getEnv("STATIC_DIR", ""),

		AIProvider:   strings.ToLower(getEnv("AI_PROVIDER", "gemini")),
		AIModel:      getEnv("AI_MODEL", ""),
		AIBaseURL:    getEnv("AI_BASE_URL", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		OpenAIKey:    getEnv("OPENAI_API_KEY", ""),

		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		RedisURL:         getEnv("REDIS_URL", ""),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 10),

		DailyQuota:          getEnvInt("DAILY_QUOTA", 50),
		DefaultLanguage:     getEnv("DEFAULT_LANGUAGE", "French"),
		MaxUploadBytes:      int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		RateLimit:           getEnv("RATE_LIMIT", "20-S"),
		RequestTimeout:      getEnvDuration("REQUEST_TIMEOUT", 120*time.Second),
		PromptTemplatesFile: getEnv("PROMPT_TEMPLATES_FILE", ""),

		AuthProvider:        strings.ToLower(getEnv("AUTH_PROVIDER", AuthNone)),
		FirebaseProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
		OIDCIssuer:          getEnv("OIDC_ISSUER", ""),
		OIDCJWKSURL:         getEnv("OIDC_JWKS_URL", ""),

		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.FrontendURL != "" && os.Getenv("CORS_ALLOWED_ORIGINS") == "" {
		cfg.CORSOrigins = []string{cfg.FrontendURL}
	}

	if cfg.AIModel == "" {
		cfg.AIModel = defaultModel(cfg.AIProvider)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GenerationAPIKey returns the API key for the configured provider
func (c *Config) GenerationAPIKey() string {
	if c.AIProvider == "openai" {
		return c.OpenAIKey
	}
	return c.GeminiAPIKey
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_BACKEND=redis")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q (must be memory, redis or postgres)", c.StoreBackend)
	}

	switch c.AuthProvider {
	case AuthNone:
	case AuthFirebase:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when AUTH_PROVIDER=firebase")
		}
	case AuthOIDC:
		if c.OIDCIssuer == "" || c.OIDCJWKSURL == "" {
			return fmt.Errorf("OIDC_ISSUER and OIDC_JWKS_URL are required when AUTH_PROVIDER=oidc")
		}
	default:
		return fmt.Errorf("unsupported AUTH_PROVIDER %q (must be none, firebase or oidc)", c.AuthProvider)
	}

	if c.DailyQuota <= 0 {
		return fmt.Errorf("DAILY_QUOTA must be positive, got %d", c.DailyQuota)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

func defaultModel(provider string) string {
	if provider == "openai" {
		return "gpt-4o-mini"
	}
	return "gemini-2.5-flash"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
