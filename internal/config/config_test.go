package config

import (
	"testing"
	"time"
)

// Tests use t.Setenv, which forbids t.Parallel.

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "PORT", "STORE_BACKEND", "AUTH_PROVIDER", "AI_PROVIDER", "AI_MODEL",
		"DAILY_QUOTA", "DEFAULT_LANGUAGE", "MAX_UPLOAD_BYTES", "CORS_ALLOWED_ORIGINS", "FRONTEND_URL", "REQUEST_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.ServerPort != "5000" {
		t.Errorf("Expected default ServerPort '5000', got '%s'", cfg.ServerPort)
	}
	if cfg.StoreBackend != StoreMemory {
		t.Errorf("Expected default StoreBackend %q, got %q", StoreMemory, cfg.StoreBackend)
	}
	if cfg.DailyQuota != 50 {
		t.Errorf("Expected default DailyQuota 50, got %d", cfg.DailyQuota)
	}
	if cfg.DefaultLanguage != "French" {
		t.Errorf("Expected default DefaultLanguage 'French', got '%s'", cfg.DefaultLanguage)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Errorf("Expected default MaxUploadBytes %d, got %d", 10<<20, cfg.MaxUploadBytes)
	}
	if cfg.AIModel != "gemini-2.5-flash" {
		t.Errorf("Expected default AIModel 'gemini-2.5-flash', got '%s'", cfg.AIModel)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("Expected default CORSOrigins [*], got %v", cfg.CORSOrigins)
	}
	if cfg.RequestTimeout != 120*time.Second {
		t.Errorf("Expected default RequestTimeout 120s, got %v", cfg.RequestTimeout)
	}
}

func TestFromEnv_Validation(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		expectError bool
	}{
		{
			name:        "redis backend without url",
			envVars:     map[string]string{"STORE_BACKEND": "redis", "REDIS_URL": ""},
			expectError: true,
		},
		{
			name:        "redis backend with url",
			envVars:     map[string]string{"STORE_BACKEND": "redis", "REDIS_URL": "redis://localhost:6379/0"},
			expectError: false,
		},
		{
			name:        "postgres backend without url",
			envVars:     map[string]string{"STORE_BACKEND": "postgres", "DATABASE_URL": ""},
			expectError: true,
		},
		{
			name:        "unknown backend",
			envVars:     map[string]string{"STORE_BACKEND": "etcd"},
			expectError: true,
		},
		{
			name:        "firebase without project",
			envVars:     map[string]string{"AUTH_PROVIDER": "firebase", "FIREBASE_PROJECT_ID": ""},
			expectError: true,
		},
		{
			name:        "oidc without jwks url",
			envVars:     map[string]string{"AUTH_PROVIDER": "oidc", "OIDC_ISSUER": "https://issuer", "OIDC_JWKS_URL": ""},
			expectError: true,
		},
		{
			name:        "zero quota",
			envVars:     map[string]string{"DAILY_QUOTA": "0"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORE_BACKEND", "")
			t.Setenv("AUTH_PROVIDER", "")
			t.Setenv("DAILY_QUOTA", "")
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			_, err := FromEnv()
			if tt.expectError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestFromEnv_FrontendURLNarrowsCORS(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("FRONTEND_URL", "https://app.example.com")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("AUTH_PROVIDER", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://app.example.com" {
		t.Errorf("Expected CORSOrigins [https://app.example.com], got %v", cfg.CORSOrigins)
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("TEST_LIST", " a.com , ,b.com")

	got := getEnvList("TEST_LIST", nil)
	if len(got) != 2 || got[0] != "a.com" || got[1] != "b.com" {
		t.Errorf("Expected [a.com b.com], got %v", got)
	}
	if got := getEnvList("TEST_LIST_UNSET", []string{"*"}); len(got) != 1 || got[0] != "*" {
		t.Errorf("Expected default [*], got %v", got)
	}
}

func TestGenerationAPIKey(t *testing.T) {
	cfg := &Config{AIProvider: "openai", OpenAIKey: "sk-1", GeminiAPIKey: "g-1"}
	if got := cfg.GenerationAPIKey(); got != "sk-1" {
		t.Errorf("Expected 'sk-1', got '%s'", got)
	}
	cfg.AIProvider = "gemini"
	if got := cfg.GenerationAPIKey(); got != "g-1" {
		t.Errorf("Expected 'g-1', got '%s'", got)
	}
}
