package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
)

func TestOpenAPIHandler(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "openapi.yaml")
	doc := "openapi: 3.0.3\ninfo:\n  title: test\n  version: \"1\"\npaths: {}\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("Failed to write document: %v", err)
	}

	h, err := NewOpenAPIHandler(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/openapi.yaml", nil))
	if w.Body.String() != doc {
		t.Errorf("Expected YAML document unchanged, got %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))
	var parsed map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("Failed to decode JSON document: %v", err)
	}
	if parsed["openapi"] != "3.0.3" {
		t.Errorf("Expected openapi '3.0.3', got %v", parsed["openapi"])
	}
}

func TestOpenAPIHandler_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewOpenAPIHandler(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("openapi: [unclosed"), 0o600); err != nil {
		t.Fatalf("Failed to write document: %v", err)
	}
	if _, err := NewOpenAPIHandler(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}
