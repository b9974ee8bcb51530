package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func TestStaticHandler(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>home</html>"), 0o600); err != nil {
		t.Fatalf("Failed to write index: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}

	h := NewStaticHandler(dir)
	if h == nil {
		t.Fatal("Expected handler for existing directory")
	}
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/", http.StatusOK, "home"},
		{"/app.js", http.StatusOK, "console.log"},
		{"/settings", http.StatusOK, "home"},
		{"/api/unknown", http.StatusNotFound, "Unknown API route"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if w.Code != tt.wantStatus {
			t.Errorf("%s: expected status %d, got %d", tt.path, tt.wantStatus, w.Code)
		}
		if !strings.Contains(w.Body.String(), tt.wantBody) {
			t.Errorf("%s: expected body to contain %q, got %q", tt.path, tt.wantBody, w.Body.String())
		}
	}
}

func TestNewStaticHandler_Disabled(t *testing.T) {
	t.Parallel()

	if NewStaticHandler("") != nil {
		t.Error("Expected nil handler for empty dir")
	}
	if NewStaticHandler(filepath.Join(t.TempDir(), "missing")) != nil {
		t.Error("Expected nil handler for missing dir")
	}
}
