package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benvon/levelup-ai/internal/request"
	"go.uber.org/zap"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		serveFrontend bool
		wantCSP       string
		wantMic       string
	}{
		{name: "api only", serveFrontend: false, wantCSP: "default-src 'none'", wantMic: "microphone=()"},
		{name: "with frontend", serveFrontend: true, wantCSP: "default-src 'self'", wantMic: "microphone=(self)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			SecurityHeaders(true, tt.serveFrontend)(okHandler).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

			if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
				t.Errorf("Expected nosniff, got %q", got)
			}
			if got := w.Header().Get("Content-Security-Policy"); !strings.HasPrefix(got, tt.wantCSP) {
				t.Errorf("Expected CSP starting with %q, got %q", tt.wantCSP, got)
			}
			if got := w.Header().Get("Permissions-Policy"); !strings.Contains(got, tt.wantMic) {
				t.Errorf("Expected Permissions-Policy with %q, got %q", tt.wantMic, got)
			}
			if got := w.Header().Get("Strict-Transport-Security"); got != "" {
				t.Errorf("Expected no HSTS without TLS, got %q", got)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		wantHeader string
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "https://app.example.com", wantHeader: "*"},
		{name: "empty list allows all", allowed: nil, origin: "https://app.example.com", wantHeader: "*"},
		{name: "listed origin", allowed: []string{"https://app.example.com"}, origin: "https://app.example.com", wantHeader: "https://app.example.com"},
		{name: "unlisted origin", allowed: []string{"https://app.example.com"}, origin: "https://evil.example.com", wantHeader: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("GET", "/api/usage", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			CORS(tt.allowed, zap.NewNop())(okHandler).ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantHeader {
				t.Errorf("Expected Access-Control-Allow-Origin %q, got %q", tt.wantHeader, got)
			}
		})
	}
}

func TestCORS_PreflightAllowsUserHeader(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodOptions, "/api/usage", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "x-user-id")
	w := httptest.NewRecorder()
	CORS([]string{"*"}, nil)(okHandler).ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if got := strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")); !strings.Contains(got, "x-user-id") {
		t.Errorf("Expected x-user-id in allowed headers, got %q", got)
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generated", incoming: "", keep: false},
		{name: "kept", incoming: "req-abc-123", keep: true},
		{name: "replaced when malformed", incoming: "bad id\n", keep: false},
		{name: "replaced when too long", incoming: strings.Repeat("a", maxRequestIDLength+1), keep: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = request.RequestIDFromContext(r.Context())
			})

			req := httptest.NewRequest("GET", "/", nil)
			if tt.incoming != "" {
				req.Header.Set(request.RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			RequestID(handler).ServeHTTP(w, req)

			if seen == "" {
				t.Fatal("Expected request id in context")
			}
			if got := w.Header().Get(request.RequestIDHeader); got != seen {
				t.Errorf("Expected header %q to match context %q", got, seen)
			}
			if tt.keep && seen != tt.incoming {
				t.Errorf("Expected incoming id %q to be kept, got %q", tt.incoming, seen)
			}
			if !tt.keep && seen == tt.incoming {
				t.Errorf("Expected incoming id %q to be replaced", tt.incoming)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	t.Parallel()

	readAll := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		contentType string
		size        int
		wantStatus  int
	}{
		{name: "small json", contentType: "application/json", size: 10, wantStatus: http.StatusOK},
		{name: "large json", contentType: "application/json", size: 101, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "upload within limit", contentType: "multipart/form-data; boundary=x", size: 500, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("POST", "/", bytes.NewReader(make([]byte, tt.size)))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			MaxRequestSize(100, 1000)(readAll).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestBodyType(t *testing.T) {
	t.Parallel()

	const upload = "/api/ai/process-audio"
	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		wantStatus  int
	}{
		{name: "json", method: "POST", path: "/api/ai/process", contentType: "application/json; charset=utf-8", wantStatus: http.StatusOK},
		{name: "json case insensitive", method: "POST", path: "/api/ai/process", contentType: "Application/JSON", wantStatus: http.StatusOK},
		{name: "multipart on upload route", method: "POST", path: upload, contentType: "multipart/form-data; boundary=abc", wantStatus: http.StatusOK},
		{name: "multipart on json route", method: "POST", path: "/api/ai/process", contentType: "multipart/form-data; boundary=abc", wantStatus: http.StatusUnsupportedMediaType},
		{name: "json on upload route", method: "POST", path: upload, contentType: "application/json", wantStatus: http.StatusUnsupportedMediaType},
		{name: "missing", method: "POST", path: "/api/ai/process", wantStatus: http.StatusBadRequest},
		{name: "malformed", method: "POST", path: "/api/ai/process", contentType: "application/json; =", wantStatus: http.StatusBadRequest},
		{name: "form encoded", method: "PUT", path: "/api/settings/update", contentType: "application/x-www-form-urlencoded", wantStatus: http.StatusUnsupportedMediaType},
		{name: "get ignored", method: "GET", path: "/api/usage", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			BodyType(upload)(okHandler).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusOK)
		}
	})

	w := httptest.NewRecorder()
	Timeout(20*time.Millisecond)(slow).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Request Timeout") {
		t.Errorf("Expected timeout body, got %q", w.Body.String())
	}

	// uploads get twice the budget, so a 70ms handler completes under a 50ms timeout
	medium := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(70 * time.Millisecond):
			w.WriteHeader(http.StatusOK)
		}
	})
	req := httptest.NewRequest("POST", "/api/ai/process-audio", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w = httptest.NewRecorder()
	Timeout(50*time.Millisecond)(medium).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected upload to finish within the longer budget, got %d", w.Code)
	}
}

func TestRateLimit_Memory(t *testing.T) {
	t.Parallel()

	mw, err := RateLimit("2-M", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	handler := mw(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/usage", nil)
		req.Header.Set("X-Real-IP", "198.51.100.4")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("Expected first two requests allowed, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected third request limited, got %d", codes[2])
	}

	// other clients have their own bucket
	req := httptest.NewRequest("GET", "/api/usage", nil)
	req.Header.Set("X-Real-IP", "198.51.100.5")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected other client allowed, got %d", w.Code)
	}
}

func TestRateLimit_InvalidRate(t *testing.T) {
	t.Parallel()

	if _, err := RateLimit("lots", nil); err == nil {
		t.Error("Expected error for malformed rate")
	}
}
