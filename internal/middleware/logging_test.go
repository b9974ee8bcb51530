package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
	}{
		{name: "GET request", method: "GET", path: "/api/usage", handlerStatus: http.StatusOK},
		{name: "POST request", method: "POST", path: "/api/ai/process", handlerStatus: http.StatusCreated},
		{name: "404 request", method: "GET", path: "/notfound", handlerStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.InfoLevel)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
				_, _ = w.Write([]byte("body"))
			})

			w := httptest.NewRecorder()
			Logging(zap.New(core))(handler).ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.handlerStatus {
				t.Errorf("Expected status %d, got %d", tt.handlerStatus, w.Code)
			}

			entries := logs.FilterMessage("http_request").All()
			if len(entries) != 1 {
				t.Fatalf("Expected 1 log entry, got %d", len(entries))
			}
			fields := entries[0].ContextMap()
			if fields["status_code"] != int64(tt.handlerStatus) {
				t.Errorf("Expected status_code %d, got %v", tt.handlerStatus, fields["status_code"])
			}
			if fields["path"] != tt.path {
				t.Errorf("Expected path %q, got %v", tt.path, fields["path"])
			}
			if fields["bytes"] != int64(4) {
				t.Errorf("Expected 4 bytes, got %v", fields["bytes"])
			}
		})
	}
}

func TestLogging_ImplicitStatus(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("test"))
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	Logging(zap.New(core))(handler).ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	fields := logs.All()[0].ContextMap()
	if fields["status_code"] != int64(http.StatusOK) {
		t.Errorf("Expected status_code 200 once the body was written, got %v", fields["status_code"])
	}
}

func TestAudit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status  int
		message string
	}{
		{http.StatusUnauthorized, "security_event"},
		{http.StatusForbidden, "security_event"},
		{http.StatusTooManyRequests, "rate_limit_violation"},
		{http.StatusOK, ""},
	}

	for _, tt := range tests {
		core, logs := observer.New(zap.InfoLevel)
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})

		req := httptest.NewRequest("POST", "/api/ai/process", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		Audit(zap.New(core))(handler).ServeHTTP(httptest.NewRecorder(), req)

		if tt.message == "" {
			if logs.Len() != 0 {
				t.Errorf("status %d: expected no audit log, got %d", tt.status, logs.Len())
			}
			continue
		}
		entries := logs.FilterMessage(tt.message).All()
		if len(entries) != 1 {
			t.Fatalf("status %d: expected 1 %s entry, got %d", tt.status, tt.message, len(entries))
		}
		if ip := entries[0].ContextMap()["ip"]; ip != "203.0.113.7" {
			t.Errorf("status %d: expected ip 203.0.113.7, got %v", tt.status, ip)
		}
	}
}
