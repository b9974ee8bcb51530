package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
)

const checkTimeout = 5 * time.Second

// CheckFunc probes one dependency
type CheckFunc func(ctx context.Context) error

// HealthChecker handles health check requests
type HealthChecker struct {
	checks  map[string]CheckFunc
	version string
}

// NewHealthChecker creates a new health checker. Nil checks are skipped.
func NewHealthChecker(version string, checks map[string]CheckFunc) *HealthChecker {
	active := make(map[string]CheckFunc, len(checks))
	for name, check := range checks {
		if check != nil {
			active[name] = check
		}
	}
	return &HealthChecker{checks: active, version: version}
}

// RegisterRoutes registers health and version routes on the root router
func (h *HealthChecker) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/health", h.Liveness).Methods("GET")
	r.HandleFunc("/version", h.Version).Methods("GET")
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. mode=extended probes every dependency.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if r.URL.Query().Get("mode") != "extended" {
		respondJSON(w, http.StatusOK, response)
		return
	}

	response.Checks = h.runChecks(r.Context())
	statusCode := http.StatusOK
	for _, result := range response.Checks {
		if result != "healthy" {
			response.Status = "unhealthy"
			statusCode = http.StatusServiceUnavailable
			break
		}
	}
	respondJSON(w, statusCode, response)
}

func (h *HealthChecker) runChecks(ctx context.Context) map[string]string {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := h.checks[name](checkCtx)
		cancel()
		if err != nil {
			results[name] = "unhealthy: " + sanitizeErrorMessage(err.Error())
			continue
		}
		results[name] = "healthy"
	}
	return results
}

// Liveness handles the /health endpoint
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Version handles the /version endpoint
func (h *HealthChecker) Version(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
