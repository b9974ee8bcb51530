package handlers

import (
	"context"
	"net/http"

	"github.com/benvon/levelup-ai/internal/models"
	"github.com/benvon/levelup-ai/internal/request"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// UsageReader reports today's quota snapshot
type UsageReader interface {
	Usage(ctx context.Context, userID string) (models.Usage, error)
}

// UsageHandler handles GET /api/usage
type UsageHandler struct {
	usage  UsageReader
	logger *zap.Logger
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(usage UsageReader, logger *zap.Logger) *UsageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsageHandler{usage: usage, logger: logger}
}

// RegisterRoutes registers the usage route on the /api router
func (h *UsageHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/usage", h.GetUsage).Methods("GET")
}

// GetUsage returns {usage, limit, remaining} for the x-user-id caller
func (h *UsageHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	userID := request.ResolveUserID(r, "")
	if userID == "" {
		respondError(w, models.ErrUnauthenticated, 0)
		return
	}

	usage, err := h.usage.Usage(r.Context(), userID)
	if err != nil {
		h.logger.Error("usage_read_failed", zap.Error(err))
		respondError(w, err, 0)
		return
	}

	respondJSON(w, http.StatusOK, usage)
}
