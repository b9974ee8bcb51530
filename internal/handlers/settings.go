package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/benvon/levelup-ai/internal/models"
	"github.com/benvon/levelup-ai/internal/request"
	"github.com/benvon/levelup-ai/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// PreferenceService reads and merges user preferences
type PreferenceService interface {
	Get(ctx context.Context, userID string) (*models.Preferences, error)
	Update(ctx context.Context, userID string, update models.PreferencesUpdate) (*models.Preferences, error)
}

// SettingsHandler handles the /api/settings endpoints
type SettingsHandler struct {
	prefs  PreferenceService
	logger *zap.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(prefs PreferenceService, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{prefs: prefs, logger: logger}
}

// RegisterRoutes registers settings routes on the given router
// The router should already have the /api/settings prefix
func (h *SettingsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/update", h.UpdateSettings).Methods("POST")
	r.HandleFunc("/get", h.GetSettings).Methods("GET")
}

// UpdateSettingsRequest is the body of POST /api/settings/update
type UpdateSettingsRequest struct {
	UserID          string `json:"userId" validate:"max=128"`
	Name            string `json:"name" validate:"max=200"`
	Email           string `json:"email" validate:"max=320"`
	DefaultLanguage string `json:"defaultLanguage" validate:"max=64"`
}

// SettingsResponse carries the stored preferences
type SettingsResponse struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message,omitempty"`
	Preferences *models.Preferences `json:"preferences"`
}

// UpdateSettings merges the provided fields into the caller's preferences
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	userID := request.ResolveUserID(r, req.UserID)
	if userID == "" {
		respondError(w, models.ErrUnauthenticated, 0)
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation Error", validation.FieldErrors(err))
		return
	}

	prefs, err := h.prefs.Update(r.Context(), userID, models.PreferencesUpdate{
		Name:            validation.SanitizeText(req.Name),
		Email:           req.Email,
		DefaultLanguage: validation.SanitizeText(req.DefaultLanguage),
	})
	if err != nil {
		h.logger.Error("preferences_update_failed", zap.Error(err))
		respondError(w, err, 0)
		return
	}

	respondJSON(w, http.StatusOK, SettingsResponse{
		Success:     true,
		Message:     "Settings updated",
		Preferences: prefs,
	})
}

// GetSettings returns the caller's preferences, identified by the x-user-id header
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID := request.ResolveUserID(r, "")
	if userID == "" {
		respondError(w, models.ErrUnauthenticated, 0)
		return
	}

	prefs, err := h.prefs.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("preferences_read_failed", zap.Error(err))
		respondError(w, err, 0)
		return
	}

	respondJSON(w, http.StatusOK, SettingsResponse{Success: true, Preferences: prefs})
}
