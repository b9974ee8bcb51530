package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/benvon/levelup-ai/internal/services/identity"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	verifier identity.TokenVerifier
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler. A nil verifier puts the endpoint in
// development mode where every call succeeds.
func NewAuthHandler(verifier identity.TokenVerifier, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{verifier: verifier, logger: logger}
}

// RegisterRoutes registers auth routes on the given router
// The router should already have the /api/auth prefix
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/verify", h.Verify).Methods("POST")
}

// VerifyRequest is the body of POST /api/auth/verify
type VerifyRequest struct {
	IDToken string `json:"idToken"`
}

// VerifyResponse reports the verified caller, or the development-mode notice
type VerifyResponse struct {
	Success bool   `json:"success"`
	UID     string `json:"uid,omitempty"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
}

// Verify checks an id-token and returns its uid
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if h.verifier == nil {
		respondJSON(w, http.StatusOK, VerifyResponse{
			Success: true,
			Message: "Development mode: token verification is not configured",
		})
		return
	}

	id, err := h.verifier.Verify(r.Context(), req.IDToken)
	if err != nil {
		// a verifier that cannot reach its keys says nothing about the token
		if !identity.IsInvalidToken(err) {
			h.logger.Error("token_verifier_unavailable",
				zap.String("verifier", h.verifier.Name()),
				zap.Error(err),
			)
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Token verification is temporarily unavailable")
			return
		}
		h.logger.Warn("token_verification_failed",
			zap.String("verifier", h.verifier.Name()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Invalid token")
		return
	}

	h.logger.Debug("token_verified",
		zap.String("verifier", h.verifier.Name()),
		zap.String("issuer", id.Issuer),
		zap.String("audience", id.Audience),
		zap.Time("expires_at", id.ExpiresAt),
	)
	respondJSON(w, http.StatusOK, VerifyResponse{Success: true, UID: id.UserID, Email: id.Email, Name: id.Name})
}
