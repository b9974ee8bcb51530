package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/levelup-ai/internal/models"
)

const maxErrorMessageLength = 200

// respondJSON sends body as the JSON response
func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage removes internal details from error messages
func sanitizeErrorMessage(message string) string {
	runes := []rune(message)
	if len(runes) > maxErrorMessageLength {
		return string(runes[:maxErrorMessageLength]) + "..."
	}
	return message
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// errorStatus maps a domain error to its HTTP status and error label
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, models.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "Daily limit reached"
	case errors.Is(err, models.ErrInvalidMode):
		return http.StatusBadRequest, "Invalid mode"
	case errors.Is(err, models.ErrMissingPayload):
		return http.StatusBadRequest, "Bad Request"
	case errors.Is(err, models.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "Payload Too Large"
	case errors.Is(err, models.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType, "Unsupported Media Type"
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return http.StatusInternalServerError, "Generation failed"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// respondError writes the response for a domain error. limit feeds the quota message.
func respondError(w http.ResponseWriter, err error, limit int) {
	status, label := errorStatus(err)
	message := err.Error()
	switch status {
	case http.StatusUnauthorized:
		message = "User ID is required"
	case http.StatusTooManyRequests:
		message = fmt.Sprintf("You have reached the limit of %d requests per day. Try again tomorrow.", limit)
	case http.StatusInternalServerError:
		if !errors.Is(err, models.ErrUpstreamUnavailable) {
			message = "An unexpected error occurred"
		}
	}
	respondJSONError(w, status, label, message)
}
