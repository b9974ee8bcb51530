package middleware

import (
	"net/http"
	"strings"

	"github.com/benvon/levelup-ai/internal/request"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// CORS handles CORS headers and OPTIONS preflight requests. A "*" entry allows every origin.
func CORS(allowedOrigins []string, logger *zap.Logger) func(http.Handler) http.Handler {
	origins := make([]string, 0, len(allowedOrigins))
	allowAll := false

	// Trim origins and drop empty entries
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			allowAll = true
		}
		origins = append(origins, trimmed)
	}
	// No configured origins means the API is open
	if len(origins) == 0 {
		allowAll = true
	}

	// Log once at startup so misconfigured origins are visible
	if logger != nil {
		logger.Info("cors_configured",
			zap.Strings("allowed_origins", origins),
			zap.Bool("allow_all", allowAll),
		)
	}

	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", request.UserIDHeader, request.RequestIDHeader},
		ExposedHeaders: []string{request.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         86400,
	}
	// Credentials cannot be combined with a wildcard origin
	if allowAll {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowedOrigins = origins
		opts.AllowCredentials = true
	}

	// rs/cors answers OPTIONS preflight requests itself
	return cors.New(opts).Handler
}
