package middleware

import (
	"net/http"

	logpkg "github.com/benvon/levelup-ai/internal/logger"
	"github.com/benvon/levelup-ai/internal/request"
	"go.uber.org/zap"
)

// Audit logs security-related events: rejected identities, exhausted quotas and rate limits
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Wrap ResponseWriter to capture status code for audit logging
			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
				zap.String("request_id", request.RequestIDFromContext(r.Context())),
			}

			// Log security-relevant events
			switch wrapped.statusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				// Failed authentication/authorization attempts
				logger.Warn("security_event", append(fields, zap.Int("status_code", wrapped.statusCode))...)
			case http.StatusTooManyRequests:
				// Rate limit violations, including exhausted daily quotas
				logger.Warn("rate_limit_violation", fields...)
			}
		})
	}
}
