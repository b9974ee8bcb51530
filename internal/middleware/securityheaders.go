package middleware

import (
	"net/http"
)

const (
	apiCSP      = "default-src 'none'"
	frontendCSP = "default-src 'self'; script-src 'self' https://www.gstatic.com; style-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data: blob:; media-src 'self' blob:; connect-src 'self' https://*.googleapis.com; frame-ancestors 'none'"
)

// SecurityHeaders sets security headers on all responses. serveFrontend relaxes the
// CSP and allows the microphone so the bundled web client can record audio.
func SecurityHeaders(enableHSTS, serveFrontend bool) func(http.Handler) http.Handler {
	csp := apiCSP
	permissions := "camera=(), microphone=(), geolocation=()"
	if serveFrontend {
		csp = frontendCSP
		permissions = "camera=(self), microphone=(self), geolocation=()"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// X-Content-Type-Options: Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// X-Frame-Options: Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			// Referrer-Policy: Control referrer information sharing
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// Permissions-Policy: Only the web client may use the microphone
			w.Header().Set("Permissions-Policy", permissions)

			// Content-Security-Policy: restrictive for the API, relaxed for the bundled client
			w.Header().Set("Content-Security-Policy", csp)

			// HSTS only over TLS so local development keeps working
			if enableHSTS && r.TLS != nil {
				// 1 year max-age with includeSubDomains and preload
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			}

			next.ServeHTTP(w, r)
		})
	}
}
