package middleware

import (
	"net/http"
	"strings"
)

const (
	// DefaultMaxRequestSize is the default maximum request body size (1MB)
	DefaultMaxRequestSize int64 = 1 << 20
	// multipartOverhead covers form fields and boundaries around an upload
	multipartOverhead int64 = 1 << 20
)

// MaxRequestSize limits request bodies. Multipart uploads may carry up to maxUpload
// bytes of file data; every other body is held to maxBytes.
func MaxRequestSize(maxBytes, maxUpload int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}
	if maxUpload <= 0 {
		maxUpload = maxBytes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := maxBytes
			if isMultipart(r) {
				limit = maxUpload + multipartOverhead
			}

			if r.ContentLength > limit {
				writeJSONError(w, r, http.StatusRequestEntityTooLarge, "Payload Too Large", "Request body exceeds the allowed size")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			defer r.Body.Close()

			next.ServeHTTP(w, r)
		})
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}
