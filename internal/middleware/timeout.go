package middleware

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds JSON requests
const DefaultRequestTimeout = 120 * time.Second

const timeoutBody = `{"success":false,"error":"Request Timeout","message":"The request took too long to complete"}`

// Timeout cancels the handler context after d, or after twice d for multipart
// uploads, and answers 503 with a JSON body. Audio uploads make two upstream
// calls back to back, hence the longer budget.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		d = DefaultRequestTimeout
	}
	return func(next http.Handler) http.Handler {
		plain := http.TimeoutHandler(next, d, timeoutBody)
		upload := http.TimeoutHandler(next, 2*d, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isMultipart(r) {
				upload.ServeHTTP(w, r)
				return
			}
			plain.ServeHTTP(w, r)
		})
	}
}
