package middleware

import (
	"mime"
	"net/http"
	"slices"
)

// BodyType rejects write requests whose Content-Type the route cannot read.
// Every route takes JSON; the paths in uploadPaths take multipart/form-data instead.
func BodyType(uploadPaths ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
			default:
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Content-Type")
			if header == "" {
				writeJSONError(w, r, http.StatusBadRequest, "Bad Request", "Content-Type header is required")
				return
			}
			mediaType, _, err := mime.ParseMediaType(header)
			if err != nil {
				writeJSONError(w, r, http.StatusBadRequest, "Bad Request", "Content-Type header is malformed")
				return
			}

			want := "application/json"
			if slices.Contains(uploadPaths, r.URL.Path) {
				want = "multipart/form-data"
			}
			if mediaType != want {
				writeJSONError(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type", "Content-Type must be "+want)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
