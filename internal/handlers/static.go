package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
)

// StaticHandler serves the browser frontend from a directory
type StaticHandler struct {
	root  string
	files http.Handler
}

// NewStaticHandler returns nil when dir is empty or not a directory
func NewStaticHandler(dir string) *StaticHandler {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil
	}
	return &StaticHandler{root: dir, files: http.FileServer(http.Dir(dir))}
}

// RegisterRoutes mounts the frontend as the router's catch-all
func (h *StaticHandler) RegisterRoutes(r *mux.Router) {
	r.PathPrefix("/").Handler(h).Methods("GET", "HEAD")
}

// ServeHTTP serves files and falls back to index.html for unknown non-API paths
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Unknown API route")
		return
	}
	if r.URL.Path != "/" && filepath.Ext(r.URL.Path) == "" {
		if _, err := os.Stat(filepath.Join(h.root, filepath.FromSlash(filepath.Clean(r.URL.Path)))); err != nil {
			http.ServeFile(w, r, filepath.Join(h.root, "index.html"))
			return
		}
	}
	h.files.ServeHTTP(w, r)
}
