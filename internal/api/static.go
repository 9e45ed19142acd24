package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yegors/flightboard/pkg/logger"
)

// StaticFileHandler serves the board frontend. Unknown paths without an
// extension fall back to index.html so client-side routes like /LSZH work.
type StaticFileHandler struct {
	staticDir string
	logger    *logger.Logger
}

// NewStaticFileHandler creates a new static file handler
func NewStaticFileHandler(staticDir string, logger *logger.Logger) *StaticFileHandler {
	return &StaticFileHandler{
		staticDir: staticDir,
		logger:    logger.Named("static-handler"),
	}
}

// ServeHTTP serves a file from the static directory
func (h *StaticFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// path.Clean on a rooted path never climbs above the root
	rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if rel == "" {
		rel = "index.html"
	}

	fullPath := filepath.Join(h.staticDir, filepath.FromSlash(rel))

	info, err := os.Stat(fullPath)
	switch {
	case err == nil && info.IsDir():
		fullPath = filepath.Join(fullPath, "index.html")
		if _, err := os.Stat(fullPath); err != nil {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	case os.IsNotExist(err):
		if filepath.Ext(rel) != "" {
			h.logger.Debug("File not found", logger.String("path", fullPath))
			http.NotFound(w, r)
			return
		}
		fullPath = filepath.Join(h.staticDir, "index.html")
		if _, err := os.Stat(fullPath); err != nil {
			http.NotFound(w, r)
			return
		}
	case err != nil:
		h.logger.Error("Failed to stat file", logger.Error(err), logger.String("path", fullPath))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// HTML is never cached
	if strings.HasSuffix(fullPath, ".html") {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=300")
	}

	http.ServeFile(w, r, fullPath)
}
