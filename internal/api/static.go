package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/weststar/helimx/pkg/logger"
)

// StaticFileHandler serves the dashboard front-end files
type StaticFileHandler struct {
	dir    string
	fs     http.Handler
	logger *logger.Logger
}

// NewStaticFileHandler creates a handler serving files from dir. Unknown
// paths fall back to index.html so client-side routing works.
func NewStaticFileHandler(dir string, log *logger.Logger) *StaticFileHandler {
	return &StaticFileHandler{
		dir:    dir,
		fs:     http.FileServer(http.Dir(dir)),
		logger: log.Named("static"),
	}
}

// ServeHTTP implements http.Handler
func (h *StaticFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.dir == "" {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.dir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		h.fs.ServeHTTP(w, r)
		return
	}

	// SPA fallback for non-asset paths
	if !strings.Contains(filepath.Base(r.URL.Path), ".") {
		index := filepath.Join(h.dir, "index.html")
		if _, err := os.Stat(index); err == nil {
			http.ServeFile(w, r, index)
			return
		}
	}

	http.NotFound(w, r)
}
