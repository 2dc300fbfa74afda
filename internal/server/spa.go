package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/nightcity/redsheet/internal/apperr"
)

// handleSPA serves the web client's build output. Unknown paths outside /api
// get index.html so client-side routes survive a reload.
func handleSPA(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, apperr.CodeNotFound, "no such endpoint")
			return
		}
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}
