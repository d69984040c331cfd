package middleware

import (
	"net/http"
	"os"
	"path/filepath"
)

const placeholderPage = `<!DOCTYPE html><html><head><title>Bar Tab</title></head><body><p>Bar Tab API is running. Operator UI assets are not installed; see /swagger/ for the API.</p></body></html>`

// StaticFileServer serves the operator UI from dir, falling back to index.html
// for unknown paths and to a placeholder page when no UI is installed.
func StaticFileServer(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))

		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			http.ServeFile(w, r, path)
			return
		}

		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err == nil {
			w.Header().Set("Cache-Control", "no-cache")
			http.ServeFile(w, r, index)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write([]byte(placeholderPage))
	})
}
