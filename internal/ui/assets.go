package ui

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
)

//go:embed static
var staticFiles embed.FS

// Static serves the stylesheet under {base}/static/. If GROUPDESK_DEV=1 is
// set, files are read from internal/ui/static on each request for live
// reloading. Otherwise it serves the embedded copy.
func (h *Handler) Static() http.Handler {
	if os.Getenv("GROUPDESK_DEV") == "1" {
		return h.devStatic()
	}
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return http.NotFoundHandler()
	}
	files := http.StripPrefix(h.path("/static/"), http.FileServer(http.FS(sub)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
}

func (h *Handler) devStatic() http.Handler {
	files := http.StripPrefix(h.path("/static/"), http.FileServer(http.Dir("internal/ui/static")))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	})
}
