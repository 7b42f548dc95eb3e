// Package server assembles the HTTP surface: operational endpoints plus the
// UI mounted under its base path.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/alecgard/groupdesk/internal/config"
	"github.com/alecgard/groupdesk/internal/metrics"
	"github.com/alecgard/groupdesk/internal/ratelimit"
	"github.com/alecgard/groupdesk/internal/requestid"
	"github.com/alecgard/groupdesk/internal/ui"
)

// RouterDeps holds all dependencies for the router.
type RouterDeps struct {
	Config  *config.Config
	UI      *ui.Handler
	Metrics *metrics.Metrics   // optional
	Limiter *ratelimit.Limiter // optional; nil disables public rate limiting
	Version string
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	var rec HTTPRecorder
	if deps.Metrics != nil {
		rec = deps.Metrics
	}

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(secureHeaders)
	r.Use(slogRequestLogger(rec))
	r.Use(corsMiddleware(deps.Config.CORS.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not allowed here")
	})

	// Operational JSON endpoints.
	r.Group(func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": deps.Version})
		})
		r.Get("/.well-known/groupdesk.json", wellKnownHandler(deps.Version, deps.Config.UI.BasePath,
			deps.Config.API.GroupsBaseURL, deps.Config.API.AuthBaseURL))

		if deps.Metrics != nil {
			r.Handle("/metrics", deps.Metrics.PrometheusHandler())
			r.Get("/metrics/summary", deps.Metrics.Handler())
		}
	})

	if deps.UI != nil {
		var public []func(http.Handler) http.Handler
		if deps.Limiter != nil {
			public = append(public, ratelimit.Middleware(deps.Limiter, func() {
				if deps.Metrics != nil {
					deps.Metrics.IncRateLimitRejection("public")
				}
			}))
		}

		base := deps.Config.UI.BasePath
		if base == "" || base == "/" {
			r.Group(func(r chi.Router) {
				ui.MountRoutes(r, deps.UI, public...)
			})
		} else {
			r.Route(base, func(r chi.Router) {
				ui.MountRoutes(r, deps.UI, public...)
			})
		}
	}

	return r
}
