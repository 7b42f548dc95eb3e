package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/alecgard/groupdesk/internal/requestid"
)

// HTTPRecorder is an optional interface for recording request metrics.
type HTTPRecorder interface {
	ObserveHTTPRequest(kind, method, pattern string, statusCode int, seconds float64, bytes int)
}

// corsMiddleware allows cross-origin GETs without credentials. With no
// configured origins it is a no-op.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestid.Header},
		ExposedHeaders: []string{requestid.Header},
		MaxAge:         86400,
	})
}

// secureHeaders adds security-related response headers.
func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "0")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// slogRequestLogger logs every request and, when rec is set, records it
// under its route pattern.
func slogRequestLogger(rec HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)

			pattern := routePattern(r)
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", pattern,
				"status", ww.Status(),
				"duration_ms", elapsed.Milliseconds(),
				"bytes", ww.BytesWritten(),
				"request_id", requestid.FromContext(r.Context()),
			)
			if rec != nil {
				rec.ObserveHTTPRequest(routeKind(pattern), r.Method, pattern, ww.Status(), elapsed.Seconds(), ww.BytesWritten())
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// routeKind buckets a route for metrics: the token and link pages anyone
// can reach, the signed-in UI, and operational endpoints.
func routeKind(pattern string) string {
	switch {
	case pattern == "/health", pattern == "/metrics", strings.HasPrefix(pattern, "/metrics/"), strings.HasPrefix(pattern, "/.well-known/"):
		return "ops"
	case strings.Contains(pattern, "{token}"), strings.HasSuffix(pattern, "/join"):
		return "public"
	default:
		return "ui"
	}
}
