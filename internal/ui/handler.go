package ui

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alecgard/groupdesk/internal/client"
	"github.com/alecgard/groupdesk/internal/crypto"

	gomponents "maragu.dev/gomponents"
)

// MetricsRecorder is an optional interface for recording UI activity.
type MetricsRecorder interface {
	IncUIAction(action, outcome string)
	RecordSessionLookup(outcome string)
}

// Options configures a Handler.
type Options struct {
	Client         *client.Client
	Sealer         *crypto.Sealer
	BasePath       string   // "/" or a prefix such as "/app"
	PublicURL      string   // absolute origin used for login referrers; derived from the request when empty
	ForwardCookies []string // browser cookies passed through to the backend
	Production     bool
}

// Handler serves the server-rendered pages. Every request gets its own
// session manager and credentials; the Handler itself holds no per-user state.
type Handler struct {
	client         *client.Client
	sealer         *crypto.Sealer
	base           string
	publicURL      string
	forwardCookies []string
	production     bool
	metrics        MetricsRecorder
	now            func() time.Time
}

func NewHandler(opts Options) *Handler {
	return &Handler{
		client:         opts.Client,
		sealer:         opts.Sealer,
		base:           strings.TrimRight(opts.BasePath, "/"),
		publicURL:      strings.TrimRight(opts.PublicURL, "/"),
		forwardCookies: opts.ForwardCookies,
		production:     opts.Production,
		now:            time.Now,
	}
}

// SetMetrics configures an optional metrics recorder.
func (h *Handler) SetMetrics(m MetricsRecorder) {
	h.metrics = m
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := node.Render(w); err != nil {
		slog.Error("rendering page", "error", err)
	}
}

// path prefixes p with the UI base path.
func (h *Handler) path(p string) string {
	if p == "" || p == "/" {
		return h.base + "/"
	}
	return h.base + p
}

// seg escapes a backend id for use as one path segment.
func seg(id string) string {
	return url.PathEscape(id)
}

func (h *Handler) cookiePath() string {
	return h.path("/")
}

// absoluteURL turns a request path into the absolute URL the auth service
// should send the browser back to.
func (h *Handler) absoluteURL(r *http.Request, requestURI string) string {
	if h.publicURL != "" {
		return h.publicURL + requestURI
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host + requestURI
}

// returnPath is the page a login should come back to. For GET it is the
// page itself; for form posts it is the page the form was on.
func (h *Handler) returnPath(r *http.Request) string {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return r.URL.RequestURI()
	}
	if back := h.localReferer(r); back != "" {
		return back
	}
	return h.path("/")
}

// localReferer returns the Referer's path when it points inside the UI.
func (h *Handler) localReferer(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return ""
	}
	u, err := parseLocal(ref)
	if err != nil {
		return ""
	}
	if u.Path != h.base && !strings.HasPrefix(u.Path, h.path("/")) {
		return ""
	}
	return u.RequestURI()
}

func (h *Handler) record(action, outcome string) {
	if h.metrics != nil {
		h.metrics.IncUIAction(action, outcome)
	}
}
