package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metric collectors for groupdesk.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Upstream (groups and auth service) metrics.
	UpstreamRequestsTotal *prometheus.CounterVec
	UpstreamDuration      *prometheus.HistogramVec
	UpstreamErrorsTotal   *prometheus.CounterVec

	// Session and auth metrics.
	SessionLookupsTotal        *prometheus.CounterVec
	UnauthorizedRedirectsTotal prometheus.Counter

	// UI mutations.
	UIActionsTotal *prometheus.CounterVec

	RateLimitRejectionsTotal *prometheus.CounterVec

	// Server lifecycle.
	ServerStartTime prometheus.Gauge
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "groupdesk_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"kind", "method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "groupdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind", "method", "path_pattern"}),

		HTTPResponseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "groupdesk_http_response_size_bytes",
			Help:    "HTTP response size in bytes.",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}, []string{"kind", "method", "path_pattern"}),

		UpstreamRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "groupdesk_upstream_requests_total",
			Help: "Total number of requests made to the backend services.",
		}, []string{"service", "route", "method", "status_code"}),

		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "groupdesk_upstream_duration_seconds",
			Help:    "Backend request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "route"}),

		UpstreamErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "groupdesk_upstream_errors_total",
			Help: "Total number of backend requests that got no response, by error type.",
		}, []string{"error_type", "service"}),

		SessionLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "groupdesk_session_lookups_total",
			Help: "Total number of session lookups by outcome.",
		}, []string{"outcome"}),

		UnauthorizedRedirectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "groupdesk_unauthorized_redirects_total",
			Help: "Total number of 401 responses turned into login redirects.",
		}),

		UIActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "groupdesk_ui_actions_total",
			Help: "Total number of mutating UI actions by outcome.",
		}, []string{"action", "outcome"}),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "groupdesk_ratelimit_rejections_total",
			Help: "Total number of rate limit rejections.",
		}, []string{"scope"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "groupdesk_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.UpstreamRequestsTotal,
		m.UpstreamDuration,
		m.UpstreamErrorsTotal,
		m.SessionLookupsTotal,
		m.UnauthorizedRedirectsTotal,
		m.UIActionsTotal,
		m.RateLimitRejectionsTotal,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	// Register Go runtime and process collectors.
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// PrometheusHandler serves the registry in the Prometheus text format.
func (m *Metrics) PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterLimiterCollector registers a gauge of clients tracked by the rate limiter.
func (m *Metrics) RegisterLimiterCollector(statFunc LimiterStatFunc) {
	m.registry.MustRegister(NewLimiterCollector(statFunc))
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(kind, method, pattern string, statusCode int, seconds float64, bytes int) {
	m.HTTPRequestsTotal.WithLabelValues(kind, method, pattern, fmt.Sprintf("%d", statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(kind, method, pattern).Observe(seconds)
	m.HTTPResponseSize.WithLabelValues(kind, method, pattern).Observe(float64(bytes))
}

// IncUpstreamRequests increments the backend request counter. A status of 0
// means no response was received.
func (m *Metrics) IncUpstreamRequests(service, route, method string, statusCode int) {
	m.UpstreamRequestsTotal.WithLabelValues(service, route, method, fmt.Sprintf("%d", statusCode)).Inc()
}

// ObserveUpstreamDuration records the backend request duration.
func (m *Metrics) ObserveUpstreamDuration(service, route string, seconds float64) {
	m.UpstreamDuration.WithLabelValues(service, route).Observe(seconds)
}

// IncUpstreamError increments the upstream error counter with error type classification.
func (m *Metrics) IncUpstreamError(errorType, service string) {
	m.UpstreamErrorsTotal.WithLabelValues(errorType, service).Inc()
}

// IncUnauthorizedRedirect counts a 401 turned into a login redirect.
func (m *Metrics) IncUnauthorizedRedirect() {
	m.UnauthorizedRedirectsTotal.Inc()
}

// RecordSessionLookup counts a session lookup by outcome
// ("authenticated", "anonymous" or "error").
func (m *Metrics) RecordSessionLookup(outcome string) {
	m.SessionLookupsTotal.WithLabelValues(outcome).Inc()
}

// IncUIAction counts a mutating UI action.
func (m *Metrics) IncUIAction(action, outcome string) {
	m.UIActionsTotal.WithLabelValues(action, outcome).Inc()
}

// IncRateLimitRejection increments the rate limit rejection counter.
func (m *Metrics) IncRateLimitRejection(scope string) {
	m.RateLimitRejectionsTotal.WithLabelValues(scope).Inc()
}
