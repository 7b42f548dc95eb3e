package metrics

import "github.com/prometheus/client_golang/prometheus"

// LimiterStatFunc returns the number of clients the rate limiter is tracking
// without importing the ratelimit package.
type LimiterStatFunc func() int

// limiterCollector implements prometheus.Collector for rate limiter state.
type limiterCollector struct {
	statFunc LimiterStatFunc

	trackedDesc *prometheus.Desc
}

// NewLimiterCollector creates a collector that exposes the tracked-client gauge.
func NewLimiterCollector(statFunc LimiterStatFunc) prometheus.Collector {
	return &limiterCollector{
		statFunc: statFunc,
		trackedDesc: prometheus.NewDesc(
			"groupdesk_ratelimit_tracked_clients",
			"Number of client addresses currently tracked by the public rate limiter.",
			nil, nil,
		),
	}
}

// Describe sends the descriptors of each metric to the channel.
func (c *limiterCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.trackedDesc
}

// Collect reads the current count and sends it as a gauge.
func (c *limiterCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.trackedDesc, prometheus.GaugeValue, float64(c.statFunc()))
}
