package metrics

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// Summary is the JSON response for the metrics endpoint.
type Summary struct {
	Mode      string          `json:"mode"`
	UI        httpSummary     `json:"ui"`
	Public    httpSummary     `json:"public"`
	Upstream  upstreamSummary `json:"upstream"`
	Session   sessionInfo     `json:"session"`
	Actions   actionInfo      `json:"actions"`
	RateLimit rateLimitInfo   `json:"rateLimit"`
	Server    serverInfo      `json:"server"`
}

type httpSummary struct {
	TotalRequests float64 `json:"totalRequests"`
	ErrorRate     float64 `json:"errorRate"`
	P50Latency    float64 `json:"p50Latency"`
	P95Latency    float64 `json:"p95Latency"`
	P99Latency    float64 `json:"p99Latency"`
}

type upstreamSummary struct {
	Groups      backendSummary `json:"groups"`
	Auth        backendSummary `json:"auth"`
	Errors      float64        `json:"errors"`
	LoginRedirs float64        `json:"loginRedirects"`
}

type backendSummary struct {
	TotalRequests float64 `json:"totalRequests"`
	ErrorRate     float64 `json:"errorRate"`
	P50Latency    float64 `json:"p50Latency"`
	P95Latency    float64 `json:"p95Latency"`
}

type sessionInfo struct {
	Authenticated float64 `json:"authenticated"`
	Anonymous     float64 `json:"anonymous"`
	Errors        float64 `json:"errors"`
}

type actionInfo struct {
	Succeeded float64 `json:"succeeded"`
	Failed    float64 `json:"failed"`
}

type rateLimitInfo struct {
	Rejections     float64 `json:"rejections"`
	TrackedClients float64 `json:"trackedClients"`
}

type serverInfo struct {
	StartTime     float64 `json:"startTime"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// Handler returns an http.HandlerFunc that serves live metrics in JSON format.
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.handleLive(w)
	}
}

func (m *Metrics) handleLive(w http.ResponseWriter) {
	families, err := m.registry.Gather()
	if err != nil {
		http.Error(w, "failed to gather metrics", http.StatusInternalServerError)
		return
	}

	fam := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		fam[f.GetName()] = f
	}

	summary := Summary{
		Mode:   "live",
		UI:     httpKind(fam, "ui"),
		Public: httpKind(fam, "public"),
		Upstream: upstreamSummary{
			Groups:      backend(fam, "groups"),
			Auth:        backend(fam, "auth"),
			Errors:      sumCounter(fam["groupdesk_upstream_errors_total"]),
			LoginRedirs: sumCounter(fam["groupdesk_unauthorized_redirects_total"]),
		},
		Session: sessionInfo{
			Authenticated: sumCounterWithLabel(fam["groupdesk_session_lookups_total"], "outcome", "authenticated"),
			Anonymous:     sumCounterWithLabel(fam["groupdesk_session_lookups_total"], "outcome", "anonymous"),
			Errors:        sumCounterWithLabel(fam["groupdesk_session_lookups_total"], "outcome", "error"),
		},
		Actions: actionInfo{
			Succeeded: sumCounterWithLabel(fam["groupdesk_ui_actions_total"], "outcome", "success"),
			Failed:    sumCounterWithLabel(fam["groupdesk_ui_actions_total"], "outcome", "error"),
		},
		RateLimit: rateLimitInfo{
			Rejections:     sumCounter(fam["groupdesk_ratelimit_rejections_total"]),
			TrackedClients: gaugeValue(fam["groupdesk_ratelimit_tracked_clients"]),
		},
		Server: serverInfo{
			StartTime:     gaugeValue(fam["groupdesk_server_start_time_seconds"]),
			UptimeSeconds: float64(time.Now().Unix()) - gaugeValue(fam["groupdesk_server_start_time_seconds"]),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	_ = json.NewEncoder(w).Encode(summary)
}

func httpKind(fam map[string]*dto.MetricFamily, kind string) httpSummary {
	return httpSummary{
		TotalRequests: sumCounterWithLabel(fam["groupdesk_http_requests_total"], "kind", kind),
		ErrorRate:     computeErrorRateWithLabel(fam["groupdesk_http_requests_total"], "kind", kind),
		P50Latency:    histogramPercentileWithLabel(fam["groupdesk_http_request_duration_seconds"], 0.50, "kind", kind),
		P95Latency:    histogramPercentileWithLabel(fam["groupdesk_http_request_duration_seconds"], 0.95, "kind", kind),
		P99Latency:    histogramPercentileWithLabel(fam["groupdesk_http_request_duration_seconds"], 0.99, "kind", kind),
	}
}

func backend(fam map[string]*dto.MetricFamily, service string) backendSummary {
	return backendSummary{
		TotalRequests: sumCounterWithLabel(fam["groupdesk_upstream_requests_total"], "service", service),
		ErrorRate:     computeErrorRateWithLabel(fam["groupdesk_upstream_requests_total"], "service", service),
		P50Latency:    histogramPercentileWithLabel(fam["groupdesk_upstream_duration_seconds"], 0.50, "service", service),
		P95Latency:    histogramPercentileWithLabel(fam["groupdesk_upstream_duration_seconds"], 0.95, "service", service),
	}
}

// --- Prometheus metric helpers ---

func sumCounter(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if m.GetCounter() != nil {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func gaugeValue(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	ms := f.GetMetric()
	if len(ms) == 0 {
		return 0
	}
	if ms[0].GetGauge() != nil {
		return ms[0].GetGauge().GetValue()
	}
	return 0
}

// isErrorStatus treats 4xx, 5xx and "0" (no response) as errors.
func isErrorStatus(code string) bool {
	return code == "0" || (len(code) > 0 && code[0] >= '4')
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

func sumCounterWithLabel(f *dto.MetricFamily, labelName, labelValue string) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if hasLabel(m, labelName, labelValue) && m.GetCounter() != nil {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func computeErrorRateWithLabel(f *dto.MetricFamily, labelName, labelValue string) float64 {
	if f == nil {
		return 0
	}
	var total, errors float64
	for _, m := range f.GetMetric() {
		if !hasLabel(m, labelName, labelValue) || m.GetCounter() == nil {
			continue
		}
		v := m.GetCounter().GetValue()
		total += v
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "status_code" && isErrorStatus(lp.GetValue()) {
				errors += v
			}
		}
	}
	if total == 0 {
		return 0
	}
	return errors / total
}

func histogramPercentileWithLabel(f *dto.MetricFamily, q float64, labelName, labelValue string) float64 {
	if f == nil {
		return 0
	}

	type bucket struct {
		upperBound      float64
		cumulativeCount uint64
	}
	var totalCount uint64
	bucketMap := make(map[float64]uint64)

	for _, m := range f.GetMetric() {
		if !hasLabel(m, labelName, labelValue) {
			continue
		}
		h := m.GetHistogram()
		if h == nil {
			continue
		}
		totalCount += h.GetSampleCount()
		for _, b := range h.GetBucket() {
			bucketMap[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}

	if totalCount == 0 {
		return 0
	}

	buckets := make([]bucket, 0, len(bucketMap))
	for ub, count := range bucketMap {
		buckets = append(buckets, bucket{upperBound: ub, cumulativeCount: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].upperBound < buckets[j].upperBound
	})

	rank := q * float64(totalCount)

	var prevBound float64
	var prevCount uint64
	for _, b := range buckets {
		if math.IsInf(b.upperBound, 1) {
			break
		}
		if float64(b.cumulativeCount) >= rank {
			bucketCount := b.cumulativeCount - prevCount
			if bucketCount == 0 {
				return b.upperBound
			}
			fraction := (rank - float64(prevCount)) / float64(bucketCount)
			return prevBound + fraction*(b.upperBound-prevBound)
		}
		prevBound = b.upperBound
		prevCount = b.cumulativeCount
	}

	if len(buckets) > 0 {
		for i := len(buckets) - 1; i >= 0; i-- {
			if !math.IsInf(buckets[i].upperBound, 1) {
				return buckets[i].upperBound
			}
		}
	}
	return 0
}
