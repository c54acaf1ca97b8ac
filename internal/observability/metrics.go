package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexus",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nexus",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	scanResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexus",
			Subsystem: "scan",
			Name:      "results_total",
			Help:      "Scan resolutions by code family and outcome.",
		},
		[]string{"family", "outcome"},
	)
	renderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nexus",
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Symbol and label render duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"kind", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, scanResults, renderDuration)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordScan counts one scan resolution. outcome is "ok" or a machine error
// code such as "code_mismatch".
func RecordScan(family, outcome string) {
	RegisterMetrics()
	if family == "" {
		family = "unknown"
	}
	scanResults.WithLabelValues(family, outcome).Inc()
}

func RecordRender(kind string, duration time.Duration, success bool) {
	RegisterMetrics()
	renderDuration.WithLabelValues(kind, strconv.FormatBool(success)).Observe(duration.Seconds())
}
