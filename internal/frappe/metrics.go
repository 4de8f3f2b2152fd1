// Prometheus metrics for outbound backend requests.
package frappe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts backend requests.
	// Labels: method (GET, POST, ...), status (2xx, 4xx, 5xx, error)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "erpd",
			Subsystem: "frappe",
			Name:      "requests_total",
			Help:      "Total number of backend HTTP requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration tracks backend request latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "erpd",
			Subsystem: "frappe",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// recordRequest records one backend request outcome. A zero status means the
// request never produced an HTTP response.
func recordRequest(method string, status int, d time.Duration) {
	RequestsTotal.WithLabelValues(method, statusClass(status)).Inc()
	RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func statusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
