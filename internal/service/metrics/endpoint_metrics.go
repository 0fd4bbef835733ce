package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shopscore",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of scoring API endpoints",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopscore",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by scoring API endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopscore",
			Subsystem: "api",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)
)

// Register adds the endpoint collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors, RateLimited)
	})
}

// Observe records one call to endpoint.
func Observe(endpoint string, start time.Time, status int) {
	EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if status >= 400 {
		EndpointErrors.WithLabelValues(endpoint, statusClass(status)).Inc()
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status == 429:
		return "429"
	default:
		return "4xx"
	}
}
