package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	scores      *prometheus.HistogramVec
	lastScore   *prometheus.GaugeVec
	fitFailures *prometheus.CounterVec
	degraded    *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder registered on reg, or on the default registry when reg is nil.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		scores: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shopscore_product_score",
				Help:    "Distribution of overall product scores",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
			[]string{"platform"},
		),
		lastScore: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shopscore_last_score",
				Help: "Last overall score computed for a platform",
			},
			[]string{"platform"},
		),
		fitFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopscore_forecast_fit_failures_total",
				Help: "Per-platform forecast fits that were dropped",
			},
			[]string{"metric", "platform"},
		),
		degraded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopscore_degraded_estimates_total",
				Help: "Estimates that fell back to a documented default",
			},
			[]string{"kind"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopscore_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shopscore_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordScore records an overall score for a platform.
func (r *Recorder) RecordScore(platform string, score float64) {
	r.scores.WithLabelValues(platform).Observe(score)
	r.lastScore.WithLabelValues(platform).Set(score)
}

// RecordFitFailure records a dropped forecast fit.
func (r *Recorder) RecordFitFailure(metric, platform string) {
	r.fitFailures.WithLabelValues(metric, platform).Inc()
}

// RecordDegraded records a fallback to a default estimate.
func (r *Recorder) RecordDegraded(kind string) {
	r.degraded.WithLabelValues(kind).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
