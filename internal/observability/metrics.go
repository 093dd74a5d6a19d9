package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	validationRunsTotal      *prometheus.CounterVec
	validationLatencySeconds prometheus.Histogram
	submissionsTotal         *prometheus.CounterVec
	decisionsTotal           *prometheus.CounterVec
	queueDepth               *prometheus.GaugeVec
)

// RegisterMetrics initialises the Prometheus collectors for the pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		validationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_validation_runs_total",
			Help: "Total automated validation passes, by content type and outcome.",
		}, []string{"content_type", "outcome"})

		validationLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "content_validation_latency_seconds",
			Help:    "Latency distribution of automated validation passes.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "content_submissions_total",
			Help: "Total submission lifecycle transitions, by target status.",
		}, []string{"status"})

		decisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moderation_decisions_total",
			Help: "Total moderation decisions recorded, by verdict.",
		}, []string{"decision"})

		queueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "moderation_queue_depth",
			Help: "Open moderation tickets, by priority.",
		}, []string{"priority"})

		prometheus.MustRegister(validationRunsTotal, validationLatencySeconds, submissionsTotal, decisionsTotal, queueDepth)
	})
}

// ValidationRuns exposes the validation pass counter.
func ValidationRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return validationRunsTotal
}

// ValidationLatency exposes the validation latency histogram.
func ValidationLatency() prometheus.Histogram {
	RegisterMetrics()
	return validationLatencySeconds
}

// Submissions exposes the lifecycle transition counter.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// Decisions exposes the moderation decision counter.
func Decisions() *prometheus.CounterVec {
	RegisterMetrics()
	return decisionsTotal
}

// QueueDepth exposes the open ticket gauge.
func QueueDepth() *prometheus.GaugeVec {
	RegisterMetrics()
	return queueDepth
}
