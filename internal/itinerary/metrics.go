package itinerary

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records batch outcomes. A nil *Metrics records nothing.
type Metrics struct {
	files     *prometheus.CounterVec
	fallbacks prometheus.Counter
	conflicts *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics registers the batch metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		files: factory.NewCounterVec(
			prometheus.CounterOpts{Namespace: "trip_planner", Name: "files_analyzed_total", Help: "Analyzed files by final status."},
			[]string{"status"},
		),
		fallbacks: factory.NewCounter(
			prometheus.CounterOpts{Namespace: "trip_planner", Name: "legacy_fallbacks_total", Help: "Text files parsed by the legacy parser after the AI parser failed."},
		),
		conflicts: factory.NewCounterVec(
			prometheus.CounterOpts{Namespace: "trip_planner", Name: "date_conflicts_total", Help: "Date conflicts by decision."},
			[]string{"decision"}, // accepted|declined
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "trip_planner", Name: "batch_duration_seconds",
				Help:    "Batch processing duration seconds.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
	}
}

func (m *Metrics) observeFile(status FileStatus) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) observeFallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}

func (m *Metrics) observeConflict(accepted bool) {
	if m == nil {
		return
	}
	decision := "declined"
	if accepted {
		decision = "accepted"
	}
	m.conflicts.WithLabelValues(decision).Inc()
}

func (m *Metrics) observeBatch(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}
