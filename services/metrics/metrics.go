// Package metrics exposes Prometheus metrics for check-in evaluations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/mahudhurio/core/attendance"
)

const (
	MetricEvaluationsTotal   = "attendance_evaluations_total"
	MetricEvaluationDuration = "attendance_evaluation_duration_seconds"
	MetricDistanceMeters     = "attendance_distance_meters"
)

// Metrics records evaluation outcomes. All operations are thread-safe.
type Metrics struct {
	evaluations *prometheus.CounterVec
	duration    prometheus.Histogram
	distance    *prometheus.HistogramVec
}

var _ attendance.Observer = (*Metrics)(nil)

// NewMetrics creates the collectors; call Register to expose them.
func NewMetrics() *Metrics {
	return &Metrics{
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricEvaluationsTotal,
				Help: "Total number of check-in evaluations by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricEvaluationDuration,
				Help:    "Histogram of check-in evaluation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		distance: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricDistanceMeters,
				Help:    "Distance from the zone center of evaluated check-ins, in meters",
				Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000, 25000},
			},
			[]string{"outcome"},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveEvaluation(ev attendance.Evaluation, elapsed time.Duration) {
	m.evaluations.WithLabelValues(string(ev.Outcome)).Inc()
	m.duration.Observe(elapsed.Seconds())
	if ev.DistanceMeters != nil {
		m.distance.WithLabelValues(string(ev.Outcome)).Observe(*ev.DistanceMeters)
	}
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.evaluations,
		m.duration,
		m.distance,
	}
}
