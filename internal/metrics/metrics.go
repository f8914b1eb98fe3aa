// Package metrics exposes Prometheus instrumentation for optimizer runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes used as the "outcome" label.
const (
	OutcomeOK        = "ok"
	OutcomeInvalid   = "invalid"
	OutcomeOverflow  = "overflow"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

// LabelUnknown stands in for variant and objective names outside the
// registries.
const LabelUnknown = "unknown"

// Recorder holds the run metrics. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	runs       *prometheus.CounterVec
	iterations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	active     prometheus.Gauge
}

// New registers the run metrics with reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "descent",
			Name:      "runs_total",
			Help:      "Optimizer runs by variant, objective and outcome.",
		}, []string{"variant", "objective", "outcome"}),
		iterations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "descent",
			Name:      "iterations_total",
			Help:      "Updates applied by optimizer runs.",
		}, []string{"variant"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "descent",
			Name:      "run_duration_seconds",
			Help:      "Wall time of optimizer runs.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"variant"}),
		active: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "descent",
			Name:      "active_runs",
			Help:      "Optimizer runs currently executing.",
		}),
	}
}

// RunStarted marks the start of a run.
func (r *Recorder) RunStarted() {
	if r == nil {
		return
	}
	r.active.Inc()
}

// RunFinished records a completed run. iterations is the number of updates
// actually applied.
func (r *Recorder) RunFinished(variant, objective, outcome string, iterations int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.active.Dec()
	r.runs.WithLabelValues(variant, objective, outcome).Inc()
	r.iterations.WithLabelValues(variant).Add(float64(iterations))
	r.duration.WithLabelValues(variant).Observe(elapsed.Seconds())
}
