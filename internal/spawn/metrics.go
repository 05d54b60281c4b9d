package spawn

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for dispatch metrics.
const (
	outcomeSpawned        = "spawned"
	outcomeInvalid        = "invalid"
	outcomeUnknownProfile = "unknown_profile"
	outcomeLaunchError    = "launch_error"
)

// Metrics exposes Prometheus collectors for dispatch activity.
type Metrics struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// MustNewMetrics registers the dispatch collectors with reg and panics on a
// registration conflict. Tests should pass a fresh prometheus.NewRegistry().
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	dispatches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "spawn",
			Name:      "dispatch_total",
			Help:      "Spawn requests handled, by executor and outcome.",
		},
		[]string{"executor", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "launchpad",
			Subsystem: "spawn",
			Name:      "dispatch_duration_seconds",
			Help:      "Time from request to started process or failure.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
	reg.MustRegister(dispatches, duration)
	return &Metrics{dispatches: dispatches, duration: duration}
}

func (m *Metrics) observe(executor, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(executor, outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(seconds)
}
