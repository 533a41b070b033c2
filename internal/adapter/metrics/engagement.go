package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngagementMetrics tracks vote and comment mutations applied by the counter engine.
type EngagementMetrics struct {
	VotesApplied    *prometheus.CounterVec
	CommentsApplied *prometheus.CounterVec
	Failures        *prometheus.CounterVec
	UnitDuration    *prometheus.HistogramVec
}

// NewEngagementMetrics creates and registers engagement metrics on the given registry.
func NewEngagementMetrics(reg prometheus.Registerer) *EngagementMetrics {
	m := &EngagementMetrics{
		VotesApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engagement",
			Name:      "votes_applied_total",
			Help:      "Total number of committed vote transitions, by action and vote type.",
		}, []string{"action", "type"}),
		CommentsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engagement",
			Name:      "comments_applied_total",
			Help:      "Total number of committed comment mutations, by action.",
		}, []string{"action"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engagement",
			Name:      "failures_total",
			Help:      "Total number of rolled back engagement units, by operation.",
		}, []string{"operation"}),
		UnitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engagement",
			Name:      "unit_duration_seconds",
			Help:      "Duration of engagement transactions in seconds, by operation.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"operation"}),
	}

	reg.MustRegister(m.VotesApplied, m.CommentsApplied, m.Failures, m.UnitDuration)
	return m
}
