// internal/metrics/metrics.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fraud_console",
		Subsystem: "flow",
		Name:      "evaluations_total",
		Help:      "Completed evaluation cycles by risk tier.",
	}, []string{"tier"})

	evaluationErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fraud_console",
		Subsystem: "flow",
		Name:      "evaluation_errors_total",
		Help:      "Failed evaluation cycles by taxonomy kind.",
	}, []string{"kind"})

	evaluationLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fraud_console",
		Subsystem: "flow",
		Name:      "evaluation_latency_seconds",
		Help:      "Round-trip latency of engine evaluation calls.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	dashboardRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fraud_console",
		Subsystem: "dashboard",
		Name:      "refreshes_total",
		Help:      "Dashboard summary refreshes by outcome.",
	}, []string{"outcome"}) // "success", "auth_required", "engine_error", "unreachable"
)

func init() {
	prometheus.MustRegister(
		evaluationsTotal,
		evaluationErrors,
		evaluationLatency,
		dashboardRefreshes,
	)
}

func ObserveEvaluation(tier string, seconds float64) {
	evaluationsTotal.WithLabelValues(tier).Inc()
	evaluationLatency.Observe(seconds)
}

func ObserveEvaluationError(kind string) {
	evaluationErrors.WithLabelValues(kind).Inc()
}

func ObserveDashboardRefresh(outcome string) {
	dashboardRefreshes.WithLabelValues(outcome).Inc()
}
