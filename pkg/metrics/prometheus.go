package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"TradeGuard/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	evaluations  *prometheus.CounterVec
	riskScore    *prometheus.HistogramVec
	checkErrors  *prometheus.CounterVec
	sourceErrors *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder on the given registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		evaluations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeguard_agent_evaluations_total",
				Help: "Agent evaluations by verdict",
			},
			[]string{"agent", "verdict"},
		),
		riskScore: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradeguard_agent_risk_score",
				Help:    "Distribution of agent risk scores",
				Buckets: []float64{0, 10, 20, 30, 45, 60, 80, 100},
			},
			[]string{"agent"},
		),
		checkErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeguard_check_errors_total",
				Help: "Checks that failed or panicked and were recorded as passed",
			},
			[]string{"agent", "check"},
		),
		sourceErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeguard_source_errors_total",
				Help: "Collaborator fetch failures",
			},
			[]string{"source"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradeguard_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAgentResult records one agent's verdict and score.
func (r *Recorder) RecordAgentResult(agent string, verdict models.Verdict, riskScore int) {
	r.evaluations.WithLabelValues(agent, string(verdict)).Inc()
	r.riskScore.WithLabelValues(agent).Observe(float64(riskScore))
}

// RecordCheckError records a check that errored or panicked.
func (r *Recorder) RecordCheckError(agent, check string) {
	r.checkErrors.WithLabelValues(agent, check).Inc()
}

// RecordSourceError records a failed collaborator call.
func (r *Recorder) RecordSourceError(source string) {
	r.sourceErrors.WithLabelValues(source).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
