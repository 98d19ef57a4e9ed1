package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sink exposes ledger operation outcomes as Prometheus series. Recording
// never returns an error and never blocks the operation being measured.
type Sink struct {
	outcomes *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewSink registers the ledger collectors on the given registerer. Passing
// nil uses the default registry.
func NewSink(reg prometheus.Registerer) *Sink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Sink{
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger operations by outcome.",
		}, []string{"operation", "outcome"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operation_failures_total",
			Help: "Ledger operation failures by classified reason.",
		}, []string{"operation", "reason"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Ledger operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// RecordSuccess counts a completed operation.
func (s *Sink) RecordSuccess(operation string) {
	s.outcomes.WithLabelValues(operation, "success").Inc()
}

// RecordFailure counts a failed operation. The reason must be a stable
// classification, not raw error text.
func (s *Sink) RecordFailure(operation, reason string) {
	s.outcomes.WithLabelValues(operation, "failure").Inc()
	s.failures.WithLabelValues(operation, reason).Inc()
}

// ObserveDuration records how long an operation took.
func (s *Sink) ObserveDuration(operation string, seconds float64) {
	s.duration.WithLabelValues(operation).Observe(seconds)
}
