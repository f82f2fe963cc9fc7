package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. It implements usecase.MetricsRecorder.
type Metrics struct {
	registry *prometheus.Registry

	// Ledger operations
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Ledger state
	Accounts prometheus.Gauge

	// Persistence
	PersistenceFailures prometheus.Counter
}

// New creates all metrics on a private registry, so each process (or test)
// starts from zero.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_operations_total",
				Help: "Total ledger operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bankledger_operation_duration_seconds",
				Help:    "Duration of ledger operations, including persistence",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		Accounts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bankledger_accounts",
			Help: "Current number of accounts",
		}),

		PersistenceFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_persistence_failures_total",
			Help: "Total snapshot saves that failed after retries",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveOperation records one ledger operation.
func (m *Metrics) ObserveOperation(operation, outcome string, duration time.Duration) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetAccounts sets the account gauge.
func (m *Metrics) SetAccounts(count int) {
	m.Accounts.Set(float64(count))
}

// PersistenceFailed counts a failed save.
func (m *Metrics) PersistenceFailed() {
	m.PersistenceFailures.Inc()
}

// WriteTextfile writes the current values in the text exposition format,
// for collection by a node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
