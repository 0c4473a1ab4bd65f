package repertoire

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// --- Prometheus Metrics Definition ---

// Metrics contains the Prometheus metrics of a System.
type Metrics struct {
	// --- Tier 1: Service Health ---
	ErrorsTotal *prometheus.CounterVec

	// --- Tier 2: Strategy Throughput & Latency ---
	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec
	TransactablesOut  *prometheus.HistogramVec

	// --- Tier 3: Options Resolution ---
	OptionsRequests *prometheus.CounterVec
}

// NewMetrics creates and registers the System metrics on reg.
func NewMetrics(reg prometheus.Registerer, systemName string) *Metrics {
	return &Metrics{
		// --- Tier 1 Metrics ---
		ErrorsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Subsystem: systemName,
			Name:      "repertoire_errors_total",
			Help:      "Total number of failed requests, labeled by error kind.",
		}, []string{"kind"}),

		// --- Tier 2 Metrics ---
		ExecutionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Subsystem: systemName,
			Name:      "repertoire_strategy_executions_total",
			Help:      "Strategy compositions, labeled by strategy id and outcome.",
		}, []string{"strategy", "outcome"}),

		ExecutionDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: systemName,
			Name:      "repertoire_strategy_execution_duration_seconds",
			Help:      "Time spent composing a strategy, chain reads included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"strategy"}),

		TransactablesOut: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: systemName,
			Name:      "repertoire_strategy_transactables",
			Help:      "Number of transactables produced per successful composition.",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 12, 16},
		}, []string{"strategy"}),

		// --- Tier 3 Metrics ---
		OptionsRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Subsystem: systemName,
			Name:      "repertoire_options_requests_total",
			Help:      "Options resolutions, labeled by strategy id, tier (base or refined) and outcome.",
		}, []string{"strategy", "tier", "outcome"}),
	}
}
