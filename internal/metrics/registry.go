package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every Prometheus metric the decision engine exposes.
type Registry struct {
	reg *prometheus.Registry

	// Decision outcomes
	DecisionsTotal    *prometheus.CounterVec
	ValidatorBlocks   *prometheus.CounterVec
	ParlayRejections  prometheus.Counter

	// Replay cache
	CacheHits             prometheus.Counter
	CacheMisses           prometheus.Counter
	CachePutFailures      prometheus.Counter
	DeterminismDriftTotal prometheus.Counter

	// Pipeline performance
	StepDuration *prometheus.HistogramVec
}

// NewRegistry creates and registers the engine metric set on a private
// Prometheus registry.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddslock_decisions_total",
				Help: "Total decisions produced by classification and release status",
			},
			[]string{"classification", "release_status"},
		),

		ValidatorBlocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oddslock_validator_blocks_total",
				Help: "Total decisions blocked by integrity certification, by market type",
			},
			[]string{"market_type"},
		),

		ParlayRejections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "oddslock_parlay_rejections_total",
				Help: "Total parlay eligibility rejections",
			},
		),

		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "oddslock_replay_cache_hits_total",
				Help: "Total replay cache hits",
			},
		),

		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "oddslock_replay_cache_misses_total",
				Help: "Total replay cache misses",
			},
		),

		CachePutFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "oddslock_replay_cache_put_failures_total",
				Help: "Total replay cache writes that soft-failed",
			},
		),

		DeterminismDriftTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "oddslock_determinism_drift_total",
				Help: "Total rebuilds whose payload differed from the cached replay record",
			},
		),

		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oddslock_step_duration_seconds",
				Help:    "Duration of each pipeline step in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"step"},
		),
	}

	r.reg.MustRegister(
		r.DecisionsTotal, r.ValidatorBlocks, r.ParlayRejections,
		r.CacheHits, r.CacheMisses, r.CachePutFailures,
		r.DeterminismDriftTotal, r.StepDuration,
	)
	return r
}

// Prometheus exposes the underlying registry for the /metrics handler
// and for tests that gather metric families.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.reg
}
