package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bradfortner/convergence-queue/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	QueueDepth       prometheus.Gauge
	RequestsTotal    prometheus.Counter
	RequestsRejected *prometheus.CounterVec
	PlaysTotal       *prometheus.CounterVec
	PlaybackFailures prometheus.Counter
	PlaybackSeconds  prometheus.Histogram
	StoreRetries     prometheus.Counter
	EngineState      *prometheus.GaugeVec
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "paid_queue_depth",
			Help: "Current number of pending paid requests.",
		}),

		RequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "song_requests_total",
			Help: "Total number of accepted song requests.",
		}),

		RequestsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "song_requests_rejected_total",
			Help: "Total number of rejected song requests.",
		}, []string{"reason"}),

		PlaysTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "songs_played_total",
			Help: "Total number of songs played, by source.",
		}, []string{"source"}),

		PlaybackFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "playback_failures_total",
			Help: "Total number of playback attempts that failed.",
		}),

		PlaybackSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "playback_duration_seconds",
			Help:    "Wall-clock playback time per song.",
			Buckets: []float64{30, 60, 120, 180, 240, 300, 420, 600},
		}),

		StoreRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_store_retries_total",
			Help: "Total number of retried queue store operations.",
		}),

		EngineState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "engine_state",
			Help: "1 for the engine's current state, 0 for the others.",
		}, []string{"state"}),
	}

	reg.MustRegister(
		m.QueueDepth,
		m.RequestsTotal,
		m.RequestsRejected,
		m.PlaysTotal,
		m.PlaybackFailures,
		m.PlaybackSeconds,
		m.StoreRetries,
		m.EngineState,
	)

	return m
}

// QueueNotifier returns a presentation hook that keeps the depth gauge
// aligned with every successful queue write.
func (m *Metrics) QueueNotifier() func(domain.Snapshot) {
	return func(s domain.Snapshot) {
		m.QueueDepth.Set(float64(len(s)))
	}
}

// SetEngineState flips the engine state gauge so exactly the named state
// reads 1.
func (m *Metrics) SetEngineState(state string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1.0
		}
		m.EngineState.WithLabelValues(s).Set(v)
	}
}
