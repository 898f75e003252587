package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSimulationMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockflow_runs_total",
			Help: "Total number of simulation runs by outcome",
		},
		[]string{"status"},
	)

	r.RoundsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "stockflow_rounds_total",
			Help: "Total number of simulation rounds computed",
		},
	)

	r.RoundDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockflow_round_duration_seconds",
			Help:    "Duration of a single simulation round in seconds",
			Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1},
		},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockflow_run_duration_seconds",
			Help:    "Duration of a whole simulation run in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 1.0, 10.0, 60.0},
		},
	)

	r.LevelValue = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockflow_level_value",
			Help: "Value of each level node after the last completed round",
		},
		[]string{"level"},
	)
}
