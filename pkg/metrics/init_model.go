package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initModelMetrics() {
	r.ModelNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockflow_model_nodes",
			Help: "Number of nodes in the last loaded model by kind",
		},
		[]string{"kind"},
	)

	r.ValidationFailuresTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockflow_validation_failures_total",
			Help: "Total number of failed model validations by reason",
		},
		[]string{"reason"},
	)

	r.ModelLoadDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockflow_model_load_duration_seconds",
			Help:    "Time spent reading and building a model file in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0},
		},
	)
}
