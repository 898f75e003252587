package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes used for the status label of stockflow_runs_total
const (
	StatusSuccess   = "success"
	StatusInvalid   = "invalid"
	StatusCancelled = "cancelled"
)

// RecordModel records the node counts of a freshly built model and how long
// building it took
func (r *Registry) RecordModel(nodesByKind map[string]int, loadTime time.Duration) {
	r.ModelNodes.Reset()
	for kind, n := range nodesByKind {
		r.ModelNodes.WithLabelValues(kind).Set(float64(n))
	}
	if loadTime > 0 {
		r.ModelLoadDuration.Observe(loadTime.Seconds())
	}
}

// RecordValidationFailure counts a failed validation under its reason
func (r *Registry) RecordValidationFailure(reason string) {
	r.ValidationFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordRound records one computed round
func (r *Registry) RecordRound(duration time.Duration) {
	r.RoundsTotal.Inc()
	r.RoundDuration.Observe(duration.Seconds())
}

// RecordRun records the outcome of a whole run
func (r *Registry) RecordRun(status string, duration time.Duration) {
	r.RunsTotal.WithLabelValues(status).Inc()
	if status == StatusSuccess {
		r.RunDuration.Observe(duration.Seconds())
	}
}

// SetLevelValues publishes the current value of every level, keyed by label
func (r *Registry) SetLevelValues(values map[string]float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.LevelValue.Reset()
	for level, v := range values {
		r.LevelValue.WithLabelValues(level).Set(v)
	}
}

// UpdateSystemMetrics samples goroutine count and heap usage
func (r *Registry) UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}

// WriteTextfile writes every metric in Prometheus text format to path, for
// collection by the node exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
