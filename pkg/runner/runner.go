// Package runner drives multi-round simulations of a model, recording the
// trajectory of every Level, Rate and Auxiliary node together with metrics
// and logs for the run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-stockflow/pkg/export"
	"github.com/dd0wney/cluso-stockflow/pkg/logging"
	"github.com/dd0wney/cluso-stockflow/pkg/metrics"
	"github.com/dd0wney/cluso-stockflow/pkg/model"
)

// Runner executes simulation runs with a fixed configuration
type Runner struct {
	cfg     Config
	logger  logging.Logger
	metrics *metrics.Registry
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger sets the run logger
func WithLogger(logger logging.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the registry runs are recorded in
func WithMetrics(registry *metrics.Registry) Option {
	return func(r *Runner) {
		if registry != nil {
			r.metrics = registry
		}
	}
}

// New creates a runner. A nil cfg means DefaultConfig.
func New(cfg *Config, opts ...Option) (*Runner, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:     *cfg,
		logger:  logging.NewNopLogger(),
		metrics: metrics.DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logging.Component("runner"))
	return r, nil
}

// Config returns the configuration the runner was created with
func (r *Runner) Config() Config {
	return r.cfg
}

// Run locks m (unless it is already locked), records its initial state as
// round 0 and computes cfg.Rounds further rounds. Validation failures are
// returned unchanged, wrapped with context. When ctx is cancelled between
// rounds the partial result is returned together with the context error.
func (r *Runner) Run(ctx context.Context, m *model.Model) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := r.logger.With(logging.RunID(runID), logging.ModelName(m.Name()))

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	r.metrics.RecordModel(NodeCounts(m), 0)

	sim, err := r.simulation(logger, m)
	if err != nil {
		r.metrics.RecordValidationFailure(model.ValidationReason(err))
		r.finish(logger, metrics.StatusInvalid, time.Since(start))
		return nil, fmt.Errorf("failed to prepare model: %w", err)
	}

	res := &Result{
		RunID:     runID,
		ModelName: m.Name(),
		Columns:   columns(m),
		Rows:      make([][]float64, 0, r.cfg.Rounds+1),
	}
	res.Rows = append(res.Rows, record(sim, res.Columns))

	logger.Info("run started", logging.Int("rounds", r.cfg.Rounds), logging.Count(len(res.Columns)))

	for i := 0; i < r.cfg.Rounds; i++ {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(start)
			r.finish(logger, metrics.StatusCancelled, res.Duration)
			logger.Warn("run cancelled", logging.Round(sim.Round()), logging.Error(err))
			return res, fmt.Errorf("run cancelled after %d rounds: %w", sim.Round(), err)
		}

		roundStart := time.Now()
		sim.Step()
		r.metrics.RecordRound(time.Since(roundStart))
		res.Rows = append(res.Rows, record(sim, res.Columns))
	}

	res.Duration = time.Since(start)
	levels := res.Levels()
	r.metrics.SetLevelValues(levels)
	for label, v := range levels {
		logger.Debug("final level", logging.String("level", label), logging.Float64("value", v))
	}
	r.finish(logger, metrics.StatusSuccess, res.Duration)
	logger.Info("run completed", logging.Round(sim.Round()), logging.Latency(res.Duration))

	if r.cfg.Output.Path != "" {
		if err := r.Export(res); err != nil {
			return res, err
		}
		logger.Info("trajectory written", logging.Path(r.cfg.Output.Path))
	}
	return res, nil
}

func (r *Runner) simulation(logger logging.Logger, m *model.Model) (*model.Simulation, error) {
	if !m.IsChangeable() {
		return m.Simulation()
	}
	timer := logging.StartTimer(logger, "model prepared")
	sim, err := m.Lock()
	if err != nil {
		timer.EndError(err)
		return nil, err
	}
	timer.End()
	return sim, nil
}

func (r *Runner) finish(logger logging.Logger, status string, d time.Duration) {
	r.metrics.RecordRun(status, d)
	r.metrics.UpdateSystemMetrics()
	if r.cfg.MetricsFile == "" {
		return
	}
	if err := r.metrics.WriteTextfile(r.cfg.MetricsFile); err != nil {
		logger.Warn("failed to write metrics file", logging.Path(r.cfg.MetricsFile), logging.Error(err))
	}
}

// Export writes the trajectory to the configured output path
func (r *Runner) Export(res *Result) (err error) {
	w, err := export.Create(r.cfg.Output.Path, r.cfg.Output.Compress)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, w.Close())
	}()
	return export.WriteCSV(w, res.Header(), res.Table())
}

func columns(m *model.Model) []Column {
	var cols []Column
	add := func(h model.Operand) {
		label, _ := m.Label(h)
		cols = append(cols, Column{Node: h, Kind: h.Kind(), Label: label})
	}
	for _, h := range m.LevelNodes() {
		add(h)
	}
	for _, h := range m.RateNodes() {
		add(h)
	}
	for _, h := range m.AuxiliaryNodes() {
		add(h)
	}
	return cols
}

func record(sim *model.Simulation, cols []Column) []float64 {
	snapshot := sim.Snapshot()
	row := make([]float64, len(cols))
	for i, c := range cols {
		row[i] = snapshot[c.Node.NodeID()]
	}
	return row
}

// NodeCounts returns the number of nodes of each kind, keyed by kind name
func NodeCounts(m *model.Model) map[string]int {
	return map[string]int{
		"Constant":   len(m.ConstantNodes()),
		"Level":      len(m.LevelNodes()),
		"Rate":       len(m.RateNodes()),
		"Auxiliary":  len(m.AuxiliaryNodes()),
		"SourceSink": len(m.SourceSinkNodes()),
	}
}
