package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-stockflow/pkg/ast"
	"github.com/dd0wney/cluso-stockflow/pkg/logging"
	"github.com/dd0wney/cluso-stockflow/pkg/metrics"
	"github.com/dd0wney/cluso-stockflow/pkg/model"
)

// bathtub: water starts at 10, fills by tap=2 and drains by water*0.5
func bathtub(t *testing.T) *model.Model {
	t.Helper()
	m := model.New(model.WithName("bathtub"))

	water, err := m.CreateLevelNode("water", 10)
	require.NoError(t, err)
	tap, err := m.CreateConstantNode("tap", 2)
	require.NoError(t, err)
	share, err := m.CreateConstantNode("share", 0.5)
	require.NoError(t, err)
	fill, err := m.CreateRateNode("fill")
	require.NoError(t, err)
	drain, err := m.CreateRateNode("drain")
	require.NoError(t, err)
	outside, err := m.CreateSourceSinkNode()
	require.NoError(t, err)

	for _, add := range []func() (bool, error){
		func() (bool, error) { return m.AddFlowFromSourceSinkToRate(outside, fill) },
		func() (bool, error) { return m.AddFlowFromRateToLevel(fill, water) },
		func() (bool, error) { return m.AddFlowFromLevelToRate(water, drain) },
		func() (bool, error) { return m.AddFlowFromRateToSourceSink(drain, outside) },
	} {
		_, err := add()
		require.NoError(t, err)
	}

	require.NoError(t, m.SetFormula(fill, tap.Leaf()))
	require.NoError(t, m.SetFormula(drain, ast.Multiply(water.Leaf(), share.Leaf())))
	return m
}

func runsWithStatus(t *testing.T, reg *metrics.Registry, status string) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, reg.RunsTotal.WithLabelValues(status).Write(&metric))
	return metric.Counter.GetValue()
}

func newRunner(t *testing.T, cfg *Config, opts ...Option) (*Runner, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry()
	r, err := New(cfg, append([]Option{WithMetrics(reg)}, opts...)...)
	require.NoError(t, err)
	return r, reg
}

func TestRun_Trajectory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rounds = 4
	r, reg := newRunner(t, cfg)

	res, err := r.Run(context.Background(), bathtub(t))
	require.NoError(t, err)

	assert.Equal(t, "bathtub", res.ModelName)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 4, res.Rounds())
	require.Len(t, res.Rows, 5)

	water, ok := res.Series("water(LN)")
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{10, 7, 5.5, 4.75, 4.375}, water, 1e-12)

	drain, ok := res.Series("drain(RN)")
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{0, 5, 3.5, 2.75, 2.375}, drain, 1e-12)

	final, ok := res.Final("water(LN)")
	assert.True(t, ok)
	assert.InDelta(t, 4.375, final, 1e-12)

	_, ok = res.Final("tap(CN)")
	assert.False(t, ok, "constants are not recorded")

	assert.Equal(t, float64(1), runsWithStatus(t, reg, metrics.StatusSuccess))

	var rounds dto.Metric
	require.NoError(t, reg.RoundsTotal.Write(&rounds))
	assert.Equal(t, float64(4), rounds.Counter.GetValue())

	var level dto.Metric
	require.NoError(t, reg.LevelValue.WithLabelValues("water(LN)").Write(&level))
	assert.InDelta(t, 4.375, level.Gauge.GetValue(), 1e-12)
}

func TestRun_AlreadyLocked(t *testing.T) {
	m := bathtub(t)
	sim, err := m.Lock()
	require.NoError(t, err)
	sim.Run(2)

	cfg := DefaultConfig()
	cfg.Rounds = 1
	r, _ := newRunner(t, cfg)

	res, err := r.Run(context.Background(), m)
	require.NoError(t, err)
	// round 0 of this run is the state the model was left in
	assert.InDelta(t, 5.5, res.Rows[0][0], 1e-12)
	assert.InDelta(t, 4.75, res.Rows[1][0], 1e-12)
}

func TestRun_InvalidModel(t *testing.T) {
	m := model.New(model.WithName("empty"))
	_, err := m.CreateConstantNode("lonely", 1)
	require.NoError(t, err)

	r, reg := newRunner(t, nil)
	_, err = r.Run(context.Background(), m)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNoLevelNode)
	assert.True(t, m.IsChangeable())

	var failures dto.Metric
	require.NoError(t, reg.ValidationFailuresTotal.WithLabelValues("no_level_node").Write(&failures))
	assert.Equal(t, float64(1), failures.Counter.GetValue())
	assert.Equal(t, float64(1), runsWithStatus(t, reg, metrics.StatusInvalid))
}

func TestRun_InvalidModelIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewJSONLogger(&buf, logging.ErrorLevel)

	r, _ := newRunner(t, nil, WithLogger(logger))
	_, err := r.Run(context.Background(), model.New(model.WithName("empty")))
	require.ErrorIs(t, err, model.ErrNoLevelNode)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "model prepared", entry["msg"])
	fields, ok := entry["fields"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields["error"], "level")
	assert.NotNil(t, fields["latency"])
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, reg := newRunner(t, nil)
	res, err := r.Run(ctx, bathtub(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Rounds())
	assert.Equal(t, float64(1), runsWithStatus(t, reg, metrics.StatusCancelled))
}

func TestRun_LogsRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewJSONLogger(&buf, logging.InfoLevel)

	cfg := DefaultConfig()
	cfg.Rounds = 2
	r, _ := newRunner(t, cfg, WithLogger(logger))

	res, err := r.Run(context.Background(), bathtub(t))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var completed map[string]any
	for _, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "run completed" {
			completed = entry
		}
	}
	require.NotNil(t, completed, "no completion entry in %s", buf.String())
	fields, ok := completed["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, res.RunID, fields["run_id"])
	assert.Equal(t, "runner", fields["component"])
}

func TestRun_WritesOutputs(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Rounds = 3
	cfg.Output.Path = filepath.Join(dir, "bathtub.csv")
	cfg.MetricsFile = filepath.Join(dir, "stockflow.prom")
	r, _ := newRunner(t, cfg)

	_, err := r.Run(context.Background(), bathtub(t))
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "round,water(LN),fill(RN),drain(RN)", lines[0])
	assert.Equal(t, "1,7,2,5", lines[2])

	prom, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "stockflow_rounds_total 3")
}
