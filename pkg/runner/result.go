package runner

import (
	"time"

	"github.com/dd0wney/cluso-stockflow/pkg/ast"
	"github.com/dd0wney/cluso-stockflow/pkg/model"
)

// Column is one recorded node of a trajectory
type Column struct {
	Node  model.Operand
	Kind  ast.NodeKind
	Label string
}

// Result holds the trajectory of a run. Rows[i] holds the value of every
// column after round i; row 0 is the initial state.
type Result struct {
	RunID     string
	ModelName string
	Columns   []Column
	Rows      [][]float64
	Duration  time.Duration
}

// Rounds returns the number of completed rounds
func (r *Result) Rounds() int {
	if len(r.Rows) == 0 {
		return 0
	}
	return len(r.Rows) - 1
}

// Column returns the index of the column with the given label
func (r *Result) Column(label string) (int, bool) {
	for i, c := range r.Columns {
		if c.Label == label {
			return i, true
		}
	}
	return -1, false
}

// Final returns the last recorded value of the column with the given label
func (r *Result) Final(label string) (float64, bool) {
	i, ok := r.Column(label)
	if !ok || len(r.Rows) == 0 {
		return 0, false
	}
	return r.Rows[len(r.Rows)-1][i], true
}

// Series returns every recorded value of one column
func (r *Result) Series(label string) ([]float64, bool) {
	i, ok := r.Column(label)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(r.Rows))
	for round, row := range r.Rows {
		out[round] = row[i]
	}
	return out, true
}

// Levels returns the final value of every Level column keyed by label
func (r *Result) Levels() map[string]float64 {
	out := make(map[string]float64)
	if len(r.Rows) == 0 {
		return out
	}
	last := r.Rows[len(r.Rows)-1]
	for i, c := range r.Columns {
		if c.Kind == ast.LevelKind {
			out[c.Label] = last[i]
		}
	}
	return out
}

// Header returns the CSV header: "round" followed by the column labels
func (r *Result) Header() []string {
	header := make([]string, 0, len(r.Columns)+1)
	header = append(header, "round")
	for _, c := range r.Columns {
		header = append(header, c.Label)
	}
	return header
}

// Table returns the rows prefixed with their round number, matching Header
func (r *Result) Table() [][]float64 {
	table := make([][]float64, len(r.Rows))
	for round, row := range r.Rows {
		line := make([]float64, 0, len(row)+1)
		line = append(line, float64(round))
		table[round] = append(line, row...)
	}
	return table
}
