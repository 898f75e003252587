package model

import (
	"github.com/dd0wney/cluso-stockflow/pkg/ast"
	"github.com/dd0wney/cluso-stockflow/pkg/logging"
)

// Simulation steps a locked model. It has no mutators; the only way to
// obtain one is Model.Lock.
type Simulation struct {
	m *Model
}

// Step advances the model by one round
func (s *Simulation) Step() {
	s.m.step()
}

// Run advances the model by n rounds
func (s *Simulation) Run(n int) {
	for range n {
		s.m.step()
	}
}

// Round returns the number of completed rounds
func (s *Simulation) Round() int {
	return s.m.round
}

// Model returns the locked model for read access
func (s *Simulation) Model() *Model {
	return s.m
}

// Value returns the current value of an operand
func (s *Simulation) Value(h Operand) (float64, error) {
	return s.m.CurrentValue(h)
}

// Snapshot returns the current value of every operand keyed by node id
func (s *Simulation) Snapshot() map[NodeID]float64 {
	values := make(map[NodeID]float64, len(s.m.order))
	for _, id := range s.m.order {
		if n := s.m.nodes[id]; n.kind.IsOperand() {
			values[id] = n.current
		}
	}
	return values
}

// ComputeNextValues advances a locked model by one round
func (m *Model) ComputeNextValues() error {
	if m.changeable {
		return newError("ComputeNextValues").cause(ErrModelStillChangeable).build()
	}
	m.step()
	return nil
}

// step runs one round: Auxiliaries in dependency order, then all Rates
// against the fresh Auxiliary values, then Levels from this round's Rates.
func (m *Model) step() {
	env := arenaEnv{m}

	for _, id := range m.plan.auxiliaries {
		n := m.nodes[id]
		n.current = n.formula.Evaluate(env)
	}

	// Rates may read each other; all of them see last round's rate values.
	next := make([]float64, len(m.plan.rates))
	for i, id := range m.plan.rates {
		next[i] = m.nodes[id].formula.Evaluate(env)
	}
	for i, id := range m.plan.rates {
		m.nodes[id].current = next[i]
	}

	for _, id := range m.plan.levels {
		n := m.nodes[id]
		var in, out float64
		for _, rid := range n.incoming {
			in += m.nodes[rid].current
		}
		for _, rid := range n.outgoing {
			out += m.nodes[rid].current
		}
		n.current += in - out
	}

	m.round++
	m.logger.Debug("round computed", logging.Round(m.round))
}

var _ ast.Env = arenaEnv{}
var _ ast.Namer = arenaEnv{}
