package model

import (
	"errors"

	"github.com/dd0wney/cluso-stockflow/pkg/algorithms"
	"github.com/dd0wney/cluso-stockflow/pkg/ast"
	"github.com/dd0wney/cluso-stockflow/pkg/logging"
)

// evaluationPlan is the per-round update order fixed at lock time
type evaluationPlan struct {
	auxiliaries []NodeID // topological order
	rates       []NodeID
	levels      []NodeID
}

// ValidateModel checks that the model can be simulated and returns the first
// problem found. Checks run in a fixed order: at least one Level, every Rate
// has a source and a sink, every Rate and Auxiliary has a formula, the
// Auxiliary dependency graph is acyclic, and every Constant, Auxiliary and
// SourceSink influences some Level.
func (m *Model) ValidateModel() error {
	_, err := m.validate()
	return err
}

func (m *Model) validate() (*evaluationPlan, error) {
	levels := m.idsOf(ast.LevelKind)
	if len(levels) == 0 {
		return nil, ErrNoLevelNode
	}

	rates := m.idsOf(ast.RateKind)
	for _, id := range rates {
		r := m.nodes[id]
		if r.source == 0 || r.sink == 0 {
			return nil, &RateFlowError{Rate: RateID(id), MissingSource: r.source == 0, MissingSink: r.sink == 0}
		}
	}

	for _, id := range m.order {
		n := m.nodes[id]
		if (n.kind == ast.RateKind || n.kind == ast.AuxiliaryKind) && n.formula == nil {
			return nil, &NoFormulaError{Node: n.handle().(FormulaHolder)}
		}
	}

	auxOrder, err := m.auxiliaryOrder()
	if err != nil {
		return nil, err
	}

	if err := m.checkUseless(levels); err != nil {
		return nil, err
	}

	return &evaluationPlan{auxiliaries: auxOrder, rates: rates, levels: levels}, nil
}

// auxiliaryOrder sorts Auxiliaries so that every node comes after the
// Auxiliaries its formula reads.
func (m *Model) auxiliaryOrder() ([]NodeID, error) {
	g := algorithms.NewDigraph[NodeID]()
	auxiliaries := m.idsOf(ast.AuxiliaryKind)
	for _, id := range auxiliaries {
		g.AddNode(id)
	}
	for _, id := range auxiliaries {
		for _, ref := range m.nodes[id].formula.Leaves() {
			if ref.Kind == ast.AuxiliaryKind {
				g.AddEdge(ref.ID, id)
			}
		}
	}

	order, err := algorithms.TopologicalSort(g)
	if err != nil {
		var cycle *algorithms.CycleError[NodeID]
		if errors.As(err, &cycle) {
			cycleErr := &AuxiliaryCycleError{Nodes: convertIDs[AuxiliaryID](cycle.Remaining)}
			for _, c := range algorithms.Cycles(g) {
				cycleErr.Cycles = append(cycleErr.Cycles, convertIDs[AuxiliaryID](c))
			}
			return nil, cycleErr
		}
		return nil, err
	}
	return order, nil
}

// checkUseless walks dependencies backwards from every Level and reports
// the first Constant, Auxiliary or SourceSink that was never reached.
func (m *Model) checkUseless(levels []NodeID) error {
	g := algorithms.NewDigraph[NodeID]()
	for _, id := range m.order {
		n := m.nodes[id]
		g.AddNode(id)
		switch n.kind {
		case ast.LevelKind:
			for _, rid := range n.incoming {
				g.AddEdge(id, rid)
			}
			for _, rid := range n.outgoing {
				g.AddEdge(id, rid)
			}
		case ast.RateKind:
			for _, ref := range n.formula.Leaves() {
				g.AddEdge(id, ref.ID)
			}
			g.AddEdge(id, n.source)
			g.AddEdge(id, n.sink)
		case ast.AuxiliaryKind:
			for _, ref := range n.formula.Leaves() {
				g.AddEdge(id, ref.ID)
			}
		}
	}

	reached := algorithms.ReachableFrom(g, levels...)
	for _, id := range m.order {
		n := m.nodes[id]
		switch n.kind {
		case ast.ConstantKind, ast.AuxiliaryKind, ast.SourceSinkKind:
			if !reached[id] {
				return &UselessNodeError{Node: n.handle()}
			}
		}
	}
	return nil
}

// ValidateModelAndSetUnchangeable validates the model and, if it is valid,
// freezes it so that it can be simulated.
func (m *Model) ValidateModelAndSetUnchangeable() error {
	_, err := m.Lock()
	return err
}

// Lock validates and freezes the model and returns the Simulation that
// steps it. On failure the model stays changeable.
func (m *Model) Lock() (*Simulation, error) {
	const op = "Lock"
	if err := m.checkChangeable(op); err != nil {
		return nil, err
	}
	timer := logging.StartTimer(m.logger, "model validated")
	plan, err := m.validate()
	if err != nil {
		fields := []logging.Field{logging.String("reason", ValidationReason(err)), logging.Error(err)}
		if h, ok := OffendingNode(err); ok {
			fields = append(fields, logging.NodeID(uint64(h.NodeID())), logging.NodeKind(h.Kind()))
		}
		m.logger.Warn("model validation failed", fields...)
		return nil, err
	}

	m.changeable = false
	m.plan = plan
	m.sim = &Simulation{m: m}
	timer.End()
	m.logger.Info("model locked",
		logging.Count(len(m.order)),
		logging.Int("levels", len(plan.levels)),
		logging.Int("rates", len(plan.rates)),
		logging.Int("auxiliaries", len(plan.auxiliaries)))
	return m.sim, nil
}

// Simulation returns the stepper of a locked model
func (m *Model) Simulation() (*Simulation, error) {
	if m.changeable {
		return nil, newError("Simulation").cause(ErrModelStillChangeable).build()
	}
	return m.sim, nil
}
