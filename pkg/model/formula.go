package model

import (
	"fmt"

	"github.com/dd0wney/cluso-stockflow/pkg/ast"
)

// SetFormula stores a copy of t as the formula of h. A nil t clears it.
// Every leaf must reference an existing operand of this model.
func (m *Model) SetFormula(h FormulaHolder, t ast.Term) error {
	const op = "SetFormula"
	if err := m.checkChangeable(op); err != nil {
		return err
	}
	n, err := m.get(op, h)
	if err != nil {
		return err
	}
	if t == nil {
		n.formula = nil
		return nil
	}
	if err := ast.Validate(t); err != nil {
		return newError(op).node(h).cause(err).build()
	}
	for _, ref := range t.Leaves() {
		target, ok := m.nodes[ref.ID]
		if !ok {
			return newError(op).node(h).cause(ErrNodeNotFound).context("leaf %s", ref).build()
		}
		if target.kind != ref.Kind {
			return newError(op).node(h).
				cause(fmt.Errorf("%w: leaf %s refers to a %s node", ErrInvalidArgument, ref, target.kind)).
				build()
		}
	}
	n.formula = t.Clone()
	return nil
}

// Formula returns a copy of h's formula, or nil if none is set
func (m *Model) Formula(h FormulaHolder) (ast.Term, error) {
	n, err := m.get("Formula", h)
	if err != nil {
		return nil, err
	}
	if n.formula == nil {
		return nil, nil
	}
	return n.formula.Clone(), nil
}

// RenderFormula renders h's formula with node names, e.g.
// "inflow(RN) - drain(AN)". It returns "" when no formula is set.
func (m *Model) RenderFormula(h FormulaHolder) (string, error) {
	n, err := m.get("RenderFormula", h)
	if err != nil {
		return "", err
	}
	if n.formula == nil {
		return "", nil
	}
	return ast.Render(n.formula, arenaEnv{m}), nil
}

// DependsOn returns the distinct operands h's formula reads, in the order
// they first appear.
func (m *Model) DependsOn(h FormulaHolder) ([]Operand, error) {
	n, err := m.get("DependsOn", h)
	if err != nil {
		return nil, err
	}
	if n.formula == nil {
		return []Operand{}, nil
	}
	leaves := n.formula.Leaves()
	deps := make([]Operand, 0, len(leaves))
	for _, ref := range leaves {
		deps = append(deps, operandFor(ref))
	}
	return deps, nil
}

// DependsOnWithFlowEndpoints returns DependsOn plus, for a Rate, its flow
// source and sink.
func (m *Model) DependsOnWithFlowEndpoints(h FormulaHolder) ([]Handle, error) {
	operands, err := m.DependsOn(h)
	if err != nil {
		return nil, err
	}
	deps := make([]Handle, 0, len(operands)+2)
	for _, o := range operands {
		deps = append(deps, o)
	}
	if h.Kind() != ast.RateKind {
		return deps, nil
	}
	n := m.nodes[h.NodeID()]
	for _, id := range []NodeID{n.source, n.sink} {
		if end := m.endpoint(id); end != nil && !containsHandle(deps, end) {
			deps = append(deps, end)
		}
	}
	return deps, nil
}

func containsHandle(hs []Handle, h Handle) bool {
	for _, x := range hs {
		if x.NodeID() == h.NodeID() {
			return true
		}
	}
	return false
}
