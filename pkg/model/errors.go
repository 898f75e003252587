package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-stockflow/pkg/ast"
)

// Contract violations: the caller passed something the model can never accept.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNodeNotFound    = errors.New("node not found")
	ErrValueOutOfRange = errors.New("value out of range")
)

// Consistency violations: the graph is not in a state that allows the call.
var (
	ErrModelNotChangeable   = errors.New("model is not changeable")
	ErrModelStillChangeable = errors.New("model is still changeable")
	ErrNoLevelNode          = errors.New("model has no level node")
	ErrRateNodeFlow         = errors.New("rate node lacks a flow source or sink")
	ErrNoFormula            = errors.New("node has no formula")
	ErrAuxiliaryCycle       = errors.New("auxiliary nodes depend on each other cyclically")
	ErrUselessNode          = errors.New("node has no influence on any level node")
	ErrFormulaDependency    = errors.New("node is referenced by another node's formula")
)

// ModelError provides structured error information for model operations.
type ModelError struct {
	Op      string       // Operation that failed (e.g., "SetFormula")
	Node    NodeID       // Node involved, 0 if none
	Kind    ast.NodeKind // Kind of Node
	Context string       // Additional context
	Cause   error        // Underlying error
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	if e.Node != 0 {
		fmt.Fprintf(&sb, " %s %d", strings.ToLower(e.Kind.String()), e.Node)
	}
	if e.Context != "" {
		fmt.Fprintf(&sb, " (%s)", e.Context)
	}
	fmt.Fprintf(&sb, ": %v", e.Cause)
	return sb.String()
}

// Unwrap returns the underlying cause for error chain support.
func (e *ModelError) Unwrap() error {
	return e.Cause
}

// errorBuilder provides a fluent interface for building ModelErrors.
type errorBuilder struct {
	e ModelError
}

func newError(op string) *errorBuilder {
	return &errorBuilder{e: ModelError{Op: op}}
}

func (b *errorBuilder) node(h Handle) *errorBuilder {
	if h != nil {
		b.e.Node = h.NodeID()
		b.e.Kind = h.Kind()
	}
	return b
}

func (b *errorBuilder) context(format string, args ...any) *errorBuilder {
	b.e.Context = fmt.Sprintf(format, args...)
	return b
}

func (b *errorBuilder) cause(err error) *errorBuilder {
	b.e.Cause = err
	return b
}

func (b *errorBuilder) build() error {
	e := b.e
	return &e
}

// RateFlowError reports a Rate without a source or without a sink.
type RateFlowError struct {
	Rate          RateID
	MissingSource bool
	MissingSink   bool
}

func (e *RateFlowError) Error() string {
	var missing string
	switch {
	case e.MissingSource && e.MissingSink:
		missing = "source and sink"
	case e.MissingSource:
		missing = "source"
	default:
		missing = "sink"
	}
	return fmt.Sprintf("rate %d has no flow %s", e.Rate, missing)
}

func (e *RateFlowError) Unwrap() error { return ErrRateNodeFlow }

// NoFormulaError reports a Rate or Auxiliary without a formula.
type NoFormulaError struct {
	Node FormulaHolder
}

func (e *NoFormulaError) Error() string {
	return fmt.Sprintf("%s %d has no formula", strings.ToLower(e.Node.Kind().String()), e.Node.NodeID())
}

func (e *NoFormulaError) Unwrap() error { return ErrNoFormula }

// AuxiliaryCycleError lists the Auxiliary nodes that could not be ordered.
// Nodes includes Auxiliaries that only read a cycle; Cycles holds the loops
// themselves.
type AuxiliaryCycleError struct {
	Nodes  []AuxiliaryID
	Cycles [][]AuxiliaryID
}

func (e *AuxiliaryCycleError) Error() string {
	return fmt.Sprintf("auxiliary dependency cycle through %v", e.Nodes)
}

func (e *AuxiliaryCycleError) Unwrap() error { return ErrAuxiliaryCycle }

// UselessNodeError reports a Constant, Auxiliary or SourceSink node that no
// Level depends on.
type UselessNodeError struct {
	Node Handle
}

func (e *UselessNodeError) Error() string {
	return fmt.Sprintf("%s %d does not influence any level", strings.ToLower(e.Node.Kind().String()), e.Node.NodeID())
}

func (e *UselessNodeError) Unwrap() error { return ErrUselessNode }

// FormulaDependencyError is returned by RemoveNode when Dependent's formula
// still references Node.
type FormulaDependencyError struct {
	Node      Handle
	Dependent FormulaHolder
}

func (e *FormulaDependencyError) Error() string {
	return fmt.Sprintf("cannot remove %s %d: referenced by the formula of %s %d",
		strings.ToLower(e.Node.Kind().String()), e.Node.NodeID(),
		strings.ToLower(e.Dependent.Kind().String()), e.Dependent.NodeID())
}

func (e *FormulaDependencyError) Unwrap() error { return ErrFormulaDependency }

// OffendingNode extracts the node a validation or removal error is about.
func OffendingNode(err error) (Handle, bool) {
	var (
		rateErr    *RateFlowError
		formulaErr *NoFormulaError
		uselessErr *UselessNodeError
		depErr     *FormulaDependencyError
		cycleErr   *AuxiliaryCycleError
		modelErr   *ModelError
	)
	switch {
	case errors.As(err, &rateErr):
		return rateErr.Rate, true
	case errors.As(err, &formulaErr):
		return formulaErr.Node, true
	case errors.As(err, &uselessErr):
		return uselessErr.Node, true
	case errors.As(err, &depErr):
		return depErr.Dependent, true
	case errors.As(err, &cycleErr) && len(cycleErr.Nodes) > 0:
		return cycleErr.Nodes[0], true
	case errors.As(err, &modelErr) && modelErr.Node != 0:
		return handleFor(modelErr.Node, modelErr.Kind), true
	default:
		return nil, false
	}
}

// ValidationReason maps a validation error to a short, stable label for
// metrics and logs.
func ValidationReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoLevelNode):
		return "no_level_node"
	case errors.Is(err, ErrRateNodeFlow):
		return "rate_node_flow"
	case errors.Is(err, ErrNoFormula):
		return "no_formula"
	case errors.Is(err, ErrAuxiliaryCycle):
		return "auxiliary_cycle"
	case errors.Is(err, ErrUselessNode):
		return "useless_node"
	case errors.Is(err, ErrModelNotChangeable):
		return "not_changeable"
	default:
		return "other"
	}
}
