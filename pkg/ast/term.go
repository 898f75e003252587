package ast

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedTerm is returned by Validate for trees that cannot be evaluated
var ErrMalformedTerm = errors.New("malformed formula term")

// Env supplies node values during evaluation
type Env interface {
	Value(ref Ref) float64
}

// Term is a node of a formula tree. It is either a Leaf or a *Binary.
type Term interface {
	// Evaluate computes the value of the subtree against env
	Evaluate(env Env) float64
	// Leaves returns the distinct node references in the subtree, in
	// first-encounter pre-order
	Leaves() []Ref
	// Clone deep-copies operator nodes; leaves are shared
	Clone() Term

	sealed()
}

// Operator is the arithmetic operation of a Binary term
type Operator int

const (
	OpPlus Operator = iota + 1
	OpMinus
	OpMultiply
	OpDivide
	OpMax
	OpMin
	OpRound
)

// String returns the operator symbol or function name
func (op Operator) String() string {
	switch op {
	case OpPlus:
		return "+"
	case OpMinus:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpMax:
		return "MAX"
	case OpMin:
		return "MIN"
	case OpRound:
		return "ROUND"
	default:
		return fmt.Sprintf("Operator(%d)", int(op))
	}
}

func (op Operator) valid() bool {
	return op >= OpPlus && op <= OpRound
}

// isFunction reports whether the operator renders as NAME(a, b)
func (op Operator) isFunction() bool {
	return op == OpMax || op == OpMin || op == OpRound
}

// precedence of infix operators; function-style operators bind tightest
func (op Operator) precedence() int {
	switch op {
	case OpPlus, OpMinus:
		return 1
	case OpMultiply, OpDivide:
		return 2
	default:
		return 3
	}
}

// Leaf references a model node. Leaves are values, so copying a leaf keeps
// its node identity.
type Leaf struct {
	Ref Ref
}

// NewLeaf creates a leaf for ref
func NewLeaf(ref Ref) Leaf {
	return Leaf{Ref: ref}
}

func (l Leaf) Evaluate(env Env) float64 {
	return env.Value(l.Ref)
}

func (l Leaf) Leaves() []Ref {
	return []Ref{l.Ref}
}

func (l Leaf) Clone() Term {
	return l
}

func (Leaf) sealed() {}

// Binary applies Op to the values of Left and Right
type Binary struct {
	Op    Operator
	Left  Term
	Right Term
}

func newBinary(op Operator, left, right Term) *Binary {
	return &Binary{Op: op, Left: left, Right: right}
}

// Plus returns left + right
func Plus(left, right Term) *Binary { return newBinary(OpPlus, left, right) }

// Minus returns left - right
func Minus(left, right Term) *Binary { return newBinary(OpMinus, left, right) }

// Multiply returns left * right
func Multiply(left, right Term) *Binary { return newBinary(OpMultiply, left, right) }

// Divide returns left / right
func Divide(left, right Term) *Binary { return newBinary(OpDivide, left, right) }

// Max returns the larger operand
func Max(left, right Term) *Binary { return newBinary(OpMax, left, right) }

// Min returns the smaller operand
func Min(left, right Term) *Binary { return newBinary(OpMin, left, right) }

// Round rounds value to the given number of decimal places
func Round(value, places Term) *Binary { return newBinary(OpRound, value, places) }

func (b *Binary) Evaluate(env Env) float64 {
	left := b.Left.Evaluate(env)
	right := b.Right.Evaluate(env)
	return apply(b.Op, left, right)
}

func apply(op Operator, left, right float64) float64 {
	switch op {
	case OpPlus:
		return left + right
	case OpMinus:
		return left - right
	case OpMultiply:
		return left * right
	case OpDivide:
		return left / right
	case OpMax:
		return math.Max(left, right)
	case OpMin:
		return math.Min(left, right)
	case OpRound:
		return roundTo(left, right)
	default:
		return math.NaN()
	}
}

// roundTo rounds half away from zero to trunc(places) decimal places.
func roundTo(value, places float64) float64 {
	if math.IsNaN(places) || math.IsInf(places, 0) {
		return math.NaN()
	}
	scale := math.Pow(10, math.Trunc(places))
	if scale == 0 || math.IsInf(scale, 0) {
		return math.Round(value)
	}
	return math.Round(value*scale) / scale
}

func (b *Binary) Leaves() []Ref {
	seen := make(map[Ref]struct{})
	refs := make([]Ref, 0)
	collectLeaves(b, seen, &refs)
	return refs
}

func collectLeaves(t Term, seen map[Ref]struct{}, refs *[]Ref) {
	switch n := t.(type) {
	case Leaf:
		if _, ok := seen[n.Ref]; !ok {
			seen[n.Ref] = struct{}{}
			*refs = append(*refs, n.Ref)
		}
	case *Binary:
		collectLeaves(n.Left, seen, refs)
		collectLeaves(n.Right, seen, refs)
	}
}

func (b *Binary) Clone() Term {
	if b == nil {
		return (*Binary)(nil)
	}
	return &Binary{Op: b.Op, Left: cloneTerm(b.Left), Right: cloneTerm(b.Right)}
}

// shallowClone copies the operator node but keeps its children
func (b *Binary) shallowClone() *Binary {
	return &Binary{Op: b.Op, Left: b.Left, Right: b.Right}
}

func (*Binary) sealed() {}

func cloneTerm(t Term) Term {
	if t == nil {
		return nil
	}
	return t.Clone()
}

// Clone deep-clones t, returning nil for a nil term.
func Clone(t Term) Term {
	return cloneTerm(t)
}

// Validate checks that every operator is known, no child is missing, and
// every leaf references an operand kind.
func Validate(t Term) error {
	switch n := t.(type) {
	case nil:
		return fmt.Errorf("%w: missing term", ErrMalformedTerm)
	case Leaf:
		if n.Ref.ID == 0 {
			return fmt.Errorf("%w: leaf without node id", ErrMalformedTerm)
		}
		if !n.Ref.Kind.IsOperand() {
			return fmt.Errorf("%w: %s nodes cannot appear in formulas", ErrMalformedTerm, n.Ref.Kind)
		}
		return nil
	case *Binary:
		if n == nil {
			return fmt.Errorf("%w: missing term", ErrMalformedTerm)
		}
		if !n.Op.valid() {
			return fmt.Errorf("%w: unknown operator %d", ErrMalformedTerm, int(n.Op))
		}
		if err := Validate(n.Left); err != nil {
			return err
		}
		return Validate(n.Right)
	default:
		return fmt.Errorf("%w: unsupported term %T", ErrMalformedTerm, t)
	}
}

// References reports whether t has a leaf pointing at id
func References(t Term, id NodeID) bool {
	switch n := t.(type) {
	case Leaf:
		return n.Ref.ID == id
	case *Binary:
		if n == nil {
			return false
		}
		return References(n.Left, id) || References(n.Right, id)
	default:
		return false
	}
}
