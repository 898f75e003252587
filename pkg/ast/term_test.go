package ast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv maps refs to values and names
type testEnv struct {
	values map[Ref]float64
	names  map[Ref]string
}

func (e testEnv) Value(ref Ref) float64 { return e.values[ref] }
func (e testEnv) Name(ref Ref) string  { return e.names[ref] }

var (
	refA = Ref{ID: 1, Kind: ConstantKind}
	refB = Ref{ID: 2, Kind: LevelKind}
	refC = Ref{ID: 3, Kind: AuxiliaryKind}
	refD = Ref{ID: 4, Kind: RateKind}
)

func newTestEnv() testEnv {
	return testEnv{
		values: map[Ref]float64{refA: 6, refB: 3, refC: 2, refD: -1.5},
		names:  map[Ref]string{refA: "A", refB: "B", refC: "C", refD: "D"},
	}
}

func TestEvaluate_Operators(t *testing.T) {
	env := newTestEnv()
	a, b, c := NewLeaf(refA), NewLeaf(refB), NewLeaf(refC)

	tests := []struct {
		name string
		term Term
		want float64
	}{
		{"leaf", a, 6},
		{"plus", Plus(a, b), 9},
		{"minus", Minus(a, b), 3},
		{"multiply", Multiply(a, b), 18},
		{"divide", Divide(a, b), 2},
		{"max", Max(a, b), 6},
		{"min", Min(a, b), 3},
		{"nested", Minus(Plus(a, b), c), 7},
		{"round to integer", Round(Divide(a, Multiply(b, c)), Minus(c, c)), 1},
		{"round one place", Round(Divide(b, a), Divide(c, c)), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.term.Evaluate(env); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_DivideByZero(t *testing.T) {
	env := newTestEnv()
	zero := Minus(NewLeaf(refA), NewLeaf(refA))

	assert.True(t, math.IsInf(Divide(NewLeaf(refA), zero).Evaluate(env), 1))
	assert.True(t, math.IsInf(Divide(NewLeaf(refD), zero).Evaluate(env), -1))
	assert.True(t, math.IsNaN(Divide(zero, zero).Evaluate(env)))
}

func TestRoundTo(t *testing.T) {
	tests := []struct {
		value, places, want float64
	}{
		{2.5, 0, 3},
		{-2.5, 0, -3},
		{1.2345, 2, 1.23},
		{1.235, 1, 1.2},
		{1234, -2, 1200},
		{7.9, 0.9, 8},
	}
	for _, tt := range tests {
		if got := roundTo(tt.value, tt.places); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("roundTo(%v, %v) = %v, want %v", tt.value, tt.places, got, tt.want)
		}
	}
	if !math.IsNaN(roundTo(1, math.Inf(1))) {
		t.Error("roundTo with infinite places should be NaN")
	}
}

func TestLeaves_DistinctPreOrder(t *testing.T) {
	term := Plus(Multiply(NewLeaf(refB), NewLeaf(refA)), Minus(NewLeaf(refA), NewLeaf(refC)))
	assert.Equal(t, []Ref{refB, refA, refC}, term.Leaves())
	assert.Equal(t, []Ref{refA}, NewLeaf(refA).Leaves())
}

func TestClone_SharesLeavesOnly(t *testing.T) {
	inner := Plus(NewLeaf(refA), NewLeaf(refB))
	orig := Minus(inner, NewLeaf(refC))

	cloned, ok := orig.Clone().(*Binary)
	require.True(t, ok)
	require.NotSame(t, orig, cloned)

	clonedInner, ok := cloned.Left.(*Binary)
	require.True(t, ok)
	assert.NotSame(t, inner, clonedInner)
	assert.Equal(t, NewLeaf(refA), clonedInner.Left)
	assert.Equal(t, NewLeaf(refC), cloned.Right)

	// mutating the clone leaves the original untouched
	clonedInner.Op = OpMultiply
	cloned.Right = NewLeaf(refD)
	assert.Equal(t, OpPlus, inner.Op)
	assert.Equal(t, NewLeaf(refC), orig.Right)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		term    Term
		wantErr bool
	}{
		{"leaf", NewLeaf(refA), false},
		{"tree", Round(Plus(NewLeaf(refA), NewLeaf(refD)), NewLeaf(refC)), false},
		{"nil", nil, true},
		{"missing child", &Binary{Op: OpPlus, Left: NewLeaf(refA)}, true},
		{"unknown operator", &Binary{Op: Operator(42), Left: NewLeaf(refA), Right: NewLeaf(refB)}, true},
		{"source sink leaf", NewLeaf(Ref{ID: 9, Kind: SourceSinkKind}), true},
		{"zero id", NewLeaf(Ref{Kind: ConstantKind}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.term)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedTerm)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReferences(t *testing.T) {
	term := Plus(NewLeaf(refA), Max(NewLeaf(refB), NewLeaf(refC)))
	assert.True(t, References(term, refC.ID))
	assert.False(t, References(term, refD.ID))
	assert.False(t, References(nil, refA.ID))
}

func TestNodeKind_Strings(t *testing.T) {
	tests := []struct {
		kind   NodeKind
		name   string
		abbrev string
	}{
		{ConstantKind, "Constant", "CN"},
		{LevelKind, "Level", "LN"},
		{RateKind, "Rate", "RN"},
		{AuxiliaryKind, "Auxiliary", "AN"},
		{SourceSinkKind, "SourceSink", "SSN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.kind.String())
		assert.Equal(t, tt.abbrev, tt.kind.Abbrev())
	}
	assert.False(t, SourceSinkKind.IsOperand())
	assert.True(t, RateKind.IsOperand())
}
