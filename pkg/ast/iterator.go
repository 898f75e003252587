package ast

import (
	"errors"
	"iter"
)

// ErrIteratorExhausted is returned by Next once every term has been visited
var ErrIteratorExhausted = errors.New("pre-order iterator exhausted")

// Iterator walks a private deep clone of a formula in pre-order:
// node, left subtree, right subtree.
type Iterator struct {
	stack []Term
}

// PreOrder returns an iterator over a fresh clone of t. A nil term yields
// nothing.
func PreOrder(t Term) *Iterator {
	it := &Iterator{}
	if c := cloneTerm(t); c != nil {
		it.stack = append(it.stack, c)
	}
	return it
}

// HasNext reports whether Next will return another term
func (it *Iterator) HasNext() bool {
	return len(it.stack) > 0
}

// Next returns the next term. Operator nodes are returned as single-level
// clones, so changing their children does not disturb the walk; leaves are
// returned as they are.
func (it *Iterator) Next() (Term, error) {
	if len(it.stack) == 0 {
		return nil, ErrIteratorExhausted
	}
	top := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]

	b, ok := top.(*Binary)
	if !ok {
		return top, nil
	}
	// right pushed first so the left subtree is visited first
	if b.Right != nil {
		it.stack = append(it.stack, b.Right)
	}
	if b.Left != nil {
		it.stack = append(it.stack, b.Left)
	}
	return b.shallowClone(), nil
}

// All adapts the remaining walk to a range-over-func sequence.
func (it *Iterator) All() iter.Seq[Term] {
	return func(yield func(Term) bool) {
		for it.HasNext() {
			t, err := it.Next()
			if err != nil || !yield(t) {
				return
			}
		}
	}
}
