package model

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/dd0wney/cluso-stockflow/pkg/ast"
)

// Value bounds for Constant values and Level start values.
const (
	MinConstant   = -1e12
	MaxConstant   = 1e12
	MinStartValue = -1e12
	MaxStartValue = 1e12

	// MaxNameLength is the longest accepted node name in bytes
	MaxNameLength = 256
)

// node is one arena slot. Which fields are meaningful depends on kind:
// Constants use current as their value, Levels use start/current and the
// flow sets, Rates use formula/current/source/sink, Auxiliaries use
// formula/current, SourceSinks use only the flow sets.
type node struct {
	id      NodeID
	kind    ast.NodeKind
	name    string
	start   float64
	current float64
	formula ast.Term

	source NodeID // rates only, 0 when unset
	sink   NodeID // rates only, 0 when unset

	incoming idList // flow endpoints only
	outgoing idList // flow endpoints only
}

func (n *node) handle() Handle {
	return handleFor(n.id, n.kind)
}

func (n *node) label() string {
	if n.kind == ast.SourceSinkKind {
		return fmt.Sprintf("source/sink %d(%s)", n.id, n.kind.Abbrev())
	}
	return fmt.Sprintf("%s(%s)", n.name, n.kind.Abbrev())
}

// idList is an insertion-ordered set of node ids
type idList []NodeID

func (l idList) has(id NodeID) bool {
	return slices.Contains(l, id)
}

func (l *idList) add(id NodeID) {
	if !l.has(id) {
		*l = append(*l, id)
	}
}

func (l *idList) remove(id NodeID) bool {
	i := slices.Index(*l, id)
	if i < 0 {
		return false
	}
	*l = slices.Delete(*l, i, i+1)
	return true
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be blank", ErrInvalidArgument)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name longer than %d bytes", ErrInvalidArgument, MaxNameLength)
	}
	return nil
}

func checkValue(v, lo, hi float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v is not a finite number", ErrValueOutOfRange, v)
	}
	if v < lo || v > hi {
		return fmt.Errorf("%w: %v not in [%g, %g]", ErrValueOutOfRange, v, lo, hi)
	}
	return nil
}
