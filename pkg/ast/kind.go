package ast

import "fmt"

// NodeID identifies a node inside the model arena. Zero is never a valid ID.
type NodeID uint64

// NodeKind is the kind of a model node
type NodeKind int

const (
	// ConstantKind is a fixed scalar
	ConstantKind NodeKind = iota + 1
	// LevelKind is a stock that integrates its flows every round
	LevelKind
	// RateKind is a flow between two endpoints
	RateKind
	// AuxiliaryKind is a named intermediate value
	AuxiliaryKind
	// SourceSinkKind is a boundary node outside the modeled system
	SourceSinkKind
)

// String returns the human readable kind name
func (k NodeKind) String() string {
	switch k {
	case ConstantKind:
		return "Constant"
	case LevelKind:
		return "Level"
	case RateKind:
		return "Rate"
	case AuxiliaryKind:
		return "Auxiliary"
	case SourceSinkKind:
		return "SourceSink"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Abbrev returns the short tag used when rendering formulas, e.g. "CN".
func (k NodeKind) Abbrev() string {
	switch k {
	case ConstantKind:
		return "CN"
	case LevelKind:
		return "LN"
	case RateKind:
		return "RN"
	case AuxiliaryKind:
		return "AN"
	case SourceSinkKind:
		return "SSN"
	default:
		return "??"
	}
}

// IsOperand reports whether nodes of this kind may appear as formula leaves.
func (k NodeKind) IsOperand() bool {
	switch k {
	case ConstantKind, LevelKind, RateKind, AuxiliaryKind:
		return true
	default:
		return false
	}
}

// Ref is a reference to a model node from inside a formula.
// Two refs are the same node iff they are equal.
type Ref struct {
	ID   NodeID
	Kind NodeKind
}

// String returns "<abbrev>#<id>", used in diagnostics only
func (r Ref) String() string {
	return fmt.Sprintf("%s#%d", r.Kind.Abbrev(), r.ID)
}
