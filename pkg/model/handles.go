package model

import "github.com/dd0wney/cluso-stockflow/pkg/ast"

// NodeID identifies a node in a Model. IDs are never reused.
type NodeID = ast.NodeID

// Typed handles. Each kind only implements the capabilities it has, so
// passing, say, a LevelID to SetFormula does not compile.
type (
	ConstantID   NodeID
	LevelID      NodeID
	RateID       NodeID
	AuxiliaryID  NodeID
	SourceSinkID NodeID
)

// Handle is implemented by every node handle
type Handle interface {
	NodeID() NodeID
	Kind() ast.NodeKind
	handle()
}

// Named nodes carry a user-visible name: Constant, Level, Rate and Auxiliary.
type Named interface {
	Handle
	named()
}

// Operand nodes have a value and can be referenced from formulas.
type Operand interface {
	Named
	Ref() ast.Ref
	Leaf() ast.Leaf
}

// FormulaHolder nodes compute their value from a formula: Rate and Auxiliary.
type FormulaHolder interface {
	Operand
	holdsFormula()
}

// FlowEndpoint nodes can be the source or sink of a Rate: Level and SourceSink.
type FlowEndpoint interface {
	Handle
	flowEndpoint()
}

func (id ConstantID) NodeID() NodeID  { return NodeID(id) }
func (ConstantID) Kind() ast.NodeKind { return ast.ConstantKind }
func (id ConstantID) Ref() ast.Ref    { return ast.Ref{ID: NodeID(id), Kind: ast.ConstantKind} }
func (id ConstantID) Leaf() ast.Leaf  { return ast.NewLeaf(id.Ref()) }
func (ConstantID) handle()            {}
func (ConstantID) named()             {}

func (id LevelID) NodeID() NodeID  { return NodeID(id) }
func (LevelID) Kind() ast.NodeKind { return ast.LevelKind }
func (id LevelID) Ref() ast.Ref    { return ast.Ref{ID: NodeID(id), Kind: ast.LevelKind} }
func (id LevelID) Leaf() ast.Leaf  { return ast.NewLeaf(id.Ref()) }
func (LevelID) handle()            {}
func (LevelID) named()             {}
func (LevelID) flowEndpoint()      {}

func (id RateID) NodeID() NodeID  { return NodeID(id) }
func (RateID) Kind() ast.NodeKind { return ast.RateKind }
func (id RateID) Ref() ast.Ref    { return ast.Ref{ID: NodeID(id), Kind: ast.RateKind} }
func (id RateID) Leaf() ast.Leaf  { return ast.NewLeaf(id.Ref()) }
func (RateID) handle()            {}
func (RateID) named()             {}
func (RateID) holdsFormula()      {}

func (id AuxiliaryID) NodeID() NodeID  { return NodeID(id) }
func (AuxiliaryID) Kind() ast.NodeKind { return ast.AuxiliaryKind }
func (id AuxiliaryID) Ref() ast.Ref    { return ast.Ref{ID: NodeID(id), Kind: ast.AuxiliaryKind} }
func (id AuxiliaryID) Leaf() ast.Leaf  { return ast.NewLeaf(id.Ref()) }
func (AuxiliaryID) handle()            {}
func (AuxiliaryID) named()             {}
func (AuxiliaryID) holdsFormula()      {}

func (id SourceSinkID) NodeID() NodeID  { return NodeID(id) }
func (SourceSinkID) Kind() ast.NodeKind { return ast.SourceSinkKind }
func (SourceSinkID) handle()            {}
func (SourceSinkID) flowEndpoint()      {}

// handleFor builds the typed handle for id of the given kind
func handleFor(id NodeID, kind ast.NodeKind) Handle {
	switch kind {
	case ast.ConstantKind:
		return ConstantID(id)
	case ast.LevelKind:
		return LevelID(id)
	case ast.RateKind:
		return RateID(id)
	case ast.AuxiliaryKind:
		return AuxiliaryID(id)
	case ast.SourceSinkKind:
		return SourceSinkID(id)
	default:
		return nil
	}
}

func operandFor(ref ast.Ref) Operand {
	h, _ := handleFor(ref.ID, ref.Kind).(Operand)
	return h
}

func endpointFor(id NodeID, kind ast.NodeKind) FlowEndpoint {
	h, _ := handleFor(id, kind).(FlowEndpoint)
	return h
}
