package model

import (
	"slices"

	"github.com/dd0wney/cluso-stockflow/pkg/ast"
	"github.com/dd0wney/cluso-stockflow/pkg/logging"
)

// Model is a stock-and-flow graph under construction. It owns every node and
// flow edge; callers only hold typed handles. A Model is not safe for
// concurrent use.
type Model struct {
	name   string
	nodes  map[NodeID]*node
	order  []NodeID // creation order, removed nodes dropped
	nextID NodeID

	changeable bool
	plan       *evaluationPlan
	sim        *Simulation
	round      int

	logger logging.Logger
}

// Option configures a Model
type Option func(*Model)

// WithLogger sets the logger used for lifecycle and validation messages
func WithLogger(logger logging.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithName sets the model name used in logs and exports
func WithName(name string) Option {
	return func(m *Model) {
		m.name = name
	}
}

// New creates an empty, changeable model
func New(opts ...Option) *Model {
	m := &Model{
		nodes:      make(map[NodeID]*node),
		order:      make([]NodeID, 0),
		nextID:     1,
		changeable: true,
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logging.Component("model"), logging.ModelName(m.name))
	return m
}

// Name returns the model name
func (m *Model) Name() string {
	return m.name
}

// IsChangeable reports whether the model still accepts mutations
func (m *Model) IsChangeable() bool {
	return m.changeable
}

// Round returns the number of completed simulation rounds
func (m *Model) Round() int {
	return m.round
}

func (m *Model) checkChangeable(op string) error {
	if !m.changeable {
		return newError(op).cause(ErrModelNotChangeable).build()
	}
	return nil
}

func (m *Model) allocate(kind ast.NodeKind, name string) *node {
	n := &node{id: m.nextID, kind: kind, name: name}
	m.nextID++
	m.nodes[n.id] = n
	m.order = append(m.order, n.id)
	m.logger.Debug("node created", logging.NodeID(uint64(n.id)), logging.NodeKind(kind))
	return n
}

// get resolves a handle, checking that the node still exists with the
// handle's kind.
func (m *Model) get(op string, h Handle) (*node, error) {
	if h == nil {
		return nil, newError(op).cause(ErrInvalidArgument).context("nil handle").build()
	}
	n, ok := m.nodes[h.NodeID()]
	if !ok || n.kind != h.Kind() {
		return nil, newError(op).node(h).cause(ErrNodeNotFound).build()
	}
	return n, nil
}

// CreateConstantNode creates a new Constant node
func (m *Model) CreateConstantNode(name string, value float64) (ConstantID, error) {
	const op = "CreateConstantNode"
	if err := m.checkChangeable(op); err != nil {
		return 0, err
	}
	if err := checkName(name); err != nil {
		return 0, newError(op).cause(err).build()
	}
	if err := checkValue(value, MinConstant, MaxConstant); err != nil {
		return 0, newError(op).cause(err).build()
	}
	n := m.allocate(ast.ConstantKind, name)
	n.current = value
	return ConstantID(n.id), nil
}

// CreateLevelNode creates a new Level node whose current value starts at start
func (m *Model) CreateLevelNode(name string, start float64) (LevelID, error) {
	const op = "CreateLevelNode"
	if err := m.checkChangeable(op); err != nil {
		return 0, err
	}
	if err := checkName(name); err != nil {
		return 0, newError(op).cause(err).build()
	}
	if err := checkValue(start, MinStartValue, MaxStartValue); err != nil {
		return 0, newError(op).cause(err).build()
	}
	n := m.allocate(ast.LevelKind, name)
	n.start = start
	n.current = start
	return LevelID(n.id), nil
}

// CreateRateNode creates a new Rate node with no formula and no flows
func (m *Model) CreateRateNode(name string) (RateID, error) {
	const op = "CreateRateNode"
	if err := m.checkChangeable(op); err != nil {
		return 0, err
	}
	if err := checkName(name); err != nil {
		return 0, newError(op).cause(err).build()
	}
	return RateID(m.allocate(ast.RateKind, name).id), nil
}

// CreateAuxiliaryNode creates a new Auxiliary node with no formula
func (m *Model) CreateAuxiliaryNode(name string) (AuxiliaryID, error) {
	const op = "CreateAuxiliaryNode"
	if err := m.checkChangeable(op); err != nil {
		return 0, err
	}
	if err := checkName(name); err != nil {
		return 0, newError(op).cause(err).build()
	}
	return AuxiliaryID(m.allocate(ast.AuxiliaryKind, name).id), nil
}

// CreateSourceSinkNode creates a new SourceSink node
func (m *Model) CreateSourceSinkNode() (SourceSinkID, error) {
	const op = "CreateSourceSinkNode"
	if err := m.checkChangeable(op); err != nil {
		return 0, err
	}
	return SourceSinkID(m.allocate(ast.SourceSinkKind, "").id), nil
}

// SetNodeName renames a node
func (m *Model) SetNodeName(h Named, name string) error {
	const op = "SetNodeName"
	if err := m.checkChangeable(op); err != nil {
		return err
	}
	n, err := m.get(op, h)
	if err != nil {
		return err
	}
	if err := checkName(name); err != nil {
		return newError(op).node(h).cause(err).build()
	}
	n.name = name
	return nil
}

// SetStartValue changes a Level's start value and resets its current value
func (m *Model) SetStartValue(h LevelID, value float64) error {
	const op = "SetStartValue"
	if err := m.checkChangeable(op); err != nil {
		return err
	}
	n, err := m.get(op, h)
	if err != nil {
		return err
	}
	if err := checkValue(value, MinStartValue, MaxStartValue); err != nil {
		return newError(op).node(h).cause(err).build()
	}
	n.start = value
	n.current = value
	return nil
}

// SetConstantValue changes a Constant's value
func (m *Model) SetConstantValue(h ConstantID, value float64) error {
	const op = "SetConstantValue"
	if err := m.checkChangeable(op); err != nil {
		return err
	}
	n, err := m.get(op, h)
	if err != nil {
		return err
	}
	if err := checkValue(value, MinConstant, MaxConstant); err != nil {
		return newError(op).node(h).cause(err).build()
	}
	n.current = value
	return nil
}

// RemoveNode deletes a node and severs every flow edge touching it. A node
// still referenced by another node's formula is not removed.
func (m *Model) RemoveNode(h Handle) error {
	const op = "RemoveNode"
	if err := m.checkChangeable(op); err != nil {
		return err
	}
	n, err := m.get(op, h)
	if err != nil {
		return err
	}

	for _, id := range m.order {
		other := m.nodes[id]
		if id == n.id || other.formula == nil {
			continue
		}
		if ast.References(other.formula, n.id) {
			return &FormulaDependencyError{Node: h, Dependent: other.handle().(FormulaHolder)}
		}
	}

	switch n.kind {
	case ast.RateKind:
		if src, ok := m.nodes[n.source]; ok {
			src.outgoing.remove(n.id)
		}
		if dst, ok := m.nodes[n.sink]; ok {
			dst.incoming.remove(n.id)
		}
	case ast.LevelKind, ast.SourceSinkKind:
		for _, rid := range n.incoming {
			m.nodes[rid].sink = 0
		}
		for _, rid := range n.outgoing {
			m.nodes[rid].source = 0
		}
	}

	delete(m.nodes, n.id)
	m.order = slices.DeleteFunc(m.order, func(id NodeID) bool { return id == n.id })
	m.logger.Debug("node removed", logging.NodeID(uint64(n.id)), logging.NodeKind(n.kind))
	return nil
}

func (m *Model) idsOf(kind ast.NodeKind) []NodeID {
	ids := make([]NodeID, 0)
	for _, id := range m.order {
		if m.nodes[id].kind == kind {
			ids = append(ids, id)
		}
	}
	return ids
}

func convertIDs[T ~uint64](ids []NodeID) []T {
	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = T(id)
	}
	return out
}

// ConstantNodes returns all Constant nodes in creation order
func (m *Model) ConstantNodes() []ConstantID {
	return convertIDs[ConstantID](m.idsOf(ast.ConstantKind))
}

// LevelNodes returns all Level nodes in creation order
func (m *Model) LevelNodes() []LevelID {
	return convertIDs[LevelID](m.idsOf(ast.LevelKind))
}

// RateNodes returns all Rate nodes in creation order
func (m *Model) RateNodes() []RateID {
	return convertIDs[RateID](m.idsOf(ast.RateKind))
}

// AuxiliaryNodes returns all Auxiliary nodes in creation order
func (m *Model) AuxiliaryNodes() []AuxiliaryID {
	return convertIDs[AuxiliaryID](m.idsOf(ast.AuxiliaryKind))
}

// SourceSinkNodes returns all SourceSink nodes in creation order
func (m *Model) SourceSinkNodes() []SourceSinkID {
	return convertIDs[SourceSinkID](m.idsOf(ast.SourceSinkKind))
}

// Nodes returns a handle for every node in creation order
func (m *Model) Nodes() []Handle {
	handles := make([]Handle, len(m.order))
	for i, id := range m.order {
		handles[i] = m.nodes[id].handle()
	}
	return handles
}

// Kind returns the kind of the node with the given id
func (m *Model) Kind(id NodeID) (ast.NodeKind, bool) {
	n, ok := m.nodes[id]
	if !ok {
		return 0, false
	}
	return n.kind, true
}

// Lookup returns the typed handle for id
func (m *Model) Lookup(id NodeID) (Handle, bool) {
	n, ok := m.nodes[id]
	if !ok {
		return nil, false
	}
	return n.handle(), true
}

// NodeName returns a node's name
func (m *Model) NodeName(h Named) (string, error) {
	n, err := m.get("NodeName", h)
	if err != nil {
		return "", err
	}
	return n.name, nil
}

// Label returns "name(abbrev)", e.g. "inflow(RN)"
func (m *Model) Label(h Handle) (string, error) {
	n, err := m.get("Label", h)
	if err != nil {
		return "", err
	}
	return n.label(), nil
}

// ConstantValue returns a Constant's value
func (m *Model) ConstantValue(h ConstantID) (float64, error) {
	n, err := m.get("ConstantValue", h)
	if err != nil {
		return 0, err
	}
	return n.current, nil
}

// StartValue returns a Level's start value
func (m *Model) StartValue(h LevelID) (float64, error) {
	n, err := m.get("StartValue", h)
	if err != nil {
		return 0, err
	}
	return n.start, nil
}

// CurrentValue returns the value an operand has after the last completed round
func (m *Model) CurrentValue(h Operand) (float64, error) {
	n, err := m.get("CurrentValue", h)
	if err != nil {
		return 0, err
	}
	return n.current, nil
}

// arenaEnv exposes the arena to formula evaluation and rendering
type arenaEnv struct {
	m *Model
}

func (e arenaEnv) Value(ref ast.Ref) float64 {
	return e.m.nodes[ref.ID].current
}

func (e arenaEnv) Name(ref ast.Ref) string {
	if n, ok := e.m.nodes[ref.ID]; ok {
		return n.name
	}
	return ref.String()
}
