package model

import "github.com/dd0wney/cluso-stockflow/pkg/logging"

// AddFlowFromLevelToRate makes level the source of rate. It returns false if
// level already is the source; any previous source is detached.
func (m *Model) AddFlowFromLevelToRate(from LevelID, to RateID) (bool, error) {
	return m.attachSource("AddFlowFromLevelToRate", to, from)
}

// AddFlowFromSourceSinkToRate makes a SourceSink node the source of rate. It
// returns false if that node already is the source; any previous source is
// detached.
func (m *Model) AddFlowFromSourceSinkToRate(from SourceSinkID, to RateID) (bool, error) {
	return m.attachSource("AddFlowFromSourceSinkToRate", to, from)
}

// AddFlowFromRateToLevel makes level the sink of rate. It returns false if
// level already is the sink; any previous sink is detached.
func (m *Model) AddFlowFromRateToLevel(from RateID, to LevelID) (bool, error) {
	return m.attachSink("AddFlowFromRateToLevel", from, to)
}

// AddFlowFromRateToSourceSink makes a SourceSink node the sink of rate. It
// returns false if that node already is the sink; any previous sink is
// detached.
func (m *Model) AddFlowFromRateToSourceSink(from RateID, to SourceSinkID) (bool, error) {
	return m.attachSink("AddFlowFromRateToSourceSink", from, to)
}

// RemoveFlowFromLevelToRate severs level -> rate. It returns false if that
// edge did not exist.
func (m *Model) RemoveFlowFromLevelToRate(from LevelID, to RateID) (bool, error) {
	return m.detachSource("RemoveFlowFromLevelToRate", to, from)
}

// RemoveFlowFromSourceSinkToRate severs source/sink -> rate
func (m *Model) RemoveFlowFromSourceSinkToRate(from SourceSinkID, to RateID) (bool, error) {
	return m.detachSource("RemoveFlowFromSourceSinkToRate", to, from)
}

// RemoveFlowFromRateToLevel severs rate -> level
func (m *Model) RemoveFlowFromRateToLevel(from RateID, to LevelID) (bool, error) {
	return m.detachSink("RemoveFlowFromRateToLevel", from, to)
}

// RemoveFlowFromRateToSourceSink severs rate -> source/sink
func (m *Model) RemoveFlowFromRateToSourceSink(from RateID, to SourceSinkID) (bool, error) {
	return m.detachSink("RemoveFlowFromRateToSourceSink", from, to)
}

func (m *Model) flowEnds(op string, rate RateID, end FlowEndpoint) (*node, *node, error) {
	if err := m.checkChangeable(op); err != nil {
		return nil, nil, err
	}
	r, err := m.get(op, rate)
	if err != nil {
		return nil, nil, err
	}
	e, err := m.get(op, end)
	if err != nil {
		return nil, nil, err
	}
	return r, e, nil
}

func (m *Model) attachSource(op string, rate RateID, end FlowEndpoint) (bool, error) {
	r, e, err := m.flowEnds(op, rate, end)
	if err != nil {
		return false, err
	}
	if r.source == e.id {
		return false, nil
	}
	if old, ok := m.nodes[r.source]; ok {
		old.outgoing.remove(r.id)
	}
	r.source = e.id
	e.outgoing.add(r.id)
	m.logger.Debug("flow source set", logging.NodeID(uint64(r.id)), logging.Uint64("source", uint64(e.id)))
	return true, nil
}

func (m *Model) attachSink(op string, rate RateID, end FlowEndpoint) (bool, error) {
	r, e, err := m.flowEnds(op, rate, end)
	if err != nil {
		return false, err
	}
	if r.sink == e.id {
		return false, nil
	}
	if old, ok := m.nodes[r.sink]; ok {
		old.incoming.remove(r.id)
	}
	r.sink = e.id
	e.incoming.add(r.id)
	m.logger.Debug("flow sink set", logging.NodeID(uint64(r.id)), logging.Uint64("sink", uint64(e.id)))
	return true, nil
}

func (m *Model) detachSource(op string, rate RateID, end FlowEndpoint) (bool, error) {
	r, e, err := m.flowEnds(op, rate, end)
	if err != nil {
		return false, err
	}
	if r.source != e.id {
		return false, nil
	}
	r.source = 0
	e.outgoing.remove(r.id)
	return true, nil
}

func (m *Model) detachSink(op string, rate RateID, end FlowEndpoint) (bool, error) {
	r, e, err := m.flowEnds(op, rate, end)
	if err != nil {
		return false, err
	}
	if r.sink != e.id {
		return false, nil
	}
	r.sink = 0
	e.incoming.remove(r.id)
	return true, nil
}

// FlowSource returns the source of rate, or nil if it has none
func (m *Model) FlowSource(rate RateID) (FlowEndpoint, error) {
	r, err := m.get("FlowSource", rate)
	if err != nil {
		return nil, err
	}
	return m.endpoint(r.source), nil
}

// FlowSink returns the sink of rate, or nil if it has none
func (m *Model) FlowSink(rate RateID) (FlowEndpoint, error) {
	r, err := m.get("FlowSink", rate)
	if err != nil {
		return nil, err
	}
	return m.endpoint(r.sink), nil
}

func (m *Model) endpoint(id NodeID) FlowEndpoint {
	n, ok := m.nodes[id]
	if !ok {
		return nil
	}
	return endpointFor(n.id, n.kind)
}

// IncomingFlows returns the rates flowing into end, in attach order
func (m *Model) IncomingFlows(end FlowEndpoint) ([]RateID, error) {
	n, err := m.get("IncomingFlows", end)
	if err != nil {
		return nil, err
	}
	return convertIDs[RateID](n.incoming), nil
}

// OutgoingFlows returns the rates flowing out of end, in attach order
func (m *Model) OutgoingFlows(end FlowEndpoint) ([]RateID, error) {
	n, err := m.get("OutgoingFlows", end)
	if err != nil {
		return nil, err
	}
	return convertIDs[RateID](n.outgoing), nil
}
