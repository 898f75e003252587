package modelfile

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-stockflow/pkg/ast"
	"github.com/dd0wney/cluso-stockflow/pkg/formula"
	"github.com/dd0wney/cluso-stockflow/pkg/model"
)

// Marshal writes m as a model file. File ids are assigned per kind in
// creation order starting at 1. Formulas that read a Rate node cannot be
// written and fail with formula.ErrNotExpressible.
func Marshal(m *model.Model) ([]byte, error) {
	file, err := ToFile(m)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(file)
}

// Write marshals m to w
func Write(w io.Writer, m *model.Model) error {
	file, err := ToFile(m)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to encode model file: %w", err)
	}
	return enc.Close()
}

// ToFile converts m to its file form
func ToFile(m *model.Model) (*File, error) {
	ids := make(map[model.NodeID]int)
	number := func(hs []model.NodeID) {
		for i, id := range hs {
			ids[id] = i + 1
		}
	}
	number(nodeIDs(m.ConstantNodes()))
	number(nodeIDs(m.LevelNodes()))
	number(nodeIDs(m.SourceSinkNodes()))
	number(nodeIDs(m.AuxiliaryNodes()))
	number(nodeIDs(m.RateNodes()))

	idOf := func(ref ast.Ref) (int, bool) {
		id, ok := ids[ref.ID]
		return id, ok
	}

	file := &File{Name: m.Name()}

	for _, h := range m.ConstantNodes() {
		name, err := m.NodeName(h)
		if err != nil {
			return nil, err
		}
		value, err := m.ConstantValue(h)
		if err != nil {
			return nil, err
		}
		file.Constants = append(file.Constants, ConstantEntry{ID: ids[h.NodeID()], Name: name, Value: value})
	}

	for _, h := range m.LevelNodes() {
		name, err := m.NodeName(h)
		if err != nil {
			return nil, err
		}
		start, err := m.StartValue(h)
		if err != nil {
			return nil, err
		}
		file.Levels = append(file.Levels, LevelEntry{ID: ids[h.NodeID()], Name: name, Start: start})
	}

	for _, h := range m.SourceSinkNodes() {
		file.SourceSinks = append(file.SourceSinks, SourceSinkEntry{ID: ids[h.NodeID()]})
	}

	for _, h := range m.AuxiliaryNodes() {
		name, err := m.NodeName(h)
		if err != nil {
			return nil, err
		}
		text, err := formulaText(m, h, idOf)
		if err != nil {
			return nil, err
		}
		file.Auxiliaries = append(file.Auxiliaries, AuxiliaryEntry{ID: ids[h.NodeID()], Name: name, Formula: text})
	}

	for _, h := range m.RateNodes() {
		name, err := m.NodeName(h)
		if err != nil {
			return nil, err
		}
		text, err := formulaText(m, h, idOf)
		if err != nil {
			return nil, err
		}
		entry := RateEntry{ID: ids[h.NodeID()], Name: name, Formula: text}
		if src, err := m.FlowSource(h); err != nil {
			return nil, err
		} else if src != nil {
			entry.From = endpointText(ids[src.NodeID()], src.Kind())
		}
		if sink, err := m.FlowSink(h); err != nil {
			return nil, err
		} else if sink != nil {
			entry.To = endpointText(ids[sink.NodeID()], sink.Kind())
		}
		file.Rates = append(file.Rates, entry)
	}

	return file, nil
}

func formulaText(m *model.Model, h model.FormulaHolder, idOf func(ast.Ref) (int, bool)) (string, error) {
	term, err := m.Formula(h)
	if err != nil || term == nil {
		return "", err
	}
	text, err := formula.Format(term, idOf)
	if err != nil {
		label, _ := m.Label(h)
		return "", fmt.Errorf("formula of %s: %w", label, err)
	}
	return text, nil
}

func nodeIDs[H model.Handle](hs []H) []model.NodeID {
	out := make([]model.NodeID, len(hs))
	for i, h := range hs {
		out[i] = h.NodeID()
	}
	return out
}
