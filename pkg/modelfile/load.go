package modelfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-stockflow/pkg/ast"
	"github.com/dd0wney/cluso-stockflow/pkg/formula"
	"github.com/dd0wney/cluso-stockflow/pkg/model"
	"github.com/dd0wney/cluso-stockflow/pkg/validation"
)

var (
	// ErrEmptyFile is returned when a model file holds no document
	ErrEmptyFile = errors.New("model file is empty")

	// ErrBadReference is returned for node references that are not of the
	// form KIND(<id>)
	ErrBadReference = errors.New("malformed node reference")
)

// Document is a model built from a file, together with the file ids and
// positions of its nodes.
type Document struct {
	Model *model.Model
	File  *File

	tables      formula.Tables
	sourceSinks map[int]model.SourceSinkID
	rates       map[int]model.RateID
	fileIDs     map[model.NodeID]int
	positions   map[model.NodeID]entryPosition
}

// LoadFile reads the model file at path
func LoadFile(path string, opts ...model.Option) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	doc, err := Load(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Load reads a model file and builds a changeable model from it. Nodes are
// created kind by kind (constants, levels, source/sinks, auxiliaries, rates)
// in file order; flows are wired as rates are created and formulas are
// attached once every node exists. The model name from the file is applied
// before opts.
func Load(r io.Reader, opts ...model.Option) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, ErrEmptyFile
	}

	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode model file: %w", err)
	}
	if err := validation.Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid model file: %w", err)
	}

	opts = append([]model.Option{model.WithName(file.Name)}, opts...)
	d := &Document{
		Model: model.New(opts...),
		File:  &file,
		tables: formula.Tables{
			Auxiliaries: make(map[int]ast.Ref),
			Constants:   make(map[int]ast.Ref),
			Levels:      make(map[int]ast.Ref),
		},
		sourceSinks: make(map[int]model.SourceSinkID),
		rates:       make(map[int]model.RateID),
		fileIDs:     make(map[model.NodeID]int),
		positions:   make(map[model.NodeID]entryPosition),
	}
	if err := d.build(indexSections(&root)); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Document) remember(h model.Handle, fileID int, pos entryPosition) {
	d.fileIDs[h.NodeID()] = fileID
	d.positions[h.NodeID()] = pos
}

func (d *Document) build(idx sectionIndex) error {
	m := d.Model

	for i, e := range d.File.Constants {
		pos := idx.at("constants", i)
		id, err := m.CreateConstantNode(e.Name, e.Value)
		if err != nil {
			return errorAt(pos.entry, err)
		}
		d.tables.Constants[e.ID] = id.Ref()
		d.remember(id, e.ID, pos)
	}

	for i, e := range d.File.Levels {
		pos := idx.at("levels", i)
		id, err := m.CreateLevelNode(e.Name, e.Start)
		if err != nil {
			return errorAt(pos.entry, err)
		}
		d.tables.Levels[e.ID] = id.Ref()
		d.remember(id, e.ID, pos)
	}

	for i, e := range d.File.SourceSinks {
		pos := idx.at("sourceSinks", i)
		id, err := m.CreateSourceSinkNode()
		if err != nil {
			return errorAt(pos.entry, err)
		}
		d.sourceSinks[e.ID] = id
		d.remember(id, e.ID, pos)
	}

	auxiliaries := make([]model.AuxiliaryID, len(d.File.Auxiliaries))
	for i, e := range d.File.Auxiliaries {
		pos := idx.at("auxiliaries", i)
		id, err := m.CreateAuxiliaryNode(e.Name)
		if err != nil {
			return errorAt(pos.entry, err)
		}
		auxiliaries[i] = id
		d.tables.Auxiliaries[e.ID] = id.Ref()
		d.remember(id, e.ID, pos)
	}

	rates := make([]model.RateID, len(d.File.Rates))
	for i, e := range d.File.Rates {
		pos := idx.at("rates", i)
		id, err := m.CreateRateNode(e.Name)
		if err != nil {
			return errorAt(pos.entry, err)
		}
		rates[i] = id
		d.rates[e.ID] = id
		d.remember(id, e.ID, pos)

		if err := d.wireFlows(id, e, pos); err != nil {
			return err
		}
	}

	for i, e := range d.File.Auxiliaries {
		if err := d.attachFormula(auxiliaries[i], e.Formula, idx.at("auxiliaries", i)); err != nil {
			return err
		}
	}
	for i, e := range d.File.Rates {
		if err := d.attachFormula(rates[i], e.Formula, idx.at("rates", i)); err != nil {
			return err
		}
	}
	return nil
}

// wireFlows connects the rate to its from and to ends. Errors point at the
// offending field.
func (d *Document) wireFlows(rate model.RateID, e RateEntry, pos entryPosition) error {
	if e.From != "" {
		end, err := d.endpoint(e.From)
		if err == nil {
			switch end := end.(type) {
			case model.LevelID:
				_, err = d.Model.AddFlowFromLevelToRate(end, rate)
			case model.SourceSinkID:
				_, err = d.Model.AddFlowFromSourceSinkToRate(end, rate)
			}
		}
		if err != nil {
			return errorAt(pos.from.orEntry(pos), fmt.Errorf("from: %w", err))
		}
	}
	if e.To != "" {
		end, err := d.endpoint(e.To)
		if err == nil {
			switch end := end.(type) {
			case model.LevelID:
				_, err = d.Model.AddFlowFromRateToLevel(rate, end)
			case model.SourceSinkID:
				_, err = d.Model.AddFlowFromRateToSourceSink(rate, end)
			}
		}
		if err != nil {
			return errorAt(pos.to.orEntry(pos), fmt.Errorf("to: %w", err))
		}
	}
	return nil
}

func (d *Document) endpoint(text string) (model.FlowEndpoint, error) {
	h, err := d.Resolve(text)
	if err != nil {
		return nil, err
	}
	end, ok := h.(model.FlowEndpoint)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a level or source/sink", model.ErrInvalidArgument, text)
	}
	return end, nil
}

func (d *Document) attachFormula(h model.FormulaHolder, text string, pos entryPosition) error {
	if text == "" {
		return nil
	}
	term, err := formula.Parse(text, d.tables)
	if err != nil {
		return errorAt(pos.formula.orEntry(pos), err)
	}
	if err := d.Model.SetFormula(h, term); err != nil {
		return errorAt(pos.formula.orEntry(pos), err)
	}
	return nil
}

// Validate runs the model validator; failures about a specific node are
// wrapped in a *PositionError for that node's entry.
func (d *Document) Validate() error {
	return d.Locate(d.Model.ValidateModel())
}

// Lock validates the model and freezes it for simulation
func (d *Document) Lock() (*model.Simulation, error) {
	sim, err := d.Model.Lock()
	if err != nil {
		return nil, d.Locate(err)
	}
	return sim, nil
}

// PositionOf returns where the node was defined in the file
func (d *Document) PositionOf(h model.Handle) (Position, bool) {
	if h == nil {
		return Position{}, false
	}
	pos, ok := d.positions[h.NodeID()]
	return pos.entry, ok
}

// FileID returns the id the file uses for the node
func (d *Document) FileID(h model.Handle) (int, bool) {
	if h == nil {
		return 0, false
	}
	id, ok := d.fileIDs[h.NodeID()]
	return id, ok
}

// Locate wraps err in a *PositionError when it is about a node defined in
// the file. Errors about no particular node are returned unchanged.
func (d *Document) Locate(err error) error {
	if err == nil {
		return nil
	}
	h, ok := model.OffendingNode(err)
	if !ok {
		return err
	}
	pos, ok := d.PositionOf(h)
	if !ok {
		return err
	}
	return errorAt(pos, err)
}
