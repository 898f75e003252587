package modelfile

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Position is a 1-based line and column in a model file
type Position struct {
	Line   int
	Column int
}

// PositionError ties an error to the model file entry that caused it. The
// original error is kept unchanged and is reachable through errors.Is and
// errors.As.
type PositionError struct {
	Line   int
	Column int
	Err    error
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("line %d, column %d: %v", e.Line, e.Column, e.Err)
}

func (e *PositionError) Unwrap() error {
	return e.Err
}

func errorAt(pos Position, err error) error {
	if pos.Line == 0 {
		return err
	}
	return &PositionError{Line: pos.Line, Column: pos.Column, Err: err}
}

// entryPosition records where an entry starts and where its formula and flow
// ends are written
type entryPosition struct {
	entry   Position
	formula Position
	from    Position
	to      Position
}

// sectionIndex maps a top-level key ("rates") to the positions of its
// entries, in file order
type sectionIndex map[string][]entryPosition

func (idx sectionIndex) at(section string, i int) entryPosition {
	entries := idx[section]
	if i < 0 || i >= len(entries) {
		return entryPosition{}
	}
	return entries[i]
}

func positionOf(n *yaml.Node) Position {
	if n == nil {
		return Position{}
	}
	return Position{Line: n.Line, Column: n.Column}
}

// indexSections walks the parsed document and records the position of every
// entry of every list section.
func indexSections(doc *yaml.Node) sectionIndex {
	idx := make(sectionIndex)
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return idx
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, seq := root.Content[i], root.Content[i+1]
		if seq.Kind != yaml.SequenceNode {
			continue
		}
		entries := make([]entryPosition, 0, len(seq.Content))
		for _, item := range seq.Content {
			ep := entryPosition{entry: positionOf(item)}
			if item.Kind == yaml.MappingNode {
				for j := 0; j+1 < len(item.Content); j += 2 {
					val := item.Content[j+1]
					switch item.Content[j].Value {
					case "formula":
						ep.formula = positionOf(val)
					case "from":
						ep.from = positionOf(val)
					case "to":
						ep.to = positionOf(val)
					}
				}
			}
			entries = append(entries, ep)
		}
		idx[key.Value] = entries
	}
	return idx
}

// orEntry falls back to the entry position when a field was not written
func (p Position) orEntry(ep entryPosition) Position {
	if p.Line == 0 {
		return ep.entry
	}
	return p
}
