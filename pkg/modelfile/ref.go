package modelfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-stockflow/pkg/ast"
	"github.com/dd0wney/cluso-stockflow/pkg/model"
)

// sourceSinkPrefix is how flow ends name a source/sink ("SS(1)"); the
// longer abbreviation "SSN(1)" is accepted as well
const sourceSinkPrefix = "SS"

// Resolve maps a textual reference such as "AN(3)", "RN(1)" or "SS(2)" to the
// handle of the node the file defined with that id.
func (d *Document) Resolve(text string) (model.Handle, error) {
	prefix, id, err := splitRef(text)
	if err != nil {
		return nil, err
	}

	var ref ast.Ref
	var ok bool
	switch prefix {
	case ast.ConstantKind.Abbrev():
		ref, ok = d.tables.Constants[id]
	case ast.LevelKind.Abbrev():
		ref, ok = d.tables.Levels[id]
	case ast.AuxiliaryKind.Abbrev():
		ref, ok = d.tables.Auxiliaries[id]
	case ast.RateKind.Abbrev():
		var rate model.RateID
		if rate, ok = d.rates[id]; ok {
			return rate, nil
		}
	case sourceSinkPrefix, ast.SourceSinkKind.Abbrev():
		var ss model.SourceSinkID
		if ss, ok = d.sourceSinks[id]; ok {
			return ss, nil
		}
	default:
		return nil, fmt.Errorf("%w: unknown node kind %q in %q", ErrBadReference, prefix, text)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNodeNotFound, text)
	}
	h, _ := d.Model.Lookup(ref.ID)
	return h, nil
}

func splitRef(text string) (string, int, error) {
	s := strings.ToUpper(strings.TrimSpace(text))
	prefix, rest, ok := strings.Cut(s, "(")
	if !ok || !strings.HasSuffix(rest, ")") {
		return "", 0, fmt.Errorf("%w: %q", ErrBadReference, text)
	}
	id, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(rest, ")")))
	if err != nil || id < 1 {
		return "", 0, fmt.Errorf("%w: %q", ErrBadReference, text)
	}
	return strings.TrimSpace(prefix), id, nil
}

func endpointText(id int, kind ast.NodeKind) string {
	if kind == ast.SourceSinkKind {
		return fmt.Sprintf("%s(%d)", sourceSinkPrefix, id)
	}
	return fmt.Sprintf("%s(%d)", kind.Abbrev(), id)
}
