package formula

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-stockflow/pkg/ast"
)

// ErrNotExpressible is returned by Format for leaves that have no textual form
var ErrNotExpressible = errors.New("term cannot be written as formula text")

// Format writes t in the syntax accepted by Parse. idOf maps each leaf to the
// numeric id used in text; Rate leaves and refs idOf does not know fail with
// ErrNotExpressible.
func Format(t ast.Term, idOf func(ast.Ref) (int, bool)) (string, error) {
	if t == nil {
		return "", fmt.Errorf("%w: nil term", ErrNotExpressible)
	}
	var firstErr error
	text := ast.RenderWith(t, func(ref ast.Ref) string {
		if ref.Kind == ast.RateKind {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: rate leaf %s", ErrNotExpressible, ref)
			}
			return "?"
		}
		id, ok := idOf(ref)
		if !ok {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: unknown leaf %s", ErrNotExpressible, ref)
			}
			return "?"
		}
		return fmt.Sprintf("%s(%d)", ref.Kind.Abbrev(), id)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return text, nil
}

