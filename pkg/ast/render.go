package ast

import "strings"

// Namer resolves the display name of a referenced node
type Namer interface {
	Name(ref Ref) string
}

// Render prints t with leaves as "<name>(<abbrev>)", e.g. "A(CN) + B(LN)".
func Render(t Term, namer Namer) string {
	return RenderWith(t, func(ref Ref) string {
		return namer.Name(ref) + "(" + ref.Kind.Abbrev() + ")"
	})
}

// RenderWith prints t using leafText for the leaves.
//
// Infix operators get the fewest parentheses that keep the tree shape:
// a child binding looser than its parent is wrapped, and so is a right child
// of equal precedence because the operators associate to the left.
func RenderWith(t Term, leafText func(Ref) string) string {
	var sb strings.Builder
	writeTerm(&sb, t, leafText)
	return sb.String()
}

func writeTerm(sb *strings.Builder, t Term, leafText func(Ref) string) {
	switch n := t.(type) {
	case Leaf:
		sb.WriteString(leafText(n.Ref))
	case *Binary:
		if n.Op.isFunction() {
			sb.WriteString(n.Op.String())
			sb.WriteByte('(')
			writeTerm(sb, n.Left, leafText)
			sb.WriteString(", ")
			writeTerm(sb, n.Right, leafText)
			sb.WriteByte(')')
			return
		}
		writeChild(sb, n.Left, n.Op, false, leafText)
		sb.WriteByte(' ')
		sb.WriteString(n.Op.String())
		sb.WriteByte(' ')
		writeChild(sb, n.Right, n.Op, true, leafText)
	default:
		sb.WriteString("<nil>")
	}
}

func writeChild(sb *strings.Builder, child Term, parent Operator, right bool, leafText func(Ref) string) {
	if needsParens(child, parent, right) {
		sb.WriteByte('(')
		writeTerm(sb, child, leafText)
		sb.WriteByte(')')
		return
	}
	writeTerm(sb, child, leafText)
}

func needsParens(child Term, parent Operator, right bool) bool {
	b, ok := child.(*Binary)
	if !ok || b.Op.isFunction() {
		return false
	}
	if b.Op.precedence() < parent.precedence() {
		return true
	}
	return right && b.Op.precedence() == parent.precedence()
}
