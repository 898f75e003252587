package formula

import (
	"fmt"

	"github.com/dd0wney/cluso-stockflow/pkg/ast"
)

// Tables maps the numeric ids used in formula text to model nodes. Rate and
// SourceSink nodes cannot be named in formula text.
type Tables struct {
	Auxiliaries map[int]ast.Ref
	Constants   map[int]ast.Ref
	Levels      map[int]ast.Ref
}

func (t Tables) lookup(kind ast.NodeKind, id int) (ast.Ref, bool) {
	var table map[int]ast.Ref
	switch kind {
	case ast.AuxiliaryKind:
		table = t.Auxiliaries
	case ast.ConstantKind:
		table = t.Constants
	case ast.LevelKind:
		table = t.Levels
	}
	ref, ok := table[id]
	return ref, ok
}

// ParseError reports well-formed tokens in an invalid arrangement, or a
// reference to a node that does not exist.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return e.Msg
}

// Parse turns formula text such as "MAX(LN(1) - CN(2), AN(3)) * CN(4)" into
// a term. Operators associate to the left; * and / bind tighter than + and -.
func Parse(input string, tables Tables) (ast.Term, error) {
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: tokens, tables: tables}
	return p.Parse()
}

// Parser builds a term from tokens
type Parser struct {
	tokens []Token
	pos    int
	tables Tables
}

// NewParser creates a new parser
func NewParser(tokens []Token, tables Tables) *Parser {
	return &Parser{tokens: tokens, tables: tables}
}

// Parse parses the whole token stream as one expression
func (p *Parser) Parse() (ast.Term, error) {
	if p.peek().Type == TokenEOF {
		return nil, &ParseError{Pos: p.peek().Pos, Msg: "empty formula"}
	}
	term, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, p.unexpected(tok, "end of formula")
	}
	return term, nil
}

// parseExpression parses '+' and '-' chains
func (p *Parser) parseExpression() (ast.Term, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		switch p.peek().Type {
		case TokenPlus:
			p.advance()
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = ast.Plus(left, right)
		case TokenMinus:
			p.advance()
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = ast.Minus(left, right)
		default:
			return left, nil
		}
	}
}

// parseTerm parses '*' and '/' chains
func (p *Parser) parseTerm() (ast.Term, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}

	for {
		switch p.peek().Type {
		case TokenStar:
			p.advance()
			right, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			left = ast.Multiply(left, right)
		case TokenSlash:
			p.advance()
			right, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			left = ast.Divide(left, right)
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseFactor() (ast.Term, error) {
	tok := p.peek()
	switch tok.Type {
	case TokenNodeRef:
		p.advance()
		ref, ok := p.tables.lookup(tok.Kind, tok.ID)
		if !ok {
			return nil, &ParseError{
				Pos: tok.Pos,
				Msg: fmt.Sprintf("%s node with Id %d does not exist.", tok.Kind, tok.ID),
			}
		}
		return ast.NewLeaf(ref), nil

	case TokenLeftParen:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return inner, nil

	case TokenFunction:
		return p.parseFunction()

	default:
		return nil, p.unexpected(tok, "node reference, function or '('")
	}
}

// parseFunction parses NAME '(' expr ',' expr ')'
func (p *Parser) parseFunction() (ast.Term, error) {
	name := p.advance()
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenComma); err != nil {
		return nil, err
	}
	second, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}

	switch functions[name.Value] {
	case ast.OpMax:
		return ast.Max(first, second), nil
	case ast.OpMin:
		return ast.Min(first, second), nil
	default:
		return ast.Round(first, second), nil
	}
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(t TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != t {
		return Token{}, p.unexpected(tok, t.String())
	}
	return p.advance(), nil
}

func (p *Parser) unexpected(tok Token, want string) error {
	got := tok.Type.String()
	if tok.Value != "" {
		got = fmt.Sprintf("%q", tok.Value)
	}
	return &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf("expected %s but found %s at column %d", want, got, tok.Pos+1)}
}
