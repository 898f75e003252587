// Package formula reads and writes the textual formula syntax, where
// AN(n), CN(n) and LN(n) name Auxiliary, Constant and Level nodes by id.
package formula

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/dd0wney/cluso-stockflow/pkg/ast"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota

	TokenNodeRef  // AN(3), CN(1), LN(2)
	TokenFunction // MAX, MIN, ROUND

	TokenPlus       // +
	TokenMinus      // -
	TokenStar       // *
	TokenSlash      // /
	TokenComma      // ,
	TokenLeftParen  // (
	TokenRightParen // )
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of formula"
	case TokenNodeRef:
		return "node reference"
	case TokenFunction:
		return "function"
	case TokenPlus:
		return "'+'"
	case TokenMinus:
		return "'-'"
	case TokenStar:
		return "'*'"
	case TokenSlash:
		return "'/'"
	case TokenComma:
		return "','"
	case TokenLeftParen:
		return "'('"
	case TokenRightParen:
		return "')'"
	default:
		return "unknown token"
	}
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
	Pos   int // byte offset in the input

	// set for TokenNodeRef
	Kind ast.NodeKind
	ID   int
}

// leaf prefixes that may appear in formula text
var refKinds = map[string]ast.NodeKind{
	"AN": ast.AuxiliaryKind,
	"CN": ast.ConstantKind,
	"LN": ast.LevelKind,
}

var functions = map[string]ast.Operator{
	"MAX":   ast.OpMax,
	"MIN":   ast.OpMin,
	"ROUND": ast.OpRound,
}

// LexError reports a character sequence that is not part of the formula
// language, such as a malformed node id.
type LexError struct {
	Pos int
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s at column %d", e.Msg, e.Pos+1)
}

// Lexer tokenizes a formula string
type Lexer struct {
	input  string
	pos    int
	tokens []Token
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		tokens: make([]Token, 0),
	}
}

// Tokenize converts the input string into tokens, ending with TokenEOF
func (l *Lexer) Tokenize() ([]Token, error) {
	for l.pos < len(l.input) {
		if unicode.IsSpace(rune(l.input[l.pos])) {
			l.pos++
			continue
		}

		token, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, token)
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Pos: l.pos})
	return l.tokens, nil
}

func (l *Lexer) nextToken() (Token, error) {
	start := l.pos
	ch := l.input[l.pos]

	switch ch {
	case '(':
		return l.single(TokenLeftParen), nil
	case ')':
		return l.single(TokenRightParen), nil
	case ',':
		return l.single(TokenComma), nil
	case '+':
		return l.single(TokenPlus), nil
	case '-':
		return l.single(TokenMinus), nil
	case '*':
		return l.single(TokenStar), nil
	case '/':
		return l.single(TokenSlash), nil
	}

	if isLetter(ch) {
		for l.pos < len(l.input) && isLetter(l.input[l.pos]) {
			l.pos++
		}
		word := strings.ToUpper(l.input[start:l.pos])

		if kind, ok := refKinds[word]; ok {
			return l.readNodeRef(start, kind)
		}
		if _, ok := functions[word]; ok {
			return Token{Type: TokenFunction, Value: word, Pos: start}, nil
		}
		return Token{}, &LexError{Pos: start, Msg: fmt.Sprintf("unknown identifier %q", l.input[start:l.pos])}
	}

	return Token{}, &LexError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", ch)}
}

// readNodeRef reads the "(<digits>)" part of a node reference
func (l *Lexer) readNodeRef(start int, kind ast.NodeKind) (Token, error) {
	prefix := l.input[start:l.pos]
	if l.pos >= len(l.input) || l.input[l.pos] != '(' {
		return Token{}, &LexError{Pos: l.pos, Msg: fmt.Sprintf("expected '(' after %s", prefix)}
	}
	l.pos++

	digitsStart := l.pos
	for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
		l.pos++
	}
	digits := l.input[digitsStart:l.pos]
	if digits == "" {
		return Token{}, &LexError{Pos: digitsStart, Msg: fmt.Sprintf("malformed node id in %s reference", prefix)}
	}
	if l.pos >= len(l.input) || l.input[l.pos] != ')' {
		return Token{}, &LexError{Pos: l.pos, Msg: fmt.Sprintf("malformed node id in %s reference", prefix)}
	}
	l.pos++

	id, err := strconv.Atoi(digits)
	if err != nil {
		return Token{}, &LexError{Pos: digitsStart, Msg: fmt.Sprintf("node id %s out of range", digits)}
	}

	return Token{
		Type:  TokenNodeRef,
		Value: l.input[start:l.pos],
		Pos:   start,
		Kind:  kind,
		ID:    id,
	}, nil
}

func (l *Lexer) single(t TokenType) Token {
	tok := Token{Type: t, Value: l.input[l.pos : l.pos+1], Pos: l.pos}
	l.pos++
	return tok
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
