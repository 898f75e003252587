package formula

import (
	"errors"
	"testing"

	"github.com/dd0wney/cluso-stockflow/pkg/ast"
)

func TestLexerTokens(t *testing.T) {
	tokens, err := NewLexer("MAX(ln(12), CN(3)) * AN(4) - (CN(1) / LN(2)) + x").Tokenize()
	if err == nil {
		t.Fatalf("expected error for stray identifier, got tokens %v", tokens)
	}

	tokens, err = NewLexer("MAX(ln(12), CN(3)) * AN(4) - (CN(1) / LN(2))").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	expected := []TokenType{
		TokenFunction, TokenLeftParen, TokenNodeRef, TokenComma, TokenNodeRef, TokenRightParen,
		TokenStar, TokenNodeRef, TokenMinus,
		TokenLeftParen, TokenNodeRef, TokenSlash, TokenNodeRef, TokenRightParen,
		TokenEOF,
	}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, token := range tokens {
		if token.Type != expected[i] {
			t.Errorf("Token %d: expected type %v, got %v", i, expected[i], token.Type)
		}
	}

	ref := tokens[2]
	if ref.Kind != ast.LevelKind || ref.ID != 12 || ref.Value != "ln(12)" || ref.Pos != 4 {
		t.Errorf("unexpected node ref token %+v", ref)
	}
	if tokens[0].Value != "MAX" {
		t.Errorf("function token value = %q, want MAX", tokens[0].Value)
	}
}

func TestLexerWhitespace(t *testing.T) {
	tokens, err := NewLexer("  CN(1)\t+\nCN(2)  ").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if len(tokens) != 4 {
		t.Fatalf("Expected 4 tokens, got %d", len(tokens))
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input string
		pos   int
	}{
		{"CN(x)", 3},
		{"CN()", 3},
		{"CN(1", 4},
		{"CN 1", 2},
		{"LN(1.5)", 4},
		{"AN(-1)", 3},
		{"CN(1) + 3", 8},
		{"RN(1)", 0},
		{"SQRT(CN(1))", 0},
		{"CN(1) % CN(2)", 6},
		{"CN(99999999999999999999999)", 3},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := NewLexer(tt.input).Tokenize()
			var lexErr *LexError
			if !errors.As(err, &lexErr) {
				t.Fatalf("expected *LexError, got %v", err)
			}
			if lexErr.Pos != tt.pos {
				t.Errorf("Pos = %d, want %d (%v)", lexErr.Pos, tt.pos, lexErr)
			}
		})
	}
}
