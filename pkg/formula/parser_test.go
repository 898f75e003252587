package formula

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-stockflow/pkg/ast"
)

var (
	c1 = ast.NewLeaf(ast.Ref{ID: 10, Kind: ast.ConstantKind})
	l2 = ast.NewLeaf(ast.Ref{ID: 20, Kind: ast.LevelKind})
	a3 = ast.NewLeaf(ast.Ref{ID: 30, Kind: ast.AuxiliaryKind})
)

func testTables() Tables {
	return Tables{
		Constants:   map[int]ast.Ref{1: c1.Ref},
		Levels:      map[int]ast.Ref{2: l2.Ref},
		Auxiliaries: map[int]ast.Ref{3: a3.Ref},
	}
}

func testIDs(ref ast.Ref) (int, bool) {
	switch ref {
	case c1.Ref:
		return 1, true
	case l2.Ref:
		return 2, true
	case a3.Ref:
		return 3, true
	}
	return 0, false
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  ast.Term
	}{
		{"CN(1)", c1},
		{"CN(1) + LN(2) * AN(3)", ast.Plus(c1, ast.Multiply(l2, a3))},
		{"CN(1) * LN(2) + AN(3)", ast.Plus(ast.Multiply(c1, l2), a3)},
		{"CN(1) - LN(2) - AN(3)", ast.Minus(ast.Minus(c1, l2), a3)},
		{"CN(1) - (LN(2) - AN(3))", ast.Minus(c1, ast.Minus(l2, a3))},
		{"CN(1) / LN(2) / AN(3)", ast.Divide(ast.Divide(c1, l2), a3)},
		{"(CN(1) + LN(2)) * AN(3)", ast.Multiply(ast.Plus(c1, l2), a3)},
		{"((CN(1)))", c1},
		{"MAX(CN(1), LN(2))", ast.Max(c1, l2)},
		{"min(cn(1), an(3) + ln(2))", ast.Min(c1, ast.Plus(a3, l2))},
		{"MAX(MIN(CN(1), LN(2)), ROUND(AN(3), CN(1)))", ast.Max(ast.Min(c1, l2), ast.Round(a3, c1))},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input, testTables())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_UnknownNode(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"AN(9)", "Auxiliary node with Id 9 does not exist."},
		{"CN(1) + CN(7)", "Constant node with Id 7 does not exist."},
		{"MAX(LN(2), LN(3))", "Level node with Id 3 does not exist."},
		// ids are looked up per kind
		{"LN(1)", "Level node with Id 1 does not exist."},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input, testTables())
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "got %v", err)
			assert.Equal(t, tt.msg, parseErr.Error())
		})
	}
}

func TestParseErrors(t *testing.T) {
	parseErrors := []string{
		"",
		"   ",
		"CN(1) +",
		"CN(1) CN(1)",
		"(CN(1)",
		"CN(1))",
		"MAX(CN(1))",
		"MAX CN(1), CN(1)",
		"MAX(CN(1), CN(1)",
		"* CN(1)",
		"-CN(1)",
	}
	for _, input := range parseErrors {
		t.Run("parse/"+input, func(t *testing.T) {
			_, err := Parse(input, testTables())
			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr), "got %v", err)
		})
	}

	lexErrors := []string{"CN(a)", "ROUND(LN(2) / CN(1), AN(3)) * 2MAX", "CN(1) ^ CN(1)"}
	for _, input := range lexErrors {
		t.Run("lex/"+input, func(t *testing.T) {
			_, err := Parse(input, testTables())
			var lexErr *LexError
			assert.True(t, errors.As(err, &lexErr), "got %v", err)
		})
	}
}

func TestParse_ErrorMentionsColumn(t *testing.T) {
	_, err := Parse("CN(1) + )", testTables())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column 9")
}

func TestFormat_RoundTrip(t *testing.T) {
	inputs := []string{
		"CN(1)",
		"CN(1) + LN(2) * AN(3)",
		"CN(1) - (LN(2) - AN(3))",
		"(CN(1) + LN(2)) * AN(3)",
		"MAX(LN(2) - CN(1), AN(3)) * (CN(1) + AN(3))",
		"ROUND(LN(2) / CN(1), MIN(AN(3), CN(1)))",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			term, err := Parse(input, testTables())
			require.NoError(t, err)

			text, err := Format(term, testIDs)
			require.NoError(t, err)
			assert.Equal(t, input, text)

			again, err := Parse(text, testTables())
			require.NoError(t, err)
			assert.Equal(t, term, again)
		})
	}
}

func TestFormat_Errors(t *testing.T) {
	rate := ast.NewLeaf(ast.Ref{ID: 40, Kind: ast.RateKind})
	_, err := Format(ast.Plus(c1, rate), testIDs)
	assert.ErrorIs(t, err, ErrNotExpressible)

	stranger := ast.NewLeaf(ast.Ref{ID: 50, Kind: ast.ConstantKind})
	_, err = Format(stranger, testIDs)
	assert.ErrorIs(t, err, ErrNotExpressible)

	_, err = Format(nil, testIDs)
	assert.ErrorIs(t, err, ErrNotExpressible)
}
