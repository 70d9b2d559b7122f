package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardity-org/cardity-wasm/pkg/ast"
)

func TestParseAssignment(t *testing.T) {
	stmts, err := ParseBody("state.msg = params.new_msg")
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	assign, ok := stmts[0].(ast.Assign)
	require.True(t, ok)
	require.Equal(t, "state.msg", assign.Target.Name)
	require.Equal(t, ast.Var{Name: "params.new_msg"}, assign.Value)
}

func TestParseStatementSequence(t *testing.T) {
	stmts, err := ParseBody("state.a = 1; state.b = 2; state.c")
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	require.IsType(t, ast.Assign{}, stmts[0])
	require.IsType(t, ast.Assign{}, stmts[1])
	require.IsType(t, ast.ExprStmt{}, stmts[2])
}

func TestParseIfWithEmit(t *testing.T) {
	stmts, err := ParseBody(`state.n = state.n + 1; if (state.n > 2) { emit Overflow("2") }`)
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	ifStmt, ok := stmts[1].(ast.If)
	require.True(t, ok)
	cond, ok := ifStmt.Cond.(ast.BinOp)
	require.True(t, ok)
	require.Equal(t, ">", cond.Op)
	require.Len(t, ifStmt.Body, 1)

	emit, ok := ifStmt.Body[0].(ast.Emit)
	require.True(t, ok)
	require.Equal(t, "Overflow", emit.Name)
	require.Equal(t, []ast.Expr{ast.Literal{Kind: ast.LiteralString, Raw: "2"}}, emit.Args)
}

func TestParseNestedIf(t *testing.T) {
	stmts, err := ParseBody("if (a) { if (b) { state.x = 1 }; state.y = 2 }")
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	outer := stmts[0].(ast.If)
	require.Len(t, outer.Body, 2)
	require.IsType(t, ast.If{}, outer.Body[0])
	require.IsType(t, ast.Assign{}, outer.Body[1])
}

// Separators inside string literals are the failure mode of
// substring-based scanning: the parser must treat them as literal text.
func TestParseSeparatorsInsideStrings(t *testing.T) {
	stmts, err := ParseBody(`state.msg = "a = b; c"; emit Logged("x;y", state.msg)`)
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	assign := stmts[0].(ast.Assign)
	require.Equal(t, ast.Literal{Kind: ast.LiteralString, Raw: "a = b; c"}, assign.Value)

	emit := stmts[1].(ast.Emit)
	require.Equal(t, "Logged", emit.Name)
	require.Len(t, emit.Args, 2)
	require.Equal(t, ast.Literal{Kind: ast.LiteralString, Raw: "x;y"}, emit.Args[0])
}

func TestParsePrecedence(t *testing.T) {
	expr, err := ParseExpr("1 + 2 * 3 == 7 && !done")
	require.NoError(t, err)

	and, ok := expr.(ast.BinOp)
	require.True(t, ok)
	require.Equal(t, "&&", and.Op)

	eq, ok := and.Left.(ast.BinOp)
	require.True(t, ok)
	require.Equal(t, "==", eq.Op)

	plus, ok := eq.Left.(ast.BinOp)
	require.True(t, ok)
	require.Equal(t, "+", plus.Op)

	times, ok := plus.Right.(ast.BinOp)
	require.True(t, ok)
	require.Equal(t, "*", times.Op)

	not, ok := and.Right.(ast.UnaryOp)
	require.True(t, ok)
	require.Equal(t, "!", not.Op)
}

func TestParseParenthesesOverridePrecedence(t *testing.T) {
	expr, err := ParseExpr("(1 + 2) * 3")
	require.NoError(t, err)

	times := expr.(ast.BinOp)
	require.Equal(t, "*", times.Op)
	plus, ok := times.Left.(ast.BinOp)
	require.True(t, ok)
	require.Equal(t, "+", plus.Op)
}

func TestParseUnaryMinus(t *testing.T) {
	expr, err := ParseExpr("-x + 1")
	require.NoError(t, err)

	plus := expr.(ast.BinOp)
	neg, ok := plus.Left.(ast.UnaryOp)
	require.True(t, ok)
	require.Equal(t, "-", neg.Op)
	require.Equal(t, ast.Var{Name: "x"}, neg.X)
}

func TestParseExprRejectsStatementForms(t *testing.T) {
	_, err := ParseExpr("state.x = 1")
	require.Error(t, err)

	_, err = ParseExpr(`emit Done("1")`)
	require.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unclosed if":     "if (x) { state.a = 1",
		"missing cond":    "if { state.a = 1 }",
		"bad assign lhs":  "1 + 2 = 3",
		"dangling op":     "state.a = 1 +",
		"unclosed paren":  "state.a = (1 + 2",
		"emit no parens":  "emit Overflow",
		"double operator": "state.a = 1 + * 2",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBody(src)
			require.Error(t, err)
			var perr *Error
			require.ErrorAs(t, err, &perr)
		})
	}
}

func TestParseEmptyAndTrailingSemis(t *testing.T) {
	stmts, err := ParseBody("; ; state.a = 1; ;")
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	stmts, err = ParseBody("")
	require.NoError(t, err)
	require.Empty(t, stmts)
}
