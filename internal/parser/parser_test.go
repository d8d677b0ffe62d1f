package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyouko-taiga/dyva/internal/ast"
	"github.com/kyouko-taiga/dyva/internal/parser"
	"github.com/kyouko-taiga/dyva/internal/source"
)

func TestParseBindingAndExpressionStatements(t *testing.T) {
	arena := ast.NewArena(0)
	file := source.NewVirtualFile("let x = 1 + 2\nx\n")
	bag := parser.Parse(file, arena, true)
	require.False(t, bag.ContainsError(), "%v", bag.Diagnostics())

	roots := arena.Roots()
	require.Len(t, roots, 2)

	kind, ok := arena.Tag(roots[0].Raw())
	require.True(t, ok)
	assert.Equal(t, ast.KindBindingDeclaration, kind)

	binding := ast.MustGet[ast.BindingDeclaration](arena, roots[0].Raw())
	assert.True(t, binding.Initializer.IsValid())

	kind, ok = arena.Tag(roots[1].Raw())
	require.True(t, ok)
	assert.Equal(t, ast.KindNameExpr, kind)
}

func TestParseFunctionDeclaration(t *testing.T) {
	arena := ast.NewArena(0)
	file := source.NewVirtualFile("fun add(a, b) =\n  a + b\n")
	bag := parser.Parse(file, arena, true)
	require.False(t, bag.ContainsError(), "%v", bag.Diagnostics())

	roots := arena.Roots()
	require.Len(t, roots, 1)
	fn := ast.MustGet[ast.FunctionDeclaration](arena, roots[0].Raw())
	assert.Equal(t, "add", fn.Name)
	assert.True(t, fn.HasBody)
	assert.Len(t, fn.Parameters, 2)
	assert.Len(t, fn.Body, 1)
}

func TestParseConditionalExpression(t *testing.T) {
	arena := ast.NewArena(0)
	file := source.NewVirtualFile("if x > 0 do\n  1\nelse do\n  2\n")
	bag := parser.Parse(file, arena, true)
	require.False(t, bag.ContainsError(), "%v", bag.Diagnostics())

	roots := arena.Roots()
	require.Len(t, roots, 1)
	kind, ok := arena.Tag(roots[0].Raw())
	require.True(t, ok)
	require.Equal(t, ast.KindConditionalExpr, kind)

	cond := ast.MustGet[ast.ConditionalExpr](arena, roots[0].Raw())
	assert.Len(t, cond.Conditions, 1)
	assert.True(t, cond.Else.IsValid())
}

func TestParseMatchExpression(t *testing.T) {
	arena := ast.NewArena(0)
	file := source.NewVirtualFile("match point do\n  case (x: let a, y: let b) do a + b\n  case _ do 0\n")
	bag := parser.Parse(file, arena, true)
	require.False(t, bag.ContainsError(), "%v", bag.Diagnostics())

	roots := arena.Roots()
	require.Len(t, roots, 1)
	m := ast.MustGet[ast.MatchExpr](arena, roots[0].Raw())
	assert.Len(t, m.Cases, 2)
}

func TestParseTupleAndArrayLiterals(t *testing.T) {
	arena := ast.NewArena(0)
	file := source.NewVirtualFile("(1, 2, y: 3)\n[1, 2, 3]\n[1: 2, 3: 4]\n")
	bag := parser.Parse(file, arena, true)
	require.False(t, bag.ContainsError(), "%v", bag.Diagnostics())

	roots := arena.Roots()
	require.Len(t, roots, 3)

	tup := ast.MustGet[ast.TupleLiteralExpr](arena, roots[0].Raw())
	assert.Equal(t, []string{"", "", "y"}, tup.Labels)

	arr := ast.MustGet[ast.ArrayLiteralExpr](arena, roots[1].Raw())
	assert.Len(t, arr.Elements, 3)

	dict := ast.MustGet[ast.DictionaryLiteralExpr](arena, roots[2].Raw())
	assert.Len(t, dict.Keys, 2)
}

func TestParseOperatorNotation(t *testing.T) {
	arena := ast.NewArena(0)
	file := source.NewVirtualFile("-x + y\n")
	bag := parser.Parse(file, arena, true)
	require.False(t, bag.ContainsError(), "%v", bag.Diagnostics())

	roots := arena.Roots()
	require.Len(t, roots, 1)
	outer := ast.MustGet[ast.CallExpr](arena, roots[0].Raw())
	name := ast.MustGet[ast.NameExpr](arena, outer.Callee.Raw())
	assert.Equal(t, "+", name.Name)
	assert.Equal(t, ast.NotationInfix, name.OperatorNotation)

	lhsCall := ast.MustGet[ast.CallExpr](arena, name.Qualification.Raw())
	lhsName := ast.MustGet[ast.NameExpr](arena, lhsCall.Callee.Raw())
	assert.Equal(t, "-", lhsName.Name)
	assert.Equal(t, ast.NotationPrefix, lhsName.OperatorNotation)
}

func TestParseYieldIsContextual(t *testing.T) {
	arena := ast.NewArena(0)
	file := source.NewVirtualFile("subscript first(xs) =\n  yield xs\n")
	bag := parser.Parse(file, arena, true)
	require.False(t, bag.ContainsError(), "%v", bag.Diagnostics())

	fn := ast.MustGet[ast.FunctionDeclaration](arena, arena.Roots()[0].Raw())
	require.Len(t, fn.Body, 1)
	kind, ok := arena.Tag(fn.Body[0].Raw())
	require.True(t, ok)
	assert.Equal(t, ast.KindYieldStatement, kind)
}

func TestParseImportsAreSeparatedFromRoots(t *testing.T) {
	arena := ast.NewArena(0)
	file := source.NewVirtualFile("import collections\nimport a.b.c\nlet x = 1\n")
	bag := parser.Parse(file, arena, true)
	require.False(t, bag.ContainsError(), "%v", bag.Diagnostics())

	imports := arena.Imports()
	require.Len(t, imports, 2)
	second := ast.MustGet[ast.ImportDeclaration](arena, imports[1].Raw())
	assert.Equal(t, "a.b.c", second.Path)

	require.Len(t, arena.Roots(), 1)
}

func TestConsecutiveStatementsOnALineAreDiagnosed(t *testing.T) {
	arena := ast.NewArena(0)
	// Two statements on one line of a block body with no ';' between them
	// are a parse error.
	file := source.NewVirtualFile("fun f() =\n  let x = 1 let y = 2\n")
	bag := parser.Parse(file, arena, true)
	assert.True(t, bag.ContainsError())
}
