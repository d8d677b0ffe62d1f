package ast

import (
	"testing"

	"github.com/kyouko-taiga/dyva/internal/source"
)

func TestInsertAndCast(t *testing.T) {
	file := source.NewFile("t.dyva", "x")
	a := NewArena(0)

	site := source.Span{File: file, Start: 0, End: 1}
	declID := a.Insert(KindVariableDeclaration, site, &VariableDeclaration{Identifier: "x"})

	if _, ok := Cast[Declaration](a, declID); !ok {
		t.Fatalf("expected VariableDeclaration to cast as Declaration")
	}
	if _, ok := Cast[Pattern](a, declID); !ok {
		t.Fatalf("expected VariableDeclaration to cast as Pattern too")
	}
	if _, ok := Cast[Expression](a, declID); ok {
		t.Fatalf("did not expect VariableDeclaration to cast as Expression")
	}

	payload, ok := Get[VariableDeclaration](a, declID)
	if !ok || payload.Identifier != "x" {
		t.Fatalf("Get returned %+v, ok=%v", payload, ok)
	}
}

func TestModuleScopeSentinel(t *testing.T) {
	scope := ModuleScopeID(3)
	if !scope.IsModuleScope() {
		t.Fatalf("expected module scope identity")
	}
	if scope.Module() != 3 {
		t.Fatalf("module index = %d, want 3", scope.Module())
	}
}

func TestWrongArenaRejected(t *testing.T) {
	a := NewArena(0)
	other := NewArena(1)
	file := source.NewFile("t.dyva", "x")
	site := source.Span{File: file, Start: 0, End: 1}
	id := other.Insert(KindWildcardPattern, site, &WildcardPattern{})

	if _, ok := a.Tag(id); ok {
		t.Fatalf("expected cross-arena id lookup to fail")
	}
}

func TestFunctionScopeCategory(t *testing.T) {
	file := source.NewFile("t.dyva", "fun f()")
	a := NewArena(0)
	site := source.Span{File: file, Start: 0, End: 7}
	fn := a.Insert(KindFunctionDeclaration, site, &FunctionDeclaration{Name: "f"})

	if !a.IsScope(fn) {
		t.Fatalf("expected function declaration to be a scope")
	}
	if _, ok := Cast[Declaration](a, fn); !ok {
		t.Fatalf("expected function declaration to cast as Declaration")
	}
}

func TestStatementAdmitsDeclarationsAndExpressions(t *testing.T) {
	file := source.NewFile("t.dyva", "x")
	a := NewArena(0)
	site := source.Span{File: file, Start: 0, End: 1}
	expr := a.Insert(KindIntegerLiteralExpr, site, &IntegerLiteralExpr{Text: "1"})

	if _, ok := Cast[Statement](a, expr); !ok {
		t.Fatalf("expected an expression to be usable at statement position")
	}
}
