package scope

import (
	"testing"

	"github.com/kyouko-taiga/dyva/internal/ast"
	"github.com/kyouko-taiga/dyva/internal/source"
)

func TestResolveRecordsParentAndDeclarations(t *testing.T) {
	file := source.NewFile("t.dyva", "fun f() x")
	a := ast.NewArena(0)
	site := source.Span{File: file, Start: 0, End: 9}

	varDecl := a.Insert(ast.KindVariableDeclaration, site, &ast.VariableDeclaration{Identifier: "x"})
	bindingPattern := a.Insert(ast.KindBindingPattern, site, &ast.BindingPattern{
		Introducer: ast.BindLet,
		SubPattern: ast.Untyped[ast.Pattern](varDecl),
	})
	binding := a.Insert(ast.KindBindingDeclaration, site, &ast.BindingDeclaration{
		Pattern: ast.Untyped[ast.Pattern](bindingPattern),
	})
	bindingStmt := ast.Untyped[ast.Statement](binding)

	fn := a.Insert(ast.KindFunctionDeclaration, site, &ast.FunctionDeclaration{
		Name:    "f",
		Body:    []ast.StatementID{bindingStmt},
		HasBody: true,
	})

	a.SetRoots(nil, []ast.StatementID{ast.Untyped[ast.Statement](fn)})

	Resolve(a)

	fnParent, ok := a.Parent(fn)
	if !ok || fnParent != a.ModuleScope() {
		t.Fatalf("function parent = %v, ok=%v, want module scope", fnParent, ok)
	}

	bindingParent, ok := a.Parent(binding)
	if !ok || bindingParent != fn {
		t.Fatalf("binding parent = %v, ok=%v, want function scope", bindingParent, ok)
	}

	decls := a.Declarations(fn)
	if len(decls) != 2 {
		t.Fatalf("function scope declarations = %v, want 2 (binding + variable)", decls)
	}
	if decls[0] != binding {
		t.Errorf("first declaration = %v, want binding %v", decls[0], binding)
	}
	if decls[1] != varDecl {
		t.Errorf("second declaration = %v, want variable %v", decls[1], varDecl)
	}

	moduleDecls := a.Declarations(a.ModuleScope())
	if len(moduleDecls) != 1 || moduleDecls[0] != fn {
		t.Fatalf("module declarations = %v, want [fn]", moduleDecls)
	}
}
