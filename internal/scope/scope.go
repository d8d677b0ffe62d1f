// Package scope implements the scoper pass: a single pre-order visitor
// walk that records, for every node, its innermost enclosing scope, and
// for every scope, the declarations directly nested in it (spec.md §4.5).
package scope

import (
	"github.com/kyouko-taiga/dyva/internal/ast"
	"github.com/kyouko-taiga/dyva/internal/visitor"
)

// Resolve walks module's top-level imports and statements, filling
// arena.Parent and arena.Declarations for every reachable node. The module
// itself (ast.ModuleScopeID) is the outermost scope and is never given a
// parent.
func Resolve(arena *ast.Arena) {
	s := &scoper{arena: arena, stack: []ast.NodeID{arena.ModuleScope()}}
	for _, imp := range arena.Imports() {
		visitor.Walk(arena, imp.Raw(), s)
	}
	for _, stmt := range arena.Roots() {
		visitor.Walk(arena, stmt.Raw(), s)
	}
}

type scoper struct {
	arena *ast.Arena
	stack []ast.NodeID
}

func (s *scoper) current() ast.NodeID { return s.stack[len(s.stack)-1] }

// WillEnter records id's innermost enclosing scope (the current top of
// stack), records id in that scope's declaration list if it is itself a
// declaration, and pushes id onto the scope stack if id is itself a scope,
// so that id's own children see it (not its parent) as their innermost
// enclosing scope.
func (s *scoper) WillEnter(arena *ast.Arena, id ast.NodeID) bool {
	scope := s.current()
	arena.SetParent(id, scope)

	if _, ok := ast.Cast[ast.Declaration](arena, id); ok {
		arena.AddScopedDeclaration(scope, id)
	}

	if arena.IsScope(id) {
		s.stack = append(s.stack, id)
	}
	return true
}

// WillExit pops id off the scope stack if it pushed itself in WillEnter.
func (s *scoper) WillExit(arena *ast.Arena, id ast.NodeID) {
	if arena.IsScope(id) {
		s.stack = s.stack[:len(s.stack)-1]
	}
}
