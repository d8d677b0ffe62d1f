package lower

import (
	"github.com/kyouko-taiga/dyva/internal/ast"
	"github.com/kyouko-taiga/dyva/internal/visitor"
)

// isPureFunction reports whether the function declaration at declID has no
// free variables (spec.md §4.6's capture enumeration), i.e. it can be
// hoisted ahead of the block it's declared in and lowered as an ordinary
// function constant without needing any captured runtime value.
func (l *Lowerer) isPureFunction(declID ast.NodeID) bool {
	return len(captures(l.arena, declID)) == 0
}

// captures walks declID's body as a scoped traversal that tracks bound
// identifiers and collects every unqualified name reference that isn't
// bound, per spec.md §4.6: "a name expression with no qualification whose
// identifier is not bound contributes its occurrence." Parameters, local
// variable declarations, nested declaration names, and the function's own
// name (for recursion) are all bound.
func captures(arena *ast.Arena, declID ast.NodeID) map[string][]ast.NodeID {
	fd := ast.MustGet[ast.FunctionDeclaration](arena, declID)
	bound := map[string]bool{fd.Name: true}
	for _, p := range fd.Parameters {
		param := ast.MustGet[ast.ParameterDeclaration](arena, p)
		bound[param.Identifier] = true
	}

	cv := &captureVisitor{arena: arena, bound: bound, free: map[string][]ast.NodeID{}}
	for _, s := range fd.Body {
		visitor.Walk(arena, s.Raw(), cv)
	}
	return cv.free
}

type captureVisitor struct {
	arena *ast.Arena
	bound map[string]bool
	free  map[string][]ast.NodeID
}

func (v *captureVisitor) WillEnter(arena *ast.Arena, id ast.NodeID) bool {
	kind, ok := arena.Tag(id)
	if !ok {
		return true
	}

	switch kind {
	case ast.KindVariableDeclaration:
		n := ast.MustGet[ast.VariableDeclaration](arena, id)
		v.bound[n.Identifier] = true

	case ast.KindParameterDeclaration:
		n := ast.MustGet[ast.ParameterDeclaration](arena, id)
		v.bound[n.Identifier] = true

	case ast.KindFunctionDeclaration:
		n := ast.MustGet[ast.FunctionDeclaration](arena, id)
		v.bound[n.Name] = true
		v.descendIntoChildScope(id)
		return false

	case ast.KindStructDeclaration:
		n := ast.MustGet[ast.StructDeclaration](arena, id)
		v.bound[n.Name] = true
		v.descendIntoChildScope(id)
		return false

	case ast.KindTraitDeclaration:
		n := ast.MustGet[ast.TraitDeclaration](arena, id)
		v.bound[n.Name] = true
		v.descendIntoChildScope(id)
		return false

	case ast.KindLambdaExpr, ast.KindConditionalExpr, ast.KindTryExpr,
		ast.KindForStatement, ast.KindWhileStatement, ast.KindBlockStatement,
		ast.KindMatchCase:
		v.descendIntoChildScope(id)
		return false

	case ast.KindNameExpr:
		n := ast.MustGet[ast.NameExpr](arena, id)
		if !n.Qualification.IsValid() && !v.bound[n.Name] {
			v.free[n.Name] = append(v.free[n.Name], id)
		}
	}
	return true
}

func (v *captureVisitor) WillExit(arena *ast.Arena, id ast.NodeID) {}

// descendIntoChildScope processes id's children with a child enumerator
// that inherits a copy of the current bound set, merging its free
// occurrences back into v (spec.md §4.6: "nested scopes ... processed with
// a child enumerator that inherits the set of bound names; their results
// merge into the enclosing captures").
func (v *captureVisitor) descendIntoChildScope(id ast.NodeID) {
	childBound := make(map[string]bool, len(v.bound))
	for k := range v.bound {
		childBound[k] = true
	}
	child := &captureVisitor{arena: v.arena, bound: childBound, free: map[string][]ast.NodeID{}}
	visitor.WalkChildren(v.arena, id, child)
	for name, sites := range child.free {
		v.free[name] = append(v.free[name], sites...)
	}
}
