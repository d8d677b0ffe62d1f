// Package visitor implements the pre-order AST traversal used by the
// scoper and by any later pass that needs a uniform walk over a module's
// nodes (spec.md §4.4). A Visitor is called at the boundaries of each
// node — willEnter before its children are visited, willExit after — so a
// pass can push/pop scope-tracking state symmetrically.
package visitor

import "github.com/kyouko-taiga/dyva/internal/ast"

// Visitor receives traversal callbacks. WillEnter returns false to skip the
// node's children (and the matching WillExit call); returning true visits
// them in source order.
type Visitor interface {
	WillEnter(arena *ast.Arena, id ast.NodeID) bool
	WillExit(arena *ast.Arena, id ast.NodeID)
}

// Walk traverses id and its descendants in pre-order.
func Walk(arena *ast.Arena, id ast.NodeID, v Visitor) {
	if !v.WillEnter(arena, id) {
		return
	}
	traverseChildren(arena, id, v)
	v.WillExit(arena, id)
}

// WalkAll walks each of ids in order, e.g. a module's top-level
// statements.
func WalkAll[C any](arena *ast.Arena, ids []ast.ID[C], v Visitor) {
	for _, id := range ids {
		Walk(arena, id.Raw(), v)
	}
}

// WalkChildren walks id's immediate children (and their descendants) with
// v, without invoking v.WillEnter/WillExit on id itself. This is what a
// visitor that wants to swap in a different Visitor partway down the tree
// (e.g. the lowerer's capture enumerator entering a nested scope) calls
// instead of Walk, to avoid re-processing id under the new visitor.
func WalkChildren(arena *ast.Arena, id ast.NodeID, v Visitor) {
	traverseChildren(arena, id, v)
}

// traverseChildren dispatches on id's tag and walks its immediate children,
// recursing through Walk so WillEnter/WillExit fire for every descendant.
func traverseChildren(arena *ast.Arena, id ast.NodeID, v Visitor) {
	kind, ok := arena.Tag(id)
	if !ok {
		return
	}
	switch kind {
	case ast.KindBindingDeclaration:
		n := ast.MustGet[ast.BindingDeclaration](arena, id)
		Walk(arena, n.Pattern.Raw(), v)
		if n.Initializer.IsValid() {
			Walk(arena, n.Initializer.Raw(), v)
		}

	case ast.KindFunctionDeclaration:
		n := ast.MustGet[ast.FunctionDeclaration](arena, id)
		for _, p := range n.Parameters {
			Walk(arena, p, v)
		}
		for _, s := range n.Body {
			Walk(arena, s.Raw(), v)
		}

	case ast.KindParameterDeclaration:
		n := ast.MustGet[ast.ParameterDeclaration](arena, id)
		if n.Default.IsValid() {
			Walk(arena, n.Default.Raw(), v)
		}

	case ast.KindStructDeclaration:
		n := ast.MustGet[ast.StructDeclaration](arena, id)
		for _, f := range n.Fields {
			Walk(arena, f, v)
		}
		for _, e := range n.ParentInterfaces {
			Walk(arena, e.Raw(), v)
		}
		for _, m := range n.Members {
			Walk(arena, m, v)
		}

	case ast.KindTraitDeclaration:
		n := ast.MustGet[ast.TraitDeclaration](arena, id)
		for _, e := range n.ParentInterfaces {
			Walk(arena, e.Raw(), v)
		}
		for _, m := range n.Members {
			Walk(arena, m, v)
		}

	case ast.KindFieldDeclaration:
		n := ast.MustGet[ast.FieldDeclaration](arena, id)
		if n.Default.IsValid() {
			Walk(arena, n.Default.Raw(), v)
		}

	case ast.KindVariableDeclaration, ast.KindImportDeclaration,
		ast.KindBooleanLiteralExpr, ast.KindIntegerLiteralExpr,
		ast.KindFloatingPointLiteralExpr, ast.KindStringLiteralExpr,
		ast.KindWildcardPattern, ast.KindBreakStatement, ast.KindContinueStatement:
		// Leaf nodes: no children.

	case ast.KindArrayLiteralExpr:
		n := ast.MustGet[ast.ArrayLiteralExpr](arena, id)
		for _, e := range n.Elements {
			Walk(arena, e.Raw(), v)
		}

	case ast.KindDictionaryLiteralExpr:
		n := ast.MustGet[ast.DictionaryLiteralExpr](arena, id)
		for i := range n.Keys {
			Walk(arena, n.Keys[i].Raw(), v)
			Walk(arena, n.Values[i].Raw(), v)
		}

	case ast.KindTupleLiteralExpr:
		n := ast.MustGet[ast.TupleLiteralExpr](arena, id)
		for _, e := range n.Elements {
			Walk(arena, e.Raw(), v)
		}

	case ast.KindNameExpr:
		n := ast.MustGet[ast.NameExpr](arena, id)
		if n.Qualification.IsValid() {
			Walk(arena, n.Qualification.Raw(), v)
		}

	case ast.KindCallExpr:
		n := ast.MustGet[ast.CallExpr](arena, id)
		Walk(arena, n.Callee.Raw(), v)
		for _, a := range n.Arguments {
			Walk(arena, a.Value.Raw(), v)
		}

	case ast.KindTypeTestExpr:
		n := ast.MustGet[ast.TypeTestExpr](arena, id)
		Walk(arena, n.LHS.Raw(), v)
		Walk(arena, n.RHS.Raw(), v)

	case ast.KindLambdaExpr:
		n := ast.MustGet[ast.LambdaExpr](arena, id)
		for _, p := range n.Parameters {
			Walk(arena, p, v)
		}
		for _, s := range n.Body {
			Walk(arena, s.Raw(), v)
		}

	case ast.KindConditionalExpr:
		n := ast.MustGet[ast.ConditionalExpr](arena, id)
		walkConditions(arena, n.Conditions, v)
		Walk(arena, n.Success, v)
		if n.Else.IsValid() {
			Walk(arena, n.Else.Raw(), v)
		}

	case ast.KindMatchExpr:
		n := ast.MustGet[ast.MatchExpr](arena, id)
		Walk(arena, n.Scrutinee.Raw(), v)
		for _, c := range n.Cases {
			Walk(arena, c, v)
		}

	case ast.KindMatchCase:
		n := ast.MustGet[ast.MatchCase](arena, id)
		Walk(arena, n.Pattern.Raw(), v)
		if n.Guard.IsValid() {
			Walk(arena, n.Guard.Raw(), v)
		}
		for _, s := range n.Body {
			Walk(arena, s.Raw(), v)
		}

	case ast.KindMatchCondition:
		n := ast.MustGet[ast.MatchCondition](arena, id)
		Walk(arena, n.Pattern.Raw(), v)
		Walk(arena, n.Scrutinee.Raw(), v)

	case ast.KindTryExpr:
		n := ast.MustGet[ast.TryExpr](arena, id)
		Walk(arena, n.Body, v)
		if n.CatchPattern.IsValid() {
			Walk(arena, n.CatchPattern.Raw(), v)
			for _, s := range n.CatchBody {
				Walk(arena, s.Raw(), v)
			}
		}

	case ast.KindBindingPattern:
		n := ast.MustGet[ast.BindingPattern](arena, id)
		Walk(arena, n.SubPattern.Raw(), v)

	case ast.KindTuplePattern:
		n := ast.MustGet[ast.TuplePattern](arena, id)
		for _, e := range n.Elements {
			Walk(arena, e.Pattern.Raw(), v)
		}

	case ast.KindExtractorPattern:
		n := ast.MustGet[ast.ExtractorPattern](arena, id)
		Walk(arena, n.Callee.Raw(), v)
		for _, p := range n.Arguments {
			Walk(arena, p.Raw(), v)
		}

	case ast.KindTypePattern:
		n := ast.MustGet[ast.TypePattern](arena, id)
		Walk(arena, n.LHS.Raw(), v)
		Walk(arena, n.RHS.Raw(), v)

	case ast.KindBlockStatement:
		n := ast.MustGet[ast.BlockStatement](arena, id)
		for _, s := range n.Statements {
			Walk(arena, s.Raw(), v)
		}

	case ast.KindForStatement:
		n := ast.MustGet[ast.ForStatement](arena, id)
		Walk(arena, n.Pattern.Raw(), v)
		Walk(arena, n.Sequence.Raw(), v)
		Walk(arena, n.Body, v)

	case ast.KindWhileStatement:
		n := ast.MustGet[ast.WhileStatement](arena, id)
		walkConditions(arena, n.Conditions, v)
		Walk(arena, n.Body, v)

	case ast.KindReturnStatement:
		n := ast.MustGet[ast.ReturnStatement](arena, id)
		if n.Value.IsValid() {
			Walk(arena, n.Value.Raw(), v)
		}

	case ast.KindThrowStatement:
		n := ast.MustGet[ast.ThrowStatement](arena, id)
		Walk(arena, n.Value.Raw(), v)

	case ast.KindYieldStatement:
		n := ast.MustGet[ast.YieldStatement](arena, id)
		if n.Value.IsValid() {
			Walk(arena, n.Value.Raw(), v)
		}

	case ast.KindAssignmentStatement:
		n := ast.MustGet[ast.AssignmentStatement](arena, id)
		Walk(arena, n.Target.Raw(), v)
		Walk(arena, n.Value.Raw(), v)
	}
}

func walkConditions(arena *ast.Arena, conditions []ast.ConditionID, v Visitor) {
	for _, c := range conditions {
		Walk(arena, c.Raw(), v)
	}
}

// ForEachDeclaration walks id's subtree and invokes fn for every node
// tagged as a Declaration it encounters, in pre-order (spec.md §4.4). The
// scoper does not use it; it recognizes declarations in its own WillEnter.
func ForEachDeclaration(arena *ast.Arena, id ast.NodeID, fn func(ast.DeclarationID)) {
	Walk(arena, id, declarationCollector{arena: arena, fn: fn})
}

type declarationCollector struct {
	arena *ast.Arena
	fn    func(ast.DeclarationID)
}

func (d declarationCollector) WillEnter(arena *ast.Arena, id ast.NodeID) bool {
	if decl, ok := ast.Cast[ast.Declaration](arena, id); ok {
		d.fn(decl)
	}
	return true
}

func (d declarationCollector) WillExit(arena *ast.Arena, id ast.NodeID) {}

// BaseVisitor implements Visitor with no-op hooks; embed it and override
// only the method(s) a pass actually needs.
type BaseVisitor struct{}

func (BaseVisitor) WillEnter(arena *ast.Arena, id ast.NodeID) bool { return true }
func (BaseVisitor) WillExit(arena *ast.Arena, id ast.NodeID)       {}
