package lower

import (
	"github.com/kyouko-taiga/dyva/internal/ast"
	"github.com/kyouko-taiga/dyva/internal/ir"
	"github.com/kyouko-taiga/dyva/internal/source"
)

// lowerPatternMatch lowers whether pattern p matches value v, wiring the
// resulting control flow between success and failure and declaring any
// bindings p introduces into the current frame along the path that reaches
// success. Used both for if/while "case p = e" conditions and for match
// expression cases (spec.md §3.3's pattern shapes; the control-flow
// encoding itself is this lowerer's own design, since spec.md describes the
// pattern data model but not a compiled-form for testing one against a
// runtime value).
func (l *Lowerer) lowerPatternMatch(p ast.PatternID, v ir.Value, site source.Span, success, failure ir.BlockID) {
	kind, ok := l.arena.Tag(p.Raw())
	if !ok {
		l.emit(ir.NewBranch(site, failure, nil))
		return
	}

	switch kind {
	case ast.KindWildcardPattern:
		l.emit(ir.NewBranch(site, success, nil))

	case ast.KindVariableDeclaration:
		n := ast.MustGet[ast.VariableDeclaration](l.arena, p.Raw())
		l.bind(n.Identifier, v)
		l.emit(ir.NewBranch(site, success, nil))

	case ast.KindBindingPattern:
		n := ast.MustGet[ast.BindingPattern](l.arena, p.Raw())
		accessID := l.emit(ir.NewAccess(site, capabilityForIntroducer(n.Introducer), v))
		l.lowerPatternMatch(n.SubPattern, ir.Register(accessID), site, success, failure)

	case ast.KindTuplePattern:
		n := ast.MustGet[ast.TuplePattern](l.arena, p.Raw())
		patterns := make([]ast.PatternID, len(n.Elements))
		for i, e := range n.Elements {
			patterns[i] = e.Pattern
		}
		projector := func(i int) ir.Member {
			if n.Elements[i].Label != "" {
				return ir.MemberByName(n.Elements[i].Label)
			}
			return ir.MemberByIndex(i)
		}
		l.lowerSequentialPatternMatch(patterns, projector, v, site, success, failure, 0)

	case ast.KindTypePattern:
		n := ast.MustGet[ast.TypePattern](l.arena, p.Raw())
		actual := l.emitTypeOf(site, v)
		expected := l.lowerExpression(n.RHS)
		eq := l.emitMethodCall(site, actual, "==", []ir.Value{expected})
		next := l.ctx.function.AppendBlock(0)
		l.emit(ir.NewCondBranch(site, eq, next, failure))
		l.ctx.block = next
		l.lowerPatternMatch(n.LHS, v, site, success, failure)

	case ast.KindExtractorPattern:
		n := ast.MustGet[ast.ExtractorPattern](l.arena, p.Raw())
		callee := l.lowerExpression(n.Callee)
		actual := l.emitTypeOf(site, v)
		eq := l.emitMethodCall(site, actual, "==", []ir.Value{callee})
		next := l.ctx.function.AppendBlock(0)
		l.emit(ir.NewCondBranch(site, eq, next, failure))
		l.ctx.block = next
		projector := func(i int) ir.Member { return ir.MemberByIndex(i) }
		l.lowerSequentialPatternMatch(n.Arguments, projector, v, site, success, failure, 0)

	default:
		expr, ok := ast.Cast[ast.Expression](l.arena, p.Raw())
		if !ok {
			l.emit(ir.NewBranch(site, failure, nil))
			return
		}
		rhs := l.lowerExpression(expr)
		eq := l.emitMethodCall(site, v, "==", []ir.Value{rhs})
		l.emit(ir.NewCondBranch(site, eq, success, failure))
	}
}

// lowerSequentialPatternMatch tests patterns[idx:] against member-projected
// slots of whole, chaining each element's failure straight to failure and
// its success to the next element's test, with the last element's success
// landing on success.
func (l *Lowerer) lowerSequentialPatternMatch(patterns []ast.PatternID, projector func(int) ir.Member, whole ir.Value, site source.Span, success, failure ir.BlockID, idx int) {
	if idx >= len(patterns) {
		l.emit(ir.NewBranch(site, success, nil))
		return
	}
	leafID := l.emit(ir.NewMember(site, whole, projector(idx)))
	target := success
	if idx < len(patterns)-1 {
		target = l.ctx.function.AppendBlock(0)
	}
	l.lowerPatternMatch(patterns[idx], ir.Register(leafID), site, target, failure)
	if idx < len(patterns)-1 {
		l.ctx.block = target
		l.lowerSequentialPatternMatch(patterns, projector, whole, site, success, failure, idx+1)
	}
}

// emitTypeOf invokes the $type built-in on v, the IR-level counterpart of
// an "is" type test (spec.md §3.4 lists `type` among the built-ins the
// lowerer falls back to, precisely so type tests have something to compile
// against without the instruction set needing a dedicated type-test op).
func (l *Lowerer) emitTypeOf(site source.Span, v ir.Value) ir.Value {
	id := l.emit(ir.NewInvoke(site, ir.ConstantValue(ir.BuiltinRef(ir.BuiltinType)), nil, []ir.Value{v}))
	return ir.Register(id)
}

// emitMethodCall lowers a call to name on receiver the same way the parser
// encodes operator and member-call notation: project the method off the
// receiver, then invoke it (spec.md §4.2's "operators are ordinary method
// calls written in operator notation").
func (l *Lowerer) emitMethodCall(site source.Span, receiver ir.Value, name string, args []ir.Value) ir.Value {
	calleeID := l.emit(ir.NewMember(site, receiver, ir.MemberByName(name)))
	invokeID := l.emit(ir.NewInvoke(site, ir.Register(calleeID), nil, args))
	return ir.Register(invokeID)
}
