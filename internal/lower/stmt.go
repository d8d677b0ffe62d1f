package lower

import (
	"github.com/kyouko-taiga/dyva/internal/ast"
	"github.com/kyouko-taiga/dyva/internal/ir"
	"github.com/kyouko-taiga/dyva/internal/source"
	"github.com/kyouko-taiga/dyva/internal/visitor"
)

// lowerFunctionBody lowers body, the statement list of a function, lambda,
// or try body, into the current block. A single-expression body lowers and
// returns its value directly; otherwise the block is lowered as statements
// and, if it falls off the end without a terminator, an implicit `return
// unit` is appended (spec.md §4.6).
func (l *Lowerer) lowerFunctionBody(body []ast.StatementID, end source.Span) {
	if len(body) == 1 {
		if expr, ok := ast.Cast[ast.Expression](l.arena, body[0].Raw()); ok {
			v := l.lowerExpression(expr)
			l.emit(ir.NewReturn(end, v))
			return
		}
	}
	l.lowerBlock(body)
	if !l.blockHasTerminator(l.ctx.block) {
		l.emit(ir.NewReturn(end, ir.ConstantValue(ir.Unit())))
	}
}

// lowerBranchBody lowers body the same way as a function body, except it
// branches to join instead of returning: a single-expression body lowers
// and branches with its value, otherwise it lowers as statements and, absent
// a terminator, branches to join with unit. carriesValue controls whether
// the branch passes an argument at all (join has zero parameters when the
// enclosing conditional/match has no useful shared value, e.g. an `if` with
// no `else`).
func (l *Lowerer) lowerBranchBody(body []ast.StatementID, join ir.BlockID, site source.Span, carriesValue bool) {
	branchArgs := func(v ir.Value) []ir.Value {
		if !carriesValue {
			return nil
		}
		return []ir.Value{v}
	}

	if len(body) == 1 {
		if expr, ok := ast.Cast[ast.Expression](l.arena, body[0].Raw()); ok {
			v := l.lowerExpression(expr)
			l.emit(ir.NewBranch(site, join, branchArgs(v)))
			return
		}
	}
	l.lowerBlock(body)
	if !l.blockHasTerminator(l.ctx.block) {
		l.emit(ir.NewBranch(site, join, branchArgs(ir.ConstantValue(ir.Unit()))))
	}
}

// lowerBlock lowers a statement list with the two-pass hoisting discipline
// of spec.md §4.6: pure nested function declarations (no free variables)
// are lowered first, regardless of their written position, so they're
// visible to every statement in the block; the remaining statements are
// then lowered in order, stopping after one that unconditionally ends
// control flow.
func (l *Lowerer) lowerBlock(stmts []ast.StatementID) {
	var remaining []ast.StatementID
	for _, s := range stmts {
		raw := s.Raw()
		if kind, ok := l.arena.Tag(raw); ok && kind == ast.KindFunctionDeclaration && l.isPureFunction(raw) {
			l.lowerNestedFunctionStatement(raw, l.arena.Site(raw))
			continue
		}
		remaining = append(remaining, s)
	}
	for _, s := range remaining {
		l.lowerStatement(s)
		if l.endsControlFlow(s) {
			break
		}
	}
}

func (l *Lowerer) endsControlFlow(s ast.StatementID) bool {
	kind, ok := l.arena.Tag(s.Raw())
	if !ok {
		return false
	}
	switch kind {
	case ast.KindReturnStatement, ast.KindThrowStatement, ast.KindBreakStatement, ast.KindContinueStatement:
		return true
	default:
		return false
	}
}

// lowerNestedFunctionStatement binds name -> FunctionRef eagerly (so
// recursive/forward references within the same scope resolve) and lowers
// the declaration's body.
func (l *Lowerer) lowerNestedFunctionStatement(declID ast.NodeID, site source.Span) {
	fd := ast.MustGet[ast.FunctionDeclaration](l.arena, declID)
	name := l.freshFunctionName(fd.Name)
	l.bind(fd.Name, ir.ConstantValue(ir.FunctionRef(name)))
	l.lowerFunctionInto(name, declID, site)
}

func (l *Lowerer) lowerStatement(id ast.StatementID) {
	raw := id.Raw()
	kind, ok := l.arena.Tag(raw)
	if !ok {
		return
	}
	site := l.arena.Site(raw)

	switch kind {
	case ast.KindBindingDeclaration:
		n := ast.MustGet[ast.BindingDeclaration](l.arena, raw)
		l.lowerBindingDeclaration(n, site)

	case ast.KindFunctionDeclaration:
		l.lowerNestedFunctionStatement(raw, site)

	case ast.KindStructDeclaration:
		l.lowerStructDeclaration(raw)

	case ast.KindTraitDeclaration:
		l.lowerTraitDeclaration(raw)

	case ast.KindImportDeclaration, ast.KindFieldDeclaration,
		ast.KindParameterDeclaration, ast.KindVariableDeclaration:
		// No statement-level IR effect.

	case ast.KindBreakStatement:
		l.emit(ir.NewBranch(site, l.currentLoop().breakTarget, nil))

	case ast.KindContinueStatement:
		l.emit(ir.NewBranch(site, l.currentLoop().continueTarget, nil))

	case ast.KindReturnStatement:
		n := ast.MustGet[ast.ReturnStatement](l.arena, raw)
		var v ir.Value
		if n.Value.IsValid() {
			v = l.lowerExpression(n.Value)
		} else {
			v = ir.ConstantValue(ir.Unit())
		}
		l.emit(ir.NewReturn(site, v))

	case ast.KindThrowStatement:
		n := ast.MustGet[ast.ThrowStatement](l.arena, raw)
		v := l.lowerExpression(n.Value)
		l.emit(ir.NewInvoke(site, ir.ConstantValue(ir.FunctionRef(ThrowFunctionName)), nil, []ir.Value{v}))

	case ast.KindYieldStatement:
		n := ast.MustGet[ast.YieldStatement](l.arena, raw)
		if !l.ctx.function.IsSubscript {
			l.diags.Errorf(site, "'yield' can only occur in a subscript")
		}
		var v ir.Value
		if n.Value.IsValid() {
			v = l.lowerExpression(n.Value)
		} else {
			v = ir.ConstantValue(ir.Unit())
		}
		l.emit(ir.NewYield(site, v))

	case ast.KindForStatement:
		n := ast.MustGet[ast.ForStatement](l.arena, raw)
		l.lowerFor(n, site)

	case ast.KindWhileStatement:
		n := ast.MustGet[ast.WhileStatement](l.arena, raw)
		l.lowerWhile(n, site)

	case ast.KindAssignmentStatement:
		n := ast.MustGet[ast.AssignmentStatement](l.arena, raw)
		value := l.lowerExpression(n.Value)
		target := l.lowerAssignmentTarget(n.Target)
		l.emit(ir.NewStore(site, value, target))

	case ast.KindBlockStatement:
		n := ast.MustGet[ast.BlockStatement](l.arena, raw)
		l.withNewFrame(raw, func() { l.lowerBlock(n.Statements) })

	default:
		if expr, ok := ast.Cast[ast.Expression](l.arena, raw); ok {
			l.lowerExpression(expr)
		}
	}
}

// lowerAssignmentTarget resolves target to a storage location rather than a
// read value: an unqualified name resolves through the ordinary lookup
// (which, for a var binding, is already the storage cell itself, not a
// read of it), and a qualified name projects a member off its qualification.
func (l *Lowerer) lowerAssignmentTarget(target ast.ExpressionID) ir.Value {
	raw := target.Raw()
	kind, ok := l.arena.Tag(raw)
	site := l.arena.Site(raw)
	if ok && kind == ast.KindNameExpr {
		n := ast.MustGet[ast.NameExpr](l.arena, raw)
		if n.Qualification.IsValid() {
			whole := l.lowerExpression(n.Qualification)
			id := l.emit(ir.NewMember(site, whole, ir.MemberByName(n.Name)))
			return ir.Register(id)
		}
		if v, ok := l.lookup(n.Name); ok {
			return v
		}
		l.diags.Errorf(site, "undefined symbol '%s'", n.Name)
		return ir.PoisonValue(site)
	}
	return l.lowerExpression(target)
}

// lowerConditional lowers an if expression. A join block is created with
// one parameter iff there is an else branch (spec.md §4.6); without an else,
// the expression's value is always unit.
func (l *Lowerer) lowerConditional(n *ast.ConditionalExpr, site source.Span) ir.Value {
	hasElse := n.Else.IsValid()
	arity := 0
	if hasElse {
		arity = 1
	}
	join := l.ctx.function.AppendBlock(arity)
	l.lowerConditionalInto(n, site, join, hasElse)
	l.ctx.block = join
	if hasElse {
		return ir.Parameter(join, 0)
	}
	return ir.ConstantValue(ir.Unit())
}

// lowerConditionalInto lowers n's conditions and success/else bodies,
// wiring every path into join. Conditions are chained with a single shared
// failure block (short-circuit AND): each condition's own success block
// becomes the test site for the next, and any condition's failure jumps
// straight past the rest to the else/failure path.
func (l *Lowerer) lowerConditionalInto(n *ast.ConditionalExpr, site source.Span, join ir.BlockID, carriesValue bool) {
	failure := l.ctx.function.AppendBlock(0)

	l.withNewFrame(n.Success, func() {
		for _, cond := range n.Conditions {
			success := l.ctx.function.AppendBlock(0)
			l.lowerCondition(cond, success, failure)
			l.ctx.block = success
		}
		successBlock := ast.MustGet[ast.BlockStatement](l.arena, n.Success)
		l.lowerBranchBody(successBlock.Statements, join, site, carriesValue)
	})

	l.ctx.block = failure
	if !n.Else.IsValid() {
		l.emit(ir.NewBranch(site, join, nil))
		return
	}
	elseSite := l.arena.Site(n.Else.Raw())
	if kind, _ := l.arena.Tag(n.Else.Raw()); kind == ast.KindConditionalExpr {
		nested := ast.MustGet[ast.ConditionalExpr](l.arena, n.Else.Raw())
		l.lowerConditionalInto(nested, elseSite, join, carriesValue)
		return
	}
	l.withNewFrame(n.Else.Raw(), func() {
		blk := ast.MustGet[ast.BlockStatement](l.arena, n.Else.Raw())
		l.lowerBranchBody(blk.Statements, join, elseSite, carriesValue)
	})
}

// lowerCondition lowers one condition entry, emitting into the current
// block and wiring success/failure.
func (l *Lowerer) lowerCondition(cond ast.ConditionID, success, failure ir.BlockID) {
	raw := cond.Raw()
	site := l.arena.Site(raw)
	if kind, ok := l.arena.Tag(raw); ok && kind == ast.KindMatchCondition {
		mc := ast.MustGet[ast.MatchCondition](l.arena, raw)
		scrutinee := l.lowerExpression(mc.Scrutinee)
		l.lowerPatternMatch(mc.Pattern, scrutinee, site, success, failure)
		return
	}
	expr, _ := ast.Cast[ast.Expression](l.arena, raw)
	v := l.lowerExpression(expr)
	l.emit(ir.NewCondBranch(site, v, success, failure))
}

// lowerMatch lowers a match expression: the scrutinee is evaluated once,
// then each case's pattern is tested against it in order; an unmatched
// scrutinee (no case applies) is a design gap spec.md leaves open, resolved
// here by producing poison for the join rather than trapping.
func (l *Lowerer) lowerMatch(n *ast.MatchExpr, site source.Span) ir.Value {
	scrutinee := l.lowerExpression(n.Scrutinee)
	join := l.ctx.function.AppendBlock(1)
	l.lowerMatchCases(n.Cases, scrutinee, site, join, 0)
	l.ctx.block = join
	return ir.Parameter(join, 0)
}

func (l *Lowerer) lowerMatchCases(cases []ast.NodeID, scrutinee ir.Value, site source.Span, join ir.BlockID, idx int) {
	if idx >= len(cases) {
		l.emit(ir.NewBranch(site, join, []ir.Value{ir.PoisonValue(site)}))
		return
	}
	caseID := cases[idx]
	caseSite := l.arena.Site(caseID)
	mc := ast.MustGet[ast.MatchCase](l.arena, caseID)

	matched := l.ctx.function.AppendBlock(0)
	nextTest := l.ctx.function.AppendBlock(0)

	l.withNewFrame(caseID, func() {
		l.lowerPatternMatch(mc.Pattern, scrutinee, caseSite, matched, nextTest)

		l.ctx.block = matched
		caseBody := matched
		if mc.Guard.IsValid() {
			guardValue := l.lowerExpression(mc.Guard)
			trueBody := l.ctx.function.AppendBlock(0)
			l.emit(ir.NewCondBranch(caseSite, guardValue, trueBody, nextTest))
			caseBody = trueBody
		}
		l.ctx.block = caseBody
		l.lowerBranchBody(mc.Body, join, caseSite, true)
	})

	l.ctx.block = nextTest
	l.lowerMatchCases(cases, scrutinee, site, join, idx+1)
}

// lowerFor lowers a for-in loop over an index counter, projecting each
// element with `project` and comparing/advancing the index through method
// calls (spec.md §4.2's operators-as-methods convention) — spec.md names no
// iterator protocol, so this lowerer treats any sequence as indexable via
// `length`/`<`/`+` the same way a bracketed call already lowers to
// `project`, rather than inventing a dedicated iteration instruction.
func (l *Lowerer) lowerFor(n *ast.ForStatement, site source.Span) {
	seq := l.lowerExpression(n.Sequence)
	idxStorageID := l.emit(ir.NewAlloc(site))
	idxStorage := ir.Register(idxStorageID)
	l.emit(ir.NewStore(site, ir.ConstantValue(ir.Int(0)), idxStorage))

	header := l.ctx.function.AppendBlock(0)
	latch := l.ctx.function.AppendBlock(0)
	exit := l.ctx.function.AppendBlock(0)
	l.emit(ir.NewBranch(site, header, nil))

	l.ctx.block = header
	idxAccessID := l.emit(ir.NewAccess(site, ir.CapabilityLet, idxStorage))
	iv := ir.Register(idxAccessID)
	length := l.emitMethodCall(site, seq, "length", nil)
	cond := l.emitMethodCall(site, iv, "<", []ir.Value{length})
	body := l.ctx.function.AppendBlock(0)
	l.emit(ir.NewCondBranch(site, cond, body, exit))

	l.ctx.block = body
	elemID := l.emit(ir.NewProject(site, seq, nil, []ir.Value{iv}))
	l.withNewFrame(n.Body, func() {
		visitor.ForEachPatternDeclaration(l.arena, n.Pattern, func(d ast.DeclarationID, path visitor.Path) {
			l.bind(l.declarationName(d), l.projectPath(ir.Register(elemID), path, site))
		})
		l.pushLoop(latch, exit)
		block := ast.MustGet[ast.BlockStatement](l.arena, n.Body)
		l.lowerBlock(block.Statements)
		l.popLoop()
	})
	if !l.blockHasTerminator(l.ctx.block) {
		l.emit(ir.NewBranch(site, latch, nil))
	}

	l.ctx.block = latch
	ivLatchID := l.emit(ir.NewAccess(site, ir.CapabilityLet, idxStorage))
	next := l.emitMethodCall(site, ir.Register(ivLatchID), "+", []ir.Value{ir.ConstantValue(ir.Int(1))})
	l.emit(ir.NewStore(site, next, idxStorage))
	l.emit(ir.NewBranch(site, header, nil))

	l.ctx.block = exit
}

// lowerWhile lowers a while loop: the header re-tests the conditions on
// every iteration (short-circuit AND, same as a conditional), success
// enters the body, any failure exits.
func (l *Lowerer) lowerWhile(n *ast.WhileStatement, site source.Span) {
	header := l.ctx.function.AppendBlock(0)
	exit := l.ctx.function.AppendBlock(0)
	l.emit(ir.NewBranch(site, header, nil))

	l.ctx.block = header
	l.withNewFrame(n.Body, func() {
		for _, cond := range n.Conditions {
			success := l.ctx.function.AppendBlock(0)
			l.lowerCondition(cond, success, exit)
			l.ctx.block = success
		}
		l.pushLoop(header, exit)
		block := ast.MustGet[ast.BlockStatement](l.arena, n.Body)
		l.lowerBlock(block.Statements)
		l.popLoop()
	})
	if !l.blockHasTerminator(l.ctx.block) {
		l.emit(ir.NewBranch(site, header, nil))
	}
	l.ctx.block = exit
}
