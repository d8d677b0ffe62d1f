package lower

import (
	"github.com/kyouko-taiga/dyva/internal/ast"
	"github.com/kyouko-taiga/dyva/internal/ir"
	"github.com/kyouko-taiga/dyva/internal/source"
	"github.com/kyouko-taiga/dyva/internal/visitor"
)

// lowerTopLevelFunction lowers a module-level function declaration eagerly,
// binding its name into the module frame so sibling top-level code (and the
// lazy lookup of §4.6.1) can refer to it by name.
func (l *Lowerer) lowerTopLevelFunction(declID ast.NodeID) {
	fd := ast.MustGet[ast.FunctionDeclaration](l.arena, declID)
	name := l.freshFunctionName(fd.Name)
	l.frameFor(l.arena.ModuleScope()).locals[fd.Name] = ir.ConstantValue(ir.FunctionRef(name))
	l.lowerFunctionInto(name, declID, l.arena.Site(declID))
}

// lowerStructDeclaration registers the struct's own frame and lowers each of
// its member functions into it; field declarations carry no executable IR in
// this pass (they describe storage layout, not behavior — left to a future
// type-checking/layout stage the lowerer does not implement).
func (l *Lowerer) lowerStructDeclaration(declID ast.NodeID) {
	sd := ast.MustGet[ast.StructDeclaration](l.arena, declID)
	structFrame := l.frameFor(declID)
	for _, member := range sd.Members {
		kind, ok := l.arena.Tag(member)
		if !ok || kind != ast.KindFunctionDeclaration {
			continue
		}
		fd := ast.MustGet[ast.FunctionDeclaration](l.arena, member)
		name := l.freshFunctionName(sd.Name + "." + fd.Name)
		structFrame.locals[fd.Name] = ir.ConstantValue(ir.FunctionRef(name))
		l.lowerFunctionInto(name, member, l.arena.Site(member))
	}
}

// lowerTraitDeclaration mirrors lowerStructDeclaration; trait members are
// typically unimplemented requirements (HasBody false), which
// lowerFunctionInto already reports via missingImplementation.
func (l *Lowerer) lowerTraitDeclaration(declID ast.NodeID) {
	td := ast.MustGet[ast.TraitDeclaration](l.arena, declID)
	traitFrame := l.frameFor(declID)
	for _, member := range td.Members {
		kind, ok := l.arena.Tag(member)
		if !ok || kind != ast.KindFunctionDeclaration {
			continue
		}
		fd := ast.MustGet[ast.FunctionDeclaration](l.arena, member)
		name := l.freshFunctionName(td.Name + "." + fd.Name)
		traitFrame.locals[fd.Name] = ir.ConstantValue(ir.FunctionRef(name))
		l.lowerFunctionInto(name, member, l.arena.Site(member))
	}
}

// scopeChain returns id's ancestor scopes, outermost first, ending with the
// module scope — the lexical nesting lowerFunctionInto reconstructs into
// frames so a function's free-variable lookups walk the scopes it is
// actually nested within, not whatever happened to be on the Lowerer's
// context stack at the moment it was lowered.
func (l *Lowerer) scopeChain(id ast.NodeID) []ast.NodeID {
	var chain []ast.NodeID
	current, ok := l.arena.Parent(id)
	for ok {
		chain = append(chain, current)
		if current.IsModuleScope() {
			break
		}
		current, ok = l.arena.Parent(current)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// lowerFunctionInto lowers the function declaration at declID under name,
// always in a cleared context (spec.md §4.6). The function is registered in
// the module before its body is lowered, so recursive and forward
// references resolve; if the declaration has no body, a missingImplementation
// diagnostic is recorded and the function is left as a stub.
func (l *Lowerer) lowerFunctionInto(name string, declID ast.NodeID, site source.Span) *ir.Function {
	fd := ast.MustGet[ast.FunctionDeclaration](l.arena, declID)
	fn := ir.NewFunction(name, l.arena.Labels(declID), fd.Introducer == ast.IntroducerSubscript)
	fn.ParameterCount = len(fd.Parameters)
	l.module.Declare(fn)

	if !fd.HasBody {
		l.diags.Errorf(site, "'%s' requires an implementation", fd.Name)
		return fn
	}

	l.withClearContext(func() {
		entry := fn.AppendBlock(len(fd.Parameters))
		l.ctx.function = fn
		l.ctx.block = entry

		l.ctx.frames = nil
		for _, scope := range l.scopeChain(declID) {
			l.ctx.frames = append(l.ctx.frames, l.frameFor(scope))
		}
		own := l.frameFor(declID)
		for i, p := range fd.Parameters {
			param := ast.MustGet[ast.ParameterDeclaration](l.arena, p)
			own.locals[param.Identifier] = ir.Parameter(entry, i)
		}
		l.ctx.frames = append(l.ctx.frames, own)

		l.lowerFunctionBody(fd.Body, l.endOfBody(fd.Body))
	})
	fn.HasBody = true
	return fn
}

// endOfBody returns a span to anchor an implicit trailing return/branch on:
// the last statement's site if there is one, or an empty source.Span{} when
// body has no statements.
func (l *Lowerer) endOfBody(body []ast.StatementID) source.Span {
	if len(body) == 0 {
		return source.Span{}
	}
	return l.arena.Site(body[len(body)-1].Raw())
}

// lowerBindingDeclaration lowers a let/var/inout declaration (spec.md §4.6).
//
// var allocates one storage cell for the whole (possibly tuple) pattern,
// stores each destructured leaf's initializer into the matching
// member-projected slot of that cell, and binds each introduced name
// directly to its slot — so a later assignment can store through it.
//
// let/inout evaluate the initializer exactly once, project each leaf out of
// that single value, and bind each introduced name to access(capability, on:
// leaf) — a borrowed view rather than owned storage.
func (l *Lowerer) lowerBindingDeclaration(decl *ast.BindingDeclaration, site source.Span) {
	introducer := ast.BindLet
	if kind, ok := l.arena.Tag(decl.Pattern.Raw()); ok && kind == ast.KindBindingPattern {
		bp := ast.MustGet[ast.BindingPattern](l.arena, decl.Pattern.Raw())
		introducer = bp.Introducer
	}

	if introducer == ast.BindVar {
		storageID := l.emit(ir.NewAlloc(site))
		storage := ir.Register(storageID)
		if decl.Initializer.IsValid() {
			visitor.VisitPattern(l.arena, decl.Pattern, decl.Initializer, func(_ ast.PatternID, aligned ast.ExpressionID, path visitor.Path) {
				target := l.projectPath(storage, path, site)
				value := l.lowerExpression(aligned)
				l.emit(ir.NewStore(site, value, target))
			})
		}
		visitor.ForEachPatternDeclaration(l.arena, decl.Pattern, func(d ast.DeclarationID, path visitor.Path) {
			l.bind(l.declarationName(d), l.projectPath(storage, path, site))
		})
		return
	}

	capability := capabilityForIntroducer(introducer)
	var w ir.Value
	if decl.Initializer.IsValid() {
		w = l.lowerExpression(decl.Initializer)
	} else {
		w = ir.ConstantValue(ir.Unit())
	}
	visitor.ForEachPatternDeclaration(l.arena, decl.Pattern, func(d ast.DeclarationID, path visitor.Path) {
		leaf := l.projectPath(w, path, site)
		accessID := l.emit(ir.NewAccess(site, capability, leaf))
		l.bind(l.declarationName(d), ir.Register(accessID))
	})
}
