// Package lower implements the AST-to-IR lowering pass (spec.md §4.6): a
// single traversal of a module's arena that carries an insertion context
// (the current function, the current block, and a stack of lexical frames)
// and emits instructions through ir.Function's single Insert primitive.
package lower

import (
	"fmt"

	"github.com/kyouko-taiga/dyva/internal/ast"
	"github.com/kyouko-taiga/dyva/internal/diag"
	"github.com/kyouko-taiga/dyva/internal/ir"
	"github.com/kyouko-taiga/dyva/internal/source"
	"github.com/kyouko-taiga/dyva/internal/visitor"
)

// ThrowFunctionName is the synthesized callee a throw statement invokes.
// The instruction set of spec.md §3.4 has no dedicated throw op, so a throw
// is encoded as invoke(@$throw, [value]) — a later pass that cares about
// exceptional control transfer can recognize invocations of this name
// specially, rather than the lowerer inventing an instruction the rest of
// spec.md never names. Recorded as an Open Question resolution in
// DESIGN.md.
const ThrowFunctionName = "$throw"

// frame binds names to values within one lexical scope. scope is the AST
// node (a FunctionDeclaration/StructDeclaration/TraitDeclaration, or any
// other scope-tagged node) the frame corresponds to; it is what
// unqualified-name lookup consults via arena.Declarations when every bound
// frame misses (spec.md §4.6.1).
type frame struct {
	scope  ast.NodeID
	locals map[string]ir.Value
}

func newFrame(scope ast.NodeID) *frame {
	return &frame{scope: scope, locals: map[string]ir.Value{}}
}

// context is the insertion context: the function currently being lowered
// into, the block instructions are appended to, and the stack of lexical
// frames in view.
type context struct {
	function *ir.Function
	block    ir.BlockID
	frames   []*frame
}

// loopFrame records the branch targets break/continue resolve to.
type loopFrame struct {
	continueTarget ir.BlockID
	breakTarget    ir.BlockID
}

// Lowerer carries the state needed across a single module's lowering pass:
// the arena being read, the module being built, a registry of long-lived
// frames (one per function/struct/trait scope, so a name bound while that
// scope is live stays visible to any closure lowered later against the same
// scope), and the diagnostics sink.
type Lowerer struct {
	arena *ast.Arena
	diags *diag.Bag

	module *ir.Module
	ctx    context

	frameRegistry map[ast.NodeID]*frame
	loops         []loopFrame

	functionNames map[string]bool
}

// Lower lowers one module's arena to IR (spec.md §4.6). When asMain is true,
// the module's top-level statements other than function, struct, trait and
// import declarations (binding declarations included) are collected into a
// synthesized "$main"
// function; every top-level function/struct/trait declaration is always
// registered regardless of asMain, so a module loaded purely as a library
// still exposes its declarations by name.
func Lower(arena *ast.Arena, asMain bool, diags *diag.Bag) *ir.Module {
	l := &Lowerer{
		arena:         arena,
		diags:         diags,
		module:        ir.NewModule(),
		frameRegistry: map[ast.NodeID]*frame{},
		functionNames: map[string]bool{},
	}

	moduleScope := arena.ModuleScope()
	var mainBody []ast.StatementID
	for _, stmt := range arena.Roots() {
		raw := stmt.Raw()
		kind, ok := arena.Tag(raw)
		if !ok {
			continue
		}
		switch kind {
		case ast.KindFunctionDeclaration:
			l.lowerTopLevelFunction(raw)
		case ast.KindStructDeclaration:
			l.lowerStructDeclaration(raw)
		case ast.KindTraitDeclaration:
			l.lowerTraitDeclaration(raw)
		case ast.KindImportDeclaration:
			// Import resolution is internal/program's concern; the
			// lowerer only turns executable code into IR.
		default:
			mainBody = append(mainBody, stmt)
		}
	}

	if asMain && len(mainBody) > 0 {
		l.lowerMain(moduleScope, mainBody)
	}

	return l.module
}

func (l *Lowerer) lowerMain(moduleScope ast.NodeID, body []ast.StatementID) {
	fn := ir.NewFunction(ir.MainFunctionName, nil, false)
	l.module.Declare(fn)

	l.withClearContext(func() {
		entry := fn.AppendBlock(0)
		l.ctx.function = fn
		l.ctx.block = entry
		l.ctx.frames = []*frame{l.frameFor(moduleScope)}
		end := l.endOfBody(body)
		l.lowerFunctionBody(body, end)
	})
	fn.HasBody = true
}

// frameFor returns the long-lived frame registered for scope, creating it on
// first use. Reusing the same *frame across every lowering pass that
// re-enters scope is what lets a name bound earlier in an enclosing
// function's body stay visible to a nested closure lowered later against
// that same function (spec.md §4.6.1's "push a module frame").
func (l *Lowerer) frameFor(scope ast.NodeID) *frame {
	if f, ok := l.frameRegistry[scope]; ok {
		return f
	}
	f := newFrame(scope)
	l.frameRegistry[scope] = f
	return f
}

// within pushes f, runs fn, and pops it — the insertion-context push/pop
// helper named in spec.md §4.6.
func (l *Lowerer) within(f *frame, fn func()) {
	l.ctx.frames = append(l.ctx.frames, f)
	fn()
	l.ctx.frames = l.ctx.frames[:len(l.ctx.frames)-1]
}

// withNewFrame pushes a fresh, throwaway frame scoped to id (a block, loop,
// or conditional body) for the duration of fn. Unlike frameFor this frame is
// never registered, since nothing outside the construct being lowered needs
// to look it up again later.
func (l *Lowerer) withNewFrame(id ast.NodeID, fn func()) {
	l.within(newFrame(id), fn)
}

// withClearContext saves the current insertion context, resets it to empty,
// runs fn (which is expected to install its own function/block/frames), and
// restores the saved context afterward. Every function body is lowered in a
// cleared context (spec.md §4.6): lowering one function's body must never
// see another function's frames or insertion point.
func (l *Lowerer) withClearContext(fn func()) {
	saved := l.ctx
	l.ctx = context{}
	fn()
	l.ctx = saved
}

// bind records name -> v in the innermost frame currently in view.
func (l *Lowerer) bind(name string, v ir.Value) {
	top := l.ctx.frames[len(l.ctx.frames)-1]
	top.locals[name] = v
}

// emit inserts instr at the end of the current block.
func (l *Lowerer) emit(instr ir.Instruction) ir.InstructionID {
	return l.ctx.function.Insert(ir.EndOf(l.ctx.block), instr)
}

func (l *Lowerer) pushLoop(continueTarget, breakTarget ir.BlockID) {
	l.loops = append(l.loops, loopFrame{continueTarget: continueTarget, breakTarget: breakTarget})
}

func (l *Lowerer) popLoop() {
	l.loops = l.loops[:len(l.loops)-1]
}

func (l *Lowerer) currentLoop() loopFrame {
	return l.loops[len(l.loops)-1]
}

// freshFunctionName returns base if unused, or base qualified with a
// disambiguating suffix otherwise — needed when the same local name is
// declared as a nested function in two different scopes.
func (l *Lowerer) freshFunctionName(base string) string {
	if !l.functionNames[base] {
		l.functionNames[base] = true
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s.%d", base, i)
		if !l.functionNames[candidate] {
			l.functionNames[candidate] = true
			return candidate
		}
	}
}

// declarationName reads the bound identifier out of a pattern-leaf
// declaration (always a VariableDeclaration; spec.md §4.4).
func (l *Lowerer) declarationName(d ast.DeclarationID) string {
	n := ast.MustGet[ast.VariableDeclaration](l.arena, d.Raw())
	return n.Identifier
}

// projectPath chains `member` instructions from root through path,
// returning the resulting value (spec.md §4.6: "emit members for the tuple
// path").
func (l *Lowerer) projectPath(root ir.Value, path visitor.Path, site source.Span) ir.Value {
	v := root
	for _, step := range path {
		var m ir.Member
		if step.Label != "" {
			m = ir.MemberByName(step.Label)
		} else {
			m = ir.MemberByIndex(step.Index)
		}
		id := l.emit(ir.NewMember(site, v, m))
		v = ir.Register(id)
	}
	return v
}

func (l *Lowerer) blockHasTerminator(block ir.BlockID) bool {
	b := l.ctx.function.Block(block)
	if b.IsEmpty() {
		return false
	}
	return l.ctx.function.Instruction(b.Last).IsTerminator()
}

func capabilityForIntroducer(introducer ast.BindingIntroducer) ir.Capability {
	switch introducer {
	case ast.BindInout:
		return ir.CapabilityInout
	default:
		return ir.CapabilityLet
	}
}
