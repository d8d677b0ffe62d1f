package lower

import (
	"github.com/kyouko-taiga/dyva/internal/ast"
	"github.com/kyouko-taiga/dyva/internal/ir"
)

// lookup resolves an unqualified name against the current insertion context
// (spec.md §4.6.1): first a direct scan of every bound frame from innermost
// to outermost; failing that, frames are popped one at a time and, for each,
// its scope's lexically-contained function declarations are searched by
// name — lowering and binding the first match lazily — before moving
// outward; all popped frames are restored in their original order once the
// search concludes. A name that still isn't found falls back to the
// built-ins print/type, or is reported undefined by the caller.
func (l *Lowerer) lookup(name string) (ir.Value, bool) {
	for i := len(l.ctx.frames) - 1; i >= 0; i-- {
		if v, ok := l.ctx.frames[i].locals[name]; ok {
			return v, true
		}
	}

	var popped []*frame
	for len(l.ctx.frames) > 0 {
		top := l.ctx.frames[len(l.ctx.frames)-1]
		l.ctx.frames = l.ctx.frames[:len(l.ctx.frames)-1]
		popped = append(popped, top)

		l.resolveLexicalFunction(top, name)

		if v, ok := top.locals[name]; ok {
			l.restoreFrames(popped)
			return v, true
		}
	}
	l.restoreFrames(popped)

	if b, ok := builtinFor(name); ok {
		return ir.ConstantValue(ir.BuiltinRef(b)), true
	}
	return ir.Value{}, false
}

// resolveLexicalFunction searches the declarations lexically contained in
// top's scope for a function declaration named name; if found and not
// already bound, it is lowered (in a cleared context, registering it in the
// module) and bound into top before returning.
func (l *Lowerer) resolveLexicalFunction(top *frame, name string) {
	if _, already := top.locals[name]; already {
		return
	}
	for _, declID := range l.arena.Declarations(top.scope) {
		kind, ok := l.arena.Tag(declID)
		if !ok || kind != ast.KindFunctionDeclaration {
			continue
		}
		fd := ast.MustGet[ast.FunctionDeclaration](l.arena, declID)
		if fd.Name != name {
			continue
		}
		fresh := l.freshFunctionName(fd.Name)
		top.locals[name] = ir.ConstantValue(ir.FunctionRef(fresh))
		l.ctx.frames = append(l.ctx.frames, top)
		l.lowerFunctionInto(fresh, declID, l.arena.Site(declID))
		l.ctx.frames = l.ctx.frames[:len(l.ctx.frames)-1]
		return
	}
}

func (l *Lowerer) restoreFrames(popped []*frame) {
	for j := len(popped) - 1; j >= 0; j-- {
		l.ctx.frames = append(l.ctx.frames, popped[j])
	}
}

func builtinFor(name string) (ir.Builtin, bool) {
	switch name {
	case "print":
		return ir.BuiltinPrint, true
	case "type":
		return ir.BuiltinType, true
	default:
		return 0, false
	}
}
