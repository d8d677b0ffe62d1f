package visitor

import "github.com/kyouko-taiga/dyva/internal/ast"

// PathStep is one tuple-member hop from a pattern's root to one of its
// leaves: Index is always meaningful, Label is "" for a positional element
// (spec.md §4.4).
type PathStep struct {
	Label string
	Index int
}

// Path is the sequence of hops from a pattern's root to one of its leaves.
type Path []PathStep

func extend(path Path, step PathStep) Path {
	out := make(Path, len(path), len(path)+1)
	copy(out, path)
	return append(out, step)
}

// VisitPattern walks pattern p alongside expression e. A tuple pattern
// aligned with a tuple literal that carries identical labels is visited
// element-wise (recursing pairwise into each element); otherwise fn fires
// once at the tuple as a whole (spec.md §4.4).
func VisitPattern(arena *ast.Arena, p ast.PatternID, e ast.ExpressionID, fn func(leaf ast.PatternID, aligned ast.ExpressionID, path Path)) {
	visitPatternAt(arena, p, e, nil, fn)
}

func visitPatternAt(arena *ast.Arena, p ast.PatternID, e ast.ExpressionID, path Path, fn func(ast.PatternID, ast.ExpressionID, Path)) {
	pk, pok := arena.Tag(p.Raw())
	ek, eok := arena.Tag(e.Raw())
	if pok && eok && pk == ast.KindTuplePattern && ek == ast.KindTupleLiteralExpr {
		tp := ast.MustGet[ast.TuplePattern](arena, p.Raw())
		te := ast.MustGet[ast.TupleLiteralExpr](arena, e.Raw())
		if tupleLabelsAlign(tp, te) {
			for i, elem := range tp.Elements {
				visitPatternAt(arena, elem.Pattern, te.Elements[i], extend(path, PathStep{Label: elem.Label, Index: i}), fn)
			}
			return
		}
	}
	fn(p, e, path)
}

func tupleLabelsAlign(p *ast.TuplePattern, e *ast.TupleLiteralExpr) bool {
	if len(p.Elements) != len(e.Elements) {
		return false
	}
	for i, elem := range p.Elements {
		if elem.Label != e.Labels[i] {
			return false
		}
	}
	return true
}

// ForEachPatternDeclaration enumerates the variable declarations introduced
// by p, together with the tuple path from p's root to each (spec.md §4.4).
func ForEachPatternDeclaration(arena *ast.Arena, p ast.PatternID, fn func(decl ast.DeclarationID, path Path)) {
	forEachPatternDeclarationAt(arena, p, nil, fn)
}

func forEachPatternDeclarationAt(arena *ast.Arena, p ast.PatternID, path Path, fn func(ast.DeclarationID, Path)) {
	kind, ok := arena.Tag(p.Raw())
	if !ok {
		return
	}
	switch kind {
	case ast.KindVariableDeclaration:
		decl, ok := ast.Cast[ast.Declaration](arena, p.Raw())
		if ok {
			fn(decl, path)
		}

	case ast.KindBindingPattern:
		n := ast.MustGet[ast.BindingPattern](arena, p.Raw())
		forEachPatternDeclarationAt(arena, n.SubPattern, path, fn)

	case ast.KindTuplePattern:
		n := ast.MustGet[ast.TuplePattern](arena, p.Raw())
		for i, elem := range n.Elements {
			forEachPatternDeclarationAt(arena, elem.Pattern, extend(path, PathStep{Label: elem.Label, Index: i}), fn)
		}

	case ast.KindExtractorPattern:
		n := ast.MustGet[ast.ExtractorPattern](arena, p.Raw())
		for i, arg := range n.Arguments {
			forEachPatternDeclarationAt(arena, arg, extend(path, PathStep{Index: i}), fn)
		}

	case ast.KindTypePattern:
		n := ast.MustGet[ast.TypePattern](arena, p.Raw())
		forEachPatternDeclarationAt(arena, n.LHS, path, fn)

	case ast.KindWildcardPattern:
		// No bindings.
	}
}
