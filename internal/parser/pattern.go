package parser

import (
	"github.com/kyouko-taiga/dyva/internal/ast"
	"github.com/kyouko-taiga/dyva/internal/source"
	"github.com/kyouko-taiga/dyva/internal/token"
)

// parsePattern parses a primary pattern followed by an optional "as <type>"
// wrap (spec.md §4.2: parsePattern = parsePrimaryPattern, then "as").
func (p *Parser) parsePattern(inBindingContext bool) ast.PatternID {
	pat := p.parsePrimaryPattern(inBindingContext)
	for p.cur.Kind == token.As {
		p.advance()
		rhs := p.parseExpression()
		span := p.arena.Site(pat.Raw()).ExtendedToCover(p.arena.Site(rhs.Raw()))
		id := p.arena.Insert(ast.KindTypePattern, span, &ast.TypePattern{LHS: pat, RHS: rhs})
		pat = ast.Untyped[ast.Pattern](id)
	}
	return pat
}

// parsePrimaryPattern dispatches on the head token (spec.md §4.2,
// "parsePrimaryPattern"). inBindingContext controls whether a bare name is
// taken to introduce a new binding (true, e.g. inside a let/var/inout
// pattern or a for-loop pattern) or is instead read as an ordinary name
// expression used in an equality pattern (false, e.g. a match case).
func (p *Parser) parsePrimaryPattern(inBindingContext bool) ast.PatternID {
	switch p.cur.Kind {
	case token.LeftParenthesis:
		return p.parseTupleOrParenPattern(inBindingContext)

	case token.Underscore:
		site := p.cur.Span
		p.advance()
		return ast.Untyped[ast.Pattern](p.arena.Insert(ast.KindWildcardPattern, site, &ast.WildcardPattern{}))

	case token.Var, token.Let, token.Inout:
		return p.parseBindingPattern()

	case token.Name:
		if inBindingContext {
			t := p.cur
			p.advance()
			if p.cur.Kind == token.LeftParenthesis || p.cur.Kind == token.Dot {
				return p.parseExtractorPatternFrom(t)
			}
			id := p.arena.Insert(ast.KindVariableDeclaration, t.Span, &ast.VariableDeclaration{Identifier: t.Text()})
			return ast.Untyped[ast.Pattern](id)
		}
		return p.parseExpressionAsPattern()

	case token.Dot:
		return p.parseExtractorPattern()

	default:
		return p.parseExpressionAsPattern()
	}
}

// parseExpressionAsPattern implements the fallback rule: "else, parse an
// expression (used as an equality pattern)" (spec.md §4.2). The resulting
// expression is admissible as a PatternID because Pattern's category bits
// include Expression (internal/ast/ids.go).
func (p *Parser) parseExpressionAsPattern() ast.PatternID {
	expr := p.parseExpression()
	pat, _ := ast.Cast[ast.Pattern](p.arena, expr.Raw())
	return pat
}

// parseBindingPattern parses "(var|let|inout) <subPattern>".
func (p *Parser) parseBindingPattern() ast.PatternID {
	start := p.cur.Span
	var introducer ast.BindingIntroducer
	switch p.cur.Kind {
	case token.Var:
		introducer = ast.BindVar
	case token.Let:
		introducer = ast.BindLet
	case token.Inout:
		introducer = ast.BindInout
	}
	p.advance()
	sub := p.parsePrimaryPattern(true)
	span := start.ExtendedToCover(p.arena.Site(sub.Raw()))
	id := p.arena.Insert(ast.KindBindingPattern, span, &ast.BindingPattern{Introducer: introducer, SubPattern: sub})
	return ast.Untyped[ast.Pattern](id)
}

// parseTupleOrParenPattern parses "(p)" (collapses to p) or "(l: p, ...)" (a
// tuple pattern), mirroring parseParenthesizedOrTuple for expressions.
func (p *Parser) parseTupleOrParenPattern(inBindingContext bool) ast.PatternID {
	start := p.cur.Span
	p.advance() // (
	if p.cur.Kind == token.RightParenthesis {
		end := p.cur.Span
		p.advance()
		span := start.ExtendedToCover(end)
		return ast.Untyped[ast.Pattern](p.arena.Insert(ast.KindTuplePattern, span, &ast.TuplePattern{}))
	}

	var elems []ast.TuplePatternElement
	sawTrailingComma := false
	for {
		label, pat := p.parseLabeledPatternElement(inBindingContext)
		elems = append(elems, ast.TuplePatternElement{Label: label, Pattern: pat})
		if p.cur.Kind == token.Comma {
			p.advance()
			sawTrailingComma = true
			if p.cur.Kind == token.RightParenthesis {
				break
			}
			sawTrailingComma = false
			continue
		}
		sawTrailingComma = false
		break
	}
	end := p.expect(token.RightParenthesis).Span
	span := start.ExtendedToCover(end)

	if len(elems) == 1 && elems[0].Label == "" && !sawTrailingComma {
		return elems[0].Pattern
	}
	return ast.Untyped[ast.Pattern](p.arena.Insert(ast.KindTuplePattern, span, &ast.TuplePattern{Elements: elems}))
}

// parseLabeledPatternElement applies the same no-backtrack label rule as
// parseLabeledExpression: parse the full pattern, and only reinterpret it as
// a label if it is a bare binding name immediately followed by ':'.
func (p *Parser) parseLabeledPatternElement(inBindingContext bool) (string, ast.PatternID) {
	pat := p.parsePattern(inBindingContext)
	if p.cur.Kind == token.Colon {
		if name, ok := bareBindingName(p.arena, pat); ok {
			p.advance()
			value := p.parsePattern(inBindingContext)
			return name, value
		}
	}
	return "", pat
}

func bareBindingName(arena *ast.Arena, pat ast.PatternID) (string, bool) {
	if decl, ok := ast.Get[ast.VariableDeclaration](arena, pat.Raw()); ok {
		return decl.Identifier, true
	}
	if n, ok := ast.Get[ast.NameExpr](arena, pat.Raw()); ok && !n.Qualification.IsValid() && n.OperatorNotation == ast.NotationNone {
		return n.Name, true
	}
	return "", false
}

// parseExtractorPattern parses ".Name(args)" or ".Name.Name(args)", a
// qualified-callee extractor pattern head starting with '.'.
func (p *Parser) parseExtractorPattern() ast.PatternID {
	start := p.cur.Span
	p.advance() // .
	nameTok := p.expect(token.Name)
	callee := ast.Untyped[ast.Expression](p.arena.Insert(ast.KindNameExpr, start.ExtendedToCover(nameTok.Span), &ast.NameExpr{Qualification: ast.Invalid[ast.Expression](), Name: nameTok.Text()}))
	for p.cur.Kind == token.Dot {
		p.advance()
		memberTok := p.expect(token.Name)
		span := start.ExtendedToCover(memberTok.Span)
		callee = ast.Untyped[ast.Expression](p.arena.Insert(ast.KindNameExpr, span, &ast.NameExpr{Qualification: callee, Name: memberTok.Text()}))
	}
	return p.parseExtractorArguments(callee, start)
}

// parseExtractorPatternFrom builds an extractor pattern whose callee head
// was already consumed as a plain name token (the ambiguity between a bare
// binding name and a zero-argument-looking extractor is resolved by peeking
// for '(' or '.' immediately after the name, done by the caller).
func (p *Parser) parseExtractorPatternFrom(head token.Token) ast.PatternID {
	callee := ast.Untyped[ast.Expression](p.arena.Insert(ast.KindNameExpr, head.Span, &ast.NameExpr{Qualification: ast.Invalid[ast.Expression](), Name: head.Text()}))
	for p.cur.Kind == token.Dot {
		p.advance()
		memberTok := p.expect(token.Name)
		span := head.Span.ExtendedToCover(memberTok.Span)
		callee = ast.Untyped[ast.Expression](p.arena.Insert(ast.KindNameExpr, span, &ast.NameExpr{Qualification: callee, Name: memberTok.Text()}))
	}
	return p.parseExtractorArguments(callee, head.Span)
}

func (p *Parser) parseExtractorArguments(callee ast.ExpressionID, start source.Span) ast.PatternID {
	p.expect(token.LeftParenthesis)
	var args []ast.PatternID
	if p.cur.Kind != token.RightParenthesis {
		for {
			args = append(args, p.parsePattern(true))
			if p.cur.Kind == token.Comma {
				p.advance()
				continue
			}
			break
		}
	}
	end := p.expect(token.RightParenthesis).Span
	span := start.ExtendedToCover(end)
	id := p.arena.Insert(ast.KindExtractorPattern, span, &ast.ExtractorPattern{Callee: callee, Arguments: args})
	return ast.Untyped[ast.Pattern](id)
}
