package parser

import (
	"github.com/kyouko-taiga/dyva/internal/ast"
	"github.com/kyouko-taiga/dyva/internal/lexer"
	"github.com/kyouko-taiga/dyva/internal/source"
	"github.com/kyouko-taiga/dyva/internal/token"
)

// parseExpression is the entry point for expression grammar: type test
// over infix precedence climbing (spec.md §4.2 steps 1-2).
func (p *Parser) parseExpression() ast.ExpressionID {
	lhs := p.parseInfix(0)
	for p.cur.Kind == token.Is {
		p.advance()
		rhs := p.parseCompound()
		span := p.arena.Site(lhs.Raw()).ExtendedToCover(p.arena.Site(rhs.Raw()))
		lhs = ast.Untyped[ast.Expression](p.arena.Insert(ast.KindTypeTestExpr, span, &ast.TypeTestExpr{LHS: lhs, RHS: rhs}))
	}
	return lhs
}

// parseInfix implements precedence climbing; an operator token only binds
// as infix when whitespace surrounds it on both sides (spec.md §4.2 step
// 2), otherwise the loop stops and the operator is left for the caller
// (where it will be read as postfix on the next turn, or as a syntax
// error).
func (p *Parser) parseInfix(minLevel int) ast.ExpressionID {
	lhs := p.parseOperand()
	for p.cur.Kind == token.Operator && p.isInfixPosition() {
		group := precedenceOf(p.cur.Text())
		if group.level < minLevel {
			break
		}
		opSpan := p.cur.Span
		opText := p.cur.Text()
		p.advance()
		nextMin := group.level + 1
		if group.rightAssoc {
			nextMin = group.level
		}
		rhs := p.parseInfix(nextMin)
		lhs = p.makeOperatorCall(lhs, opText, opSpan, ast.NotationInfix, rhs, true)
	}
	return lhs
}

func (p *Parser) isInfixPosition() bool {
	return lexer.HasLeadingWhitespace(p.file, p.cur.Span.Start) &&
		lexer.HasTrailingWhitespace(p.file, p.cur.Span.End)
}

// parseOperand implements the prefix-operator level (spec.md §4.2 step 3).
func (p *Parser) parseOperand() ast.ExpressionID {
	if p.cur.Kind == token.Operator {
		opSpan := p.cur.Span
		opText := p.cur.Text()
		if lexer.HasTrailingWhitespace(p.file, opSpan.End) {
			p.errorf(opSpan, "unary operator '%s' cannot be separated from its operand", opText)
		}
		p.advance()
		operand := p.parsePostfix()
		return p.makeOperatorCall(operand, opText, opSpan, ast.NotationPrefix, ast.Invalid[ast.Expression](), false)
	}
	return p.parsePostfix()
}

// parsePostfix implements the postfix-operator level (spec.md §4.2 step 4).
func (p *Parser) parsePostfix() ast.ExpressionID {
	e := p.parseCompound()
	for p.cur.Kind == token.Operator && !lexer.HasLeadingWhitespace(p.file, p.cur.Span.Start) {
		opSpan := p.cur.Span
		opText := p.cur.Text()
		p.advance()
		e = p.makeOperatorCall(e, opText, opSpan, ast.NotationPostfix, ast.Invalid[ast.Expression](), false)
	}
	return e
}

// makeOperatorCall encodes a unary/binary operator as a NameExpression
// qualified by the operand (prefix/postfix) or the LHS (infix), with a name
// carrying the operator notation, wrapped in a Call (spec.md §4.2: "Operators
// are encoded as method calls").
func (p *Parser) makeOperatorCall(receiver ast.ExpressionID, opText string, opSpan source.Span, notation ast.OperatorNotation, operand ast.ExpressionID, hasOperand bool) ast.ExpressionID {
	name := &ast.NameExpr{
		Qualification:    receiver,
		Name:             opText,
		OperatorNotation: notation,
	}
	nameID := ast.Untyped[ast.Expression](p.arena.Insert(ast.KindNameExpr, opSpan, name))

	var args []ast.CallArgument
	callEnd := opSpan
	if hasOperand {
		args = []ast.CallArgument{{Value: operand}}
		callEnd = p.arena.Site(operand.Raw())
	}
	receiverSite := p.arena.Site(receiver.Raw())
	span := receiverSite.ExtendedToCover(callEnd)
	call := &ast.CallExpr{Callee: nameID, Arguments: args, Style: ast.StyleParenthesized}
	return ast.Untyped[ast.Expression](p.arena.Insert(ast.KindCallExpr, span, call))
}

// parseCompound implements spec.md §4.2 step 5: a primary expression
// followed by zero or more suffixes that must start on the same source
// line as the head.
func (p *Parser) parseCompound() ast.ExpressionID {
	e := p.parsePrimary()
	for {
		headSite := p.arena.Site(e.Raw())
		switch {
		case p.cur.Kind == token.Dot && p.sameLine(headSite, p.cur.Span):
			p.advance()
			nameTok := p.expect(token.Name)
			name := &ast.NameExpr{Qualification: e, Name: nameTok.Text()}
			span := headSite.ExtendedToCover(nameTok.Span)
			e = ast.Untyped[ast.Expression](p.arena.Insert(ast.KindNameExpr, span, name))

		case p.cur.Kind == token.LeftParenthesis && p.sameLine(headSite, p.cur.Span):
			args, endSpan := p.parseCallArguments(token.RightParenthesis)
			span := headSite.ExtendedToCover(endSpan)
			call := &ast.CallExpr{Callee: e, Arguments: args, Style: ast.StyleParenthesized}
			e = ast.Untyped[ast.Expression](p.arena.Insert(ast.KindCallExpr, span, call))

		case p.cur.Kind == token.LeftBracket && p.sameLine(headSite, p.cur.Span):
			args, endSpan := p.parseCallArguments(token.RightBracket)
			span := headSite.ExtendedToCover(endSpan)
			call := &ast.CallExpr{Callee: e, Arguments: args, Style: ast.StyleBracketed}
			e = ast.Untyped[ast.Expression](p.arena.Insert(ast.KindCallExpr, span, call))

		default:
			return e
		}
	}
}

// parseCallArguments parses a comma-separated, optionally labeled argument
// list opened by the token just before cur and closed by closer.
func (p *Parser) parseCallArguments(closer token.Kind) ([]ast.CallArgument, source.Span) {
	p.advance() // opening delimiter
	if p.cur.Kind == closer {
		end := p.cur.Span
		p.advance()
		return nil, end
	}
	var args []ast.CallArgument
	for {
		label, value := p.parseLabeledExpression()
		args = append(args, ast.CallArgument{Label: label, Value: value})
		if p.cur.Kind == token.Comma {
			p.advance()
			if p.cur.Kind == closer {
				break
			}
			continue
		}
		break
	}
	end := p.expect(closer).Span
	return args, end
}

// parseLabeledExpression implements the call-argument/tuple-element label
// rule without backtracking: parse a full expression, and only if it turns
// out to be a bare (unqualified, non-operator) name expression immediately
// followed by ':' is it reinterpreted as a label (spec.md §4.2, "Tuple/
// parenthesized").
func (p *Parser) parseLabeledExpression() (string, ast.ExpressionID) {
	expr := p.parseExpression()
	if p.cur.Kind == token.Colon {
		if name, ok := bareName(p.arena, expr); ok {
			p.advance()
			value := p.parseExpression()
			return name, value
		}
	}
	return "", expr
}

func bareName(arena *ast.Arena, expr ast.ExpressionID) (string, bool) {
	n, ok := ast.Get[ast.NameExpr](arena, expr.Raw())
	if !ok || n.Qualification.IsValid() || n.OperatorNotation != ast.NotationNone {
		return "", false
	}
	return n.Name, true
}

// parsePrimary dispatches on the head token kind (spec.md §4.2 step 6).
func (p *Parser) parsePrimary() ast.ExpressionID {
	switch p.cur.Kind {
	case token.LeftParenthesis:
		return p.parseParenthesizedOrTuple()
	case token.LeftBracket:
		return p.parseArrayOrDictionaryLiteral()
	case token.BooleanLiteral:
		t := p.cur
		p.advance()
		return ast.Untyped[ast.Expression](p.arena.Insert(ast.KindBooleanLiteralExpr, t.Span, &ast.BooleanLiteralExpr{Value: t.Text() == "true"}))
	case token.IntegerLiteral:
		t := p.cur
		p.advance()
		return ast.Untyped[ast.Expression](p.arena.Insert(ast.KindIntegerLiteralExpr, t.Span, &ast.IntegerLiteralExpr{Text: t.Text()}))
	case token.FloatingPointLiteral:
		t := p.cur
		p.advance()
		return ast.Untyped[ast.Expression](p.arena.Insert(ast.KindFloatingPointLiteralExpr, t.Span, &ast.FloatingPointLiteralExpr{Text: t.Text()}))
	case token.StringLiteral:
		t := p.cur
		p.advance()
		return ast.Untyped[ast.Expression](p.arena.Insert(ast.KindStringLiteralExpr, t.Span, &ast.StringLiteralExpr{Value: unescapeString(t.Text())}))
	case token.Backslash:
		return p.parseLambda()
	case token.If:
		return p.parseConditional()
	case token.Match:
		return p.parseMatch()
	case token.Try:
		return p.parseTry()
	case token.Name, token.Underscore:
		t := p.cur
		p.advance()
		return ast.Untyped[ast.Expression](p.arena.Insert(ast.KindNameExpr, t.Span, &ast.NameExpr{Qualification: ast.Invalid[ast.Expression](), Name: t.Text()}))
	default:
		p.errorf(p.cur.Span, "unexpected token '%s'", kindString(p.cur.Kind))
		p.abort()
		panic("unreachable")
	}
}

// unescapeString strips the surrounding quotes and resolves the \" and \\
// escapes the lexer guarantees are well-formed (spec.md §4.1).
func unescapeString(literal string) string {
	if len(literal) < 2 {
		return ""
	}
	inner := literal[1 : len(literal)-1]
	var b []byte
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				b = append(b, '\n')
			case 't':
				b = append(b, '\t')
			default:
				b = append(b, inner[i])
			}
			continue
		}
		b = append(b, inner[i])
	}
	return string(b)
}

// parseParenthesizedOrTuple implements spec.md §4.2's "Tuple/parenthesized"
// rule: "(e)" collapses to "e"; "(e,)" or "(l: e, ...)" is a tuple literal.
func (p *Parser) parseParenthesizedOrTuple() ast.ExpressionID {
	start := p.cur.Span
	p.advance() // (
	if p.cur.Kind == token.RightParenthesis {
		end := p.cur.Span
		p.advance()
		span := start.ExtendedToCover(end)
		return ast.Untyped[ast.Expression](p.arena.Insert(ast.KindTupleLiteralExpr, span, &ast.TupleLiteralExpr{}))
	}

	var labels []string
	var elems []ast.ExpressionID
	sawTrailingComma := false
	for {
		label, value := p.parseLabeledExpression()
		labels = append(labels, label)
		elems = append(elems, value)
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

	if len(elems) == 1 && labels[0] == "" && !sawTrailingComma {
		return elems[0]
	}
	return ast.Untyped[ast.Expression](p.arena.Insert(ast.KindTupleLiteralExpr, span, &ast.TupleLiteralExpr{Labels: labels, Elements: elems}))
}

// parseArrayOrDictionaryLiteral implements spec.md §4.2's "Array/dictionary
// literal" rule.
func (p *Parser) parseArrayOrDictionaryLiteral() ast.ExpressionID {
	start := p.cur.Span
	p.advance() // [
	if p.cur.Kind == token.RightBracket {
		end := p.cur.Span
		p.advance()
		span := start.ExtendedToCover(end)
		return ast.Untyped[ast.Expression](p.arena.Insert(ast.KindArrayLiteralExpr, span, &ast.ArrayLiteralExpr{}))
	}
	if p.cur.Kind == token.Colon {
		p.advance()
		end := p.expect(token.RightBracket).Span
		span := start.ExtendedToCover(end)
		return ast.Untyped[ast.Expression](p.arena.Insert(ast.KindDictionaryLiteralExpr, span, &ast.DictionaryLiteralExpr{}))
	}

	first := p.parseExpression()
	if p.cur.Kind == token.Colon {
		p.advance()
		firstValue := p.parseExpression()
		keys := []ast.ExpressionID{first}
		values := []ast.ExpressionID{firstValue}
		for p.cur.Kind == token.Comma {
			p.advance()
			if p.cur.Kind == token.RightBracket {
				break
			}
			k := p.parseExpression()
			p.expect(token.Colon)
			v := p.parseExpression()
			keys = append(keys, k)
			values = append(values, v)
		}
		end := p.expect(token.RightBracket).Span
		span := start.ExtendedToCover(end)
		return ast.Untyped[ast.Expression](p.arena.Insert(ast.KindDictionaryLiteralExpr, span, &ast.DictionaryLiteralExpr{Keys: keys, Values: values}))
	}

	elems := []ast.ExpressionID{first}
	for p.cur.Kind == token.Comma {
		p.advance()
		if p.cur.Kind == token.RightBracket {
			break
		}
		elems = append(elems, p.parseExpression())
	}
	end := p.expect(token.RightBracket).Span
	span := start.ExtendedToCover(end)
	return ast.Untyped[ast.Expression](p.arena.Insert(ast.KindArrayLiteralExpr, span, &ast.ArrayLiteralExpr{Elements: elems}))
}

// parseLambda parses "\(params) <blockBody>".
func (p *Parser) parseLambda() ast.ExpressionID {
	start := p.cur.Span
	p.advance() // backslash
	p.expect(token.LeftParenthesis)
	params := p.parseParameterList(token.RightParenthesis)
	body := p.parseBlockBody()
	end := start
	if len(body) > 0 {
		end = p.arena.Site(body[len(body)-1].Raw())
	}
	span := start.ExtendedToCover(end)
	return ast.Untyped[ast.Expression](p.arena.Insert(ast.KindLambdaExpr, span, &ast.LambdaExpr{Parameters: params, Body: body}))
}

// parseConditionList parses one or more comma-separated conditions.
func (p *Parser) parseConditionList() []ast.ConditionID {
	conds := []ast.ConditionID{p.parseCondition()}
	for p.cur.Kind == token.Comma {
		p.advance()
		conds = append(conds, p.parseCondition())
	}
	return conds
}

// parseCondition parses one entry of a condition list: a plain boolean
// expression, a "case pattern = scrutinee" match condition, or a bare
// let/var/inout binding used as a condition (spec.md §4.2, §4.6).
func (p *Parser) parseCondition() ast.ConditionID {
	switch p.cur.Kind {
	case token.Case:
		start := p.cur.Span
		p.advance()
		pattern := p.parsePattern(false)
		p.expect(token.Assign)
		scrutinee := p.parseExpression()
		span := start.ExtendedToCover(p.arena.Site(scrutinee.Raw()))
		id := p.arena.Insert(ast.KindMatchCondition, span, &ast.MatchCondition{Pattern: pattern, Scrutinee: scrutinee})
		return ast.UntypedCondition(id)
	case token.Var, token.Let, token.Inout:
		decl := p.parseBindingDeclaration(ast.RoleCondition)
		return ast.UntypedCondition(decl.Raw())
	default:
		expr := p.parseExpression()
		return ast.UntypedCondition(expr.Raw())
	}
}

// parseConditional parses "if conds do <blockBody> [else (if ... | do
// <blockBody>)]" (spec.md §4.2, §4.6).
func (p *Parser) parseConditional() ast.ExpressionID {
	start := p.cur.Span
	p.advance() // if
	conds := p.parseConditionList()
	p.expect(token.Do)
	successStmts := p.parseBlockBody()
	successSpan := start
	if len(successStmts) > 0 {
		successSpan = p.arena.Site(successStmts[len(successStmts)-1].Raw())
	}
	successID := p.arena.Insert(ast.KindBlockStatement, start.ExtendedToCover(successSpan), &ast.BlockStatement{Statements: successStmts})

	elseID := ast.InvalidElse()
	end := successSpan
	if p.cur.Kind == token.Else {
		p.advance()
		if p.cur.Kind == token.If {
			elseExpr := p.parseConditional()
			elseID = ast.UntypedElse(elseExpr.Raw())
			end = p.arena.Site(elseExpr.Raw())
		} else {
			p.expect(token.Do)
			elseStmts := p.parseBlockBody()
			elseSpan := start
			if len(elseStmts) > 0 {
				elseSpan = p.arena.Site(elseStmts[len(elseStmts)-1].Raw())
			}
			elseBlockID := p.arena.Insert(ast.KindBlockStatement, start.ExtendedToCover(elseSpan), &ast.BlockStatement{Statements: elseStmts})
			elseID = ast.UntypedElse(elseBlockID)
			end = elseSpan
		}
	}

	span := start.ExtendedToCover(end)
	return ast.Untyped[ast.Expression](p.arena.Insert(ast.KindConditionalExpr, span, &ast.ConditionalExpr{Conditions: conds, Success: successID, Else: elseID}))
}

// parseMatch parses "match <scrutinee> do [indented case*]" (spec.md §4.2).
func (p *Parser) parseMatch() ast.ExpressionID {
	start := p.cur.Span
	p.advance() // match
	scrutinee := p.parseExpression()
	p.expect(token.Do)
	cases := p.parseIndentedMembers(p.parseMatchCase)
	end := start
	if len(cases) > 0 {
		end = p.arena.Site(cases[len(cases)-1])
	}
	span := start.ExtendedToCover(end)
	return ast.Untyped[ast.Expression](p.arena.Insert(ast.KindMatchExpr, span, &ast.MatchExpr{Scrutinee: scrutinee, Cases: cases}))
}

func (p *Parser) parseMatchCase() ast.NodeID {
	start := p.expect(token.Case).Span
	pattern := p.parsePattern(false)
	guard := ast.Invalid[ast.Expression]()
	if p.cur.Kind == token.Where {
		p.advance()
		guard = p.parseExpression()
	}
	p.expect(token.Do)
	body := p.parseBlockBody()
	end := start
	if len(body) > 0 {
		end = p.arena.Site(body[len(body)-1].Raw())
	}
	span := start.ExtendedToCover(end)
	return p.arena.Insert(ast.KindMatchCase, span, &ast.MatchCase{Pattern: pattern, Guard: guard, Body: body})
}

// parseTry parses "try <blockBody> [catch <pattern> <blockBody>]" (spec.md
// §4.2: try is itself a block introducer).
func (p *Parser) parseTry() ast.ExpressionID {
	start := p.cur.Span
	p.advance() // try
	bodyStmts := p.parseBlockBody()
	bodyEnd := start
	if len(bodyStmts) > 0 {
		bodyEnd = p.arena.Site(bodyStmts[len(bodyStmts)-1].Raw())
	}
	bodyID := p.arena.Insert(ast.KindBlockStatement, start.ExtendedToCover(bodyEnd), &ast.BlockStatement{Statements: bodyStmts})

	catchPattern := ast.Invalid[ast.Pattern]()
	var catchBody []ast.StatementID
	end := bodyEnd
	if p.cur.Kind == token.Catch {
		p.advance()
		catchPattern = p.parsePattern(false)
		catchBody = p.parseBlockBody()
		if len(catchBody) > 0 {
			end = p.arena.Site(catchBody[len(catchBody)-1].Raw())
		}
	}
	span := start.ExtendedToCover(end)
	return ast.Untyped[ast.Expression](p.arena.Insert(ast.KindTryExpr, span, &ast.TryExpr{Body: bodyID, CatchPattern: catchPattern, CatchBody: catchBody}))
}
