package parser

import (
	"github.com/kyouko-taiga/dyva/internal/ast"
	"github.com/kyouko-taiga/dyva/internal/source"
	"github.com/kyouko-taiga/dyva/internal/token"
)

// parseTopLevelStatements is the entry point for a main module: a sequence
// of import declarations followed by a sequence of statements (spec.md
// §4.2, §4.9).
func (p *Parser) parseTopLevelStatements() []ast.StatementID {
	p.collectLeadingImports()
	var stmts []ast.StatementID
	var lastSite source.Span
	haveLast := false
	for p.cur.Kind != token.EOF {
		for p.cur.Kind == token.Semicolon {
			p.advance()
		}
		if p.cur.Kind == token.EOF {
			break
		}
		if haveLast && p.sameLine(lastSite, p.cur.Span) {
			p.errorf(p.cur.Span, "consecutive statements on a line must be separated by ';'")
		}
		stmt := p.parseStatement()
		lastSite = p.arena.Site(stmt.Raw())
		haveLast = true
		stmts = append(stmts, stmt)
	}
	return stmts
}

// parseTopLevelDeclarations is the entry point for a non-main module: a
// sequence of import declarations followed by a sequence of declarations
// (spec.md §4.2, §4.9).
func (p *Parser) parseTopLevelDeclarations() []ast.StatementID {
	p.collectLeadingImports()
	var decls []ast.StatementID
	for p.cur.Kind != token.EOF {
		for p.cur.Kind == token.Semicolon {
			p.advance()
		}
		if p.cur.Kind == token.EOF {
			break
		}
		switch p.cur.Kind {
		case token.Fun, token.Subscript, token.Struct, token.Trait, token.Var, token.Let, token.Inout:
			decl := p.parseDeclaration()
			decls = append(decls, wrapStatement(decl.Raw()))
		default:
			p.errorf(p.cur.Span, "expected a declaration, found %q", kindString(p.cur.Kind))
			p.abort()
		}
	}
	return decls
}

func (p *Parser) collectLeadingImports() {
	for p.cur.Kind == token.Import {
		p.imports = append(p.imports, p.parseImportDeclaration())
		for p.cur.Kind == token.Semicolon {
			p.advance()
		}
	}
}

// parseStatement dispatches on the head token (spec.md §3.3, §4.2).
func (p *Parser) parseStatement() ast.StatementID {
	switch p.cur.Kind {
	case token.Break:
		return p.parseBreak()
	case token.Continue:
		return p.parseContinue()
	case token.Return:
		return p.parseReturn()
	case token.Throw:
		return p.parseThrow()
	case token.For:
		return p.parseFor()
	case token.While:
		return p.parseWhile()
	case token.Var, token.Let, token.Inout:
		decl := p.parseBindingDeclaration(ast.RoleUnconditional)
		return wrapStatement(decl.Raw())
	case token.Fun, token.Subscript:
		decl := p.parseFunctionDeclaration()
		return wrapStatement(decl.Raw())
	case token.Struct:
		decl := p.parseStructDeclaration()
		return wrapStatement(decl.Raw())
	case token.Trait:
		decl := p.parseTraitDeclaration()
		return wrapStatement(decl.Raw())
	case token.Name:
		if p.cur.Text() == "yield" {
			return p.parseYield()
		}
		return p.parseExpressionOrAssignment()
	default:
		return p.parseExpressionOrAssignment()
	}
}

// parseExpressionOrAssignment parses an expression used at statement
// position, optionally followed by "= <expr>" to form an assignment
// (spec.md §3.3: "statements ... plus any ... expression used at statement
// position").
func (p *Parser) parseExpressionOrAssignment() ast.StatementID {
	start := p.parseExpression()
	if p.cur.Kind == token.Assign {
		p.advance()
		value := p.parseExpression()
		span := p.arena.Site(start.Raw()).ExtendedToCover(p.arena.Site(value.Raw()))
		id := p.arena.Insert(ast.KindAssignmentStatement, span, &ast.AssignmentStatement{Target: start, Value: value})
		return wrapStatement(id)
	}
	stmt, _ := ast.Cast[ast.Statement](p.arena, start.Raw())
	return stmt
}

func (p *Parser) parseBreak() ast.StatementID {
	site := p.cur.Span
	p.advance()
	return wrapStatement(p.arena.Insert(ast.KindBreakStatement, site, &ast.BreakStatement{}))
}

func (p *Parser) parseContinue() ast.StatementID {
	site := p.cur.Span
	p.advance()
	return wrapStatement(p.arena.Insert(ast.KindContinueStatement, site, &ast.ContinueStatement{}))
}

// parseReturn parses "return [expr]"; a return with no following expression
// on the same line is a bare return (spec.md §3.3).
func (p *Parser) parseReturn() ast.StatementID {
	start := p.cur.Span
	p.advance()
	value := ast.Invalid[ast.Expression]()
	end := start
	if p.startsExpressionOnSameLine(start) {
		value = p.parseExpression()
		end = p.arena.Site(value.Raw())
	}
	span := start.ExtendedToCover(end)
	return wrapStatement(p.arena.Insert(ast.KindReturnStatement, span, &ast.ReturnStatement{Value: value}))
}

// parseThrow parses "throw expr". Unlike return, a throw always carries a
// value (spec.md §4.9 resolves "throw" as a statement-position keyword
// distinct from return).
func (p *Parser) parseThrow() ast.StatementID {
	start := p.cur.Span
	p.advance()
	value := p.parseExpression()
	span := start.ExtendedToCover(p.arena.Site(value.Raw()))
	return wrapStatement(p.arena.Insert(ast.KindThrowStatement, span, &ast.ThrowStatement{Value: value}))
}

// parseYield parses the contextual "yield [expr]" statement used inside a
// subscript body (spec.md §4.6, §4.10). "yield" is not in the reserved
// keyword table; it is recognized only by spelling, at statement-dispatch
// position.
func (p *Parser) parseYield() ast.StatementID {
	start := p.cur.Span
	p.advance() // the "yield" name token
	value := ast.Invalid[ast.Expression]()
	end := start
	if p.startsExpressionOnSameLine(start) {
		value = p.parseExpression()
		end = p.arena.Site(value.Raw())
	}
	span := start.ExtendedToCover(end)
	return wrapStatement(p.arena.Insert(ast.KindYieldStatement, span, &ast.YieldStatement{Value: value}))
}

// startsExpressionOnSameLine reports whether cur both begins on the same
// line as after and could start an expression, used to decide whether a
// bare "return"/"yield" carries a value.
func (p *Parser) startsExpressionOnSameLine(after source.Span) bool {
	if !p.sameLine(after, p.cur.Span) {
		return false
	}
	switch p.cur.Kind {
	case token.Semicolon, token.Dedentation, token.EOF, token.Else, token.Catch:
		return false
	default:
		return true
	}
}

// parseFor parses "for <pattern> in <sequence> do <blockBody>" (spec.md
// §3.3, §4.2).
func (p *Parser) parseFor() ast.StatementID {
	start := p.cur.Span
	p.advance() // for
	pattern := p.parsePattern(true)
	p.expect(token.In)
	sequence := p.parseExpression()
	p.expect(token.Do)
	body := p.parseBlockBody()
	end := start
	if len(body) > 0 {
		end = p.arena.Site(body[len(body)-1].Raw())
	}
	bodyID := p.arena.Insert(ast.KindBlockStatement, start.ExtendedToCover(end), &ast.BlockStatement{Statements: body})
	span := start.ExtendedToCover(end)
	return wrapStatement(p.arena.Insert(ast.KindForStatement, span, &ast.ForStatement{Pattern: pattern, Sequence: sequence, Body: bodyID}))
}

// parseWhile parses "while <conds> do <blockBody>" (spec.md §3.3, §4.2).
func (p *Parser) parseWhile() ast.StatementID {
	start := p.cur.Span
	p.advance() // while
	conds := p.parseConditionList()
	p.expect(token.Do)
	body := p.parseBlockBody()
	end := start
	if len(body) > 0 {
		end = p.arena.Site(body[len(body)-1].Raw())
	}
	bodyID := p.arena.Insert(ast.KindBlockStatement, start.ExtendedToCover(end), &ast.BlockStatement{Statements: body})
	span := start.ExtendedToCover(end)
	return wrapStatement(p.arena.Insert(ast.KindWhileStatement, span, &ast.WhileStatement{Conditions: conds, Body: bodyID}))
}
