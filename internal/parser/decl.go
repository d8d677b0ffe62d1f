package parser

import (
	"github.com/kyouko-taiga/dyva/internal/ast"
	"github.com/kyouko-taiga/dyva/internal/token"
)

// parseDeclaration dispatches on a declaration-introducing keyword (spec.md
// §4.2, §3.3).
func (p *Parser) parseDeclaration() ast.DeclarationID {
	switch p.cur.Kind {
	case token.Fun, token.Subscript:
		return p.parseFunctionDeclaration()
	case token.Struct:
		return p.parseStructDeclaration()
	case token.Trait:
		return p.parseTraitDeclaration()
	case token.Var, token.Let, token.Inout:
		return p.parseBindingDeclaration(ast.RoleUnconditional)
	case token.Import:
		return p.parseImportDeclaration()
	default:
		p.errorf(p.cur.Span, "expected a declaration, found %q", kindString(p.cur.Kind))
		p.abort()
		panic("unreachable")
	}
}

// parseBindingDeclaration parses "(var|let|inout) <pattern> [= <expr>]"
// (spec.md §3.3, §4.2). role distinguishes an ordinary statement-position
// binding from one used as an if/while condition.
func (p *Parser) parseBindingDeclaration(role ast.BindingRole) ast.DeclarationID {
	start := p.cur.Span
	pattern := p.parseBindingPattern()
	initializer := ast.Invalid[ast.Expression]()
	end := p.arena.Site(pattern.Raw())
	if p.cur.Kind == token.Assign {
		p.advance()
		initializer = p.parseExpression()
		end = p.arena.Site(initializer.Raw())
	}
	span := start.ExtendedToCover(end)
	id := p.arena.Insert(ast.KindBindingDeclaration, span, &ast.BindingDeclaration{Pattern: pattern, Initializer: initializer, Role: role})
	return ast.Untyped[ast.Declaration](id)
}

// parseFunctionDeclaration parses "(fun|subscript) name(params) [= body |
// <nothing, meaning declared-but-unimplemented>]" (spec.md §3.3, §4.2).
func (p *Parser) parseFunctionDeclaration() ast.DeclarationID {
	start := p.cur.Span
	introducer := ast.IntroducerFun
	if p.cur.Kind == token.Subscript {
		introducer = ast.IntroducerSubscript
	}
	p.advance()
	nameTok := p.expect(token.Name)
	p.expect(token.LeftParenthesis)
	params := p.parseParameterList(token.RightParenthesis)

	end := nameTok.Span
	var body []ast.StatementID
	hasBody := false
	if p.cur.Kind == token.Assign {
		p.advance()
		hasBody = true
		body = p.parseBlockBody()
		if len(body) > 0 {
			end = p.arena.Site(body[len(body)-1].Raw())
		}
	}
	span := start.ExtendedToCover(end)
	decl := &ast.FunctionDeclaration{Introducer: introducer, Name: nameTok.Text(), Parameters: params, Body: body, HasBody: hasBody}
	id := p.arena.Insert(ast.KindFunctionDeclaration, span, decl)
	return ast.Untyped[ast.Declaration](id)
}

// parseParameterList parses a comma-separated parameter list up to and
// including closer, which has already been seen as the first token (it is
// consumed here, mirroring parseCallArguments).
func (p *Parser) parseParameterList(closer token.Kind) []ast.NodeID {
	if p.cur.Kind == closer {
		p.advance()
		return nil
	}
	var params []ast.NodeID
	for {
		params = append(params, p.parseParameter())
		if p.cur.Kind == token.Comma {
			p.advance()
			continue
		}
		break
	}
	p.expect(closer)
	return params
}

// parseParameter parses "[convention] [label] name [= default]" (spec.md
// §3.3). A parameter written with a single name has an empty label, unless
// a second name follows, in which case the first is the external label and
// the second the internal identifier.
func (p *Parser) parseParameter() ast.NodeID {
	start := p.cur.Span

	convention := ast.ConventionNone
	switch p.cur.Kind {
	case token.Let:
		convention = ast.ConventionLet
		p.advance()
	case token.Inout:
		convention = ast.ConventionInout
		p.advance()
	case token.Var:
		convention = ast.ConventionSink
		p.advance()
	}

	first := p.expect(token.Name)
	label := ""
	identifier := first.Text()
	if p.cur.Kind == token.Name {
		label = first.Text()
		second := p.cur
		p.advance()
		identifier = second.Text()
	} else if first.Text() == "_" {
		label = ""
	}

	defaultValue := ast.Invalid[ast.Expression]()
	end := first.Span
	if p.cur.Kind == token.Assign {
		p.advance()
		defaultValue = p.parseExpression()
		end = p.arena.Site(defaultValue.Raw())
	}
	span := start.ExtendedToCover(end)
	param := &ast.ParameterDeclaration{Label: label, Identifier: identifier, Convention: convention, Default: defaultValue}
	return p.arena.Insert(ast.KindParameterDeclaration, span, param)
}

// parseStructDeclaration parses "struct Name [: Parent, ...] do [members]"
// (spec.md §3.3).
func (p *Parser) parseStructDeclaration() ast.DeclarationID {
	start := p.cur.Span
	p.advance() // struct
	nameTok := p.expect(token.Name)
	parents := p.parseOptionalParentList()

	var fields []ast.NodeID
	var members []ast.NodeID
	end := nameTok.Span
	if p.cur.Kind == token.Do {
		p.advance()
		all := p.parseIndentedMembers(p.parseMemberDeclaration)
		for _, m := range all {
			if kind, ok := p.arena.Tag(m); ok && kind == ast.KindFieldDeclaration {
				fields = append(fields, m)
			} else {
				members = append(members, m)
			}
		}
		if len(all) > 0 {
			end = p.arena.Site(all[len(all)-1])
		}
	}
	span := start.ExtendedToCover(end)
	decl := &ast.StructDeclaration{Name: nameTok.Text(), Fields: fields, ParentInterfaces: parents, Members: members}
	id := p.arena.Insert(ast.KindStructDeclaration, span, decl)
	return ast.Untyped[ast.Declaration](id)
}

// parseTraitDeclaration parses "trait Name [: Parent, ...] do [members]"
// (spec.md §3.3).
func (p *Parser) parseTraitDeclaration() ast.DeclarationID {
	start := p.cur.Span
	p.advance() // trait
	nameTok := p.expect(token.Name)
	parents := p.parseOptionalParentList()

	var members []ast.NodeID
	end := nameTok.Span
	if p.cur.Kind == token.Do {
		p.advance()
		members = p.parseIndentedMembers(p.parseMemberDeclaration)
		if len(members) > 0 {
			end = p.arena.Site(members[len(members)-1])
		}
	}
	span := start.ExtendedToCover(end)
	decl := &ast.TraitDeclaration{Name: nameTok.Text(), ParentInterfaces: parents, Members: members}
	id := p.arena.Insert(ast.KindTraitDeclaration, span, decl)
	return ast.Untyped[ast.Declaration](id)
}

func (p *Parser) parseOptionalParentList() []ast.ExpressionID {
	if p.cur.Kind != token.Colon {
		return nil
	}
	p.advance()
	parents := []ast.ExpressionID{p.parseCompound()}
	for p.cur.Kind == token.Comma {
		p.advance()
		parents = append(parents, p.parseCompound())
	}
	return parents
}

// parseMemberDeclaration parses one entry of a struct/trait body: a nested
// function/subscript declaration, or a stored field (spec.md §3.3).
func (p *Parser) parseMemberDeclaration() ast.NodeID {
	switch p.cur.Kind {
	case token.Fun, token.Subscript:
		return p.parseFunctionDeclaration().Raw()
	default:
		return p.parseFieldDeclaration()
	}
}

// parseFieldDeclaration parses "name [= default]" (spec.md §3.3).
func (p *Parser) parseFieldDeclaration() ast.NodeID {
	nameTok := p.expect(token.Name)
	defaultValue := ast.Invalid[ast.Expression]()
	end := nameTok.Span
	if p.cur.Kind == token.Assign {
		p.advance()
		defaultValue = p.parseExpression()
		end = p.arena.Site(defaultValue.Raw())
	}
	span := nameTok.Span.ExtendedToCover(end)
	return p.arena.Insert(ast.KindFieldDeclaration, span, &ast.FieldDeclaration{Identifier: nameTok.Text(), Default: defaultValue})
}

// parseImportDeclaration parses "import <path>" (spec.md §4.9), where path
// is a dotted sequence of names.
func (p *Parser) parseImportDeclaration() ast.DeclarationID {
	start := p.cur.Span
	p.advance() // import
	first := p.expect(token.Name)
	path := first.Text()
	end := first.Span
	for p.cur.Kind == token.Dot {
		p.advance()
		next := p.expect(token.Name)
		path += "." + next.Text()
		end = next.Span
	}
	span := start.ExtendedToCover(end)
	id := p.arena.Insert(ast.KindImportDeclaration, span, &ast.ImportDeclaration{Path: path})
	return ast.Untyped[ast.Declaration](id)
}
