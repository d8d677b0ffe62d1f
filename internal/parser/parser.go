// Package parser implements the recursive-descent, Pratt-style expression
// parser described in spec.md §4.2: one token of lookahead, an explicit
// indentation stack, and a single parse error recorded per source before
// parsing stops.
package parser

import (
	"github.com/kyouko-taiga/dyva/internal/ast"
	"github.com/kyouko-taiga/dyva/internal/diag"
	"github.com/kyouko-taiga/dyva/internal/lexer"
	"github.com/kyouko-taiga/dyva/internal/source"
	"github.com/kyouko-taiga/dyva/internal/token"
)

// Parser holds the mutable state of one parse. It is not safe for
// concurrent use, matching the single-threaded-per-module contract of
// spec.md §5.
type Parser struct {
	file  *source.File
	arena *ast.Arena
	lex   *lexer.Lexer
	diags *diag.Bag

	cur token.Token

	indentStack []source.Span

	maxErrors  int
	errorCount int

	imports []ast.DeclarationID
}

// Option configures a Parser at construction time, following the
// functional-options pattern used throughout this module (grounded in the
// lexer's Option type).
type Option func(*Parser)

// WithDiagnostics routes parse errors into bag.
func WithDiagnostics(bag *diag.Bag) Option {
	return func(p *Parser) { p.diags = bag }
}

// WithMaxErrors overrides the default policy of stopping after the first
// parse error (spec.md §4.2, §7: "the parser emits at most one parse error
// per source before stopping").
func WithMaxErrors(n int) Option {
	return func(p *Parser) { p.maxErrors = n }
}

// parseAbort unwinds the recursive-descent call stack back to Parse once
// the error budget is exhausted; it is recovered at the top level only.
type parseAbort struct{}

// Parse parses file into arena's node tree and returns the diagnostics
// bag used (the one passed via WithDiagnostics, or a fresh one). When
// asMain is true the module is the program entry and its top level is a
// sequence of statements; otherwise it is a sequence of declarations
// (spec.md §4.2).
func Parse(file *source.File, arena *ast.Arena, asMain bool, opts ...Option) *diag.Bag {
	p := &Parser{file: file, arena: arena, maxErrors: 1}
	for _, opt := range opts {
		opt(p)
	}
	if p.diags == nil {
		p.diags = &diag.Bag{}
	}
	p.lex = lexer.New(file, lexer.WithDiagnostics(p.diags))

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseAbort); !ok {
				panic(r)
			}
		}
	}()

	p.advance()
	if asMain {
		stmts := p.parseTopLevelStatements()
		arena.SetRoots(p.imports, stmts)
	} else {
		decls := p.parseTopLevelDeclarations()
		arena.SetRoots(p.imports, decls)
	}
	return p.diags
}

// --- token-stream primitives ---

func (p *Parser) advance() {
	p.cur = p.lex.Next()
}

// expect consumes cur if it matches kind, recording a diagnostic and
// aborting otherwise.
func (p *Parser) expect(kind token.Kind) token.Token {
	if p.cur.Kind != kind {
		p.errorf(p.cur.Span, "expected %q", kind.String())
		p.abort()
	}
	t := p.cur
	p.advance()
	return t
}

func (p *Parser) errorf(site source.Span, format string, args ...any) {
	p.diags.Errorf(site, format, args...)
	p.errorCount++
	if p.errorCount >= p.maxErrors {
		panic(parseAbort{})
	}
}

func (p *Parser) abort() { panic(parseAbort{}) }

// sameLine reports whether site and cur's span start on the same source
// line, used to decide whether a compound-expression suffix or a
// consecutive statement binds to the preceding construct (spec.md §4.2).
func (p *Parser) sameLine(a source.Span, b source.Span) bool {
	aLine, _ := a.EndPosition().LineColumn()
	bLine, _ := b.StartPosition().LineColumn()
	return aLine == bLine
}

// --- indentation guard (spec.md §4.2) ---

// pushIndent consumes a maximal run of consecutive Indentation tokens,
// pushes a span summarizing them onto the indentation stack, and returns
// how many were consumed (the count popIndent must later match).
func (p *Parser) pushIndent() int {
	start := p.cur.Span
	end := start
	count := 0
	for p.cur.Kind == token.Indentation {
		end = p.cur.Span
		count++
		p.advance()
	}
	p.indentStack = append(p.indentStack, start.ExtendedToCover(end))
	return count
}

// popIndent consumes count Dedentation tokens, closing the indentation
// level pushIndent opened. A missing dedent is diagnosed with a note
// describing the indentation that was never closed.
func (p *Parser) popIndent(count int) {
	opened := p.indentStack[len(p.indentStack)-1]
	p.indentStack = p.indentStack[:len(p.indentStack)-1]

	for i := 0; i < count; i++ {
		if p.cur.Kind != token.Dedentation {
			note := diag.Notef(opened, "indentation of %d characters introduced here is never closed", opened.End-opened.Start)
			d := diag.New(diag.Error, "dedendation does not match the current indentation", p.cur.Span).WithNotes(note)
			p.diags.Add(d)
			p.errorCount++
			if p.errorCount >= p.maxErrors {
				panic(parseAbort{})
			}
			return
		}
		p.advance()
	}
}

// parseBlockBody implements the block-body rule shared by every block
// introducer (function body after '=', for/while/conditional bodies after
// 'do', try bodies, match-case bodies): an indented sequence of statements
// delimited by matching dedents, or exactly one statement on the same line.
func (p *Parser) parseBlockBody() []ast.StatementID {
	if p.cur.Kind != token.Indentation {
		return []ast.StatementID{p.parseStatement()}
	}
	count := p.pushIndent()
	var stmts []ast.StatementID
	var lastSite source.Span
	haveLast := false
	// A deeper indentation between statements opens no block; the loop stops
	// there and popIndent reports the mismatch.
	for p.cur.Kind != token.Dedentation && p.cur.Kind != token.EOF && p.cur.Kind != token.Indentation {
		for p.cur.Kind == token.Semicolon {
			p.advance()
		}
		if p.cur.Kind == token.Dedentation || p.cur.Kind == token.EOF {
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
	p.popIndent(count)
	return stmts
}

// parseIndentedMembers implements the same indentation shape as
// parseBlockBody but for member-declaration lists (struct/trait bodies),
// which have no statement-separation rule of their own.
func (p *Parser) parseIndentedMembers(parseOne func() ast.NodeID) []ast.NodeID {
	if p.cur.Kind != token.Indentation {
		return []ast.NodeID{parseOne()}
	}
	count := p.pushIndent()
	var members []ast.NodeID
	for p.cur.Kind != token.Dedentation && p.cur.Kind != token.EOF {
		for p.cur.Kind == token.Semicolon {
			p.advance()
		}
		if p.cur.Kind == token.Dedentation || p.cur.Kind == token.EOF {
			break
		}
		members = append(members, parseOne())
	}
	p.popIndent(count)
	return members
}

// wrapStatement casts any Declaration/Expression/Statement-tagged node into
// a StatementID; every one of those categories is statement-admissible
// (spec.md §3.3).
func wrapStatement(id ast.NodeID) ast.StatementID {
	return ast.Untyped[ast.Statement](id)
}

func kindString(k token.Kind) string { return k.String() }
