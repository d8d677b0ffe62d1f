// Package lexer implements the indentation-aware tokenizer for the language
// (spec.md §4.1). A Lexer is single-threaded over one source.File and
// produces tokens in source order, synthesizing indentation/dedentation
// tokens as it tracks the logical indentation depth of each line.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kyouko-taiga/dyva/internal/diag"
	"github.com/kyouko-taiga/dyva/internal/source"
	"github.com/kyouko-taiga/dyva/internal/token"
)

const operatorAlphabet = "<>=+-*/%&|!?^~"

// Lexer tokenizes one source.File.
type Lexer struct {
	file *source.File
	text string

	pos     int // byte offset of ch
	nextPos int // byte offset after ch
	ch      rune

	indent  int // current indentation depth, in characters
	pending []token.Token

	// lineStart is true when the next call to Next must first run the
	// indentation protocol before scanning an ordinary token.
	lineStart bool

	diags   *diag.Bag
	tracing bool
}

// Option configures a Lexer at construction time.
type Option func(*Lexer)

// WithDiagnostics routes lexical errors (illegal characters, unterminated
// literals) into bag as they are discovered, in addition to being encoded
// as error-tagged tokens in the stream.
func WithDiagnostics(bag *diag.Bag) Option {
	return func(l *Lexer) { l.diags = bag }
}

// WithTracing sets the lexer's tracing flag. The flag is stored but no
// traces are emitted, and it has no effect on the token stream.
func WithTracing(trace bool) Option {
	return func(l *Lexer) { l.tracing = trace }
}

// New creates a Lexer over file's text.
func New(file *source.File, opts ...Option) *Lexer {
	l := &Lexer{file: file, text: file.Text(), lineStart: true}
	for _, opt := range opts {
		opt(l)
	}
	l.advance()
	return l
}

type lexState struct {
	pos, nextPos int
	ch           rune
}

func (l *Lexer) save() lexState { return lexState{l.pos, l.nextPos, l.ch} }

func (l *Lexer) restore(s lexState) {
	l.pos, l.nextPos, l.ch = s.pos, s.nextPos, s.ch
}

func (l *Lexer) advance() {
	if l.nextPos >= len(l.text) {
		l.pos = len(l.text)
		l.ch = 0
		return
	}
	r, size := utf8.DecodeRuneInString(l.text[l.nextPos:])
	l.pos = l.nextPos
	l.ch = r
	l.nextPos += size
}

func (l *Lexer) peek() rune {
	if l.nextPos >= len(l.text) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.text[l.nextPos:])
	return r
}

func (l *Lexer) currentPosition() source.Position {
	return source.Position{File: l.file, Offset: l.pos}
}

func (l *Lexer) spanFrom(start int) source.Span {
	return source.Span{File: l.file, Start: start, End: l.pos}
}

func (l *Lexer) addError(site source.Span, message string) {
	if l.diags != nil {
		l.diags.Errorf(site, "%s", message)
	}
}

// Next returns the next token from the input, which may be a synthesized
// Indentation/Dedentation layout token.
func (l *Lexer) Next() token.Token {
	for {
		if len(l.pending) > 0 {
			t := l.pending[0]
			l.pending = l.pending[1:]
			return t
		}
		if l.lineStart {
			l.lineStart = false
			l.processIndentation()
			continue
		}
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.advance()
		case l.ch == '\n':
			l.advance()
			l.lineStart = true
		case l.ch == '#':
			l.skipLineComment()
		case l.ch == 0:
			if l.indent > 0 {
				l.emitDedents(l.indent)
				l.indent = 0
				continue
			}
			return token.New(token.EOF, source.EmptyAt(l.currentPosition()))
		default:
			return l.scanToken()
		}
	}
}

// processIndentation measures the indentation of the line the cursor now
// sits at the start of, skipping any number of blank or comment-only lines
// first, and queues the Indentation/Dedentation tokens the change in depth
// implies (spec.md §4.1).
func (l *Lexer) processIndentation() {
	for {
		lineStart := l.pos
		count := 0
		for l.ch == ' ' || l.ch == '\t' {
			count++
			l.advance()
		}
		switch {
		case l.ch == '#':
			l.skipLineComment()
			if l.ch == '\n' {
				l.advance()
				continue
			}
			return // EOF right after a trailing comment
		case l.ch == '\n':
			l.advance()
			continue
		case l.ch == 0:
			return
		default:
			if count > l.indent {
				for i := l.indent; i < count; i++ {
					sp := source.Span{File: l.file, Start: lineStart + i, End: lineStart + i + 1}
					l.pending = append(l.pending, token.New(token.Indentation, sp))
				}
			} else if count < l.indent {
				l.emitDedents(l.indent - count)
			}
			l.indent = count
			return
		}
	}
}

func (l *Lexer) emitDedents(n int) {
	for i := 0; i < n; i++ {
		l.pending = append(l.pending, token.New(token.Dedentation, source.EmptyAt(l.currentPosition())))
	}
}

func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.advance()
	}
}

func isLetter(ch rune) bool { return unicode.IsLetter(ch) || ch == '_' }
func isDigit(ch rune) bool  { return ch >= '0' && ch <= '9' }
func isHexDigit(ch rune) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
func isOctalDigit(ch rune) bool { return ch >= '0' && ch <= '7' }
func isOperatorRune(ch rune) bool {
	return strings.ContainsRune(operatorAlphabet, ch)
}

// scanToken dispatches on the current character to produce one ordinary
// (non-layout) token.
func (l *Lexer) scanToken() token.Token {
	start := l.pos
	switch {
	case isLetter(l.ch):
		lit := l.readIdentifier()
		return token.New(token.LookupIdentifier(lit), l.spanFrom(start))
	case isDigit(l.ch):
		kind, _ := l.readNumber()
		return token.New(kind, l.spanFrom(start))
	case l.ch == '-' && isDigit(l.peek()):
		kind, _ := l.readNumber()
		return token.New(kind, l.spanFrom(start))
	case l.ch == '`':
		return l.scanBackquotedIdentifier()
	case l.ch == '"':
		return l.scanString()
	case isOperatorRune(l.ch):
		return l.scanOperator()
	case l.ch == ',':
		l.advance()
		return token.New(token.Comma, l.spanFrom(start))
	case l.ch == '.':
		l.advance()
		return token.New(token.Dot, l.spanFrom(start))
	case l.ch == ':':
		l.advance()
		return token.New(token.Colon, l.spanFrom(start))
	case l.ch == ';':
		l.advance()
		return token.New(token.Semicolon, l.spanFrom(start))
	case l.ch == '@':
		l.advance()
		return token.New(token.At, l.spanFrom(start))
	case l.ch == '\\':
		l.advance()
		return token.New(token.Backslash, l.spanFrom(start))
	case l.ch == '[':
		l.advance()
		return token.New(token.LeftBracket, l.spanFrom(start))
	case l.ch == ']':
		l.advance()
		return token.New(token.RightBracket, l.spanFrom(start))
	case l.ch == '(':
		l.advance()
		return token.New(token.LeftParenthesis, l.spanFrom(start))
	case l.ch == ')':
		l.advance()
		return token.New(token.RightParenthesis, l.spanFrom(start))
	default:
		offending := l.ch
		l.advance()
		span := l.spanFrom(start)
		l.addError(span, "illegal character: "+string(offending))
		return token.New(token.Error, span)
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.advance()
	}
	return l.text[start:l.pos]
}

func (l *Lexer) scanBackquotedIdentifier() token.Token {
	start := l.pos
	l.advance() // opening `
	contentStart := l.pos
	for l.ch != '`' && l.ch != 0 && l.ch != '\n' {
		l.advance()
	}
	if l.ch != '`' {
		span := l.spanFrom(start)
		l.addError(span, "unterminated backquoted identifier")
		return token.New(token.UnterminatedBackquotedIdentifier, span)
	}
	empty := l.pos == contentStart
	l.advance() // closing `
	span := l.spanFrom(start)
	if empty {
		l.addError(span, "empty backquoted identifier")
		return token.New(token.Error, span)
	}
	return token.New(token.Name, span)
}

func (l *Lexer) scanString() token.Token {
	start := l.pos
	l.advance() // opening quote
	for l.ch != '"' && l.ch != 0 {
		if l.ch == '\\' {
			l.advance()
			if l.ch != 0 {
				l.advance()
			}
			continue
		}
		l.advance()
	}
	if l.ch != '"' {
		span := l.spanFrom(start)
		l.addError(span, "unterminated string literal")
		return token.New(token.UnterminatedStringLiteral, span)
	}
	l.advance() // closing quote
	return token.New(token.StringLiteral, l.spanFrom(start))
}

// readNumber scans a decimal, hex (0x), octal (0o), or binary (0b) integer,
// or a decimal float, per spec.md §4.1. A leading '-' is consumed only by
// the caller having already checked it directly precedes a digit.
func (l *Lexer) readNumber() (token.Kind, string) {
	start := l.pos
	if l.ch == '-' {
		l.advance()
	}
	if l.ch == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.advance()
		l.advance()
		for isHexDigit(l.ch) || l.ch == '_' {
			l.advance()
		}
		return token.IntegerLiteral, l.text[start:l.pos]
	}
	if l.ch == '0' && (l.peek() == 'o' || l.peek() == 'O') {
		l.advance()
		l.advance()
		for isOctalDigit(l.ch) || l.ch == '_' {
			l.advance()
		}
		return token.IntegerLiteral, l.text[start:l.pos]
	}
	if l.ch == '0' && (l.peek() == 'b' || l.peek() == 'B') {
		l.advance()
		l.advance()
		for l.ch == '0' || l.ch == '1' || l.ch == '_' {
			l.advance()
		}
		return token.IntegerLiteral, l.text[start:l.pos]
	}

	for isDigit(l.ch) || l.ch == '_' {
		l.advance()
	}

	isFloat := false
	if l.ch == '.' && isDigit(l.peek()) {
		isFloat = true
		l.advance()
		for isDigit(l.ch) || l.ch == '_' {
			l.advance()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		saved := l.save()
		l.advance()
		if l.ch == '+' || l.ch == '-' {
			l.advance()
		}
		if isDigit(l.ch) {
			isFloat = true
			for isDigit(l.ch) || l.ch == '_' {
				l.advance()
			}
		} else {
			l.restore(saved)
		}
	}

	kind := token.IntegerLiteral
	if isFloat {
		kind = token.FloatingPointLiteral
	}
	return kind, l.text[start:l.pos]
}

// scanOperator reads the longest run of the operator alphabet. Exact
// matches "=" and "=>" get dedicated tags; any other run is generic
// Operator (spec.md §3.2, §6.3).
func (l *Lexer) scanOperator() token.Token {
	start := l.pos
	for isOperatorRune(l.ch) {
		l.advance()
	}
	span := l.spanFrom(start)
	switch span.Text() {
	case "=":
		return token.New(token.Assign, span)
	case "=>":
		return token.New(token.ThickArrow, span)
	default:
		return token.New(token.Operator, span)
	}
}

// HasLeadingWhitespace reports whether a space, tab, newline or carriage
// return byte immediately precedes offset in the lexer's source text; the
// start of the text does not count as whitespace. The parser uses
// this to distinguish prefix/postfix/infix operator placement (spec.md
// §4.2) without re-lexing.
func HasLeadingWhitespace(file *source.File, offset int) bool {
	text := file.Text()
	if offset <= 0 || offset > len(text) {
		return false
	}
	switch text[offset-1] {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

// HasTrailingWhitespace reports whether a space, tab, newline or carriage
// return byte immediately follows offset in the lexer's source text, or
// offset is at or past the end of the text. Paired with
// HasLeadingWhitespace, this lets the parser decide whether an operator
// token is "surrounded by whitespace" (infix) without re-lexing or a
// second token of lookahead (spec.md §4.2).
func HasTrailingWhitespace(file *source.File, offset int) bool {
	text := file.Text()
	if offset < 0 || offset >= len(text) {
		return true // end of file counts as a boundary
	}
	switch text[offset] {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}
