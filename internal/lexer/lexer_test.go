package lexer

import (
	"testing"

	"github.com/kyouko-taiga/dyva/internal/source"
	"github.com/kyouko-taiga/dyva/internal/token"
)

func collect(text string) []token.Token {
	l := New(source.NewFile("t.dyva", text))
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestNextTokenBasic(t *testing.T) {
	toks := collect(`let x = 5`)

	tests := []struct {
		kind    token.Kind
		literal string
	}{
		{token.Let, "let"},
		{token.Name, "x"},
		{token.Assign, "="},
		{token.IntegerLiteral, "5"},
		{token.EOF, ""},
	}

	if len(toks) != len(tests) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(tests), toks)
	}
	for i, tt := range tests {
		if toks[i].Kind != tt.kind {
			t.Errorf("tokens[%d] kind = %s, want %s", i, toks[i].Kind, tt.kind)
		}
		if toks[i].Text() != tt.literal {
			t.Errorf("tokens[%d] text = %q, want %q", i, toks[i].Text(), tt.literal)
		}
	}
}

func TestKeywords(t *testing.T) {
	input := "fun struct trait var let inout match if else for while " +
		"break continue return throw try catch defer is as in where " +
		"import infix prefix postfix subscript case do"
	toks := collect(input)
	expected := []token.Kind{
		token.Fun, token.Struct, token.Trait, token.Var, token.Let, token.Inout,
		token.Match, token.If, token.Else, token.For, token.While,
		token.Break, token.Continue, token.Return, token.Throw, token.Try, token.Catch,
		token.Defer, token.Is, token.As, token.In, token.Where,
		token.Import, token.Infix, token.Prefix, token.Postfix, token.Subscript, token.Case, token.Do,
		token.EOF,
	}
	if len(toks) != len(expected) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(expected))
	}
	for i, k := range expected {
		if toks[i].Kind != k {
			t.Errorf("tokens[%d] kind = %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestUnderscoreAndBooleans(t *testing.T) {
	toks := collect("_ true false")
	expected := []token.Kind{token.Underscore, token.BooleanLiteral, token.BooleanLiteral, token.EOF}
	for i, k := range expected {
		if toks[i].Kind != k {
			t.Errorf("tokens[%d] kind = %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestBackquotedIdentifier(t *testing.T) {
	toks := collect("`for` + ``")
	if toks[0].Kind != token.Name {
		t.Errorf("first token kind = %s, want name", toks[0].Kind)
	}
	if toks[2].Kind != token.Error {
		t.Errorf("empty backquote kind = %s, want error", toks[2].Kind)
	}
}

func TestUnterminatedBackquotedIdentifier(t *testing.T) {
	toks := collect("`abc")
	if toks[0].Kind != token.UnterminatedBackquotedIdentifier {
		t.Errorf("kind = %s, want unterminatedBackquotedIdentifier", toks[0].Kind)
	}
}

func TestStringLiteral(t *testing.T) {
	toks := collect(`"hello \"world\""`)
	if toks[0].Kind != token.StringLiteral {
		t.Fatalf("kind = %s, want stringLiteral", toks[0].Kind)
	}
}

func TestUnterminatedStringLiteral(t *testing.T) {
	toks := collect(`"hello`)
	if toks[0].Kind != token.UnterminatedStringLiteral {
		t.Errorf("kind = %s, want unterminatedStringLiteral", toks[0].Kind)
	}
}

func TestNumericLiterals(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
	}{
		{"123", token.IntegerLiteral},
		{"0x1F", token.IntegerLiteral},
		{"0o17", token.IntegerLiteral},
		{"0b1010", token.IntegerLiteral},
		{"1_000", token.IntegerLiteral},
		{"123.45", token.FloatingPointLiteral},
		{"1.5e10", token.FloatingPointLiteral},
		{"1e5", token.FloatingPointLiteral},
	}
	for _, tt := range tests {
		toks := collect(tt.input)
		if toks[0].Kind != tt.kind {
			t.Errorf("%q: kind = %s, want %s", tt.input, toks[0].Kind, tt.kind)
		}
		if toks[0].Text() != tt.input {
			t.Errorf("%q: text = %q", tt.input, toks[0].Text())
		}
	}
}

func TestTrailingDotIsNotFloat(t *testing.T) {
	toks := collect("1.foo")
	if toks[0].Kind != token.IntegerLiteral || toks[0].Text() != "1" {
		t.Fatalf("first token = %+v, want integerLiteral 1", toks[0])
	}
	if toks[1].Kind != token.Dot {
		t.Fatalf("second token kind = %s, want dot", toks[1].Kind)
	}
}

func TestNegativeNumberLexedAsSingleLiteral(t *testing.T) {
	toks := collect("-5")
	if toks[0].Kind != token.IntegerLiteral || toks[0].Text() != "-5" {
		t.Fatalf("token = %+v, want integerLiteral -5", toks[0])
	}
}

func TestOperatorRuns(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
	}{
		{"=", token.Assign},
		{"=>", token.ThickArrow},
		{"==", token.Operator},
		{"<=", token.Operator},
		{"<>", token.Operator},
		{"+", token.Operator},
	}
	for _, tt := range tests {
		toks := collect(tt.input)
		if toks[0].Kind != tt.kind {
			t.Errorf("%q: kind = %s, want %s", tt.input, toks[0].Kind, tt.kind)
		}
	}
}

func TestLineComment(t *testing.T) {
	toks := collect("let x = 1 # a comment\nlet y = 2")
	var kinds []token.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	// no COMMENT tokens should appear
	for _, k := range kinds {
		if k.String() == "comment" {
			t.Fatalf("unexpected comment token in stream: %+v", kinds)
		}
	}
}

func TestIndentationBasic(t *testing.T) {
	input := "fun f() =\n  a\n  b\n"
	toks := collect(input)
	var kinds []token.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	// fun f ( ) = INDENT a DEDENT? no: a and b are same depth, so only one
	// indentation before 'a' and trailing dedents at EOF.
	indentCount, dedentCount := 0, 0
	for _, k := range kinds {
		if k == token.Indentation {
			indentCount++
		}
		if k == token.Dedentation {
			dedentCount++
		}
	}
	if indentCount != 2 {
		t.Errorf("indentCount = %d, want 2 (two-space indent)", indentCount)
	}
	if dedentCount != 2 {
		t.Errorf("dedentCount = %d, want 2 (trailing dedent at EOF)", dedentCount)
	}
}

func TestIndentationNestedAndDedent(t *testing.T) {
	input := "fun f() =\n  if x do\n    a\n  b\n"
	toks := collect(input)
	indentCount, dedentCount := 0, 0
	for _, tok := range toks {
		if tok.Kind == token.Indentation {
			indentCount++
		}
		if tok.Kind == token.Dedentation {
			dedentCount++
		}
	}
	// depth 0 -> 2 (outer, +2) -> 4 (inner, +2) -> 2 (dedent 2) -> 0 (trailing dedent 2)
	if indentCount != 4 {
		t.Errorf("indentCount = %d, want 4", indentCount)
	}
	if dedentCount != 4 {
		t.Errorf("dedentCount = %d, want 4", dedentCount)
	}
}

func TestBlankAndCommentLinesDoNotAffectIndentation(t *testing.T) {
	input := "fun f() =\n  a\n\n  # a comment at a different indent\n  b\n"
	toks := collect(input)
	indentCount, dedentCount := 0, 0
	for _, tok := range toks {
		if tok.Kind == token.Indentation {
			indentCount++
		}
		if tok.Kind == token.Dedentation {
			dedentCount++
		}
	}
	if indentCount != 2 {
		t.Errorf("indentCount = %d, want 2", indentCount)
	}
	if dedentCount != 2 {
		t.Errorf("dedentCount = %d, want 2", dedentCount)
	}
}

func TestEmptyInputProducesOnlyEOF(t *testing.T) {
	toks := collect("")
	if len(toks) != 1 || toks[0].Kind != token.EOF {
		t.Fatalf("toks = %+v, want only EOF", toks)
	}
}

func TestIllegalCharacter(t *testing.T) {
	toks := collect("$")
	if toks[0].Kind != token.Error {
		t.Fatalf("kind = %s, want error", toks[0].Kind)
	}
}
