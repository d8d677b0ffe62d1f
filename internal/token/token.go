// Package token defines the lexical token vocabulary of the language: tags,
// their string form, and the keyword lookup table (spec.md §3.2, §6.2).
package token

import "github.com/kyouko-taiga/dyva/internal/source"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	// Special
	Error Kind = iota
	EOF
	UnterminatedBackquotedIdentifier
	UnterminatedStringLiteral

	// Identifiers
	Name
	Underscore

	literalStart
	// Literals
	BooleanLiteral
	IntegerLiteral
	FloatingPointLiteral
	StringLiteral
	literalEnd

	keywordStart
	// Keywords (spec.md §6.2)
	As
	Break
	Case
	Catch
	Continue
	Defer
	Do
	Else
	For
	Fun
	If
	Is
	Import
	In
	Infix
	Inout
	Let
	Match
	Postfix
	Prefix
	Return
	Struct
	Subscript
	Throw
	Trait
	Try
	Var
	Where
	While
	keywordEnd

	// Operator-shape tokens
	Assign     // =
	ThickArrow // =>
	Operator   // any other run of the operator alphabet

	// Punctuation
	Comma
	Dot
	Colon
	Semicolon
	At
	Backslash

	// Delimiters
	LeftBracket
	RightBracket
	LeftParenthesis
	RightParenthesis

	// Layout
	Indentation
	Dedentation
)

var kindNames = [...]string{
	Error:                             "error",
	EOF:                               "eof",
	UnterminatedBackquotedIdentifier:  "unterminatedBackquotedIdentifier",
	UnterminatedStringLiteral:         "unterminatedStringLiteral",
	Name:                              "name",
	Underscore:                        "underscore",
	BooleanLiteral:                    "booleanLiteral",
	IntegerLiteral:                    "integerLiteral",
	FloatingPointLiteral:              "floatingPointLiteral",
	StringLiteral:                     "stringLiteral",
	As:                                "as",
	Break:                             "break",
	Case:                              "case",
	Catch:                             "catch",
	Continue:                          "continue",
	Defer:                             "defer",
	Do:                                "do",
	Else:                              "else",
	For:                               "for",
	Fun:                               "fun",
	If:                                "if",
	Is:                                "is",
	Import:                            "import",
	In:                                "in",
	Infix:                             "infix",
	Inout:                             "inout",
	Let:                               "let",
	Match:                             "match",
	Postfix:                           "postfix",
	Prefix:                            "prefix",
	Return:                            "return",
	Struct:                            "struct",
	Subscript:                         "subscript",
	Throw:                             "throw",
	Trait:                             "trait",
	Try:                               "try",
	Var:                               "var",
	Where:                             "where",
	While:                             "while",
	Assign:                            "assign",
	ThickArrow:                        "thickArrow",
	Operator:                          "operator",
	Comma:                             "comma",
	Dot:                               "dot",
	Colon:                             "colon",
	Semicolon:                         "semicolon",
	At:                                "at",
	Backslash:                         "backslash",
	LeftBracket:                       "leftBracket",
	RightBracket:                      "rightBracket",
	LeftParenthesis:                   "leftParenthesis",
	RightParenthesis:                  "rightParenthesis",
	Indentation:                       "indentation",
	Dedentation:                       "dedentation",
}

// String returns the lower-camel-case tag name used throughout the spec.
func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// IsLiteral reports whether k tags a literal value.
func (k Kind) IsLiteral() bool { return k > literalStart && k < literalEnd }

// IsKeyword reports whether k tags a reserved word.
func (k Kind) IsKeyword() bool { return k > keywordStart && k < keywordEnd }

// keywords maps reserved-word spelling to its Kind. true/false are handled
// separately by the lexer since they tag as BooleanLiteral, not a keyword.
var keywords = map[string]Kind{
	"as": As, "break": Break, "case": Case, "catch": Catch,
	"continue": Continue, "defer": Defer, "do": Do, "else": Else,
	"for": For, "fun": Fun, "if": If, "is": Is, "import": Import,
	"in": In, "infix": Infix, "inout": Inout, "let": Let, "match": Match,
	"postfix": Postfix, "prefix": Prefix, "return": Return, "struct": Struct,
	"subscript": Subscript, "throw": Throw, "trait": Trait, "try": Try,
	"var": Var, "where": Where, "while": While,
}

// LookupIdentifier classifies an identifier's spelling: a reserved word
// returns its keyword Kind, "_" returns Underscore, "true"/"false" return
// BooleanLiteral, and anything else returns Name.
func LookupIdentifier(literal string) Kind {
	if literal == "_" {
		return Underscore
	}
	if literal == "true" || literal == "false" {
		return BooleanLiteral
	}
	if kind, ok := keywords[literal]; ok {
		return kind
	}
	return Name
}

// Token is a (tag, span) pair (spec.md §3.2).
type Token struct {
	Kind Kind
	Span source.Span
}

// Text returns the source text the token spans.
func (t Token) Text() string { return t.Span.Text() }

// New constructs a Token from a kind and span.
func New(kind Kind, span source.Span) Token {
	return Token{Kind: kind, Span: span}
}
