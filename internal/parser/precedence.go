package parser

// precedenceGroup orders one family of infix operators (spec.md §4.2,
// "Pratt-style using a PrecedenceGroup ordering").
type precedenceGroup struct {
	level      int
	rightAssoc bool
}

// defaultPrecedence assigns every operator spelling a precedence group.
// Spellings not listed fall back to the "additive" level, matching how an
// unrecognized custom operator is treated until a precedence declaration
// for it is processed (operator-declaration parsing is outside this
// front-end's scope).
var defaultPrecedence = map[string]precedenceGroup{
	"||": {level: 1},
	"&&": {level: 2},
	"==": {level: 3}, "!=": {level: 3},
	"<": {level: 3}, "<=": {level: 3}, ">": {level: 3}, ">=": {level: 3},
	"+": {level: 4}, "-": {level: 4}, "|": {level: 4}, "^": {level: 4},
	"*": {level: 5}, "/": {level: 5}, "%": {level: 5}, "&": {level: 5},
}

const defaultOperatorLevel = 4

func precedenceOf(spelling string) precedenceGroup {
	if g, ok := defaultPrecedence[spelling]; ok {
		return g
	}
	return precedenceGroup{level: defaultOperatorLevel}
}
