// Package ir implements the module/function/basic-block/instruction data
// model described in spec.md §3.4: an explicit SSA form with def-use chains,
// built and mutated by internal/lower and internal/analysis.
package ir

import (
	"strconv"

	"github.com/kyouko-taiga/dyva/internal/source"
)

// ValueKind tags the four shapes a Value can take (spec.md §3.4).
type ValueKind int

const (
	KindRegister ValueKind = iota
	KindParameter
	KindConstant
	KindPoison
)

// Value is one SSA value: the result of an instruction, a block parameter,
// a compile-time constant, or a poison value anchored at the site that
// produced it. Value is comparable so it can key the def-use map directly.
type Value struct {
	kind ValueKind

	instruction InstructionID // KindRegister
	block       BlockID       // KindParameter
	index       int           // KindParameter

	constant Constant // KindConstant

	site source.Span // KindPoison
}

// Register wraps the result of the instruction identified by id.
func Register(id InstructionID) Value { return Value{kind: KindRegister, instruction: id} }

// Parameter wraps the index-th parameter of block.
func Parameter(block BlockID, index int) Value {
	return Value{kind: KindParameter, block: block, index: index}
}

// ConstantValue wraps a compile-time constant.
func ConstantValue(c Constant) Value { return Value{kind: KindConstant, constant: c} }

// PoisonValue stands in for a value that failed to lower, anchored at the
// offending site (spec.md §4.6: "record ... and return a poison value
// anchored at the name").
func PoisonValue(site source.Span) Value { return Value{kind: KindPoison, site: site} }

// Kind reports which of the four shapes v has.
func (v Value) Kind() ValueKind { return v.kind }

// AsRegister returns the defining instruction id, if v is a register value.
func (v Value) AsRegister() (InstructionID, bool) {
	return v.instruction, v.kind == KindRegister
}

// AsParameter returns the block and index, if v is a parameter value.
func (v Value) AsParameter() (BlockID, int, bool) {
	return v.block, v.index, v.kind == KindParameter
}

// AsConstant returns the constant, if v is a constant value.
func (v Value) AsConstant() (Constant, bool) {
	return v.constant, v.kind == KindConstant
}

// AsPoison returns the anchoring site, if v is a poison value.
func (v Value) AsPoison() (source.Span, bool) {
	return v.site, v.kind == KindPoison
}

// IsPoison reports whether v is a poison value, the common check at use
// sites that otherwise don't care about the site it carries.
func (v Value) IsPoison() bool { return v.kind == KindPoison }

// String renders v for the IR's textual form (spec.md §6.5).
func (v Value) String() string {
	switch v.kind {
	case KindRegister:
		return "%" + v.instruction.String()
	case KindParameter:
		return "%" + v.block.String() + "." + strconv.Itoa(v.index)
	case KindConstant:
		return v.constant.String()
	case KindPoison:
		return "poison"
	default:
		return "<invalid value>"
	}
}
