package ir

import "strconv"

// ConstantKind tags the variants of IRConstant named in spec.md §3.4: unit,
// bool, 64-bit signed integer, string, free function reference, and the
// two built-ins print/type.
type ConstantKind int

const (
	ConstUnit ConstantKind = iota
	ConstBool
	ConstInt
	ConstString
	ConstFunction
	ConstBuiltin
)

// Builtin names one of the two built-in free functions the lowerer falls
// back to when unqualified name lookup exhausts every frame (spec.md
// §4.6.1).
type Builtin int

const (
	BuiltinPrint Builtin = iota
	BuiltinType
)

func (b Builtin) String() string {
	switch b {
	case BuiltinPrint:
		return "print"
	case BuiltinType:
		return "type"
	default:
		return "<invalid builtin>"
	}
}

// Constant is a compile-time-known value, comparable so it can be embedded
// in a Value (itself used as a def-use map key).
type Constant struct {
	kind ConstantKind

	boolValue     bool
	intValue      int64
	stringValue   string
	functionName  string
	builtinValue  Builtin
}

func Unit() Constant                 { return Constant{kind: ConstUnit} }
func Bool(b bool) Constant           { return Constant{kind: ConstBool, boolValue: b} }
func Int(n int64) Constant           { return Constant{kind: ConstInt, intValue: n} }
func String(s string) Constant       { return Constant{kind: ConstString, stringValue: s} }
func FunctionRef(name string) Constant { return Constant{kind: ConstFunction, functionName: name} }
func BuiltinRef(b Builtin) Constant  { return Constant{kind: ConstBuiltin, builtinValue: b} }

func (c Constant) Kind() ConstantKind { return c.kind }
func (c Constant) BoolValue() bool    { return c.boolValue }
func (c Constant) IntValue() int64    { return c.intValue }
func (c Constant) StringValue() string { return c.stringValue }
func (c Constant) FunctionName() string { return c.functionName }
func (c Constant) BuiltinValue() Builtin { return c.builtinValue }

// String renders c for the IR's textual form (spec.md §6.5).
func (c Constant) String() string {
	switch c.kind {
	case ConstUnit:
		return "unit"
	case ConstBool:
		if c.boolValue {
			return "true"
		}
		return "false"
	case ConstInt:
		return strconv.FormatInt(c.intValue, 10)
	case ConstString:
		return strconv.Quote(c.stringValue)
	case ConstFunction:
		return "@" + c.functionName
	case ConstBuiltin:
		return "$" + c.builtinValue.String()
	default:
		return "<invalid constant>"
	}
}
