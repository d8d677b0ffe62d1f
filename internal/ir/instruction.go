package ir

import (
	"math"
	"strconv"
	"strings"

	"github.com/kyouko-taiga/dyva/internal/source"
)

// InstructionID identifies one instruction within a function, independent of
// its current position in the function's instruction list (spec.md §3.4:
// "an ordered list of instructions (addressable positions stable under
// insert/remove)"). Identities are assigned in insertion order and never
// reused within a function.
type InstructionID uint32

// InvalidInstructionID is never a real instruction identity.
const InvalidInstructionID InstructionID = math.MaxUint32

func (id InstructionID) IsValid() bool { return id != InvalidInstructionID }
func (id InstructionID) String() string {
	if !id.IsValid() {
		return "<invalid instruction>"
	}
	return strconv.FormatUint(uint64(id), 10)
}

// Op names an instruction kind, used for dispatch and for the textual form
// (spec.md §6.5).
type Op int

const (
	OpAlloc Op = iota
	OpAccess
	OpRegionEnd
	OpStore
	OpMember
	OpInvoke
	OpProject
	OpBranch
	OpCondBranch
	OpReturn
	OpYield
)

func (op Op) String() string {
	switch op {
	case OpAlloc:
		return "alloc"
	case OpAccess:
		return "access"
	case OpRegionEnd:
		return "region-end"
	case OpStore:
		return "store"
	case OpMember:
		return "member"
	case OpInvoke:
		return "invoke"
	case OpProject:
		return "project"
	case OpBranch:
		return "branch"
	case OpCondBranch:
		return "cond-branch"
	case OpReturn:
		return "return"
	case OpYield:
		return "yield"
	default:
		return "<invalid op>"
	}
}

// Capability is the access mode an `access` instruction acquires (spec.md
// §3.4).
type Capability int

const (
	CapabilityLet Capability = iota
	CapabilityInout
	CapabilitySink
)

func (c Capability) String() string {
	switch c {
	case CapabilityLet:
		return "let"
	case CapabilityInout:
		return "inout"
	case CapabilitySink:
		return "sink"
	default:
		return "<invalid capability>"
	}
}

// Member names the projected member of a `member` instruction: either a
// field name or a tuple index, never both (spec.md §3.4).
type Member struct {
	Name    string
	Index   int
	ByIndex bool
}

func MemberByName(name string) Member { return Member{Name: name} }
func MemberByIndex(index int) Member  { return Member{Index: index, ByIndex: true} }

func (m Member) String() string {
	if m.ByIndex {
		return strconv.Itoa(m.Index)
	}
	return m.Name
}

// Instruction is implemented by every concrete instruction shape. Operands
// report (and ReplaceOperand rewrites) a value's use sites in stable
// operand-index order, which is what the def-use chain's Use.OperandIndex
// refers to. ExtendsOperandLifetime is consulted by the live-range analysis
// (spec.md §4.8): `member` and `access` do not extend an operand's extended
// live range, every other instruction does.
type Instruction interface {
	ID() InstructionID
	Site() source.Span
	Op() Op
	Operands() []Value
	ReplaceOperand(index int, v Value)
	Successors() []BlockID
	IsTerminator() bool
	ExtendsOperandLifetime() bool
	Text() string

	setID(InstructionID)
}

type base struct {
	id   InstructionID
	site source.Span
}

func (b *base) ID() InstructionID      { return b.id }
func (b *base) Site() source.Span      { return b.site }
func (b *base) setID(id InstructionID) { b.id = id }

func (b *base) Successors() []BlockID          { return nil }
func (b *base) IsTerminator() bool             { return false }
func (b *base) ExtendsOperandLifetime() bool   { return true }

// --- alloc ---

type AllocInst struct{ base }

func NewAlloc(site source.Span) *AllocInst { return &AllocInst{base{site: site}} }

func (i *AllocInst) Op() Op                      { return OpAlloc }
func (i *AllocInst) Operands() []Value           { return nil }
func (i *AllocInst) ReplaceOperand(int, Value)   { panic("ir: alloc has no operands") }
func (i *AllocInst) Text() string                { return i.Op().String() }

// --- access ---

type AccessInst struct {
	base
	Capability Capability
	Target     Value
}

func NewAccess(site source.Span, capability Capability, target Value) *AccessInst {
	return &AccessInst{base: base{site: site}, Capability: capability, Target: target}
}

func (i *AccessInst) Op() Op            { return OpAccess }
func (i *AccessInst) Operands() []Value { return []Value{i.Target} }
func (i *AccessInst) ReplaceOperand(index int, v Value) {
	if index != 0 {
		panic("ir: access has a single operand")
	}
	i.Target = v
}
func (i *AccessInst) ExtendsOperandLifetime() bool { return false }
func (i *AccessInst) Text() string {
	return i.Op().String() + "(" + i.Capability.String() + ", " + i.Target.String() + ")"
}

// --- region-end ---

// RegionEndInst closes a region opened by a region-entry instruction
// (currently only `access`; spec.md §3.4 calls out the general shape
// `region-end<T>(start)` so other region-entry kinds can be added later
// without changing this shape).
type RegionEndInst struct {
	base
	Start InstructionID
}

func NewRegionEnd(site source.Span, start InstructionID) *RegionEndInst {
	return &RegionEndInst{base: base{site: site}, Start: start}
}

func (i *RegionEndInst) Op() Op            { return OpRegionEnd }
func (i *RegionEndInst) Operands() []Value { return []Value{Register(i.Start)} }
func (i *RegionEndInst) ReplaceOperand(index int, v Value) {
	if index != 0 {
		panic("ir: region-end has a single operand")
	}
	r, ok := v.AsRegister()
	if !ok {
		panic("ir: region-end's operand must be a register")
	}
	i.Start = r
}
func (i *RegionEndInst) Text() string {
	return i.Op().String() + "<access>(" + Register(i.Start).String() + ")"
}

// --- store ---

type StoreInst struct {
	base
	Value  Value
	Target Value
}

func NewStore(site source.Span, value, target Value) *StoreInst {
	return &StoreInst{base: base{site: site}, Value: value, Target: target}
}

func (i *StoreInst) Op() Op            { return OpStore }
func (i *StoreInst) Operands() []Value { return []Value{i.Value, i.Target} }
func (i *StoreInst) ReplaceOperand(index int, v Value) {
	switch index {
	case 0:
		i.Value = v
	case 1:
		i.Target = v
	default:
		panic("ir: store has two operands")
	}
}
func (i *StoreInst) Text() string {
	return i.Op().String() + "(" + i.Value.String() + ", " + i.Target.String() + ")"
}

// --- member ---

type MemberInst struct {
	base
	Whole  Value
	Member Member
}

func NewMember(site source.Span, whole Value, member Member) *MemberInst {
	return &MemberInst{base: base{site: site}, Whole: whole, Member: member}
}

func (i *MemberInst) Op() Op            { return OpMember }
func (i *MemberInst) Operands() []Value { return []Value{i.Whole} }
func (i *MemberInst) ReplaceOperand(index int, v Value) {
	if index != 0 {
		panic("ir: member has a single operand")
	}
	i.Whole = v
}
func (i *MemberInst) ExtendsOperandLifetime() bool { return false }
func (i *MemberInst) Text() string {
	return i.Op().String() + "(" + i.Whole.String() + ", " + i.Member.String() + ")"
}

// --- invoke ---

type InvokeInst struct {
	base
	Callee    Value
	Labels    []string
	Arguments []Value
}

func NewInvoke(site source.Span, callee Value, labels []string, arguments []Value) *InvokeInst {
	return &InvokeInst{base: base{site: site}, Callee: callee, Labels: labels, Arguments: arguments}
}

func (i *InvokeInst) Op() Op { return OpInvoke }
func (i *InvokeInst) Operands() []Value {
	return append([]Value{i.Callee}, i.Arguments...)
}
func (i *InvokeInst) ReplaceOperand(index int, v Value) {
	if index == 0 {
		i.Callee = v
		return
	}
	i.Arguments[index-1] = v
}
func (i *InvokeInst) Text() string {
	return i.Op().String() + "(" + i.Callee.String() + ", " + formatArguments(i.Labels, i.Arguments) + ")"
}

// --- project ---

type ProjectInst struct {
	base
	Callee    Value
	Labels    []string
	Arguments []Value
}

func NewProject(site source.Span, callee Value, labels []string, arguments []Value) *ProjectInst {
	return &ProjectInst{base: base{site: site}, Callee: callee, Labels: labels, Arguments: arguments}
}

func (i *ProjectInst) Op() Op { return OpProject }
func (i *ProjectInst) Operands() []Value {
	return append([]Value{i.Callee}, i.Arguments...)
}
func (i *ProjectInst) ReplaceOperand(index int, v Value) {
	if index == 0 {
		i.Callee = v
		return
	}
	i.Arguments[index-1] = v
}
func (i *ProjectInst) Text() string {
	return i.Op().String() + "(" + i.Callee.String() + ", " + formatArguments(i.Labels, i.Arguments) + ")"
}

func formatArguments(labels []string, arguments []Value) string {
	parts := make([]string, len(arguments))
	for i, a := range arguments {
		if i < len(labels) && labels[i] != "" {
			parts[i] = labels[i] + ": " + a.String()
		} else {
			parts[i] = a.String()
		}
	}
	return strings.Join(parts, ", ")
}

// --- branch ---

type BranchInst struct {
	base
	Target    BlockID
	Arguments []Value
}

func NewBranch(site source.Span, target BlockID, arguments []Value) *BranchInst {
	return &BranchInst{base: base{site: site}, Target: target, Arguments: arguments}
}

func (i *BranchInst) Op() Op              { return OpBranch }
func (i *BranchInst) Operands() []Value   { return i.Arguments }
func (i *BranchInst) ReplaceOperand(index int, v Value) { i.Arguments[index] = v }
func (i *BranchInst) Successors() []BlockID { return []BlockID{i.Target} }
func (i *BranchInst) IsTerminator() bool  { return true }
func (i *BranchInst) Text() string {
	args := make([]string, len(i.Arguments))
	for k, a := range i.Arguments {
		args[k] = a.String()
	}
	return i.Op().String() + "(" + i.Target.String() + ", [" + strings.Join(args, ", ") + "])"
}

// --- cond-branch ---

type CondBranchInst struct {
	base
	Condition Value
	Success   BlockID
	Failure   BlockID
}

func NewCondBranch(site source.Span, condition Value, success, failure BlockID) *CondBranchInst {
	return &CondBranchInst{base: base{site: site}, Condition: condition, Success: success, Failure: failure}
}

func (i *CondBranchInst) Op() Op            { return OpCondBranch }
func (i *CondBranchInst) Operands() []Value { return []Value{i.Condition} }
func (i *CondBranchInst) ReplaceOperand(index int, v Value) {
	if index != 0 {
		panic("ir: cond-branch has a single value operand")
	}
	i.Condition = v
}
func (i *CondBranchInst) Successors() []BlockID { return []BlockID{i.Success, i.Failure} }
func (i *CondBranchInst) IsTerminator() bool    { return true }
func (i *CondBranchInst) Text() string {
	return i.Op().String() + "(" + i.Condition.String() + ", " + i.Success.String() + ", " + i.Failure.String() + ")"
}

// --- return ---

type ReturnInst struct {
	base
	Value Value
}

func NewReturn(site source.Span, value Value) *ReturnInst {
	return &ReturnInst{base: base{site: site}, Value: value}
}

func (i *ReturnInst) Op() Op            { return OpReturn }
func (i *ReturnInst) Operands() []Value { return []Value{i.Value} }
func (i *ReturnInst) ReplaceOperand(index int, v Value) {
	if index != 0 {
		panic("ir: return has a single operand")
	}
	i.Value = v
}
func (i *ReturnInst) IsTerminator() bool { return true }
func (i *ReturnInst) Text() string       { return i.Op().String() + "(" + i.Value.String() + ")" }

// --- yield ---

// YieldInst is a subscript projection point. Unlike return it is not a
// terminator (spec.md §3.4): control falls through to the next instruction
// once the projected value is consumed.
type YieldInst struct {
	base
	Value Value
}

func NewYield(site source.Span, value Value) *YieldInst {
	return &YieldInst{base: base{site: site}, Value: value}
}

func (i *YieldInst) Op() Op            { return OpYield }
func (i *YieldInst) Operands() []Value { return []Value{i.Value} }
func (i *YieldInst) ReplaceOperand(index int, v Value) {
	if index != 0 {
		panic("ir: yield has a single operand")
	}
	i.Value = v
}
func (i *YieldInst) Text() string { return i.Op().String() + "(" + i.Value.String() + ")" }
