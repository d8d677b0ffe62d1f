package ir

// FunctionID names a function by a stable identifier derived from its
// declaration, or "$main" for the module's entry point (spec.md §4.6,
// §6.5). Functions are keyed by this name within a Module, so FunctionID is
// just a string.
type FunctionID = string

// MainFunctionName is the name of the synthesized module-entry function
// (spec.md §4.6).
const MainFunctionName = "$main"

// Use records one operand position that currently holds a given value
// (spec.md §3.4: "def-use chain value -> [use(user, operand-index)]").
type Use struct {
	User         InstructionID
	OperandIndex int
}

// insertionKind distinguishes the four insertion-point shapes of spec.md
// §4.6.
type insertionKind int

const (
	pointStart insertionKind = iota
	pointEnd
	pointBefore
	pointAfter
)

// InsertionPoint is one of start(block), end(block), before(instruction),
// after(instruction) (spec.md §4.6).
type InsertionPoint struct {
	kind  insertionKind
	block BlockID
	instr InstructionID
}

func StartOf(block BlockID) InsertionPoint  { return InsertionPoint{kind: pointStart, block: block} }
func EndOf(block BlockID) InsertionPoint    { return InsertionPoint{kind: pointEnd, block: block} }
func Before(instr InstructionID) InsertionPoint { return InsertionPoint{kind: pointBefore, instr: instr} }
func After(instr InstructionID) InsertionPoint  { return InsertionPoint{kind: pointAfter, instr: instr} }

// Function is one function or subscript in a module: its argument labels,
// its isSubscript flag, its basic blocks, its function-wide instruction
// list (addressable by InstructionID independent of slice position), the
// instruction->block map, and the def-use chains (spec.md §3.4).
type Function struct {
	Name           string
	Labels         []string
	IsSubscript    bool
	HasBody        bool
	ParameterCount int

	blocks      []*Block
	blockPos    map[BlockID]int
	nextBlockID BlockID

	instructions []Instruction
	instrPos     map[InstructionID]int
	instrBlock   map[InstructionID]BlockID
	nextInstrID  InstructionID

	uses map[Value][]Use
}

// NewFunction creates an empty function with no blocks yet. The caller
// appends at least an entry block before lowering a body into it.
func NewFunction(name string, labels []string, isSubscript bool) *Function {
	return &Function{
		Name:        name,
		Labels:      labels,
		IsSubscript: isSubscript,
		blockPos:    make(map[BlockID]int),
		instrPos:    make(map[InstructionID]int),
		instrBlock:  make(map[InstructionID]BlockID),
		uses:        make(map[Value][]Use),
	}
}

// AppendBlock creates a new empty block with the given parameter arity and
// appends it to the function, returning its identity. The entry block is
// always the first one appended.
func (f *Function) AppendBlock(parameterCount int) BlockID {
	id := f.nextBlockID
	f.nextBlockID++
	f.blockPos[id] = len(f.blocks)
	f.blocks = append(f.blocks, newBlock(id, parameterCount))
	return id
}

// EntryBlock returns the function's first block. Panics if none has been
// appended yet.
func (f *Function) EntryBlock() BlockID {
	if len(f.blocks) == 0 {
		panic("ir: function has no entry block")
	}
	return f.blocks[0].ID
}

// Block returns the block identified by id.
func (f *Function) Block(id BlockID) *Block {
	pos, ok := f.blockPos[id]
	if !ok {
		panic("ir: unknown block")
	}
	return f.blocks[pos]
}

// Blocks returns every block, in creation order.
func (f *Function) Blocks() []*Block { return append([]*Block(nil), f.blocks...) }

// Instruction returns the instruction identified by id.
func (f *Function) Instruction(id InstructionID) Instruction {
	pos, ok := f.instrPos[id]
	if !ok {
		panic("ir: unknown instruction")
	}
	return f.instructions[pos]
}

// Instructions returns every instruction in program order.
func (f *Function) Instructions() []Instruction {
	return append([]Instruction(nil), f.instructions...)
}

// ContainerBlock returns the block id's instruction is currently mapped
// into, and false if id is unknown (spec.md §8: "each basic block's
// first/last map back to that block via container").
func (f *Function) ContainerBlock(id InstructionID) (BlockID, bool) {
	b, ok := f.instrBlock[id]
	return b, ok
}

// Position reports id's current index into Instructions(); used by
// analyses that need to compare program order within a block.
func (f *Function) Position(id InstructionID) int {
	pos, ok := f.instrPos[id]
	if !ok {
		panic("ir: unknown instruction")
	}
	return pos
}

// Uses returns the def-use entries recorded for v, in the order they were
// inserted.
func (f *Function) Uses(v Value) []Use {
	return append([]Use(nil), f.uses[v]...)
}

// Insert is the single primitive through which every instruction is
// constructed (spec.md §4.6): it assigns instr a fresh identity, splices it
// into the function's instruction list at point, updates the containing
// block's first/last window, and records a def-use entry for every operand
// instr currently carries.
func (f *Function) Insert(point InsertionPoint, instr Instruction) InstructionID {
	id := f.nextInstrID
	f.nextInstrID++
	instr.setID(id)

	pos := f.resolvePosition(point)
	f.instructions = append(f.instructions, nil)
	copy(f.instructions[pos+1:], f.instructions[pos:])
	f.instructions[pos] = instr
	f.reindexFrom(pos)

	block := f.blockFor(point)
	f.instrBlock[id] = block
	f.growBlockWindow(block, id, pos)

	for i, operand := range instr.Operands() {
		f.uses[operand] = append(f.uses[operand], Use{User: id, OperandIndex: i})
	}
	return id
}

// Remove splices id out of the function's instruction list, drops its
// block-window membership, and removes every def-use entry it contributed
// as a user. It is the caller's responsibility (the region-closing and
// dead-access-elimination analyses) to ensure id has no remaining uses of
// its own register before removing it.
func (f *Function) Remove(id InstructionID) {
	pos, ok := f.instrPos[id]
	if !ok {
		panic("ir: unknown instruction")
	}
	instr := f.instructions[pos]
	for i, operand := range instr.Operands() {
		f.removeUse(operand, Use{User: id, OperandIndex: i})
	}

	f.instructions = append(f.instructions[:pos], f.instructions[pos+1:]...)
	delete(f.instrPos, id)
	f.reindexFrom(pos)

	block := f.instrBlock[id]
	delete(f.instrBlock, id)
	f.shrinkBlockWindow(block, id)
}

func (f *Function) removeUse(v Value, target Use) {
	list := f.uses[v]
	for i, u := range list {
		if u == target {
			f.uses[v] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (f *Function) reindexFrom(start int) {
	for i := start; i < len(f.instructions); i++ {
		f.instrPos[f.instructions[i].ID()] = i
	}
}

func (f *Function) resolvePosition(point InsertionPoint) int {
	switch point.kind {
	case pointStart:
		b := f.Block(point.block)
		if b.IsEmpty() {
			return len(f.instructions)
		}
		return f.instrPos[b.First]
	case pointEnd:
		b := f.Block(point.block)
		if b.IsEmpty() {
			return len(f.instructions)
		}
		return f.instrPos[b.Last] + 1
	case pointBefore:
		return f.instrPos[point.instr]
	case pointAfter:
		return f.instrPos[point.instr] + 1
	default:
		panic("ir: invalid insertion point")
	}
}

func (f *Function) blockFor(point InsertionPoint) BlockID {
	switch point.kind {
	case pointStart, pointEnd:
		return point.block
	case pointBefore, pointAfter:
		return f.instrBlock[point.instr]
	default:
		panic("ir: invalid insertion point")
	}
}

func (f *Function) growBlockWindow(block BlockID, id InstructionID, pos int) {
	b := f.Block(block)
	if b.IsEmpty() {
		b.First, b.Last = id, id
		return
	}
	if pos < f.instrPos[b.First] {
		b.First = id
	}
	if pos > f.instrPos[b.Last] {
		b.Last = id
	}
}

func (f *Function) shrinkBlockWindow(block BlockID, removed InstructionID) {
	b := f.Block(block)
	if b.First != removed && b.Last != removed {
		return
	}
	// Recompute the window by scanning instrBlock; blocks are small enough
	// (one function body) that this is cheap relative to bookkeeping a
	// second ordered structure per block.
	b.First, b.Last = InvalidInstructionID, InvalidInstructionID
	for _, instr := range f.instructions {
		if f.instrBlock[instr.ID()] != block {
			continue
		}
		if !b.First.IsValid() {
			b.First = instr.ID()
		}
		b.Last = instr.ID()
	}
}
