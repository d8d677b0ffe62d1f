package analysis

import "github.com/kyouko-taiga/dyva/internal/ir"

// CloseRegions walks every `access` instruction currently in fn and turns
// its extended live range into paired `region-end` instructions (spec.md
// §4.9). An access whose extended live range is empty is dead and is
// removed outright rather than closed; region closing runs before
// dead-access elimination, but an access can already be unreachable right
// after lowering (e.g. a binding that is never read), so this pass handles
// that case directly instead of leaving it for the later pass.
func CloseRegions(fn *ir.Function) {
	for _, instr := range accessInstructions(fn) {
		access, ok := instr.(*ir.AccessInst)
		if !ok {
			continue
		}
		accessBlock, ok := fn.ContainerBlock(access.ID())
		if !ok {
			continue
		}
		reg := ir.Register(access.ID())
		extended := ExtendedLiveRange(fn, accessBlock, reg)
		if extended.IsEmpty() {
			fn.Remove(access.ID())
			continue
		}
		closeOneRegion(fn, access.ID(), extended)
	}
}

// accessInstructions snapshots every access currently in fn before mutating
// it, so removals/insertions triggered for one access don't disturb the
// iteration over the rest.
func accessInstructions(fn *ir.Function) []ir.Instruction {
	var out []ir.Instruction
	for _, instr := range fn.Instructions() {
		if instr.Op() == ir.OpAccess {
			out = append(out, instr)
		}
	}
	return out
}

func closeOneRegion(fn *ir.Function, access ir.InstructionID, lr LiveRange) {
	for block, cov := range lr {
		switch cov.Coverage {
		case LiveInAndOut, LiveOut:
			// No upper boundary in this block (spec.md §4.9).
			continue
		case LiveIn:
			if cov.LastUse.IsValid() {
				insertRegionEndAfter(fn, access, cov.LastUse)
			} else {
				insertRegionEndAtStart(fn, access, block)
			}
		case Closed:
			if cov.LastUse.IsValid() {
				insertRegionEndAfter(fn, access, cov.LastUse)
			} else {
				insertRegionEndAfter(fn, access, access)
			}
		}
	}
}

// insertRegionEndAfter inserts region-end<access> right after instr, unless
// the instruction already there is a matching region-end (spec.md §4.9:
// "skip insertion when the last user already closes the region").
func insertRegionEndAfter(fn *ir.Function, access, instr ir.InstructionID) {
	instrs := fn.Instructions()
	pos := fn.Position(instr)
	if pos+1 < len(instrs) && isMatchingRegionEnd(instrs[pos+1], access) {
		return
	}
	fn.Insert(ir.After(instr), ir.NewRegionEnd(fn.Instruction(access).Site(), access))
}

// insertRegionEndAtStart inserts region-end<access> at the start of block,
// unless it is already there.
func insertRegionEndAtStart(fn *ir.Function, access ir.InstructionID, block ir.BlockID) {
	b := fn.Block(block)
	if !b.IsEmpty() && isMatchingRegionEnd(fn.Instruction(b.First), access) {
		return
	}
	fn.Insert(ir.StartOf(block), ir.NewRegionEnd(fn.Instruction(access).Site(), access))
}

func isMatchingRegionEnd(instr ir.Instruction, access ir.InstructionID) bool {
	end, ok := instr.(*ir.RegionEndInst)
	return ok && end.Start == access
}
