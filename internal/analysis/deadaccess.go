package analysis

import "github.com/kyouko-taiga/dyva/internal/ir"

// EliminateDeadAccesses removes every `access` whose only remaining uses
// are the `region-end<access>` instructions region closing inserted for it
// (spec.md §4.11): such an access's region opens and closes without any
// other instruction ever reading the capability it acquired, so both it
// and its region-ends are dead. Iterates to a fixed point, since removing
// one dead access's region-ends can itself be the last thing keeping some
// other value's live range non-empty... in practice that chain is short,
// but the spec calls for a fixed point rather than one pass.
func EliminateDeadAccesses(fn *ir.Function) {
	for {
		removed := false
		for _, instr := range accessInstructions(fn) {
			access, ok := instr.(*ir.AccessInst)
			if !ok {
				continue
			}
			if !onlyRegionEndUses(fn, access.ID()) {
				continue
			}
			for _, use := range fn.Uses(ir.Register(access.ID())) {
				fn.Remove(use.User)
			}
			fn.Remove(access.ID())
			removed = true
		}
		if !removed {
			return
		}
	}
}

// onlyRegionEndUses reports whether every use of access's register is a
// region-end<access> instruction (true, vacuously, if it has zero uses at
// all).
func onlyRegionEndUses(fn *ir.Function, access ir.InstructionID) bool {
	for _, use := range fn.Uses(ir.Register(access)) {
		instr := fn.Instruction(use.User)
		end, ok := instr.(*ir.RegionEndInst)
		if !ok || end.Start != access {
			return false
		}
	}
	return true
}
