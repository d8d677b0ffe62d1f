package analysis

import "github.com/kyouko-taiga/dyva/internal/ir"

// Coverage classifies how a value's live range covers one block (spec.md
// §4.8). The ordering below is also the merge lattice used by
// ExtendedLiveRange: InAndOut beats Out beats In beats Closed.
type Coverage int

const (
	Closed Coverage = iota
	LiveIn
	LiveOut
	LiveInAndOut
)

func (c Coverage) rank() int { return int(c) }

// BlockCoverage is one block's entry in a LiveRange: its Coverage case, and
// (for LiveIn/Closed, where the range ends somewhere inside the block) the
// last instruction in the block that uses the value.
type BlockCoverage struct {
	Coverage Coverage
	LastUse  ir.InstructionID // valid only when Coverage is LiveIn or Closed
}

// LiveRange maps every block a value's live range covers to its coverage.
// A block absent from the map is outside the range entirely.
type LiveRange map[ir.BlockID]BlockCoverage

// ComputeLiveRange computes the live range of v, defined in defBlock,
// across fn (spec.md §4.8, steps 1-2).
func ComputeLiveRange(fn *ir.Function, defBlock ir.BlockID, v ir.Value) LiveRange {
	preds := predecessors(fn)

	liveIn := map[ir.BlockID]bool{}
	liveOut := map[ir.BlockID]bool{}

	var queue []ir.BlockID
	seen := map[ir.BlockID]bool{}
	for _, use := range fn.Uses(v) {
		b, ok := fn.ContainerBlock(use.User)
		if ok && !seen[b] {
			seen[b] = true
			queue = append(queue, b)
		}
	}

	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]
		if w == defBlock || liveIn[w] {
			continue
		}
		liveIn[w] = true
		for _, p := range preds[w] {
			if !liveOut[p] {
				liveOut[p] = true
				queue = append(queue, p)
			}
		}
	}

	// defBlock only participates when the value actually flows out of it or
	// has a genuine local use to close; a value with zero total uses
	// anywhere has an empty live range, which is exactly what tells region
	// closing to remove the access outright rather than insert a vacuous
	// region-end (spec.md §4.9).
	blocks := map[ir.BlockID]bool{}
	for b := range liveIn {
		blocks[b] = true
	}
	for b := range liveOut {
		blocks[b] = true
	}
	if liveOut[defBlock] {
		blocks[defBlock] = true
	} else if _, hasUse := lastUseIn(fn, defBlock, v); hasUse {
		blocks[defBlock] = true
	}

	out := make(LiveRange, len(blocks))
	for b := range blocks {
		in, o := liveIn[b], liveOut[b]
		switch {
		case in && o:
			out[b] = BlockCoverage{Coverage: LiveInAndOut}
		case o:
			out[b] = BlockCoverage{Coverage: LiveOut}
		case in:
			last, ok := lastUseIn(fn, b, v)
			bc := BlockCoverage{Coverage: LiveIn}
			if ok {
				bc.LastUse = last
			} else {
				bc.LastUse = ir.InvalidInstructionID
			}
			out[b] = bc
		default:
			last, ok := lastUseIn(fn, b, v)
			bc := BlockCoverage{Coverage: Closed}
			if ok {
				bc.LastUse = last
			} else {
				bc.LastUse = ir.InvalidInstructionID
			}
			out[b] = bc
		}
	}
	return out
}

// ExtendedLiveRange merges v's own live range with the extended live
// ranges of every use whose instruction extends operand lifetimes
// (spec.md §4.8 step 3): `invoke` and `project` do, since their result may
// still be reached through the value they consumed; `member` and `access`
// do not, since they only read a field or re-wrap the value rather than
// threading the original region further.
func ExtendedLiveRange(fn *ir.Function, defBlock ir.BlockID, v ir.Value) LiveRange {
	merged := ComputeLiveRange(fn, defBlock, v)
	for _, use := range fn.Uses(v) {
		instr := fn.Instruction(use.User)
		if !instr.ExtendsOperandLifetime() {
			continue
		}
		instrBlock, ok := fn.ContainerBlock(instr.ID())
		if !ok {
			continue
		}
		derived := ExtendedLiveRange(fn, instrBlock, ir.Register(instr.ID()))
		merged = mergeLiveRanges(fn, merged, derived)
	}
	return merged
}

func mergeLiveRanges(fn *ir.Function, a, b LiveRange) LiveRange {
	out := make(LiveRange, len(a)+len(b))
	for block, cov := range a {
		out[block] = cov
	}
	for block, cov := range b {
		if existing, ok := out[block]; ok {
			out[block] = mergeCoverage(fn, existing, cov)
		} else {
			out[block] = cov
		}
	}
	return out
}

// mergeCoverage combines two coverage contributions for the same block
// under the InAndOut > Out > In > Closed lattice (spec.md §4.8 step 3). When
// the winning category is In or Closed, its last use is whichever of the two
// contributions' last uses comes later in program order, since both keep the
// value alive within the block.
func mergeCoverage(fn *ir.Function, a, b BlockCoverage) BlockCoverage {
	if a.Coverage.rank() < b.Coverage.rank() {
		a, b = b, a
	}
	if a.Coverage != LiveIn && a.Coverage != Closed {
		return a
	}
	if b.LastUse.IsValid() && (!a.LastUse.IsValid() || fn.Position(b.LastUse) > fn.Position(a.LastUse)) {
		a.LastUse = b.LastUse
	}
	return a
}

// lastUseIn returns the last (highest program-order) instruction within
// block whose operands reference v, and whether any such instruction
// exists.
func lastUseIn(fn *ir.Function, block ir.BlockID, v ir.Value) (ir.InstructionID, bool) {
	var best ir.InstructionID
	found := false
	for _, instr := range instructionsInBlock(fn, block) {
		for _, operand := range instr.Operands() {
			if operand != v {
				continue
			}
			if !found || fn.Position(instr.ID()) > fn.Position(best) {
				best = instr.ID()
				found = true
			}
			break
		}
	}
	return best, found
}

// IsEmpty reports whether the live range covers no blocks at all, the
// region-closing trigger for removing a dead `access` (spec.md §4.9).
func (lr LiveRange) IsEmpty() bool { return len(lr) == 0 }
