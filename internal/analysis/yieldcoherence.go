package analysis

import (
	"github.com/kyouko-taiga/dyva/internal/diag"
	"github.com/kyouko-taiga/dyva/internal/ir"
	"github.com/kyouko-taiga/dyva/internal/source"
)

// YieldCoherence checks that fn, if it is a defined subscript, yields
// exactly once on every path from its entry to its return (spec.md §4.10,
// §8: "every path from entry to return contains exactly one yield").
// Applies only when fn.IsSubscript && fn.HasBody. Per spec.md §7's
// propagation policy ("analyses stop at the first report per analysis"),
// at most one diagnostic is ever recorded by a single call.
func YieldCoherence(fn *ir.Function, diags *diag.Bag) {
	if !fn.IsSubscript || !fn.HasBody || len(fn.Blocks()) == 0 {
		return
	}

	type slideSeed struct {
		block   ir.BlockID
		witness ir.InstructionID
	}
	var slides []slideSeed

	entry := fn.EntryBlock()
	visited := map[ir.BlockID]bool{entry: true}
	queue := []ir.BlockID{entry}

	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]

		first, second, found := findYields(fn, b)
		if found {
			if second.IsValid() {
				reportExtraneousYield(fn, diags, second, first)
				return
			}
			// Do not descend further along this path; every successor
			// becomes a slide block carrying this yield as witness.
			for _, succ := range successorsOf(fn, b) {
				slides = append(slides, slideSeed{succ, first})
			}
			continue
		}

		succs := successorsOf(fn, b)
		if len(succs) == 0 {
			reportMissingYield(fn, diags, b)
			return
		}
		for _, succ := range succs {
			if !visited[succ] {
				visited[succ] = true
				queue = append(queue, succ)
			}
		}
	}

	for _, seed := range slides {
		if slideFromBlock(fn, diags, seed.block, seed.witness) {
			return
		}
	}
}

// slideFromBlock runs phase 2 (spec.md §4.10) from block, reporting
// extraneousYield against witness the moment any yield is found anywhere
// reachable from it. Reports true if it stopped the analysis with a
// diagnostic.
func slideFromBlock(fn *ir.Function, diags *diag.Bag, block ir.BlockID, witness ir.InstructionID) bool {
	visited := map[ir.BlockID]bool{block: true}
	queue := []ir.BlockID{block}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]

		first, _, found := findYields(fn, b)
		if found {
			reportExtraneousYield(fn, diags, first, witness)
			return true
		}
		for _, succ := range successorsOf(fn, b) {
			if !visited[succ] {
				visited[succ] = true
				queue = append(queue, succ)
			}
		}
	}
	return false
}

// findYields scans block in program order for yield instructions, returning
// the first and (if any) second one found.
func findYields(fn *ir.Function, block ir.BlockID) (first, second ir.InstructionID, found bool) {
	second = ir.InvalidInstructionID
	for _, instr := range instructionsInBlock(fn, block) {
		if instr.Op() != ir.OpYield {
			continue
		}
		if !found {
			first = instr.ID()
			found = true
			continue
		}
		second = instr.ID()
		return first, second, found
	}
	return first, second, found
}

func successorsOf(fn *ir.Function, block ir.BlockID) []ir.BlockID {
	b := fn.Block(block)
	if b.IsEmpty() {
		return nil
	}
	return fn.Instruction(b.Last).Successors()
}

func reportExtraneousYield(fn *ir.Function, diags *diag.Bag, newYield, witness ir.InstructionID) {
	note := diag.Notef(fn.Instruction(witness).Site(), "first projected here")
	d := diag.New(diag.Error, "subscript cannot project more than once", fn.Instruction(newYield).Site()).WithNotes(note)
	diags.Add(d)
}

func reportMissingYield(fn *ir.Function, diags *diag.Bag, block ir.BlockID) {
	site := source.Span{}
	b := fn.Block(block)
	if !b.IsEmpty() {
		site = fn.Instruction(b.Last).Site()
	}
	diags.Errorf(site, "subscript must yield before returning")
}
