// Package analysis implements the IR-level analyses that run after lowering
// (spec.md §4.7-§4.11): a dominator tree, live-range computation, region
// closing, yield coherence, and dead-access elimination. Each pass operates
// on one *ir.Function at a time; the lowerer hands a function to Run once
// its body is complete and re-inserts the (possibly mutated) function into
// the module afterward, matching the single-owner mutation discipline
// spec.md §5 describes for the core.
package analysis

import (
	"github.com/kyouko-taiga/dyva/internal/diag"
	"github.com/kyouko-taiga/dyva/internal/ir"
)

// Result carries the durable analysis artifacts a caller might want to
// inspect after Run, alongside the diagnostics the coherence check
// produced. Region closing and dead-access elimination mutate fn in place
// and so have no result value of their own.
type Result struct {
	Dominators *DominatorTree
}

// Run executes every analysis over fn, in dependency order: the dominator
// tree first (spec.md §4.7 treats it as an independently queryable
// component, even though no later pass in this package consumes it),
// then yield coherence (independent of the access/region-end machinery),
// then region closing (turns every live `access` into a paired
// `region-end`), then dead-access elimination (which specifically looks
// for the region-ends region closing just inserted). Functions with no
// body (a declared-but-unimplemented `fun`) and functions with no blocks
// yet are skipped.
func Run(fn *ir.Function, diags *diag.Bag) *Result {
	if !fn.HasBody || len(fn.Blocks()) == 0 {
		return nil
	}

	dominators := BuildDominatorTree(fn)
	YieldCoherence(fn, diags)
	CloseRegions(fn)
	EliminateDeadAccesses(fn)

	return &Result{Dominators: dominators}
}

// predecessors returns, for every block reachable in fn, the list of blocks
// whose terminator branches to it. Blocks are identified by scanning each
// non-empty block's last instruction for its Successors().
func predecessors(fn *ir.Function) map[ir.BlockID][]ir.BlockID {
	preds := make(map[ir.BlockID][]ir.BlockID)
	for _, b := range fn.Blocks() {
		if b.IsEmpty() {
			continue
		}
		term := fn.Instruction(b.Last)
		for _, succ := range term.Successors() {
			preds[succ] = append(preds[succ], b.ID)
		}
	}
	return preds
}

// reachableOrder returns every block reachable from entry via a
// breadth-first traversal of the successor graph, entry first.
func reachableOrder(fn *ir.Function, entry ir.BlockID) []ir.BlockID {
	visited := map[ir.BlockID]bool{entry: true}
	order := []ir.BlockID{entry}
	queue := []ir.BlockID{entry}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		block := fn.Block(b)
		if block.IsEmpty() {
			continue
		}
		for _, succ := range fn.Instruction(block.Last).Successors() {
			if !visited[succ] {
				visited[succ] = true
				order = append(order, succ)
				queue = append(queue, succ)
			}
		}
	}
	return order
}

// instructionsInBlock returns every instruction currently mapped into
// block, in program order.
func instructionsInBlock(fn *ir.Function, block ir.BlockID) []ir.Instruction {
	var out []ir.Instruction
	for _, instr := range fn.Instructions() {
		b, ok := fn.ContainerBlock(instr.ID())
		if ok && b == block {
			out = append(out, instr)
		}
	}
	return out
}
