package analysis

import "github.com/kyouko-taiga/dyva/internal/ir"

// DominatorTree is the immediate-dominator map of one function's
// control-flow graph, computed with the Cooper-Harvey-Kennedy iterative
// algorithm (spec.md §4.7): build a spanning tree rooted at the entry
// block, then repeatedly tighten each block's parent to the nearest
// common ancestor of itself and each of its predecessors until no change
// occurs.
type DominatorTree struct {
	fn    *ir.Function
	entry ir.BlockID
	order []ir.BlockID
	idom  map[ir.BlockID]ir.BlockID
}

// BuildDominatorTree computes the dominator tree of fn's entry block. Only
// blocks reachable from the entry participate; unreachable blocks have no
// idom entry and every query about them reports false/zero values.
func BuildDominatorTree(fn *ir.Function) *DominatorTree {
	entry := fn.EntryBlock()
	preds := predecessors(fn)
	order := reachableOrder(fn, entry)

	idom := map[ir.BlockID]ir.BlockID{entry: entry}
	reachable := make(map[ir.BlockID]bool, len(order))
	for _, b := range order {
		reachable[b] = true
	}

	// Initial spanning tree: each block's parent is the first already-idom'd
	// predecessor encountered in BFS order.
	for _, b := range order {
		if b == entry {
			continue
		}
		for _, p := range preds[b] {
			if _, ok := idom[p]; ok {
				idom[b] = p
				break
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for _, b := range order {
			if b == entry {
				continue
			}
			for _, p := range preds[b] {
				if !reachable[p] {
					continue
				}
				if _, ok := idom[p]; !ok || p == idom[b] {
					continue
				}
				merged := intersect(idom, entry, p, idom[b])
				if merged != idom[b] {
					idom[b] = merged
					changed = true
				}
			}
		}
	}

	return &DominatorTree{fn: fn, entry: entry, order: order, idom: idom}
}

func depthOf(idom map[ir.BlockID]ir.BlockID, entry, b ir.BlockID) int {
	d := 0
	for b != entry {
		b = idom[b]
		d++
	}
	return d
}

// intersect walks the ancestor chains of a and b, matching by depth, until
// it finds their lowest common ancestor (spec.md §4.7's `lca`).
func intersect(idom map[ir.BlockID]ir.BlockID, entry, a, b ir.BlockID) ir.BlockID {
	for a != b {
		for depthOf(idom, entry, a) > depthOf(idom, entry, b) {
			a = idom[a]
		}
		for depthOf(idom, entry, b) > depthOf(idom, entry, a) {
			b = idom[b]
		}
		if a != b {
			a = idom[a]
			b = idom[b]
		}
	}
	return a
}

// ImmediateDominator returns b's immediate dominator and true, or false if
// b is unreachable or is the entry block (which has no immediate
// dominator of its own).
func (t *DominatorTree) ImmediateDominator(b ir.BlockID) (ir.BlockID, bool) {
	if b == t.entry {
		return ir.InvalidBlockID, false
	}
	idom, ok := t.idom[b]
	return idom, ok
}

// StrictDominators returns every block that strictly dominates b, ordered
// from b's immediate dominator up to the entry block.
func (t *DominatorTree) StrictDominators(b ir.BlockID) []ir.BlockID {
	var out []ir.BlockID
	for cur, ok := t.ImmediateDominator(b); ok; cur, ok = t.ImmediateDominator(cur) {
		out = append(out, cur)
		if cur == t.entry {
			break
		}
	}
	return out
}

// BFS returns every block reachable from the entry, entry first.
func (t *DominatorTree) BFS() []ir.BlockID {
	return append([]ir.BlockID(nil), t.order...)
}

// Dominates reports whether a dominates b (non-strictly: a dominates
// itself).
func (t *DominatorTree) Dominates(a, b ir.BlockID) bool {
	if a == b {
		return true
	}
	if b == t.entry {
		return false
	}
	if _, ok := t.idom[b]; !ok {
		return false
	}
	for cur := t.idom[b]; ; cur = t.idom[cur] {
		if cur == a {
			return true
		}
		if cur == t.entry {
			return cur == a
		}
	}
}

// DominatesUse reports whether def dominates use, in the sense relevant to
// checking that a value's definition reaches its use: if both instructions
// are in the same block, whichever comes first in program order wins;
// otherwise it reduces to block dominance (spec.md §4.7).
func (t *DominatorTree) DominatesUse(def, use ir.InstructionID) bool {
	defBlock, ok := t.fn.ContainerBlock(def)
	if !ok {
		return false
	}
	useBlock, ok := t.fn.ContainerBlock(use)
	if !ok {
		return false
	}
	if defBlock == useBlock {
		return t.fn.Position(def) <= t.fn.Position(use)
	}
	return t.Dominates(defBlock, useBlock)
}
