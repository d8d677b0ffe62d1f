package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyouko-taiga/dyva/internal/analysis"
	"github.com/kyouko-taiga/dyva/internal/ir"
	"github.com/kyouko-taiga/dyva/internal/source"
)

// diamond builds entry -> (left, right) -> join -> return, the textbook
// shape for exercising the merge point of a dominator tree.
func diamond() (*ir.Function, ir.BlockID, ir.BlockID, ir.BlockID, ir.BlockID) {
	fn := ir.NewFunction("f", nil, false)
	entry := fn.AppendBlock(0)
	left := fn.AppendBlock(0)
	right := fn.AppendBlock(0)
	join := fn.AppendBlock(1)

	cond := ir.ConstantValue(ir.Bool(true))
	fn.Insert(ir.EndOf(entry), ir.NewCondBranch(source.Span{}, cond, left, right))
	fn.Insert(ir.EndOf(left), ir.NewBranch(source.Span{}, join, []ir.Value{ir.ConstantValue(ir.Int(1))}))
	fn.Insert(ir.EndOf(right), ir.NewBranch(source.Span{}, join, []ir.Value{ir.ConstantValue(ir.Int(2))}))
	fn.Insert(ir.EndOf(join), ir.NewReturn(source.Span{}, ir.Parameter(join, 0)))

	return fn, entry, left, right, join
}

func TestDominatorTreeDiamond(t *testing.T) {
	fn, entry, left, right, join := diamond()
	tree := analysis.BuildDominatorTree(fn)

	idom, ok := tree.ImmediateDominator(join)
	require.True(t, ok)
	assert.Equal(t, entry, idom)

	assert.True(t, tree.Dominates(entry, left))
	assert.True(t, tree.Dominates(entry, right))
	assert.True(t, tree.Dominates(entry, join))
	assert.False(t, tree.Dominates(left, right))
	assert.False(t, tree.Dominates(right, join))

	_, ok = tree.ImmediateDominator(entry)
	assert.False(t, ok)
}

func TestDominatorTreeStrictDominatorsOrder(t *testing.T) {
	fn, entry, left, _, join := diamond()
	tree := analysis.BuildDominatorTree(fn)

	assert.Equal(t, []ir.BlockID{entry}, tree.StrictDominators(left))
	assert.Equal(t, []ir.BlockID{entry}, tree.StrictDominators(join))
}

func TestDominatorTreeBFSVisitsEveryReachableBlock(t *testing.T) {
	fn, entry, left, right, join := diamond()
	tree := analysis.BuildDominatorTree(fn)

	order := tree.BFS()
	require.Len(t, order, 4)
	assert.Equal(t, entry, order[0])
	assert.ElementsMatch(t, []ir.BlockID{entry, left, right, join}, order)
}

func TestDominatorTreeDominatesUseSameBlockOrdersByPosition(t *testing.T) {
	fn := ir.NewFunction("f", nil, false)
	entry := fn.AppendBlock(0)
	alloc := fn.Insert(ir.EndOf(entry), ir.NewAlloc(source.Span{}))
	access := fn.Insert(ir.EndOf(entry), ir.NewAccess(source.Span{}, ir.CapabilityLet, ir.Register(alloc)))
	fn.Insert(ir.EndOf(entry), ir.NewReturn(source.Span{}, ir.Register(access)))

	tree := analysis.BuildDominatorTree(fn)
	assert.True(t, tree.DominatesUse(alloc, access))
	assert.False(t, tree.DominatesUse(access, alloc))
}
