package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyouko-taiga/dyva/internal/analysis"
	"github.com/kyouko-taiga/dyva/internal/ir"
	"github.com/kyouko-taiga/dyva/internal/source"
)

func TestCloseRegionsInsertsRegionEndAfterLastUse(t *testing.T) {
	fn := ir.NewFunction("f", nil, false)
	entry := fn.AppendBlock(0)
	alloc := fn.Insert(ir.EndOf(entry), ir.NewAlloc(source.Span{}))
	access := fn.Insert(ir.EndOf(entry), ir.NewAccess(source.Span{}, ir.CapabilityLet, ir.Register(alloc)))
	use := fn.Insert(ir.EndOf(entry), ir.NewMember(source.Span{}, ir.Register(access), ir.MemberByName("x")))
	fn.Insert(ir.EndOf(entry), ir.NewReturn(source.Span{}, ir.Register(use)))

	analysis.CloseRegions(fn)

	instrs := fn.Instructions()
	pos := -1
	for i, instr := range instrs {
		if instr.ID() == use {
			pos = i
		}
	}
	require.NotEqual(t, -1, pos)
	require.Less(t, pos+1, len(instrs))
	end, ok := instrs[pos+1].(*ir.RegionEndInst)
	require.True(t, ok)
	assert.Equal(t, access, end.Start)
}

func TestCloseRegionsRemovesAccessWithNoUses(t *testing.T) {
	fn := ir.NewFunction("f", nil, false)
	entry := fn.AppendBlock(0)
	alloc := fn.Insert(ir.EndOf(entry), ir.NewAlloc(source.Span{}))
	access := fn.Insert(ir.EndOf(entry), ir.NewAccess(source.Span{}, ir.CapabilityLet, ir.Register(alloc)))
	fn.Insert(ir.EndOf(entry), ir.NewReturn(source.Span{}, ir.ConstantValue(ir.Unit())))

	analysis.CloseRegions(fn)

	for _, instr := range fn.Instructions() {
		assert.NotEqual(t, access, instr.ID())
	}
}

func TestCloseRegionsDoesNotCloseAPassThroughBlock(t *testing.T) {
	fn := ir.NewFunction("f", nil, false)
	entry := fn.AppendBlock(0)
	through := fn.AppendBlock(0)
	user := fn.AppendBlock(0)

	alloc := fn.Insert(ir.EndOf(entry), ir.NewAlloc(source.Span{}))
	access := fn.Insert(ir.EndOf(entry), ir.NewAccess(source.Span{}, ir.CapabilityLet, ir.Register(alloc)))
	fn.Insert(ir.EndOf(entry), ir.NewBranch(source.Span{}, through, nil))
	fn.Insert(ir.EndOf(through), ir.NewBranch(source.Span{}, user, nil))
	use := fn.Insert(ir.EndOf(user), ir.NewMember(source.Span{}, ir.Register(access), ir.MemberByName("x")))
	fn.Insert(ir.EndOf(user), ir.NewReturn(source.Span{}, ir.Register(use)))

	analysis.CloseRegions(fn)

	// through both receives and forwards the access's region, so it gets
	// no region-end of its own; the close lands in user, right after the
	// member that reads from it.
	b := fn.Block(through)
	require.False(t, b.IsEmpty())
	_, isEnd := fn.Instruction(b.First).(*ir.RegionEndInst)
	assert.False(t, isEnd)

	userBlock := fn.Block(user)
	found := false
	for _, instr := range fn.Instructions() {
		block, ok := fn.ContainerBlock(instr.ID())
		if !ok || block != userBlock.ID {
			continue
		}
		if end, ok := instr.(*ir.RegionEndInst); ok && end.Start == access {
			found = true
		}
	}
	assert.True(t, found, "expected a region-end<access> in the user block")
}
