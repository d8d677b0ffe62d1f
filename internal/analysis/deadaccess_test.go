package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kyouko-taiga/dyva/internal/analysis"
	"github.com/kyouko-taiga/dyva/internal/ir"
	"github.com/kyouko-taiga/dyva/internal/source"
)

func TestEliminateDeadAccessesRemovesAccessOnlyUsedByRegionEnd(t *testing.T) {
	fn := ir.NewFunction("f", nil, false)
	entry := fn.AppendBlock(0)
	alloc := fn.Insert(ir.EndOf(entry), ir.NewAlloc(source.Span{}))
	access := fn.Insert(ir.EndOf(entry), ir.NewAccess(source.Span{}, ir.CapabilityLet, ir.Register(alloc)))
	end := fn.Insert(ir.EndOf(entry), ir.NewRegionEnd(source.Span{}, access))
	fn.Insert(ir.EndOf(entry), ir.NewReturn(source.Span{}, ir.ConstantValue(ir.Unit())))

	analysis.EliminateDeadAccesses(fn)

	for _, instr := range fn.Instructions() {
		assert.NotEqual(t, access, instr.ID())
		assert.NotEqual(t, end, instr.ID())
	}
}

func TestEliminateDeadAccessesKeepsAccessWithRealUse(t *testing.T) {
	fn := ir.NewFunction("f", nil, false)
	entry := fn.AppendBlock(0)
	alloc := fn.Insert(ir.EndOf(entry), ir.NewAlloc(source.Span{}))
	access := fn.Insert(ir.EndOf(entry), ir.NewAccess(source.Span{}, ir.CapabilityLet, ir.Register(alloc)))
	member := fn.Insert(ir.EndOf(entry), ir.NewMember(source.Span{}, ir.Register(access), ir.MemberByName("x")))
	fn.Insert(ir.EndOf(entry), ir.NewRegionEnd(source.Span{}, access))
	fn.Insert(ir.EndOf(entry), ir.NewReturn(source.Span{}, ir.Register(member)))

	analysis.EliminateDeadAccesses(fn)

	found := false
	for _, instr := range fn.Instructions() {
		if instr.ID() == access {
			found = true
		}
	}
	assert.True(t, found)
}
