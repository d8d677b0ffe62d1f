package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyouko-taiga/dyva/internal/ir"
	"github.com/kyouko-taiga/dyva/internal/source"
)

func emptySpan() source.Span { return source.Span{} }

func TestInsertSplicesAndTracksDefUse(t *testing.T) {
	fn := ir.NewFunction("add", []string{"a", "b"}, false)
	entry := fn.AppendBlock(2)

	allocID := fn.Insert(ir.EndOf(entry), ir.NewAlloc(emptySpan()))
	storeID := fn.Insert(ir.EndOf(entry), ir.NewStore(emptySpan(), ir.ConstantValue(ir.Int(1)), ir.Register(allocID)))
	fn.Insert(ir.EndOf(entry), ir.NewReturn(emptySpan(), ir.ConstantValue(ir.Unit())))

	uses := fn.Uses(ir.Register(allocID))
	require.Len(t, uses, 1)
	assert.Equal(t, storeID, uses[0].User)
	assert.Equal(t, 1, uses[0].OperandIndex)

	block, ok := fn.ContainerBlock(allocID)
	require.True(t, ok)
	assert.Equal(t, entry, block)

	b := fn.Block(entry)
	assert.Equal(t, allocID, b.First)
}

func TestInsertBeforeShiftsLaterPositions(t *testing.T) {
	fn := ir.NewFunction("f", nil, false)
	entry := fn.AppendBlock(0)

	first := fn.Insert(ir.EndOf(entry), ir.NewAlloc(emptySpan()))
	last := fn.Insert(ir.EndOf(entry), ir.NewReturn(emptySpan(), ir.ConstantValue(ir.Unit())))

	middle := fn.Insert(ir.Before(last), ir.NewAccess(emptySpan(), ir.CapabilityLet, ir.Register(first)))

	assert.Equal(t, 0, fn.Position(first))
	assert.Equal(t, 1, fn.Position(middle))
	assert.Equal(t, 2, fn.Position(last))

	b := fn.Block(entry)
	assert.Equal(t, first, b.First)
	assert.Equal(t, last, b.Last)
}

func TestRemoveClearsDefUseAndBlockWindow(t *testing.T) {
	fn := ir.NewFunction("f", nil, false)
	entry := fn.AppendBlock(0)

	allocID := fn.Insert(ir.EndOf(entry), ir.NewAlloc(emptySpan()))
	accessID := fn.Insert(ir.EndOf(entry), ir.NewAccess(emptySpan(), ir.CapabilityLet, ir.Register(allocID)))
	endID := fn.Insert(ir.EndOf(entry), ir.NewRegionEnd(emptySpan(), accessID))

	fn.Remove(endID)
	assert.Empty(t, fn.Uses(ir.Register(accessID)))

	fn.Remove(accessID)
	assert.Empty(t, fn.Uses(ir.Register(allocID)))

	b := fn.Block(entry)
	assert.Equal(t, allocID, b.First)
	assert.Equal(t, allocID, b.Last)
}

func TestPrintRendersFunctionAndBlockHeaders(t *testing.T) {
	mod := ir.NewModule()
	fn := ir.NewFunction(ir.MainFunctionName, nil, false)
	fn.HasBody = true
	entry := fn.AppendBlock(0)
	fn.Insert(ir.EndOf(entry), ir.NewReturn(emptySpan(), ir.ConstantValue(ir.Unit())))
	mod.Declare(fn)

	text := ir.Print(mod)
	assert.Contains(t, text, "fun $main() =")
	assert.Contains(t, text, "b0 =")
	assert.Contains(t, text, "return(unit)")
}

func TestStubFunctionPrintsNoImplementation(t *testing.T) {
	fn := ir.NewFunction("f", nil, false)
	fn.HasBody = false
	text := ir.PrintFunction(fn)
	assert.Contains(t, text, "<no implementation>")
}
