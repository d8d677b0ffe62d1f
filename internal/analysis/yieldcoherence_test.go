package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyouko-taiga/dyva/internal/analysis"
	"github.com/kyouko-taiga/dyva/internal/diag"
	"github.com/kyouko-taiga/dyva/internal/ir"
	"github.com/kyouko-taiga/dyva/internal/source"
)

func subscript() *ir.Function {
	fn := ir.NewFunction("s", nil, true)
	fn.HasBody = true
	return fn
}

func TestYieldCoherenceAcceptsExactlyOneYield(t *testing.T) {
	fn := subscript()
	entry := fn.AppendBlock(1)
	self := ir.Parameter(entry, 0)
	fn.Insert(ir.EndOf(entry), ir.NewYield(source.Span{}, self))
	fn.Insert(ir.EndOf(entry), ir.NewReturn(source.Span{}, ir.ConstantValue(ir.Unit())))

	bag := &diag.Bag{}
	analysis.YieldCoherence(fn, bag)
	assert.False(t, bag.ContainsError(), "%v", bag.Diagnostics())
}

func TestYieldCoherenceReportsMissingYield(t *testing.T) {
	fn := subscript()
	entry := fn.AppendBlock(0)
	fn.Insert(ir.EndOf(entry), ir.NewReturn(source.Span{}, ir.ConstantValue(ir.Unit())))

	bag := &diag.Bag{}
	analysis.YieldCoherence(fn, bag)
	require.Len(t, bag.Diagnostics(), 1)
	assert.Contains(t, bag.Diagnostics()[0].Message, "subscript must yield before returning")
}

func TestYieldCoherenceReportsTwoYieldsInSameBlock(t *testing.T) {
	fn := subscript()
	entry := fn.AppendBlock(0)
	fn.Insert(ir.EndOf(entry), ir.NewYield(source.Span{}, ir.ConstantValue(ir.Int(1))))
	fn.Insert(ir.EndOf(entry), ir.NewYield(source.Span{}, ir.ConstantValue(ir.Int(2))))
	fn.Insert(ir.EndOf(entry), ir.NewReturn(source.Span{}, ir.ConstantValue(ir.Unit())))

	bag := &diag.Bag{}
	analysis.YieldCoherence(fn, bag)
	require.Len(t, bag.Diagnostics(), 1)
	d := bag.Diagnostics()[0]
	assert.Contains(t, d.Message, "subscript cannot project more than once")
	require.Len(t, d.Notes, 1)
}

func TestYieldCoherenceReportsSecondYieldAcrossBlocks(t *testing.T) {
	fn := subscript()
	entry := fn.AppendBlock(0)
	after := fn.AppendBlock(0)

	fn.Insert(ir.EndOf(entry), ir.NewYield(source.Span{}, ir.ConstantValue(ir.Int(1))))
	fn.Insert(ir.EndOf(entry), ir.NewBranch(source.Span{}, after, nil))
	fn.Insert(ir.EndOf(after), ir.NewYield(source.Span{}, ir.ConstantValue(ir.Int(2))))
	fn.Insert(ir.EndOf(after), ir.NewReturn(source.Span{}, ir.ConstantValue(ir.Unit())))

	bag := &diag.Bag{}
	analysis.YieldCoherence(fn, bag)
	require.Len(t, bag.Diagnostics(), 1)
	assert.Contains(t, bag.Diagnostics()[0].Message, "subscript cannot project more than once")
}

func TestYieldCoherenceIgnoresOrdinaryFunctions(t *testing.T) {
	fn := ir.NewFunction("f", nil, false)
	fn.HasBody = true
	entry := fn.AppendBlock(0)
	fn.Insert(ir.EndOf(entry), ir.NewReturn(source.Span{}, ir.ConstantValue(ir.Unit())))

	bag := &diag.Bag{}
	analysis.YieldCoherence(fn, bag)
	assert.False(t, bag.ContainsError())
}
