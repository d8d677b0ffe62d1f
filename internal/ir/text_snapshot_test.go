package ir_test

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/kyouko-taiga/dyva/internal/ir"
	"github.com/kyouko-taiga/dyva/internal/source"
)

// TestPrintModuleMatchesSnapshot snapshots the textual form of spec.md §6.5
// for a small module with both a complete and a stub (no-implementation)
// function, so a regression in either rendering path is caught.
func TestPrintModuleMatchesSnapshot(t *testing.T) {
	m := ir.NewModule()

	add := ir.NewFunction("add", []string{"a", "b"}, false)
	entry := add.AppendBlock(2)
	alloc := add.Insert(ir.EndOf(entry), ir.NewAlloc(source.Span{}))
	add.Insert(ir.EndOf(entry), ir.NewStore(source.Span{}, ir.Parameter(entry, 0), ir.Register(alloc)))
	add.Insert(ir.EndOf(entry), ir.NewReturn(source.Span{}, ir.Parameter(entry, 1)))
	m.Declare(add)

	stub := ir.NewFunction("f", []string{"x"}, false)
	stub.HasBody = false
	m.Declare(stub)

	snaps.MatchSnapshot(t, ir.Print(m))
}
