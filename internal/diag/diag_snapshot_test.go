package diag_test

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/kyouko-taiga/dyva/internal/diag"
	"github.com/kyouko-taiga/dyva/internal/source"
)

// TestFormatMatchesSnapshot pins down the GNU-style one-line rendering of
// spec.md §6.4 for both a single-line and a multi-line span, and for a
// diagnostic with no backing file at all.
func TestFormatMatchesSnapshot(t *testing.T) {
	file := source.NewFile("indent_mismatch.dyva", "fun f() =\n  a\n   b\n")

	singleLine := diag.New(diag.Error, "undefined symbol 'x'", source.Span{File: file, Start: 15, End: 16})
	multiLine := diag.New(diag.Error, "dedendation does not match the current indentation",
		source.Span{File: file, Start: 12, End: 18}).
		WithNotes(diag.Notef(source.Span{File: file, Start: 13, End: 14}, "indentation of %d characters introduced here is never closed", 2))
	noFile := diag.New(diag.Warning, "unused import", source.Span{})

	snaps.MatchSnapshot(t, singleLine.Format())
	snaps.MatchSnapshot(t, multiLine.Format())
	for _, note := range multiLine.Notes {
		snaps.MatchSnapshot(t, note.Format())
	}
	snaps.MatchSnapshot(t, noFile.Format())
}

// TestBagSortedOrdersByFileThenPositionThenSeverity exercises the total
// order from spec.md §3.5 end to end through a snapshot of the rendered,
// sorted diagnostics.
func TestBagSortedOrdersByFileThenPositionThenSeverity(t *testing.T) {
	file := source.NewFile("a.dyva", "xy")
	bag := &diag.Bag{}
	bag.Add(diag.New(diag.Warning, "second warning", source.Span{File: file, Start: 1, End: 1}))
	bag.Add(diag.New(diag.Error, "an error", source.Span{File: file, Start: 0, End: 1}))
	bag.Add(diag.New(diag.Warning, "first warning", source.Span{File: file, Start: 1, End: 1}))

	var rendered []string
	for _, d := range bag.Sorted() {
		rendered = append(rendered, d.Format())
	}
	snaps.MatchSnapshot(t, rendered)
}
