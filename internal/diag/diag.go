// Package diag implements the compiler's diagnostic model: a typed,
// level-tagged, comparable accumulator (spec.md §3.5). Rendering beyond the
// one-line GNU-style form in spec.md §6.4 is out of scope; pretty-printing
// with source context belongs to the driver.
package diag

import (
	"fmt"
	"sort"

	"github.com/kyouko-taiga/dyva/internal/source"
)

// Level is the severity of a Diagnostic.
type Level int

const (
	Note Level = iota
	Warning
	Error
)

// String returns the lowercase level name used in the GNU-style rendering.
func (l Level) String() string {
	switch l {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// rank orders levels from most to least severe, used for the "reverse
// level" tiebreaker in the total order (spec.md §3.5).
func (l Level) rank() int {
	switch l {
	case Error:
		return 0
	case Warning:
		return 1
	default:
		return 2
	}
}

// Diagnostic is (level, message, site, notes). Notes are sub-diagnostics
// whose level must be Note.
type Diagnostic struct {
	Level   Level
	Message string
	Site    source.Span
	Notes   []Diagnostic
}

// New constructs a Diagnostic at the given level.
func New(level Level, message string, site source.Span) Diagnostic {
	return Diagnostic{Level: level, Message: message, Site: site}
}

// Notef constructs a Note-level diagnostic, for use as a sub-diagnostic.
func Notef(site source.Span, format string, args ...any) Diagnostic {
	return New(Note, fmt.Sprintf(format, args...), site)
}

// WithNotes returns a copy of d carrying the given notes appended. Any
// non-Note diagnostic passed in notes is downgraded to Note, since a note's
// level invariant (spec.md §3.5) must hold regardless of how callers built it.
func (d Diagnostic) WithNotes(notes ...Diagnostic) Diagnostic {
	out := d
	out.Notes = append(append([]Diagnostic(nil), d.Notes...), notes...)
	for i := range out.Notes {
		out.Notes[i].Level = Note
	}
	return out
}

// Format renders d as "<file>:<line>.<column>[-<line?>:<column>]: <level>: <message>"
// (spec.md §6.4). The file name is whatever Site.File.Name() returns;
// relativizing it to a base path is a driver concern.
func (d Diagnostic) Format() string {
	if d.Site.File == nil {
		return fmt.Sprintf("%s: %s", d.Level, d.Message)
	}
	startLine, startCol := d.Site.StartPosition().LineColumn()
	header := fmt.Sprintf("%s:%d.%d", d.Site.File.Name(), startLine, startCol)
	if !d.Site.IsEmpty() {
		endLine, endCol := d.Site.EndPosition().LineColumn()
		if endLine == startLine {
			header += fmt.Sprintf("-%d", endCol)
		} else {
			header += fmt.Sprintf("-%d.%d", endLine, endCol)
		}
	}
	return fmt.Sprintf("%s: %s: %s", header, d.Level, d.Message)
}

// Less implements the total order from spec.md §3.5: (file-name, start
// position, reverse level, message, notes).
func Less(a, b Diagnostic) bool {
	an, bn := fileName(a), fileName(b)
	if an != bn {
		return an < bn
	}
	if a.Site.Start != b.Site.Start {
		return a.Site.Start < b.Site.Start
	}
	if ar, br := a.Level.rank(), b.Level.rank(); ar != br {
		return ar < br
	}
	if a.Message != b.Message {
		return a.Message < b.Message
	}
	if len(a.Notes) != len(b.Notes) {
		return len(a.Notes) < len(b.Notes)
	}
	for i := range a.Notes {
		if Less(a.Notes[i], b.Notes[i]) {
			return true
		}
		if Less(b.Notes[i], a.Notes[i]) {
			return false
		}
	}
	return false
}

func fileName(d Diagnostic) string {
	if d.Site.File == nil {
		return ""
	}
	return d.Site.File.Name()
}

// Bag accumulates diagnostics for one module, in insertion order, and
// remembers whether any accumulated diagnostic is an error.
type Bag struct {
	diagnostics   []Diagnostic
	containsError bool
}

// Add appends d to the bag.
func (b *Bag) Add(d Diagnostic) {
	b.diagnostics = append(b.diagnostics, d)
	if d.Level == Error {
		b.containsError = true
	}
}

// Errorf adds an Error-level diagnostic.
func (b *Bag) Errorf(site source.Span, format string, args ...any) Diagnostic {
	d := New(Error, fmt.Sprintf(format, args...), site)
	b.Add(d)
	return d
}

// Warningf adds a Warning-level diagnostic.
func (b *Bag) Warningf(site source.Span, format string, args ...any) Diagnostic {
	d := New(Warning, fmt.Sprintf(format, args...), site)
	b.Add(d)
	return d
}

// ContainsError reports whether any accumulated diagnostic is an error.
func (b *Bag) ContainsError() bool { return b.containsError }

// Diagnostics returns the accumulated diagnostics in insertion order.
func (b *Bag) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), b.diagnostics...)
}

// Sorted returns the accumulated diagnostics in the total order from
// spec.md §3.5.
func (b *Bag) Sorted() []Diagnostic {
	out := b.Diagnostics()
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// Len reports how many diagnostics have been accumulated.
func (b *Bag) Len() int { return len(b.diagnostics) }
