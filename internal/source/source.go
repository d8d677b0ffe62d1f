// Package source holds the immutable source text the rest of the compiler
// front-end operates over, plus the positional arithmetic (Position, Span)
// used to anchor tokens, AST nodes, IR instructions, and diagnostics.
package source

import (
	"github.com/google/uuid"
)

// File owns the immutable text of one source file. Its Name is either a
// local path (for files loaded from disk) or a synthetic "<virtual:UUID>"
// label minted for in-memory sources that have no path, per spec.md §3.1.
type File struct {
	name       string
	text       string
	lineStarts []int
}

// NewFile wraps path and text as a named source file.
func NewFile(path, text string) *File {
	return &File{name: path, text: text, lineStarts: computeLineStarts(text)}
}

// NewVirtualFile wraps text with no backing path, minting a stable opaque
// name from a freshly generated UUID so diagnostics still have something to
// print in the absence of a file name.
func NewVirtualFile(text string) *File {
	return &File{name: "<virtual:" + uuid.NewString() + ">", text: text, lineStarts: computeLineStarts(text)}
}

// Name returns the file's logical name.
func (f *File) Name() string { return f.name }

// Text returns the full source text.
func (f *File) Text() string { return f.text }

// Len returns the length of the source text in bytes.
func (f *File) Len() int { return len(f.text) }

func computeLineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// LineColumn converts a byte offset into a 1-based (line, column) pair,
// where column counts bytes since the start of the line. Offsets past the
// end of the text clamp to the last line.
func (f *File) LineColumn(offset int) (line, column int) {
	// Binary search over lineStarts for the last start <= offset.
	lo, hi := 0, len(f.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if f.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1, offset - f.lineStarts[lo] + 1
}

// Position is a single point within a File: (file, byte index).
type Position struct {
	File   *File
	Offset int
}

// IsValid reports whether the position refers to a file.
func (p Position) IsValid() bool { return p.File != nil }

// LineColumn returns the 1-based line and column of the position.
func (p Position) LineColumn() (line, column int) {
	if p.File == nil {
		return 0, 0
	}
	return p.File.LineColumn(p.Offset)
}

// Span is a half-open byte range [Start, End) within one File.
type Span struct {
	File  *File
	Start int
	End   int
}

// EmptyAt returns a zero-width span located at p.
func EmptyAt(p Position) Span {
	return Span{File: p.File, Start: p.Offset, End: p.Offset}
}

// IsEmpty reports whether the span covers no text.
func (s Span) IsEmpty() bool { return s.Start == s.End }

// Text returns the source text covered by the span.
func (s Span) Text() string {
	if s.File == nil {
		return ""
	}
	return s.File.Text()[s.Start:s.End]
}

// StartPosition returns the span's start as a Position.
func (s Span) StartPosition() Position { return Position{File: s.File, Offset: s.Start} }

// EndPosition returns the span's end as a Position.
func (s Span) EndPosition() Position { return Position{File: s.File, Offset: s.End} }

// Intersects reports whether s and o overlap. Two spans in different files
// never intersect. Touching but non-overlapping spans (s.End == o.Start)
// do not intersect, consistent with the half-open convention.
func (s Span) Intersects(o Span) bool {
	if s.File != o.File {
		return false
	}
	return s.Start < o.End && o.Start < s.End
}

// Intersection returns the overlapping range of s and o. If they do not
// intersect, the result is an empty span at s.Start.
func (s Span) Intersection(o Span) Span {
	if !s.Intersects(o) {
		return Span{File: s.File, Start: s.Start, End: s.Start}
	}
	start := s.Start
	if o.Start > start {
		start = o.Start
	}
	end := s.End
	if o.End < end {
		end = o.End
	}
	return Span{File: s.File, Start: start, End: end}
}

// ExtendedToCover returns the smallest span covering both s and o. The two
// spans must belong to the same file.
func (s Span) ExtendedToCover(o Span) Span {
	start := s.Start
	if o.Start < start {
		start = o.Start
	}
	end := s.End
	if o.End > end {
		end = o.End
	}
	return Span{File: s.File, Start: start, End: end}
}

// ExtendedUpTo returns s widened so that its end is at least p.Offset.
func (s Span) ExtendedUpTo(p Position) Span {
	end := s.End
	if p.Offset > end {
		end = p.Offset
	}
	return Span{File: s.File, Start: s.Start, End: end}
}
