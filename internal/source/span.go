package source

import (
	"fmt"

	"fortio.org/safecast"
)

// Span is the half-open byte range [Start, End) of one file.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Contains reports whether other is a well-formed span of the same file
// lying inside s.
func (s Span) Contains(other Span) bool {
	return s.File == other.File &&
		other.Start <= other.End &&
		s.Start <= other.Start && other.End <= s.End
}

// Whole returns the span covering all of f.
func (f *File) Whole() Span {
	end, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	return Span{File: f.ID, End: end}
}
