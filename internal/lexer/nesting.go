package lexer

import (
	"strata/internal/source"
	"strata/internal/token"
)

// MarkerKind различает, что именно открыл маркер на стеке вложенности.
type MarkerKind uint8

const (
	MarkNamespace MarkerKind = iota
	MarkFunction
	MarkBlock
)

func (k MarkerKind) String() string {
	switch k {
	case MarkNamespace:
		return "namespace"
	case MarkFunction:
		return "function"
	case MarkBlock:
		return "block"
	default:
		return "marker(?)"
	}
}

// Marker is pushed by every construct that is closed by `end`.
type Marker struct {
	Kind    MarkerKind
	Keyword token.Kind
	Span    source.Span
}

// OpensScope reports whether closing this marker moves the builder's scope
// cursor. Block markers only keep `end` balanced.
func (m Marker) OpensScope() bool {
	return m.Kind != MarkBlock
}

func (s *Scanner) push(m Marker) {
	s.nesting = append(s.nesting, m)
}

func (s *Scanner) pop() (Marker, bool) {
	if len(s.nesting) == 0 {
		return Marker{}, false
	}
	m := s.nesting[len(s.nesting)-1]
	s.nesting = s.nesting[:len(s.nesting)-1]
	return m, true
}

// Depth returns the number of open markers.
func (s *Scanner) Depth() int {
	return len(s.nesting)
}

// Nesting returns a copy of the open markers, outermost first.
func (s *Scanner) Nesting() []Marker {
	out := make([]Marker, len(s.nesting))
	copy(out, s.nesting)
	return out
}
