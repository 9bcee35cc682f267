package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"strata/internal/source"
)

// Scopes stores all allocated scopes in a compact slice-based arena.
type Scopes struct {
	data []Scope
}

// NewScopes creates an arena with optional capacity hint.
func NewScopes(capacity uint32) *Scopes {
	if capacity == 0 {
		capacity = 32
	}
	s := &Scopes{
		data: make([]Scope, 1, capacity+1), // index 0 reserved for NoScopeID
	}
	return s
}

// New allocates a new scope and links it under parent by name.
func (s *Scopes) New(name string, kind ScopeKind, parent ScopeID, span source.Span) ScopeID {
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("scopes arena overflow: %w", err))
	}
	id := ScopeID(value)
	s.data = append(s.data, newScope(name, kind, parent, span))
	if parent.IsValid() {
		if parentScope := s.Get(parent); parentScope != nil {
			parentScope.ChildIndex[name] = id
			parentScope.Children = append(parentScope.Children, id)
		}
	}
	return id
}

// Get returns the scope pointer or nil if ID is invalid.
func (s *Scopes) Get(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return &s.data[id]
}

// Len reports total number of scopes excluding the sentinel.
func (s *Scopes) Len() int { return len(s.data) - 1 }

// Data exposes the underlying slice without the sentinel.
func (s *Scopes) Data() []Scope {
	if len(s.data) <= 1 {
		return nil
	}
	return s.data[1:]
}

// Functions stores registered functions in a compact arena. Replaced
// functions stay in the arena but are no longer indexed by their owner.
type Functions struct {
	data []Function
}

// NewFunctions creates a function arena with optional capacity hint.
func NewFunctions(capacity uint32) *Functions {
	if capacity == 0 {
		capacity = 64
	}
	return &Functions{
		data: make([]Function, 1, capacity+1), // index 0 reserved for NoFunctionID
	}
}

// New allocates a function in the arena and returns its ID.
func (f *Functions) New(fn *Function) FunctionID {
	if fn == nil {
		panic("symbols.Functions.New: nil function")
	}
	value, err := safecast.Conv[uint32](len(f.data))
	if err != nil {
		panic(fmt.Errorf("functions arena overflow: %w", err))
	}
	id := FunctionID(value)
	f.data = append(f.data, *fn)
	return id
}

// Get returns a function pointer or nil for invalid ID.
func (f *Functions) Get(id FunctionID) *Function {
	if !id.IsValid() || int(id) >= len(f.data) {
		return nil
	}
	return &f.data[id]
}

// Len reports number of stored functions excluding sentinel.
func (f *Functions) Len() int { return len(f.data) - 1 }

// Data exposes the arena storage without the sentinel.
func (f *Functions) Data() []Function {
	if len(f.data) <= 1 {
		return nil
	}
	return f.data[1:]
}
