package symbols

import (
	"strata/internal/source"
	"strata/internal/token"
	"strata/internal/types"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopeNone              // artificial root per indexed file
	ScopeClass             // class body
	ScopeModule            // module body
	ScopeBlock             // function body
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeNone:
		return "none"
	case ScopeClass:
		return "class"
	case ScopeModule:
		return "module"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// ScopeKindOf maps a namespace keyword to its scope kind.
func ScopeKindOf(kw token.Kind) ScopeKind {
	switch kw {
	case token.KwClass:
		return ScopeClass
	case token.KwModule:
		return ScopeModule
	default:
		return ScopeInvalid
	}
}

// Scope models a lexical scope with a parent-child hierarchy. Children,
// functions and variables are indexed by name and kept in declaration order.
type Scope struct {
	Name   string
	Kind   ScopeKind
	Parent ScopeID
	Span   source.Span
	// Super хранит текст суперкласса из `class A < B`.
	Super string

	ChildIndex map[string]ScopeID
	Children   []ScopeID

	FuncIndex map[string]FunctionID
	Functions []FunctionID

	Vars     map[string]types.TypeID
	VarOrder []string
}

func newScope(name string, kind ScopeKind, parent ScopeID, span source.Span) Scope {
	return Scope{
		Name:       name,
		Kind:       kind,
		Parent:     parent,
		Span:       span,
		ChildIndex: make(map[string]ScopeID),
		FuncIndex:  make(map[string]FunctionID),
		Vars:       make(map[string]types.TypeID),
	}
}

// Child looks up a direct child by name.
func (s *Scope) Child(name string) (ScopeID, bool) {
	id, ok := s.ChildIndex[name]
	return id, ok
}

// Function looks up a function declared directly in the scope.
func (s *Scope) Function(name string) (FunctionID, bool) {
	id, ok := s.FuncIndex[name]
	return id, ok
}

// Var returns the recorded type of a variable declared in the scope.
func (s *Scope) Var(name string) (types.TypeID, bool) {
	id, ok := s.Vars[name]
	return id, ok
}

// ensureMaps restores maps lost by serialization of empty scopes.
func (s *Scope) ensureMaps() {
	if s.ChildIndex == nil {
		s.ChildIndex = make(map[string]ScopeID)
	}
	if s.FuncIndex == nil {
		s.FuncIndex = make(map[string]FunctionID)
	}
	if s.Vars == nil {
		s.Vars = make(map[string]types.TypeID)
	}
}
