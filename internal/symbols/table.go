package symbols

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"

	"strata/internal/source"
	"strata/internal/types"
)

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Scopes, Functions uint }

// Table aggregates the scope and function arenas of one indexed file
// together with the type interner their TypeIDs belong to.
type Table struct {
	Scopes    *Scopes
	Functions *Functions
	Types     *types.Interner
	Root      ScopeID
}

// NewTable builds a fresh table with a root scope of kind ScopeNone.
// If in is nil, a fresh interner is allocated.
func NewTable(h Hints, in *types.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	fnCap, err := safecast.Conv[uint32](h.Functions)
	if err != nil {
		panic(fmt.Errorf("function capacity overflow: %w", err))
	}
	if in == nil {
		in = types.NewInterner()
	}
	t := &Table{
		Scopes:    NewScopes(scopeCap),
		Functions: NewFunctions(fnCap),
		Types:     in,
	}
	t.Root = t.Scopes.New("", ScopeNone, NoScopeID, source.Span{})
	return t
}

// Scope returns the scope for id or nil.
func (t *Table) Scope(id ScopeID) *Scope {
	return t.Scopes.Get(id)
}

// Function returns the function for id or nil.
func (t *Table) Function(id FunctionID) *Function {
	return t.Functions.Get(id)
}

// Declare returns the child of parent called name, creating it with kind
// when missing. created is false for a reopened scope, whose kind is kept.
func (t *Table) Declare(parent ScopeID, name string, kind ScopeKind, span source.Span) (id ScopeID, created bool) {
	p := t.Scopes.Get(parent)
	if p == nil {
		return NoScopeID, false
	}
	if existing, ok := p.Child(name); ok {
		return existing, false
	}
	return t.Scopes.New(name, kind, parent, span), true
}

// Resolve walks a `::`-qualified name from scope `from`, matching each
// segment against the children of the previous one.
func (t *Table) Resolve(from ScopeID, qualified string) (ScopeID, bool) {
	cur := from
	for seg := range strings.SplitSeq(qualified, "::") {
		s := t.Scopes.Get(cur)
		if s == nil {
			return NoScopeID, false
		}
		next, ok := s.Child(seg)
		if !ok {
			return NoScopeID, false
		}
		cur = next
	}
	return cur, true
}

// Register stores fn under owner by its bare name. A previous function with
// the same name is replaced in place and keeps its declaration position.
func (t *Table) Register(owner ScopeID, fn *Function) FunctionID {
	s := t.Scopes.Get(owner)
	if s == nil {
		return NoFunctionID
	}
	fn.Owner = owner
	id := t.Functions.New(fn)
	if old, ok := s.FuncIndex[fn.Name]; ok {
		if i := slices.Index(s.Functions, old); i >= 0 {
			s.Functions[i] = id
		}
	} else {
		s.Functions = append(s.Functions, id)
	}
	s.FuncIndex[fn.Name] = id
	return id
}

// SetVar records or overwrites a variable's type in scope.
func (t *Table) SetVar(scope ScopeID, name string, typ types.TypeID) {
	s := t.Scopes.Get(scope)
	if s == nil {
		return
	}
	if _, ok := s.Vars[name]; !ok {
		s.VarOrder = append(s.VarOrder, name)
	}
	s.Vars[name] = typ
}

// Path returns the `::`-joined names from the root down to id.
func (t *Table) Path(id ScopeID) string {
	var parts []string
	for cur := id; cur.IsValid() && cur != t.Root; {
		s := t.Scopes.Get(cur)
		if s == nil {
			break
		}
		parts = append(parts, s.Name)
		cur = s.Parent
	}
	slices.Reverse(parts)
	return strings.Join(parts, "::")
}

// Walk visits scopes depth-first in declaration order, starting at the root
// with depth 0.
func (t *Table) Walk(visit func(id ScopeID, depth int)) {
	var walk func(id ScopeID, depth int)
	walk = func(id ScopeID, depth int) {
		s := t.Scopes.Get(id)
		if s == nil {
			return
		}
		visit(id, depth)
		for _, child := range s.Children {
			walk(child, depth+1)
		}
	}
	walk(t.Root, 0)
}

// Stats summarizes table contents.
type Stats struct {
	Scopes    int // excluding the root
	Functions int // live (indexed) functions
	Variables int
}

// Stats counts scopes, live functions and variables.
func (t *Table) Stats() Stats {
	var st Stats
	t.Walk(func(id ScopeID, _ int) {
		s := t.Scopes.Get(id)
		if id != t.Root {
			st.Scopes++
		}
		st.Functions += len(s.Functions)
		st.Variables += len(s.VarOrder)
	})
	return st
}

// SetFile rewrites every span to point at file. Used after a table is
// restored from cache into a FileSet with different IDs.
func (t *Table) SetFile(file source.FileID) {
	for i := range t.Scopes.data {
		t.Scopes.data[i].Span.File = file
	}
	for i := range t.Functions.data {
		fn := &t.Functions.data[i]
		fn.Span.File = file
		for j := range fn.Positional {
			fn.Positional[j].Span.File = file
		}
		for name, p := range fn.Keyword {
			p.Span.File = file
			fn.Keyword[name] = p
		}
	}
}
