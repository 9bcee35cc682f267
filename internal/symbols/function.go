package symbols

import (
	"strata/internal/source"
	"strata/internal/types"
)

// Param is a single declared parameter.
type Param struct {
	Name string
	Type types.TypeID
	// Default is nil when the parameter has no default value, otherwise it
	// points at the inferred type of the default literal.
	Default *types.TypeID
	Span    source.Span
}

// HasDefault reports whether the parameter is optional.
func (p Param) HasDefault() bool { return p.Default != nil }

// Function is a registered function signature. Positional parameters always
// precede keyword parameters; registration rejects any other order.
type Function struct {
	Name         string
	Positional   []Param
	Keyword      map[string]Param
	KeywordOrder []string
	// Rest, KeywordRest and Block hold the names of *rest, **kwrest and &block
	// parameters, or "".
	Rest        string
	KeywordRest string
	Block       string
	Returns     types.TypeID
	Owner       ScopeID
	// Body is the Block scope of the function, NoScopeID for endless defs.
	Body ScopeID
	Span source.Span
}

// KeywordParams returns keyword parameters in declaration order.
func (f *Function) KeywordParams() []Param {
	out := make([]Param, 0, len(f.KeywordOrder))
	for _, name := range f.KeywordOrder {
		out = append(out, f.Keyword[name])
	}
	return out
}

// Arity returns the number of required positional parameters and the total
// number of positional ones.
func (f *Function) Arity() (required, total int) {
	for _, p := range f.Positional {
		if !p.HasDefault() {
			required++
		}
	}
	return required, len(f.Positional)
}
