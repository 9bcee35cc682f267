package symbols

import (
	"fmt"

	"strata/internal/types"
)

// Snapshot is the serializable form of a Table. Arena slices exclude the
// zero sentinels; IDs inside them stay valid after FromSnapshot.
type Snapshot struct {
	Types     []types.Type `msgpack:"types"`
	Scopes    []Scope      `msgpack:"scopes"`
	Functions []Function   `msgpack:"functions"`
	Root      ScopeID      `msgpack:"root"`
}

// Snapshot captures the table. Scopes and functions are copied shallowly, so
// their maps are shared with the live table until it is mutated again.
func (t *Table) Snapshot() *Snapshot {
	return &Snapshot{
		Types:     t.Types.Types(),
		Scopes:    append([]Scope(nil), t.Scopes.Data()...),
		Functions: append([]Function(nil), t.Functions.Data()...),
		Root:      t.Root,
	}
}

// FromSnapshot rebuilds a table and validates it.
func FromSnapshot(s *Snapshot) (*Table, error) {
	if s == nil {
		return nil, fmt.Errorf("symbols: nil snapshot")
	}
	in, err := types.NewInternerFrom(s.Types)
	if err != nil {
		return nil, err
	}
	t := &Table{
		Scopes:    &Scopes{data: make([]Scope, 1, len(s.Scopes)+1)},
		Functions: &Functions{data: make([]Function, 1, len(s.Functions)+1)},
		Types:     in,
		Root:      s.Root,
	}
	for _, sc := range s.Scopes {
		sc.ensureMaps()
		t.Scopes.data = append(t.Scopes.data, sc)
	}
	for _, fn := range s.Functions {
		if fn.Keyword == nil {
			fn.Keyword = make(map[string]Param)
		}
		t.Functions.data = append(t.Functions.data, fn)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("symbols: invalid snapshot: %w", err)
	}
	return t, nil
}
