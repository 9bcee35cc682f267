package symbols

import (
	"errors"
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Validate walks internal arenas checking structural invariants. Returns nil if
// everything is consistent; otherwise aggregates all detected issues.
func (t *Table) Validate() error {
	var errs []error

	root := t.Scopes.Get(t.Root)
	switch {
	case root == nil:
		errs = append(errs, fmt.Errorf("root scope %d is missing", t.Root))
	case root.Kind != ScopeNone || root.Parent.IsValid():
		errs = append(errs, fmt.Errorf("root scope %d must be a parentless %s scope, got %s", t.Root, ScopeNone, root.Kind))
	}

	for idx := 1; idx < len(t.Scopes.data); idx++ {
		scopeID, err := toScopeID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, t.validateScope(scopeID)...)
	}

	for idx := 1; idx < len(t.Functions.data); idx++ {
		fnID, err := toFunctionID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, t.validateFunction(fnID)...)
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

func (t *Table) validateScope(scopeID ScopeID) []error {
	var errs []error
	scope := &t.Scopes.data[scopeID]
	if scope.Kind == ScopeInvalid {
		errs = append(errs, fmt.Errorf("scope %d has invalid kind", scopeID))
	}

	// Check parent backlink.
	if scopeID != t.Root {
		parent := t.Scopes.Get(scope.Parent)
		if parent == nil || scope.Parent == scopeID {
			errs = append(errs, fmt.Errorf("scope %d has invalid parent %d", scopeID, scope.Parent))
		} else if id, ok := parent.ChildIndex[scope.Name]; !ok || id != scopeID || !slices.Contains(parent.Children, scopeID) {
			errs = append(errs, fmt.Errorf("scope %d (%q) parent %d missing backlink", scopeID, scope.Name, scope.Parent))
		}
	}

	// Check children.
	if len(scope.ChildIndex) != len(scope.Children) {
		errs = append(errs, fmt.Errorf("scope %d child index has %d names for %d children", scopeID, len(scope.ChildIndex), len(scope.Children)))
	}
	for name, child := range scope.ChildIndex {
		c := t.Scopes.Get(child)
		switch {
		case c == nil || child == scopeID:
			errs = append(errs, fmt.Errorf("scope %d has invalid child %d", scopeID, child))
		case c.Parent != scopeID:
			errs = append(errs, fmt.Errorf("scope %d child %d missing parent backlink", scopeID, child))
		case c.Name != name:
			errs = append(errs, fmt.Errorf("scope %d indexes child %d as %q, but it is named %q", scopeID, child, name, c.Name))
		}
	}

	// Check function index.
	if len(scope.FuncIndex) != len(scope.Functions) {
		errs = append(errs, fmt.Errorf("scope %d function index has %d names for %d functions", scopeID, len(scope.FuncIndex), len(scope.Functions)))
	}
	for name, id := range scope.FuncIndex {
		fn := t.Functions.Get(id)
		switch {
		case fn == nil:
			errs = append(errs, fmt.Errorf("scope %d indexes missing function %d", scopeID, id))
		case fn.Owner != scopeID || fn.Name != name:
			errs = append(errs, fmt.Errorf("scope %d indexes function %d as %q, owned by %d and named %q", scopeID, id, name, fn.Owner, fn.Name))
		case !slices.Contains(scope.Functions, id):
			errs = append(errs, fmt.Errorf("scope %d function %d missing from declaration order", scopeID, id))
		}
	}

	// Check variables.
	if len(scope.VarOrder) != len(scope.Vars) {
		errs = append(errs, fmt.Errorf("scope %d has %d ordered variables for %d recorded", scopeID, len(scope.VarOrder), len(scope.Vars)))
	}
	for name, typ := range scope.Vars {
		if _, ok := t.Types.Lookup(typ); !ok {
			errs = append(errs, fmt.Errorf("scope %d variable %q has invalid type %d", scopeID, name, typ))
		}
	}
	return errs
}

func (t *Table) validateFunction(fnID FunctionID) []error {
	var errs []error
	fn := &t.Functions.data[fnID]
	owner := t.Scopes.Get(fn.Owner)
	if owner == nil {
		return append(errs, fmt.Errorf("function %d (%q) has invalid owner %d", fnID, fn.Name, fn.Owner))
	}
	if fn.Body.IsValid() {
		body := t.Scopes.Get(fn.Body)
		if body == nil || body.Kind != ScopeBlock || body.Parent != fn.Owner {
			errs = append(errs, fmt.Errorf("function %d (%q) body %d is not a block child of its owner", fnID, fn.Name, fn.Body))
		}
	}
	if len(fn.KeywordOrder) != len(fn.Keyword) {
		errs = append(errs, fmt.Errorf("function %d (%q) has %d ordered keywords for %d recorded", fnID, fn.Name, len(fn.KeywordOrder), len(fn.Keyword)))
	}
	for _, name := range fn.KeywordOrder {
		if _, ok := fn.Keyword[name]; !ok {
			errs = append(errs, fmt.Errorf("function %d (%q) keyword %q is ordered but not recorded", fnID, fn.Name, name))
		}
	}
	return errs
}

func toScopeID(idx int) (ScopeID, error) {
	value, err := safecast.Conv[uint32](idx)
	if err != nil {
		return NoScopeID, fmt.Errorf("scope index %d overflow: %w", idx, err)
	}
	return ScopeID(value), nil
}

func toFunctionID(idx int) (FunctionID, error) {
	value, err := safecast.Conv[uint32](idx)
	if err != nil {
		return NoFunctionID, fmt.Errorf("function index %d overflow: %w", idx, err)
	}
	return FunctionID(value), nil
}
