package testkit

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"strata/internal/source"
	"strata/internal/symbols"
)

// CheckTableInvariants runs span invariants over an indexed file that
// symbols.Table.Validate does not cover:
// 1) every non-root scope and every function points at sf and stays inside its content
// 2) a scope never starts before its (non-root) parent
// 3) a function listed by a scope is owned by it and starts no earlier than it
func CheckTableInvariants(t *symbols.Table, sf *source.File) error {
	if t == nil || sf == nil {
		return fmt.Errorf("nil table or file")
	}
	if _, err := safecast.Conv[uint32](len(sf.Content)); err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	whole := sf.Whole()
	checkSpan := func(what string, sp source.Span) error {
		if sp.File != sf.ID {
			return fmt.Errorf("%s span points to different file id: got=%d want=%d", what, sp.File, sf.ID)
		}
		if !whole.Contains(sp) {
			return fmt.Errorf("%s span %d..%d out of bounds (content %d)", what, sp.Start, sp.End, whole.End)
		}
		return nil
	}

	var firstErr error
	t.Walk(func(id symbols.ScopeID, _ int) {
		if firstErr != nil {
			return
		}
		s := t.Scope(id)
		if id != t.Root {
			if err := checkSpan(fmt.Sprintf("scope %q", t.Path(id)), s.Span); err != nil {
				firstErr = err
				return
			}
			if s.Parent != t.Root {
				if parent := t.Scope(s.Parent); parent != nil && s.Span.Start < parent.Span.Start {
					firstErr = fmt.Errorf("scope %q starts at %d before its parent at %d", t.Path(id), s.Span.Start, parent.Span.Start)
					return
				}
			}
		}
		for _, fnID := range s.Functions {
			fn := t.Function(fnID)
			if fn == nil {
				firstErr = fmt.Errorf("scope %d lists missing function %d", id, fnID)
				return
			}
			if fn.Owner != id {
				firstErr = fmt.Errorf("function %q listed by scope %d but owned by %d", fn.Name, id, fn.Owner)
				return
			}
			if err := checkSpan(fmt.Sprintf("function %q", fn.Name), fn.Span); err != nil {
				firstErr = err
				return
			}
			if id != t.Root && fn.Span.Start < s.Span.Start {
				firstErr = fmt.Errorf("function %q starts at %d before its owner at %d", fn.Name, fn.Span.Start, s.Span.Start)
				return
			}
			if fn.Body.IsValid() && !slices.Contains(s.Children, fn.Body) {
				firstErr = fmt.Errorf("function %q body %d is not a child of its owner", fn.Name, fn.Body)
				return
			}
		}
	})
	return firstErr
}
