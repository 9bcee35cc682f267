package indexer

import (
	"strings"

	"strata/internal/diag"
	"strata/internal/lexer"
	"strata/internal/source"
	"strata/internal/symbols"
	"strata/internal/types"
)

// Builder mutates a symbols.Table while expressions stream in. Its cursor is
// the scope that new declarations land in.
type Builder struct {
	table  *symbols.Table
	cursor symbols.ScopeID
}

// NewBuilder wires a builder to table with the cursor at the root.
func NewBuilder(table *symbols.Table) *Builder {
	return &Builder{table: table, cursor: table.Root}
}

// Table returns the table being built.
func (b *Builder) Table() *symbols.Table { return b.table }

// Current returns the scope under the cursor.
func (b *Builder) Current() symbols.ScopeID { return b.cursor }

// AtRoot reports whether every opened scope has been closed.
func (b *Builder) AtRoot() bool { return b.cursor == b.table.Root }

// OpenNamespace resolves a `::`-qualified name from the cursor. Every segment
// but the last must already exist; the last one is reused or created with
// kind. On success the cursor moves to it, on failure it stays put.
func (b *Builder) OpenNamespace(kind symbols.ScopeKind, name string, span source.Span) (symbols.ScopeID, error) {
	segments := strings.Split(name, "::")
	cur := b.cursor
	for _, seg := range segments[:len(segments)-1] {
		next, ok := b.table.Scope(cur).Child(seg)
		if !ok {
			return symbols.NoScopeID, diag.Errorf(diag.IdxUndefinedNamespaceSegment, span,
				"namespace segment %q of %q is not declared in %s", seg, name, b.describe(cur))
		}
		cur = next
	}
	id, _ := b.table.Declare(cur, segments[len(segments)-1], kind, span)
	b.cursor = id
	return id, nil
}

// AddFunction parses the parameter list under params (nil when the def has no
// parentheses) and registers the function in the current scope. The cursor
// does not move; call OpenBody for that.
func (b *Builder) AddFunction(name string, params *lexer.Cursor, span source.Span) (symbols.FunctionID, error) {
	fn := &symbols.Function{
		Name:    name,
		Keyword: make(map[string]symbols.Param),
		Returns: b.table.Types.Builtins().Unknown,
		Span:    span,
	}
	if params != nil {
		if err := parseParams(params, b.table.Types, fn); err != nil {
			return symbols.NoFunctionID, err
		}
	}
	return b.table.Register(b.cursor, fn), nil
}

// OpenBody creates (or reuses) the Block scope of fn under its owner, links
// it as fn.Body and moves the cursor into it.
func (b *Builder) OpenBody(id symbols.FunctionID) symbols.ScopeID {
	fn := b.table.Function(id)
	if fn == nil {
		return symbols.NoScopeID
	}
	name := fn.Name
	if existing, ok := b.table.Scope(fn.Owner).Child(name); ok && b.table.Scope(existing).Kind != symbols.ScopeBlock {
		// def Foo рядом с class Foo: тело не должно переоткрыть класс
		name += "()"
	}
	body, _ := b.table.Declare(fn.Owner, name, symbols.ScopeBlock, fn.Span)
	fn.Body = body
	b.cursor = body
	return body
}

// AddVariable records (or overwrites) a variable in the current scope.
func (b *Builder) AddVariable(name string, typ types.TypeID) {
	b.table.SetVar(b.cursor, name, typ)
}

// CloseScope moves the cursor to the parent scope.
func (b *Builder) CloseScope(span source.Span) error {
	if b.AtRoot() {
		return diag.Errorf(diag.IdxUnmatchedClose, span, "end closes nothing: already at the top level")
	}
	b.cursor = b.table.Scope(b.cursor).Parent
	return nil
}

func (b *Builder) describe(id symbols.ScopeID) string {
	if id == b.table.Root {
		return "the top level"
	}
	return b.table.Path(id)
}
