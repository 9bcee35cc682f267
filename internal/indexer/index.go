package indexer

import (
	"context"
	"fmt"

	"strata/internal/diag"
	"strata/internal/infer"
	"strata/internal/lexer"
	"strata/internal/source"
	"strata/internal/symbols"
	"strata/internal/trace"
)

// Options configures a single-file indexing run.
type Options struct {
	// Reporter receives non-fatal scanner warnings. May be nil.
	Reporter diag.Reporter
	Hints    symbols.Hints
}

// Index scans file and builds its scope tree. The first structural error
// aborts the run and is returned as a *diag.Error; ctx is checked between
// expressions.
func Index(ctx context.Context, file *source.File, opts Options) (*symbols.Table, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeFile, "index:"+file.Path, trace.CurrentSpan(ctx).SpanID)

	sc := lexer.New(file, lexer.Options{Reporter: opts.Reporter})
	b := NewBuilder(symbols.NewTable(opts.Hints, nil))

	exprs := 0
	for {
		if err := ctx.Err(); err != nil {
			span.End("canceled")
			return nil, err
		}
		expr, err := sc.NextExpression()
		if err != nil {
			span.End(err.Error())
			return nil, err
		}
		trace.Point(tracer, trace.ScopeNode, expr.Kind.String(), expr.Name, span.ID())
		if expr.Kind == lexer.ExprEOF {
			break
		}
		exprs++
		if err := b.Apply(sc, expr); err != nil {
			span.End(err.Error())
			return nil, err
		}
	}

	st := b.table.Stats()
	span.WithExtra("expressions", fmt.Sprint(exprs)).
		WithExtra("scopes", fmt.Sprint(st.Scopes)).
		WithExtra("functions", fmt.Sprint(st.Functions)).
		WithExtra("open", fmt.Sprint(sc.Depth())).
		End("")
	return b.table, nil
}

// Apply feeds one expression into the builder. Assignments read their
// literal straight from the scanner's cursor.
func (b *Builder) Apply(sc *lexer.Scanner, expr lexer.Expression) error {
	switch expr.Kind {
	case lexer.ExprClassOpen:
		id, err := b.OpenNamespace(symbols.ScopeKindOf(expr.Keyword), expr.Name, expr.Span)
		if err != nil {
			return err
		}
		if expr.Super != "" {
			b.table.Scope(id).Super = expr.Super
		}
	case lexer.ExprFnDef:
		var params *lexer.Cursor
		if expr.Params != "" {
			c := lexer.NewCursorSpan(sc.File(), expr.ParamsSpan)
			params = &c
		}
		id, err := b.AddFunction(expr.Name, params, expr.Span)
		if err != nil {
			return err
		}
		if !expr.Endless {
			b.OpenBody(id)
		}
	case lexer.ExprClose:
		if expr.Marker.OpensScope() {
			return b.CloseScope(expr.Span)
		}
	case lexer.ExprAssignment:
		typ, err := infer.Infer(sc.Cursor(), b.table.Types)
		if err != nil {
			return err
		}
		b.AddVariable(expr.Name, typ)
	}
	return nil
}

// IndexSource indexes in-memory content registered in fs under name.
func IndexSource(ctx context.Context, fs *source.FileSet, name string, content []byte, opts Options) (*symbols.Table, *source.File, error) {
	normalized, flags := source.Normalize(content)
	file := fs.Get(fs.Add(name, normalized, flags|source.FileVirtual))
	table, err := Index(ctx, file, opts)
	return table, file, err
}
