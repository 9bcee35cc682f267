package store

import (
	"context"
	"database/sql"
	"errors"

	"strata/internal/diag"
	"strata/internal/source"
	"strata/internal/symbols"
)

// writer holds the prepared statements of one export transaction.
type writer struct {
	ctx   context.Context
	runID string
	fs    *source.FileSet

	file, scope, function, param, variable *sql.Stmt
}

func newWriter(ctx context.Context, tx *sql.Tx, runID string, fs *source.FileSet) (*writer, error) {
	w := &writer{ctx: ctx, runID: runID, fs: fs}
	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&w.file, `INSERT INTO files (run_id, file_id, path, failed, error) VALUES (?, ?, ?, ?, ?)`},
		{&w.scope, `INSERT INTO scopes (run_id, file_id, scope_id, parent_id, name, kind, path, super, line) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`},
		{&w.function, `INSERT INTO functions (run_id, file_id, function_id, scope_id, name, body_id, line) VALUES (?, ?, ?, ?, ?, ?, ?)`},
		{&w.param, `INSERT INTO params (run_id, file_id, function_id, position, name, kind, type, default_type) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`},
		{&w.variable, `INSERT INTO variables (run_id, file_id, scope_id, position, name, type) VALUES (?, ?, ?, ?, ?, ?)`},
	}
	for _, s := range stmts {
		stmt, err := tx.PrepareContext(ctx, s.query)
		if err != nil {
			w.close()
			return nil, err
		}
		*s.dst = stmt
	}
	return w, nil
}

func (w *writer) close() {
	for _, s := range []*sql.Stmt{w.file, w.scope, w.function, w.param, w.variable} {
		if s != nil {
			_ = s.Close()
		}
	}
}

func (w *writer) line(sp source.Span) sql.NullInt64 {
	if w.fs == nil || w.fs.Get(sp.File) == nil {
		return sql.NullInt64{}
	}
	start, _ := w.fs.Resolve(sp)
	return sql.NullInt64{Int64: int64(start.Line), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (w *writer) writeFile(fileID int, r FileRecord) error {
	failed := r.Table == nil
	var msg string
	if failed {
		msg = firstError(r.Diagnostics)
	}
	if _, err := w.file.ExecContext(w.ctx, w.runID, fileID, r.Path, failed, nullString(msg)); err != nil {
		return err
	}
	if failed {
		return nil
	}

	t := r.Table
	var errs []error
	t.Walk(func(id symbols.ScopeID, _ int) {
		s := t.Scope(id)
		parent := sql.NullInt64{Int64: int64(s.Parent), Valid: s.Parent.IsValid()}
		var line sql.NullInt64
		if id != t.Root {
			line = w.line(s.Span)
		}
		_, err := w.scope.ExecContext(w.ctx, w.runID, fileID, int64(id), parent, s.Name, s.Kind.String(), t.Path(id), nullString(s.Super), line)
		errs = append(errs, err)

		for i, name := range s.VarOrder {
			_, err := w.variable.ExecContext(w.ctx, w.runID, fileID, int64(id), i, name, t.Types.String(s.Vars[name]))
			errs = append(errs, err)
		}
		for _, fid := range s.Functions {
			errs = append(errs, w.writeFunction(fileID, id, fid, t))
		}
	})
	return errors.Join(errs...)
}

func (w *writer) writeFunction(fileID int, owner symbols.ScopeID, fid symbols.FunctionID, t *symbols.Table) error {
	fn := t.Function(fid)
	body := sql.NullInt64{Int64: int64(fn.Body), Valid: fn.Body.IsValid()}
	if _, err := w.function.ExecContext(w.ctx, w.runID, fileID, int64(fid), int64(owner), fn.Name, body, w.line(fn.Span)); err != nil {
		return err
	}

	pos := 0
	add := func(name, kind string, p *symbols.Param) error {
		var typ, def sql.NullString
		if p != nil {
			typ = nullString(t.Types.String(p.Type))
			if p.HasDefault() {
				def = nullString(t.Types.String(*p.Default))
			}
		}
		_, err := w.param.ExecContext(w.ctx, w.runID, fileID, int64(fid), pos, name, kind, typ, def)
		pos++
		return err
	}
	var errs []error
	for i := range fn.Positional {
		errs = append(errs, add(fn.Positional[i].Name, "positional", &fn.Positional[i]))
	}
	if fn.Rest != "" {
		errs = append(errs, add(fn.Rest, "rest", nil))
	}
	for _, p := range fn.KeywordParams() {
		errs = append(errs, add(p.Name, "keyword", &p))
	}
	if fn.KeywordRest != "" {
		errs = append(errs, add(fn.KeywordRest, "keyword_rest", nil))
	}
	if fn.Block != "" {
		errs = append(errs, add(fn.Block, "block", nil))
	}
	return errors.Join(errs...)
}

func firstError(diags []diag.Diagnostic) string {
	for _, d := range diags {
		if d.Severity == diag.SevError {
			return d.Code.ID() + ": " + d.Message
		}
	}
	return "failed"
}
