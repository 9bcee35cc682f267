// Package store exports indexing results into a SQLite database.
//
// Every export is a run identified by a UUID; rows of all tables carry the
// run id so several runs can live side by side and be compared with SQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"strata/internal/diag"
	"strata/internal/source"
	"strata/internal/symbols"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	root       TEXT NOT NULL,
	started_at TEXT NOT NULL,
	files      INTEGER NOT NULL DEFAULT 0,
	failed     INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS files (
	run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	file_id INTEGER NOT NULL,
	path    TEXT NOT NULL,
	failed  INTEGER NOT NULL,
	error   TEXT,
	PRIMARY KEY (run_id, file_id)
);
CREATE TABLE IF NOT EXISTS scopes (
	run_id    TEXT NOT NULL,
	file_id   INTEGER NOT NULL,
	scope_id  INTEGER NOT NULL,
	parent_id INTEGER,
	name      TEXT NOT NULL,
	kind      TEXT NOT NULL,
	path      TEXT NOT NULL,
	super     TEXT,
	line      INTEGER,
	PRIMARY KEY (run_id, file_id, scope_id),
	FOREIGN KEY (run_id, file_id) REFERENCES files(run_id, file_id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS functions (
	run_id      TEXT NOT NULL,
	file_id     INTEGER NOT NULL,
	function_id INTEGER NOT NULL,
	scope_id    INTEGER NOT NULL,
	name        TEXT NOT NULL,
	body_id     INTEGER,
	line        INTEGER,
	PRIMARY KEY (run_id, file_id, function_id),
	FOREIGN KEY (run_id, file_id) REFERENCES files(run_id, file_id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS params (
	run_id       TEXT NOT NULL,
	file_id      INTEGER NOT NULL,
	function_id  INTEGER NOT NULL,
	position     INTEGER NOT NULL,
	name         TEXT NOT NULL,
	kind         TEXT NOT NULL,
	type         TEXT,
	default_type TEXT,
	PRIMARY KEY (run_id, file_id, function_id, position),
	FOREIGN KEY (run_id, file_id) REFERENCES files(run_id, file_id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS variables (
	run_id   TEXT NOT NULL,
	file_id  INTEGER NOT NULL,
	scope_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	name     TEXT NOT NULL,
	type     TEXT NOT NULL,
	PRIMARY KEY (run_id, file_id, scope_id, position),
	FOREIGN KEY (run_id, file_id) REFERENCES files(run_id, file_id) ON DELETE CASCADE
);
`

// ErrUnknownRun is returned for run ids that are not in the database.
var ErrUnknownRun = errors.New("unknown run")

// Store is an open export database.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates (or opens) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// один писатель: sqlite всё равно сериализует запись
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// FileRecord is one indexed file handed to Export. Table is nil for files
// that failed; Diagnostics then explains why.
type FileRecord struct {
	Path        string
	FileID      source.FileID
	Table       *symbols.Table
	Diagnostics []diag.Diagnostic
}

// Run summarizes one export.
type Run struct {
	ID        string
	Root      string
	StartedAt time.Time
	Files     int
	Failed    int
}

// Export writes records as a new run inside a single transaction and
// returns the run id.
func (s *Store) Export(ctx context.Context, root string, fs *source.FileSet, records []FileRecord) (string, error) {
	runID := uuid.New().String()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	failed := 0
	for _, r := range records {
		if r.Table == nil {
			failed++
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, root, started_at, files, failed) VALUES (?, ?, ?, ?, ?)`,
		runID, root, time.Now().UTC().Format(time.RFC3339Nano), len(records), failed); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	w, err := newWriter(ctx, tx, runID, fs)
	if err != nil {
		return "", err
	}
	defer w.close()

	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := w.writeFile(i+1, r); err != nil {
			return "", fmt.Errorf("export %s: %w", r.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

// Runs lists exports, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, root, started_at, files, failed FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &r.Root, &started, &r.Files, &r.Failed); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s: bad timestamp: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Counts is the number of rows a run owns in each table.
type Counts struct {
	Files, Scopes, Functions, Params, Variables int
}

// Counts returns row counts for runID.
func (s *Store) Counts(ctx context.Context, runID string) (Counts, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return Counts{}, err
	}
	if exists == 0 {
		return Counts{}, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	var c Counts
	targets := []struct {
		table string
		dst   *int
	}{
		{"files", &c.Files},
		{"scopes", &c.Scopes},
		{"functions", &c.Functions},
		{"params", &c.Params},
		{"variables", &c.Variables},
	}
	for _, t := range targets {
		// имя таблицы из фиксированного списка выше
		q := "SELECT COUNT(*) FROM " + t.table + " WHERE run_id = ?"
		if err := s.db.QueryRowContext(ctx, q, runID).Scan(t.dst); err != nil {
			return Counts{}, err
		}
	}
	return c, nil
}

// DeleteRun removes a run and every row that belongs to it.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return nil
}
