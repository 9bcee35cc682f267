package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/diag"
	"strata/internal/indexer"
	"strata/internal/source"
)

const shopSource = `class Shop
  NAME = "s"
  class Cart < Base
    def add(item, qty = 1, *rest, note:, **opts, &blk)
      total = 0
    end
  end
end
`

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "strata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func shopRecord(t *testing.T, fs *source.FileSet) FileRecord {
	t.Helper()
	table, file, err := indexer.IndexSource(context.Background(), fs, "shop.rb", []byte(shopSource), indexer.Options{})
	require.NoError(t, err)
	return FileRecord{Path: file.Path, FileID: file.ID, Table: table}
}

func TestExportCounts(t *testing.T) {
	s := openTemp(t)
	fs := source.NewFileSet()
	broken := FileRecord{
		Path: "broken.rb",
		Diagnostics: []diag.Diagnostic{
			diag.New(diag.SevError, diag.IdxUnmatchedClose, source.Span{}, "unexpected end"),
		},
	}

	runID, err := s.Export(context.Background(), "/proj", fs, []FileRecord{shopRecord(t, fs), broken})
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	c, err := s.Counts(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, Counts{Files: 2, Scopes: 4, Functions: 1, Params: 6, Variables: 2}, c)

	runs, err := s.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "/proj", runs[0].Root)
	assert.Equal(t, 2, runs[0].Files)
	assert.Equal(t, 1, runs[0].Failed)
}

func TestExportRows(t *testing.T) {
	s := openTemp(t)
	fs := source.NewFileSet()
	runID, err := s.Export(context.Background(), ".", fs, []FileRecord{shopRecord(t, fs)})
	require.NoError(t, err)

	var path, kind string
	var super sql.NullString
	var line int
	err = s.db.QueryRow(`SELECT path, kind, super, line FROM scopes WHERE run_id = ? AND name = 'Cart'`, runID).
		Scan(&path, &kind, &super, &line)
	require.NoError(t, err)
	assert.Equal(t, "Shop::Cart", path)
	assert.Equal(t, "class", kind)
	assert.Equal(t, "Base", super.String)
	assert.Equal(t, 3, line)

	rows, err := s.db.Query(`SELECT name, kind, default_type FROM params WHERE run_id = ? ORDER BY position`, runID)
	require.NoError(t, err)
	defer rows.Close()
	var got []string
	for rows.Next() {
		var name, kind string
		var def sql.NullString
		require.NoError(t, rows.Scan(&name, &kind, &def))
		entry := kind + ":" + name
		if def.Valid {
			entry += "=" + def.String
		}
		got = append(got, entry)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{
		"positional:item",
		"positional:qty=Integer",
		"rest:rest",
		"keyword:note",
		"keyword_rest:opts",
		"block:blk",
	}, got)

	var typ string
	err = s.db.QueryRow(`SELECT type FROM variables WHERE run_id = ? AND name = 'total'`, runID).Scan(&typ)
	require.NoError(t, err)
	assert.Equal(t, "Integer", typ)

	var msg sql.NullString
	err = s.db.QueryRow(`SELECT error FROM files WHERE run_id = ?`, runID).Scan(&msg)
	require.NoError(t, err)
	assert.False(t, msg.Valid)
}

func TestRunsAreIndependent(t *testing.T) {
	s := openTemp(t)
	fs := source.NewFileSet()
	first, err := s.Export(context.Background(), ".", fs, []FileRecord{shopRecord(t, fs)})
	require.NoError(t, err)
	second, err := s.Export(context.Background(), ".", fs, []FileRecord{shopRecord(t, fs)})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	require.NoError(t, s.DeleteRun(context.Background(), first))
	_, err = s.Counts(context.Background(), first)
	assert.ErrorIs(t, err, ErrUnknownRun)

	c, err := s.Counts(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Scopes)

	var orphans int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM scopes WHERE run_id = ?`, first).Scan(&orphans))
	assert.Zero(t, orphans)

	assert.ErrorIs(t, s.DeleteRun(context.Background(), first), ErrUnknownRun)
}

func TestExportHonorsCancellation(t *testing.T) {
	s := openTemp(t)
	fs := source.NewFileSet()
	rec := shopRecord(t, fs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Export(ctx, ".", fs, []FileRecord{rec})
	require.Error(t, err)

	runs, err := s.Runs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}
