package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/diag"
	"strata/internal/lexer"
	"strata/internal/project"
	"strata/internal/source"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}

var sampleTree = map[string]string{
	"app/user.rb":  "class User\n  def initialize(name, admin: false)\n    @name = name\n  end\nend\n",
	"lib/util.rb":  "module Util\n  VERSION = \"1.0\"\n  def self.helper; end\nend\n",
	"lib/bad.rb":   "class Broken\nend\nend\n",
	"README.md":    "# not ruby\n",
	"vendor/x.rb":  "class Vendored\nend\n",
	"lib/empty.rb": "",
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) finished() map[string]Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Status)
	for _, ev := range s.events {
		if ev.Finished() {
			out[filepath.Base(ev.File)] = ev.Status
		}
	}
	return out
}

func TestIndexDir(t *testing.T) {
	root := writeTree(t, sampleTree)
	sink := &recordingSink{}

	fs, results, err := IndexDir(context.Background(), root, Options{MaxDiagnostics: 10, Jobs: 2, Progress: sink})
	require.NoError(t, err)
	require.NotNil(t, fs)
	require.Len(t, results, 5, "README.md is filtered out, vendor/ is not excluded without a filter")

	byName := make(map[string]*Result)
	for i := range results {
		byName[filepath.Base(results[i].Path)] = &results[i]
	}

	user := byName["user.rb"]
	require.False(t, user.Failed())
	id, ok := user.Table.Resolve(user.Table.Root, "User")
	require.True(t, ok)
	_, ok = user.Table.Scope(id).Function("initialize")
	assert.True(t, ok)

	bad := byName["bad.rb"]
	require.True(t, bad.Failed())
	require.ErrorIs(t, bad.Err(), diag.IdxUnmatchedClose)
	assert.Equal(t, bad.FileID, bad.Bag.Items()[0].Primary.File)

	assert.False(t, byName["empty.rb"].Failed())

	sum := Summarize(results)
	assert.Equal(t, 5, sum.Files)
	assert.Equal(t, 1, sum.Failed)

	statuses := sink.finished()
	assert.Equal(t, StatusError, statuses["bad.rb"])
	assert.Equal(t, StatusDone, statuses["user.rb"])
}

func TestIndexDirHonorsFilter(t *testing.T) {
	root := writeTree(t, sampleTree)
	filter, err := project.NewFilter(nil, []string{"vendor/**"})
	require.NoError(t, err)

	_, results, err := IndexDir(context.Background(), root, Options{MaxDiagnostics: 10, Filter: filter})
	require.NoError(t, err)
	for _, r := range results {
		assert.NotContains(t, r.Path, "vendor")
	}
	assert.Len(t, results, 4)
}

func TestIndexDirCanceled(t *testing.T) {
	root := writeTree(t, sampleTree)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := IndexDir(ctx, root, Options{MaxDiagnostics: 10})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDiskCacheRoundTrip(t *testing.T) {
	root := writeTree(t, sampleTree)
	cache, err := OpenDiskCache(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	opts := Options{MaxDiagnostics: 10, Cache: cache}

	_, first, err := IndexDir(context.Background(), root, opts)
	require.NoError(t, err)
	for _, r := range first {
		assert.False(t, r.Cached, r.Path)
	}

	_, second, err := IndexDir(context.Background(), root, opts)
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range second {
		r := &second[i]
		assert.True(t, r.Cached, r.Path)
		assert.Equal(t, first[i].Failed(), r.Failed(), r.Path)
		if r.Failed() {
			require.ErrorIs(t, r.Err(), diag.IdxUnmatchedClose)
			continue
		}
		assert.Equal(t, first[i].Table.Stats(), r.Table.Stats(), r.Path)
		require.NoError(t, r.Table.Validate())
	}

	require.NoError(t, cache.DropAll())
	_, third, err := IndexDir(context.Background(), root, opts)
	require.NoError(t, err)
	assert.False(t, third[0].Cached)
}

func TestCachedSpansPointAtNewFile(t *testing.T) {
	root := writeTree(t, map[string]string{"a.rb": "class A\n  def f(x)\n  end\nend\n"})
	cache, err := OpenDiskCache(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	path := filepath.Join(root, "a.rb")

	fs := source.NewFileSet()
	fs.AddVirtual("padding.rb", nil)
	first, err := IndexFile(context.Background(), fs, path, Options{MaxDiagnostics: 10, Cache: cache})
	require.NoError(t, err)
	require.False(t, first.Cached)

	fresh := source.NewFileSet()
	second, err := IndexFile(context.Background(), fresh, path, Options{MaxDiagnostics: 10, Cache: cache})
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.NotEqual(t, first.FileID, second.FileID)

	id, ok := second.Table.Resolve(second.Table.Root, "A")
	require.True(t, ok)
	assert.Equal(t, second.FileID, second.Table.Scope(id).Span.File)
}

func TestIndexFileMissing(t *testing.T) {
	res, err := IndexFile(context.Background(), source.NewFileSet(), filepath.Join(t.TempDir(), "nope.rb"), Options{MaxDiagnostics: 5})
	require.NoError(t, err)
	require.True(t, res.Failed())
	require.ErrorIs(t, res.Err(), diag.IOLoadFileError)
}

func TestTimingsDiagnostic(t *testing.T) {
	root := writeTree(t, map[string]string{"a.rb": "x = 1\n"})
	res, err := IndexFile(context.Background(), source.NewFileSet(), filepath.Join(root, "a.rb"), Options{MaxDiagnostics: 1, Timings: true})
	require.NoError(t, err)
	items := res.Bag.Items()
	require.Len(t, items, 1)
	assert.Equal(t, diag.ObsTimings, items[0].Code)
	assert.Contains(t, items[0].Notes[0].Msg, `"phases"`)
}

func TestScan(t *testing.T) {
	root := writeTree(t, map[string]string{"s.rb": "class A\n  x = [1]\nend\n"})
	res, err := Scan(context.Background(), source.NewFileSet(), filepath.Join(root, "s.rb"), 10)
	require.NoError(t, err)

	kinds := make([]lexer.ExprKind, 0, len(res.Items))
	for _, it := range res.Items {
		kinds = append(kinds, it.Expr.Kind)
	}
	assert.Equal(t, []lexer.ExprKind{lexer.ExprClassOpen, lexer.ExprAssignment, lexer.ExprClose, lexer.ExprEOF}, kinds)
	assert.Equal(t, "Array<Unknown>", res.Types.String(res.Items[1].Type))
}
