package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strata/internal/driver"
	"strata/internal/project"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func primed(t *testing.T, files map[string]string) (*Watcher, string) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		write(t, root, rel, content)
	}
	w, err := New(Options{Root: root, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	fs, results, err := driver.IndexDir(context.Background(), root, driver.Options{})
	require.NoError(t, err)
	w.Prime(fs, results)
	return w, root
}

func TestReindexDiffsAgainstPrimedTree(t *testing.T) {
	w, root := primed(t, map[string]string{"lib/a.rb": "class A\nend\n"})

	write(t, root, "lib/a.rb", "class A\n  def extra\n  end\nend\n")
	change, err := w.Reindex(context.Background(), "lib/a.rb")
	require.NoError(t, err)

	assert.Equal(t, "lib/a.rb", change.Path)
	assert.False(t, change.Removed)
	require.NotNil(t, change.Result)
	assert.False(t, change.Result.Failed())
	assert.Contains(t, change.Diff, "--- a/lib/a.rb")
	assert.Contains(t, change.Diff, "+    def extra()")
	assert.Contains(t, change.Diff, "-(1 scopes, 0 functions, 0 variables)")

	again, err := w.Reindex(context.Background(), "lib/a.rb")
	require.NoError(t, err)
	assert.Empty(t, again.Diff)
}

func TestReindexRemovedFile(t *testing.T) {
	w, root := primed(t, map[string]string{"a.rb": "module M\nend\n"})

	require.NoError(t, os.Remove(filepath.Join(root, "a.rb")))
	change, err := w.Reindex(context.Background(), "a.rb")
	require.NoError(t, err)
	assert.True(t, change.Removed)
	assert.Nil(t, change.Result)
	assert.Contains(t, change.Diff, "-  module M")

	_, ok := w.trees.Get("a.rb")
	assert.False(t, ok)
}

func TestFailedReindexKeepsPreviousTree(t *testing.T) {
	w, root := primed(t, map[string]string{"a.rb": "class A\nend\n"})

	write(t, root, "a.rb", "class A\nend\nend\n")
	broken, err := w.Reindex(context.Background(), "a.rb")
	require.NoError(t, err)
	require.True(t, broken.Result.Failed())
	assert.Empty(t, broken.Diff)
	assert.Error(t, broken.Result.Err())

	write(t, root, "a.rb", "class B\nend\n")
	fixed, err := w.Reindex(context.Background(), "a.rb")
	require.NoError(t, err)
	assert.Contains(t, fixed.Diff, "-  class A")
	assert.Contains(t, fixed.Diff, "+  class B")
}

func TestNewRejectsFileRoot(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.rb", "")
	_, err := New(Options{Root: filepath.Join(root, "a.rb")})
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestRunReportsDebouncedChanges(t *testing.T) {
	filter, err := project.NewFilter(nil, []string{"vendor/**"})
	require.NoError(t, err)

	root := t.TempDir()
	write(t, root, "lib/a.rb", "class A\nend\n")
	write(t, root, "vendor/v.rb", "class V\nend\n")
	w, err := New(Options{Root: root, Filter: filter, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Change, 8)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, out) }()

	// Run регистрирует каталоги асинхронно; пишем, пока не придёт событие
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	var got Change
wait:
	for {
		select {
		case got = <-out:
			break wait
		case <-tick.C:
			write(t, root, "README.md", "ignored\n")
			write(t, root, "vendor/v.rb", "class V2\nend\n")
			write(t, root, "lib/a.rb", "class A\n  X = 1\nend\n")
		case <-deadline:
			t.Fatal("no change reported")
		}
	}

	assert.Equal(t, "lib/a.rb", got.Path)
	require.NotNil(t, got.Result)
	assert.False(t, got.Result.Failed())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestSupersededTimerKeepsNewEntry(t *testing.T) {
	root := t.TempDir()
	w, err := New(Options{Root: root, Debounce: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	w.schedule("a.rb")
	w.mu.Lock()
	old := w.pending["a.rb"]
	w.mu.Unlock()
	w.schedule("a.rb")

	w.mu.Lock()
	current := w.pending["a.rb"]
	require.NotSame(t, old, current)
	assert.False(t, w.claimLocked("a.rb", old), "stale timer must not deliver")
	assert.Same(t, current, w.pending["a.rb"], "stale timer removed the fresh entry")
	assert.True(t, w.claimLocked("a.rb", current))
	assert.NotContains(t, w.pending, "a.rb")
	w.mu.Unlock()
	current.Stop()
}
