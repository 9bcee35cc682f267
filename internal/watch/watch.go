// Package watch re-indexes files as they change on disk and reports how
// their scope trees moved.
package watch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"

	"strata/internal/diagfmt"
	"strata/internal/driver"
	"strata/internal/project"
	"strata/internal/source"
)

const (
	// DefaultDebounce is used when Options.Debounce is zero.
	DefaultDebounce = 200 * time.Millisecond
	// DefaultTreeCache bounds the number of remembered trees.
	DefaultTreeCache = 512
)

// ErrNotDirectory is returned by New when the root is not a directory.
var ErrNotDirectory = errors.New("watch root is not a directory")

// Options configures a Watcher.
type Options struct {
	Root      string
	Filter    *project.Filter // nil selects every *.rb file
	Debounce  time.Duration
	TreeCache int
	Index     driver.Options
	// OnError receives fsnotify errors. May be nil.
	OnError func(error)
}

// Change describes one re-indexed file.
type Change struct {
	// Path is slash-separated and relative to the root.
	Path    string
	Removed bool
	// Result and FileSet are nil for removed files.
	Result  *driver.Result
	FileSet *source.FileSet
	// Diff is a unified diff of the rendered scope tree; empty when the
	// tree did not change or the new version failed to index.
	Diff string
}

// Watcher watches a directory tree recursively.
type Watcher struct {
	opts  Options
	root  string
	fsw   *fsnotify.Watcher
	trees *lru.Cache[string, []byte]

	// reindex сериализует индексацию: Reindex зовётся и из Run, и из тестов
	reindex sync.Mutex

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool

	queue    chan string
	done     chan struct{}
	stopOnce sync.Once
}

// New validates the root and opens an fsnotify watcher. Nothing is watched
// until Run.
func New(opts Options) (*Watcher, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}
	if opts.Filter == nil {
		if opts.Filter, err = project.NewFilter(nil, nil); err != nil {
			return nil, err
		}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.TreeCache <= 0 {
		opts.TreeCache = DefaultTreeCache
	}
	trees, err := lru.New[string, []byte](opts.TreeCache)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		opts:    opts,
		root:    root,
		fsw:     fsw,
		trees:   trees,
		pending: make(map[string]*time.Timer),
		queue:   make(chan string, 64),
		done:    make(chan struct{}),
	}, nil
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string { return w.root }

// Prime remembers the trees of an initial IndexDir run so the first change
// of every file diffs against them.
func (w *Watcher) Prime(fs *source.FileSet, results []driver.Result) {
	for i := range results {
		r := &results[i]
		if r.Failed() {
			continue
		}
		rel, ok := w.rel(r.Path)
		if !ok {
			continue
		}
		w.trees.Add(rel, render(rel, r, fs))
	}
}

// Run watches until ctx is canceled or Close is called, sending one Change
// per debounced modification to out. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context, out chan<- Change) error {
	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if w.opts.OnError != nil {
				w.opts.OnError(err)
			}
		case rel := <-w.queue:
			change, err := w.Reindex(ctx, rel)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Close stops pending timers and releases the fsnotify watcher.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		for path, t := range w.pending {
			t.Stop()
			delete(w.pending, path)
		}
		w.mu.Unlock()
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}

// Reindex indexes rel afresh and diffs its tree against the remembered one.
// A missing file yields a Removed change.
func (w *Watcher) Reindex(ctx context.Context, rel string) (Change, error) {
	w.reindex.Lock()
	defer w.reindex.Unlock()

	abs := filepath.Join(w.root, filepath.FromSlash(rel))
	before, _ := w.trees.Get(rel)

	if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
		w.trees.Remove(rel)
		diff, err := diagfmt.DiffTrees(before, nil, "a/"+rel, "b/"+rel)
		if err != nil {
			return Change{}, err
		}
		return Change{Path: rel, Removed: true, Diff: diff}, nil
	}

	fileSet := source.NewFileSetWithBase(w.root)
	res, err := driver.IndexFile(ctx, fileSet, abs, w.opts.Index)
	if err != nil {
		return Change{}, err
	}
	change := Change{Path: rel, Result: res, FileSet: fileSet}
	if res.Failed() {
		return change, nil
	}
	after := render(rel, res, fileSet)
	w.trees.Add(rel, after)
	if change.Diff, err = diagfmt.DiffTrees(before, after, "a/"+rel, "b/"+rel); err != nil {
		return Change{}, err
	}
	return change, nil
}

func render(rel string, r *driver.Result, fs *source.FileSet) []byte {
	tree := diagfmt.BuildTree(r.Table, fs.Get(r.FileID), fs, diagfmt.TreeOpts{})
	tree.File = rel
	var buf bytes.Buffer
	// bytes.Buffer не возвращает ошибок записи
	_ = diagfmt.WriteTree(&buf, tree, diagfmt.TreePretty, diagfmt.TreeOpts{})
	return buf.Bytes()
}

func (w *Watcher) rel(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(w.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) handle(ev fsnotify.Event) {
	rel, ok := w.rel(ev.Name)
	if !ok {
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !w.opts.Filter.Excluded(rel) {
				_ = w.addRecursive(ev.Name)
			}
			return
		}
	}
	if ev.Op == fsnotify.Chmod || !w.opts.Filter.Match(rel) {
		return
	}
	w.schedule(rel)
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != w.root {
			rel, ok := w.rel(path)
			if !ok || strings.HasPrefix(d.Name(), ".") || w.opts.Filter.Excluded(rel) {
				return filepath.SkipDir
			}
		}
		return w.fsw.Add(path)
	})
}

// schedule (re)arms the debounce timer of rel.
func (w *Watcher) schedule(rel string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.pending[rel]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		ok := w.claimLocked(rel, timer)
		w.mu.Unlock()
		if !ok {
			return
		}
		select {
		case w.queue <- rel:
		case <-w.done:
		}
	})
	w.pending[rel] = timer
}

// claimLocked removes timer from pending and reports whether it should
// deliver rel. A timer whose Stop lost the race against its own firing finds
// a newer timer in pending and delivers nothing. w.mu must be held.
func (w *Watcher) claimLocked(rel string, timer *time.Timer) bool {
	if w.stopped || w.pending[rel] != timer {
		return false
	}
	delete(w.pending, rel)
	return true
}
