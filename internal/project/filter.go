package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Filter decides which files under a root get indexed. Patterns use `/` as
// separator and are matched against slash-separated relative paths.
type Filter struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewFilter compiles include and exclude patterns. An empty include list
// matches every *.rb file.
func NewFilter(include, exclude []string) (*Filter, error) {
	if len(include) == 0 {
		include = []string{"**/*.rb"}
	}
	f := &Filter{}
	var err error
	if f.include, err = compileAll(include); err != nil {
		return nil, err
	}
	if f.exclude, err = compileAll(exclude); err != nil {
		return nil, err
	}
	return f, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("%w: bad glob %q: %v", ErrInvalidConfig, p, err)
		}
		out = append(out, g)
		// `**/x` должен цеплять и файлы в корне
		if rest, ok := strings.CutPrefix(p, "**/"); ok {
			g, err := glob.Compile(rest, '/')
			if err != nil {
				return nil, fmt.Errorf("%w: bad glob %q: %v", ErrInvalidConfig, p, err)
			}
			out = append(out, g)
		}
	}
	return out, nil
}

// Match reports whether the slash-separated relative path rel is selected.
func (f *Filter) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	return matchAny(f.include, rel) && !matchAny(f.exclude, rel)
}

// Excluded reports whether rel (a file or a directory) hits an exclude pattern.
func (f *Filter) Excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	return matchAny(f.exclude, rel) || matchAny(f.exclude, rel+"/")
}

func matchAny(globs []glob.Glob, s string) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}

// Collect walks root and returns the sorted absolute paths of matching files.
// A single-file root is returned as is.
func (f *Filter) Collect(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if rel != "." && (strings.HasPrefix(d.Name(), ".") || f.Excluded(rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if f.Match(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
