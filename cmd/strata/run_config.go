package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"strata/internal/driver"
	"strata/internal/project"
)

// runConfig is the manifest of a target merged with command-line overrides.
type runConfig struct {
	manifest *project.Manifest
	target   string // absolute
	isDir    bool
	opts     driver.Options
}

// loadRunConfig discovers strata.toml for target and builds driver options.
// Command flags win over the file: --max-diagnostics, --jobs, --no-cache
// and --timings.
func loadRunConfig(cmd *cobra.Command, target string) (*runConfig, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", target, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %q: %w", target, err)
	}

	explicit, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	manifest, err := project.Discover(abs, explicit)
	if err != nil {
		return nil, err
	}
	cfg := manifest.Config

	if f := cmd.Root().PersistentFlags().Lookup("max-diagnostics"); f != nil && f.Changed {
		if cfg.Index.MaxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
			return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}
	if f := cmd.Flags().Lookup("jobs"); f != nil && f.Changed {
		if cfg.Index.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
			return nil, fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	if f := cmd.Flags().Lookup("no-cache"); f != nil {
		noCache, err := cmd.Flags().GetBool("no-cache")
		if err != nil {
			return nil, fmt.Errorf("failed to get no-cache flag: %w", err)
		}
		if noCache {
			cfg.Cache.Enabled = false
		}
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}

	filter, err := project.NewFilter(cfg.Index.Include, cfg.Index.Exclude)
	if err != nil {
		return nil, err
	}
	rc := &runConfig{
		manifest: manifest,
		target:   abs,
		isDir:    info.IsDir(),
		opts: driver.Options{
			MaxDiagnostics: cfg.Index.MaxDiagnostics,
			Jobs:           cfg.Index.Jobs,
			Filter:         filter,
			Timings:        timings,
		},
	}
	rc.manifest.Config = cfg

	if cfg.Cache.Enabled {
		dir, err := cfg.CacheDir(manifest.Root)
		if err != nil {
			return nil, err
		}
		cache, err := driver.OpenDiskCache(dir)
		if err != nil {
			// кэш не обязателен: работаем без него
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: disk cache disabled: %v\n", err)
		} else {
			rc.opts.Cache = cache
		}
	}
	return rc, nil
}

// run indexes the target: a directory through IndexDir (with the progress
// UI when asked), a single file through IndexFile.
func (rc *runConfig) run(cmd *cobra.Command, title string, mode uiMode) (*driverRun, error) {
	ctx := cmd.Context()
	if !rc.isDir {
		fs := newFileSet(rc.manifest.Root)
		res, err := driver.IndexFile(ctx, fs, rc.target, rc.opts)
		if err != nil {
			return nil, err
		}
		return &driverRun{fs: fs, results: []driver.Result{*res}}, nil
	}
	if shouldUseTUI(mode) && !quiet(cmd) {
		fs, results, err := runIndexDirWithUI(ctx, title, rc.target, rc.opts)
		if err != nil {
			return nil, err
		}
		return &driverRun{fs: fs, results: results}, nil
	}
	fs, results, err := driver.IndexDir(ctx, rc.target, rc.opts)
	if err != nil {
		return nil, err
	}
	return &driverRun{fs: fs, results: results}, nil
}
