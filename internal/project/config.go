package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrInvalidConfig marks every semantic problem found in strata.toml.
var ErrInvalidConfig = errors.New("invalid config")

// Config mirrors strata.toml.
type Config struct {
	Index IndexConfig `toml:"index"`
	Cache CacheConfig `toml:"cache"`
	Watch WatchConfig `toml:"watch"`
}

// IndexConfig selects files and bounds a run.
type IndexConfig struct {
	Include        []string `toml:"include"`
	Exclude        []string `toml:"exclude"`
	Jobs           int      `toml:"jobs"`
	MaxDiagnostics int      `toml:"max_diagnostics"`
}

// CacheConfig controls the on-disk table cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce Duration `toml:"debounce"`
}

// Duration decodes TOML strings like "200ms".
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no strata.toml exists.
func Default() Config {
	return Config{
		Index: IndexConfig{
			Include:        []string{"**/*.rb"},
			Exclude:        []string{"vendor/**"},
			MaxDiagnostics: 100,
		},
		Cache: CacheConfig{Enabled: true},
		Watch: WatchConfig{Debounce: Duration{200 * time.Millisecond}},
	}
}

// Manifest is a loaded configuration together with where it came from.
// Path is empty when defaults are in effect.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Discover loads explicit when it is set, otherwise searches upward from
// startDir. A missing strata.toml yields defaults rooted at startDir.
func Discover(startDir, explicit string) (*Manifest, error) {
	path := explicit
	if path == "" {
		found, ok, err := FindConfig(startDir)
		if err != nil {
			return nil, err
		}
		if !ok {
			root, err := filepath.Abs(startDir)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve start directory: %w", err)
			}
			if info, statErr := os.Stat(root); statErr == nil && !info.IsDir() {
				root = filepath.Dir(root)
			}
			return &Manifest{Root: root, Config: Default()}, nil
		}
		path = found
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	return &Manifest{Path: abs, Root: filepath.Dir(abs), Config: cfg}, nil
}

// Load parses path on top of Default. Keys absent from the file keep their
// default values; unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: %w: unknown keys %s", path, ErrInvalidConfig, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and compiles every glob once.
func (c Config) Validate() error {
	if c.Index.Jobs < 0 {
		return fmt.Errorf("%w: [index].jobs must be >= 0, got %d", ErrInvalidConfig, c.Index.Jobs)
	}
	if c.Index.MaxDiagnostics < 0 {
		return fmt.Errorf("%w: [index].max_diagnostics must be >= 0, got %d", ErrInvalidConfig, c.Index.MaxDiagnostics)
	}
	if c.Watch.Debounce.Duration < 0 {
		return fmt.Errorf("%w: [watch].debounce must not be negative", ErrInvalidConfig)
	}
	if _, err := NewFilter(c.Index.Include, c.Index.Exclude); err != nil {
		return err
	}
	return nil
}

// CacheDir resolves [cache].dir, falling back to $XDG_CACHE_HOME/strata
// (or ~/.cache/strata). Relative paths are taken from root.
func (c Config) CacheDir(root string) (string, error) {
	if dir := strings.TrimSpace(c.Cache.Dir); dir != "" {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		return dir, nil
	}
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "strata"), nil
}

// Encode renders c as TOML.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDefault creates dir/strata.toml with default settings. An existing
// file is left alone unless force is set.
func WriteDefault(dir string, force bool) (string, error) {
	path := filepath.Join(dir, ConfigName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%s already exists", path)
		}
	}
	data, err := Default().Encode()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
