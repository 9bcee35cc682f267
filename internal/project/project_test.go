package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigName), `
[index]
exclude = ["gen/**"]
jobs = 3

[watch]
debounce = "50ms"
`)
	nested := filepath.Join(root, "lib", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	m, err := Discover(nested, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ConfigName), m.Path)
	assert.Equal(t, root, m.Root)
	assert.Equal(t, 3, m.Config.Index.Jobs)
	assert.Equal(t, []string{"gen/**"}, m.Config.Index.Exclude)
	assert.Equal(t, 50*time.Millisecond, m.Config.Watch.Debounce.Duration)

	// untouched keys keep defaults
	assert.Equal(t, []string{"**/*.rb"}, m.Config.Index.Include)
	assert.Equal(t, 100, m.Config.Index.MaxDiagnostics)
	assert.True(t, m.Config.Cache.Enabled)
}

func TestDiscoverWithoutConfigUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	m, err := Discover(dir, "")
	require.NoError(t, err)
	assert.Empty(t, m.Path)
	assert.Equal(t, Default(), m.Config)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	cases := map[string]string{
		"unknown key":  "[index]\nsurprise = 1\n",
		"bad glob":     "[index]\ninclude = [\"[a-\"]\n",
		"negative job": "[index]\njobs = -1\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigName)
			writeFile(t, path, content)
			_, err := Load(path)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	path := filepath.Join(t.TempDir(), ConfigName)
	writeFile(t, path, "[index\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteDefault(dir, false)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = WriteDefault(dir, false)
	require.Error(t, err, "existing config must not be overwritten")
	_, err = WriteDefault(dir, true)
	require.NoError(t, err)
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	cfg := Default()
	dir, err := cfg.CacheDir("/proj")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "strata"), dir)

	cfg.Cache.Dir = ".cache/idx"
	dir, err = cfg.CacheDir("/proj")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/proj", ".cache/idx"), dir)
}

func TestFilterMatch(t *testing.T) {
	f, err := NewFilter([]string{"**/*.rb"}, []string{"vendor/**", "**/*_spec.rb"})
	require.NoError(t, err)

	tests := map[string]bool{
		"a.rb":               true,
		"lib/a.rb":           true,
		"lib/deep/b.rb":      true,
		"lib/a.py":           false,
		"vendor/gem/x.rb":    false,
		"spec/model_spec.rb": false,
		"model_spec.rb":      false,
	}
	for path, want := range tests {
		assert.Equal(t, want, f.Match(path), path)
	}
}

func TestFilterCollect(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"b.rb", "lib/a.rb", "lib/notes.txt", "vendor/x.rb", ".git/hooks.rb"} {
		writeFile(t, filepath.Join(root, p), "x = 1\n")
	}
	f, err := NewFilter(nil, []string{"vendor/**"})
	require.NoError(t, err)

	files, err := f.Collect(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "b.rb"),
		filepath.Join(root, "lib", "a.rb"),
	}, files)

	single, err := f.Collect(filepath.Join(root, "lib", "notes.txt"))
	require.NoError(t, err)
	assert.Len(t, single, 1, "an explicit file is always taken")
}

func TestCombineIsOrderSensitive(t *testing.T) {
	var d Digest
	d[0] = 1
	assert.NotEqual(t, Combine(d, []byte("a"), []byte("b")), Combine(d, []byte("b"), []byte("a")))
	assert.Equal(t, Combine(d, []byte("a")), Combine(d, []byte("a")))
}
