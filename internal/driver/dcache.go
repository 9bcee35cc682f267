package driver

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"strata/internal/diag"
	"strata/internal/project"
	"strata/internal/source"
	"strata/internal/symbols"
)

// Current schema version - increment when Payload or symbols.Snapshot changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит результаты индексации по хешу содержимого файла.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Payload is one cached indexing outcome. A failed run is cached too:
// Snapshot is nil and Diagnostics holds the fatal error.
type Payload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Path        string
	Snapshot    *symbols.Snapshot
	Diagnostics []diag.Diagnostic
}

// OpenDiskCache creates dir if needed and returns a cache rooted there.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key project.Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// подкаталог по первому байту, чтобы не держать тысячи файлов в одном
	return filepath.Join(c.dir, "tables", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key project.Digest, payload *Payload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload.Schema = diskCacheSchemaVersion
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache. Entries written
// by another schema version count as misses.
func (c *DiskCache) Get(key project.Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

func cacheKey(file *source.File) project.Digest {
	return project.Combine(project.Digest(file.Hash), []byte("strata-table"), []byte{byte(diskCacheSchemaVersion >> 8), byte(diskCacheSchemaVersion)})
}

// tableToPayload packs a finished run.
func tableToPayload(path string, table *symbols.Table, fatal *diag.Diagnostic) *Payload {
	payload := &Payload{Path: path}
	if table != nil {
		payload.Snapshot = table.Snapshot()
	}
	if fatal != nil {
		payload.Diagnostics = []diag.Diagnostic{*fatal}
	}
	return payload
}

// payloadToTable restores a cached run onto file, rewriting every span so
// that it points at file.ID in the current FileSet.
func payloadToTable(payload *Payload, file source.FileID) (*symbols.Table, []diag.Diagnostic, error) {
	diags := make([]diag.Diagnostic, len(payload.Diagnostics))
	for i, d := range payload.Diagnostics {
		d.Primary.File = file
		notes := make([]diag.Note, len(d.Notes))
		for j, n := range d.Notes {
			n.Span.File = file
			notes[j] = n
		}
		d.Notes = notes
		diags[i] = d
	}
	if payload.Snapshot == nil {
		return nil, diags, nil
	}
	table, err := symbols.FromSnapshot(payload.Snapshot)
	if err != nil {
		return nil, nil, err
	}
	table.SetFile(file)
	return table, diags, nil
}
