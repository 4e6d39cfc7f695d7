package oracle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"erlfix/internal/project"
)

// Current schema version - increment when cachePayload format changes
const cacheSchemaVersion uint16 = 1

// DiskCache хранит результаты тайпчекера по хешу содержимого файла.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

type cachePayload struct {
	Schema      uint16
	Path        string
	Diagnostics []wireDiagnostic
}

// DefaultCacheDir is $XDG_CACHE_HOME/<app>, falling back to ~/.cache/<app>.
func DefaultCacheDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// OpenDiskCache creates dir if needed.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// CacheKey identifies one checker run: the file path and its exact content.
func CacheKey(path string, content []byte) project.Digest {
	return project.FileKey(path, content)
}

func (c *DiskCache) pathFor(key project.Digest) string {
	hexKey := key.String()
	// подкаталог по первым двум символам, чтобы не раздувать один каталог
	return filepath.Join(c.dir, "oracle", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes findings under key.
func (c *DiskCache) Put(key project.Digest, path string, ds []Diagnostic) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

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

	payload := cachePayload{Schema: cacheSchemaVersion, Path: path, Diagnostics: toWire(ds)}
	if err = msgpack.NewEncoder(f).Encode(&payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads findings stored under key. A missing entry or one written by
// another schema is a miss.
func (c *DiskCache) Get(key project.Digest) ([]Diagnostic, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload cachePayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, err
	}
	if payload.Schema != cacheSchemaVersion {
		return nil, false, nil
	}
	ds, err := fromWire(payload.Diagnostics)
	if err != nil {
		return nil, false, err
	}
	return ds, true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "oracle"))
}

// CachedChecker answers from the cache when the same content was checked
// before, and runs Next otherwise.
type CachedChecker struct {
	Next  Checker
	Cache *DiskCache
}

func (c *CachedChecker) Check(ctx context.Context, path string, content []byte) ([]Diagnostic, error) {
	key := CacheKey(path, content)
	if ds, ok, err := c.Cache.Get(key); err == nil && ok {
		return ds, nil
	}
	ds, err := c.Next.Check(ctx, path, content)
	if err != nil {
		return nil, err
	}
	_ = c.Cache.Put(key, path, ds)
	return ds, nil
}
