package numen

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/funvibe/numen/internal/config"
	"github.com/funvibe/numen/internal/vm"
)

// Cache keeps compiled units keyed by a hash of their source. At most size
// units stay in memory, the least recently used going first; when a
// directory is set they are also written there as serialized bundles and
// read back by later engines.
type Cache struct {
	mu      sync.Mutex
	dir     string
	size    int
	natives vm.Natives
	logger  *slog.Logger

	// units maps a key to its element in order, most recent at the front
	units map[string]*list.Element
	order *list.List

	hits, misses int
}

type cacheEntry struct {
	key string
	fn  *vm.CompiledFunction
}

// NewCache creates a cache holding up to size units in memory. An empty
// dir keeps it in memory only.
func NewCache(dir string, size int, natives vm.Natives, logger *slog.Logger) *Cache {
	if size <= 0 {
		size = config.DefaultCacheSize
	}
	return &Cache{
		dir:     dir,
		size:    size,
		natives: natives,
		logger:  logger,
		units:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Key computes the cache key of a source text and its file name
func Key(source, file string) string {
	h := sha256.New()
	h.Write([]byte(file))
	h.Write([]byte{0})
	h.Write([]byte(source))
	return hex.EncodeToString(h.Sum(nil))
}

// Dir returns the persistence directory, empty when there is none
func (c *Cache) Dir() string {
	return c.dir
}

// path is where the bundle for key is stored
func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+config.CompiledFileExt)
}

// Lookup returns the unit cached under key, loading it from disk if needed
func (c *Cache) Lookup(key string) (*vm.CompiledFunction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.units[key]; ok {
		c.order.MoveToFront(el)
		c.hits++
		c.logger.Debug("cache hit", "key", key[:12])
		return el.Value.(*cacheEntry).fn, true
	}
	if c.dir != "" {
		if fn, err := c.load(key); err == nil {
			c.add(key, fn)
			c.hits++
			c.logger.Debug("cache hit on disk", "key", key[:12])
			return fn, true
		} else if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("discarding cached unit", "key", key[:12], "error", err)
			os.Remove(c.path(key))
		}
	}
	c.misses++
	c.logger.Debug("cache miss", "key", key[:12])
	return nil, false
}

func (c *Cache) load(key string) (*vm.CompiledFunction, error) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, err
	}
	b, err := vm.Deserialize(data, c.natives)
	if err != nil {
		return nil, err
	}
	if b.SourceHash != key {
		return nil, fmt.Errorf("%w: bundle hash %q does not match", vm.ErrInvalidBundle, b.SourceHash)
	}
	return b.Main, nil
}

// Store adds a unit under key. Persisting failures are logged and
// otherwise ignored: the memory entry is always kept.
func (c *Cache) Store(key, file string, fn *vm.CompiledFunction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(key, fn)
	if c.dir == "" {
		return
	}
	if err := c.persist(key, file, fn); err != nil {
		c.logger.Warn("cache write failed", "dir", c.dir, "error", err)
	}
}

// add puts a unit at the front, evicting from the back past size.
// Callers hold mu.
func (c *Cache) add(key string, fn *vm.CompiledFunction) {
	if el, ok := c.units[key]; ok {
		el.Value.(*cacheEntry).fn = fn
		c.order.MoveToFront(el)
		return
	}
	c.units[key] = c.order.PushFront(&cacheEntry{key: key, fn: fn})
	for c.order.Len() > c.size {
		last := c.order.Back()
		c.order.Remove(last)
		evicted := last.Value.(*cacheEntry).key
		delete(c.units, evicted)
		c.logger.Debug("cache evict", "key", evicted[:12])
	}
}

// Len is the number of units held in memory
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) persist(key, file string, fn *vm.CompiledFunction) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	data, err := (&vm.Bundle{Main: fn, SourceFile: file, SourceHash: key}).Serialize()
	if err != nil {
		return err
	}
	// Write to a temporary file first so readers never see a partial bundle
	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache: %w", err)
	}
	return os.Rename(tmp.Name(), c.path(key))
}

// Stats reports lookups served from the cache and lookups that missed
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Clear drops the memory entries. Files on disk are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.units = make(map[string]*list.Element)
	c.order.Init()
}
