package workspace

import (
	"fmt"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore memoizes parsed manifests. Writes through the store evict the
// affected entry.
type CachedStore struct {
	Store
	cache *lru.Cache[string, *Manifest]
}

// NewCachedStore wraps inner with an LRU of the given size.
func NewCachedStore(inner Store, size int) (*CachedStore, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, *Manifest](size)
	if err != nil {
		return nil, fmt.Errorf("workspace: create manifest cache: %w", err)
	}
	return &CachedStore{Store: inner, cache: cache}, nil
}

// Read serves from the cache when possible.
func (c *CachedStore) Read(dir string) (*Manifest, error) {
	key := filepath.Clean(dir)
	if m, ok := c.cache.Get(key); ok {
		return m, nil
	}
	m, err := c.Store.Read(dir)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, m)
	return m, nil
}

// WriteRaw evicts the cached manifest after writing.
func (c *CachedStore) WriteRaw(dir string, data []byte) error {
	defer c.cache.Remove(filepath.Clean(dir))
	return c.Store.WriteRaw(dir, data)
}

// SetVersion evicts the cached manifest after writing.
func (c *CachedStore) SetVersion(dir, version string) error {
	defer c.cache.Remove(filepath.Clean(dir))
	return c.Store.SetVersion(dir, version)
}

// RemoveVersion evicts the cached manifest after writing.
func (c *CachedStore) RemoveVersion(dir string) error {
	defer c.cache.Remove(filepath.Clean(dir))
	return c.Store.RemoveVersion(dir)
}
