// Package lrucache decorates any state.Backend with a read-through LRU
// cache, reducing repeated decode cost for hot keys on backends where Get
// is not a simple map lookup (SQLite, LevelDB). The cache is kept in step
// with every mutation (refreshed on Set/SetMany, dropped for the key on
// Remove, purged on Clear/Load) so it never observes stale data.
package lrucache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cardity-org/cardity-wasm/pkg/state"
)

// Backend wraps another state.Backend with a bounded LRU read cache.
type Backend struct {
	inner state.Backend
	cache *lru.Cache[string, state.Entry]
}

// New wraps inner with an LRU cache holding up to size entries. A size of
// 0 uses a sensible default.
func New(inner state.Backend, size int) (*Backend, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, state.Entry](size)
	if err != nil {
		return nil, err
	}
	return &Backend{inner: inner, cache: cache}, nil
}

// Set writes through to inner and updates the cache.
func (b *Backend) Set(key string, entry state.Entry) error {
	if err := b.inner.Set(key, entry); err != nil {
		return err
	}
	b.cache.Add(key, entry)
	return nil
}

// Get reads from the cache first, falling back to inner on a miss.
func (b *Backend) Get(key string) (state.Entry, bool) {
	if e, ok := b.cache.Get(key); ok {
		return e, true
	}
	e, ok := b.inner.Get(key)
	if ok {
		b.cache.Add(key, e)
	}
	return e, ok
}

// Has reports whether key has an entry, consulting inner on a cache miss.
func (b *Backend) Has(key string) bool {
	if _, ok := b.cache.Get(key); ok {
		return true
	}
	return b.inner.Has(key)
}

// Remove deletes key from both the cache and inner.
func (b *Backend) Remove(key string) error {
	b.cache.Remove(key)
	return b.inner.Remove(key)
}

// SetMany writes through to inner and refreshes the cache for every key.
func (b *Backend) SetMany(entries map[string]state.Entry) error {
	if err := b.inner.SetMany(entries); err != nil {
		return err
	}
	for k, v := range entries {
		b.cache.Add(k, v)
	}
	return nil
}

// GetAll always reads through to inner, since the cache may not hold
// every key.
func (b *Backend) GetAll() (map[string]state.Entry, error) {
	return b.inner.GetAll()
}

// Clear empties both the cache and inner.
func (b *Backend) Clear() error {
	b.cache.Purge()
	return b.inner.Clear()
}

// Size delegates to inner, the source of truth for key count.
func (b *Backend) Size() int {
	return b.inner.Size()
}

// Save delegates to inner.
func (b *Backend) Save(path string) error {
	return b.inner.Save(path)
}

// Load delegates to inner and purges the cache, since Load may replace
// keys the cache still holds stale entries for.
func (b *Backend) Load(path string) error {
	if err := b.inner.Load(path); err != nil {
		return err
	}
	b.cache.Purge()
	return nil
}

// Close closes inner.
func (b *Backend) Close() error {
	return b.inner.Close()
}

var _ state.Backend = (*Backend)(nil)
