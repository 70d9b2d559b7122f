// Package memstore implements state.Backend entirely in memory. It is the
// default backend used by the Orchestrator when no other backend is
// configured.
package memstore

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/cardity-org/cardity-wasm/pkg/state"
)

// Backend is an in-memory state.Backend guarded by a mutex.
type Backend struct {
	mu      sync.RWMutex
	entries map[string]state.Entry
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{entries: make(map[string]state.Entry)}
}

// Set stores entry under key.
func (b *Backend) Set(key string, entry state.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = entry
	return nil
}

// Get retrieves the entry stored under key.
func (b *Backend) Get(key string) (state.Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[key]
	return e, ok
}

// Has reports whether key has an entry.
func (b *Backend) Has(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.entries[key]
	return ok
}

// Remove deletes key, if present.
func (b *Backend) Remove(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, key)
	return nil
}

// SetMany stores every pair in entries.
func (b *Backend) SetMany(entries map[string]state.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, v := range entries {
		b.entries[k] = v
	}
	return nil
}

// GetAll returns a copy of every stored pair.
func (b *Backend) GetAll() (map[string]state.Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]state.Entry, len(b.entries))
	for k, v := range b.entries {
		out[k] = v
	}
	return out, nil
}

// Clear removes every entry.
func (b *Backend) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make(map[string]state.Entry)
	return nil
}

// Size returns the number of stored entries.
func (b *Backend) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Save writes the current contents to path as the state file format: a
// JSON object mapping key to {type, value}.
func (b *Backend) Save(path string) error {
	b.mu.RLock()
	data, err := json.MarshalIndent(b.entries, "", "  ")
	b.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("%w: marshal state: %v", state.ErrPersistence, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", state.ErrPersistence, path, err)
	}
	return nil
}

// Load replaces the current contents with the state file at path. On
// malformed JSON the backend is left unchanged.
func (b *Backend) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", state.ErrPersistence, path, err)
	}
	var entries map[string]state.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("%w: unmarshal %s: %v", state.ErrPersistence, path, err)
	}
	b.mu.Lock()
	b.entries = entries
	b.mu.Unlock()
	return nil
}

// Close is a no-op for the in-memory backend.
func (b *Backend) Close() error { return nil }

var _ state.Backend = (*Backend)(nil)
