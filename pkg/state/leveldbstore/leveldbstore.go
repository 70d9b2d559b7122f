// Package leveldbstore implements state.Backend on top of goleveldb. It is
// the second of two embedded-KV backends offered alongside sqlitestore,
// demonstrating that the Orchestrator is indifferent to which storage
// engine backs the state store.
package leveldbstore

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/cardity-org/cardity-wasm/pkg/state"
)

var keyPrefix = []byte("k:")

// Backend is a goleveldb-backed state.Backend.
type Backend struct {
	db *leveldb.DB
	mu sync.RWMutex
}

// New opens (or creates) a LevelDB database at path.
func New(path string) (*Backend, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{NoSync: false})
	if err != nil {
		return nil, fmt.Errorf("leveldbstore: opening %s: %w", path, err)
	}
	return &Backend{db: db}, nil
}

func dbKey(key string) []byte {
	return append(append([]byte{}, keyPrefix...), []byte(key)...)
}

// Set upserts the entry for key.
func (b *Backend) Set(key string, entry state.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("leveldbstore: marshal %s: %w", key, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.db.Put(dbKey(key), data, nil); err != nil {
		return fmt.Errorf("leveldbstore: put %s: %w", key, err)
	}
	return nil
}

// Get retrieves the entry for key.
func (b *Backend) Get(key string) (state.Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, err := b.db.Get(dbKey(key), nil)
	if err != nil {
		return state.Entry{}, false
	}
	var e state.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return state.Entry{}, false
	}
	return e, true
}

// Has reports whether key has an entry.
func (b *Backend) Has(key string) bool {
	_, ok := b.Get(key)
	return ok
}

// Remove deletes key, if present.
func (b *Backend) Remove(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.db.Delete(dbKey(key), nil); err != nil {
		return fmt.Errorf("leveldbstore: delete %s: %w", key, err)
	}
	return nil
}

// SetMany stores every pair in entries via a single batch write.
func (b *Backend) SetMany(entries map[string]state.Entry) error {
	batch := new(leveldb.Batch)
	for k, v := range entries {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("leveldbstore: marshal %s: %w", k, err)
		}
		batch.Put(dbKey(k), data)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.db.Write(batch, nil); err != nil {
		return fmt.Errorf("leveldbstore: batch write: %w", err)
	}
	return nil
}

// GetAll returns every stored key/entry pair.
func (b *Backend) GetAll() (map[string]state.Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]state.Entry)
	iter := b.db.NewIterator(util.BytesPrefix(keyPrefix), nil)
	defer iter.Release()
	for iter.Next() {
		key := string(iter.Key()[len(keyPrefix):])
		var e state.Entry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			return nil, fmt.Errorf("leveldbstore: unmarshal %s: %w", key, err)
		}
		out[key] = e
	}
	return out, iter.Error()
}

// Clear removes every entry.
func (b *Backend) Clear() error {
	all, err := b.GetAll()
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	for k := range all {
		batch.Delete(dbKey(k))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.db.Write(batch, nil); err != nil {
		return fmt.Errorf("leveldbstore: clear: %w", err)
	}
	return nil
}

// Size returns the number of stored entries.
func (b *Backend) Size() int {
	all, err := b.GetAll()
	if err != nil {
		return 0
	}
	return len(all)
}

// Save writes the current contents to path in the state file format.
func (b *Backend) Save(path string) error {
	all, err := b.GetAll()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal state: %v", state.ErrPersistence, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", state.ErrPersistence, path, err)
	}
	return nil
}

// Load replaces the current contents with the state file at path.
func (b *Backend) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", state.ErrPersistence, path, err)
	}
	var entries map[string]state.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("%w: unmarshal %s: %v", state.ErrPersistence, path, err)
	}
	if err := b.Clear(); err != nil {
		return err
	}
	return b.SetMany(entries)
}

// Close closes the underlying database.
func (b *Backend) Close() error {
	return b.db.Close()
}

var _ state.Backend = (*Backend)(nil)
