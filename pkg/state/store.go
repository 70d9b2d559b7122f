package state

import (
	"encoding/json"
	"fmt"

	"github.com/cardity-org/cardity-wasm/pkg/value"
)

// Store is the canonical-string view of a Backend that the resolver,
// evaluator, and Orchestrator operate on. It tracks the declared Kind for
// each key (set at initialization from the PD's state declarations) so
// that persisted entries carry the right type tag, while still accepting
// plain strings for every read/write per the data model's "advisory
// type" rule.
type Store struct {
	backend Backend
	kinds   map[string]value.Kind
}

// NewStore wraps backend in a Store with no declared kinds yet.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend, kinds: make(map[string]value.Kind)}
}

// Backend returns the underlying Backend, for callers that need direct
// access (e.g. selecting an alternate persistence path).
func (s *Store) Backend() Backend { return s.backend }

// DeclareKind records the advisory Kind for key, used when the key is
// later written without an explicit kind (e.g. from the evaluator).
func (s *Store) DeclareKind(key string, kind value.Kind) {
	s.kinds[key] = kind
}

func (s *Store) kindFor(key string) value.Kind {
	if k, ok := s.kinds[key]; ok {
		return k
	}
	return value.KindString
}

// Set stores v under key using key's declared kind (or KindString if
// undeclared).
func (s *Store) Set(key, v string) error {
	return s.backend.Set(key, Entry{Type: int(s.kindFor(key)), Value: v})
}

// SetTyped stores v under key with an explicit kind, and remembers that
// kind for subsequent untyped Set calls.
func (s *Store) SetTyped(key string, kind value.Kind, v string) error {
	s.kinds[key] = kind
	return s.backend.Set(key, Entry{Type: int(kind), Value: v})
}

// Get returns the canonical string stored under key, or "" if unset.
func (s *Store) Get(key string) string {
	e, ok := s.backend.Get(key)
	if !ok {
		return ""
	}
	return e.Value
}

// Has reports whether key has an entry.
func (s *Store) Has(key string) bool {
	return s.backend.Has(key)
}

// Remove deletes key.
func (s *Store) Remove(key string) error {
	return s.backend.Remove(key)
}

// SetMany stores every key/value pair, using each key's declared kind.
func (s *Store) SetMany(values map[string]string) error {
	entries := make(map[string]Entry, len(values))
	for k, v := range values {
		entries[k] = Entry{Type: int(s.kindFor(k)), Value: v}
	}
	return s.backend.SetMany(entries)
}

// GetAll returns every stored key/value pair as canonical strings.
func (s *Store) GetAll() (map[string]string, error) {
	all, err := s.backend.GetAll()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(all))
	for k, e := range all {
		out[k] = e.Value
	}
	return out, nil
}

// Clear removes every entry but keeps declared kinds (so subsequent
// default reinstallation writes the right type tags).
func (s *Store) Clear() error {
	return s.backend.Clear()
}

// Size returns the number of stored entries.
func (s *Store) Size() int {
	return s.backend.Size()
}

// Save persists the store to path in the state file format.
func (s *Store) Save(path string) error {
	return s.backend.Save(path)
}

// Load replaces the store's contents from the state file at path.
func (s *Store) Load(path string) error {
	return s.backend.Load(path)
}

// Close releases the underlying backend's resources.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Snapshot is the canonical {timestamp, state} encoding of a Store,
// matching §4.2's snapshot format. It is distinct from the top-level
// runtime Snapshot (package runtime), which additionally carries the
// event log and protocol identity.
type Snapshot struct {
	Timestamp string           `json:"timestamp"`
	State     map[string]Entry `json:"state"`
}

// ToSnapshot encodes the current contents with the given timestamp.
func (s *Store) ToSnapshot(timestamp string) (Snapshot, error) {
	all, err := s.backend.GetAll()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Timestamp: timestamp, State: all}, nil
}

// RestoreSnapshot replaces the store's contents with snap's state. On
// malformed input the store is left unchanged.
func (s *Store) RestoreSnapshot(snap Snapshot) error {
	if snap.State == nil {
		return fmt.Errorf("%w: missing state", ErrMalformedSnapshot)
	}
	if err := s.backend.Clear(); err != nil {
		return err
	}
	return s.backend.SetMany(snap.State)
}

// MarshalSnapshotJSON encodes a Snapshot to indented JSON.
func MarshalSnapshotJSON(snap Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// UnmarshalSnapshotJSON decodes a Snapshot from JSON, failing on
// malformed or missing required fields.
func UnmarshalSnapshotJSON(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if snap.State == nil {
		return Snapshot{}, fmt.Errorf("%w: missing state", ErrMalformedSnapshot)
	}
	return snap, nil
}
