// Package sqlitestore implements state.Backend on top of an embedded
// SQLite database via the pure-Go modernc.org/sqlite driver. It exists to
// exercise the "Polymorphic state backend" design note: additional
// storage engines slot in behind the same Backend interface without the
// Orchestrator knowing the difference.
package sqlitestore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/cardity-org/cardity-wasm/pkg/state"
)

const schema = `
CREATE TABLE IF NOT EXISTS state_entries (
	key   TEXT PRIMARY KEY,
	type  INTEGER NOT NULL,
	value TEXT NOT NULL
);
`

// Backend is a SQLite-backed state.Backend.
type Backend struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at path and migrates its
// schema. An empty path opens an in-memory database, useful for tests.
func New(path string) (*Backend, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: migrate: %w", err)
	}
	return &Backend{db: db}, nil
}

// Set upserts the entry for key.
func (b *Backend) Set(key string, entry state.Entry) error {
	_, err := b.db.Exec(
		`INSERT INTO state_entries (key, type, value) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET type = excluded.type, value = excluded.value`,
		key, entry.Type, entry.Value,
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: set %s: %w", key, err)
	}
	return nil
}

// Get retrieves the entry for key.
func (b *Backend) Get(key string) (state.Entry, bool) {
	var e state.Entry
	err := b.db.QueryRow(`SELECT type, value FROM state_entries WHERE key = ?`, key).Scan(&e.Type, &e.Value)
	if err != nil {
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
	if _, err := b.db.Exec(`DELETE FROM state_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlitestore: remove %s: %w", key, err)
	}
	return nil
}

// SetMany stores every pair in entries within a single transaction.
func (b *Backend) SetMany(entries map[string]state.Entry) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlitestore: begin tx: %w", err)
	}
	defer tx.Rollback()

	for k, v := range entries {
		if _, err := tx.Exec(
			`INSERT INTO state_entries (key, type, value) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET type = excluded.type, value = excluded.value`,
			k, v.Type, v.Value,
		); err != nil {
			return fmt.Errorf("sqlitestore: set %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// GetAll returns every stored key/entry pair.
func (b *Backend) GetAll() (map[string]state.Entry, error) {
	rows, err := b.db.Query(`SELECT key, type, value FROM state_entries`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: get all: %w", err)
	}
	defer rows.Close()

	out := make(map[string]state.Entry)
	for rows.Next() {
		var key string
		var e state.Entry
		if err := rows.Scan(&key, &e.Type, &e.Value); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan row: %w", err)
		}
		out[key] = e
	}
	return out, rows.Err()
}

// Clear removes every entry.
func (b *Backend) Clear() error {
	if _, err := b.db.Exec(`DELETE FROM state_entries`); err != nil {
		return fmt.Errorf("sqlitestore: clear: %w", err)
	}
	return nil
}

// Size returns the number of stored entries.
func (b *Backend) Size() int {
	var n int
	if err := b.db.QueryRow(`SELECT COUNT(*) FROM state_entries`).Scan(&n); err != nil {
		return 0
	}
	return n
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

// Close closes the underlying database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}

var _ state.Backend = (*Backend)(nil)
