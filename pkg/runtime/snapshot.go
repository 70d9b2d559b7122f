package runtime

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// Snapshot is a serialized image of state, event log, protocol identity,
// and timestamp. The JSON encoding is canonical: object keys in State
// marshal in sorted order, and event_log preserves emission order. ID is
// assigned at creation so external tooling can reference a specific
// snapshot without relying on timestamp equality.
type Snapshot struct {
	ID           string            `json:"id"`
	ProtocolName string            `json:"protocol_name"`
	Version      string            `json:"version"`
	State        map[string]string `json:"state"`
	Timestamp    string            `json:"timestamp"`
	BlockHeight  string            `json:"block_height"`
	EventLog     []Event           `json:"event_log"`
}

// Encode serializes the snapshot as indented UTF-8 JSON.
func (s Snapshot) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, wrapError(KindPersistence, "encode snapshot", err)
	}
	return data, nil
}

// DecodeSnapshot parses a snapshot from JSON. Unknown top-level keys are
// ignored; a missing state object fails the decode.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, wrapError(KindPersistence, "decode snapshot", err)
	}
	if s.State == nil {
		return Snapshot{}, newError(KindPersistence, "snapshot is missing state")
	}
	return s, nil
}

// CreateSnapshot captures the current state, event log, and protocol
// identity. blockHeight is recorded verbatim and may be empty.
func (o *Orchestrator) CreateSnapshot(blockHeight string) (Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	all, err := o.store.GetAll()
	if err != nil {
		return Snapshot{}, wrapError(KindPersistence, "read state for snapshot", err)
	}
	snap := Snapshot{
		ID:          uuid.NewString(),
		State:       all,
		Timestamp:   o.clock.Now().Format(timestampLayout),
		BlockHeight: blockHeight,
		EventLog:    o.events.All(),
	}
	if o.doc != nil {
		snap.ProtocolName = o.doc.Protocol
		snap.Version = o.doc.Version
	}
	return snap, nil
}

// RestoreFromSnapshot replaces the state store's contents and the event
// log with the snapshot's. Declared kinds from the loaded PD are applied
// to restored keys, so persisted entries keep their type tags.
func (o *Orchestrator) RestoreFromSnapshot(snap Snapshot) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if snap.State == nil {
		return newError(KindPersistence, "snapshot is missing state")
	}
	if err := o.store.Clear(); err != nil {
		return wrapError(KindPersistence, "clear state for restore", err)
	}
	if err := o.store.SetMany(snap.State); err != nil {
		return wrapError(KindPersistence, "restore state", err)
	}
	o.events.Replace(snap.EventLog)
	return nil
}

// SaveSnapshotToFile captures a snapshot and writes it to path.
func (o *Orchestrator) SaveSnapshotToFile(path string) error {
	snap, err := o.CreateSnapshot("")
	if err != nil {
		return err
	}
	data, err := snap.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return wrapError(KindPersistence, fmt.Sprintf("write snapshot to %s", path), err)
	}
	return nil
}

// LoadSnapshotFromFile reads a snapshot from path and restores it.
func (o *Orchestrator) LoadSnapshotFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return wrapError(KindPersistence, fmt.Sprintf("read snapshot from %s", path), err)
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return err
	}
	return o.RestoreFromSnapshot(snap)
}
