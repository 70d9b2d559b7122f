package runtime

import "time"

// Config carries the Orchestrator's enumerated options. The zero value
// is not useful; start from DefaultConfig.
type Config struct {
	// EnableEvents controls whether emit statements append to the event
	// log. When false, emit is a no-op.
	EnableEvents bool

	// EnableSnapshots gates nothing in the core; it is recorded for
	// host tooling that wants to advertise snapshot support.
	EnableSnapshots bool

	// EnablePersistence gates nothing in the core; callers still invoke
	// save/load explicitly.
	EnablePersistence bool

	// SnapshotInterval is opaque to the core and carried for hosts that
	// schedule periodic snapshots.
	SnapshotInterval time.Duration

	// StoragePath is opaque to the core and carried for hosts.
	StoragePath string

	// Transactional, when true, snapshots state before each call and
	// rolls back on an evaluation error, so a failed call leaves no
	// partial writes. Default is off: mutations performed before the
	// error persist.
	Transactional bool
}

// DefaultConfig returns the default runtime options.
func DefaultConfig() Config {
	return Config{
		EnableEvents:      true,
		EnableSnapshots:   true,
		EnablePersistence: true,
		SnapshotInterval:  0,
		StoragePath:       "",
		Transactional:     false,
	}
}
