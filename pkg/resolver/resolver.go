// Package resolver implements the Variable Resolver: a binding
// environment that maps "state.X", "params.X", and bare "X" references
// onto a state.Store and an invocation-scoped parameter frame.
package resolver

import "github.com/cardity-org/cardity-wasm/pkg/state"

// Resolver holds a non-owning reference to a state.Store and an
// in-process parameter frame. It must not outlive the Orchestrator that
// owns the Store it was constructed with.
type Resolver struct {
	store *state.Store
	frame map[string]string
}

// New creates a Resolver bound to store with an empty parameter frame.
func New(store *state.Store) *Resolver {
	return &Resolver{store: store, frame: make(map[string]string)}
}

// SetFrame replaces the parameter frame entirely, called by the
// Orchestrator before each method invocation.
func (r *Resolver) SetFrame(frame map[string]string) {
	if frame == nil {
		frame = make(map[string]string)
	}
	r.frame = frame
}

// ClearFrame empties the parameter frame.
func (r *Resolver) ClearFrame() {
	r.frame = make(map[string]string)
}

// ResolveState reads state.X directly, bypassing the parameter frame.
func (r *Resolver) ResolveState(name string) string {
	return r.store.Get(name)
}

// ResolveParam reads params.X directly from the frame.
func (r *Resolver) ResolveParam(name string) string {
	return r.frame[name]
}

// Resolve reads a bare name: the parameter frame takes priority over
// state, matching the resolver namespacing rule (a param shadows a
// like-named state variable).
func (r *Resolver) Resolve(name string) string {
	if v, ok := r.frame[name]; ok {
		return v
	}
	return r.store.Get(name)
}

// HasParam reports whether name is bound in the current parameter frame.
func (r *Resolver) HasParam(name string) bool {
	_, ok := r.frame[name]
	return ok
}

// AssignState writes state.X, always through the store.
func (r *Resolver) AssignState(name, v string) error {
	return r.store.Set(name, v)
}

// AssignParam writes params.X, always to the frame.
func (r *Resolver) AssignParam(name, v string) {
	r.frame[name] = v
}

// Assign writes a bare name. Per the resolver table, bare writes always
// land in the state store, even when a like-named parameter exists —
// only bare *reads* are shadowed by the parameter frame.
func (r *Resolver) Assign(name, v string) error {
	return r.store.Set(name, v)
}
