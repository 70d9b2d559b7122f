package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardity-org/cardity-wasm/pkg/state"
	"github.com/cardity-org/cardity-wasm/pkg/state/memstore"
)

func newResolver(t *testing.T) (*Resolver, *state.Store) {
	t.Helper()
	s := state.NewStore(memstore.New())
	return New(s), s
}

func TestResolver_StateNamespace(t *testing.T) {
	r, s := newResolver(t)
	require.NoError(t, r.AssignState("x", "store-value"))
	require.Equal(t, "store-value", r.ResolveState("x"))
	require.Equal(t, "store-value", s.Get("x"))
}

func TestResolver_ParamNamespace(t *testing.T) {
	r, _ := newResolver(t)
	r.AssignParam("x", "param-value")
	require.Equal(t, "param-value", r.ResolveParam("x"))
}

func TestResolver_BareReadPrefersParamOverState(t *testing.T) {
	r, _ := newResolver(t)
	require.NoError(t, r.AssignState("x", "store"))
	r.SetFrame(map[string]string{"x": "arg"})

	require.Equal(t, "arg", r.Resolve("x"))
	// The store is unaffected by the shadowing read.
	require.Equal(t, "store", r.ResolveState("x"))
}

func TestResolver_BareReadFallsBackToState(t *testing.T) {
	r, _ := newResolver(t)
	require.NoError(t, r.AssignState("x", "store"))
	require.Equal(t, "store", r.Resolve("x"))
}

func TestResolver_BareAssignWritesState(t *testing.T) {
	r, s := newResolver(t)
	r.SetFrame(map[string]string{"x": "arg"})
	require.NoError(t, r.Assign("x", "new"))

	require.Equal(t, "new", s.Get("x"))
}

func TestResolver_ClearFrame(t *testing.T) {
	r, _ := newResolver(t)
	r.SetFrame(map[string]string{"x": "arg"})
	r.ClearFrame()
	require.False(t, r.HasParam("x"))
}
