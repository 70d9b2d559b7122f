package state_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardity-org/cardity-wasm/pkg/state"
	"github.com/cardity-org/cardity-wasm/pkg/state/memstore"
	"github.com/cardity-org/cardity-wasm/pkg/value"
)

func TestStore_SetGetDefaultsToStringKind(t *testing.T) {
	s := state.NewStore(memstore.New())
	require.NoError(t, s.Set("msg", "gm"))
	require.Equal(t, "gm", s.Get("msg"))

	e, ok := s.Backend().Get("msg")
	require.True(t, ok)
	require.Equal(t, int(value.KindString), e.Type)
}

func TestStore_DeclaredKindAppliesToPlainSet(t *testing.T) {
	s := state.NewStore(memstore.New())
	s.DeclareKind("count", value.KindInt)
	require.NoError(t, s.Set("count", "3"))

	e, ok := s.Backend().Get("count")
	require.True(t, ok)
	require.Equal(t, int(value.KindInt), e.Type)
}

func TestStore_GetAbsentKeyReturnsEmptyString(t *testing.T) {
	s := state.NewStore(memstore.New())
	require.Equal(t, "", s.Get("nope"))
}

func TestStore_SnapshotRoundTrip(t *testing.T) {
	s := state.NewStore(memstore.New())
	require.NoError(t, s.Set("count", "2"))
	require.NoError(t, s.Set("msg", "hi"))

	snap, err := s.ToSnapshot("2026-08-03T00:00:00Z")
	require.NoError(t, err)

	require.NoError(t, s.Clear())
	require.Equal(t, "", s.Get("count"))

	require.NoError(t, s.RestoreSnapshot(snap))
	require.Equal(t, "2", s.Get("count"))
	require.Equal(t, "hi", s.Get("msg"))
}

func TestStore_RestoreMalformedSnapshotFails(t *testing.T) {
	s := state.NewStore(memstore.New())
	require.NoError(t, s.Set("a", "1"))

	err := s.RestoreSnapshot(state.Snapshot{})
	require.ErrorIs(t, err, state.ErrMalformedSnapshot)
	require.Equal(t, "1", s.Get("a"))
}

func TestUnmarshalSnapshotJSON_MissingStateFails(t *testing.T) {
	_, err := state.UnmarshalSnapshotJSON([]byte(`{"timestamp":"now"}`))
	require.ErrorIs(t, err, state.ErrMalformedSnapshot)
}
