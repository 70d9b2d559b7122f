package sqlitestore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardity-org/cardity-wasm/pkg/state"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestSQLiteBackend_CRUD(t *testing.T) {
	b := newTestBackend(t)

	require.False(t, b.Has("msg"))
	require.NoError(t, b.Set("msg", state.Entry{Type: 0, Value: "hi"}))
	require.True(t, b.Has("msg"))

	e, ok := b.Get("msg")
	require.True(t, ok)
	require.Equal(t, "hi", e.Value)

	require.NoError(t, b.Set("msg", state.Entry{Type: 0, Value: "bye"}))
	e, ok = b.Get("msg")
	require.True(t, ok)
	require.Equal(t, "bye", e.Value)

	require.NoError(t, b.Remove("msg"))
	require.False(t, b.Has("msg"))
}

func TestSQLiteBackend_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	b := newTestBackend(t)
	require.NoError(t, b.Set("count", state.Entry{Type: 1, Value: "3"}))
	require.NoError(t, b.Save(path))

	loaded := newTestBackend(t)
	require.NoError(t, loaded.Load(path))

	e, ok := loaded.Get("count")
	require.True(t, ok)
	require.Equal(t, "3", e.Value)
}

func TestSQLiteBackend_ClearAndSize(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.SetMany(map[string]state.Entry{
		"a": {Value: "1"},
		"b": {Value: "2"},
	}))
	require.Equal(t, 2, b.Size())
	require.NoError(t, b.Clear())
	require.Equal(t, 0, b.Size())
}
