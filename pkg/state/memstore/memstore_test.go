package memstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardity-org/cardity-wasm/pkg/state"
)

func TestSetGetHasRemove(t *testing.T) {
	b := New()
	require.False(t, b.Has("msg"))

	require.NoError(t, b.Set("msg", state.Entry{Type: 0, Value: "hi"}))
	require.True(t, b.Has("msg"))

	e, ok := b.Get("msg")
	require.True(t, ok)
	require.Equal(t, "hi", e.Value)

	require.NoError(t, b.Remove("msg"))
	require.False(t, b.Has("msg"))
}

func TestSetManyAndGetAll(t *testing.T) {
	b := New()
	require.NoError(t, b.SetMany(map[string]state.Entry{
		"a": {Type: 1, Value: "1"},
		"b": {Type: 2, Value: "true"},
	}))
	require.Equal(t, 2, b.Size())

	all, err := b.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "1", all["a"].Value)
}

func TestClear(t *testing.T) {
	b := New()
	require.NoError(t, b.Set("k", state.Entry{Value: "v"}))
	require.NoError(t, b.Clear())
	require.Equal(t, 0, b.Size())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	b := New()
	require.NoError(t, b.Set("count", state.Entry{Type: 1, Value: "3"}))
	require.NoError(t, b.Set("msg", state.Entry{Type: 0, Value: "gm"}))
	require.NoError(t, b.Save(path))

	loaded := New()
	require.NoError(t, loaded.Load(path))

	all, err := loaded.GetAll()
	require.NoError(t, err)
	require.Equal(t, "3", all["count"].Value)
	require.Equal(t, "gm", all["msg"].Value)
}

func TestLoadMalformedLeavesBackendUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	b := New()
	require.NoError(t, b.Set("k", state.Entry{Value: "v"}))
	err := b.Load(path)
	require.Error(t, err)

	e, ok := b.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", e.Value)
}
