package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cardity-org/cardity-wasm/pkg/runtime"
	"github.com/cardity-org/cardity-wasm/pkg/state/sqlitestore"
)

// A full lifecycle across two independent runtimes: one mutates state
// and persists it to a state file, the other picks the file up with a
// different backend and continues the computation.
func TestStateFileHandoffBetweenRuntimes(t *testing.T) {
	pd := NewPD("ledger").
		Var("balance", "int", "100").
		Var("last_memo", "string", "").
		Method("spend", []string{"amount", "memo"},
			`state.balance = state.balance - params.amount; state.last_memo = params.memo; if (state.balance < 0) { emit Overdrawn(state.balance) }`).
		Getter("get_balance", "state.balance").
		Event("Overdrawn", []string{"balance"}).
		JSON()

	stateFile := filepath.Join(t.TempDir(), "ledger.state")
	ctx := context.Background()

	first := runtime.New(runtime.WithClock(Clock()))
	require.NoError(t, first.LoadProtocolJSON(pd))

	res := first.CallMethod(ctx, "spend", []string{"30", "coffee"})
	require.True(t, res.Success, res.Error)
	require.Empty(t, res.Events)
	require.NoError(t, first.SaveStateToFile(stateFile))
	require.NoError(t, first.Close())

	// Second runtime on a SQLite backend, resuming from the file.
	backend, err := sqlitestore.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	second := runtime.New(runtime.WithClock(Clock()), runtime.WithBackend(backend))
	defer second.Close()
	require.NoError(t, second.LoadProtocolJSON(pd))
	require.NoError(t, second.LoadStateFromFile(stateFile))

	require.Equal(t, "70", second.GetState("balance"))
	require.Equal(t, "coffee", second.GetState("last_memo"))

	res = second.CallMethod(ctx, "spend", []string{"80", "rent"})
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Events, 1)
	require.Equal(t, "Overdrawn", res.Events[0].Name)
	require.Equal(t, []string{"-10"}, res.Events[0].Values)

	res = second.CallMethod(ctx, "get_balance", nil)
	require.Equal(t, "-10", res.ReturnValue)
}

// Snapshot files written by one runtime restore cleanly into another.
func TestSnapshotHandoffBetweenRuntimes(t *testing.T) {
	pd := NewPD("counter").
		Var("count", "int", "0").
		Method("increment", nil, "state.count = state.count + 1").
		Getter("get_count", "state.count").
		JSON()

	snapFile := filepath.Join(t.TempDir(), "counter.snapshot")
	ctx := context.Background()

	first := runtime.New(runtime.WithClock(Clock()))
	require.NoError(t, first.LoadProtocolJSON(pd))
	first.CallMethod(ctx, "increment", nil)
	first.CallMethod(ctx, "increment", nil)
	require.NoError(t, first.SaveSnapshotToFile(snapFile))
	require.NoError(t, first.Close())

	second := runtime.New(runtime.WithClock(Clock()))
	defer second.Close()
	require.NoError(t, second.LoadProtocolJSON(pd))
	require.NoError(t, second.LoadSnapshotFromFile(snapFile))

	res := second.CallMethod(ctx, "increment", nil)
	require.True(t, res.Success)
	require.Equal(t, "3", second.GetState("count"))
}
