package rpcserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cardity-org/cardity-wasm/pkg/runtime"
)

const counterPD = `{
  "p": "cardinals",
  "op": "deploy",
  "protocol": "counter",
  "version": "1.0.0",
  "cpl": {
    "owner": "doge1owner",
    "state": {"count": {"type": "int", "default": "0"}},
    "methods": {
      "increment": {"params": [], "logic": "state.count = state.count + 1"},
      "get_count": {"params": [], "returns": "state.count"}
    },
    "events": {}
  }
}`

func startServer(t *testing.T) (*Server, *grpc.ClientConn) {
	t.Helper()

	orch := runtime.New(runtime.WithClock(runtime.FixedClock{T: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}))
	require.NoError(t, orch.LoadProtocolJSON([]byte(counterPD)))

	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	srv := NewServer(orch, cfg, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient(srv.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec{})))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return srv, conn
}

func invoke[Req, Resp any](t *testing.T, conn *grpc.ClientConn, method string, req *Req, resp *Resp) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, resp)
}

func TestCallMethodOverGRPC(t *testing.T) {
	_, conn := startServer(t)

	var callResp CallResponse
	require.NoError(t, invoke(t, conn, "CallMethod", &CallRequest{Method: "increment"}, &callResp))
	assert.True(t, callResp.Success)

	require.NoError(t, invoke(t, conn, "CallMethod", &CallRequest{Method: "get_count"}, &callResp))
	assert.True(t, callResp.Success)
	assert.Equal(t, "1", callResp.ReturnValue)
}

func TestCallFailureIsReportedInResponse(t *testing.T) {
	_, conn := startServer(t)

	var callResp CallResponse
	require.NoError(t, invoke(t, conn, "CallMethod", &CallRequest{Method: "missing"}, &callResp))
	assert.False(t, callResp.Success)
	assert.Contains(t, callResp.Error, "Method not found")
}

func TestStateOverGRPC(t *testing.T) {
	_, conn := startServer(t)

	var setResp SetStateResponse
	require.NoError(t, invoke(t, conn, "SetState", &SetStateRequest{Key: "count", Value: "41"}, &setResp))
	assert.True(t, setResp.OK)

	var getResp GetStateResponse
	require.NoError(t, invoke(t, conn, "GetState", &GetStateRequest{Key: "count"}, &getResp))
	assert.Equal(t, "41", getResp.Value)
}

func TestSnapshotOverGRPC(t *testing.T) {
	_, conn := startServer(t)

	var callResp CallResponse
	require.NoError(t, invoke(t, conn, "CallMethod", &CallRequest{Method: "increment"}, &callResp))

	var snapResp SnapshotResponse
	require.NoError(t, invoke(t, conn, "CreateSnapshot", &SnapshotRequest{BlockHeight: "99"}, &snapResp))
	assert.Equal(t, "counter", snapResp.Snapshot.ProtocolName)
	assert.Equal(t, "99", snapResp.Snapshot.BlockHeight)
	assert.Equal(t, "1", snapResp.Snapshot.State["count"])
	assert.NotEmpty(t, snapResp.Snapshot.ID)
}

func TestABIOverGRPC(t *testing.T) {
	_, conn := startServer(t)

	var abiResp ABIResponse
	require.NoError(t, invoke(t, conn, "GetABI", &ABIRequest{}, &abiResp))
	assert.Contains(t, string(abiResp.ABI), `"protocol":"counter"`)
}

func TestStartIsIdempotent(t *testing.T) {
	srv, _ := startServer(t)
	require.NoError(t, srv.Start())
}
