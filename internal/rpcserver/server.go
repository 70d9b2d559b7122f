// Package rpcserver exposes a loaded Orchestrator to remote callers
// over gRPC. The service is described by proto/cardity/v1/runtime.proto
// and registered through a hand-written ServiceDesc with a JSON codec,
// so the transport runs without generated protobuf bindings.
package rpcserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"

	"github.com/cardity-org/cardity-wasm/internal/obslog"
	"github.com/cardity-org/cardity-wasm/pkg/runtime"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "cardity.v1.Runtime"

// Config contains configuration for the gRPC server.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "127.0.0.1:26659").
	ListenAddr string

	// MaxRecvMsgSize is the maximum message size in bytes the server can receive.
	MaxRecvMsgSize int

	// MaxSendMsgSize is the maximum message size in bytes the server can send.
	MaxSendMsgSize int

	// ConnectionTimeout is the timeout for establishing connections.
	ConnectionTimeout time.Duration
}

// DefaultConfig returns sensible defaults for gRPC server configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:        "127.0.0.1:26659",
		MaxRecvMsgSize:    4 * 1024 * 1024,
		MaxSendMsgSize:    4 * 1024 * 1024,
		ConnectionTimeout: 30 * time.Second,
	}
}

// CallRequest invokes one method with positional string arguments.
type CallRequest struct {
	Method string   `json:"method"`
	Args   []string `json:"args"`
}

// CallResponse carries the method result.
type CallResponse struct {
	Success     bool            `json:"success"`
	ReturnValue string          `json:"return_value"`
	Events      []runtime.Event `json:"events"`
	Error       string          `json:"error_message,omitempty"`
}

// GetStateRequest reads one state key.
type GetStateRequest struct {
	Key string `json:"key"`
}

// GetStateResponse carries the canonical string value ("" if unset).
type GetStateResponse struct {
	Value string `json:"value"`
}

// SetStateRequest writes one state key.
type SetStateRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SetStateResponse acknowledges the write.
type SetStateResponse struct {
	OK bool `json:"ok"`
}

// SnapshotRequest captures a snapshot at an optional block height.
type SnapshotRequest struct {
	BlockHeight string `json:"block_height"`
}

// SnapshotResponse carries the captured snapshot.
type SnapshotResponse struct {
	Snapshot runtime.Snapshot `json:"snapshot"`
}

// ABIRequest asks for the loaded protocol's ABI.
type ABIRequest struct{}

// ABIResponse carries the ABI JSON.
type ABIResponse struct {
	ABI json.RawMessage `json:"abi"`
}

// Server serves the Runtime service over gRPC, delegating every
// operation to an Orchestrator.
type Server struct {
	orch       *runtime.Orchestrator
	config     Config
	logger     *obslog.Logger
	grpcServer *grpc.Server
	listener   net.Listener
	running    atomic.Bool
}

// NewServer creates a gRPC server around orch.
func NewServer(orch *runtime.Orchestrator, config Config, logger *obslog.Logger) *Server {
	if logger == nil {
		logger = obslog.NewNopLogger()
	}
	return &Server{
		orch:   orch,
		config: config,
		logger: logger.WithComponent("rpcserver"),
	}
}

// Start begins serving. It returns once the listener is bound; serving
// continues on a background goroutine until Stop.
func (s *Server) Start() error {
	if s.running.Swap(true) {
		return nil
	}

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddr, err)
	}
	s.listener = listener

	s.grpcServer = grpc.NewServer(
		grpc.ForceServerCodec(Codec{}),
		grpc.MaxRecvMsgSize(s.config.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(s.config.MaxSendMsgSize),
		grpc.ConnectionTimeout(s.config.ConnectionTimeout),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 5 * time.Minute,
			Time:              2 * time.Minute,
			Timeout:           20 * time.Second,
		}),
	)
	s.grpcServer.RegisterService(&serviceDesc, s)

	go func() {
		if err := s.grpcServer.Serve(listener); err != nil {
			s.logger.Error("grpc serve stopped", obslog.Error(err))
		}
	}()

	s.logger.Info("grpc server started", "addr", listener.Addr().String())
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() {
	if !s.running.Swap(false) {
		return
	}
	s.grpcServer.GracefulStop()
	s.logger.Info("grpc server stopped")
}

// Addr returns the bound listener address, for callers that started
// with port 0.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// CallMethod invokes a method on the Orchestrator. Execution failures
// are reported inside the response, not as gRPC errors, matching the
// library's report-don't-raise policy.
func (s *Server) CallMethod(ctx context.Context, req *CallRequest) (*CallResponse, error) {
	res := s.orch.CallMethod(ctx, req.Method, req.Args)
	return &CallResponse{
		Success:     res.Success,
		ReturnValue: res.ReturnValue,
		Events:      res.Events,
		Error:       res.Error,
	}, nil
}

// GetState reads one state key.
func (s *Server) GetState(ctx context.Context, req *GetStateRequest) (*GetStateResponse, error) {
	return &GetStateResponse{Value: s.orch.GetState(req.Key)}, nil
}

// SetState writes one state key.
func (s *Server) SetState(ctx context.Context, req *SetStateRequest) (*SetStateResponse, error) {
	if err := s.orch.SetState(req.Key, req.Value); err != nil {
		return nil, status.Errorf(codes.Internal, "set state: %v", err)
	}
	return &SetStateResponse{OK: true}, nil
}

// CreateSnapshot captures a snapshot of the current state and event log.
func (s *Server) CreateSnapshot(ctx context.Context, req *SnapshotRequest) (*SnapshotResponse, error) {
	snap, err := s.orch.CreateSnapshot(req.BlockHeight)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "create snapshot: %v", err)
	}
	return &SnapshotResponse{Snapshot: snap}, nil
}

// GetABI returns the loaded protocol's derived ABI.
func (s *Server) GetABI(ctx context.Context, req *ABIRequest) (*ABIResponse, error) {
	doc := s.orch.Document()
	if doc == nil {
		return nil, status.Error(codes.FailedPrecondition, "no protocol loaded")
	}
	data, err := doc.ABI().MarshalIndentJSON()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode abi: %v", err)
	}
	return &ABIResponse{ABI: data}, nil
}
