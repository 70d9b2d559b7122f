package rpcserver

import (
	"context"

	"google.golang.org/grpc"
)

// runtimeService is the handler interface the ServiceDesc dispatches
// against; *Server implements it.
type runtimeService interface {
	CallMethod(context.Context, *CallRequest) (*CallResponse, error)
	GetState(context.Context, *GetStateRequest) (*GetStateResponse, error)
	SetState(context.Context, *SetStateRequest) (*SetStateResponse, error)
	CreateSnapshot(context.Context, *SnapshotRequest) (*SnapshotResponse, error)
	GetABI(context.Context, *ABIRequest) (*ABIResponse, error)
}

var _ runtimeService = (*Server)(nil)

// serviceDesc is the hand-written service descriptor; it plays the role
// protoc-generated code usually does.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*runtimeService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CallMethod", Handler: callMethodHandler},
		{MethodName: "GetState", Handler: getStateHandler},
		{MethodName: "SetState", Handler: setStateHandler},
		{MethodName: "CreateSnapshot", Handler: createSnapshotHandler},
		{MethodName: "GetABI", Handler: getABIHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "proto/cardity/v1/runtime.proto",
}

func callMethodHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CallRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(runtimeService).CallMethod(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/CallMethod"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(runtimeService).CallMethod(ctx, req.(*CallRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getStateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetStateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(runtimeService).GetState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetState"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(runtimeService).GetState(ctx, req.(*GetStateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func setStateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SetStateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(runtimeService).SetState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/SetState"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(runtimeService).SetState(ctx, req.(*SetStateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func createSnapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SnapshotRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(runtimeService).CreateSnapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/CreateSnapshot"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(runtimeService).CreateSnapshot(ctx, req.(*SnapshotRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getABIHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ABIRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(runtimeService).GetABI(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetABI"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(runtimeService).GetABI(ctx, req.(*ABIRequest))
	}
	return interceptor(ctx, in, info, handler)
}
