package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ledgerServiceName = "ledger.v1.LedgerService"

// LedgerServiceServer is the server API for ledger.v1.LedgerService. Messages are
// google.protobuf.Struct documents; field names are snake_case.
type LedgerServiceServer interface {
	RecordMessage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitMessage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PreviewMessage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportTransactions(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(LedgerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ledgerServiceName + "/" + method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LedgerServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LedgerServiceDesc describes ledger.v1.LedgerService for grpc.ServiceRegistrar.
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: ledgerServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "RecordMessage",
			Handler:    unaryHandler("RecordMessage", LedgerServiceServer.RecordMessage),
		},
		{
			MethodName: "SubmitMessage",
			Handler:    unaryHandler("SubmitMessage", LedgerServiceServer.SubmitMessage),
		},
		{
			MethodName: "PreviewMessage",
			Handler:    unaryHandler("PreviewMessage", LedgerServiceServer.PreviewMessage),
		},
		{
			MethodName: "ExportTransactions",
			Handler:    unaryHandler("ExportTransactions", LedgerServiceServer.ExportTransactions),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger/v1/ledger.proto",
}

func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

// LedgerServiceClient calls ledger.v1.LedgerService over a client connection.
type LedgerServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewLedgerServiceClient(cc grpc.ClientConnInterface) *LedgerServiceClient {
	return &LedgerServiceClient{cc: cc}
}

func (c *LedgerServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ledgerServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LedgerServiceClient) RecordMessage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "RecordMessage", in, opts...)
}

func (c *LedgerServiceClient) SubmitMessage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "SubmitMessage", in, opts...)
}

func (c *LedgerServiceClient) PreviewMessage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "PreviewMessage", in, opts...)
}

func (c *LedgerServiceClient) ExportTransactions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ExportTransactions", in, opts...)
}
