package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "datagrid.v1.GridService"

// GridServer is the server API for the grid service. Every method takes and
// returns a protobuf Struct; handlers.go documents the fields.
type GridServer interface {
	LoadMore(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Scroll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetWindow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ToggleSelection(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSelection(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BeginEdit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CommitEdit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelEdit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddAnnotation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAnnotations(context.Context, *structpb.Struct) (*structpb.Struct, error)
	HealthCheck(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedGridServer answers every method with codes.Unimplemented.
// Embed it to stay forward compatible.
type UnimplementedGridServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedGridServer) LoadMore(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("LoadMore")
}
func (UnimplementedGridServer) Scroll(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("Scroll")
}
func (UnimplementedGridServer) GetWindow(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("GetWindow")
}
func (UnimplementedGridServer) GetRecord(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("GetRecord")
}
func (UnimplementedGridServer) ToggleSelection(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("ToggleSelection")
}
func (UnimplementedGridServer) GetSelection(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("GetSelection")
}
func (UnimplementedGridServer) BeginEdit(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("BeginEdit")
}
func (UnimplementedGridServer) CommitEdit(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("CommitEdit")
}
func (UnimplementedGridServer) CancelEdit(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("CancelEdit")
}
func (UnimplementedGridServer) AddAnnotation(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("AddAnnotation")
}
func (UnimplementedGridServer) ListAnnotations(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("ListAnnotations")
}
func (UnimplementedGridServer) HealthCheck(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("HealthCheck")
}

type unaryMethod func(GridServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(GridServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(GridServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// GridServiceDesc describes GridService for grpc.Server registration.
var GridServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GridServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("LoadMore", GridServer.LoadMore),
		unary("Scroll", GridServer.Scroll),
		unary("GetWindow", GridServer.GetWindow),
		unary("GetRecord", GridServer.GetRecord),
		unary("ToggleSelection", GridServer.ToggleSelection),
		unary("GetSelection", GridServer.GetSelection),
		unary("BeginEdit", GridServer.BeginEdit),
		unary("CommitEdit", GridServer.CommitEdit),
		unary("CancelEdit", GridServer.CancelEdit),
		unary("AddAnnotation", GridServer.AddAnnotation),
		unary("ListAnnotations", GridServer.ListAnnotations),
		unary("HealthCheck", GridServer.HealthCheck),
	},
	Metadata: "datagrid/v1/grid.proto",
}

// RegisterGridServer registers srv on s.
func RegisterGridServer(s grpc.ServiceRegistrar, srv GridServer) {
	s.RegisterService(&GridServiceDesc, srv)
}
