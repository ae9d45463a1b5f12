package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// GridClient is the client API for GridService.
type GridClient struct {
	cc grpc.ClientConnInterface
}

// NewGridClient wraps cc.
func NewGridClient(cc grpc.ClientConnInterface) *GridClient {
	return &GridClient{cc: cc}
}

// Call invokes method (e.g. "LoadMore") with in. A nil in sends an empty
// Struct.
func (c *GridClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GridClient) LoadMore(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, "LoadMore", in, opts...)
}

func (c *GridClient) Scroll(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, "Scroll", in, opts...)
}

func (c *GridClient) GetWindow(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, "GetWindow", in, opts...)
}

func (c *GridClient) GetRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, "GetRecord", in, opts...)
}

func (c *GridClient) ToggleSelection(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, "ToggleSelection", in, opts...)
}

func (c *GridClient) GetSelection(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, "GetSelection", in, opts...)
}

func (c *GridClient) BeginEdit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, "BeginEdit", in, opts...)
}

func (c *GridClient) CommitEdit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, "CommitEdit", in, opts...)
}

func (c *GridClient) CancelEdit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, "CancelEdit", in, opts...)
}

func (c *GridClient) AddAnnotation(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, "AddAnnotation", in, opts...)
}

func (c *GridClient) ListAnnotations(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, "ListAnnotations", in, opts...)
}

func (c *GridClient) HealthCheck(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, "HealthCheck", in, opts...)
}
