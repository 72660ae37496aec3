package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "intake.v1.IntakeService"

// IntakeServer is the server API of intake.v1.IntakeService. Every method
// takes and returns a google.protobuf.Struct holding the JSON form of the
// wizard types.
type IntakeServer interface {
	StartSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Draft(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Advance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Retreat(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Review(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Submit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EndSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type method func(IntakeServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

var methods = map[string]method{
	"StartSession": IntakeServer.StartSession,
	"GetSession":   IntakeServer.GetSession,
	"Draft":        IntakeServer.Draft,
	"Advance":      IntakeServer.Advance,
	"Retreat":      IntakeServer.Retreat,
	"Review":       IntakeServer.Review,
	"Submit":       IntakeServer.Submit,
	"EndSession":   IntakeServer.EndSession,
}

// ServiceDesc describes intake.v1.IntakeService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IntakeServer)(nil),
	Methods:     methodDescs(),
	Streams:     []grpc.StreamDesc{},
	Metadata:    "intake/v1/intake.proto",
}

// Register mounts srv on s.
func Register(s grpc.ServiceRegistrar, srv IntakeServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func methodDescs() []grpc.MethodDesc {
	names := []string{"StartSession", "GetSession", "Draft", "Advance", "Retreat", "Review", "Submit", "EndSession"}
	out := make([]grpc.MethodDesc, 0, len(names))
	for _, name := range names {
		out = append(out, grpc.MethodDesc{MethodName: name, Handler: unaryHandler(name, methods[name])})
	}
	return out
}

func unaryHandler(name string, call method) grpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(IntakeServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(IntakeServer), ctx, req.(*structpb.Struct))
		})
	}
}

// Client is a typed client for intake.v1.IntakeService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client using cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes the named method with req.
func (c *Client) Call(ctx context.Context, name string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+name, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
