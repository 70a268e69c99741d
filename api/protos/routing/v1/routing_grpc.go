package routingpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	RoutingService_RegisterPushRoute_FullMethodName    = "/flowpro.tnc.routing.v1.RoutingService/RegisterPushRoute"
	RoutingService_RegisterRequestRoute_FullMethodName = "/flowpro.tnc.routing.v1.RoutingService/RegisterRequestRoute"
	RoutingService_Push_FullMethodName                 = "/flowpro.tnc.routing.v1.RoutingService/Push"
	RoutingService_Request_FullMethodName              = "/flowpro.tnc.routing.v1.RoutingService/Request"
	RoutingService_Respond_FullMethodName              = "/flowpro.tnc.routing.v1.RoutingService/Respond"
)

// RoutingServiceClient is the client API for RoutingService.
type RoutingServiceClient interface {
	RegisterPushRoute(ctx context.Context, in *PushRoute, opts ...grpc.CallOption) (grpc.ServerStreamingClient[PushEvent], error)
	RegisterRequestRoute(ctx context.Context, in *RequestRoute, opts ...grpc.CallOption) (grpc.ServerStreamingClient[RequestEvent], error)
	Push(ctx context.Context, in *PushEvent, opts ...grpc.CallOption) (*RouteEventAck, error)
	Request(ctx context.Context, in *RequestEvent, opts ...grpc.CallOption) (*ResponseEvent, error)
	Respond(ctx context.Context, in *ResponseEvent, opts ...grpc.CallOption) (*RouteEventAck, error)
}

type routingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewRoutingServiceClient(cc grpc.ClientConnInterface) RoutingServiceClient {
	return &routingServiceClient{cc}
}

func (c *routingServiceClient) RegisterPushRoute(ctx context.Context, in *PushRoute, opts ...grpc.CallOption) (grpc.ServerStreamingClient[PushEvent], error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	stream, err := c.cc.NewStream(ctx, &RoutingService_ServiceDesc.Streams[0], RoutingService_RegisterPushRoute_FullMethodName, cOpts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[PushRoute, PushEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *routingServiceClient) RegisterRequestRoute(ctx context.Context, in *RequestRoute, opts ...grpc.CallOption) (grpc.ServerStreamingClient[RequestEvent], error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	stream, err := c.cc.NewStream(ctx, &RoutingService_ServiceDesc.Streams[1], RoutingService_RegisterRequestRoute_FullMethodName, cOpts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[RequestRoute, RequestEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *routingServiceClient) Push(ctx context.Context, in *PushEvent, opts ...grpc.CallOption) (*RouteEventAck, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(RouteEventAck)
	err := c.cc.Invoke(ctx, RoutingService_Push_FullMethodName, in, out, cOpts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *routingServiceClient) Request(ctx context.Context, in *RequestEvent, opts ...grpc.CallOption) (*ResponseEvent, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(ResponseEvent)
	err := c.cc.Invoke(ctx, RoutingService_Request_FullMethodName, in, out, cOpts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *routingServiceClient) Respond(ctx context.Context, in *ResponseEvent, opts ...grpc.CallOption) (*RouteEventAck, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(RouteEventAck)
	err := c.cc.Invoke(ctx, RoutingService_Respond_FullMethodName, in, out, cOpts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RoutingServiceServer is the server API for RoutingService. Implementations
// must embed UnimplementedRoutingServiceServer for forward compatibility.
type RoutingServiceServer interface {
	RegisterPushRoute(*PushRoute, grpc.ServerStreamingServer[PushEvent]) error
	RegisterRequestRoute(*RequestRoute, grpc.ServerStreamingServer[RequestEvent]) error
	Push(context.Context, *PushEvent) (*RouteEventAck, error)
	Request(context.Context, *RequestEvent) (*ResponseEvent, error)
	Respond(context.Context, *ResponseEvent) (*RouteEventAck, error)
	mustEmbedUnimplementedRoutingServiceServer()
}

// UnimplementedRoutingServiceServer must be embedded to have forward
// compatible implementations.
type UnimplementedRoutingServiceServer struct{}

func (UnimplementedRoutingServiceServer) RegisterPushRoute(*PushRoute, grpc.ServerStreamingServer[PushEvent]) error {
	return status.Errorf(codes.Unimplemented, "method RegisterPushRoute not implemented")
}

func (UnimplementedRoutingServiceServer) RegisterRequestRoute(*RequestRoute, grpc.ServerStreamingServer[RequestEvent]) error {
	return status.Errorf(codes.Unimplemented, "method RegisterRequestRoute not implemented")
}

func (UnimplementedRoutingServiceServer) Push(context.Context, *PushEvent) (*RouteEventAck, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Push not implemented")
}

func (UnimplementedRoutingServiceServer) Request(context.Context, *RequestEvent) (*ResponseEvent, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Request not implemented")
}

func (UnimplementedRoutingServiceServer) Respond(context.Context, *ResponseEvent) (*RouteEventAck, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Respond not implemented")
}

func (UnimplementedRoutingServiceServer) mustEmbedUnimplementedRoutingServiceServer() {}

func RegisterRoutingServiceServer(s grpc.ServiceRegistrar, srv RoutingServiceServer) {
	s.RegisterService(&RoutingService_ServiceDesc, srv)
}

func _RoutingService_RegisterPushRoute_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(PushRoute)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(RoutingServiceServer).RegisterPushRoute(m, &grpc.GenericServerStream[PushRoute, PushEvent]{ServerStream: stream})
}

func _RoutingService_RegisterRequestRoute_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(RequestRoute)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(RoutingServiceServer).RegisterRequestRoute(m, &grpc.GenericServerStream[RequestRoute, RequestEvent]{ServerStream: stream})
}

func _RoutingService_Push_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PushEvent)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoutingServiceServer).Push(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: RoutingService_Push_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RoutingServiceServer).Push(ctx, req.(*PushEvent))
	}
	return interceptor(ctx, in, info, handler)
}

func _RoutingService_Request_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RequestEvent)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoutingServiceServer).Request(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: RoutingService_Request_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RoutingServiceServer).Request(ctx, req.(*RequestEvent))
	}
	return interceptor(ctx, in, info, handler)
}

func _RoutingService_Respond_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ResponseEvent)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoutingServiceServer).Respond(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: RoutingService_Respond_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RoutingServiceServer).Respond(ctx, req.(*ResponseEvent))
	}
	return interceptor(ctx, in, info, handler)
}

// RoutingService_ServiceDesc is the grpc.ServiceDesc for RoutingService.
var RoutingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "flowpro.tnc.routing.v1.RoutingService",
	HandlerType: (*RoutingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Push",
			Handler:    _RoutingService_Push_Handler,
		},
		{
			MethodName: "Request",
			Handler:    _RoutingService_Request_Handler,
		},
		{
			MethodName: "Respond",
			Handler:    _RoutingService_Respond_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "RegisterPushRoute",
			Handler:       _RoutingService_RegisterPushRoute_Handler,
			ServerStreams: true,
		},
		{
			StreamName:    "RegisterRequestRoute",
			Handler:       _RoutingService_RegisterRequestRoute_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "routing/v1/routing.proto",
}
