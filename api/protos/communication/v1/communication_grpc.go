package communicationpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	CommunicationService_Configure_FullMethodName       = "/flowpro.tnc.communication.v1.CommunicationService/Configure"
	CommunicationService_PublishChannel_FullMethodName  = "/flowpro.tnc.communication.v1.CommunicationService/PublishChannel"
	CommunicationService_ObserveChannel_FullMethodName  = "/flowpro.tnc.communication.v1.CommunicationService/ObserveChannel"
	CommunicationService_PublishCall_FullMethodName     = "/flowpro.tnc.communication.v1.CommunicationService/PublishCall"
	CommunicationService_ObserveCall_FullMethodName     = "/flowpro.tnc.communication.v1.CommunicationService/ObserveCall"
	CommunicationService_PublishReturn_FullMethodName   = "/flowpro.tnc.communication.v1.CommunicationService/PublishReturn"
	CommunicationService_PublishComplete_FullMethodName = "/flowpro.tnc.communication.v1.CommunicationService/PublishComplete"
)

// CommunicationServiceClient is the client API for CommunicationService.
type CommunicationServiceClient interface {
	Configure(ctx context.Context, in *ConfigureRequest, opts ...grpc.CallOption) (*EventAck, error)
	PublishChannel(ctx context.Context, in *ChannelEvent, opts ...grpc.CallOption) (*EventAck, error)
	ObserveChannel(ctx context.Context, in *ChannelSelector, opts ...grpc.CallOption) (grpc.ServerStreamingClient[ChannelEvent], error)
	PublishCall(ctx context.Context, in *CallEvent, opts ...grpc.CallOption) (grpc.ServerStreamingClient[ReturnEvent], error)
	ObserveCall(ctx context.Context, in *CallSelector, opts ...grpc.CallOption) (grpc.ServerStreamingClient[CallEvent], error)
	PublishReturn(ctx context.Context, in *ReturnEvent, opts ...grpc.CallOption) (*EventAck, error)
	PublishComplete(ctx context.Context, in *CompleteEvent, opts ...grpc.CallOption) (*EventAck, error)
}

type communicationServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCommunicationServiceClient(cc grpc.ClientConnInterface) CommunicationServiceClient {
	return &communicationServiceClient{cc}
}

func (c *communicationServiceClient) Configure(ctx context.Context, in *ConfigureRequest, opts ...grpc.CallOption) (*EventAck, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(EventAck)
	err := c.cc.Invoke(ctx, CommunicationService_Configure_FullMethodName, in, out, cOpts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *communicationServiceClient) PublishChannel(ctx context.Context, in *ChannelEvent, opts ...grpc.CallOption) (*EventAck, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(EventAck)
	err := c.cc.Invoke(ctx, CommunicationService_PublishChannel_FullMethodName, in, out, cOpts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *communicationServiceClient) ObserveChannel(ctx context.Context, in *ChannelSelector, opts ...grpc.CallOption) (grpc.ServerStreamingClient[ChannelEvent], error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	stream, err := c.cc.NewStream(ctx, &CommunicationService_ServiceDesc.Streams[0], CommunicationService_ObserveChannel_FullMethodName, cOpts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[ChannelSelector, ChannelEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *communicationServiceClient) PublishCall(ctx context.Context, in *CallEvent, opts ...grpc.CallOption) (grpc.ServerStreamingClient[ReturnEvent], error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	stream, err := c.cc.NewStream(ctx, &CommunicationService_ServiceDesc.Streams[1], CommunicationService_PublishCall_FullMethodName, cOpts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[CallEvent, ReturnEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *communicationServiceClient) ObserveCall(ctx context.Context, in *CallSelector, opts ...grpc.CallOption) (grpc.ServerStreamingClient[CallEvent], error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	stream, err := c.cc.NewStream(ctx, &CommunicationService_ServiceDesc.Streams[2], CommunicationService_ObserveCall_FullMethodName, cOpts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[CallSelector, CallEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *communicationServiceClient) PublishReturn(ctx context.Context, in *ReturnEvent, opts ...grpc.CallOption) (*EventAck, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(EventAck)
	err := c.cc.Invoke(ctx, CommunicationService_PublishReturn_FullMethodName, in, out, cOpts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *communicationServiceClient) PublishComplete(ctx context.Context, in *CompleteEvent, opts ...grpc.CallOption) (*EventAck, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(EventAck)
	err := c.cc.Invoke(ctx, CommunicationService_PublishComplete_FullMethodName, in, out, cOpts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CommunicationServiceServer is the server API for CommunicationService.
// Implementations must embed UnimplementedCommunicationServiceServer for
// forward compatibility.
type CommunicationServiceServer interface {
	Configure(context.Context, *ConfigureRequest) (*EventAck, error)
	PublishChannel(context.Context, *ChannelEvent) (*EventAck, error)
	ObserveChannel(*ChannelSelector, grpc.ServerStreamingServer[ChannelEvent]) error
	PublishCall(*CallEvent, grpc.ServerStreamingServer[ReturnEvent]) error
	ObserveCall(*CallSelector, grpc.ServerStreamingServer[CallEvent]) error
	PublishReturn(context.Context, *ReturnEvent) (*EventAck, error)
	PublishComplete(context.Context, *CompleteEvent) (*EventAck, error)
	mustEmbedUnimplementedCommunicationServiceServer()
}

// UnimplementedCommunicationServiceServer must be embedded to have forward
// compatible implementations.
type UnimplementedCommunicationServiceServer struct{}

func (UnimplementedCommunicationServiceServer) Configure(context.Context, *ConfigureRequest) (*EventAck, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Configure not implemented")
}

func (UnimplementedCommunicationServiceServer) PublishChannel(context.Context, *ChannelEvent) (*EventAck, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PublishChannel not implemented")
}

func (UnimplementedCommunicationServiceServer) ObserveChannel(*ChannelSelector, grpc.ServerStreamingServer[ChannelEvent]) error {
	return status.Errorf(codes.Unimplemented, "method ObserveChannel not implemented")
}

func (UnimplementedCommunicationServiceServer) PublishCall(*CallEvent, grpc.ServerStreamingServer[ReturnEvent]) error {
	return status.Errorf(codes.Unimplemented, "method PublishCall not implemented")
}

func (UnimplementedCommunicationServiceServer) ObserveCall(*CallSelector, grpc.ServerStreamingServer[CallEvent]) error {
	return status.Errorf(codes.Unimplemented, "method ObserveCall not implemented")
}

func (UnimplementedCommunicationServiceServer) PublishReturn(context.Context, *ReturnEvent) (*EventAck, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PublishReturn not implemented")
}

func (UnimplementedCommunicationServiceServer) PublishComplete(context.Context, *CompleteEvent) (*EventAck, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PublishComplete not implemented")
}

func (UnimplementedCommunicationServiceServer) mustEmbedUnimplementedCommunicationServiceServer() {}

func RegisterCommunicationServiceServer(s grpc.ServiceRegistrar, srv CommunicationServiceServer) {
	s.RegisterService(&CommunicationService_ServiceDesc, srv)
}

func _CommunicationService_Configure_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ConfigureRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CommunicationServiceServer).Configure(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CommunicationService_Configure_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CommunicationServiceServer).Configure(ctx, req.(*ConfigureRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CommunicationService_PublishChannel_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ChannelEvent)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CommunicationServiceServer).PublishChannel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CommunicationService_PublishChannel_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CommunicationServiceServer).PublishChannel(ctx, req.(*ChannelEvent))
	}
	return interceptor(ctx, in, info, handler)
}

func _CommunicationService_ObserveChannel_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(ChannelSelector)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(CommunicationServiceServer).ObserveChannel(m, &grpc.GenericServerStream[ChannelSelector, ChannelEvent]{ServerStream: stream})
}

func _CommunicationService_PublishCall_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(CallEvent)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(CommunicationServiceServer).PublishCall(m, &grpc.GenericServerStream[CallEvent, ReturnEvent]{ServerStream: stream})
}

func _CommunicationService_ObserveCall_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(CallSelector)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(CommunicationServiceServer).ObserveCall(m, &grpc.GenericServerStream[CallSelector, CallEvent]{ServerStream: stream})
}

func _CommunicationService_PublishReturn_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReturnEvent)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CommunicationServiceServer).PublishReturn(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CommunicationService_PublishReturn_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CommunicationServiceServer).PublishReturn(ctx, req.(*ReturnEvent))
	}
	return interceptor(ctx, in, info, handler)
}

func _CommunicationService_PublishComplete_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CompleteEvent)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CommunicationServiceServer).PublishComplete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CommunicationService_PublishComplete_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CommunicationServiceServer).PublishComplete(ctx, req.(*CompleteEvent))
	}
	return interceptor(ctx, in, info, handler)
}

// CommunicationService_ServiceDesc is the grpc.ServiceDesc for
// CommunicationService.
var CommunicationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "flowpro.tnc.communication.v1.CommunicationService",
	HandlerType: (*CommunicationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Configure",
			Handler:    _CommunicationService_Configure_Handler,
		},
		{
			MethodName: "PublishChannel",
			Handler:    _CommunicationService_PublishChannel_Handler,
		},
		{
			MethodName: "PublishReturn",
			Handler:    _CommunicationService_PublishReturn_Handler,
		},
		{
			MethodName: "PublishComplete",
			Handler:    _CommunicationService_PublishComplete_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ObserveChannel",
			Handler:       _CommunicationService_ObserveChannel_Handler,
			ServerStreams: true,
		},
		{
			StreamName:    "PublishCall",
			Handler:       _CommunicationService_PublishCall_Handler,
			ServerStreams: true,
		},
		{
			StreamName:    "ObserveCall",
			Handler:       _CommunicationService_ObserveCall_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "communication/v1/communication.proto",
}
