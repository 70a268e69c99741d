package consensuspb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ConsensusService_Create_FullMethodName                      = "/flowpro.tnc.consensus.v1.ConsensusService/Create"
	ConsensusService_Connect_FullMethodName                     = "/flowpro.tnc.consensus.v1.ConsensusService/Connect"
	ConsensusService_Disconnect_FullMethodName                  = "/flowpro.tnc.consensus.v1.ConsensusService/Disconnect"
	ConsensusService_Stop_FullMethodName                        = "/flowpro.tnc.consensus.v1.ConsensusService/Stop"
	ConsensusService_Propose_FullMethodName                     = "/flowpro.tnc.consensus.v1.ConsensusService/Propose"
	ConsensusService_GetState_FullMethodName                    = "/flowpro.tnc.consensus.v1.ConsensusService/GetState"
	ConsensusService_ObserveState_FullMethodName                = "/flowpro.tnc.consensus.v1.ConsensusService/ObserveState"
	ConsensusService_GetClusterConfiguration_FullMethodName     = "/flowpro.tnc.consensus.v1.ConsensusService/GetClusterConfiguration"
	ConsensusService_ObserveClusterConfiguration_FullMethodName = "/flowpro.tnc.consensus.v1.ConsensusService/ObserveClusterConfiguration"
)

// ConsensusServiceClient is the client API for ConsensusService.
type ConsensusServiceClient interface {
	Create(ctx context.Context, in *CreateNodeRequest, opts ...grpc.CallOption) (*CreateNodeReply, error)
	Connect(ctx context.Context, in *NodeRef, opts ...grpc.CallOption) (*NodeAck, error)
	Disconnect(ctx context.Context, in *NodeRef, opts ...grpc.CallOption) (*NodeAck, error)
	Stop(ctx context.Context, in *NodeRef, opts ...grpc.CallOption) (*NodeAck, error)
	Propose(ctx context.Context, in *ProposeRequest, opts ...grpc.CallOption) (*RaftState, error)
	GetState(ctx context.Context, in *NodeRef, opts ...grpc.CallOption) (*RaftState, error)
	ObserveState(ctx context.Context, in *NodeRef, opts ...grpc.CallOption) (grpc.ServerStreamingClient[RaftState], error)
	GetClusterConfiguration(ctx context.Context, in *NodeRef, opts ...grpc.CallOption) (*ClusterConfiguration, error)
	ObserveClusterConfiguration(ctx context.Context, in *NodeRef, opts ...grpc.CallOption) (grpc.ServerStreamingClient[ClusterConfiguration], error)
}

type consensusServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewConsensusServiceClient(cc grpc.ClientConnInterface) ConsensusServiceClient {
	return &consensusServiceClient{cc}
}

func (c *consensusServiceClient) Create(ctx context.Context, in *CreateNodeRequest, opts ...grpc.CallOption) (*CreateNodeReply, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(CreateNodeReply)
	err := c.cc.Invoke(ctx, ConsensusService_Create_FullMethodName, in, out, cOpts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *consensusServiceClient) Connect(ctx context.Context, in *NodeRef, opts ...grpc.CallOption) (*NodeAck, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(NodeAck)
	err := c.cc.Invoke(ctx, ConsensusService_Connect_FullMethodName, in, out, cOpts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *consensusServiceClient) Disconnect(ctx context.Context, in *NodeRef, opts ...grpc.CallOption) (*NodeAck, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(NodeAck)
	err := c.cc.Invoke(ctx, ConsensusService_Disconnect_FullMethodName, in, out, cOpts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *consensusServiceClient) Stop(ctx context.Context, in *NodeRef, opts ...grpc.CallOption) (*NodeAck, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(NodeAck)
	err := c.cc.Invoke(ctx, ConsensusService_Stop_FullMethodName, in, out, cOpts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *consensusServiceClient) Propose(ctx context.Context, in *ProposeRequest, opts ...grpc.CallOption) (*RaftState, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(RaftState)
	err := c.cc.Invoke(ctx, ConsensusService_Propose_FullMethodName, in, out, cOpts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *consensusServiceClient) GetState(ctx context.Context, in *NodeRef, opts ...grpc.CallOption) (*RaftState, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(RaftState)
	err := c.cc.Invoke(ctx, ConsensusService_GetState_FullMethodName, in, out, cOpts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *consensusServiceClient) ObserveState(ctx context.Context, in *NodeRef, opts ...grpc.CallOption) (grpc.ServerStreamingClient[RaftState], error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	stream, err := c.cc.NewStream(ctx, &ConsensusService_ServiceDesc.Streams[0], ConsensusService_ObserveState_FullMethodName, cOpts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[NodeRef, RaftState]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *consensusServiceClient) GetClusterConfiguration(ctx context.Context, in *NodeRef, opts ...grpc.CallOption) (*ClusterConfiguration, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(ClusterConfiguration)
	err := c.cc.Invoke(ctx, ConsensusService_GetClusterConfiguration_FullMethodName, in, out, cOpts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *consensusServiceClient) ObserveClusterConfiguration(ctx context.Context, in *NodeRef, opts ...grpc.CallOption) (grpc.ServerStreamingClient[ClusterConfiguration], error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	stream, err := c.cc.NewStream(ctx, &ConsensusService_ServiceDesc.Streams[1], ConsensusService_ObserveClusterConfiguration_FullMethodName, cOpts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[NodeRef, ClusterConfiguration]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// ConsensusServiceServer is the server API for ConsensusService.
// Implementations must embed UnimplementedConsensusServiceServer for
// forward compatibility.
type ConsensusServiceServer interface {
	Create(context.Context, *CreateNodeRequest) (*CreateNodeReply, error)
	Connect(context.Context, *NodeRef) (*NodeAck, error)
	Disconnect(context.Context, *NodeRef) (*NodeAck, error)
	Stop(context.Context, *NodeRef) (*NodeAck, error)
	Propose(context.Context, *ProposeRequest) (*RaftState, error)
	GetState(context.Context, *NodeRef) (*RaftState, error)
	ObserveState(*NodeRef, grpc.ServerStreamingServer[RaftState]) error
	GetClusterConfiguration(context.Context, *NodeRef) (*ClusterConfiguration, error)
	ObserveClusterConfiguration(*NodeRef, grpc.ServerStreamingServer[ClusterConfiguration]) error
	mustEmbedUnimplementedConsensusServiceServer()
}

// UnimplementedConsensusServiceServer must be embedded to have forward
// compatible implementations.
type UnimplementedConsensusServiceServer struct{}

func (UnimplementedConsensusServiceServer) Create(context.Context, *CreateNodeRequest) (*CreateNodeReply, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Create not implemented")
}

func (UnimplementedConsensusServiceServer) Connect(context.Context, *NodeRef) (*NodeAck, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Connect not implemented")
}

func (UnimplementedConsensusServiceServer) Disconnect(context.Context, *NodeRef) (*NodeAck, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Disconnect not implemented")
}

func (UnimplementedConsensusServiceServer) Stop(context.Context, *NodeRef) (*NodeAck, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Stop not implemented")
}

func (UnimplementedConsensusServiceServer) Propose(context.Context, *ProposeRequest) (*RaftState, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Propose not implemented")
}

func (UnimplementedConsensusServiceServer) GetState(context.Context, *NodeRef) (*RaftState, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetState not implemented")
}

func (UnimplementedConsensusServiceServer) ObserveState(*NodeRef, grpc.ServerStreamingServer[RaftState]) error {
	return status.Errorf(codes.Unimplemented, "method ObserveState not implemented")
}

func (UnimplementedConsensusServiceServer) GetClusterConfiguration(context.Context, *NodeRef) (*ClusterConfiguration, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetClusterConfiguration not implemented")
}

func (UnimplementedConsensusServiceServer) ObserveClusterConfiguration(*NodeRef, grpc.ServerStreamingServer[ClusterConfiguration]) error {
	return status.Errorf(codes.Unimplemented, "method ObserveClusterConfiguration not implemented")
}

func (UnimplementedConsensusServiceServer) mustEmbedUnimplementedConsensusServiceServer() {}

func RegisterConsensusServiceServer(s grpc.ServiceRegistrar, srv ConsensusServiceServer) {
	s.RegisterService(&ConsensusService_ServiceDesc, srv)
}

func _ConsensusService_Create_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CreateNodeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConsensusServiceServer).Create(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ConsensusService_Create_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ConsensusServiceServer).Create(ctx, req.(*CreateNodeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ConsensusService_Connect_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(NodeRef)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConsensusServiceServer).Connect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ConsensusService_Connect_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ConsensusServiceServer).Connect(ctx, req.(*NodeRef))
	}
	return interceptor(ctx, in, info, handler)
}

func _ConsensusService_Disconnect_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(NodeRef)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConsensusServiceServer).Disconnect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ConsensusService_Disconnect_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ConsensusServiceServer).Disconnect(ctx, req.(*NodeRef))
	}
	return interceptor(ctx, in, info, handler)
}

func _ConsensusService_Stop_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(NodeRef)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConsensusServiceServer).Stop(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ConsensusService_Stop_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ConsensusServiceServer).Stop(ctx, req.(*NodeRef))
	}
	return interceptor(ctx, in, info, handler)
}

func _ConsensusService_Propose_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ProposeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConsensusServiceServer).Propose(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ConsensusService_Propose_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ConsensusServiceServer).Propose(ctx, req.(*ProposeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ConsensusService_GetState_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(NodeRef)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConsensusServiceServer).GetState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ConsensusService_GetState_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ConsensusServiceServer).GetState(ctx, req.(*NodeRef))
	}
	return interceptor(ctx, in, info, handler)
}

func _ConsensusService_ObserveState_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(NodeRef)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ConsensusServiceServer).ObserveState(m, &grpc.GenericServerStream[NodeRef, RaftState]{ServerStream: stream})
}

func _ConsensusService_GetClusterConfiguration_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(NodeRef)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConsensusServiceServer).GetClusterConfiguration(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ConsensusService_GetClusterConfiguration_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ConsensusServiceServer).GetClusterConfiguration(ctx, req.(*NodeRef))
	}
	return interceptor(ctx, in, info, handler)
}

func _ConsensusService_ObserveClusterConfiguration_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(NodeRef)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ConsensusServiceServer).ObserveClusterConfiguration(m, &grpc.GenericServerStream[NodeRef, ClusterConfiguration]{ServerStream: stream})
}

// ConsensusService_ServiceDesc is the grpc.ServiceDesc for ConsensusService.
var ConsensusService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "flowpro.tnc.consensus.v1.ConsensusService",
	HandlerType: (*ConsensusServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Create",
			Handler:    _ConsensusService_Create_Handler,
		},
		{
			MethodName: "Connect",
			Handler:    _ConsensusService_Connect_Handler,
		},
		{
			MethodName: "Disconnect",
			Handler:    _ConsensusService_Disconnect_Handler,
		},
		{
			MethodName: "Stop",
			Handler:    _ConsensusService_Stop_Handler,
		},
		{
			MethodName: "Propose",
			Handler:    _ConsensusService_Propose_Handler,
		},
		{
			MethodName: "GetState",
			Handler:    _ConsensusService_GetState_Handler,
		},
		{
			MethodName: "GetClusterConfiguration",
			Handler:    _ConsensusService_GetClusterConfiguration_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ObserveState",
			Handler:       _ConsensusService_ObserveState_Handler,
			ServerStreams: true,
		},
		{
			StreamName:    "ObserveClusterConfiguration",
			Handler:       _ConsensusService_ObserveClusterConfiguration_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "consensus/v1/consensus.proto",
}
