package lifecyclepb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	LifecycleService_TrackAgents_FullMethodName = "/flowpro.tnc.lifecycle.v1.LifecycleService/TrackAgents"
)

// LifecycleServiceClient is the client API for LifecycleService.
type LifecycleServiceClient interface {
	TrackAgents(ctx context.Context, in *AgentSelector, opts ...grpc.CallOption) (grpc.ServerStreamingClient[AgentLifecycleEvent], error)
}

type lifecycleServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewLifecycleServiceClient(cc grpc.ClientConnInterface) LifecycleServiceClient {
	return &lifecycleServiceClient{cc}
}

func (c *lifecycleServiceClient) TrackAgents(ctx context.Context, in *AgentSelector, opts ...grpc.CallOption) (grpc.ServerStreamingClient[AgentLifecycleEvent], error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	stream, err := c.cc.NewStream(ctx, &LifecycleService_ServiceDesc.Streams[0], LifecycleService_TrackAgents_FullMethodName, cOpts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[AgentSelector, AgentLifecycleEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// LifecycleServiceServer is the server API for LifecycleService.
// Implementations must embed UnimplementedLifecycleServiceServer for
// forward compatibility.
type LifecycleServiceServer interface {
	TrackAgents(*AgentSelector, grpc.ServerStreamingServer[AgentLifecycleEvent]) error
	mustEmbedUnimplementedLifecycleServiceServer()
}

// UnimplementedLifecycleServiceServer must be embedded to have forward
// compatible implementations.
type UnimplementedLifecycleServiceServer struct{}

func (UnimplementedLifecycleServiceServer) TrackAgents(*AgentSelector, grpc.ServerStreamingServer[AgentLifecycleEvent]) error {
	return status.Errorf(codes.Unimplemented, "method TrackAgents not implemented")
}

func (UnimplementedLifecycleServiceServer) mustEmbedUnimplementedLifecycleServiceServer() {}

func RegisterLifecycleServiceServer(s grpc.ServiceRegistrar, srv LifecycleServiceServer) {
	s.RegisterService(&LifecycleService_ServiceDesc, srv)
}

func _LifecycleService_TrackAgents_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(AgentSelector)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(LifecycleServiceServer).TrackAgents(m, &grpc.GenericServerStream[AgentSelector, AgentLifecycleEvent]{ServerStream: stream})
}

// LifecycleService_ServiceDesc is the grpc.ServiceDesc for LifecycleService.
var LifecycleService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "flowpro.tnc.lifecycle.v1.LifecycleService",
	HandlerType: (*LifecycleServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "TrackAgents",
			Handler:       _LifecycleService_TrackAgents_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "lifecycle/v1/lifecycle.proto",
}
