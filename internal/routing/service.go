package routing

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	routingpb "github.com/flowpro-icc/tnc-gateway/api/protos/routing/v1"
)

// Service is the RoutingService gRPC surface over the engine. Stream
// termination, whatever its cause, runs exactly one deregistration.
type Service struct {
	routingpb.UnimplementedRoutingServiceServer
	log    *zap.Logger
	engine *Engine
}

// NewService wires the routing service to an engine.
func NewService(engine *Engine, log *zap.Logger) *Service {
	return &Service{log: log.Named("routing.service"), engine: engine}
}

// RegisterPushRoute anchors a push registration on the stream. The stream
// stays open until the client cancels or the server shuts down.
func (s *Service) RegisterPushRoute(route *routingpb.PushRoute, stream grpc.ServerStreamingServer[routingpb.PushEvent]) error {
	reg := s.engine.AddPush(route.GetRoute(), stream.Send)
	defer s.engine.RemovePush(route.GetRoute(), reg)
	<-stream.Context().Done()
	return nil
}

// RegisterRequestRoute anchors a request registration on the stream,
// subject to the route's policy discipline.
func (s *Service) RegisterRequestRoute(route *routingpb.RequestRoute, stream grpc.ServerStreamingServer[routingpb.RequestEvent]) error {
	reg, err := s.engine.AddRequest(route.GetRoute(), route.GetPolicy(), stream.Send)
	if err != nil {
		return err
	}
	defer s.engine.RemoveRequest(route.GetRoute(), reg)
	<-stream.Context().Done()
	return nil
}

// Push delivers a one-way event to every registration of its route.
func (s *Service) Push(_ context.Context, ev *routingpb.PushEvent) (*routingpb.RouteEventAck, error) {
	return &routingpb.RouteEventAck{RoutingCount: s.engine.Push(ev)}, nil
}

// Request dispatches a two-way event and blocks until its response.
func (s *Service) Request(ctx context.Context, ev *routingpb.RequestEvent) (*routingpb.ResponseEvent, error) {
	return s.engine.Request(ctx, ev)
}

// Respond answers a previously dispatched request.
func (s *Service) Respond(_ context.Context, ev *routingpb.ResponseEvent) (*routingpb.RouteEventAck, error) {
	count, err := s.engine.Respond(ev)
	if err != nil {
		return nil, err
	}
	return &routingpb.RouteEventAck{RoutingCount: count}, nil
}
