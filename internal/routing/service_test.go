package routing

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/anypb"

	routingpb "github.com/flowpro-icc/tnc-gateway/api/protos/routing/v1"
)

func dialService(t *testing.T) routingpb.RoutingServiceClient {
	t.Helper()
	log := zaptest.NewLogger(t)
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	routingpb.RegisterRoutingServiceServer(server, NewService(NewEngine(log, 1), log))
	go server.Serve(lis) //nolint:errcheck
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return routingpb.NewRoutingServiceClient(conn)
}

func TestServicePushFanOut(t *testing.T) {
	client := dialService(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	const route = "flowpro.icc.ftf.FtfStatus"

	streamCtx1, cancel1 := context.WithCancel(ctx)
	defer cancel1()
	s1, err := client.RegisterPushRoute(streamCtx1, &routingpb.PushRoute{Route: route})
	require.NoError(t, err)
	s2, err := client.RegisterPushRoute(ctx, &routingpb.PushRoute{Route: route})
	require.NoError(t, err)

	// The registrations land asynchronously; push until both are live.
	payload := &anypb.Any{TypeUrl: "type.googleapis.com/" + route, Value: []byte{0x08, 0x01, 0x10, 0x0b}}
	require.Eventually(t, func() bool {
		ack, err := client.Push(ctx, &routingpb.PushEvent{Route: route, Payload: payload})
		return err == nil && ack.GetRoutingCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	ev, err := s1.Recv()
	require.NoError(t, err)
	assert.Equal(t, payload.TypeUrl, ev.GetPayload().GetTypeUrl())
	_, err = s2.Recv()
	require.NoError(t, err)

	// One registration cancels; the count drops with it.
	cancel1()
	require.Eventually(t, func() bool {
		ack, err := client.Push(ctx, &routingpb.PushEvent{Route: route, Payload: payload})
		return err == nil && ack.GetRoutingCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServiceRequestRespond(t *testing.T) {
	client := dialService(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	const route = "flowpro.icc.ftf.Add"

	stream, err := client.RegisterRequestRoute(ctx, &routingpb.RequestRoute{
		Route:  route,
		Policy: routingpb.RoutePolicy_ROUTE_POLICY_SINGLE,
	})
	require.NoError(t, err)

	// Responder: echo the payload back under the request id.
	go func() {
		for {
			req, err := stream.Recv()
			if err != nil {
				return
			}
			_, _ = client.Respond(ctx, &routingpb.ResponseEvent{
				Route:     route,
				Payload:   req.GetPayload(),
				RequestId: req.GetRequestId(),
			})
		}
	}()

	payload := &anypb.Any{TypeUrl: "type.googleapis.com/" + route, Value: []byte{0x08, 0x2c}}
	var resp *routingpb.ResponseEvent
	require.Eventually(t, func() bool {
		resp, err = client.Request(ctx, &routingpb.RequestEvent{Route: route, Payload: payload})
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, payload.TypeUrl, resp.GetPayload().GetTypeUrl())
	assert.Zero(t, resp.GetRequestId())
}

func TestServiceRejectsSecondSingleRegistration(t *testing.T) {
	client := dialService(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	const route = "flowpro.icc.ftf.Add"

	first, err := client.RegisterRequestRoute(ctx, &routingpb.RequestRoute{
		Route:  route,
		Policy: routingpb.RoutePolicy_ROUTE_POLICY_SINGLE,
	})
	require.NoError(t, err)

	// Make sure the first registration is anchored before racing it.
	require.Eventually(t, func() bool {
		second, err := client.RegisterRequestRoute(ctx, &routingpb.RequestRoute{
			Route:  route,
			Policy: routingpb.RoutePolicy_ROUTE_POLICY_SINGLE,
		})
		if err != nil {
			return false
		}
		_, err = second.Recv()
		return status.Code(err) == codes.InvalidArgument
	}, 2*time.Second, 10*time.Millisecond)

	_ = first
}
