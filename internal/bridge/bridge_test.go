package bridge_test

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

	communicationpb "github.com/flowpro-icc/tnc-gateway/api/protos/communication/v1"
	lifecyclepb "github.com/flowpro-icc/tnc-gateway/api/protos/lifecycle/v1"
	"github.com/flowpro-icc/tnc-gateway/internal/bridge"
	"github.com/flowpro-icc/tnc-gateway/internal/bus"
	"github.com/flowpro-icc/tnc-gateway/internal/bus/bustest"
	"github.com/flowpro-icc/tnc-gateway/internal/config"
)

type testGateway struct {
	adapter       *bus.Adapter
	communication communicationpb.CommunicationServiceClient
	lifecycle     lifecyclepb.LifecycleServiceClient
}

// newTestGateway runs one gateway (adapter + bridge services over
// bufconn) against the shared in-memory broker.
func newTestGateway(t *testing.T, broker *bustest.Broker, id, name string) *testGateway {
	t.Helper()
	log := zaptest.NewLogger(t)

	opts := config.BusOptions{
		BrokerURL:         "tcp://bustest:1883",
		Namespace:         "tnc",
		IdentityID:        id,
		IdentityName:      name,
		FailFastIfOffline: true,
	}
	manager := config.NewManager(opts)
	adapter := bus.NewAdapter(opts, log, bus.WithDialer(broker.Dialer()))
	require.NoError(t, adapter.Start())
	t.Cleanup(adapter.Stop)
	require.Eventually(t, adapter.Online, 5*time.Second, time.Millisecond)

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	communicationpb.RegisterCommunicationServiceServer(server, bridge.NewCommunication(adapter, manager, log))
	lifecyclepb.RegisterLifecycleServiceServer(server, bridge.NewLifecycle(adapter, log))
	go server.Serve(lis) //nolint:errcheck
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &testGateway{
		adapter:       adapter,
		communication: communicationpb.NewCommunicationServiceClient(conn),
		lifecycle:     lifecyclepb.NewLifecycleServiceClient(conn),
	}
}

func anyPayload(typeURL string, value []byte) *anypb.Any {
	return &anypb.Any{TypeUrl: "type.googleapis.com/" + typeURL, Value: value}
}

func TestChannelAcrossGateways(t *testing.T) {
	broker := bustest.NewBroker()
	pub := newTestGateway(t, broker, "agent-1", "FM agent")
	obs := newTestGateway(t, broker, "agent-2", "AGV agent 1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := obs.communication.ObserveChannel(ctx, &communicationpb.ChannelSelector{Id: "telemetry"})
	require.NoError(t, err)

	// The observer's bus subscription lands asynchronously with the
	// stream; publish until the first event comes back.
	recvCh := make(chan *communicationpb.ChannelEvent, 1)
	go func() {
		if ev, err := stream.Recv(); err == nil {
			recvCh <- ev
		}
	}()

	payload := anyPayload("flowpro.icc.ftf.FtfStatus", []byte{0x08, 0x01, 0x10, 0x0b})
	var ev *communicationpb.ChannelEvent
	for i := 0; ev == nil && i < 100; i++ {
		_, err := pub.communication.PublishChannel(ctx, &communicationpb.ChannelEvent{Id: "telemetry", Payload: payload})
		require.NoError(t, err)
		select {
		case ev = <-recvCh:
		case <-time.After(50 * time.Millisecond):
		}
	}
	require.NotNil(t, ev, "channel event never delivered")
	assert.Equal(t, "telemetry", ev.GetId())
	assert.Equal(t, payload.TypeUrl, ev.GetPayload().GetTypeUrl())
	assert.Equal(t, "agent-1", ev.GetSourceId())
}

func TestChannelValidation(t *testing.T) {
	broker := bustest.NewBroker()
	gw := newTestGateway(t, broker, "agent-1", "FM agent")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, id := range []string{"", "tele/metry", "tele#", "tele+"} {
		_, err := gw.communication.PublishChannel(ctx, &communicationpb.ChannelEvent{Id: id})
		assert.Equal(t, codes.InvalidArgument, status.Code(err), "id %q", id)
	}
}

func TestFailFastWhenOffline(t *testing.T) {
	broker := bustest.NewBroker()
	gw := newTestGateway(t, broker, "agent-1", "FM agent")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	broker.SetDown(true)
	require.Eventually(t, func() bool { return !gw.adapter.Online() }, 5*time.Second, time.Millisecond)

	_, err := gw.communication.PublishChannel(ctx, &communicationpb.ChannelEvent{Id: "telemetry"})
	require.Error(t, err)
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Unavailable, st.Code())
	assert.Equal(t, "Bus is offline", st.Message())
}

func TestCallReturnMultipleResponses(t *testing.T) {
	broker := bustest.NewBroker()
	caller := newTestGateway(t, broker, "agent-1", "FM agent")
	responder := newTestGateway(t, broker, "agent-2", "AGV agent 1")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	obsStream, err := responder.communication.ObserveCall(ctx, &communicationpb.CallSelector{Operation: "flowpro.icc.ftf.Pick"})
	require.NoError(t, err)

	// The observation's bus subscription lands asynchronously with the
	// stream; publish numbered calls until one is observed, then answer on
	// the stream that sent it.
	recvCh := make(chan *communicationpb.CallEvent, 1)
	go func() {
		if ev, err := obsStream.Recv(); err == nil {
			recvCh <- ev
		}
	}()

	var (
		streams []grpc.ServerStreamingClient[communicationpb.ReturnEvent]
		call    *communicationpb.CallEvent
	)
	for i := 0; call == nil && i < 100; i++ {
		cs, err := caller.communication.PublishCall(ctx, &communicationpb.CallEvent{
			Operation: "flowpro.icc.ftf.Pick",
			Payload:   anyPayload("flowpro.icc.ftf.Pick", []byte{byte(i)}),
		})
		require.NoError(t, err)
		streams = append(streams, cs)
		select {
		case call = <-recvCh:
		case <-time.After(50 * time.Millisecond):
		}
	}
	require.NotNil(t, call, "call never observed")
	callStream := streams[int(call.GetPayload().GetValue()[0])]
	assert.Equal(t, "agent-1", call.GetSourceId())
	require.NotEmpty(t, call.GetCorrelationId(), "observer side allocates a local correlation id")

	// Error first, then data, then Complete.
	_, err = responder.communication.PublishReturn(ctx, &communicationpb.ReturnEvent{
		CorrelationId: call.GetCorrelationId(),
		Error:         &communicationpb.CallError{Code: 14, Message: "arm busy"},
	})
	require.NoError(t, err)
	_, err = responder.communication.PublishReturn(ctx, &communicationpb.ReturnEvent{
		CorrelationId: call.GetCorrelationId(),
		Payload:       anyPayload("flowpro.icc.ftf.PickResult", []byte{0x08, 0x02}),
	})
	require.NoError(t, err)
	_, err = responder.communication.PublishComplete(ctx, &communicationpb.CompleteEvent{CorrelationId: call.GetCorrelationId()})
	require.NoError(t, err)

	first, err := callStream.Recv()
	require.NoError(t, err)
	require.NotNil(t, first.GetError())
	assert.Equal(t, "arm busy", first.GetError().GetMessage())

	second, err := callStream.Recv()
	require.NoError(t, err)
	require.Nil(t, second.GetError())
	assert.Equal(t, "type.googleapis.com/flowpro.icc.ftf.PickResult", second.GetPayload().GetTypeUrl())

	// Complete released the sink without ending the caller's stream: a
	// repeat Complete still acks, and a late Return is silently dropped.
	_, err = responder.communication.PublishComplete(ctx, &communicationpb.CompleteEvent{CorrelationId: call.GetCorrelationId()})
	require.NoError(t, err)
	_, err = responder.communication.PublishReturn(ctx, &communicationpb.ReturnEvent{
		CorrelationId: call.GetCorrelationId(),
		Payload:       anyPayload("flowpro.icc.ftf.PickResult", []byte{0x08, 0x03}),
	})
	require.NoError(t, err)
}

func TestTrackAgentsRegexSnapshot(t *testing.T) {
	broker := bustest.NewBroker()
	fm := newTestGateway(t, broker, "agent-1", "FM agent")
	newTestGateway(t, broker, "agent-2", "AGV agent 1")
	newTestGateway(t, broker, "agent-3", "AGV agent 2")

	// Wait for all three retained identities to land in the registry.
	require.Eventually(t, func() bool {
		agents, _, cancel := fm.adapter.ObserveAgents()
		cancel()
		return len(agents) == 3
	}, 5*time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, err := fm.lifecycle.TrackAgents(ctx, &lifecyclepb.AgentSelector{IdentityName: "/^AGV agent.*$/"})
	require.NoError(t, err)

	var names []string
	for i := 0; i < 2; i++ {
		ev, err := stream.Recv()
		require.NoError(t, err)
		assert.Equal(t, lifecyclepb.AgentLifecycleState_AGENT_LIFECYCLE_STATE_JOIN, ev.GetState())
		assert.False(t, ev.GetIdentity().GetLocal())
		names = append(names, ev.GetIdentity().GetName())
	}
	assert.ElementsMatch(t, []string{"AGV agent 1", "AGV agent 2"}, names)
}

func TestTrackAgentsInvalidRegex(t *testing.T) {
	broker := bustest.NewBroker()
	gw := newTestGateway(t, broker, "agent-1", "FM agent")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream, err := gw.lifecycle.TrackAgents(ctx, &lifecyclepb.AgentSelector{IdentityName: "/[unclosed/"})
	require.NoError(t, err)
	_, err = stream.Recv()
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestConfigureIdentityChange(t *testing.T) {
	broker := bustest.NewBroker()
	watcher := newTestGateway(t, broker, "agent-1", "FM agent")
	target := newTestGateway(t, broker, "agent-2", "AGV agent 1")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stream, err := watcher.lifecycle.TrackAgents(ctx, &lifecyclepb.AgentSelector{IdentityId: "agent-2"})
	require.NoError(t, err)

	// Initial JOIN of the tracked agent.
	ev, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, lifecyclepb.AgentLifecycleState_AGENT_LIFECYCLE_STATE_JOIN, ev.GetState())

	_, err = target.communication.Configure(ctx, &communicationpb.ConfigureRequest{IdentityName: "AGV agent 2"})
	require.NoError(t, err)

	// The restart surfaces as LEAVE of the old identity, JOIN of the new.
	ev, err = stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, lifecyclepb.AgentLifecycleState_AGENT_LIFECYCLE_STATE_LEAVE, ev.GetState())
	assert.Equal(t, "AGV agent 1", ev.GetIdentity().GetName())

	ev, err = stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, lifecyclepb.AgentLifecycleState_AGENT_LIFECYCLE_STATE_JOIN, ev.GetState())
	assert.Equal(t, "AGV agent 2", ev.GetIdentity().GetName())
}
