package routingpb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestRequestEventWireShape(t *testing.T) {
	payload, err := anypb.New(wrapperspb.String("lift"))
	require.NoError(t, err)

	in := &RequestEvent{Route: "agv/pick", Payload: payload, RequestId: 7}
	wire, err := proto.Marshal(protoadapt.MessageV2Of(in))
	require.NoError(t, err)

	// Field numbers per routing.proto: route=1 (bytes), payload=2 (bytes),
	// request_id=3 (varint). Fields serialize in number order.
	assert.Equal(t, byte(0x0a), wire[0])
	assert.Equal(t, []byte{0x18, 0x07}, wire[len(wire)-2:])

	out := &RequestEvent{}
	require.NoError(t, proto.Unmarshal(wire, protoadapt.MessageV2Of(out)))
	assert.Equal(t, "agv/pick", out.GetRoute())
	assert.Equal(t, uint32(7), out.GetRequestId())
	assert.True(t, proto.Equal(payload, out.GetPayload()))
}

func TestRoutePolicyNames(t *testing.T) {
	assert.Equal(t, "ROUTE_POLICY_NEXT", RoutePolicy_ROUTE_POLICY_NEXT.String())
	assert.Equal(t, RoutePolicy_ROUTE_POLICY_SINGLE, RoutePolicy(RoutePolicy_value["ROUTE_POLICY_SINGLE"]))
}
