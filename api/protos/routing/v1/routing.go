// Package routingpb contains the Go bindings for routing/v1/routing.proto.
//
// The bindings are maintained by hand against the .proto contract (shipped
// alongside and embedded into the binary) so the module builds without a
// protoc toolchain. Wire compatibility comes from the protobuf struct tags;
// the structs satisfy the legacy message interface the grpc proto codec
// accepts.
package routingpb

import (
	"strconv"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/known/anypb"
)

// RoutePolicy selects which registration of a request route group a
// request is dispatched to.
type RoutePolicy int32

const (
	// RoutePolicy_ROUTE_POLICY_SINGLE admits at most one registration per route.
	RoutePolicy_ROUTE_POLICY_SINGLE RoutePolicy = 0
	// RoutePolicy_ROUTE_POLICY_FIRST dispatches to the earliest live registration.
	RoutePolicy_ROUTE_POLICY_FIRST RoutePolicy = 1
	// RoutePolicy_ROUTE_POLICY_LAST dispatches to the most recent registration.
	RoutePolicy_ROUTE_POLICY_LAST RoutePolicy = 2
	// RoutePolicy_ROUTE_POLICY_NEXT dispatches round robin.
	RoutePolicy_ROUTE_POLICY_NEXT RoutePolicy = 3
	// RoutePolicy_ROUTE_POLICY_RANDOM dispatches to a uniformly random registration.
	RoutePolicy_ROUTE_POLICY_RANDOM RoutePolicy = 4
)

var (
	RoutePolicy_name = map[int32]string{
		0: "ROUTE_POLICY_SINGLE",
		1: "ROUTE_POLICY_FIRST",
		2: "ROUTE_POLICY_LAST",
		3: "ROUTE_POLICY_NEXT",
		4: "ROUTE_POLICY_RANDOM",
	}
	RoutePolicy_value = map[string]int32{
		"ROUTE_POLICY_SINGLE": 0,
		"ROUTE_POLICY_FIRST":  1,
		"ROUTE_POLICY_LAST":   2,
		"ROUTE_POLICY_NEXT":   3,
		"ROUTE_POLICY_RANDOM": 4,
	}
)

func (x RoutePolicy) String() string {
	if s, ok := RoutePolicy_name[int32(x)]; ok {
		return s
	}
	return strconv.Itoa(int(x))
}

// PushRoute identifies a push route to register on.
type PushRoute struct {
	Route string `protobuf:"bytes,1,opt,name=route,proto3" json:"route,omitempty"`
}

func (m *PushRoute) Reset()         { *m = PushRoute{} }
func (m *PushRoute) String() string { return msgString(m) }
func (*PushRoute) ProtoMessage()    {}

func (m *PushRoute) GetRoute() string {
	if m != nil {
		return m.Route
	}
	return ""
}

// RequestRoute identifies a request route and the policy of its group.
type RequestRoute struct {
	Route  string      `protobuf:"bytes,1,opt,name=route,proto3" json:"route,omitempty"`
	Policy RoutePolicy `protobuf:"varint,2,opt,name=policy,proto3,enum=flowpro.tnc.routing.v1.RoutePolicy" json:"policy,omitempty"`
}

func (m *RequestRoute) Reset()         { *m = RequestRoute{} }
func (m *RequestRoute) String() string { return msgString(m) }
func (*RequestRoute) ProtoMessage()    {}

func (m *RequestRoute) GetRoute() string {
	if m != nil {
		return m.Route
	}
	return ""
}

func (m *RequestRoute) GetPolicy() RoutePolicy {
	if m != nil {
		return m.Policy
	}
	return RoutePolicy_ROUTE_POLICY_SINGLE
}

// PushEvent is an opaque payload addressed to a push route.
type PushEvent struct {
	Route   string     `protobuf:"bytes,1,opt,name=route,proto3" json:"route,omitempty"`
	Payload *anypb.Any `protobuf:"bytes,2,opt,name=payload,proto3" json:"payload,omitempty"`
}

func (m *PushEvent) Reset()         { *m = PushEvent{} }
func (m *PushEvent) String() string { return msgString(m) }
func (*PushEvent) ProtoMessage()    {}

func (m *PushEvent) GetRoute() string {
	if m != nil {
		return m.Route
	}
	return ""
}

func (m *PushEvent) GetPayload() *anypb.Any {
	if m != nil {
		return m.Payload
	}
	return nil
}

// RequestEvent is an opaque payload addressed to a request route. The
// request id correlates the eventual response; it is assigned by the
// gateway on dispatch and ignored on Request input.
type RequestEvent struct {
	Route     string     `protobuf:"bytes,1,opt,name=route,proto3" json:"route,omitempty"`
	Payload   *anypb.Any `protobuf:"bytes,2,opt,name=payload,proto3" json:"payload,omitempty"`
	RequestId uint32     `protobuf:"varint,3,opt,name=request_id,json=requestId,proto3" json:"request_id,omitempty"`
}

func (m *RequestEvent) Reset()         { *m = RequestEvent{} }
func (m *RequestEvent) String() string { return msgString(m) }
func (*RequestEvent) ProtoMessage()    {}

func (m *RequestEvent) GetRoute() string {
	if m != nil {
		return m.Route
	}
	return ""
}

func (m *RequestEvent) GetPayload() *anypb.Any {
	if m != nil {
		return m.Payload
	}
	return nil
}

func (m *RequestEvent) GetRequestId() uint32 {
	if m != nil {
		return m.RequestId
	}
	return 0
}

// ResponseEvent answers a dispatched RequestEvent. When used with Respond
// the request id must equal the id of the request being answered; it is
// cleared before delivery back to the requester.
type ResponseEvent struct {
	Route     string     `protobuf:"bytes,1,opt,name=route,proto3" json:"route,omitempty"`
	Payload   *anypb.Any `protobuf:"bytes,2,opt,name=payload,proto3" json:"payload,omitempty"`
	RequestId uint32     `protobuf:"varint,3,opt,name=request_id,json=requestId,proto3" json:"request_id,omitempty"`
}

func (m *ResponseEvent) Reset()         { *m = ResponseEvent{} }
func (m *ResponseEvent) String() string { return msgString(m) }
func (*ResponseEvent) ProtoMessage()    {}

func (m *ResponseEvent) GetRoute() string {
	if m != nil {
		return m.Route
	}
	return ""
}

func (m *ResponseEvent) GetPayload() *anypb.Any {
	if m != nil {
		return m.Payload
	}
	return nil
}

func (m *ResponseEvent) GetRequestId() uint32 {
	if m != nil {
		return m.RequestId
	}
	return 0
}

// RouteEventAck reports how many registrations an event was delivered to.
type RouteEventAck struct {
	RoutingCount uint32 `protobuf:"varint,1,opt,name=routing_count,json=routingCount,proto3" json:"routing_count,omitempty"`
}

func (m *RouteEventAck) Reset()         { *m = RouteEventAck{} }
func (m *RouteEventAck) String() string { return msgString(m) }
func (*RouteEventAck) ProtoMessage()    {}

func (m *RouteEventAck) GetRoutingCount() uint32 {
	if m != nil {
		return m.RoutingCount
	}
	return 0
}

func msgString(m protoadapt.MessageV1) string {
	return prototext.MarshalOptions{}.Format(protoadapt.MessageV2Of(m))
}
