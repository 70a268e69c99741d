// Package lifecyclepb contains the Go bindings for
// lifecycle/v1/lifecycle.proto.
//
// The bindings are maintained by hand against the .proto contract (shipped
// alongside and embedded into the binary) so the module builds without a
// protoc toolchain. Wire compatibility comes from the protobuf struct tags;
// the structs satisfy the legacy message interface the grpc proto codec
// accepts.
package lifecyclepb

import (
	"strconv"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/protoadapt"
)

// AgentLifecycleState distinguishes join from leave events.
type AgentLifecycleState int32

const (
	AgentLifecycleState_AGENT_LIFECYCLE_STATE_JOIN  AgentLifecycleState = 0
	AgentLifecycleState_AGENT_LIFECYCLE_STATE_LEAVE AgentLifecycleState = 1
)

var (
	AgentLifecycleState_name = map[int32]string{
		0: "AGENT_LIFECYCLE_STATE_JOIN",
		1: "AGENT_LIFECYCLE_STATE_LEAVE",
	}
	AgentLifecycleState_value = map[string]int32{
		"AGENT_LIFECYCLE_STATE_JOIN":  0,
		"AGENT_LIFECYCLE_STATE_LEAVE": 1,
	}
)

func (x AgentLifecycleState) String() string {
	if s, ok := AgentLifecycleState_name[int32(x)]; ok {
		return s
	}
	return strconv.Itoa(int(x))
}

// AgentSelector narrows tracking to particular agents. With both fields
// empty, all agents with the TNC Agent role match. Identity names of the
// form /expr/ are matched as a regular expression.
type AgentSelector struct {
	IdentityId   string `protobuf:"bytes,1,opt,name=identity_id,json=identityId,proto3" json:"identity_id,omitempty"`
	IdentityName string `protobuf:"bytes,2,opt,name=identity_name,json=identityName,proto3" json:"identity_name,omitempty"`
}

func (m *AgentSelector) Reset()         { *m = AgentSelector{} }
func (m *AgentSelector) String() string { return msgString(m) }
func (*AgentSelector) ProtoMessage()    {}

func (m *AgentSelector) GetIdentityId() string {
	if m != nil {
		return m.IdentityId
	}
	return ""
}

func (m *AgentSelector) GetIdentityName() string {
	if m != nil {
		return m.IdentityName
	}
	return ""
}

// AgentIdentity describes one agent on the bus.
type AgentIdentity struct {
	Id   string `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Name string `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	Role string `protobuf:"bytes,3,opt,name=role,proto3" json:"role,omitempty"`
	// True when the identity belongs to this gateway's own agent.
	Local bool `protobuf:"varint,4,opt,name=local,proto3" json:"local,omitempty"`
}

func (m *AgentIdentity) Reset()         { *m = AgentIdentity{} }
func (m *AgentIdentity) String() string { return msgString(m) }
func (*AgentIdentity) ProtoMessage()    {}

func (m *AgentIdentity) GetId() string {
	if m != nil {
		return m.Id
	}
	return ""
}

func (m *AgentIdentity) GetName() string {
	if m != nil {
		return m.Name
	}
	return ""
}

func (m *AgentIdentity) GetRole() string {
	if m != nil {
		return m.Role
	}
	return ""
}

func (m *AgentIdentity) GetLocal() bool {
	if m != nil {
		return m.Local
	}
	return false
}

// AgentLifecycleEvent reports one agent joining or leaving.
type AgentLifecycleEvent struct {
	Identity *AgentIdentity      `protobuf:"bytes,1,opt,name=identity,proto3" json:"identity,omitempty"`
	State    AgentLifecycleState `protobuf:"varint,2,opt,name=state,proto3,enum=flowpro.tnc.lifecycle.v1.AgentLifecycleState" json:"state,omitempty"`
}

func (m *AgentLifecycleEvent) Reset()         { *m = AgentLifecycleEvent{} }
func (m *AgentLifecycleEvent) String() string { return msgString(m) }
func (*AgentLifecycleEvent) ProtoMessage()    {}

func (m *AgentLifecycleEvent) GetIdentity() *AgentIdentity {
	if m != nil {
		return m.Identity
	}
	return nil
}

func (m *AgentLifecycleEvent) GetState() AgentLifecycleState {
	if m != nil {
		return m.State
	}
	return AgentLifecycleState_AGENT_LIFECYCLE_STATE_JOIN
}

func msgString(m protoadapt.MessageV1) string {
	return prototext.MarshalOptions{}.Format(protoadapt.MessageV2Of(m))
}
