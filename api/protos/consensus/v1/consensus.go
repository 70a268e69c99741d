// Package consensuspb contains the Go bindings for
// consensus/v1/consensus.proto.
//
// The bindings are maintained by hand against the .proto contract (shipped
// alongside and embedded into the binary) so the module builds without a
// protoc toolchain. Wire compatibility comes from the protobuf struct tags;
// the structs satisfy the legacy message interface the grpc proto codec
// accepts.
package consensuspb

import (
	"strconv"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/known/structpb"
)

// RaftInputOperation selects the mutation a RaftInput applies.
type RaftInputOperation int32

const (
	RaftInputOperation_RAFT_INPUT_OPERATION_PUT    RaftInputOperation = 0
	RaftInputOperation_RAFT_INPUT_OPERATION_DELETE RaftInputOperation = 1
)

var (
	RaftInputOperation_name = map[int32]string{
		0: "RAFT_INPUT_OPERATION_PUT",
		1: "RAFT_INPUT_OPERATION_DELETE",
	}
	RaftInputOperation_value = map[string]int32{
		"RAFT_INPUT_OPERATION_PUT":    0,
		"RAFT_INPUT_OPERATION_DELETE": 1,
	}
)

func (x RaftInputOperation) String() string {
	if s, ok := RaftInputOperation_name[int32(x)]; ok {
		return s
	}
	return strconv.Itoa(int(x))
}

// CreateNodeRequest names the cluster a new node belongs to. Exactly one
// member per cluster should bootstrap it.
type CreateNodeRequest struct {
	Cluster             string `protobuf:"bytes,1,opt,name=cluster,proto3" json:"cluster,omitempty"`
	ShouldCreateCluster bool   `protobuf:"varint,2,opt,name=should_create_cluster,json=shouldCreateCluster,proto3" json:"should_create_cluster,omitempty"`
}

func (m *CreateNodeRequest) Reset()         { *m = CreateNodeRequest{} }
func (m *CreateNodeRequest) String() string { return msgString(m) }
func (*CreateNodeRequest) ProtoMessage()    {}

func (m *CreateNodeRequest) GetCluster() string {
	if m != nil {
		return m.Cluster
	}
	return ""
}

func (m *CreateNodeRequest) GetShouldCreateCluster() bool {
	if m != nil {
		return m.ShouldCreateCluster
	}
	return false
}

// CreateNodeReply carries the id of the created node.
type CreateNodeReply struct {
	Id string `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
}

func (m *CreateNodeReply) Reset()         { *m = CreateNodeReply{} }
func (m *CreateNodeReply) String() string { return msgString(m) }
func (*CreateNodeReply) ProtoMessage()    {}

func (m *CreateNodeReply) GetId() string {
	if m != nil {
		return m.Id
	}
	return ""
}

// NodeRef addresses one created node.
type NodeRef struct {
	Id string `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
}

func (m *NodeRef) Reset()         { *m = NodeRef{} }
func (m *NodeRef) String() string { return msgString(m) }
func (*NodeRef) ProtoMessage()    {}

func (m *NodeRef) GetId() string {
	if m != nil {
		return m.Id
	}
	return ""
}

// NodeAck acknowledges a node lifecycle operation.
type NodeAck struct {
}

func (m *NodeAck) Reset()         { *m = NodeAck{} }
func (m *NodeAck) String() string { return msgString(m) }
func (*NodeAck) ProtoMessage()    {}

// RaftInput is one mutation of the replicated key-value state. An unset
// value is treated as the null value.
type RaftInput struct {
	Op    RaftInputOperation `protobuf:"varint,1,opt,name=op,proto3,enum=flowpro.tnc.consensus.v1.RaftInputOperation" json:"op,omitempty"`
	Key   string             `protobuf:"bytes,2,opt,name=key,proto3" json:"key,omitempty"`
	Value *structpb.Value    `protobuf:"bytes,3,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *RaftInput) Reset()         { *m = RaftInput{} }
func (m *RaftInput) String() string { return msgString(m) }
func (*RaftInput) ProtoMessage()    {}

func (m *RaftInput) GetOp() RaftInputOperation {
	if m != nil {
		return m.Op
	}
	return RaftInputOperation_RAFT_INPUT_OPERATION_PUT
}

func (m *RaftInput) GetKey() string {
	if m != nil {
		return m.Key
	}
	return ""
}

func (m *RaftInput) GetValue() *structpb.Value {
	if m != nil {
		return m.Value
	}
	return nil
}

// ProposeRequest submits an input to the node's replicated state machine.
type ProposeRequest struct {
	Id    string     `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Input *RaftInput `protobuf:"bytes,2,opt,name=input,proto3" json:"input,omitempty"`
}

func (m *ProposeRequest) Reset()         { *m = ProposeRequest{} }
func (m *ProposeRequest) String() string { return msgString(m) }
func (*ProposeRequest) ProtoMessage()    {}

func (m *ProposeRequest) GetId() string {
	if m != nil {
		return m.Id
	}
	return ""
}

func (m *ProposeRequest) GetInput() *RaftInput {
	if m != nil {
		return m.Input
	}
	return nil
}

// RaftState is the replicated key-value state.
type RaftState struct {
	Entries map[string]*structpb.Value `protobuf:"bytes,1,rep,name=entries,proto3" json:"entries,omitempty" protobuf_key:"bytes,1,opt,name=key,proto3" protobuf_val:"bytes,2,opt,name=value,proto3"`
}

func (m *RaftState) Reset()         { *m = RaftState{} }
func (m *RaftState) String() string { return msgString(m) }
func (*RaftState) ProtoMessage()    {}

func (m *RaftState) GetEntries() map[string]*structpb.Value {
	if m != nil {
		return m.Entries
	}
	return nil
}

// ClusterConfiguration lists the ids of the current cluster members.
type ClusterConfiguration struct {
	Ids []string `protobuf:"bytes,1,rep,name=ids,proto3" json:"ids,omitempty"`
}

func (m *ClusterConfiguration) Reset()         { *m = ClusterConfiguration{} }
func (m *ClusterConfiguration) String() string { return msgString(m) }
func (*ClusterConfiguration) ProtoMessage()    {}

func (m *ClusterConfiguration) GetIds() []string {
	if m != nil {
		return m.Ids
	}
	return nil
}

func msgString(m protoadapt.MessageV1) string {
	return prototext.MarshalOptions{}.Format(protoadapt.MessageV2Of(m))
}
