package consensuspb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestRaftInputWireShape(t *testing.T) {
	in := &RaftInput{
		Op:    RaftInputOperation_RAFT_INPUT_OPERATION_DELETE,
		Key:   "pallet",
		Value: structpb.NewNumberValue(42),
	}
	wire, err := proto.Marshal(protoadapt.MessageV2Of(in))
	require.NoError(t, err)

	// Field numbers per consensus.proto: op=1 (varint), key=2 (bytes),
	// value=3 (bytes). The zero-valued PUT would be omitted, so DELETE
	// pins the tag.
	assert.Equal(t, []byte{0x08, 0x01}, wire[:2])

	out := &RaftInput{}
	require.NoError(t, proto.Unmarshal(wire, protoadapt.MessageV2Of(out)))
	assert.Equal(t, in.GetOp(), out.GetOp())
	assert.Equal(t, "pallet", out.GetKey())
	assert.True(t, proto.Equal(in.GetValue(), out.GetValue()))
}

func TestRaftStateEntriesRoundTrip(t *testing.T) {
	in := &RaftState{Entries: map[string]*structpb.Value{
		"pallet": structpb.NewStringValue("bay-3"),
		"empty":  structpb.NewNullValue(),
	}}
	wire, err := proto.Marshal(protoadapt.MessageV2Of(in))
	require.NoError(t, err)

	out := &RaftState{}
	require.NoError(t, proto.Unmarshal(wire, protoadapt.MessageV2Of(out)))
	require.Len(t, out.GetEntries(), 2)
	assert.True(t, proto.Equal(in.GetEntries()["pallet"], out.GetEntries()["pallet"]))
	assert.True(t, proto.Equal(in.GetEntries()["empty"], out.GetEntries()["empty"]))
}
