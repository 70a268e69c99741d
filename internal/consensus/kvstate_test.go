package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestKVStatePutDeleteNoop(t *testing.T) {
	s := NewKVState()

	put, err := EncodePut("foo", structpb.NewNumberValue(42))
	require.NoError(t, err)
	state := s.Apply(put)

	decoded, err := DecodeState(state)
	require.NoError(t, err)
	require.Contains(t, decoded.Entries, "foo")
	assert.InDelta(t, 42, decoded.Entries["foo"].GetNumberValue(), 0)

	// Noop leaves the state untouched.
	noop, err := EncodeNoop()
	require.NoError(t, err)
	assert.Equal(t, state, s.Apply(noop))

	del, err := EncodeDelete("foo")
	require.NoError(t, err)
	decoded, err = DecodeState(s.Apply(del))
	require.NoError(t, err)
	assert.Empty(t, decoded.Entries)
}

func TestKVStateValueKindsSurvive(t *testing.T) {
	s := NewKVState()

	values := map[string]*structpb.Value{
		"null":   structpb.NewNullValue(),
		"bool":   structpb.NewBoolValue(true),
		"string": structpb.NewStringValue("agv-1"),
	}
	var state []byte
	for key, v := range values {
		cmd, err := EncodePut(key, v)
		require.NoError(t, err)
		state = s.Apply(cmd)
	}

	decoded, err := DecodeState(state)
	require.NoError(t, err)
	require.Len(t, decoded.Entries, 3)
	assert.Equal(t, structpb.NullValue_NULL_VALUE, decoded.Entries["null"].GetNullValue())
	assert.True(t, decoded.Entries["bool"].GetBoolValue())
	assert.Equal(t, "agv-1", decoded.Entries["string"].GetStringValue())
}

func TestKVStateSnapshotRestore(t *testing.T) {
	a := NewKVState()
	put, err := EncodePut("foo", structpb.NewStringValue("bar"))
	require.NoError(t, err)
	a.Apply(put)

	snap, err := a.Snapshot()
	require.NoError(t, err)

	b := NewKVState()
	require.NoError(t, b.Restore(snap))
	restored, err := b.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, snap, restored)
}

func TestKVStateNullValueKeepsStateDecodable(t *testing.T) {
	s := NewKVState()

	put, err := EncodePut("foo", structpb.NewNullValue())
	require.NoError(t, err)
	decoded, err := DecodeState(s.Apply(put))
	require.NoError(t, err)
	assert.Equal(t, structpb.NullValue_NULL_VALUE, decoded.Entries["foo"].GetNullValue())

	// Later commits still decode with the null entry in place.
	put, err = EncodePut("bar", structpb.NewNumberValue(42))
	require.NoError(t, err)
	state := s.Apply(put)
	decoded, err = DecodeState(state)
	require.NoError(t, err)
	require.Len(t, decoded.Entries, 2)
	assert.Equal(t, structpb.NullValue_NULL_VALUE, decoded.Entries["foo"].GetNullValue())
	assert.InDelta(t, 42, decoded.Entries["bar"].GetNumberValue(), 0)

	// And the null survives a snapshot round trip onto a fresh machine.
	restored := NewKVState()
	require.NoError(t, restored.Restore(state))
	snap, err := restored.Snapshot()
	require.NoError(t, err)
	decoded, err = DecodeState(snap)
	require.NoError(t, err)
	assert.Equal(t, structpb.NullValue_NULL_VALUE, decoded.Entries["foo"].GetNullValue())
}

func TestKVStateIgnoresMalformedCommand(t *testing.T) {
	s := NewKVState()
	put, err := EncodePut("foo", structpb.NewNumberValue(1))
	require.NoError(t, err)
	before := s.Apply(put)

	after := s.Apply([]byte("not json"))
	assert.Equal(t, before, after)
}
