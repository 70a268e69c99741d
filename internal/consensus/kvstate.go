package consensus

import (
	stdjson "encoding/json"
	"sync"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	consensuspb "github.com/flowpro-icc/tnc-gateway/api/protos/consensus/v1"
	"github.com/flowpro-icc/tnc-gateway/pkg/json"
)

// Replicated command operations. Noop mutates nothing; proposing it is
// how reads observe every prior commit.
const (
	opPut    = "put"
	opDelete = "delete"
	opNoop   = "noop"
)

// command is the replicated log entry. Values ride as protojson so any
// google.protobuf.Value survives the round trip unchanged.
type command struct {
	Op    string             `json:"op"`
	Key   string             `json:"key,omitempty"`
	Value stdjson.RawMessage `json:"value,omitempty"`
}

// jsoniter decodes a JSON null into an empty RawMessage where the
// standard library keeps the literal, so raw values are normalized back
// at every decode boundary before they reach protojson.
func normalizeRaw(raw stdjson.RawMessage) stdjson.RawMessage {
	if len(raw) == 0 {
		return stdjson.RawMessage("null")
	}
	return raw
}

// EncodePut serializes a put command for the given key and value.
func EncodePut(key string, value *structpb.Value) ([]byte, error) {
	wire, err := protojson.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, "encode value")
	}
	return json.Marshal(command{Op: opPut, Key: key, Value: wire})
}

// EncodeDelete serializes a delete command for the given key.
func EncodeDelete(key string) ([]byte, error) {
	return json.Marshal(command{Op: opDelete, Key: key})
}

// EncodeNoop serializes the read-barrier command.
func EncodeNoop() ([]byte, error) {
	return json.Marshal(command{Op: opNoop})
}

// KVState is the replicated key/value machine. Entries map keys to
// protojson-encoded values; application is deterministic, so every node
// that applies the same log arrives at the same bytes.
type KVState struct {
	mu      sync.Mutex
	entries map[string]stdjson.RawMessage
}

// NewKVState returns an empty machine.
func NewKVState() *KVState {
	return &KVState{entries: make(map[string]stdjson.RawMessage)}
}

// Apply executes one committed command and returns the serialized state
// after it. Malformed commands are ignored rather than diverging: every
// replica skips them identically.
func (s *KVState) Apply(cmd []byte) []byte {
	var c command
	if err := json.Unmarshal(cmd, &c); err != nil {
		c.Op = opNoop
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch c.Op {
	case opPut:
		s.entries[c.Key] = normalizeRaw(c.Value)
	case opDelete:
		delete(s.entries, c.Key)
	}
	state, err := json.Marshal(s.entries)
	if err != nil {
		return []byte("{}")
	}
	return state
}

// Snapshot returns the serialized state.
func (s *KVState) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(s.entries)
}

// Restore replaces the state with a serialized snapshot.
func (s *KVState) Restore(state []byte) error {
	entries := make(map[string]stdjson.RawMessage)
	if err := json.Unmarshal(state, &entries); err != nil {
		return errors.Wrap(err, "decode state")
	}
	for key, raw := range entries {
		entries[key] = normalizeRaw(raw)
	}
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

// DecodeState converts a serialized machine state into the wire reply.
func DecodeState(state []byte) (*consensuspb.RaftState, error) {
	entries := make(map[string]stdjson.RawMessage)
	if err := json.Unmarshal(state, &entries); err != nil {
		return nil, errors.Wrap(err, "decode state")
	}
	out := &consensuspb.RaftState{Entries: make(map[string]*structpb.Value, len(entries))}
	for key, raw := range entries {
		value := &structpb.Value{}
		if err := protojson.Unmarshal(normalizeRaw(raw), value); err != nil {
			return nil, errors.Wrapf(err, "decode value for key %q", key)
		}
		out.Entries[key] = value
	}
	return out, nil
}
