// Package raftbus runs hashicorp/raft nodes over a pub/sub bus instead of
// TCP. It provides the transport (raft RPCs as msgpack envelopes on
// per-node topics), bus-based membership management, proposal forwarding
// to the leader, and a per-node controller with persistent bolt storage.
//
// The package is deliberately ignorant of the gateway: the Bus interface
// is the only contract, satisfied by the gateway's MQTT adapter and by
// in-memory fakes in tests.
package raftbus

import (
	"bytes"

	"github.com/hashicorp/go-msgpack/v2/codec"
	"github.com/pkg/errors"
)

// Bus is the minimal pub/sub surface the package needs. Subscribe returns
// a cancel function; handlers receive messages of one publisher in
// publication order.
type Bus interface {
	Publish(topic string, body []byte) error
	Subscribe(topic string, handler func(topic string, body []byte)) (func(), error)
}

// StateMachine is the deterministic machine replicated by a node. Apply
// returns the serialized state after the command; Snapshot and Restore
// move whole states.
type StateMachine interface {
	Apply(cmd []byte) []byte
	Snapshot() ([]byte, error)
	Restore(state []byte) error
}

var (
	// ErrNotRunning reports an operation against a halted controller.
	ErrNotRunning = errors.New("raft node is not running")

	// ErrProposalQueueFull reports that too many proposals are in flight.
	ErrProposalQueueFull = errors.New("too many queued proposals")

	// ErrHaltedBeforeCompletion reports a controller halt while an
	// operation was still waiting for its commit.
	ErrHaltedBeforeCompletion = errors.New("raft node halted before operation completed")
)

// maxQueuedProposals caps the proposals waiting for commit per node.
const maxQueuedProposals = 1000

var msgpackHandle = codec.MsgpackHandle{}

func encodeMsgpack(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := codec.NewEncoder(&buf, &msgpackHandle).Encode(v); err != nil {
		return nil, errors.Wrap(err, "encode msgpack")
	}
	return buf.Bytes(), nil
}

func decodeMsgpack(b []byte, v interface{}) error {
	return errors.Wrap(codec.NewDecoder(bytes.NewReader(b), &msgpackHandle).Decode(v), "decode msgpack")
}
