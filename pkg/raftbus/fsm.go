package raftbus

import (
	"io"

	"github.com/hashicorp/raft"
	"github.com/pkg/errors"
)

// fsm adapts a StateMachine to raft.FSM and reports every applied state
// to the controller's observers. It runs on leader and followers alike,
// so state observation works on any node.
type fsm struct {
	sm      StateMachine
	onApply func(state []byte)
}

var _ raft.FSM = (*fsm)(nil)

func (f *fsm) Apply(l *raft.Log) interface{} {
	state := f.sm.Apply(l.Data)
	if f.onApply != nil {
		f.onApply(state)
	}
	return state
}

func (f *fsm) Snapshot() (raft.FSMSnapshot, error) {
	b, err := f.sm.Snapshot()
	if err != nil {
		return nil, errors.Wrap(err, "snapshot state machine")
	}
	return &memSnapshot{state: b}, nil
}

func (f *fsm) Restore(rc io.ReadCloser) error {
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return errors.Wrap(err, "read snapshot")
	}
	return f.sm.Restore(b)
}

// memSnapshot is a point-in-time copy of the serialized state.
type memSnapshot struct {
	state []byte
}

func (s *memSnapshot) Persist(sink raft.SnapshotSink) error {
	if _, err := sink.Write(s.state); err != nil {
		sink.Cancel()
		return errors.Wrap(err, "persist snapshot")
	}
	return sink.Close()
}

func (s *memSnapshot) Release() {}
