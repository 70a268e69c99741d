package raftbus

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/raft"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// memBus is an in-process Bus with exact topic matching. Every subscriber
// gets its own delivery goroutine, so a handler may publish a reply while
// the original publisher is still blocked waiting for one.
type memBus struct {
	mu   sync.Mutex
	subs map[string][]*memSub
}

type memSub struct {
	ch   chan memMsg
	done chan struct{}
}

type memMsg struct {
	topic string
	body  []byte
}

func newMemBus() *memBus { return &memBus{subs: make(map[string][]*memSub)} }

func (b *memBus) Publish(topic string, body []byte) error {
	b.mu.Lock()
	subs := append([]*memSub(nil), b.subs[topic]...)
	b.mu.Unlock()
	for _, s := range subs {
		select {
		case s.ch <- memMsg{topic: topic, body: body}:
		case <-s.done:
		}
	}
	return nil
}

func (b *memBus) Subscribe(topic string, handler func(topic string, body []byte)) (func(), error) {
	s := &memSub{ch: make(chan memMsg, 256), done: make(chan struct{})}
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], s)
	b.mu.Unlock()

	go func() {
		for {
			select {
			case m := <-s.ch:
				handler(m.topic, m.body)
			case <-s.done:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			list := b.subs[topic]
			for i, cand := range list {
				if cand == s {
					b.subs[topic] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
			b.mu.Unlock()
			close(s.done)
		})
	}
	return cancel, nil
}

func testTransportPair(t *testing.T) (*Transport, *Transport) {
	t.Helper()
	bus := newMemBus()
	a, err := newTransport(bus, "test", "a", time.Second, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	b, err := newTransport(bus, "test", "b", time.Second, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return a, b
}

// answer serves b's inbound RPCs with fn until the test ends.
func answer(t *testing.T, tr *Transport, fn func(rpc raft.RPC)) {
	t.Helper()
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	go func() {
		for {
			select {
			case rpc := <-tr.Consumer():
				fn(rpc)
			case <-done:
				return
			}
		}
	}()
}

func TestTransportAppendEntriesRoundTrip(t *testing.T) {
	a, b := testTransportPair(t)

	answer(t, b, func(rpc raft.RPC) {
		req, ok := rpc.Command.(*raft.AppendEntriesRequest)
		require.True(t, ok)
		require.Len(t, req.Entries, 1)
		assert.Equal(t, []byte("payload"), req.Entries[0].Data)
		rpc.Respond(&raft.AppendEntriesResponse{Term: req.Term, LastLog: req.Entries[0].Index, Success: true}, nil)
	})

	req := &raft.AppendEntriesRequest{
		RPCHeader:    raft.RPCHeader{Addr: []byte("a")},
		Term:         3,
		PrevLogEntry: 6,
		PrevLogTerm:  2,
		Entries:      []*raft.Log{{Index: 7, Term: 3, Type: raft.LogCommand, Data: []byte("payload")}},
	}
	var resp raft.AppendEntriesResponse
	require.NoError(t, a.AppendEntries("b", "b", req, &resp))
	assert.Equal(t, uint64(3), resp.Term)
	assert.Equal(t, uint64(7), resp.LastLog)
	assert.True(t, resp.Success)
}

func TestTransportRequestVoteRoundTrip(t *testing.T) {
	a, b := testTransportPair(t)

	answer(t, b, func(rpc raft.RPC) {
		req, ok := rpc.Command.(*raft.RequestVoteRequest)
		require.True(t, ok)
		rpc.Respond(&raft.RequestVoteResponse{Term: req.Term, Granted: true}, nil)
	})

	var resp raft.RequestVoteResponse
	req := &raft.RequestVoteRequest{RPCHeader: raft.RPCHeader{Addr: []byte("a")}, Term: 9, LastLogIndex: 4, LastLogTerm: 8}
	require.NoError(t, a.RequestVote("b", "b", req, &resp))
	assert.Equal(t, uint64(9), resp.Term)
	assert.True(t, resp.Granted)
}

func TestTransportInstallSnapshotCarriesData(t *testing.T) {
	a, b := testTransportPair(t)
	data := bytes.Repeat([]byte("snapshot-chunk "), 64)

	answer(t, b, func(rpc raft.RPC) {
		_, ok := rpc.Command.(*raft.InstallSnapshotRequest)
		require.True(t, ok)
		got, err := io.ReadAll(rpc.Reader)
		require.NoError(t, err)
		assert.Equal(t, data, got)
		rpc.Respond(&raft.InstallSnapshotResponse{Term: 2, Success: true}, nil)
	})

	req := &raft.InstallSnapshotRequest{RPCHeader: raft.RPCHeader{Addr: []byte("a")}, Term: 2, LastLogIndex: 12, Size: int64(len(data))}
	var resp raft.InstallSnapshotResponse
	require.NoError(t, a.InstallSnapshot("b", "b", req, &resp, bytes.NewReader(data)))
	assert.True(t, resp.Success)
}

func TestTransportHeartbeatFastPath(t *testing.T) {
	a, b := testTransportPair(t)

	// No Consumer reader on b: a heartbeat routed to the consumer would
	// hang the exchange instead of answering within the timeout.
	handled := make(chan struct{}, 1)
	b.SetHeartbeatHandler(func(rpc raft.RPC) {
		handled <- struct{}{}
		rpc.Respond(&raft.AppendEntriesResponse{Term: 5, Success: true}, nil)
	})

	req := &raft.AppendEntriesRequest{RPCHeader: raft.RPCHeader{Addr: []byte("a")}, Term: 5}
	var resp raft.AppendEntriesResponse
	require.NoError(t, a.AppendEntries("b", "b", req, &resp))
	assert.True(t, resp.Success)

	select {
	case <-handled:
	default:
		t.Fatal("heartbeat handler was not invoked")
	}
}

func TestTransportRemoteErrorComesBack(t *testing.T) {
	a, b := testTransportPair(t)

	answer(t, b, func(rpc raft.RPC) {
		rpc.Respond(nil, errors.New("log is torn"))
	})

	var resp raft.TimeoutNowResponse
	err := a.TimeoutNow("b", "b", &raft.TimeoutNowRequest{RPCHeader: raft.RPCHeader{Addr: []byte("a")}}, &resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log is torn")
}

func TestTransportTimesOutWithoutPeer(t *testing.T) {
	bus := newMemBus()
	a, err := newTransport(bus, "test", "a", 100*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	var resp raft.RequestVoteResponse
	err = a.RequestVote("ghost", "ghost", &raft.RequestVoteRequest{Term: 1}, &resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestTransportCloseFailsWaiters(t *testing.T) {
	a, b := testTransportPair(t)
	_ = b // b never drains its consumer, so the request stays pending

	errCh := make(chan error, 1)
	go func() {
		var resp raft.RequestVoteResponse
		errCh <- a.RequestVote("b", "b", &raft.RequestVoteRequest{Term: 1}, &resp)
	}()

	time.Sleep(50 * time.Millisecond)
	a.Close()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, raft.ErrTransportShutdown)
	case <-time.After(time.Second):
		t.Fatal("waiter survived transport close")
	}
}

func TestTransportPipelineUnsupported(t *testing.T) {
	a, _ := testTransportPair(t)
	_, err := a.AppendEntriesPipeline("b", "b")
	require.ErrorIs(t, err, raft.ErrPipelineReplicationNotSupported)
}

func TestTransportPeerAddressing(t *testing.T) {
	a, _ := testTransportPair(t)
	assert.Equal(t, raft.ServerAddress("a"), a.LocalAddr())
	assert.Equal(t, raft.ServerAddress("b"), a.DecodePeer(a.EncodePeer("b", "b")))
}
