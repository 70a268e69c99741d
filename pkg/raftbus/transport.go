package raftbus

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/raft"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// rpcKind tags the raft RPC carried by an envelope.
type rpcKind uint8

const (
	rpcAppendEntries rpcKind = iota + 1
	rpcRequestVote
	rpcInstallSnapshot
	rpcTimeoutNow
	rpcRequestPreVote
)

// envelope is the bus wire form of one raft RPC or its reply. Body is the
// msgpack encoding of the request or response struct; Snapshot carries
// the snapshot payload of an InstallSnapshot.
type envelope struct {
	Kind     rpcKind
	Corr     string
	From     string
	Error    string
	Body     []byte
	Snapshot []byte
}

// Transport implements raft.Transport over a Bus. Requests of node N
// travel on <prefix>/rpc/N, replies on <prefix>/reply/N; correlation ids
// pair them up. AppendEntriesPipeline is not supported; raft falls back
// to serial RPCs.
type Transport struct {
	bus     Bus
	prefix  string
	id      string
	timeout time.Duration
	log     *zap.Logger

	consumer chan raft.RPC

	hbMu      sync.RWMutex
	heartbeat func(raft.RPC)

	mu      sync.Mutex
	pending map[string]chan envelope
	cancels []func()
	closed  bool
	closeCh chan struct{}
}

var _ raft.Transport = (*Transport)(nil)

func newTransport(bus Bus, prefix, id string, timeout time.Duration, log *zap.Logger) (*Transport, error) {
	t := &Transport{
		bus:      bus,
		prefix:   prefix,
		id:       id,
		timeout:  timeout,
		log:      log.Named("transport"),
		consumer: make(chan raft.RPC),
		pending:  make(map[string]chan envelope),
		closeCh:  make(chan struct{}),
	}
	reqCancel, err := bus.Subscribe(prefix+"/rpc/"+id, t.handleRequest)
	if err != nil {
		return nil, errors.Wrap(err, "subscribe rpc topic")
	}
	repCancel, err := bus.Subscribe(prefix+"/reply/"+id, t.handleReply)
	if err != nil {
		reqCancel()
		return nil, errors.Wrap(err, "subscribe reply topic")
	}
	t.cancels = []func(){reqCancel, repCancel}
	return t, nil
}

// Close releases the transport's subscriptions and fails every waiter.
func (t *Transport) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.closeCh)
	cancels := t.cancels
	t.cancels = nil
	t.mu.Unlock()
	for _, c := range cancels {
		c()
	}
}

// Consumer is the stream of inbound RPCs for the raft instance.
func (t *Transport) Consumer() <-chan raft.RPC { return t.consumer }

// LocalAddr is the node id; on the bus, address and id coincide.
func (t *Transport) LocalAddr() raft.ServerAddress { return raft.ServerAddress(t.id) }

// EncodePeer and DecodePeer move node ids verbatim.
func (t *Transport) EncodePeer(_ raft.ServerID, addr raft.ServerAddress) []byte {
	return []byte(addr)
}

func (t *Transport) DecodePeer(b []byte) raft.ServerAddress { return raft.ServerAddress(b) }

// SetHeartbeatHandler installs the fast path for heartbeat appends.
func (t *Transport) SetHeartbeatHandler(cb func(raft.RPC)) {
	t.hbMu.Lock()
	t.heartbeat = cb
	t.hbMu.Unlock()
}

// AppendEntriesPipeline reports that pipelining is not supported, which
// downgrades raft to serial AppendEntries calls.
func (t *Transport) AppendEntriesPipeline(raft.ServerID, raft.ServerAddress) (raft.AppendPipeline, error) {
	return nil, raft.ErrPipelineReplicationNotSupported
}

func (t *Transport) AppendEntries(_ raft.ServerID, target raft.ServerAddress, args *raft.AppendEntriesRequest, resp *raft.AppendEntriesResponse) error {
	return t.rpc(rpcAppendEntries, target, args, resp, nil)
}

func (t *Transport) RequestVote(_ raft.ServerID, target raft.ServerAddress, args *raft.RequestVoteRequest, resp *raft.RequestVoteResponse) error {
	return t.rpc(rpcRequestVote, target, args, resp, nil)
}

func (t *Transport) InstallSnapshot(_ raft.ServerID, target raft.ServerAddress, args *raft.InstallSnapshotRequest, resp *raft.InstallSnapshotResponse, data io.Reader) error {
	snap, err := io.ReadAll(data)
	if err != nil {
		return errors.Wrap(err, "read snapshot data")
	}
	return t.rpc(rpcInstallSnapshot, target, args, resp, snap)
}

func (t *Transport) TimeoutNow(_ raft.ServerID, target raft.ServerAddress, args *raft.TimeoutNowRequest, resp *raft.TimeoutNowResponse) error {
	return t.rpc(rpcTimeoutNow, target, args, resp, nil)
}

// RequestPreVote satisfies raft.WithPreVote.
func (t *Transport) RequestPreVote(_ raft.ServerID, target raft.ServerAddress, args *raft.RequestPreVoteRequest, resp *raft.RequestPreVoteResponse) error {
	return t.rpc(rpcRequestPreVote, target, args, resp, nil)
}

// rpc runs one request/response exchange with a peer.
func (t *Transport) rpc(kind rpcKind, target raft.ServerAddress, args, resp interface{}, snapshot []byte) error {
	body, err := encodeMsgpack(args)
	if err != nil {
		return err
	}
	env := envelope{Kind: kind, Corr: uuid.NewString(), From: t.id, Body: body, Snapshot: snapshot}
	wire, err := encodeMsgpack(env)
	if err != nil {
		return err
	}

	ch := make(chan envelope, 1)
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return raft.ErrTransportShutdown
	}
	t.pending[env.Corr] = ch
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.pending, env.Corr)
		t.mu.Unlock()
	}()

	if err := t.bus.Publish(t.prefix+"/rpc/"+string(target), wire); err != nil {
		return errors.Wrap(err, "publish rpc")
	}

	select {
	case rep := <-ch:
		if rep.Error != "" {
			return errors.New(rep.Error)
		}
		return decodeMsgpack(rep.Body, resp)
	case <-time.After(t.timeout):
		return errors.Errorf("rpc to %s timed out", target)
	case <-t.closeCh:
		return raft.ErrTransportShutdown
	}
}

// handleRequest dispatches one inbound RPC to the raft instance and sends
// the reply back on the caller's reply topic.
func (t *Transport) handleRequest(_ string, body []byte) {
	var env envelope
	if err := decodeMsgpack(body, &env); err != nil {
		t.log.Warn("discarding malformed rpc envelope", zap.Error(err))
		return
	}

	var (
		cmd       interface{}
		reader    io.Reader
		heartbeat bool
	)
	switch env.Kind {
	case rpcAppendEntries:
		req := &raft.AppendEntriesRequest{}
		if err := decodeMsgpack(env.Body, req); err != nil {
			t.log.Warn("discarding malformed append entries", zap.Error(err))
			return
		}
		cmd = req
		// Mirror of the heartbeat detection raft's own network transport
		// applies.
		heartbeat = req.Term != 0 && len(req.Addr) != 0 &&
			req.PrevLogEntry == 0 && req.PrevLogTerm == 0 &&
			len(req.Entries) == 0 && req.LeaderCommitIndex == 0
	case rpcRequestVote:
		req := &raft.RequestVoteRequest{}
		if err := decodeMsgpack(env.Body, req); err != nil {
			return
		}
		cmd = req
	case rpcInstallSnapshot:
		req := &raft.InstallSnapshotRequest{}
		if err := decodeMsgpack(env.Body, req); err != nil {
			return
		}
		cmd = req
		reader = bytes.NewReader(env.Snapshot)
	case rpcTimeoutNow:
		req := &raft.TimeoutNowRequest{}
		if err := decodeMsgpack(env.Body, req); err != nil {
			return
		}
		cmd = req
	case rpcRequestPreVote:
		req := &raft.RequestPreVoteRequest{}
		if err := decodeMsgpack(env.Body, req); err != nil {
			return
		}
		cmd = req
	default:
		t.log.Warn("discarding rpc envelope of unknown kind", zap.Uint8("kind", uint8(env.Kind)))
		return
	}

	respCh := make(chan raft.RPCResponse, 1)
	rpc := raft.RPC{Command: cmd, Reader: reader, RespChan: respCh}

	if heartbeat {
		t.hbMu.RLock()
		cb := t.heartbeat
		t.hbMu.RUnlock()
		if cb != nil {
			cb(rpc)
			t.reply(env, <-respCh)
			return
		}
	}

	select {
	case t.consumer <- rpc:
	case <-t.closeCh:
		return
	}
	go func() {
		select {
		case resp := <-respCh:
			t.reply(env, resp)
		case <-t.closeCh:
		}
	}()
}

func (t *Transport) reply(req envelope, resp raft.RPCResponse) {
	rep := envelope{Kind: req.Kind, Corr: req.Corr, From: t.id}
	if resp.Error != nil {
		rep.Error = resp.Error.Error()
	} else {
		body, err := encodeMsgpack(resp.Response)
		if err != nil {
			rep.Error = err.Error()
		} else {
			rep.Body = body
		}
	}
	wire, err := encodeMsgpack(rep)
	if err != nil {
		t.log.Warn("dropping undeliverable rpc reply", zap.Error(err))
		return
	}
	if err := t.bus.Publish(t.prefix+"/reply/"+req.From, wire); err != nil {
		t.log.Warn("dropping undeliverable rpc reply", zap.Error(err))
	}
}

// handleReply routes one inbound reply to its waiting request.
func (t *Transport) handleReply(_ string, body []byte) {
	var env envelope
	if err := decodeMsgpack(body, &env); err != nil {
		return
	}
	t.mu.Lock()
	ch, ok := t.pending[env.Corr]
	t.mu.Unlock()
	if ok {
		select {
		case ch <- env:
		default:
		}
	}
}
