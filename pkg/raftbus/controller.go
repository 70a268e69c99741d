package raftbus

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb/v2"
	"github.com/pkg/errors"
	uberatomic "go.uber.org/atomic"
	"go.uber.org/zap"
)

// Config describes one raft node run over the bus.
type Config struct {
	// ID is the stable node id; it doubles as the raft server id and
	// address and keys the node's bolt file.
	ID string

	// TopicPrefix scopes all bus traffic of the node's cluster, e.g.
	// "tnc/raft/orders".
	TopicPrefix string

	// Bootstrap makes this node found the cluster on first connect.
	Bootstrap bool

	// DataDir holds the per-node bolt files. Multiple processes may share
	// it; files are keyed by node id.
	DataDir string

	// Machine is the replicated state machine.
	Machine StateMachine

	// NoopCommand is a command the machine treats as a read barrier: it
	// changes nothing but yields the current state when applied.
	NoopCommand []byte

	Bus    Bus
	Logger *zap.Logger

	// RPCTimeout bounds each transport exchange; defaults to 5s.
	RPCTimeout time.Duration

	// Election tuning; zero keeps the library defaults. Tests tighten
	// these.
	HeartbeatTimeout   time.Duration
	ElectionTimeout    time.Duration
	LeaderLeaseTimeout time.Duration
	CommitTimeout      time.Duration
}

// joinRequest travels on the membership topics.
type joinRequest struct {
	ID string
}

// proposal travels on the propose topic toward the leader.
type proposal struct {
	Corr string
	From string
	Cmd  []byte
}

// proposalReply answers a forwarded proposal.
type proposalReply struct {
	Corr  string
	State []byte
	Error string
}

// Controller is one raft node: connect, propose, observe, halt. All
// methods are safe for concurrent use; the caller is responsible for not
// overlapping lifecycle transitions (the gateway's connection state
// machine does that).
type Controller struct {
	cfg Config
	log *zap.Logger

	mu       sync.Mutex
	raft     *raft.Raft
	store    *raftboltdb.BoltStore
	trans    *Transport
	cancels  []func()
	running  bool
	haltCh   chan struct{}
	pending  map[string]chan proposalReply
	inflight *uberatomic.Int64

	states *fanout[[]byte]
	confs  *fanout[[]string]
}

// New builds a halted controller. Connect brings it up.
func New(cfg Config) (*Controller, error) {
	if cfg.ID == "" || cfg.TopicPrefix == "" || cfg.Bus == nil || cfg.Machine == nil {
		return nil, errors.New("raftbus: id, topic prefix, bus, and machine are required")
	}
	if cfg.RPCTimeout == 0 {
		cfg.RPCTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Controller{
		cfg:      cfg,
		log:      cfg.Logger.Named("raftbus").With(zap.String("node", cfg.ID)),
		pending:  make(map[string]chan proposalReply),
		inflight: uberatomic.NewInt64(0),
		states:   newFanout[[]byte](),
		confs:    newFanout[[]string](),
	}, nil
}

// DBPath is the node's bolt file under the data dir.
func (c *Controller) DBPath() string {
	return filepath.Join(c.cfg.DataDir, "raft-"+c.cfg.ID+".db")
}

// Connect builds the raft instance over its persisted log and joins (or
// bootstraps) the cluster. It returns once the node is an acknowledged
// member with a known leader, or fails without leaking resources.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("raftbus: already connected")
	}
	c.mu.Unlock()

	store, err := raftboltdb.NewBoltStore(c.DBPath())
	if err != nil {
		return errors.Wrap(err, "open bolt store")
	}

	trans, err := newTransport(c.cfg.Bus, c.cfg.TopicPrefix, c.cfg.ID, c.cfg.RPCTimeout, c.log)
	if err != nil {
		store.Close()
		return err
	}

	conf := raft.DefaultConfig()
	conf.LocalID = raft.ServerID(c.cfg.ID)
	conf.Logger = hclog.New(&hclog.LoggerOptions{Name: "raft", Level: hclog.Warn})
	// The bolt log is the durable record; snapshotting stays out of the
	// hot path.
	conf.SnapshotThreshold = 1 << 32
	conf.SnapshotInterval = time.Hour
	if c.cfg.HeartbeatTimeout != 0 {
		conf.HeartbeatTimeout = c.cfg.HeartbeatTimeout
	}
	if c.cfg.ElectionTimeout != 0 {
		conf.ElectionTimeout = c.cfg.ElectionTimeout
	}
	if c.cfg.LeaderLeaseTimeout != 0 {
		conf.LeaderLeaseTimeout = c.cfg.LeaderLeaseTimeout
	}
	if c.cfg.CommitTimeout != 0 {
		conf.CommitTimeout = c.cfg.CommitTimeout
	}

	machine := &fsm{sm: c.cfg.Machine, onApply: c.states.publish}
	snaps := raft.NewInmemSnapshotStore()

	r, err := raft.NewRaft(conf, machine, store, store, snaps, trans)
	if err != nil {
		trans.Close()
		store.Close()
		return errors.Wrap(err, "start raft")
	}

	haltCh := make(chan struct{})
	cancels, err := c.subscribeControl(r)
	if err != nil {
		r.Shutdown().Error() //nolint:errcheck // best effort teardown
		trans.Close()
		store.Close()
		return err
	}

	if c.cfg.Bootstrap {
		cfg := raft.Configuration{Servers: []raft.Server{{
			ID:      raft.ServerID(c.cfg.ID),
			Address: raft.ServerAddress(c.cfg.ID),
		}}}
		if err := r.BootstrapCluster(cfg).Error(); err != nil && !errors.Is(err, raft.ErrCantBootstrap) {
			for _, cancel := range cancels {
				cancel()
			}
			r.Shutdown().Error() //nolint:errcheck
			trans.Close()
			store.Close()
			return errors.Wrap(err, "bootstrap cluster")
		}
	}

	if err := c.awaitMembership(ctx, r); err != nil {
		for _, cancel := range cancels {
			cancel()
		}
		r.Shutdown().Error() //nolint:errcheck
		trans.Close()
		store.Close()
		return err
	}

	c.mu.Lock()
	c.raft = r
	c.store = store
	c.trans = trans
	c.cancels = cancels
	c.running = true
	c.haltCh = haltCh
	c.mu.Unlock()

	go c.pollConfiguration(r, haltCh)
	c.log.Info("raft node connected", zap.Bool("bootstrap", c.cfg.Bootstrap))
	return nil
}

// subscribeControl wires the non-raft control topics: membership join and
// leave (served by whoever is leader), proposal forwarding, and the reply
// lane for this node's forwarded proposals.
func (c *Controller) subscribeControl(r *raft.Raft) ([]func(), error) {
	var cancels []func()
	fail := func(err error) ([]func(), error) {
		for _, cancel := range cancels {
			cancel()
		}
		return nil, err
	}

	join, err := c.cfg.Bus.Subscribe(c.cfg.TopicPrefix+"/join", func(_ string, body []byte) {
		if r.State() != raft.Leader {
			return
		}
		var req joinRequest
		if decodeMsgpack(body, &req) != nil || req.ID == "" {
			return
		}
		if err := r.AddVoter(raft.ServerID(req.ID), raft.ServerAddress(req.ID), 0, c.cfg.RPCTimeout).Error(); err != nil {
			c.log.Warn("add voter failed", zap.String("peer", req.ID), zap.Error(err))
		}
	})
	if err != nil {
		return fail(errors.Wrap(err, "subscribe membership join"))
	}
	cancels = append(cancels, join)

	leave, err := c.cfg.Bus.Subscribe(c.cfg.TopicPrefix+"/leave", func(_ string, body []byte) {
		if r.State() != raft.Leader {
			return
		}
		var req joinRequest
		if decodeMsgpack(body, &req) != nil || req.ID == "" {
			return
		}
		if err := r.RemoveServer(raft.ServerID(req.ID), 0, c.cfg.RPCTimeout).Error(); err != nil {
			c.log.Warn("remove server failed", zap.String("peer", req.ID), zap.Error(err))
		}
	})
	if err != nil {
		return fail(errors.Wrap(err, "subscribe membership leave"))
	}
	cancels = append(cancels, leave)

	propose, err := c.cfg.Bus.Subscribe(c.cfg.TopicPrefix+"/propose", func(_ string, body []byte) {
		if r.State() != raft.Leader {
			return
		}
		var p proposal
		if decodeMsgpack(body, &p) != nil || p.Corr == "" {
			return
		}
		go c.applyForwarded(r, p)
	})
	if err != nil {
		return fail(errors.Wrap(err, "subscribe propose"))
	}
	cancels = append(cancels, propose)

	replies, err := c.cfg.Bus.Subscribe(c.cfg.TopicPrefix+"/propose-reply/"+c.cfg.ID, func(_ string, body []byte) {
		var rep proposalReply
		if decodeMsgpack(body, &rep) != nil {
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[rep.Corr]
		c.mu.Unlock()
		if ok {
			select {
			case ch <- rep:
			default:
			}
		}
	})
	if err != nil {
		return fail(errors.Wrap(err, "subscribe propose replies"))
	}
	cancels = append(cancels, replies)

	return cancels, nil
}

func (c *Controller) applyForwarded(r *raft.Raft, p proposal) {
	rep := proposalReply{Corr: p.Corr}
	af := r.Apply(p.Cmd, c.cfg.RPCTimeout)
	if err := af.Error(); err != nil {
		rep.Error = err.Error()
	} else if state, ok := af.Response().([]byte); ok {
		rep.State = state
	}
	wire, err := encodeMsgpack(rep)
	if err != nil {
		return
	}
	if err := c.cfg.Bus.Publish(c.cfg.TopicPrefix+"/propose-reply/"+p.From, wire); err != nil {
		c.log.Warn("dropping undeliverable proposal reply", zap.Error(err))
	}
}

// awaitMembership blocks until the cluster acknowledges this node: a
// leader is known and the node appears in the replicated configuration.
// Joiners keep knocking on the membership topic until the leader admits
// them.
func (c *Controller) awaitMembership(ctx context.Context, r *raft.Raft) error {
	knock, err := encodeMsgpack(joinRequest{ID: c.cfg.ID})
	if err != nil {
		return err
	}

	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	for {
		_, leaderID := r.LeaderWithID()
		if leaderID != "" && c.isMember(r) {
			return nil
		}
		if !c.cfg.Bootstrap {
			if err := c.cfg.Bus.Publish(c.cfg.TopicPrefix+"/join", knock); err != nil {
				return errors.Wrap(err, "publish join request")
			}
		}
		select {
		case <-tick.C:
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "joining cluster")
		}
	}
}

func (c *Controller) isMember(r *raft.Raft) bool {
	f := r.GetConfiguration()
	if f.Error() != nil {
		return false
	}
	for _, srv := range f.Configuration().Servers {
		if srv.ID == raft.ServerID(c.cfg.ID) {
			return true
		}
	}
	return false
}

// pollConfiguration feeds the configuration observers. hashicorp/raft
// has no membership change notification, so changes are detected by
// polling once a second.
func (c *Controller) pollConfiguration(r *raft.Raft, haltCh <-chan struct{}) {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	var last []string
	for {
		ids, err := memberIDs(r)
		if err == nil && !reflect.DeepEqual(ids, last) {
			last = ids
			c.confs.publish(ids)
		}
		select {
		case <-tick.C:
		case <-haltCh:
			return
		}
	}
}

func memberIDs(r *raft.Raft) ([]string, error) {
	f := r.GetConfiguration()
	if err := f.Error(); err != nil {
		return nil, errors.Wrap(err, "read configuration")
	}
	servers := f.Configuration().Servers
	ids := make([]string, 0, len(servers))
	for _, srv := range servers {
		ids = append(ids, string(srv.ID))
	}
	sort.Strings(ids)
	return ids, nil
}

// Propose submits a command and waits for its committed state. Followers
// forward to the leader over the bus; at most maxQueuedProposals may wait
// at once.
func (c *Controller) Propose(ctx context.Context, cmd []byte) ([]byte, error) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil, ErrNotRunning
	}
	r := c.raft
	haltCh := c.haltCh
	c.mu.Unlock()

	if c.inflight.Inc() > maxQueuedProposals {
		c.inflight.Dec()
		return nil, ErrProposalQueueFull
	}
	defer c.inflight.Dec()

	for {
		var (
			state []byte
			err   error
		)
		if r.State() == raft.Leader {
			state, err = c.applyLocal(ctx, r, cmd, haltCh)
		} else {
			state, err = c.applyForward(ctx, cmd, haltCh)
		}
		switch {
		case err == nil:
			return state, nil
		case errors.Is(err, errRetryProposal):
			select {
			case <-time.After(100 * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-haltCh:
				return nil, ErrHaltedBeforeCompletion
			}
		default:
			return nil, err
		}
	}
}

// errRetryProposal marks transient no-leader situations worth retrying
// within the caller's deadline.
var errRetryProposal = errors.New("no leader available yet")

func (c *Controller) applyLocal(ctx context.Context, r *raft.Raft, cmd []byte, haltCh <-chan struct{}) ([]byte, error) {
	af := r.Apply(cmd, c.cfg.RPCTimeout)
	done := make(chan struct{})
	var (
		state []byte
		err   error
	)
	go func() {
		defer close(done)
		if e := af.Error(); e != nil {
			err = e
			return
		}
		state, _ = af.Response().([]byte)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-haltCh:
		return nil, ErrHaltedBeforeCompletion
	}
	switch {
	case err == nil:
		return state, nil
	case errors.Is(err, raft.ErrNotLeader), errors.Is(err, raft.ErrLeadershipLost), errors.Is(err, raft.ErrEnqueueTimeout):
		return nil, errRetryProposal
	case errors.Is(err, raft.ErrRaftShutdown):
		return nil, ErrHaltedBeforeCompletion
	default:
		return nil, errors.Wrap(err, "apply proposal")
	}
}

func (c *Controller) applyForward(ctx context.Context, cmd []byte, haltCh <-chan struct{}) ([]byte, error) {
	p := proposal{Corr: uuid.NewString(), From: c.cfg.ID, Cmd: cmd}
	wire, err := encodeMsgpack(p)
	if err != nil {
		return nil, err
	}

	ch := make(chan proposalReply, 1)
	c.mu.Lock()
	c.pending[p.Corr] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, p.Corr)
		c.mu.Unlock()
	}()

	if err := c.cfg.Bus.Publish(c.cfg.TopicPrefix+"/propose", wire); err != nil {
		return nil, errors.Wrap(err, "publish proposal")
	}

	select {
	case rep := <-ch:
		if rep.Error != "" {
			return nil, errors.New(rep.Error)
		}
		return rep.State, nil
	case <-time.After(c.cfg.RPCTimeout):
		// Nobody owned the proposal; perhaps an election is running.
		return nil, errRetryProposal
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-haltCh:
		return nil, ErrHaltedBeforeCompletion
	}
}

// State proposes the no-op command and returns the resulting state, so
// the answer reflects every commit that preceded the call.
func (c *Controller) State(ctx context.Context) ([]byte, error) {
	return c.Propose(ctx, c.cfg.NoopCommand)
}

// ObserveState returns the stream of states after each locally applied
// commit. cancel releases the observer; the stream also ends on halt.
func (c *Controller) ObserveState() (<-chan []byte, func()) {
	_, _, ch, cancel := c.states.observe()
	return ch, cancel
}

// ClusterConfiguration returns the sorted ids of the current members.
func (c *Controller) ClusterConfiguration(_ context.Context) ([]string, error) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil, ErrNotRunning
	}
	r := c.raft
	c.mu.Unlock()
	return memberIDs(r)
}

// ObserveClusterConfiguration returns the current membership and a
// stream of subsequent membership changes.
func (c *Controller) ObserveClusterConfiguration() ([]string, <-chan []string, func()) {
	current, _, ch, cancel := c.confs.observe()
	return current, ch, cancel
}

// Stop halts the node: it stays in the cluster configuration and keeps
// its persisted log, so a later Connect with the same id rejoins where it
// left off.
func (c *Controller) Stop(_ context.Context) error {
	return c.halt()
}

// Shutdown is the process-exit path: identical to Stop, membership and
// persisted state intact.
func (c *Controller) Shutdown(_ context.Context) error {
	return c.halt()
}

// Disconnect leaves the cluster and deletes the node's persisted state.
// A leader removes itself directly after handing leadership off; a
// follower asks the leader to remove it.
func (c *Controller) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return ErrNotRunning
	}
	r := c.raft
	c.mu.Unlock()

	ids, err := memberIDs(r)
	if err == nil && len(ids) > 1 {
		if r.State() == raft.Leader {
			if err := r.LeadershipTransfer().Error(); err != nil {
				c.log.Warn("leadership transfer failed, removing self as leader", zap.Error(err))
				if err := r.RemoveServer(raft.ServerID(c.cfg.ID), 0, c.cfg.RPCTimeout).Error(); err != nil {
					c.log.Warn("self removal failed", zap.Error(err))
				}
			}
		}
		if r.State() != raft.Leader {
			if err := c.requestLeave(ctx, r); err != nil {
				c.log.Warn("leave request not acknowledged", zap.Error(err))
			}
		}
	}

	if err := c.halt(); err != nil {
		return err
	}
	if err := os.Remove(c.DBPath()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "delete node database")
	}
	c.log.Info("raft node disconnected, persisted state deleted")
	return nil
}

// requestLeave knocks on the leave topic until the leader has removed
// this node from the configuration or the deadline passes.
func (c *Controller) requestLeave(ctx context.Context, r *raft.Raft) error {
	wire, err := encodeMsgpack(joinRequest{ID: c.cfg.ID})
	if err != nil {
		return err
	}
	deadline, cancel := context.WithTimeout(ctx, c.cfg.RPCTimeout)
	defer cancel()

	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	for {
		if err := c.cfg.Bus.Publish(c.cfg.TopicPrefix+"/leave", wire); err != nil {
			return errors.Wrap(err, "publish leave request")
		}
		select {
		case <-tick.C:
			if !c.isMember(r) {
				return nil
			}
		case <-deadline.Done():
			return errors.New("leave request timed out")
		}
	}
}

// halt tears the raft instance down without touching membership or the
// persisted file.
func (c *Controller) halt() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return ErrNotRunning
	}
	c.running = false
	r := c.raft
	store := c.store
	trans := c.trans
	cancels := c.cancels
	haltCh := c.haltCh
	c.raft, c.store, c.trans, c.cancels = nil, nil, nil, nil
	c.mu.Unlock()

	close(haltCh)
	for _, cancel := range cancels {
		cancel()
	}
	shutdownErr := r.Shutdown().Error()
	trans.Close()
	storeErr := store.Close()
	c.states.closeAll()
	c.confs.closeAll()

	if shutdownErr != nil {
		return errors.Wrap(shutdownErr, "shut raft down")
	}
	return errors.Wrap(storeErr, "close bolt store")
}
