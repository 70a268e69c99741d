// Package consensus exposes replicated key/value state over gRPC. Each
// created node runs one raft instance over the bus; the service enforces
// a strict per-node connection state machine so lifecycle transitions
// never overlap.
package consensus

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	uberatomic "go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	consensuspb "github.com/flowpro-icc/tnc-gateway/api/protos/consensus/v1"
	"github.com/flowpro-icc/tnc-gateway/pkg/metrics"
	"github.com/flowpro-icc/tnc-gateway/pkg/raftbus"
)

// Controller is the per-node raft surface the service drives. The real
// implementation is *raftbus.Controller; tests script a fake.
type Controller interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Stop(ctx context.Context) error
	Shutdown(ctx context.Context) error
	Propose(ctx context.Context, cmd []byte) ([]byte, error)
	State(ctx context.Context) ([]byte, error)
	ObserveState() (<-chan []byte, func())
	ClusterConfiguration(ctx context.Context) ([]string, error)
	ObserveClusterConfiguration() ([]string, <-chan []string, func())
}

// ControllerFactory builds the controller behind a created node.
type ControllerFactory func(id, cluster string, bootstrap bool) (Controller, error)

// RaftFactory is the production factory: raft over the given bus, one
// bolt file per node id under dataDir, topics scoped by namespace and
// cluster.
func RaftFactory(bus raftbus.Bus, namespace, dataDir string, log *zap.Logger) ControllerFactory {
	return func(id, cluster string, bootstrap bool) (Controller, error) {
		noop, err := EncodeNoop()
		if err != nil {
			return nil, err
		}
		return raftbus.New(raftbus.Config{
			ID:          id,
			TopicPrefix: namespace + "/raft/" + cluster,
			Bootstrap:   bootstrap,
			DataDir:     dataDir,
			Machine:     NewKVState(),
			NoopCommand: noop,
			Bus:         bus,
			Logger:      log,
		})
	}
}

// nodeState is the per-node connection state machine.
type nodeState int

const (
	stateCreated nodeState = iota
	stateConnecting
	stateConnected
	stateDisconnecting
	stateDisconnected
	stateStopping
	stateStopped
)

func (s nodeState) String() string {
	switch s {
	case stateCreated:
		return "created"
	case stateConnecting:
		return "connecting"
	case stateConnected:
		return "connected"
	case stateDisconnecting:
		return "disconnecting"
	case stateDisconnected:
		return "disconnected"
	case stateStopping:
		return "stopping"
	case stateStopped:
		return "stopped"
	}
	return "unknown"
}

type node struct {
	id         string
	cluster    string
	controller Controller
	state      *uberatomic.Int32
}

func (n *node) load() nodeState   { return nodeState(n.state.Load()) }
func (n *node) store(s nodeState) { n.state.Store(int32(s)) }

func (n *node) swap(from, to nodeState) bool {
	return n.state.CompareAndSwap(int32(from), int32(to))
}

// Service implements flowpro.tnc.consensus.v1.ConsensusService.
type Service struct {
	consensuspb.UnimplementedConsensusServiceServer

	log     *zap.Logger
	factory ControllerFactory

	mu    sync.Mutex
	nodes map[string]*node
}

// NewService builds the consensus gateway around a controller factory.
func NewService(log *zap.Logger, factory ControllerFactory) *Service {
	return &Service{
		log:     log.Named("consensus"),
		factory: factory,
		nodes:   make(map[string]*node),
	}
}

// Create allocates a node for the named cluster. The node starts halted;
// Connect brings it into the cluster.
func (s *Service) Create(_ context.Context, req *consensuspb.CreateNodeRequest) (*consensuspb.CreateNodeReply, error) {
	cluster := req.GetCluster()
	if cluster == "" || strings.ContainsAny(cluster, "\x00#+/") {
		return nil, status.Error(codes.InvalidArgument, "Cluster name must be non-empty and free of wildcard characters")
	}

	id := uuid.NewString()
	controller, err := s.factory(id, cluster, req.GetShouldCreateCluster())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to create Raft node: %v", err)
	}

	n := &node{id: id, cluster: cluster, controller: controller, state: uberatomic.NewInt32(int32(stateCreated))}
	s.mu.Lock()
	s.nodes[id] = n
	s.mu.Unlock()

	s.log.Info("raft node created", zap.String("node", id), zap.String("cluster", cluster), zap.Bool("bootstrap", req.GetShouldCreateCluster()))
	return &consensuspb.CreateNodeReply{Id: id}, nil
}

// Connect joins the node to its cluster. A failed connect returns the
// node to Created so the caller may retry; a stopped node reconnects with
// its persisted log.
func (s *Service) Connect(ctx context.Context, ref *consensuspb.NodeRef) (*consensuspb.NodeAck, error) {
	n, err := s.lookup(ref.GetId())
	if err != nil {
		return nil, err
	}

	prev := n.load()
	switch prev {
	case stateCreated, stateStopped:
	default:
		return nil, rejectState(prev)
	}
	if !n.swap(prev, stateConnecting) {
		return nil, rejectState(n.load())
	}

	if err := n.controller.Connect(ctx); err != nil {
		n.store(prev)
		s.log.Warn("raft node connect failed", zap.String("node", n.id), zap.Error(err))
		return nil, translate(err)
	}
	n.store(stateConnected)
	metrics.RaftNodesConnected.Inc()
	s.log.Info("raft node connected", zap.String("node", n.id), zap.String("cluster", n.cluster))
	return &consensuspb.NodeAck{}, nil
}

// Disconnect removes the node from cluster membership and deletes its
// persisted state. The node is terminal afterwards.
func (s *Service) Disconnect(ctx context.Context, ref *consensuspb.NodeRef) (*consensuspb.NodeAck, error) {
	n, err := s.lookup(ref.GetId())
	if err != nil {
		return nil, err
	}
	if !n.swap(stateConnected, stateDisconnecting) {
		return nil, rejectState(n.load())
	}

	discErr := n.controller.Disconnect(ctx)
	n.store(stateDisconnected)
	metrics.RaftNodesConnected.Dec()
	if discErr != nil {
		s.log.Warn("raft node disconnect failed", zap.String("node", n.id), zap.Error(discErr))
		return nil, translate(discErr)
	}
	s.log.Info("raft node disconnected", zap.String("node", n.id))
	return &consensuspb.NodeAck{}, nil
}

// Stop halts the node while keeping its membership and persisted log, so
// a later Connect rejoins where it left off.
func (s *Service) Stop(ctx context.Context, ref *consensuspb.NodeRef) (*consensuspb.NodeAck, error) {
	n, err := s.lookup(ref.GetId())
	if err != nil {
		return nil, err
	}
	if !n.swap(stateConnected, stateStopping) {
		return nil, rejectState(n.load())
	}

	stopErr := n.controller.Stop(ctx)
	n.store(stateStopped)
	metrics.RaftNodesConnected.Dec()
	if stopErr != nil {
		s.log.Warn("raft node stop failed", zap.String("node", n.id), zap.Error(stopErr))
		return nil, translate(stopErr)
	}
	s.log.Info("raft node stopped", zap.String("node", n.id))
	return &consensuspb.NodeAck{}, nil
}

// Propose submits one key/value mutation and returns the committed state
// that includes it.
func (s *Service) Propose(ctx context.Context, req *consensuspb.ProposeRequest) (*consensuspb.RaftState, error) {
	n, err := s.connected(req.GetId())
	if err != nil {
		return nil, err
	}

	input := req.GetInput()
	if input == nil {
		return nil, status.Error(codes.InvalidArgument, "Proposal input is required")
	}

	var cmd []byte
	switch input.GetOp() {
	case consensuspb.RaftInputOperation_RAFT_INPUT_OPERATION_PUT:
		value := input.GetValue()
		if value == nil {
			value = structpb.NewNullValue()
		}
		if value.GetKind() == nil {
			metrics.ProposalsSubmitted.WithLabelValues("rejected").Inc()
			return nil, status.Error(codes.Internal, "Proposed value is not a legal tagged value")
		}
		cmd, err = EncodePut(input.GetKey(), value)
	case consensuspb.RaftInputOperation_RAFT_INPUT_OPERATION_DELETE:
		cmd, err = EncodeDelete(input.GetKey())
	default:
		return nil, status.Errorf(codes.InvalidArgument, "Unknown proposal operation %d", input.GetOp())
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to encode proposal: %v", err)
	}

	state, err := n.controller.Propose(ctx, cmd)
	if err != nil {
		metrics.ProposalsSubmitted.WithLabelValues("failed").Inc()
		return nil, translate(err)
	}
	metrics.ProposalsSubmitted.WithLabelValues("applied").Inc()
	return s.decodeState(state)
}

// GetState proposes a no-op and returns the resulting state, so the
// answer reflects every commit that preceded the call.
func (s *Service) GetState(ctx context.Context, ref *consensuspb.NodeRef) (*consensuspb.RaftState, error) {
	n, err := s.connected(ref.GetId())
	if err != nil {
		return nil, err
	}
	state, err := n.controller.State(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return s.decodeState(state)
}

// ObserveState streams the replicated state after every commit the node
// applies. The stream ends cleanly when the node halts.
func (s *Service) ObserveState(ref *consensuspb.NodeRef, stream grpc.ServerStreamingServer[consensuspb.RaftState]) error {
	n, err := s.connected(ref.GetId())
	if err != nil {
		return err
	}
	states, cancel := n.controller.ObserveState()
	defer cancel()

	for {
		select {
		case state, ok := <-states:
			if !ok {
				return nil
			}
			reply, err := s.decodeState(state)
			if err != nil {
				return err
			}
			if err := stream.Send(reply); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

// GetClusterConfiguration returns the ids of the current cluster members.
func (s *Service) GetClusterConfiguration(ctx context.Context, ref *consensuspb.NodeRef) (*consensuspb.ClusterConfiguration, error) {
	n, err := s.connected(ref.GetId())
	if err != nil {
		return nil, err
	}
	ids, err := n.controller.ClusterConfiguration(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return &consensuspb.ClusterConfiguration{Ids: ids}, nil
}

// ObserveClusterConfiguration streams the membership, starting with the
// current one, then on every change.
func (s *Service) ObserveClusterConfiguration(ref *consensuspb.NodeRef, stream grpc.ServerStreamingServer[consensuspb.ClusterConfiguration]) error {
	n, err := s.connected(ref.GetId())
	if err != nil {
		return err
	}
	current, changes, cancel := n.controller.ObserveClusterConfiguration()
	defer cancel()

	if current != nil {
		if err := stream.Send(&consensuspb.ClusterConfiguration{Ids: current}); err != nil {
			return err
		}
	}
	for {
		select {
		case ids, ok := <-changes:
			if !ok {
				return nil
			}
			if err := stream.Send(&consensuspb.ClusterConfiguration{Ids: ids}); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

// Shutdown halts every connected node in parallel. Membership and
// persisted files stay untouched; another gateway instance may pick the
// nodes up by id.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	connected := make([]*node, 0, len(s.nodes))
	for _, n := range s.nodes {
		if n.swap(stateConnected, stateStopping) {
			connected = append(connected, n)
		}
	}
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, n := range connected {
		n := n
		g.Go(func() error {
			defer n.store(stateStopped)
			defer metrics.RaftNodesConnected.Dec()
			if err := n.controller.Shutdown(ctx); err != nil {
				s.log.Warn("raft node shutdown failed", zap.String("node", n.id), zap.Error(err))
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) lookup(id string) (*node, error) {
	s.mu.Lock()
	n, ok := s.nodes[id]
	s.mu.Unlock()
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "Raft node with this id has not been created")
	}
	return n, nil
}

func (s *Service) connected(id string) (*node, error) {
	n, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if st := n.load(); st != stateConnected {
		return nil, rejectState(st)
	}
	return n, nil
}

func (s *Service) decodeState(state []byte) (*consensuspb.RaftState, error) {
	reply, err := DecodeState(state)
	if err != nil {
		s.log.Error("replicated state failed to decode", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "Failed to decode replicated state: %v", err)
	}
	return reply, nil
}

// rejectState maps a wrong-state operation to its status. Transitional
// states name themselves so callers can back off and retry.
func rejectState(st nodeState) error {
	switch st {
	case stateConnecting, stateDisconnecting, stateStopping:
		return status.Errorf(codes.Unavailable, "Raft node is currently %s", st)
	case stateDisconnected:
		return status.Error(codes.Unavailable, "Raft node has been disconnected")
	case stateConnected:
		return status.Error(codes.Unavailable, "Raft node is already connected")
	default:
		return status.Errorf(codes.Unavailable, "Raft node is %s, not connected", st)
	}
}

// translate maps controller errors onto the gRPC taxonomy.
func translate(err error) error {
	switch {
	case errors.Is(err, raftbus.ErrProposalQueueFull):
		return status.Error(codes.OutOfRange, "Raft proposal queue is full")
	case errors.Is(err, raftbus.ErrHaltedBeforeCompletion):
		return status.Error(codes.Unavailable, "Raft node halted before the operation completed")
	case errors.Is(err, raftbus.ErrNotRunning):
		return status.Error(codes.Unavailable, "Raft node is not running")
	default:
		return status.Errorf(codes.Internal, "Raft operation failed: %v", err)
	}
}
