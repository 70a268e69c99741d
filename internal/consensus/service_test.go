package consensus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	consensuspb "github.com/flowpro-icc/tnc-gateway/api/protos/consensus/v1"
	"github.com/flowpro-icc/tnc-gateway/pkg/raftbus"
)

// fakeController applies commands to a local KVState and can be scripted
// to fail or hang.
type fakeController struct {
	mu         sync.Mutex
	state      *KVState
	members    []string
	connectErr error
	proposeErr error
	hold       chan struct{}

	connects    int
	disconnects int
	stops       int
	shutdowns   int
}

func newFakeController() *fakeController {
	return &fakeController{state: NewKVState(), members: []string{"self"}}
}

func (f *fakeController) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return f.connectErr
}

func (f *fakeController) Disconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

func (f *fakeController) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeController) Shutdown(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdowns++
	return nil
}

func (f *fakeController) Propose(ctx context.Context, cmd []byte) ([]byte, error) {
	f.mu.Lock()
	hold := f.hold
	err := f.proposeErr
	f.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Apply(cmd), nil
}

func (f *fakeController) State(ctx context.Context) ([]byte, error) {
	noop, err := EncodeNoop()
	if err != nil {
		return nil, err
	}
	return f.Propose(ctx, noop)
}

func (f *fakeController) ObserveState() (<-chan []byte, func()) {
	ch := make(chan []byte)
	close(ch)
	return ch, func() {}
}

func (f *fakeController) ClusterConfiguration(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.members...), nil
}

func (f *fakeController) ObserveClusterConfiguration() ([]string, <-chan []string, func()) {
	ch := make(chan []string)
	close(ch)
	ids, _ := f.ClusterConfiguration(context.Background())
	return ids, ch, func() {}
}

// newTestService returns a service whose factory hands out the given
// controllers in creation order.
func newTestService(t *testing.T, controllers ...*fakeController) *Service {
	t.Helper()
	var next int
	return NewService(zaptest.NewLogger(t), func(id, cluster string, bootstrap bool) (Controller, error) {
		require.Less(t, next, len(controllers), "more nodes created than controllers scripted")
		c := controllers[next]
		next++
		return c, nil
	})
}

func createConnected(t *testing.T, s *Service) string {
	t.Helper()
	ctx := context.Background()
	reply, err := s.Create(ctx, &consensuspb.CreateNodeRequest{Cluster: "orders", ShouldCreateCluster: true})
	require.NoError(t, err)
	_, err = s.Connect(ctx, &consensuspb.NodeRef{Id: reply.GetId()})
	require.NoError(t, err)
	return reply.GetId()
}

func TestCreateValidatesCluster(t *testing.T) {
	s := newTestService(t)
	for _, cluster := range []string{"", "a/b", "a#", "a+"} {
		_, err := s.Create(context.Background(), &consensuspb.CreateNodeRequest{Cluster: cluster})
		assert.Equal(t, codes.InvalidArgument, status.Code(err), "cluster %q", cluster)
	}
}

func TestUnknownNodeID(t *testing.T) {
	s := newTestService(t)
	_, err := s.Connect(context.Background(), &consensuspb.NodeRef{Id: "nope"})
	require.Error(t, err)
	st, _ := status.FromError(err)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Equal(t, "Raft node with this id has not been created", st.Message())
}

func TestConnectionStateMachine(t *testing.T) {
	ctrl := newFakeController()
	s := newTestService(t, ctrl)
	ctx := context.Background()

	reply, err := s.Create(ctx, &consensuspb.CreateNodeRequest{Cluster: "orders", ShouldCreateCluster: true})
	require.NoError(t, err)
	ref := &consensuspb.NodeRef{Id: reply.GetId()}

	// Propose before Connect: wrong state.
	_, err = s.Propose(ctx, &consensuspb.ProposeRequest{Id: ref.GetId(), Input: &consensuspb.RaftInput{Key: "k"}})
	assert.Equal(t, codes.Unavailable, status.Code(err))

	_, err = s.Connect(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, 1, ctrl.connects)

	// Connect while Connected: rejected.
	_, err = s.Connect(ctx, ref)
	assert.Equal(t, codes.Unavailable, status.Code(err))

	// Stop keeps the node reconnectable.
	_, err = s.Stop(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, 1, ctrl.stops)
	_, err = s.Connect(ctx, ref)
	require.NoError(t, err)

	// Disconnect is terminal.
	_, err = s.Disconnect(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, 1, ctrl.disconnects)
	_, err = s.Connect(ctx, ref)
	require.Error(t, err)
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Unavailable, st.Code())
	assert.Equal(t, "Raft node has been disconnected", st.Message())
}

func TestConnectFailureReturnsToCreated(t *testing.T) {
	ctrl := newFakeController()
	ctrl.connectErr = raftbus.ErrNotRunning
	s := newTestService(t, ctrl)
	ctx := context.Background()

	reply, err := s.Create(ctx, &consensuspb.CreateNodeRequest{Cluster: "orders"})
	require.NoError(t, err)
	ref := &consensuspb.NodeRef{Id: reply.GetId()}

	_, err = s.Connect(ctx, ref)
	assert.Equal(t, codes.Unavailable, status.Code(err))

	// A retry is allowed once the fault clears.
	ctrl.connectErr = nil
	_, err = s.Connect(ctx, ref)
	require.NoError(t, err)
}

func TestProposeAndGetState(t *testing.T) {
	ctrl := newFakeController()
	s := newTestService(t, ctrl)
	ctx := context.Background()
	id := createConnected(t, s)

	state, err := s.Propose(ctx, &consensuspb.ProposeRequest{
		Id: id,
		Input: &consensuspb.RaftInput{
			Op:    consensuspb.RaftInputOperation_RAFT_INPUT_OPERATION_PUT,
			Key:   "foo",
			Value: structpb.NewNumberValue(42),
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 42, state.GetEntries()["foo"].GetNumberValue(), 0)

	got, err := s.GetState(ctx, &consensuspb.NodeRef{Id: id})
	require.NoError(t, err)
	assert.InDelta(t, 42, got.GetEntries()["foo"].GetNumberValue(), 0)

	state, err = s.Propose(ctx, &consensuspb.ProposeRequest{
		Id: id,
		Input: &consensuspb.RaftInput{
			Op:  consensuspb.RaftInputOperation_RAFT_INPUT_OPERATION_DELETE,
			Key: "foo",
		},
	})
	require.NoError(t, err)
	assert.Empty(t, state.GetEntries())
}

func TestProposeValueValidation(t *testing.T) {
	ctrl := newFakeController()
	s := newTestService(t, ctrl)
	ctx := context.Background()
	id := createConnected(t, s)

	// Unset value becomes the null value.
	state, err := s.Propose(ctx, &consensuspb.ProposeRequest{
		Id: id,
		Input: &consensuspb.RaftInput{
			Op:  consensuspb.RaftInputOperation_RAFT_INPUT_OPERATION_PUT,
			Key: "foo",
		},
	})
	require.NoError(t, err)
	require.Contains(t, state.GetEntries(), "foo")
	assert.Equal(t, structpb.NullValue_NULL_VALUE, state.GetEntries()["foo"].GetNullValue())

	// A Value without a variant tag is rejected before submission.
	_, err = s.Propose(ctx, &consensuspb.ProposeRequest{
		Id: id,
		Input: &consensuspb.RaftInput{
			Op:    consensuspb.RaftInputOperation_RAFT_INPUT_OPERATION_PUT,
			Key:   "foo",
			Value: &structpb.Value{},
		},
	})
	require.Error(t, err)
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "Proposed value is not a legal tagged value", st.Message())
}

func TestErrorTranslation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"queue full", raftbus.ErrProposalQueueFull, codes.OutOfRange},
		{"halted", raftbus.ErrHaltedBeforeCompletion, codes.Unavailable},
		{"not running", raftbus.ErrNotRunning, codes.Unavailable},
		{"other", assert.AnError, codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := newFakeController()
			s := newTestService(t, ctrl)
			id := createConnected(t, s)

			ctrl.mu.Lock()
			ctrl.proposeErr = tc.err
			ctrl.mu.Unlock()

			_, err := s.Propose(context.Background(), &consensuspb.ProposeRequest{
				Id: id,
				Input: &consensuspb.RaftInput{
					Op:    consensuspb.RaftInputOperation_RAFT_INPUT_OPERATION_PUT,
					Key:   "k",
					Value: structpb.NewBoolValue(true),
				},
			})
			assert.Equal(t, tc.code, status.Code(err))
		})
	}
}

func TestGetClusterConfiguration(t *testing.T) {
	ctrl := newFakeController()
	ctrl.members = []string{"a", "b", "c"}
	s := newTestService(t, ctrl)
	id := createConnected(t, s)

	conf, err := s.GetClusterConfiguration(context.Background(), &consensuspb.NodeRef{Id: id})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, conf.GetIds())
}

func TestShutdownStopsConnectedNodesOnly(t *testing.T) {
	running, halted := newFakeController(), newFakeController()
	s := newTestService(t, running, halted)
	ctx := context.Background()

	createConnected(t, s)

	// The second node is created but never connected.
	_, err := s.Create(ctx, &consensuspb.CreateNodeRequest{Cluster: "orders"})
	require.NoError(t, err)

	require.NoError(t, s.Shutdown(ctx))
	assert.Equal(t, 1, running.shutdowns)
	assert.Zero(t, halted.shutdowns)
	assert.Zero(t, running.disconnects, "shutdown must not touch membership")
}
