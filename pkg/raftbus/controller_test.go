package raftbus

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// journalMachine appends every non-empty command to a semicolon-joined
// journal; an empty command is the read barrier.
type journalMachine struct {
	mu    sync.Mutex
	state []byte
}

func (m *journalMachine) Apply(cmd []byte) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(cmd) > 0 {
		m.state = append(m.state, cmd...)
		m.state = append(m.state, ';')
	}
	return append([]byte(nil), m.state...)
}

func (m *journalMachine) Snapshot() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.state...), nil
}

func (m *journalMachine) Restore(state []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = append([]byte(nil), state...)
	return nil
}

func newClusterNode(t *testing.T, bus Bus, dir, id string, bootstrap bool) *Controller {
	t.Helper()
	c, err := New(Config{
		ID:          id,
		TopicPrefix: "test/raft/journal",
		Bootstrap:   bootstrap,
		DataDir:     dir,
		Machine:     &journalMachine{},
		Bus:         bus,
		Logger:      zaptest.NewLogger(t),
		RPCTimeout:  2 * time.Second,

		HeartbeatTimeout:   100 * time.Millisecond,
		ElectionTimeout:    100 * time.Millisecond,
		LeaderLeaseTimeout: 50 * time.Millisecond,
		CommitTimeout:      5 * time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func eventuallyMembers(t *testing.T, c *Controller, want []string) {
	t.Helper()
	require.Eventually(t, func() bool {
		ids, err := c.ClusterConfiguration(context.Background())
		if err != nil {
			return false
		}
		return assert.ObjectsAreEqual(want, ids)
	}, 10*time.Second, 100*time.Millisecond, "membership never converged to %v", want)
}

func TestControllerClusterLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("multi-node raft convergence is slow")
	}

	bus := newMemBus()
	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	n1 := newClusterNode(t, bus, dir, "n1", true)
	require.NoError(t, n1.Connect(ctx))
	defer n1.Shutdown(context.Background()) //nolint:errcheck // second halt reports not running

	n2 := newClusterNode(t, bus, dir, "n2", false)
	require.NoError(t, n2.Connect(ctx))
	defer n2.Shutdown(context.Background()) //nolint:errcheck

	n3 := newClusterNode(t, bus, dir, "n3", false)
	require.NoError(t, n3.Connect(ctx))
	defer n3.Shutdown(context.Background()) //nolint:errcheck

	all := []string{"n1", "n2", "n3"}
	eventuallyMembers(t, n1, all)
	eventuallyMembers(t, n2, all)
	eventuallyMembers(t, n3, all)

	// A proposal through a follower reaches the leader and commits.
	state, err := n3.Propose(ctx, []byte("alpha"))
	require.NoError(t, err)
	assert.Equal(t, "alpha;", string(state))

	// State is a read barrier: it reflects the commit on every node.
	state, err = n2.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alpha;", string(state))

	// Commits surface on other nodes' state observers.
	obs, cancelObs := n1.ObserveState()
	defer cancelObs()
	_, err = n2.Propose(ctx, []byte("beta"))
	require.NoError(t, err)
	requireObserved(t, obs, "beta")

	// Stop keeps both the membership entry and the persisted log.
	require.NoError(t, n3.Stop(ctx))
	_, err = n3.Propose(ctx, []byte("gamma"))
	require.ErrorIs(t, err, ErrNotRunning)
	_, err = os.Stat(n3.DBPath())
	require.NoError(t, err)
	ids, err := n1.ClusterConfiguration(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, ids)

	// A stopped node reconnects with its old id and catches up.
	require.NoError(t, n3.Connect(ctx))
	state, err = n3.State(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(state), "alpha;")
	assert.Contains(t, string(state), "beta;")

	current, confs, cancelConfs := n1.ObserveClusterConfiguration()
	defer cancelConfs()
	assert.Equal(t, all, current)

	// Disconnect leaves the cluster for good and deletes the bolt file.
	require.NoError(t, n3.Disconnect(ctx))
	eventuallyMembers(t, n1, []string{"n1", "n2"})
	requireConfWithout(t, confs, "n3")
	_, err = os.Stat(n3.DBPath())
	require.True(t, os.IsNotExist(err))
}

// requireObserved drains the state stream until a state mentioning want
// arrives; read barriers interleave extra states on the same stream.
func requireObserved(t *testing.T, obs <-chan []byte, want string) {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case state, ok := <-obs:
			require.True(t, ok, "state stream closed before %q was observed", want)
			if strings.Contains(string(state), want+";") {
				return
			}
		case <-deadline:
			t.Fatalf("state containing %q never observed", want)
		}
	}
}

// requireConfWithout drains the configuration stream until a membership
// without gone arrives.
func requireConfWithout(t *testing.T, confs <-chan []string, gone string) {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case ids, ok := <-confs:
			require.True(t, ok, "configuration stream closed before %q left", gone)
			if !slicesContain(ids, gone) {
				return
			}
		case <-deadline:
			t.Fatalf("membership without %q never observed", gone)
		}
	}
}

func slicesContain(ids []string, want string) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

func TestControllerRejectsIncompleteConfig(t *testing.T) {
	_, err := New(Config{ID: "n1", TopicPrefix: "test/raft/x"})
	require.Error(t, err)

	_, err = New(Config{TopicPrefix: "test/raft/x", Bus: newMemBus(), Machine: &journalMachine{}})
	require.Error(t, err)
}

func TestControllerHaltedOperationsReportNotRunning(t *testing.T) {
	c, err := New(Config{
		ID:          "n1",
		TopicPrefix: "test/raft/halted",
		DataDir:     t.TempDir(),
		Machine:     &journalMachine{},
		Bus:         newMemBus(),
		Logger:      zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.Propose(ctx, []byte("x"))
	require.ErrorIs(t, err, ErrNotRunning)
	_, err = c.ClusterConfiguration(ctx)
	require.ErrorIs(t, err, ErrNotRunning)
	require.ErrorIs(t, c.Stop(ctx), ErrNotRunning)
	require.ErrorIs(t, c.Disconnect(ctx), ErrNotRunning)
}
