package bridge

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	lifecyclepb "github.com/flowpro-icc/tnc-gateway/api/protos/lifecycle/v1"
	"github.com/flowpro-icc/tnc-gateway/internal/bus"
)

// Lifecycle is the LifecycleService surface: selector-filtered agent
// presence tracking with initial snapshot semantics.
type Lifecycle struct {
	lifecyclepb.UnimplementedLifecycleServiceServer
	log     *zap.Logger
	adapter *bus.Adapter
}

// NewLifecycle wires the lifecycle service to the bus adapter.
func NewLifecycle(adapter *bus.Adapter, log *zap.Logger) *Lifecycle {
	return &Lifecycle{log: log.Named("bridge.lifecycle"), adapter: adapter}
}

// compileSelector turns an AgentSelector into a predicate. An id takes
// precedence over a name; a name of the form /expr/ is compiled as a
// regular expression once, here, before any event is emitted.
func compileSelector(sel *lifecyclepb.AgentSelector) (func(bus.Identity) bool, error) {
	if id := sel.GetIdentityId(); id != "" {
		return func(a bus.Identity) bool { return a.ID == id }, nil
	}
	if name := sel.GetIdentityName(); name != "" {
		if len(name) >= 2 && strings.HasPrefix(name, "/") && strings.HasSuffix(name, "/") {
			re, err := regexp.Compile(name[1 : len(name)-1])
			if err != nil {
				return nil, status.Errorf(codes.InvalidArgument, "invalid identity name pattern: %v", err)
			}
			return func(a bus.Identity) bool { return re.MatchString(a.Name) }, nil
		}
		return func(a bus.Identity) bool { return a.Name == name }, nil
	}
	return func(a bus.Identity) bool { return a.Role == bus.AgentRole }, nil
}

// TrackAgents streams the presence of agents matching the selector: one
// JOIN per currently known matching agent up front, then every subsequent
// change. The stream survives bus restarts; an identity replacement
// arrives as a LEAVE then JOIN pair.
func (l *Lifecycle) TrackAgents(sel *lifecyclepb.AgentSelector, stream grpc.ServerStreamingServer[lifecyclepb.AgentLifecycleEvent]) error {
	match, err := compileSelector(sel)
	if err != nil {
		return err
	}

	snapshot, events, cancel := l.adapter.ObserveAgents()
	defer cancel()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].ID < snapshot[j].ID })
	for _, agent := range snapshot {
		if !match(agent) {
			continue
		}
		if err := stream.Send(l.event(agent, true)); err != nil {
			return err
		}
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !match(ev.Identity) {
				continue
			}
			if err := stream.Send(l.event(ev.Identity, ev.Join)); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func (l *Lifecycle) event(agent bus.Identity, join bool) *lifecyclepb.AgentLifecycleEvent {
	state := lifecyclepb.AgentLifecycleState_AGENT_LIFECYCLE_STATE_LEAVE
	if join {
		state = lifecyclepb.AgentLifecycleState_AGENT_LIFECYCLE_STATE_JOIN
	}
	return &lifecyclepb.AgentLifecycleEvent{
		Identity: &lifecyclepb.AgentIdentity{
			Id:    agent.ID,
			Name:  agent.Name,
			Role:  agent.Role,
			Local: agent.ID == l.adapter.Identity().ID,
		},
		State: state,
	}
}
