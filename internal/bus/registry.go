package bus

import (
	"sync"

	"github.com/flowpro-icc/tnc-gateway/pkg/json"
	"github.com/flowpro-icc/tnc-gateway/pkg/metrics"
)

// AgentEvent is one presence change of a remote or local agent.
type AgentEvent struct {
	Identity Identity
	Join     bool
}

// agentRegistry tracks the agents known from retained identity messages
// and fans presence changes out to lifecycle watchers. Watchers outlive
// bus restarts; an identity replacement surfaces as LEAVE then JOIN.
type agentRegistry struct {
	mu       sync.Mutex
	agents   map[string]Identity
	next     int
	watchers map[int]*mailbox[AgentEvent]
}

func newAgentRegistry() *agentRegistry {
	return &agentRegistry{
		agents:   make(map[string]Identity),
		watchers: make(map[int]*mailbox[AgentEvent]),
	}
}

// handle applies one identity message. An empty body is the tombstone of
// a departed agent; a changed name or role replaces the identity.
func (r *agentRegistry) handle(agentID string, body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, known := r.agents[agentID]
	if len(body) == 0 {
		if known {
			delete(r.agents, agentID)
			r.emit(AgentEvent{Identity: prev, Join: false})
		}
		return
	}

	var id Identity
	if err := json.Unmarshal(body, &id); err != nil || id.ID == "" {
		return
	}
	if known {
		if prev == id {
			// Retained replay of an identity we already track.
			return
		}
		r.emit(AgentEvent{Identity: prev, Join: false})
	}
	r.agents[agentID] = id
	r.emit(AgentEvent{Identity: id, Join: true})
}

// clear drops every known agent, emitting a LEAVE for each. Runs when the
// bus stops; retained replay on the next start re-joins the live ones.
func (r *agentRegistry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, identity := range r.agents {
		delete(r.agents, id)
		r.emit(AgentEvent{Identity: identity, Join: false})
	}
}

func (r *agentRegistry) emit(ev AgentEvent) {
	if ev.Join {
		metrics.AgentLifecycleEvents.WithLabelValues("join").Inc()
	} else {
		metrics.AgentLifecycleEvents.WithLabelValues("leave").Inc()
	}
	for _, box := range r.watchers {
		box.put(ev)
	}
}

// observe returns a snapshot of the known agents plus the stream of
// subsequent changes. Snapshot and registration are atomic, so no change
// is missed or duplicated in between.
func (r *agentRegistry) observe() ([]Identity, <-chan AgentEvent, func()) {
	r.mu.Lock()
	snapshot := make([]Identity, 0, len(r.agents))
	for _, id := range r.agents {
		snapshot = append(snapshot, id)
	}
	box := newMailbox[AgentEvent]()
	key := r.next
	r.next++
	r.watchers[key] = box
	r.mu.Unlock()

	out := make(chan AgentEvent)
	go func() {
		defer close(out)
		for {
			ev, ok := box.take()
			if !ok {
				return
			}
			select {
			case out <- ev:
			case <-box.closed():
				return
			}
		}
	}()

	cancel := func() {
		r.mu.Lock()
		delete(r.watchers, key)
		r.mu.Unlock()
		box.close()
	}
	return snapshot, out, cancel
}

// ObserveAgents returns the currently known agents and a stream of
// subsequent presence changes. The stream survives bus restarts; cancel
// releases it.
func (a *Adapter) ObserveAgents() ([]Identity, <-chan AgentEvent, func()) {
	return a.agents.observe()
}
