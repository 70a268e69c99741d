// Package bridge is the gRPC facade over the bus: the communication
// service mapping Channel and Call-Return onto bus events, and the
// lifecycle service tracking agent presence.
package bridge

import (
	"sync"

	"github.com/flowpro-icc/tnc-gateway/internal/bus"
)

// sinkRegistry holds the response sinks of observed calls, keyed by the
// local correlation id handed to the observing client. A sink exists from
// the delivery of its Call event until the matching Complete, or until
// the observing stream goes away.
type sinkRegistry struct {
	mu    sync.Mutex
	sinks map[string]*sink
}

type sink struct {
	respond func(bus.ReturnMessage) error
	owner   *sinkOwner
}

// sinkOwner groups the sinks created for one ObserveCall stream so they
// can be released together when the stream ends.
type sinkOwner struct {
	reg *sinkRegistry
	ids map[string]struct{}
}

func newSinkRegistry() *sinkRegistry {
	return &sinkRegistry{sinks: make(map[string]*sink)}
}

func (r *sinkRegistry) newOwner() *sinkOwner {
	return &sinkOwner{reg: r, ids: make(map[string]struct{})}
}

// add registers a sink under the owner's stream.
func (o *sinkOwner) add(corr string, respond func(bus.ReturnMessage) error) {
	o.reg.mu.Lock()
	defer o.reg.mu.Unlock()
	o.reg.sinks[corr] = &sink{respond: respond, owner: o}
	o.ids[corr] = struct{}{}
}

// release removes every sink the owner still holds.
func (o *sinkOwner) release() {
	o.reg.mu.Lock()
	defer o.reg.mu.Unlock()
	for corr := range o.ids {
		delete(o.reg.sinks, corr)
	}
	o.ids = make(map[string]struct{})
}

// get looks a sink up without removing it; one call can yield many
// returns.
func (r *sinkRegistry) get(corr string) (func(bus.ReturnMessage) error, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sinks[corr]
	if !ok {
		return nil, false
	}
	return s.respond, true
}

// remove drops a sink. Removing an absent id is a no-op, which makes
// Complete idempotent.
func (r *sinkRegistry) remove(corr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sinks[corr]
	if !ok {
		return
	}
	delete(r.sinks, corr)
	delete(s.owner.ids, corr)
}
