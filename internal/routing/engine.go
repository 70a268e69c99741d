// Package routing is the in-process message fabric: registration tables
// for push and request routes, per-request correlation, and policy-driven
// dispatch. It never touches the bus.
package routing

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	routingpb "github.com/flowpro-icc/tnc-gateway/api/protos/routing/v1"
	"github.com/flowpro-icc/tnc-gateway/pkg/metrics"
)

// pushRegistration is one live server stream on a push route. Sends are
// serialized per registration; a gRPC stream does not admit concurrent
// writers.
type pushRegistration struct {
	sendMu sync.Mutex
	send   func(*routingpb.PushEvent) error
}

func (r *pushRegistration) deliver(ev *routingpb.PushEvent) error {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	return r.send(ev)
}

// requestRegistration is one live server stream on a request route.
type requestRegistration struct {
	sendMu sync.Mutex
	send   func(*routingpb.RequestEvent) error
}

func (r *requestRegistration) deliver(ev *routingpb.RequestEvent) error {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	return r.send(ev)
}

// requestGroup is the per-route record of request registrations. All
// registrations share one policy; request ids are scoped to the group.
type requestGroup struct {
	policy routingpb.RoutePolicy
	regs   []*requestRegistration
	lastID uint32
	cursor int
}

// nextID issues the next request id: monotonically increasing from 1,
// wrapping to 1 past the 32-bit maximum. 0 is never issued.
func (g *requestGroup) nextID() uint32 {
	if g.lastID == math.MaxUint32 {
		g.lastID = 1
	} else {
		g.lastID++
	}
	return g.lastID
}

// pick selects the registration for the next request per the group's
// policy. The group is never empty here.
func (g *requestGroup) pick(rng *rand.Rand) *requestRegistration {
	switch g.policy {
	case routingpb.RoutePolicy_ROUTE_POLICY_LAST:
		return g.regs[len(g.regs)-1]
	case routingpb.RoutePolicy_ROUTE_POLICY_NEXT:
		r := g.regs[g.cursor%len(g.regs)]
		g.cursor = (g.cursor + 1) % len(g.regs)
		return r
	case routingpb.RoutePolicy_ROUTE_POLICY_RANDOM:
		return g.regs[rng.Intn(len(g.regs))]
	default: // SINGLE, FIRST
		return g.regs[0]
	}
}

type pendingKey struct {
	route string
	id    uint32
}

type requestOutcome struct {
	ev  *routingpb.ResponseEvent
	err error
}

// pendingRequest correlates a dispatched request with its eventual
// response. The outcome channel is buffered so neither responder nor
// cascade ever blocks on a departed requester.
type pendingRequest struct {
	reg     *requestRegistration
	ctx     context.Context
	outcome chan requestOutcome
}

// Engine holds the routing tables. Table state is guarded by one mutex;
// stream writes happen outside it, so dispatch on one route never blocks
// bookkeeping on another.
type Engine struct {
	log *zap.Logger

	mu      sync.Mutex
	push    map[string][]*pushRegistration
	request map[string]*requestGroup
	pending map[pendingKey]*pendingRequest
	rng     *rand.Rand
}

// NewEngine builds an empty engine.
func NewEngine(log *zap.Logger, seed int64) *Engine {
	return &Engine{
		log:     log.Named("routing"),
		push:    make(map[string][]*pushRegistration),
		request: make(map[string]*requestGroup),
		pending: make(map[pendingKey]*pendingRequest),
		rng:     rand.New(rand.NewSource(seed)), //nolint:gosec // dispatch fairness, not crypto
	}
}

// AddPush registers a push stream on a route.
func (e *Engine) AddPush(route string, send func(*routingpb.PushEvent) error) *pushRegistration {
	reg := &pushRegistration{send: send}
	e.mu.Lock()
	e.push[route] = append(e.push[route], reg)
	e.mu.Unlock()
	metrics.RouteRegistrations.WithLabelValues("push").Inc()
	e.log.Debug("push registration added", zap.String("route", route))
	return reg
}

// RemovePush removes a push registration; the route's entry goes with its
// last registration.
func (e *Engine) RemovePush(route string, reg *pushRegistration) {
	e.mu.Lock()
	list := e.push[route]
	for i, cur := range list {
		if cur == reg {
			e.push[route] = append(list[:i], list[i+1:]...)
			metrics.RouteRegistrations.WithLabelValues("push").Dec()
			break
		}
	}
	if len(e.push[route]) == 0 {
		delete(e.push, route)
	}
	e.mu.Unlock()
}

// Push writes an event to every registration of its route, in
// registration order, and returns the number of deliveries.
func (e *Engine) Push(ev *routingpb.PushEvent) uint32 {
	e.mu.Lock()
	regs := make([]*pushRegistration, len(e.push[ev.GetRoute()]))
	copy(regs, e.push[ev.GetRoute()])
	e.mu.Unlock()

	var count uint32
	for _, reg := range regs {
		if err := reg.deliver(ev); err != nil {
			e.log.Debug("push delivery failed", zap.String("route", ev.GetRoute()), zap.Error(err))
			continue
		}
		count++
	}
	metrics.EventsRouted.WithLabelValues("push").Add(float64(count))
	return count
}

// AddRequest registers a request stream on a route. The first
// registration fixes the group's policy; later ones must match it, and a
// SINGLE group admits no later ones at all.
func (e *Engine) AddRequest(route string, policy routingpb.RoutePolicy, send func(*routingpb.RequestEvent) error) (*requestRegistration, error) {
	reg := &requestRegistration{send: send}
	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.request[route]
	if !ok {
		e.request[route] = &requestGroup{policy: policy, regs: []*requestRegistration{reg}}
		metrics.RouteRegistrations.WithLabelValues("request").Inc()
		return reg, nil
	}
	if g.policy == routingpb.RoutePolicy_ROUTE_POLICY_SINGLE {
		return nil, status.Error(codes.InvalidArgument, "Additional registration not allowed on route with SINGLE policy")
	}
	if policy != g.policy {
		return nil, status.Errorf(codes.InvalidArgument, "Policy %s conflicts with existing %s registrations on this route", policy, g.policy)
	}
	g.regs = append(g.regs, reg)
	metrics.RouteRegistrations.WithLabelValues("request").Inc()
	return reg, nil
}

// RemoveRequest removes a request registration, cancelling every pending
// request bound to it and deleting the group when it empties.
func (e *Engine) RemoveRequest(route string, reg *requestRegistration) {
	e.mu.Lock()
	g, ok := e.request[route]
	if !ok {
		e.mu.Unlock()
		return
	}
	for i, cur := range g.regs {
		if cur == reg {
			g.regs = append(g.regs[:i], g.regs[i+1:]...)
			metrics.RouteRegistrations.WithLabelValues("request").Dec()
			break
		}
	}
	if len(g.regs) == 0 {
		delete(e.request, route)
		g.cursor = 0
	} else {
		g.cursor %= len(g.regs)
	}

	var cancelled []*pendingRequest
	for key, p := range e.pending {
		if p.reg == reg {
			delete(e.pending, key)
			cancelled = append(cancelled, p)
		}
	}
	e.mu.Unlock()

	for _, p := range cancelled {
		p.outcome <- requestOutcome{err: status.Error(codes.Canceled, "Correlated registration deregistered before response")}
	}
}

// Request dispatches an event to one registration of its route, chosen by
// the group's policy, and suspends until the correlated response, a
// cascade cancellation, or the requester's own cancellation.
func (e *Engine) Request(ctx context.Context, ev *routingpb.RequestEvent) (*routingpb.ResponseEvent, error) {
	route := ev.GetRoute()
	e.mu.Lock()
	g, ok := e.request[route]
	if !ok {
		e.mu.Unlock()
		return nil, status.Error(codes.Unavailable, "No registration available")
	}
	id := g.nextID()
	reg := g.pick(e.rng)
	key := pendingKey{route: route, id: id}
	p := &pendingRequest{reg: reg, ctx: ctx, outcome: make(chan requestOutcome, 1)}
	e.pending[key] = p
	e.mu.Unlock()

	out := &routingpb.RequestEvent{Route: route, Payload: ev.GetPayload(), RequestId: id}
	if err := reg.deliver(out); err != nil {
		e.mu.Lock()
		delete(e.pending, key)
		e.mu.Unlock()
		return nil, status.Error(codes.Unavailable, "No registration available")
	}
	metrics.EventsRouted.WithLabelValues("request").Inc()

	select {
	case outcome := <-p.outcome:
		return outcome.ev, outcome.err
	case <-ctx.Done():
		// The pending entry stays; a late response is dropped by Respond
		// with a zero routing count.
		return nil, status.FromContextError(ctx.Err()).Err()
	}
}

// Respond correlates a response with its pending request. Unknown keys
// are a caller bug; a requester that gave up in the meantime swallows the
// response silently.
func (e *Engine) Respond(ev *routingpb.ResponseEvent) (uint32, error) {
	key := pendingKey{route: ev.GetRoute(), id: ev.GetRequestId()}
	e.mu.Lock()
	p, ok := e.pending[key]
	if !ok {
		e.mu.Unlock()
		return 0, status.Error(codes.InvalidArgument, "Response event discarded as no correlated registration exists")
	}
	delete(e.pending, key)
	e.mu.Unlock()

	if p.ctx.Err() != nil {
		return 0, nil
	}
	resp := &routingpb.ResponseEvent{Route: ev.GetRoute(), Payload: ev.GetPayload()}
	p.outcome <- requestOutcome{ev: resp}
	metrics.EventsRouted.WithLabelValues("response").Inc()
	return 1, nil
}
