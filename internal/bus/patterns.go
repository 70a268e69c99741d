package bus

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/flowpro-icc/tnc-gateway/internal/payload"
	"github.com/flowpro-icc/tnc-gateway/pkg/json"
	"github.com/flowpro-icc/tnc-gateway/pkg/metrics"
)

// callEnvelope is the bus form of a Call event: the opaque payload plus
// the correlation id the caller listens on.
type callEnvelope struct {
	payload.Envelope
	CorrelationID string `json:"correlationId"`
}

// returnError carries a responder-side failure instead of a payload.
type returnError struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

// returnEnvelope is the bus form of a Return event.
type returnEnvelope struct {
	payload.Envelope
	Error *returnError `json:"error,omitempty"`
}

// CallFailure is a responder-side failure delivered through a Return.
type CallFailure struct {
	Code    int32
	Message string
}

// ReturnMessage is one inbound Return event.
type ReturnMessage struct {
	Envelope payload.Envelope
	Error    *CallFailure
}

// CallMessage is one inbound Call event. Respond publishes a Return back
// to the caller's correlation topic; it stays valid until the caller's
// subscription or this client goes away, after which returns are dropped
// by the broker.
type CallMessage struct {
	Envelope payload.Envelope
	Respond  func(ReturnMessage) error
}

// ChannelSubscription streams the events of one channel id. C closes when
// the subscription is cancelled or the bus stops.
type ChannelSubscription struct {
	C      <-chan payload.Envelope
	cancel func()
}

// Cancel releases the subscription.
func (s *ChannelSubscription) Cancel() { s.cancel() }

// CallStream streams the Return events of one published Call. C closes
// when the stream is cancelled or the bus stops; the count of returns is
// unbounded.
type CallStream struct {
	C      <-chan ReturnMessage
	cancel func()
}

// Cancel releases the stream and its correlation subscription.
func (s *CallStream) Cancel() { s.cancel() }

// CallObservation streams the inbound Call events of one operation.
type CallObservation struct {
	C      <-chan CallMessage
	cancel func()
}

// Cancel releases the observation.
func (s *CallObservation) Cancel() { s.cancel() }

// PublishChannel multicasts an opaque payload on a channel id. Delivery
// includes the local agent's own matching observations, because the event
// goes through the broker like any other.
func (a *Adapter) PublishChannel(id string, env payload.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal channel envelope")
	}
	if err := a.publish(a.Topic("channel", id), body, false); err != nil {
		return err
	}
	metrics.BusEventsPublished.WithLabelValues("channel").Inc()
	return nil
}

// ObserveChannel subscribes to a channel id.
func (a *Adapter) ObserveChannel(id string) (*ChannelSubscription, error) {
	sub, err := a.subscribe(a.Topic("channel", id))
	if err != nil {
		return nil, err
	}
	out := make(chan payload.Envelope)
	go func() {
		defer close(out)
		for {
			m, ok := sub.box.take()
			if !ok {
				return
			}
			var env payload.Envelope
			if err := json.Unmarshal(m.body, &env); err != nil {
				a.log.Warn("discarding malformed channel event", zap.Error(err))
				continue
			}
			metrics.BusEventsReceived.WithLabelValues("channel").Inc()
			select {
			case out <- env:
			case <-sub.box.closed():
				return
			}
		}
	}()
	return &ChannelSubscription{C: out, cancel: sub.cancel}, nil
}

// PublishCall publishes a Call and returns the stream of its Return
// events. The correlation id is allocated here and never leaves the bus
// layer; the subscription on the return topic is in place before the call
// is published, so no response can be missed.
func (a *Adapter) PublishCall(operation string, env payload.Envelope) (*CallStream, error) {
	corr := uuid.NewString()
	sub, err := a.subscribe(a.Topic("return", corr))
	if err != nil {
		return nil, err
	}

	call := callEnvelope{Envelope: env, CorrelationID: corr}
	body, err := json.Marshal(call)
	if err != nil {
		sub.cancel()
		return nil, errors.Wrap(err, "marshal call envelope")
	}
	if err := a.publish(a.Topic("call", operation), body, false); err != nil {
		sub.cancel()
		return nil, err
	}
	metrics.BusEventsPublished.WithLabelValues("call").Inc()

	out := make(chan ReturnMessage)
	go func() {
		defer close(out)
		for {
			m, ok := sub.box.take()
			if !ok {
				return
			}
			var ret returnEnvelope
			if err := json.Unmarshal(m.body, &ret); err != nil {
				a.log.Warn("discarding malformed return event", zap.Error(err))
				continue
			}
			metrics.BusEventsReceived.WithLabelValues("return").Inc()
			msg := ReturnMessage{Envelope: ret.Envelope}
			if ret.Error != nil {
				msg.Error = &CallFailure{Code: ret.Error.Code, Message: ret.Error.Message}
			}
			select {
			case out <- msg:
			case <-sub.box.closed():
				return
			}
		}
	}()
	return &CallStream{C: out, cancel: sub.cancel}, nil
}

// ObserveCall subscribes to the Call events of an operation. Each message
// carries a Respond function bound to the caller's correlation topic.
func (a *Adapter) ObserveCall(operation string) (*CallObservation, error) {
	sub, err := a.subscribe(a.Topic("call", operation))
	if err != nil {
		return nil, err
	}
	out := make(chan CallMessage)
	go func() {
		defer close(out)
		for {
			m, ok := sub.box.take()
			if !ok {
				return
			}
			var call callEnvelope
			if err := json.Unmarshal(m.body, &call); err != nil || call.CorrelationID == "" {
				a.log.Warn("discarding malformed call event", zap.Error(err))
				continue
			}
			metrics.BusEventsReceived.WithLabelValues("call").Inc()
			msg := CallMessage{
				Envelope: call.Envelope,
				Respond:  a.responder(call.CorrelationID),
			}
			select {
			case out <- msg:
			case <-sub.box.closed():
				return
			}
		}
	}()
	return &CallObservation{C: out, cancel: sub.cancel}, nil
}

// responder binds a Return publisher to one call's correlation topic.
func (a *Adapter) responder(corr string) func(ReturnMessage) error {
	topic := a.Topic("return", corr)
	return func(ret ReturnMessage) error {
		env := returnEnvelope{Envelope: ret.Envelope}
		if ret.Error != nil {
			env.Error = &returnError{Code: ret.Error.Code, Message: ret.Error.Message}
		}
		body, err := json.Marshal(env)
		if err != nil {
			return errors.Wrap(err, "marshal return envelope")
		}
		if err := a.publish(topic, body, false); err != nil {
			return err
		}
		metrics.BusEventsPublished.WithLabelValues("return").Inc()
		return nil
	}
}

// Publish sends raw bytes on an absolute topic. Raw traffic is the
// consensus transport's lane; it bypasses the envelope codec.
func (a *Adapter) Publish(topic string, body []byte) error {
	if err := a.publish(topic, body, false); err != nil {
		return err
	}
	metrics.BusEventsPublished.WithLabelValues("raw").Inc()
	return nil
}

// Subscribe delivers the raw bytes of every message on a topic filter to
// the handler, in per-publisher order, until the returned cancel runs or
// the bus stops.
func (a *Adapter) Subscribe(topic string, handler func(topic string, body []byte)) (func(), error) {
	sub, err := a.subscribe(topic)
	if err != nil {
		return nil, err
	}
	go func() {
		for {
			m, ok := sub.box.take()
			if !ok {
				return
			}
			metrics.BusEventsReceived.WithLabelValues("raw").Inc()
			handler(m.topic, m.body)
		}
	}()
	return sub.cancel, nil
}

func marshalIdentity(id Identity) ([]byte, error) {
	b, err := json.Marshal(id)
	return b, errors.Wrap(err, "marshal identity")
}

// pumpIdentities feeds the presence registry from the adapter's own
// identity subscription.
func (a *Adapter) pumpIdentities(sub *subscription) {
	for {
		m, ok := sub.box.take()
		if !ok {
			// The run ended; everything we knew is unobservable now.
			a.agents.clear()
			return
		}
		agentID := m.topic[strings.LastIndexByte(m.topic, '/')+1:]
		a.agents.handle(agentID, m.body)
	}
}
