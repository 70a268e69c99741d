package bridge

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	communicationpb "github.com/flowpro-icc/tnc-gateway/api/protos/communication/v1"
	"github.com/flowpro-icc/tnc-gateway/internal/bus"
	"github.com/flowpro-icc/tnc-gateway/internal/config"
	"github.com/flowpro-icc/tnc-gateway/internal/payload"
)

// Communication is the CommunicationService surface: Channel and
// Call-Return event patterns plus runtime bus reconfiguration.
type Communication struct {
	communicationpb.UnimplementedCommunicationServiceServer
	log     *zap.Logger
	cfg     *config.Manager
	adapter *bus.Adapter
	sinks   *sinkRegistry
}

// NewCommunication wires the communication service to the bus adapter and
// live configuration.
func NewCommunication(adapter *bus.Adapter, cfg *config.Manager, log *zap.Logger) *Communication {
	return &Communication{
		log:     log.Named("bridge.communication"),
		cfg:     cfg,
		adapter: adapter,
		sinks:   newSinkRegistry(),
	}
}

// validateElement checks a channel id or operation name: non-empty, no
// NUL and none of the MQTT topic metacharacters.
func validateElement(kind, v string) error {
	if v == "" {
		return status.Errorf(codes.InvalidArgument, "%s must not be empty", kind)
	}
	if strings.ContainsAny(v, "\x00#+/") {
		return status.Errorf(codes.InvalidArgument, "%s must not contain NUL, '#', '+', or '/'", kind)
	}
	return nil
}

// failFast returns Unavailable when the bus is offline and the fail-fast
// toggle is on. With the toggle off the adapter queues instead.
func (c *Communication) failFast() error {
	if c.cfg.FailFastIfOffline() && !c.adapter.Online() {
		return status.Error(codes.Unavailable, "Bus is offline")
	}
	return nil
}

// Configure merges the patch into the live bus options and restarts the
// client with them. The restart ends every outstanding observation and
// publish stream cleanly; an identity change additionally surfaces as a
// LEAVE then JOIN on the bus.
func (c *Communication) Configure(_ context.Context, req *communicationpb.ConfigureRequest) (*communicationpb.EventAck, error) {
	patch := config.Patch{
		BrokerURL:    req.GetBrokerUrl(),
		Namespace:    req.GetNamespace(),
		IdentityName: req.GetIdentityName(),
		IdentityID:   req.GetIdentityId(),
		Username:     req.GetUsername(),
		Password:     req.GetPassword(),
		TLSCert:      req.GetTlsCert(),
		TLSKey:       req.GetTlsKey(),
	}
	if v := req.GetVerifyServerCert(); v != nil {
		b := v.GetValue()
		patch.VerifyServerCert = &b
	}
	if v := req.GetNotFailFastIfOffline(); v != nil {
		b := v.GetValue()
		patch.NotFailFastIfOffline = &b
	}

	merged, identityChanged := c.cfg.Merge(patch)
	c.log.Info("reconfiguring bus",
		zap.String("broker", merged.BrokerURL),
		zap.String("namespace", merged.Namespace),
		zap.Bool("identity_changed", identityChanged),
	)
	if err := c.adapter.Restart(merged); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "reconfigure bus: %v", err)
	}
	return &communicationpb.EventAck{}, nil
}

// PublishChannel multicasts an opaque payload on a channel id.
func (c *Communication) PublishChannel(_ context.Context, ev *communicationpb.ChannelEvent) (*communicationpb.EventAck, error) {
	if err := validateElement("channel id", ev.GetId()); err != nil {
		return nil, err
	}
	if err := c.failFast(); err != nil {
		return nil, err
	}
	env := payload.ToBus(ev.GetPayload(), c.adapter.Identity().ID)
	if err := c.adapter.PublishChannel(ev.GetId(), env); err != nil {
		return nil, status.Errorf(codes.Unavailable, "publish channel event: %v", err)
	}
	return &communicationpb.EventAck{}, nil
}

// ObserveChannel streams the events of one channel id until the client
// cancels or the bus stops; a bus stop ends the stream cleanly.
func (c *Communication) ObserveChannel(sel *communicationpb.ChannelSelector, stream grpc.ServerStreamingServer[communicationpb.ChannelEvent]) error {
	if err := validateElement("channel id", sel.GetId()); err != nil {
		return err
	}
	if err := c.failFast(); err != nil {
		return err
	}
	sub, err := c.adapter.ObserveChannel(sel.GetId())
	if err != nil {
		return status.Errorf(codes.Unavailable, "observe channel: %v", err)
	}
	defer sub.Cancel()

	for {
		select {
		case env, ok := <-sub.C:
			if !ok {
				return nil
			}
			wire, err := payload.FromBus(env)
			if err != nil {
				c.log.Warn("discarding undecodable channel event", zap.String("channel", sel.GetId()), zap.Error(err))
				continue
			}
			out := &communicationpb.ChannelEvent{Id: sel.GetId(), Payload: wire, SourceId: env.SourceID}
			if err := stream.Send(out); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

// PublishCall publishes a Call and streams its Return events back. The
// count of returns is unbounded; the stream ends on requester cancel,
// deadline, or bus stop. The outward correlation id is always empty.
func (c *Communication) PublishCall(ev *communicationpb.CallEvent, stream grpc.ServerStreamingServer[communicationpb.ReturnEvent]) error {
	if err := validateElement("operation", ev.GetOperation()); err != nil {
		return err
	}
	if err := c.failFast(); err != nil {
		return err
	}
	env := payload.ToBus(ev.GetPayload(), c.adapter.Identity().ID)
	cs, err := c.adapter.PublishCall(ev.GetOperation(), env)
	if err != nil {
		return status.Errorf(codes.Unavailable, "publish call event: %v", err)
	}
	defer cs.Cancel()

	for {
		select {
		case msg, ok := <-cs.C:
			if !ok {
				return nil
			}
			out := &communicationpb.ReturnEvent{SourceId: msg.Envelope.SourceID}
			if msg.Error != nil {
				out.Error = &communicationpb.CallError{Code: msg.Error.Code, Message: msg.Error.Message}
			} else {
				wire, err := payload.FromBus(msg.Envelope)
				if err != nil {
					c.log.Warn("discarding undecodable return event", zap.Error(err))
					continue
				}
				out.Payload = wire
			}
			if err := stream.Send(out); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

// ObserveCall streams the inbound Call events of an operation. Every
// delivered call gets a fresh local correlation id with a response sink
// behind it; the bus-side responder is never serialized outward.
func (c *Communication) ObserveCall(sel *communicationpb.CallSelector, stream grpc.ServerStreamingServer[communicationpb.CallEvent]) error {
	if err := validateElement("operation", sel.GetOperation()); err != nil {
		return err
	}
	if err := c.failFast(); err != nil {
		return err
	}
	obs, err := c.adapter.ObserveCall(sel.GetOperation())
	if err != nil {
		return status.Errorf(codes.Unavailable, "observe call: %v", err)
	}
	defer obs.Cancel()

	owner := c.sinks.newOwner()
	defer owner.release()

	for {
		select {
		case msg, ok := <-obs.C:
			if !ok {
				return nil
			}
			wire, err := payload.FromBus(msg.Envelope)
			if err != nil {
				c.log.Warn("discarding undecodable call event", zap.String("operation", sel.GetOperation()), zap.Error(err))
				continue
			}
			corr := uuid.NewString()
			owner.add(corr, msg.Respond)
			out := &communicationpb.CallEvent{
				Operation:     sel.GetOperation(),
				Payload:       wire,
				CorrelationId: corr,
				SourceId:      msg.Envelope.SourceID,
			}
			if err := stream.Send(out); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

// PublishReturn answers an observed call through its response sink. A
// missing sink is not an error: late responses after Complete or after
// the observer went away are expected and silently discarded.
func (c *Communication) PublishReturn(_ context.Context, ev *communicationpb.ReturnEvent) (*communicationpb.EventAck, error) {
	respond, ok := c.sinks.get(ev.GetCorrelationId())
	if !ok {
		return &communicationpb.EventAck{}, nil
	}
	if err := c.failFast(); err != nil {
		return nil, err
	}
	msg := bus.ReturnMessage{Envelope: payload.ToBus(ev.GetPayload(), c.adapter.Identity().ID)}
	if e := ev.GetError(); e != nil {
		msg.Error = &bus.CallFailure{Code: e.GetCode(), Message: e.GetMessage()}
	}
	if err := respond(msg); err != nil {
		return nil, status.Errorf(codes.Unavailable, "publish return event: %v", err)
	}
	return &communicationpb.EventAck{}, nil
}

// PublishComplete releases the response sink of an observed call.
// Idempotent; a repeat is a no-op.
func (c *Communication) PublishComplete(_ context.Context, ev *communicationpb.CompleteEvent) (*communicationpb.EventAck, error) {
	c.sinks.remove(ev.GetCorrelationId())
	return &communicationpb.EventAck{}, nil
}
