// Package communicationpb contains the Go bindings for
// communication/v1/communication.proto.
//
// The bindings are maintained by hand against the .proto contract (shipped
// alongside and embedded into the binary) so the module builds without a
// protoc toolchain. Wire compatibility comes from the protobuf struct tags;
// the structs satisfy the legacy message interface the grpc proto codec
// accepts.
package communicationpb

import (
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ConfigureRequest carries the bus connection options to merge into the
// live configuration. Absent fields keep their prior values; the two bool
// wrappers are tri-state (unset / true / false).
type ConfigureRequest struct {
	BrokerUrl            string                `protobuf:"bytes,1,opt,name=broker_url,json=brokerUrl,proto3" json:"broker_url,omitempty"`
	Namespace            string                `protobuf:"bytes,2,opt,name=namespace,proto3" json:"namespace,omitempty"`
	IdentityName         string                `protobuf:"bytes,3,opt,name=identity_name,json=identityName,proto3" json:"identity_name,omitempty"`
	IdentityId           string                `protobuf:"bytes,4,opt,name=identity_id,json=identityId,proto3" json:"identity_id,omitempty"`
	Username             string                `protobuf:"bytes,5,opt,name=username,proto3" json:"username,omitempty"`
	Password             string                `protobuf:"bytes,6,opt,name=password,proto3" json:"password,omitempty"`
	TlsCert              string                `protobuf:"bytes,7,opt,name=tls_cert,json=tlsCert,proto3" json:"tls_cert,omitempty"`
	TlsKey               string                `protobuf:"bytes,8,opt,name=tls_key,json=tlsKey,proto3" json:"tls_key,omitempty"`
	VerifyServerCert     *wrapperspb.BoolValue `protobuf:"bytes,9,opt,name=verify_server_cert,json=verifyServerCert,proto3" json:"verify_server_cert,omitempty"`
	NotFailFastIfOffline *wrapperspb.BoolValue `protobuf:"bytes,10,opt,name=not_fail_fast_if_offline,json=notFailFastIfOffline,proto3" json:"not_fail_fast_if_offline,omitempty"`
}

func (m *ConfigureRequest) Reset()         { *m = ConfigureRequest{} }
func (m *ConfigureRequest) String() string { return msgString(m) }
func (*ConfigureRequest) ProtoMessage()    {}

func (m *ConfigureRequest) GetBrokerUrl() string {
	if m != nil {
		return m.BrokerUrl
	}
	return ""
}

func (m *ConfigureRequest) GetNamespace() string {
	if m != nil {
		return m.Namespace
	}
	return ""
}

func (m *ConfigureRequest) GetIdentityName() string {
	if m != nil {
		return m.IdentityName
	}
	return ""
}

func (m *ConfigureRequest) GetIdentityId() string {
	if m != nil {
		return m.IdentityId
	}
	return ""
}

func (m *ConfigureRequest) GetUsername() string {
	if m != nil {
		return m.Username
	}
	return ""
}

func (m *ConfigureRequest) GetPassword() string {
	if m != nil {
		return m.Password
	}
	return ""
}

func (m *ConfigureRequest) GetTlsCert() string {
	if m != nil {
		return m.TlsCert
	}
	return ""
}

func (m *ConfigureRequest) GetTlsKey() string {
	if m != nil {
		return m.TlsKey
	}
	return ""
}

func (m *ConfigureRequest) GetVerifyServerCert() *wrapperspb.BoolValue {
	if m != nil {
		return m.VerifyServerCert
	}
	return nil
}

func (m *ConfigureRequest) GetNotFailFastIfOffline() *wrapperspb.BoolValue {
	if m != nil {
		return m.NotFailFastIfOffline
	}
	return nil
}

// EventAck acknowledges a publish or configuration operation.
type EventAck struct {
}

func (m *EventAck) Reset()         { *m = EventAck{} }
func (m *EventAck) String() string { return msgString(m) }
func (*EventAck) ProtoMessage()    {}

// ChannelEvent is a one-way multicast event on a bus channel.
type ChannelEvent struct {
	Id       string     `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Payload  *anypb.Any `protobuf:"bytes,2,opt,name=payload,proto3" json:"payload,omitempty"`
	SourceId string     `protobuf:"bytes,3,opt,name=source_id,json=sourceId,proto3" json:"source_id,omitempty"`
}

func (m *ChannelEvent) Reset()         { *m = ChannelEvent{} }
func (m *ChannelEvent) String() string { return msgString(m) }
func (*ChannelEvent) ProtoMessage()    {}

func (m *ChannelEvent) GetId() string {
	if m != nil {
		return m.Id
	}
	return ""
}

func (m *ChannelEvent) GetPayload() *anypb.Any {
	if m != nil {
		return m.Payload
	}
	return nil
}

func (m *ChannelEvent) GetSourceId() string {
	if m != nil {
		return m.SourceId
	}
	return ""
}

// ChannelSelector names the channel to observe.
type ChannelSelector struct {
	Id string `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
}

func (m *ChannelSelector) Reset()         { *m = ChannelSelector{} }
func (m *ChannelSelector) String() string { return msgString(m) }
func (*ChannelSelector) ProtoMessage()    {}

func (m *ChannelSelector) GetId() string {
	if m != nil {
		return m.Id
	}
	return ""
}

// CallEvent is a two-way call on the bus. The correlation id is assigned
// by the gateway on delivery to observers and ignored on PublishCall
// input.
type CallEvent struct {
	Operation     string     `protobuf:"bytes,1,opt,name=operation,proto3" json:"operation,omitempty"`
	Payload       *anypb.Any `protobuf:"bytes,2,opt,name=payload,proto3" json:"payload,omitempty"`
	CorrelationId string     `protobuf:"bytes,3,opt,name=correlation_id,json=correlationId,proto3" json:"correlation_id,omitempty"`
	SourceId      string     `protobuf:"bytes,4,opt,name=source_id,json=sourceId,proto3" json:"source_id,omitempty"`
}

func (m *CallEvent) Reset()         { *m = CallEvent{} }
func (m *CallEvent) String() string { return msgString(m) }
func (*CallEvent) ProtoMessage()    {}

func (m *CallEvent) GetOperation() string {
	if m != nil {
		return m.Operation
	}
	return ""
}

func (m *CallEvent) GetPayload() *anypb.Any {
	if m != nil {
		return m.Payload
	}
	return nil
}

func (m *CallEvent) GetCorrelationId() string {
	if m != nil {
		return m.CorrelationId
	}
	return ""
}

func (m *CallEvent) GetSourceId() string {
	if m != nil {
		return m.SourceId
	}
	return ""
}

// CallSelector names the operation to observe calls for.
type CallSelector struct {
	Operation string `protobuf:"bytes,1,opt,name=operation,proto3" json:"operation,omitempty"`
}

func (m *CallSelector) Reset()         { *m = CallSelector{} }
func (m *CallSelector) String() string { return msgString(m) }
func (*CallSelector) ProtoMessage()    {}

func (m *CallSelector) GetOperation() string {
	if m != nil {
		return m.Operation
	}
	return ""
}

// CallError reports a responder-side failure instead of a payload.
type CallError struct {
	Code    int32  `protobuf:"varint,1,opt,name=code,proto3" json:"code,omitempty"`
	Message string `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
}

func (m *CallError) Reset()         { *m = CallError{} }
func (m *CallError) String() string { return msgString(m) }
func (*CallError) ProtoMessage()    {}

func (m *CallError) GetCode() int32 {
	if m != nil {
		return m.Code
	}
	return 0
}

func (m *CallError) GetMessage() string {
	if m != nil {
		return m.Message
	}
	return ""
}

// ReturnEvent answers an observed call, carrying either a payload or an
// error.
type ReturnEvent struct {
	CorrelationId string     `protobuf:"bytes,1,opt,name=correlation_id,json=correlationId,proto3" json:"correlation_id,omitempty"`
	Payload       *anypb.Any `protobuf:"bytes,2,opt,name=payload,proto3" json:"payload,omitempty"`
	Error         *CallError `protobuf:"bytes,3,opt,name=error,proto3" json:"error,omitempty"`
	SourceId      string     `protobuf:"bytes,4,opt,name=source_id,json=sourceId,proto3" json:"source_id,omitempty"`
}

func (m *ReturnEvent) Reset()         { *m = ReturnEvent{} }
func (m *ReturnEvent) String() string { return msgString(m) }
func (*ReturnEvent) ProtoMessage()    {}

func (m *ReturnEvent) GetCorrelationId() string {
	if m != nil {
		return m.CorrelationId
	}
	return ""
}

func (m *ReturnEvent) GetPayload() *anypb.Any {
	if m != nil {
		return m.Payload
	}
	return nil
}

func (m *ReturnEvent) GetError() *CallError {
	if m != nil {
		return m.Error
	}
	return nil
}

func (m *ReturnEvent) GetSourceId() string {
	if m != nil {
		return m.SourceId
	}
	return ""
}

// CompleteEvent releases the correlation id of an observed call.
type CompleteEvent struct {
	CorrelationId string `protobuf:"bytes,1,opt,name=correlation_id,json=correlationId,proto3" json:"correlation_id,omitempty"`
}

func (m *CompleteEvent) Reset()         { *m = CompleteEvent{} }
func (m *CompleteEvent) String() string { return msgString(m) }
func (*CompleteEvent) ProtoMessage()    {}

func (m *CompleteEvent) GetCorrelationId() string {
	if m != nil {
		return m.CorrelationId
	}
	return ""
}

func msgString(m protoadapt.MessageV1) string {
	return prototext.MarshalOptions{}.Format(protoadapt.MessageV2Of(m))
}
