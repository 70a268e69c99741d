// Package payload converts opaque event payloads between their gRPC wire
// form (the well-known Any) and the JSON object form they travel in on the
// bus. The payload body is never decoded; both directions move bytes.
package payload

import (
	"encoding/base64"
	"fmt"

	"google.golang.org/protobuf/types/known/anypb"
)

// Envelope is the bus form of a payload: the Any type url under
// objectType and the Any bytes as base64 under value. sourceId names the
// publishing agent where the pattern carries one.
type Envelope struct {
	ObjectType string `json:"objectType"`
	Value      string `json:"value"`
	SourceID   string `json:"sourceId,omitempty"`
}

// ToBus packs a wire payload into its bus envelope. A nil payload becomes
// the empty envelope.
func ToBus(wire *anypb.Any, sourceID string) Envelope {
	env := Envelope{SourceID: sourceID}
	if wire != nil {
		env.ObjectType = wire.TypeUrl
		env.Value = base64.StdEncoding.EncodeToString(wire.Value)
	}
	return env
}

// FromBus unpacks a bus envelope back into the wire payload. The round
// trip FromBus(ToBus(x)) preserves the payload bit for bit.
func FromBus(env Envelope) (*anypb.Any, error) {
	b, err := base64.StdEncoding.DecodeString(env.Value)
	if err != nil {
		return nil, fmt.Errorf("decode payload value: %w", err)
	}
	return &anypb.Any{TypeUrl: env.ObjectType, Value: b}, nil
}
