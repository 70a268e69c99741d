// Package json provides the one JSON codec used throughout the gateway.
// Bus envelopes and replicated state both go through it, so every
// component agrees on encoding behavior.
package json

import jsoniter "github.com/json-iterator/go"

var (
	// JSON is the jsoniter instance shared by the whole codebase.
	JSON = jsoniter.ConfigCompatibleWithStandardLibrary

	// Marshal is a shorthand for JSON.Marshal.
	Marshal = JSON.Marshal

	// Unmarshal is a shorthand for JSON.Unmarshal.
	Unmarshal = JSON.Unmarshal

	// NewDecoder is a shorthand for JSON.NewDecoder.
	NewDecoder = JSON.NewDecoder

	// NewEncoder is a shorthand for JSON.NewEncoder.
	NewEncoder = JSON.NewEncoder
)
