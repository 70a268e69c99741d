package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnvelope struct {
	ObjectType string `json:"objectType"`
	Value      string `json:"value"`
	SourceID   string `json:"sourceId,omitempty"`
}

func TestMarshalUnmarshal(t *testing.T) {
	original := testEnvelope{
		ObjectType: "type.googleapis.com/flowpro.icc.ftf.FtfStatus",
		Value:      "CAEQCw==",
		SourceID:   "2f0a9ab2-52a5-4af1-8bfa-cbb2f8658d4e",
	}

	data, err := Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"objectType":"type.googleapis.com/flowpro.icc.ftf.FtfStatus"`)
	assert.Contains(t, string(data), `"value":"CAEQCw=="`)

	var decoded testEnvelope
	err = Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)

	err = Unmarshal([]byte(`{"objectType`), &decoded)
	assert.Error(t, err)
}

func TestOmitEmptySourceID(t *testing.T) {
	data, err := Marshal(testEnvelope{ObjectType: "t", Value: "AA=="})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sourceId")
}

func TestEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	in := testEnvelope{ObjectType: "t", Value: "AQ=="}
	require.NoError(t, NewEncoder(&buf).Encode(in))

	var out testEnvelope
	require.NoError(t, NewDecoder(&buf).Decode(&out))
	assert.Equal(t, in, out)
}
