package codec

import (
	"encoding/json"
)

// JSONCodec serializes envelopes with encoding/json. It is the default
// codec: any peer language can speak it and frames stay readable on the
// wire, at the cost of a larger payload than the binary layout.
type JSONCodec struct{}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (c *JSONCodec) Type() CodecType {
	return CodecTypeJSON
}
