package rpcserver

import (
	"encoding/json"
	"fmt"
)

// CodecName is the registered name of the JSON wire codec.
const CodecName = "json"

// Codec is a gRPC encoding.Codec that puts JSON on the wire. The
// service's message types are plain Go structs with JSON tags, so the
// transport needs no generated protobuf code.
type Codec struct{}

// Marshal encodes v as JSON.
func (Codec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec: marshal %T: %w", v, err)
	}
	return data, nil
}

// Unmarshal decodes JSON into v.
func (Codec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec: unmarshal into %T: %w", v, err)
	}
	return nil
}

// Name returns the codec's registered name.
func (Codec) Name() string { return CodecName }
