package rpc

import (
	"bytes"
	"encoding/json"

	"medo/internal/util/jsonutil"
)

// jsonCodec replaces connect's protobuf-only JSON codec so plain Go structs
// can travel as application/json.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return jsonutil.MarshalNoEscape(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
