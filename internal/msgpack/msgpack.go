// Package msgpack provides MessagePack encoding/decoding for table-function
// call parameters delivered over the engine's wire protocol.
package msgpack

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeSlice serializes positional parameters into MessagePack format.
//
// Example:
//
//	data, err := msgpack.EncodeSlice([]any{"cpu", "cpu_tags"})
func EncodeSlice(params []any) ([]byte, error) {
	data, err := msgpack.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode MessagePack: %w", err)
	}
	return data, nil
}

// DecodeSlice deserializes MessagePack data into positional parameters.
func DecodeSlice(data []byte) ([]any, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty MessagePack data")
	}

	var result []any
	if err := msgpack.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode MessagePack slice: %w", err)
	}

	return result, nil
}
