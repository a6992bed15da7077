// Package canonical converts raw transition payloads into the plain JSON value
// model used by the schema validator and by every hash computed over payloads.
//
// Binary values ([]byte, identifiers) become arrays of integers, integer types
// become float64 and maps are serialized with sorted keys, so two nodes holding
// the same payload always produce the same bytes.
package canonical

import (
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"

	"DocLedger/internal/identifier"
)

// Normalize returns a deep copy of v in the JSON value model
// (map[string]any, []any, string, float64, bool, nil).
func Normalize(v any) (any, error) {
	data, err := json.Marshal(expandBinary(v))
	if err != nil {
		return nil, fmt.Errorf("encode value:\n%w", err)
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode value:\n%w", err)
	}

	return out, nil
}

// Marshal returns the canonical JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(expandBinary(v))
	if err != nil {
		return nil, fmt.Errorf("encode value:\n%w", err)
	}

	return data, nil
}

// Hash returns the blake3 hash of the canonical encoding of v.
func Hash(v any) ([32]byte, error) {
	data, err := Marshal(v)
	if err != nil {
		return [32]byte{}, err
	}

	return blake3.Sum256(data), nil
}

// expandBinary rewrites binary leaves as integer arrays so encoding/json
// does not turn them into base64 strings.
func expandBinary(v any) any {
	switch val := v.(type) {
	case []byte:
		return byteArray(val)
	case identifier.Identifier:
		return byteArray(val[:])
	case [identifier.Size]byte:
		return byteArray(val[:])
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = expandBinary(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = expandBinary(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = expandBinary(item)
		}
		return out
	default:
		return v
	}
}

func byteArray(b []byte) []int {
	out := make([]int, len(b))
	for i, x := range b {
		out[i] = int(x)
	}
	return out
}
