package document

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Binary fields are hex strings in the JSON form of a batch.
var (
	batchBinaryFields      = []string{"ownerId", "signature"}
	transitionBinaryFields = []string{"$id", "$dataContractId", "$entropy"}
)

// DecodeBatchJSON parses the JSON form of a batch and turns its hex binary
// fields into bytes. Fields that are not valid hex are kept as strings so
// the envelope schema reports them.
func DecodeBatchJSON(data []byte) (RawBatch, error) {
	var raw RawBatch
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode batch:\n%w", err)
	}

	decodeHexFields(raw, batchBinaryFields)

	if transitions, ok := raw["transitions"].([]any); ok {
		for _, t := range transitions {
			if m, ok := t.(map[string]any); ok {
				decodeHexFields(m, transitionBinaryFields)
			}
		}
	}

	return raw, nil
}

// EncodeBatchJSON writes raw in the form DecodeBatchJSON reads. raw is not
// modified; transitions that are not objects are dropped.
func EncodeBatchJSON(raw RawBatch) ([]byte, error) {
	out := copyFields(raw)
	encodeHexFields(out, batchBinaryFields)

	items := rawTransitions(raw["transitions"])
	if items != nil {
		encoded := make([]any, len(items))
		for i, t := range items {
			m := copyFields(t)
			encodeHexFields(m, transitionBinaryFields)
			encoded[i] = m
		}
		out["transitions"] = encoded
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode batch:\n%w", err)
	}

	return data, nil
}

func decodeHexFields(m map[string]any, fields []string) {
	for _, field := range fields {
		s, ok := m[field].(string)
		if !ok {
			continue
		}

		if b, err := hex.DecodeString(s); err == nil {
			m[field] = b
		}
	}
}

func encodeHexFields(m map[string]any, fields []string) {
	for _, field := range fields {
		switch v := m[field].(type) {
		case []byte:
			m[field] = hex.EncodeToString(v)
		case interface{ Bytes() []byte }:
			m[field] = hex.EncodeToString(v.Bytes())
		}
	}
}

func copyFields(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
