package identifier

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// Size is the length of an identifier in bytes.
const Size = 32

var (
	// ErrInvalidLength is returned when the source does not hold exactly Size bytes.
	ErrInvalidLength = errors.New("identifier must be 32 bytes long")

	// ErrInvalidType is returned when the source value cannot represent bytes.
	ErrInvalidType = errors.New("identifier must be a byte array or hex string")
)

// Identifier is a 32-byte id of contracts, identities and documents.
type Identifier [Size]byte

// From converts a raw value into an Identifier.
// Accepted forms are Identifier, [32]byte, []byte, a numeric array
// (the schema-normalized form of a byte array) and a 64-char hex string.
func From(v any) (Identifier, error) {
	var id Identifier

	b, err := Bytes(v)
	if err != nil {
		return id, err
	}

	if len(b) != Size {
		return id, fmt.Errorf("%w: got %d", ErrInvalidLength, len(b))
	}

	copy(id[:], b)

	return id, nil
}

// Bytes extracts a byte slice from any of the forms accepted by From,
// without enforcing a length.
func Bytes(v any) ([]byte, error) {
	switch val := v.(type) {
	case Identifier:
		return val[:], nil
	case *Identifier:
		if val == nil {
			return nil, ErrInvalidType
		}
		return val[:], nil
	case [Size]byte:
		return val[:], nil
	case []byte:
		return val, nil
	case string:
		b, err := hex.DecodeString(val)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidType, err)
		}
		return b, nil
	case []any:
		return bytesFromNumbers(val)
	default:
		return nil, ErrInvalidType
	}
}

// bytesFromNumbers converts a JSON-style numeric array into bytes.
func bytesFromNumbers(items []any) ([]byte, error) {
	out := make([]byte, len(items))

	for i, item := range items {
		var n int64

		switch num := item.(type) {
		case float64:
			if num != float64(int64(num)) {
				return nil, fmt.Errorf("%w: element %d is not an integer", ErrInvalidType, i)
			}
			n = int64(num)
		case int:
			n = int64(num)
		case int64:
			n = num
		case uint8:
			n = int64(num)
		default:
			return nil, fmt.Errorf("%w: element %d has type %T", ErrInvalidType, i, item)
		}

		if n < 0 || n > 255 {
			return nil, fmt.Errorf("%w: element %d out of byte range", ErrInvalidType, i)
		}

		out[i] = byte(n)
	}

	return out, nil
}

// MustFromHex parses a hex identifier and panics on failure. Intended for constants and tests.
func MustFromHex(s string) Identifier {
	id, err := From(s)
	if err != nil {
		panic(fmt.Sprintf("identifier %q: %v", s, err))
	}
	return id
}

// String returns the lowercase hex form.
func (id Identifier) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns a copy of the identifier bytes.
func (id Identifier) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, id[:])
	return out
}

// IsZero reports whether all bytes are zero.
func (id Identifier) IsZero() bool {
	return id == Identifier{}
}

// Compare orders identifiers bytewise.
func (id Identifier) Compare(other Identifier) int {
	return bytes.Compare(id[:], other[:])
}

// MarshalJSON encodes the identifier as a hex string.
func (id Identifier) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON decodes a hex string identifier.
func (id *Identifier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode identifier:\n%w", err)
	}

	parsed, err := From(s)
	if err != nil {
		return err
	}

	*id = parsed

	return nil
}
