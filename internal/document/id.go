package document

import (
	"crypto/rand"
	"fmt"

	"github.com/zeebo/blake3"

	"DocLedger/internal/identifier"
)

// EntropySize is the length of document entropy in bytes.
const EntropySize = 32

// GenerateID derives a document id as
// blake3(contractID || ownerID || documentType || entropy).
func GenerateID(contractID, ownerID identifier.Identifier, documentType string, entropy []byte) identifier.Identifier {
	h := blake3.New()
	h.Write(contractID[:])
	h.Write(ownerID[:])
	h.Write([]byte(documentType))
	h.Write(entropy)

	var id identifier.Identifier
	h.Sum(id[:0])

	return id
}

// GenerateEntropy returns fresh random entropy for a CREATE transition.
func GenerateEntropy() ([]byte, error) {
	entropy := make([]byte, EntropySize)
	if _, err := rand.Read(entropy); err != nil {
		return nil, fmt.Errorf("generate entropy:\n%w", err)
	}

	return entropy, nil
}
