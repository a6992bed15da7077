package identity

import (
	"DocLedger/internal/identifier"
)

// KeyType is the algorithm of an identity public key.
type KeyType uint8

const (
	// KeyTypeEd25519 is a 32-byte Ed25519 public key.
	KeyTypeEd25519 KeyType = 0

	// KeyTypeBLS12381 is a 48-byte compressed BLS12-381 G1 public key.
	KeyTypeBLS12381 KeyType = 1
)

// PublicKey is a key registered on an identity.
type PublicKey struct {
	ID       uint32  `json:"id"`       // ID is the key id referenced by signaturePublicKeyId
	Type     KeyType `json:"type"`     // Type is the key algorithm
	Data     []byte  `json:"data"`     // Data is the encoded public key (base64 in JSON)
	Disabled bool    `json:"disabled"` // Disabled keys cannot sign transitions
}

// Identity is an account holding credits and signing keys.
type Identity struct {
	ID         identifier.Identifier `json:"id"`         // ID is the identity identifier
	Balance    uint64                `json:"balance"`    // Balance is the credit balance
	Revision   uint64                `json:"revision"`   // Revision increments on every identity update
	PublicKeys []PublicKey           `json:"publicKeys"` // PublicKeys are the registered keys
}

// PublicKeyByID returns the key with the given id, or nil.
func (i *Identity) PublicKeyByID(id uint32) *PublicKey {
	for k := range i.PublicKeys {
		if i.PublicKeys[k].ID == id {
			return &i.PublicKeys[k]
		}
	}
	return nil
}

// Fetcher loads identities from chain state.
// It returns nil, nil when the identity does not exist.
type Fetcher interface {
	FetchIdentity(id identifier.Identifier) (*Identity, error)
}
