package client

import (
	"crypto/ed25519"
	"fmt"

	"DocLedger/internal/contract"
	"DocLedger/internal/document"
	"DocLedger/internal/identifier"
)

// Signer signs the hash of a transition with one identity key.
// *identity.BLSKeyPair is a Signer.
type Signer interface {
	Sign(message []byte) []byte
}

// Ed25519Signer signs with an Ed25519 private key.
type Ed25519Signer ed25519.PrivateKey

// Sign implements Signer.
func (s Ed25519Signer) Sign(message []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(s), message)
}

// SignBatch sets the signature of raw, made by key keyID of the owner.
// contracts must hold every contract the transitions target.
func SignBatch(raw document.RawBatch, contracts []*contract.DataContract, keyID uint32, signer Signer) error {
	raw["signaturePublicKeyId"] = keyID

	batch, err := document.NewBatchTransition(raw, contracts)
	if err != nil {
		return fmt.Errorf("build batch:\n%w", err)
	}

	hash, err := batch.SignableHash()
	if err != nil {
		return fmt.Errorf("hash batch:\n%w", err)
	}

	raw["signature"] = signer.Sign(hash[:])

	return nil
}

// NewCreateTransition builds a CREATE transition with fresh entropy and the
// id derived from it.
func NewCreateTransition(contractID, ownerID identifier.Identifier, docType string, data map[string]any) (document.RawTransition, error) {
	entropy, err := document.GenerateEntropy()
	if err != nil {
		return nil, err
	}

	t := document.RawTransition{
		"$type":           docType,
		"$action":         document.ActionCreate.String(),
		"$dataContractId": contractID[:],
		"$entropy":        entropy,
		"$id":             document.GenerateID(contractID, ownerID, docType, entropy).Bytes(),
	}

	for k, v := range data {
		t[k] = v
	}

	return t, nil
}
