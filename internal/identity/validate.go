package identity

import (
	"crypto/ed25519"

	"DocLedger/internal/identifier"
	"DocLedger/internal/logger"
	"DocLedger/internal/validation"
)

// Signable is a state transition carrying a signature by one identity key.
type Signable interface {
	// SignableHash returns the hash the signature commits to.
	SignableHash() ([32]byte, error)

	// Signature returns the raw signature bytes.
	Signature() []byte

	// SignaturePublicKeyID returns the id of the signing key.
	SignaturePublicKeyID() uint32
}

// ExistenceValidator checks that an identity exists in chain state.
type ExistenceValidator struct {
	identities Fetcher
}

// NewExistenceValidator creates an existence validator over the given fetcher.
func NewExistenceValidator(identities Fetcher) *ExistenceValidator {
	return &ExistenceValidator{identities: identities}
}

// Validate reports IdentityNotFoundError when the identity is absent or cannot be fetched.
func (v *ExistenceValidator) Validate(id identifier.Identifier) *validation.Result {
	_, result := fetchIdentity(v.identities, id)
	return result
}

// SignatureValidator verifies transition signatures against identity keys.
type SignatureValidator struct {
	identities Fetcher
}

// NewSignatureValidator creates a signature validator over the given fetcher.
func NewSignatureValidator(identities Fetcher) *SignatureValidator {
	return &SignatureValidator{identities: identities}
}

// Validate checks that st is signed by an enabled key of signerID.
func (v *SignatureValidator) Validate(st Signable, signerID identifier.Identifier) *validation.Result {
	ident, result := fetchIdentity(v.identities, signerID)
	if !result.IsValid() {
		return result
	}

	keyID := st.SignaturePublicKeyID()

	key := ident.PublicKeyByID(keyID)
	if key == nil {
		return validation.NewResult(&validation.MissingPublicKeyError{PublicKeyID: keyID})
	}

	if key.Disabled {
		return validation.NewResult(&validation.PublicKeyDisabledError{PublicKeyID: keyID})
	}

	hash, err := st.SignableHash()
	if err != nil {
		logger.Warn("signable hash failed", "signer", signerID.String(), "error", err)
		return validation.NewResult(&validation.InvalidStateTransitionSignatureError{SignerID: signerID})
	}

	var ok bool

	switch key.Type {
	case KeyTypeEd25519:
		ok = len(key.Data) == ed25519.PublicKeySize &&
			ed25519.Verify(ed25519.PublicKey(key.Data), hash[:], st.Signature())
	case KeyTypeBLS12381:
		ok = verifyBLS(st.Signature(), hash[:], key.Data)
	default:
		return validation.NewResult(&validation.InvalidIdentityPublicKeyTypeError{Type: uint8(key.Type)})
	}

	if !ok {
		return validation.NewResult(&validation.InvalidStateTransitionSignatureError{SignerID: signerID})
	}

	return validation.NewResult()
}

// fetchIdentity loads an identity, converting absence and repository failures
// into IdentityNotFoundError.
func fetchIdentity(identities Fetcher, id identifier.Identifier) (*Identity, *validation.Result) {
	ident, err := identities.FetchIdentity(id)
	if err != nil {
		logger.Warn("fetch identity failed", "identity", id.String(), "error", err)
		return nil, validation.NewResult(&validation.IdentityNotFoundError{IdentityID: id, Cause: err})
	}

	if ident == nil {
		return nil, validation.NewResult(&validation.IdentityNotFoundError{IdentityID: id})
	}

	return ident, validation.NewResult()
}
