package identity

import (
	"crypto/ed25519"
	"errors"
	"testing"

	"DocLedger/internal/identifier"
	"DocLedger/internal/validation"
)

// fakeFetcher serves identities from a map.
type fakeFetcher struct {
	identities map[identifier.Identifier]*Identity
	err        error
}

func (f *fakeFetcher) FetchIdentity(id identifier.Identifier) (*Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identities[id], nil
}

// signedPayload is a minimal Signable.
type signedPayload struct {
	hash    [32]byte
	sig     []byte
	keyID   uint32
	hashErr error
}

func (s *signedPayload) SignableHash() ([32]byte, error) { return s.hash, s.hashErr }
func (s *signedPayload) Signature() []byte               { return s.sig }
func (s *signedPayload) SignaturePublicKeyID() uint32    { return s.keyID }

func newSigner(t *testing.T) (identifier.Identifier, ed25519.PrivateKey, *BLSKeyPair, *fakeFetcher) {
	t.Helper()

	edPub, edPriv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate ed25519: %v", err)
	}

	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i + 1)
	}

	bls, err := BLSKeyFromSeed(seed)
	if err != nil {
		t.Fatalf("generate bls: %v", err)
	}

	id := identifier.Identifier{0x11}
	fetcher := &fakeFetcher{identities: map[identifier.Identifier]*Identity{
		id: {
			ID:      id,
			Balance: 5000,
			PublicKeys: []PublicKey{
				{ID: 0, Type: KeyTypeEd25519, Data: edPub},
				{ID: 1, Type: KeyTypeBLS12381, Data: bls.PublicKeyBytes()},
				{ID: 2, Type: KeyTypeEd25519, Data: edPub, Disabled: true},
				{ID: 3, Type: KeyType(9), Data: edPub},
			},
		},
	}}

	return id, edPriv, bls, fetcher
}

func firstKind(t *testing.T, r *validation.Result) validation.ErrorKind {
	t.Helper()

	if r.IsValid() {
		t.Fatal("expected an error")
	}
	return r.FirstError().Kind()
}

func TestSignatureValidator_Ed25519(t *testing.T) {
	id, priv, _, fetcher := newSigner(t)
	v := NewSignatureValidator(fetcher)

	hash := [32]byte{1, 2, 3}
	st := &signedPayload{hash: hash, sig: ed25519.Sign(priv, hash[:]), keyID: 0}

	if r := v.Validate(st, id); !r.IsValid() {
		t.Fatalf("valid signature rejected: %v", r.FirstError())
	}

	st.hash[0] ^= 0xff
	if k := firstKind(t, v.Validate(st, id)); k != validation.KindInvalidStateTransitionSignature {
		t.Errorf("tampered hash: got %s", k)
	}
}

func TestSignatureValidator_BLS(t *testing.T) {
	id, _, bls, fetcher := newSigner(t)
	v := NewSignatureValidator(fetcher)

	hash := [32]byte{9, 8, 7}
	st := &signedPayload{hash: hash, sig: bls.Sign(hash[:]), keyID: 1}

	if r := v.Validate(st, id); !r.IsValid() {
		t.Fatalf("valid BLS signature rejected: %v", r.FirstError())
	}

	st.sig = st.sig[:len(st.sig)-1]
	if k := firstKind(t, v.Validate(st, id)); k != validation.KindInvalidStateTransitionSignature {
		t.Errorf("truncated signature: got %s", k)
	}
}

func TestSignatureValidator_KeyErrors(t *testing.T) {
	id, priv, _, fetcher := newSigner(t)
	v := NewSignatureValidator(fetcher)

	hash := [32]byte{4}
	sig := ed25519.Sign(priv, hash[:])

	tests := []struct {
		name  string
		keyID uint32
		want  validation.ErrorKind
	}{
		{"missing", 42, validation.KindMissingPublicKey},
		{"disabled", 2, validation.KindPublicKeyDisabled},
		{"unknown type", 3, validation.KindInvalidIdentityPublicKeyType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &signedPayload{hash: hash, sig: sig, keyID: tt.keyID}
			if k := firstKind(t, v.Validate(st, id)); k != tt.want {
				t.Errorf("got %s, want %s", k, tt.want)
			}
		})
	}
}

func TestSignatureValidator_HashError(t *testing.T) {
	id, _, _, fetcher := newSigner(t)
	v := NewSignatureValidator(fetcher)

	st := &signedPayload{keyID: 0, hashErr: errors.New("boom")}
	if k := firstKind(t, v.Validate(st, id)); k != validation.KindInvalidStateTransitionSignature {
		t.Errorf("got %s", k)
	}
}

func TestExistenceValidator(t *testing.T) {
	id, _, _, fetcher := newSigner(t)
	v := NewExistenceValidator(fetcher)

	if r := v.Validate(id); !r.IsValid() {
		t.Fatalf("existing identity rejected: %v", r.FirstError())
	}

	r := v.Validate(identifier.Identifier{0x22})
	if k := firstKind(t, r); k != validation.KindIdentityNotFound {
		t.Errorf("absent identity: got %s", k)
	}
}

func TestExistenceValidator_FetchError(t *testing.T) {
	cause := errors.New("disk on fire")
	v := NewExistenceValidator(&fakeFetcher{err: cause})

	r := v.Validate(identifier.Identifier{0x33})
	if k := firstKind(t, r); k != validation.KindIdentityNotFound {
		t.Fatalf("got %s", k)
	}

	if !errors.Is(r.FirstError(), cause) {
		t.Error("fetch error should be wrapped")
	}
}
