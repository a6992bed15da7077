package document

import (
	"crypto/ed25519"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"DocLedger/internal/canonical"
	"DocLedger/internal/contract"
	"DocLedger/internal/identifier"
	"DocLedger/internal/identity"
	"DocLedger/internal/validation"
)

var (
	testOwnerID    = identifier.Identifier{0x0A, 0x01}
	testContractID = identifier.Identifier{0xC1}
	otherContract  = identifier.Identifier{0xC2}
)

// newTestContract builds a contract with three document types:
// "note" is closed, "profile" is unique on ($ownerId, lastName),
// "listing" is unique on (a, b).
func newTestContract(t *testing.T, id identifier.Identifier) *contract.DataContract {
	t.Helper()

	documents := map[string]map[string]any{
		"note": {
			"type": "object",
			"properties": map[string]any{
				"message": map[string]any{"type": "string", "maxLength": 64},
			},
			"required":             []any{"message"},
			"additionalProperties": false,
		},
		"profile": {
			"type": "object",
			"properties": map[string]any{
				"firstName": map[string]any{"type": "string"},
				"lastName":  map[string]any{"type": "string"},
			},
			"indices": []any{
				map[string]any{
					"properties": []any{
						map[string]any{"$ownerId": "asc"},
						map[string]any{"lastName": "asc"},
					},
					"unique": true,
				},
			},
		},
		"listing": {
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "string"},
				"b": map[string]any{"type": "integer"},
			},
			"indices": []any{
				map[string]any{
					"properties": []any{
						map[string]any{"a": "asc"},
						map[string]any{"b": "asc"},
					},
					"unique": true,
				},
			},
		},
	}

	c, err := contract.New(id, identifier.Identifier{0xEE}, 1, documents, nil)
	if err != nil {
		t.Fatalf("failed to create contract: %v", err)
	}

	return c
}

// entropyFor returns deterministic 32-byte entropy.
func entropyFor(seed byte) []byte {
	e := make([]byte, EntropySize)
	for i := range e {
		e[i] = seed + byte(i)
	}
	return e
}

// createTransition builds a CREATE transition with a correctly derived id.
func createTransition(contractID identifier.Identifier, docType string, seed byte, data map[string]any) RawTransition {
	entropy := entropyFor(seed)

	t := RawTransition{
		"$action":         "create",
		"$type":           docType,
		"$dataContractId": contractID,
		"$entropy":        entropy,
		"$id":             GenerateID(contractID, testOwnerID, docType, entropy),
	}

	for k, v := range data {
		t[k] = v
	}

	return t
}

func newBatch(transitions ...RawTransition) RawBatch {
	items := make([]any, len(transitions))
	for i, t := range transitions {
		items[i] = t
	}

	return RawBatch{
		"protocolVersion":      0,
		"type":                 1,
		"ownerId":              testOwnerID,
		"transitions":          items,
		"signaturePublicKeyId": 0,
		"signature":            make([]byte, ed25519.SignatureSize),
	}
}

// signBatch replaces the batch signature with a real one by key 0.
func signBatch(t *testing.T, raw RawBatch, priv ed25519.PrivateKey, contracts ...*contract.DataContract) {
	t.Helper()

	batch, err := NewBatchTransition(raw, contracts)
	if err != nil {
		t.Fatalf("build batch: %v", err)
	}

	hash, err := batch.SignableHash()
	if err != nil {
		t.Fatalf("hash batch: %v", err)
	}

	raw["signature"] = ed25519.Sign(priv, hash[:])
}

// fakeContracts serves contracts from a map and counts fetches.
type fakeContracts struct {
	mu        sync.Mutex
	contracts map[identifier.Identifier]*contract.DataContract
	fetched   []identifier.Identifier
	err       error
}

func newFakeContracts(contracts ...*contract.DataContract) *fakeContracts {
	f := &fakeContracts{contracts: make(map[identifier.Identifier]*contract.DataContract)}
	for _, c := range contracts {
		f.contracts[c.ID] = c
	}
	return f
}

func (f *fakeContracts) FetchDataContract(id identifier.Identifier) (*contract.DataContract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetched = append(f.fetched, id)
	if f.err != nil {
		return nil, f.err
	}
	return f.contracts[id], nil
}

// fakeIdentities serves identities from a map.
type fakeIdentities map[identifier.Identifier]*identity.Identity

func (f fakeIdentities) FetchIdentity(id identifier.Identifier) (*identity.Identity, error) {
	return f[id], nil
}

// countingSchemas counts calls to the wrapped validator.
type countingSchemas struct {
	inner validation.SchemaValidator
	calls atomic.Int32
}

func (c *countingSchemas) Validate(schema any, instance any, additional map[string]map[string]any) *validation.Result {
	c.calls.Add(1)
	return c.inner.Validate(schema, instance, additional)
}

// countingSignatures records whether signature validation ran.
type countingSignatures struct {
	inner SignatureValidator
	calls atomic.Int32
}

func (c *countingSignatures) Validate(st identity.Signable, signerID identifier.Identifier) *validation.Result {
	c.calls.Add(1)
	return c.inner.Validate(st, signerID)
}

// testEnv wires a StructureValidator over fakes with one registered owner.
type testEnv struct {
	validator  *StructureValidator
	contracts  *fakeContracts
	schemas    *countingSchemas
	signatures *countingSignatures
	identities fakeIdentities
	priv       ed25519.PrivateKey
	contract   *contract.DataContract
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	c := newTestContract(t, testContractID)

	identities := fakeIdentities{
		testOwnerID: {
			ID:      testOwnerID,
			Balance: 1000,
			PublicKeys: []identity.PublicKey{
				{ID: 0, Type: identity.KeyTypeEd25519, Data: pub},
			},
		},
	}

	env := &testEnv{
		contracts:  newFakeContracts(c),
		schemas:    &countingSchemas{inner: validation.NewJSONSchemaValidator()},
		signatures: &countingSignatures{inner: identity.NewSignatureValidator(identities)},
		identities: identities,
		priv:       priv,
		contract:   c,
	}

	env.validator = NewStructureValidator(
		env.contracts,
		env.schemas,
		identity.NewExistenceValidator(identities),
		env.signatures,
	)

	return env
}

// kinds lists the kinds of every error in r.
func kinds(r *validation.Result) []validation.ErrorKind {
	var out []validation.ErrorKind
	for _, e := range r.Errors() {
		out = append(out, e.Kind())
	}
	return out
}

func requireKinds(t *testing.T, r *validation.Result, want ...validation.ErrorKind) {
	t.Helper()

	got := kinds(r)
	if len(got) != len(want) {
		t.Fatalf("got errors %v (%v), want %v", got, r.Errors(), want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("error %d: got %s, want %s (all: %v)", i, got[i], want[i], r.Errors())
		}
	}
}

// decodeViaJSON round-trips a batch through canonical JSON, as a node
// receiving it over the wire would see it.
func decodeViaJSON(t *testing.T, raw RawBatch) RawBatch {
	t.Helper()

	data, err := canonical.Marshal(raw)
	if err != nil {
		t.Fatalf("encode batch: %v", err)
	}

	var decoded RawBatch
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode batch: %v", err)
	}

	return decoded
}
