package document

import (
	"errors"
	"testing"

	"DocLedger/internal/contract"
	"DocLedger/internal/identifier"
	"DocLedger/internal/transition"
	"DocLedger/internal/validation"
)

func TestNewBatchTransition(t *testing.T) {
	c := newTestContract(t, testContractID)

	raw := newBatch(
		createTransition(testContractID, "note", 1, map[string]any{"message": "a"}),
		createTransition(testContractID, "note", 2, map[string]any{"message": "b"}),
	)
	raw["signaturePublicKeyId"] = 3

	batch, err := NewBatchTransition(raw, []*contract.DataContract{c})
	if err != nil {
		t.Fatalf("build batch: %v", err)
	}

	if batch.Type() != transition.DocumentsBatch {
		t.Errorf("got type %s", batch.Type())
	}

	if batch.OwnerID() != testOwnerID || batch.SignaturePublicKeyID() != 3 {
		t.Errorf("unexpected owner or key id")
	}

	if len(batch.Transitions()) != 2 || batch.DataContract(testContractID) != c {
		t.Errorf("transitions or contracts not kept")
	}

	size, err := transition.Size(batch)
	if err != nil || size == 0 {
		t.Errorf("size: %d, %v", size, err)
	}
}

func TestNewBatchTransition_UnknownContract(t *testing.T) {
	raw := newBatch(createTransition(otherContract, "note", 1, nil))

	if _, err := NewBatchTransition(raw, []*contract.DataContract{newTestContract(t, testContractID)}); err == nil {
		t.Fatal("expected error for a transition whose contract was not provided")
	}
}

func TestSignableHash_IgnoresSignature(t *testing.T) {
	c := newTestContract(t, testContractID)
	raw := newBatch(createTransition(testContractID, "note", 1, map[string]any{"message": "a"}))

	batch, err := NewBatchTransition(raw, []*contract.DataContract{c})
	if err != nil {
		t.Fatalf("build batch: %v", err)
	}

	before, err := batch.SignableHash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	batch.SetSignature(9, []byte{1, 2, 3})

	after, err := batch.SignableHash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if before != after {
		t.Error("signable hash must not cover the signature")
	}

	obj := batch.ToObject()
	if obj["signaturePublicKeyId"] != uint32(9) {
		t.Errorf("signature key id not exported: %v", obj["signaturePublicKeyId"])
	}
}

func TestSignableHash_SameForJSONDecodedBatch(t *testing.T) {
	c := newTestContract(t, testContractID)
	raw := newBatch(createTransition(testContractID, "note", 1, map[string]any{"message": "a"}))

	native, err := NewBatchTransition(raw, []*contract.DataContract{c})
	if err != nil {
		t.Fatalf("build batch: %v", err)
	}

	decoded, err := NewBatchTransition(decodeViaJSON(t, raw), []*contract.DataContract{c})
	if err != nil {
		t.Fatalf("build decoded batch: %v", err)
	}

	a, _ := native.SignableHash()
	b, _ := decoded.SignableHash()

	if a != b {
		t.Error("hash should not depend on the in-memory encoding of bytes and numbers")
	}
}

func TestValidate_TwoContracts(t *testing.T) {
	env := newTestEnv(t)

	second := newTestContract(t, otherContract)
	env.contracts.contracts[otherContract] = second

	raw := newBatch(
		createTransition(otherContract, "note", 1, map[string]any{"message": "a"}),
		createTransition(testContractID, "note", 2, map[string]any{"message": "b"}),
	)
	signBatch(t, raw, env.priv, env.contract, second)

	result := env.validator.Validate(raw)
	if !result.IsValid() {
		t.Fatalf("expected valid batch, got %v", result.Errors())
	}
}

func TestVerifyEntropy(t *testing.T) {
	submitted := RawTransition{"$entropy": entropyFor(1)}

	tests := []struct {
		name    string
		fetched map[string]any
		valid   bool
	}{
		{"no previous version", nil, true},
		{"same entropy", map[string]any{"$entropy": identifier.Identifier(entropyFor(1))}, true},
		{"different entropy", map[string]any{"$entropy": entropyFor(2)}, false},
		{"previous without entropy", map[string]any{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := VerifyEntropy(submitted, tt.fetched)
			if result.IsValid() != tt.valid {
				t.Fatalf("valid = %v, want %v", result.IsValid(), tt.valid)
			}

			if !tt.valid && result.FirstError().Kind() != validation.KindDocumentEntropyMismatch {
				t.Errorf("got %s", result.FirstError().Kind())
			}
		})
	}
}

func TestLoadBatchTransition(t *testing.T) {
	first := newTestContract(t, testContractID)
	second := newTestContract(t, otherContract)
	contracts := newFakeContracts(first, second)

	raw := newBatch(
		createTransition(testContractID, "note", 1, map[string]any{"message": "a"}),
		createTransition(otherContract, "note", 2, map[string]any{"message": "b"}),
		createTransition(testContractID, "note", 3, map[string]any{"message": "c"}),
	)

	batch, err := LoadBatchTransition(raw, contracts)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(contracts.fetched) != 2 {
		t.Errorf("each contract should be fetched once, got %v", contracts.fetched)
	}

	if batch.DataContract(otherContract) != second || len(batch.Transitions()) != 3 {
		t.Error("contracts or transitions missing")
	}

	contracts.err = errors.New("store unavailable")
	if _, err := LoadBatchTransition(raw, contracts); !errors.Is(err, contracts.err) {
		t.Errorf("expected fetch error, got %v", err)
	}
}
