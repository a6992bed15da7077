package document

import (
	"bytes"
	"testing"

	"DocLedger/internal/identifier"
)

func TestGenerateID_Deterministic(t *testing.T) {
	entropy := entropyFor(5)

	a := GenerateID(testContractID, testOwnerID, "note", entropy)
	b := GenerateID(testContractID, testOwnerID, "note", append([]byte(nil), entropy...))

	if a != b {
		t.Fatal("same inputs should derive the same id")
	}

	if a.IsZero() {
		t.Fatal("derived id should not be zero")
	}
}

func TestGenerateID_InputSensitive(t *testing.T) {
	entropy := entropyFor(5)
	base := GenerateID(testContractID, testOwnerID, "note", entropy)

	variants := map[string]identifier.Identifier{
		"contract": GenerateID(identifier.Identifier{0xC9}, testOwnerID, "note", entropy),
		"owner":    GenerateID(testContractID, identifier.Identifier{0x0B}, "note", entropy),
		"type":     GenerateID(testContractID, testOwnerID, "notes", entropy),
		"entropy":  GenerateID(testContractID, testOwnerID, "note", entropyFor(6)),
	}

	for name, id := range variants {
		if id == base {
			t.Errorf("changing %s should change the id", name)
		}
	}
}

func TestGenerateEntropy(t *testing.T) {
	a, err := GenerateEntropy()
	if err != nil {
		t.Fatalf("generate entropy: %v", err)
	}

	b, err := GenerateEntropy()
	if err != nil {
		t.Fatalf("generate entropy: %v", err)
	}

	if len(a) != EntropySize || len(b) != EntropySize {
		t.Fatalf("entropy should be %d bytes", EntropySize)
	}

	if bytes.Equal(a, b) {
		t.Error("two entropy draws should differ")
	}
}
