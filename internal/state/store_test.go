package state

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"DocLedger/internal/contract"
	"DocLedger/internal/identifier"
	"DocLedger/internal/identity"
	"DocLedger/internal/storage"
)

// newTestStore opens a store over a temporary pebble directory.
func newTestStore(t *testing.T) (*Store, *storage.Storage, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "state-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	db, err := storage.Open(filepath.Join(dir, "db"), storage.DefaultOptions())
	if err != nil {
		os.RemoveAll(dir)
		t.Fatalf("failed to open storage: %v", err)
	}

	s, err := New(db)
	if err != nil {
		db.Close()
		os.RemoveAll(dir)
		t.Fatalf("failed to create store: %v", err)
	}

	cleanup := func() {
		s.Close()
		db.Close()
		os.RemoveAll(dir)
	}

	return s, db, cleanup
}

func testContract(t *testing.T, id byte) *contract.DataContract {
	t.Helper()

	c, err := contract.New(identifier.Identifier{id}, identifier.Identifier{0xEE}, 3,
		map[string]map[string]any{
			"note": {
				"type": "object",
				"properties": map[string]any{
					"message": map[string]any{"type": "string", "maxLength": 64},
				},
				"required": []any{"message"},
				"indices": []any{
					map[string]any{
						"properties": []any{map[string]any{"message": "asc"}},
						"unique":     true,
					},
				},
			},
		},
		map[string]any{"shared": map[string]any{"type": "integer", "minimum": 0}},
	)
	if err != nil {
		t.Fatalf("failed to create contract: %v", err)
	}

	return c
}

func testIdentity(id byte) *identity.Identity {
	return &identity.Identity{
		ID:       identifier.Identifier{id},
		Balance:  12345,
		Revision: 2,
		PublicKeys: []identity.PublicKey{
			{ID: 0, Type: identity.KeyTypeEd25519, Data: bytes.Repeat([]byte{1}, 32)},
			{ID: 7, Type: identity.KeyTypeBLS12381, Data: bytes.Repeat([]byte{2}, 48), Disabled: true},
		},
	}
}

func TestDataContractRoundTrip(t *testing.T) {
	s, _, cleanup := newTestStore(t)
	defer cleanup()

	c := testContract(t, 0xC1)

	if err := s.StoreDataContract(c); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := s.FetchDataContract(c.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if got == nil {
		t.Fatal("contract not found")
	}

	if got.ID != c.ID || got.OwnerID != c.OwnerID || got.Version != 3 {
		t.Errorf("header mismatch: %+v", got)
	}

	if got.SchemaID() != c.SchemaID() {
		t.Error("schema id changed across storage")
	}

	if len(got.UniqueIndices("note")) != 1 {
		t.Errorf("indices lost: %v", got.Indices("note"))
	}
}

func TestFetchMissing(t *testing.T) {
	s, _, cleanup := newTestStore(t)
	defer cleanup()

	c, err := s.FetchDataContract(identifier.Identifier{0x01})
	if err != nil || c != nil {
		t.Errorf("contract: got %v, %v; want nil, nil", c, err)
	}

	ident, err := s.FetchIdentity(identifier.Identifier{0x01})
	if err != nil || ident != nil {
		t.Errorf("identity: got %v, %v; want nil, nil", ident, err)
	}
}

func TestIdentityRoundTrip(t *testing.T) {
	s, _, cleanup := newTestStore(t)
	defer cleanup()

	want := testIdentity(0x11)

	if err := s.StoreIdentity(want); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := s.FetchIdentity(want.ID)
	if err != nil || got == nil {
		t.Fatalf("fetch: %v, %v", got, err)
	}

	if got.ID != want.ID || got.Balance != want.Balance || got.Revision != want.Revision {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if len(got.PublicKeys) != 2 {
		t.Fatalf("got %d keys, want 2", len(got.PublicKeys))
	}

	for i, pk := range got.PublicKeys {
		w := want.PublicKeys[i]
		if pk.ID != w.ID || pk.Type != w.Type || pk.Disabled != w.Disabled || !bytes.Equal(pk.Data, w.Data) {
			t.Errorf("key %d: got %+v, want %+v", i, pk, w)
		}
	}
}

func TestIdentityWithoutKeys(t *testing.T) {
	s, _, cleanup := newTestStore(t)
	defer cleanup()

	if err := s.StoreIdentity(&identity.Identity{ID: identifier.Identifier{0x12}}); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := s.FetchIdentity(identifier.Identifier{0x12})
	if err != nil || got == nil {
		t.Fatalf("fetch: %v, %v", got, err)
	}

	if got.Balance != 0 || len(got.PublicKeys) != 0 {
		t.Errorf("unexpected identity %+v", got)
	}
}

func TestImportAndList(t *testing.T) {
	s, _, cleanup := newTestStore(t)
	defer cleanup()

	contracts := []*contract.DataContract{testContract(t, 0xC2), testContract(t, 0xC1)}
	identities := []*identity.Identity{testIdentity(0x22), testIdentity(0x21), testIdentity(0x23)}

	if err := s.Import(contracts, identities); err != nil {
		t.Fatalf("import: %v", err)
	}

	gotContracts, err := s.DataContracts()
	if err != nil {
		t.Fatalf("list contracts: %v", err)
	}

	if len(gotContracts) != 2 || gotContracts[0].ID[0] != 0xC1 || gotContracts[1].ID[0] != 0xC2 {
		t.Errorf("contracts not listed in id order")
	}

	gotIdentities, err := s.Identities()
	if err != nil {
		t.Fatalf("list identities: %v", err)
	}

	if len(gotIdentities) != 3 || gotIdentities[0].ID[0] != 0x21 || gotIdentities[2].ID[0] != 0x23 {
		t.Errorf("identities not listed in id order")
	}
}

func TestCorruptContractRecord(t *testing.T) {
	s, db, cleanup := newTestStore(t)
	defer cleanup()

	id := identifier.Identifier{0xC3}

	if err := db.Set(key(prefixContract, id), []byte{1, 2, 3}); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, err := s.FetchDataContract(id); !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("expected ErrCorruptRecord, got %v", err)
	}
}

func TestContractHeaderMismatch(t *testing.T) {
	s, db, cleanup := newTestStore(t)
	defer cleanup()

	c := testContract(t, 0xC4)
	value, err := s.encodeContract(c)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Same record stored under another id.
	other := identifier.Identifier{0xC5}
	if err := db.Set(key(prefixContract, other), value); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := s.FetchDataContract(other)
	if err != nil {
		t.Fatalf("record itself is valid: %v", err)
	}

	if got.ID != c.ID {
		t.Errorf("got contract %s", got.ID)
	}

	// A body that no longer matches the stored schema id is rejected.
	body, _ := c.MarshalJSON()
	body = bytes.Replace(body, []byte(`"maxLength":64`), []byte(`"maxLength":65`), 1)

	record := encodeContract(c, s.encoder.EncodeAll(body, nil))
	if err := db.Set(key(prefixContract, c.ID), record); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, err := s.FetchDataContract(c.ID); !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("expected ErrCorruptRecord for tampered body, got %v", err)
	}
}
