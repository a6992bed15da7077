package document

import (
	"testing"

	"DocLedger/internal/identifier"
	"DocLedger/internal/validation"
)

func TestFindDuplicatesByID(t *testing.T) {
	a := RawTransition{"$type": "note", "$id": identifier.Identifier{1}, "$action": "create"}
	b := RawTransition{"$type": "note", "$id": identifier.Identifier{2}, "$action": "create"}
	c := RawTransition{"$type": "note", "$id": identifier.Identifier{1}.Bytes(), "$action": "delete"}
	d := RawTransition{"$type": "profile", "$id": identifier.Identifier{1}, "$action": "create"}

	tests := []struct {
		name  string
		input []RawTransition
		want  []RawTransition
	}{
		{"none", []RawTransition{a, b, d}, nil},
		{"pair across encodings", []RawTransition{a, b, c}, []RawTransition{a, c}},
		{"position independent", []RawTransition{c, b, d, a}, []RawTransition{c, a}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindDuplicatesByID(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d duplicates, want %d", len(got), len(tt.want))
			}

			for i := range tt.want {
				if idKey(got[i]["$id"]) != idKey(tt.want[i]["$id"]) {
					t.Errorf("duplicate %d: got %v, want %v", i, got[i], tt.want[i])
				}
				if got[i]["$action"] != tt.want[i]["$action"] {
					t.Errorf("duplicate %d: got action %v, want %v", i, got[i]["$action"], tt.want[i]["$action"])
				}
			}
		})
	}
}

func TestFindDuplicatesByID_ReportsWholeGroup(t *testing.T) {
	id := identifier.Identifier{7}
	batch := []RawTransition{
		{"$type": "note", "$id": id, "n": 1},
		{"$type": "note", "$id": id, "n": 2},
		{"$type": "note", "$id": id, "n": 3},
	}

	if got := FindDuplicatesByID(batch); len(got) != 3 {
		t.Fatalf("got %d duplicates, want every member of the group", len(got))
	}
}

func TestFindDuplicatesByIndices(t *testing.T) {
	c := newTestContract(t, testContractID)

	listing := func(seed byte, data map[string]any) RawTransition {
		return createTransition(testContractID, "listing", seed, data)
	}

	t.Run("same values collide", func(t *testing.T) {
		batch := []RawTransition{
			listing(1, map[string]any{"a": "x", "b": 1}),
			listing(2, map[string]any{"a": "y", "b": 1}),
			listing(3, map[string]any{"a": "x", "b": 1.0}),
		}

		dups, result := FindDuplicatesByIndices(batch, c, testOwnerID)
		if !result.IsValid() {
			t.Fatalf("unexpected errors: %v", result.Errors())
		}

		if len(dups) != 2 {
			t.Fatalf("got %d duplicates, want 2", len(dups))
		}

		if idKey(dups[0]["$id"]) != idKey(batch[0]["$id"]) || idKey(dups[1]["$id"]) != idKey(batch[2]["$id"]) {
			t.Error("duplicates should be the first and third transitions, in batch order")
		}
	})

	t.Run("partial index data", func(t *testing.T) {
		batch := []RawTransition{
			listing(1, map[string]any{"a": "x"}),
			listing(2, map[string]any{"a": "x"}),
		}

		dups, result := FindDuplicatesByIndices(batch, c, testOwnerID)
		if len(dups) != 0 {
			t.Errorf("partial transitions must not be grouped, got %d duplicates", len(dups))
		}

		requireKinds(t, result, validation.KindInconsistentCompoundIndexData, validation.KindInconsistentCompoundIndexData)

		err := result.FirstError().(*validation.InconsistentCompoundIndexDataError)
		if err.DocumentType != "listing" || len(err.IndexDefinition.Properties) != 2 {
			t.Errorf("unexpected payload: %+v", err)
		}
	})

	t.Run("no index data", func(t *testing.T) {
		batch := []RawTransition{listing(1, nil), listing(2, nil)}

		dups, result := FindDuplicatesByIndices(batch, c, testOwnerID)
		if len(dups) != 0 || !result.IsValid() {
			t.Errorf("transitions without index data are not indexed")
		}
	})

	t.Run("owner scoped index", func(t *testing.T) {
		batch := []RawTransition{
			createTransition(testContractID, "profile", 1, map[string]any{"lastName": "Hopper"}),
			createTransition(testContractID, "profile", 2, map[string]any{"lastName": "Hopper"}),
		}

		dups, result := FindDuplicatesByIndices(batch, c, testOwnerID)
		if !result.IsValid() || len(dups) != 2 {
			t.Errorf("got %d duplicates (%v), want 2", len(dups), result.Errors())
		}
	})

	t.Run("owner counts as index data", func(t *testing.T) {
		batch := []RawTransition{
			createTransition(testContractID, "profile", 1, map[string]any{"firstName": "Grace"}),
		}

		_, result := FindDuplicatesByIndices(batch, c, testOwnerID)
		requireKinds(t, result, validation.KindInconsistentCompoundIndexData)
	})

	t.Run("delete is skipped", func(t *testing.T) {
		del := RawTransition{
			"$type":   "listing",
			"$action": "delete",
			"$id":     identifier.Identifier{9},
			"a":       "x",
		}

		dups, result := FindDuplicatesByIndices([]RawTransition{del, del}, c, testOwnerID)
		if len(dups) != 0 || !result.IsValid() {
			t.Error("delete transitions carry no indexed data")
		}
	})
}

func TestLookupPath(t *testing.T) {
	obj := map[string]any{
		"address": map[string]any{"city": "Paris"},
		"flat":    "x",
	}

	if v, ok := lookupPath(obj, "address.city"); !ok || v != "Paris" {
		t.Errorf("nested lookup: got %v, %v", v, ok)
	}

	if _, ok := lookupPath(obj, "address.zip"); ok {
		t.Error("missing nested key should not be found")
	}

	if _, ok := lookupPath(obj, "flat.deeper"); ok {
		t.Error("path through a scalar should not be found")
	}
}
