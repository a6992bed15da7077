package document

import (
	"fmt"
	"strings"

	"DocLedger/internal/canonical"
	"DocLedger/internal/contract"
	"DocLedger/internal/identifier"
	"DocLedger/internal/validation"
)

// ownerIDProperty is the index property resolving to the batch owner.
const ownerIDProperty = "$ownerId"

// FindDuplicatesByID returns every transition that shares its ($type, $id)
// pair with another transition, in batch order.
func FindDuplicatesByID(transitions []RawTransition) []RawTransition {
	keys := make([]string, len(transitions))
	counts := make(map[string]int, len(transitions))

	for i, t := range transitions {
		keys[i] = fmt.Sprintf("%v:%s", t["$type"], idKey(t["$id"]))
		counts[keys[i]]++
	}

	var duplicates []RawTransition
	for i, t := range transitions {
		if counts[keys[i]] > 1 {
			duplicates = append(duplicates, t)
		}
	}

	return duplicates
}

// FindDuplicatesByIndices returns every CREATE or REPLACE transition that
// shares the values of a unique index of its document type with another
// transition, in batch order. Transitions that set only part of a unique
// compound index are reported as InconsistentCompoundIndexDataError in the
// result and are not grouped.
func FindDuplicatesByIndices(transitions []RawTransition, c *contract.DataContract, ownerID identifier.Identifier) ([]RawTransition, *validation.Result) {
	result := validation.NewResult()
	duplicated := make([]bool, len(transitions))

	for _, docType := range c.DocumentTypes() {
		for _, index := range c.UniqueIndices(docType) {
			groups := make(map[string][]int)

			for i, t := range transitions {
				if t["$type"] != docType {
					continue
				}

				if action, ok := ParseAction(t["$action"]); !ok || action == ActionDelete {
					continue
				}

				key, status := indexKey(t, index, ownerID)
				switch status {
				case indexAbsent:
					continue
				case indexPartial:
					result.AddError(&validation.InconsistentCompoundIndexDataError{
						DocumentType:    docType,
						IndexDefinition: index,
					})
					continue
				}

				groups[key] = append(groups[key], i)
			}

			for _, members := range groups {
				if len(members) < 2 {
					continue
				}
				for _, i := range members {
					duplicated[i] = true
				}
			}
		}
	}

	var duplicates []RawTransition
	for i, t := range transitions {
		if duplicated[i] {
			duplicates = append(duplicates, t)
		}
	}

	return duplicates, result
}

type indexStatus int

const (
	indexComplete indexStatus = iota
	indexPartial
	indexAbsent
)

// indexKey builds the grouping key of a transition for one index.
func indexKey(t RawTransition, index contract.IndexDefinition, ownerID identifier.Identifier) (string, indexStatus) {
	values := make([]any, len(index.Properties))
	present := 0

	for i, prop := range index.Properties {
		var v any
		var ok bool

		if prop.Name == ownerIDProperty {
			v, ok = ownerID, true
		} else {
			v, ok = lookupPath(t, prop.Name)
		}

		if ok && v != nil {
			values[i] = v
			present++
		}
	}

	switch present {
	case 0:
		return "", indexAbsent
	case len(values):
	default:
		return "", indexPartial
	}

	data, err := canonical.Marshal(values)
	if err != nil {
		return fmt.Sprint(values), indexComplete
	}

	return string(data), indexComplete
}

// lookupPath resolves a dotted property path inside nested objects.
func lookupPath(obj map[string]any, path string) (any, bool) {
	var cur any = obj

	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}

		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return cur, true
}

// idKey renders a raw $id in a form equal for every encoding of the same bytes.
func idKey(v any) string {
	b, err := identifier.Bytes(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("%x", b)
}
