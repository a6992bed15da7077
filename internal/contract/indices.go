package contract

import (
	"fmt"
	"sort"
)

const (
	// Ascending is the ascending index direction.
	Ascending = "asc"

	// Descending is the descending index direction.
	Descending = "desc"
)

// IndexProperty is one property of a compound index.
type IndexProperty struct {
	Name      string // Name is the (possibly dotted) property path
	Direction string // Direction is Ascending or Descending
}

// IndexDefinition is a compound index declared on a document type.
type IndexDefinition struct {
	Properties []IndexProperty // Properties are the indexed properties, in order
	Unique     bool            // Unique forbids two documents with the same values
}

// PropertyNames returns the indexed property names in order.
func (d IndexDefinition) PropertyNames() []string {
	names := make([]string, len(d.Properties))
	for i, p := range d.Properties {
		names[i] = p.Name
	}
	return names
}

// parseIndices decodes the indices keyword of a document schema:
//
//	[{"properties": [{"lastName": "asc"}, {"firstName": "asc"}], "unique": true}]
func parseIndices(v any) ([]IndexDefinition, error) {
	if v == nil {
		return nil, nil
	}

	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("indices must be an array")
	}

	indices := make([]IndexDefinition, 0, len(items))

	for i, item := range items {
		index, err := parseIndex(item)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		indices = append(indices, index)
	}

	return indices, nil
}

func parseIndex(v any) (IndexDefinition, error) {
	var index IndexDefinition

	m, ok := v.(map[string]any)
	if !ok {
		return index, fmt.Errorf("must be an object")
	}

	if unique, present := m["unique"]; present {
		b, ok := unique.(bool)
		if !ok {
			return index, fmt.Errorf("unique must be a boolean")
		}
		index.Unique = b
	}

	props, ok := m["properties"].([]any)
	if !ok || len(props) == 0 {
		return index, fmt.Errorf("properties must be a non-empty array")
	}

	for j, p := range props {
		prop, err := parseIndexProperty(p)
		if err != nil {
			return index, fmt.Errorf("property %d: %w", j, err)
		}
		index.Properties = append(index.Properties, prop)
	}

	return index, nil
}

func parseIndexProperty(v any) (IndexProperty, error) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return IndexProperty{}, fmt.Errorf("must be an object with a single key")
	}

	keys := make([]string, 0, 1)
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	direction, ok := m[keys[0]].(string)
	if !ok || (direction != Ascending && direction != Descending) {
		return IndexProperty{}, fmt.Errorf("direction of %q must be %q or %q", keys[0], Ascending, Descending)
	}

	return IndexProperty{Name: keys[0], Direction: direction}, nil
}
