package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/zeebo/blake3"

	"DocLedger/internal/canonical"
	"DocLedger/internal/identifier"
)

// ErrInvalidContract is wrapped by every contract parsing failure.
var ErrInvalidContract = errors.New("invalid data contract")

// documentTypePattern restricts document type names so they can be used
// verbatim in schema refs.
var documentTypePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,62}$`)

// indicesKeyword is the document schema keyword declaring indices.
const indicesKeyword = "indices"

// DataContract declares the document types of an application and their indices.
// It is immutable once created.
type DataContract struct {
	ID          identifier.Identifier // ID is the contract identifier
	OwnerID     identifier.Identifier // OwnerID is the identity that registered the contract
	Version     uint32                // Version is the contract revision
	MetaSchema  string                // MetaSchema is the optional $schema of the contract

	documents   map[string]map[string]any
	definitions map[string]any
	indices     map[string][]IndexDefinition
	schemaID    identifier.Identifier
}

// New creates a contract from document schemas and shared definitions.
// Inputs are deep-copied; the caller may reuse them.
func New(id, ownerID identifier.Identifier, version uint32, documents map[string]map[string]any, definitions map[string]any) (*DataContract, error) {
	if len(documents) == 0 {
		return nil, fmt.Errorf("%w: no document types", ErrInvalidContract)
	}

	// Empty and absent definitions must hash alike.
	if len(definitions) == 0 {
		definitions = nil
	}

	c := &DataContract{
		ID:          id,
		OwnerID:     ownerID,
		Version:     version,
		documents:   make(map[string]map[string]any, len(documents)),
		definitions: deepCopyMap(definitions),
		indices:     make(map[string][]IndexDefinition, len(documents)),
	}

	for docType, schema := range documents {
		if !documentTypePattern.MatchString(docType) {
			return nil, fmt.Errorf("%w: document type name %q", ErrInvalidContract, docType)
		}

		if schema == nil {
			return nil, fmt.Errorf("%w: document type %q has no schema", ErrInvalidContract, docType)
		}

		indices, err := parseIndices(schema[indicesKeyword])
		if err != nil {
			return nil, fmt.Errorf("%w: document type %q: %v", ErrInvalidContract, docType, err)
		}

		c.documents[docType] = deepCopyMap(schema)
		c.indices[docType] = indices
	}

	schemaID, err := contentSchemaID(c)
	if err != nil {
		return nil, err
	}
	c.schemaID = schemaID

	return c, nil
}

// FromObject parses a contract from its raw object form.
func FromObject(raw map[string]any) (*DataContract, error) {
	id, err := identifier.From(raw["$id"])
	if err != nil {
		return nil, fmt.Errorf("%w: $id: %v", ErrInvalidContract, err)
	}

	ownerID, err := identifier.From(raw["ownerId"])
	if err != nil {
		return nil, fmt.Errorf("%w: ownerId: %v", ErrInvalidContract, err)
	}

	version, err := parseVersion(raw["version"])
	if err != nil {
		return nil, err
	}

	rawDocuments, ok := raw["documents"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: documents must be an object", ErrInvalidContract)
	}

	documents := make(map[string]map[string]any, len(rawDocuments))
	for docType, schema := range rawDocuments {
		m, ok := schema.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: document type %q schema must be an object", ErrInvalidContract, docType)
		}
		documents[docType] = m
	}

	var definitions map[string]any
	if rawDefs, present := raw["definitions"]; present {
		definitions, ok = rawDefs.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: definitions must be an object", ErrInvalidContract)
		}
	}

	c, err := New(id, ownerID, version, documents, definitions)
	if err != nil {
		return nil, err
	}

	if meta, ok := raw["$schema"].(string); ok {
		c.MetaSchema = meta
	}

	return c, nil
}

// FromJSON parses a contract from JSON with hex-encoded identifiers.
func FromJSON(data []byte) (*DataContract, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode data contract:\n%w", err)
	}

	return FromObject(raw)
}

// ToObject returns the raw object form of the contract.
func (c *DataContract) ToObject() map[string]any {
	documents := make(map[string]any, len(c.documents))
	for docType, schema := range c.documents {
		documents[docType] = deepCopyMap(schema)
	}

	obj := map[string]any{
		"$id":       c.ID,
		"ownerId":   c.OwnerID,
		"version":   c.Version,
		"documents": documents,
	}

	if c.MetaSchema != "" {
		obj["$schema"] = c.MetaSchema
	}

	if len(c.definitions) > 0 {
		obj["definitions"] = deepCopyMap(c.definitions)
	}

	return obj
}

// MarshalJSON encodes the contract with hex identifiers.
func (c *DataContract) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToObject())
}

// IsDocumentDefined reports whether the contract declares the document type.
func (c *DataContract) IsDocumentDefined(docType string) bool {
	_, ok := c.documents[docType]
	return ok
}

// DocumentTypes returns the declared document types in sorted order.
func (c *DataContract) DocumentTypes() []string {
	types := make([]string, 0, len(c.documents))
	for docType := range c.documents {
		types = append(types, docType)
	}
	sort.Strings(types)
	return types
}

// DocumentSchema returns a copy of the declared schema of a document type, or nil.
func (c *DataContract) DocumentSchema(docType string) map[string]any {
	schema, ok := c.documents[docType]
	if !ok {
		return nil
	}
	return deepCopyMap(schema)
}

// Indices returns the index definitions of a document type.
func (c *DataContract) Indices(docType string) []IndexDefinition {
	return c.indices[docType]
}

// UniqueIndices returns the unique index definitions of a document type.
func (c *DataContract) UniqueIndices(docType string) []IndexDefinition {
	var unique []IndexDefinition
	for _, index := range c.indices[docType] {
		if index.Unique {
			unique = append(unique, index)
		}
	}
	return unique
}

// SchemaID returns the content-addressed id of the contract's schemas.
func (c *DataContract) SchemaID() identifier.Identifier {
	return c.schemaID
}

// base implements Schemas.
func (c *DataContract) base() (*DataContract, []layer) {
	return c, nil
}

// contentSchemaID hashes the contract id together with its schemas.
func contentSchemaID(c *DataContract) (identifier.Identifier, error) {
	body, err := canonical.Marshal(map[string]any{
		"documents":   c.documentsAsAny(),
		"definitions": c.definitions,
	})
	if err != nil {
		return identifier.Identifier{}, fmt.Errorf("hash contract schemas:\n%w", err)
	}

	h := blake3.New()
	h.Write(c.ID[:])
	h.Write(body)

	var id identifier.Identifier
	h.Sum(id[:0])

	return id, nil
}

func (c *DataContract) documentsAsAny() map[string]any {
	out := make(map[string]any, len(c.documents))
	for docType, schema := range c.documents {
		out[docType] = schema
	}
	return out
}

func parseVersion(v any) (uint32, error) {
	switch n := v.(type) {
	case nil:
		return 1, nil
	case float64:
		if n < 0 || n != float64(uint32(n)) {
			return 0, fmt.Errorf("%w: version %v", ErrInvalidContract, n)
		}
		return uint32(n), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("%w: version %d", ErrInvalidContract, n)
		}
		return uint32(n), nil
	case uint32:
		return n, nil
	default:
		return 0, fmt.Errorf("%w: version has type %T", ErrInvalidContract, v)
	}
}

// deepCopyMap copies a JSON-like map recursively.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	default:
		return v
	}
}
