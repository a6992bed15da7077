package validation

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/zeebo/blake3"

	"DocLedger/internal/canonical"
)

// rootBaseURI is the base URI for schemas that carry no $id of their own.
const rootBaseURI = "https://schema.docledger.dev/validate"

// SchemaValidator validates instances against JSON schemas.
// schema is either a $ref string or a schema document (map[string]any or raw JSON bytes).
// additional maps schema ids to documents that $refs may point into.
type SchemaValidator interface {
	Validate(schema any, instance any, additional map[string]map[string]any) *Result
}

// JSONSchemaValidator is a SchemaValidator backed by github.com/google/jsonschema-go.
// Resolved schemas are cached: refs are keyed by the ref itself, which is safe
// because enriched schema ids are content-addressed, and documents by the hash
// of their canonical encoding. It is safe for concurrent use.
type JSONSchemaValidator struct {
	mu    sync.Mutex
	cache map[string]*jsonschema.Resolved
}

// NewJSONSchemaValidator creates a validator with an empty cache.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{cache: make(map[string]*jsonschema.Resolved)}
}

// Validate checks instance against schema. instance must already be in the
// plain JSON value model (see canonical.Normalize).
func (v *JSONSchemaValidator) Validate(schema any, instance any, additional map[string]map[string]any) *Result {
	resolved, name, err := v.resolve(schema, additional)
	if err != nil {
		return NewResult(&JSONSchemaError{Schema: name, Message: err.Error()})
	}

	if err := resolved.Validate(instance); err != nil {
		return NewResult(&JSONSchemaError{Schema: name, Message: err.Error()})
	}

	return NewResult()
}

// resolve returns the cached resolved schema or compiles it.
func (v *JSONSchemaValidator) resolve(schema any, additional map[string]map[string]any) (*jsonschema.Resolved, string, error) {
	root, key, name, err := rootSchema(schema)
	if err != nil {
		return nil, name, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if resolved, ok := v.cache[key]; ok {
		return resolved, name, nil
	}

	resolved, err := root.Resolve(&jsonschema.ResolveOptions{
		BaseURI: rootBaseURI,
		Loader:  additionalLoader(additional),
	})
	if err != nil {
		return nil, name, fmt.Errorf("resolve schema:\n%w", err)
	}

	v.cache[key] = resolved

	return resolved, name, nil
}

// rootSchema builds the root schema and its cache key from a ref or a document.
func rootSchema(schema any) (root *jsonschema.Schema, key, name string, err error) {
	switch s := schema.(type) {
	case string:
		return &jsonschema.Schema{Ref: s}, "ref:" + s, s, nil
	case []byte:
		return decodeSchema(s)
	case map[string]any:
		data, err := canonical.Marshal(s)
		if err != nil {
			return nil, "", "", err
		}
		return decodeSchema(data)
	default:
		return nil, "", "", fmt.Errorf("unsupported schema type %T", schema)
	}
}

// decodeSchema parses a schema document keyed by the hash of its bytes.
func decodeSchema(data []byte) (*jsonschema.Schema, string, string, error) {
	sum := blake3.Sum256(data)
	key := "doc:" + hex.EncodeToString(sum[:])

	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, key, "", fmt.Errorf("decode schema:\n%w", err)
	}

	return &s, key, s.ID, nil
}

// additionalLoader resolves external refs from the supplied schema documents only.
func additionalLoader(additional map[string]map[string]any) jsonschema.Loader {
	return func(uri *url.URL) (*jsonschema.Schema, error) {
		base := *uri
		base.Fragment = ""

		doc, ok := additional[base.String()]
		if !ok {
			return nil, fmt.Errorf("schema %s is not available", base.String())
		}

		data, err := canonical.Marshal(doc)
		if err != nil {
			return nil, err
		}

		var s jsonschema.Schema
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode schema %s:\n%w", base.String(), err)
		}

		return &s, nil
	}
}
