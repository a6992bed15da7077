package contract

import (
	"sort"
	"strings"

	"github.com/zeebo/blake3"

	"DocLedger/internal/identifier"
)

// Discriminator bytes of the action-scoped schema views of a contract.
const (
	PrefixBase    byte = 1
	PrefixCreate  byte = 2
	PrefixReplace byte = 3
)

// SchemaBaseURI prefixes the $id of every composed contract schema document.
const SchemaBaseURI = "https://schema.docledger.dev/contract/"

// Shared contract definitions live next to the document types under $defs.
// Document type names cannot contain a dot, so the prefix never collides.
const (
	definitionsRef    = "#/definitions/"
	sharedDefPrefix   = "shared."
	sharedDefsRefBase = "#/$defs/" + sharedDefPrefix
)

// pointerEscaper escapes a reference token per RFC 6901.
var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// Schemas is a contract or an enriched view of one.
type Schemas interface {
	SchemaID() identifier.Identifier
	base() (*DataContract, []layer)
}

// layer is one schema fragment composed on top of the contract's documents.
type layer struct {
	fragment map[string]any
	exclude  []string
}

// Enriched is an immutable view of a contract whose document schemas are
// composed with one or more platform schema fragments.
type Enriched struct {
	contract *DataContract
	layers   []layer
	schemaID identifier.Identifier
}

// Enrich composes every document schema of src with fragment.
// Only the fragment's properties and required lists are used. Properties named
// in exclude are removed from the document schema and from earlier fragments.
// The view's schema id is blake3(prefix || src schema id), so views built with
// different prefixes never share a cache entry.
func Enrich(src Schemas, fragment map[string]any, prefix byte, exclude ...string) *Enriched {
	c, parent := src.base()

	layers := make([]layer, len(parent), len(parent)+1)
	copy(layers, parent)
	layers = append(layers, layer{
		fragment: fragmentMember(fragment),
		exclude:  append([]string(nil), exclude...),
	})

	parentID := src.SchemaID()

	h := blake3.New()
	h.Write([]byte{prefix})
	h.Write(parentID[:])

	var id identifier.Identifier
	h.Sum(id[:0])

	return &Enriched{
		contract: c,
		layers:   layers,
		schemaID: id,
	}
}

// SchemaID returns the id of the composed schema document.
func (e *Enriched) SchemaID() identifier.Identifier {
	return e.schemaID
}

// URI returns the $id of the composed schema document.
func (e *Enriched) URI() string {
	return SchemaBaseURI + e.schemaID.String()
}

// Contract returns the underlying contract.
func (e *Enriched) Contract() *DataContract {
	return e.contract
}

// DocumentSchemaRef returns the $ref of a document type's composed schema.
func (e *Enriched) DocumentSchemaRef(docType string) string {
	return e.URI() + "#/$defs/" + pointerEscaper.Replace(docType)
}

// DocumentSchema returns the composed schema of a document type, or nil.
func (e *Enriched) DocumentSchema(docType string) map[string]any {
	if !e.contract.IsDocumentDefined(docType) {
		return nil
	}
	return e.compose(docType)
}

// ToJSON returns the composed schema document holding every document type
// and every shared definition under $defs. Shared definitions are renamed
// with sharedDefPrefix and refs into #/definitions/ are rewritten to match.
func (e *Enriched) ToJSON() map[string]any {
	defs := make(map[string]any, len(e.contract.documents)+len(e.contract.definitions))
	for docType := range e.contract.documents {
		defs[docType] = e.compose(docType)
	}

	for name, def := range e.contract.definitions {
		defs[sharedDefPrefix+name] = rewriteDefinitionRefs(deepCopy(def))
	}

	return map[string]any{
		"$id":   e.URI(),
		"$defs": defs,
	}
}

// base implements Schemas.
func (e *Enriched) base() (*DataContract, []layer) {
	return e.contract, e.layers
}

// compose builds {"allOf": [document, fragments...]}. A document closed with
// additionalProperties=false is re-closed at the top with unevaluatedProperties
// so properties contributed by fragments remain allowed. Excluded properties
// not re-added by a later fragment are forbidden by a trailing "not" member,
// which also covers open documents.
func (e *Enriched) compose(docType string) map[string]any {
	doc := rewriteDefinitionRefs(deepCopyMap(e.contract.documents[docType])).(map[string]any)
	delete(doc, indicesKeyword)

	closed := false
	if ap, ok := doc["additionalProperties"].(bool); ok && !ap {
		closed = true
		delete(doc, "additionalProperties")
	}

	forbidden := make(map[string]bool)

	members := []map[string]any{doc}
	for _, l := range e.layers {
		for _, m := range members {
			removeProperties(m, l.exclude)
		}
		members = append(members, deepCopyMap(l.fragment))

		for _, name := range l.exclude {
			forbidden[name] = true
		}
		if props, ok := l.fragment["properties"].(map[string]any); ok {
			for name := range props {
				delete(forbidden, name)
			}
		}
	}

	if len(forbidden) > 0 {
		members = append(members, forbidMember(forbidden))
	}

	allOf := make([]any, len(members))
	for i, m := range members {
		allOf[i] = m
	}

	composed := map[string]any{"allOf": allOf}
	if closed {
		composed["unevaluatedProperties"] = false
	}

	return composed
}

// forbidMember rejects objects carrying any of names.
func forbidMember(names map[string]bool) map[string]any {
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	anyOf := make([]any, len(sorted))
	for i, name := range sorted {
		anyOf[i] = map[string]any{"required": []any{name}}
	}

	return map[string]any{"not": map[string]any{"anyOf": anyOf}}
}

// rewriteDefinitionRefs points every #/definitions/ ref of v at the shared
// definitions under $defs. Literal values (const, enum, default, examples)
// are left untouched.
func rewriteDefinitionRefs(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			if ref, ok := child.(string); ok && k == "$ref" {
				if strings.HasPrefix(ref, definitionsRef) {
					val[k] = sharedDefsRefBase + strings.TrimPrefix(ref, definitionsRef)
				}
				continue
			}

			switch k {
			case "const", "enum", "default", "examples":
			case "properties", "patternProperties", "dependentSchemas", "$defs", "definitions":
				// Keys of these maps are names, not keywords.
				if named, ok := child.(map[string]any); ok {
					for name, schema := range named {
						named[name] = rewriteDefinitionRefs(schema)
					}
				}
			default:
				val[k] = rewriteDefinitionRefs(child)
			}
		}
		return val

	case []any:
		for i, child := range val {
			val[i] = rewriteDefinitionRefs(child)
		}
		return val

	default:
		return v
	}
}

// fragmentMember keeps the properties and required lists of a fragment.
func fragmentMember(fragment map[string]any) map[string]any {
	member := make(map[string]any, 2)

	if props, ok := fragment["properties"].(map[string]any); ok {
		member["properties"] = deepCopyMap(props)
	}

	if required, ok := fragment["required"]; ok {
		member["required"] = deepCopy(required)
	}

	return member
}

// removeProperties deletes names from a schema's properties and required lists.
func removeProperties(schema map[string]any, names []string) {
	if len(names) == 0 {
		return
	}

	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	if props, ok := schema["properties"].(map[string]any); ok {
		for n := range drop {
			delete(props, n)
		}
	}

	required, ok := schema["required"].([]any)
	if !ok {
		return
	}

	kept := make([]any, 0, len(required))
	for _, r := range required {
		if name, ok := r.(string); ok && drop[name] {
			continue
		}
		kept = append(kept, r)
	}

	schema["required"] = kept
}
