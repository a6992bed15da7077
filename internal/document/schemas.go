package document

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

// Platform schemas of the documents batch envelope and of each transition action.
var (
	batchSchema   = mustLoadSchema("documentsBatch.json")
	baseSchema    = mustLoadSchema("base.json")
	createSchema  = mustLoadSchema("create.json")
	replaceSchema = mustLoadSchema("replace.json")
)

// batchSchemaID is the $id of the documents batch schema.
var batchSchemaID, _ = batchSchema["$id"].(string)

func mustLoadSchema(name string) map[string]any {
	data, err := schemaFiles.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", name, err))
	}

	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		panic(fmt.Sprintf("decode schema %s: %v", name, err))
	}

	return schema
}
