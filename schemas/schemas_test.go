package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func TestNames_ListsEmbeddedSchemas(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "policy_cache.schema.json")
	assert.Contains(t, names, "policy_listing.schema.json")
}

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	for _, schemaFile := range Names() {
		t.Run(schemaFile, func(t *testing.T) {
			data, err := Read(schemaFile)
			require.NoError(t, err, "should be able to read schema file")

			var v interface{}
			err = json.Unmarshal(data, &v)
			assert.NoError(t, err, "schema file should be valid JSON: %s", schemaFile)
		})
	}
}

func TestSchemaFiles_ValidJSONSchema(t *testing.T) {
	for _, schemaFile := range Names() {
		t.Run(schemaFile, func(t *testing.T) {
			data, err := Read(schemaFile)
			require.NoError(t, err)

			_, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
			assert.NoError(t, err, "schema should compile: %s", schemaFile)
		})
	}
}

func TestRead_UnknownSchema(t *testing.T) {
	_, err := Read("missing.schema.json")
	assert.Error(t, err)
}
