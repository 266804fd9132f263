package util

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readArgs struct {
	Start *int `json:"start" description:"First line"`
	Count int  `json:"count,omitempty"`
	Path  string
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(readArgs{})

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "start")
	assert.Contains(t, props, "count")
	assert.Contains(t, props, "Path")
	assert.Equal(t, "First line", props["start"].(map[string]any)["description"])
	assert.Equal(t, []string{"Path"}, schema["required"])
	assert.NotContains(t, schema, "additionalProperties")
}

func TestCreateStrictSchema(t *testing.T) {
	schema := CreateStrictSchema(&readArgs{})
	assert.Equal(t, []string{"start", "count", "Path"}, schema["required"])
	assert.Equal(t, false, schema["additionalProperties"])
}

func TestValidateParameters(t *testing.T) {
	schema := CreateSchema(readArgs{})

	tests := []struct {
		name    string
		params  map[string]any
		wantErr string
	}{
		{"valid", map[string]any{"Path": "a", "start": float64(3)}, ""},
		{"missing required", map[string]any{"start": float64(3)}, "Path"},
		{"non integer", map[string]any{"Path": "a", "start": 1.5}, "start"},
		{"wrong type", map[string]any{"Path": 1.0}, "Path"},
		{"extra allowed", map[string]any{"Path": "a", "other": true}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParameters(tt.params, schema)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantErr, ve.Field)
		})
	}
}

func TestValidateParameters_StrictNull(t *testing.T) {
	schema := CreateStrictSchema(readArgs{})
	assert.Equal(t, []any{"integer", "null"}, schema["properties"].(map[string]any)["start"].(map[string]any)["type"])

	assert.NoError(t, ValidateParameters(map[string]any{"start": nil, "count": float64(2), "Path": "a"}, schema))

	err := ValidateParameters(map[string]any{"start": nil, "count": float64(2), "Path": nil}, schema)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Path", ve.Field)

	err = ValidateParameters(map[string]any{"start": float64(1), "count": nil, "Path": "a"}, schema)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "count", ve.Field)
}

func TestValidateParameters_DecodedSchema(t *testing.T) {
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"type":"object","properties":{"content":{"type":"string"}},"required":["content"],"additionalProperties":false}`), &schema))

	assert.Error(t, ValidateParameters(map[string]any{}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"content": "x", "extra": 1.0}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"content": "x"}, schema))
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("plain {text}", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain {text}", out)

	out, err = RenderTemplate("Read {{.Artifact}} & write {{upper .Note}}", map[string]any{
		"Artifact": "Copy00.lean",
		"Note":     "diag",
	})
	require.NoError(t, err)
	assert.Equal(t, "Read Copy00.lean & write DIAG", out)

	_, err = RenderTemplate("{{.Broken", nil)
	assert.Error(t, err)
}
