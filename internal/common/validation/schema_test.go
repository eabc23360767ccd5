package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pagingSchema = `{
  "type": "object",
  "properties": {
    "term": {"type": "string", "maxLength": 100},
    "page": {"type": "integer", "minimum": 1}
  },
  "required": ["page"],
  "additionalProperties": false
}`

func TestSchemaValidate(t *testing.T) {
	schema := MustCompile(pagingSchema)

	tests := []struct {
		name      string
		input     interface{}
		wantValid bool
		wantField string
	}{
		{"valid map", map[string]interface{}{"page": 2, "term": "cake"}, true, ""},
		{"valid raw json", `{"page": 1}`, true, ""},
		{"missing page", map[string]interface{}{"term": "cake"}, false, "(root)"},
		{"page below minimum", map[string]interface{}{"page": 0}, false, "page"},
		{"extra field", map[string]interface{}{"page": 1, "sort": "name"}, false, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := schema.Validate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)
			if !tt.wantValid {
				require.NotEmpty(t, result.Errors)
				assert.Equal(t, tt.wantField, result.Errors[0].Field)
				assert.NotEmpty(t, result.Summary())
			}
		})
	}
}

func TestCompileRejectsBadSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile(`not json`) })
}
