package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolhub/internal/capability"
)

var searchFields = []capability.ConfigField{
	{Key: "count", Type: capability.FieldNumber},
	{Key: "lang", Type: capability.FieldText},
	{Key: "query", Type: capability.FieldText, Required: true},
}

func TestBuildArguments(t *testing.T) {
	tests := []struct {
		name   string
		inputs map[string]any
		config map[string]any
		want   map[string]any
	}{
		{
			name:   "input fills first required text field",
			inputs: map[string]any{"input": "golang"},
			config: map[string]any{"count": 5},
			want:   map[string]any{"count": 5, "query": "golang"},
		},
		{
			name:   "input falls back to first unset text field",
			inputs: map[string]any{"input": "de"},
			config: map[string]any{"query": "already"},
			want:   map[string]any{"query": "already", "lang": "de"},
		},
		{
			name:   "empty config value counts as unset",
			inputs: map[string]any{"input": "golang"},
			config: map[string]any{"query": ""},
			want:   map[string]any{"query": "golang"},
		},
		{
			name:   "data is shallow merged over config",
			inputs: map[string]any{"data": map[string]any{"count": 10, "extra": true}},
			config: map[string]any{"count": 5},
			want:   map[string]any{"count": 10, "extra": true},
		},
		{
			name: "explicit ports override data and config",
			inputs: map[string]any{
				"data":  map[string]any{"query": "from data"},
				"query": "from port",
			},
			config: map[string]any{"query": "from config"},
			want:   map[string]any{"query": "from port"},
		},
		{
			name:   "non-object data is ignored",
			inputs: map[string]any{"data": "not an object"},
			want:   map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildArguments(searchFields, tt.inputs, tt.config))
		})
	}
}

func TestBuildArguments_DeclaredInputField(t *testing.T) {
	fields := []capability.ConfigField{
		{Key: "input", Type: capability.FieldText},
		{Key: "other", Type: capability.FieldText, Required: true},
	}
	got := BuildArguments(fields, map[string]any{"input": "x"}, nil)
	assert.Equal(t, map[string]any{"input": "x"}, got)
}

func TestRawInputSchema_RoundTrip(t *testing.T) {
	lower := 1.0
	fields := []capability.ConfigField{
		{Key: "zeta", Type: capability.FieldText, Required: true, Description: "last letter"},
		{Key: "alpha", Type: capability.FieldNumber, Min: &lower},
		{Key: "mode", Type: capability.FieldSelect, Options: []capability.Option{{Value: "a", Label: "A"}, {Value: "b", Label: "B"}}},
		{Key: "flag", Type: capability.FieldToggle},
		{Key: "body", Type: capability.FieldJSON},
	}

	raw, err := RawInputSchema(fields)
	require.NoError(t, err)

	s, err := ParseRaw(raw)
	require.NoError(t, err)
	require.Len(t, s.Properties, 5)
	assert.Equal(t, "zeta", s.Properties[0].Name)
	assert.Equal(t, KindString, s.Properties[0].Kind)
	assert.True(t, s.IsRequired(s.Properties[0]))
	assert.Equal(t, KindNumber, s.Properties[1].Kind)
	require.NotNil(t, s.Properties[1].Minimum)
	assert.Equal(t, 1.0, *s.Properties[1].Minimum)
	assert.Equal(t, []any{"a", "b"}, s.Properties[2].Enum)
	assert.Equal(t, KindBoolean, s.Properties[3].Kind)
	assert.Equal(t, KindObject, s.Properties[4].Kind)
}

func TestToInputSchema(t *testing.T) {
	s := ToInputSchema(searchFields)
	assert.Equal(t, "object", s.Type)
	assert.Equal(t, []string{"query"}, s.Required)
	assert.Equal(t, map[string]any{"type": "number"}, s.Properties["count"])
}

type chunkArgs struct {
	Text    string `json:"text" jsonschema:"required,description=Text to split"`
	Size    int    `json:"size,omitempty" jsonschema:"minimum=1"`
	Mode    string `json:"mode,omitempty" jsonschema:"enum=chars,enum=words"`
	Overlap int    `json:"overlap,omitempty"`
}

func TestFromStruct(t *testing.T) {
	s, err := FromStruct(&chunkArgs{})
	require.NoError(t, err)

	require.Len(t, s.Properties, 4)
	assert.Equal(t, "text", s.Properties[0].Name)
	assert.Equal(t, "Text to split", s.Properties[0].Description)
	assert.True(t, s.IsRequired(s.Properties[0]))
	assert.Equal(t, KindInteger, s.Properties[1].Kind)
	assert.False(t, s.IsRequired(s.Properties[1]))
	assert.Equal(t, []any{"chars", "words"}, s.Properties[2].Enum)

	got := Translate(s)
	assert.Equal(t, capability.FieldSelect, got.Fields[2].Type)
}
