package annotations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaExamplesParse(t *testing.T) {
	for _, schema := range []AnnotationSchema{ContainerSchema, FieldSchema} {
		for _, example := range schema.Examples {
			t.Run(example, func(t *testing.T) {
				start := strings.Index(example, "`")
				end := strings.LastIndex(example, "`")
				require.Greater(t, end, start)

				values, err := ExtractTag(example[start+1:end], TagKey)
				require.NoError(t, err)
				require.Len(t, values, 1)

				args, err := ParseArguments(values[0].Value, SourceLocation{File: "example"})
				require.NoError(t, err)
				assert.NotEmpty(t, args)
			})
		}
	}
}

func TestSchemaParameter(t *testing.T) {
	spec, ok := FieldSchema.Parameter("serialize_with")
	require.True(t, ok)
	assert.Equal(t, StringParameter, spec.Kind)

	_, ok = ContainerSchema.Parameter("rename")
	assert.False(t, ok)
}

func TestSchemaDescribe(t *testing.T) {
	out := ContainerSchema.Describe()
	assert.Contains(t, out, "format: "+ContainerSchema.Format)
	assert.Contains(t, out, "flatten")
	assert.Contains(t, out, "examples:")
	assert.Contains(t, ContainerSchema.Hint(), "expected request:")
}
