package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`},
		{"prose around", `Sure! Here it is: {"a":1} hope that helps {"b":2}`, `{"a":1}`},
		{"brace in string", `{"notes":"paid } later","a":1}`, `{"notes":"paid } later","a":1}`},
		{"escaped quote", `{"notes":"he said \"}\"","a":1}`, `{"notes":"he said \"}\"","a":1}`},
		{"unbalanced first start", `{ oops {"a":1}`, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONObject_None(t *testing.T) {
	for _, in := range []string{"", "no json here", "{ never closed", "} {"} {
		_, err := ExtractJSONObject(in)
		assert.ErrorIs(t, err, ErrNoJSONObject, in)
	}
}
