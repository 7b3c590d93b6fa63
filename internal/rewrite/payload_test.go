package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/newsdesk/internal/genai"
)

func TestExtractPayload(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  payload
	}{
		{
			name:  "bare object",
			input: `{"title":"T1","content":"C1","excerpt":"E1"}`,
			want:  payload{Title: "T1", Content: "C1", Excerpt: "E1"},
		},
		{
			name:  "wrapped in prose and fences",
			input: "Here is the article:\n```json\n{\"title\":\"T2\",\"content\":\"Body with {braces} and \\\"quotes\\\"\",\"excerpt\":\"E2\"}\n```\nLet me know!",
			want:  payload{Title: "T2", Content: `Body with {braces} and "quotes"`, Excerpt: "E2"},
		},
		{
			name:  "skips objects missing fields",
			input: `Notes: {"draft": true} Final: {"title":"T3","content":"C3","excerpt":"E3"}`,
			want:  payload{Title: "T3", Content: "C3", Excerpt: "E3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractPayload(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPayload_Invalid(t *testing.T) {
	for _, input := range []string{
		"",
		"no json here",
		`{"title":"T","content":"C"}`,
		`{"title":"T","content":"C","excerpt":""}`,
		`{"title": "unterminated`,
	} {
		_, err := extractPayload(input)
		require.Error(t, err, input)
		assert.Equal(t, genai.KindInvalidResponse, genai.KindOf(err))
	}
}
