package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjectScript(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "full document",
			input: "<html><head></head><body><main>x</main></body></html>",
			want:  `<main>x</main><script src="/c.js"></script></body>`,
		},
		{
			name:  "fragment",
			input: "<p>hello</p>",
			want:  `<p>hello</p><script src="/c.js"></script></body>`,
		},
		{
			name:  "empty",
			input: "",
			want:  `<body><script src="/c.js"></script></body>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := injectScript(strings.NewReader(tt.input), "/c.js")
			require.NoError(t, err)
			assert.Contains(t, string(out), tt.want)
			assert.Equal(t, 1, strings.Count(string(out), "<script"))
		})
	}
}
