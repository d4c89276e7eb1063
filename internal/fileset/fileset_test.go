package fileset

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorMatch(t *testing.T) {
	tests := []struct {
		name     string
		include  string
		exclude  []string
		path     string
		expected bool
	}{
		{"double star matches nested", "**/*", nil, "css/bootstrap.css", true},
		{"double star matches top level", "**/*", nil, "bootstrap.css", true},
		{"double star html at root", "**/*.html", nil, "index.html", true},
		{"double star html nested", "**/*.html", nil, "pages/about/index.html", true},
		{"double star html wrong ext", "**/*.html", nil, "index.htm", false},
		{"single star stays in segment", "*.js", nil, "sub/a.js", false},
		{"single star top level", "*.js", nil, "a.js", true},
		{"exclude min", "*.js", []string{"*.min.js"}, "a.min.js", false},
		{"exclude by name", "*.js", []string{"contact_me.js"}, "contact_me.js", false},
		{"exclude nested basename", "**/*", []string{"core.js"}, "dist/core.js", false},
		{"bare double star", "**", nil, "fonts/a/b.woff", true},
		{"dot slash prefix", "./*.js", nil, "a.js", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.include, tt.exclude...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s.Match(tt.path))
		})
	}
}

func TestNewInvalidPattern(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)

	_, err = New("[unclosed")
	assert.Error(t, err)

	_, err = New("*.js", "[unclosed")
	assert.Error(t, err)

	assert.Panics(t, func() { MustNew("") })
}

func TestSelect(t *testing.T) {
	fsys := afero.NewMemMapFs()
	files := []string{
		"js/a.js",
		"js/a.min.js",
		"js/contact_me.js",
		"js/b.js",
		"js/sub/c.js",
	}
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fsys, f, []byte("x"), 0644))
	}

	s := MustNew("*.js", "*.min.js", "contact_me.js")
	selected, err := s.Select(fsys, "js")
	require.NoError(t, err)

	assert.Equal(t, []string{"a.js", "b.js"}, selected)
	assert.Equal(t, "*.js", s.String())
}

func TestSelectRecursive(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "dist/css/a.css", []byte("x"), 0644))
	require.NoError(t, afero.WriteFile(fsys, "dist/js/b.js", []byte("x"), 0644))
	require.NoError(t, afero.WriteFile(fsys, "dist/c.txt", []byte("x"), 0644))

	selected, err := MustNew("**/*").Select(fsys, "dist")
	require.NoError(t, err)

	assert.Equal(t, []string{"c.txt", "css/a.css", "js/b.js"}, selected)
}

func TestSelectMissingBase(t *testing.T) {
	_, err := MustNew("**/*").Select(afero.NewMemMapFs(), "missing")
	assert.Error(t, err)

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "file", []byte("x"), 0644))
	_, err = MustNew("**/*").Select(fsys, "file")
	assert.Error(t, err)
}
