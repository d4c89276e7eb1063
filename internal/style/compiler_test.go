package style

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipeerrors "github.com/conneroisu/assetpipe/internal/errors"
)

func TestSassCompilerArgs(t *testing.T) {
	sc := NewSassCompiler("sass", "/project", []string{"node_modules", "/opt/sass"})

	assert.Equal(t, []string{
		"--stdin",
		"--style=expanded",
		"--no-source-map",
		"--load-path=" + filepath.Join("/project", "scss"),
		"--load-path=" + filepath.Join("/project", "node_modules"),
		"--load-path=/opt/sass",
	}, sc.args("scss/grayscale.scss"))
}

func TestSassCompilerMissingBinary(t *testing.T) {
	sc := NewSassCompiler("assetpipe-missing-sass-binary", t.TempDir(), nil)

	_, err := sc.Compile(context.Background(), "scss/a.scss", []byte(".a{}"))
	require.Error(t, err)
	assert.True(t, pipeerrors.IsConfigError(err))
}

func requireSass(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sass"); err != nil {
		t.Skip("sass not installed")
	}
}

func TestSassCompilerCompiles(t *testing.T) {
	requireSass(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "scss"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "scss", "_vars.scss"), []byte("$primary: #64a19d;\n"), 0644))

	sc := NewSassCompiler("sass", root, nil)
	out, err := sc.Compile(context.Background(), "scss/grayscale.scss",
		[]byte("@import \"vars\";\n.a { .b { color: $primary; } }\n"))
	require.NoError(t, err)

	assert.Contains(t, string(out), ".a .b {")
	assert.Contains(t, string(out), "#64a19d")
}

func TestSassCompilerReportsSyntaxError(t *testing.T) {
	requireSass(t)
	sc := NewSassCompiler("sass", t.TempDir(), nil)

	_, err := sc.Compile(context.Background(), "scss/grayscale.scss", []byte(".a {\n  color: red\n"))
	require.Error(t, err)

	var pe *pipeerrors.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.True(t, pipeerrors.IsCompileError(err))
	assert.Equal(t, "scss/grayscale.scss", pe.FilePath)
	assert.Positive(t, pe.Line)
}
