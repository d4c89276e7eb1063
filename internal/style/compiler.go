package style

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	pipeerrors "github.com/conneroisu/assetpipe/internal/errors"
)

// Compiler turns one SCSS entry point into expanded CSS.
type Compiler interface {
	Compile(ctx context.Context, file string, src []byte) ([]byte, error)
}

// SassCompiler runs the Dart Sass command line compiler.
type SassCompiler struct {
	command   string
	root      string
	loadPaths []string
	parser    *pipeerrors.ErrorParser
}

// NewSassCompiler creates a compiler that runs command (normally "sass")
// with the project-relative load paths resolved against root.
func NewSassCompiler(command, root string, loadPaths []string) *SassCompiler {
	return &SassCompiler{
		command:   command,
		root:      root,
		loadPaths: loadPaths,
		parser:    pipeerrors.NewErrorParser(),
	}
}

// args builds the command line for file. The source is piped on stdin so
// the file's own directory is added as a load path for relative imports.
func (sc *SassCompiler) args(file string) []string {
	args := []string{
		"--stdin",
		"--style=expanded",
		"--no-source-map",
		"--load-path=" + filepath.Join(sc.root, filepath.Dir(file)),
	}
	for _, p := range sc.loadPaths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(sc.root, p)
		}
		args = append(args, "--load-path="+p)
	}
	return args
}

// Compile compiles src, which was read from the project-relative path file.
func (sc *SassCompiler) Compile(ctx context.Context, file string, src []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, sc.command, sc.args(file)...)
	cmd.Dir = sc.root
	cmd.Stdin = bytes.NewReader(src)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("sass %s: %w", file, ctx.Err())
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, pipeerrors.NewConfigError(pipeerrors.ErrCodeConfigInvalid,
				fmt.Sprintf("sass compiler %q not found on PATH (npm install -g sass)", sc.command))
		}
		return nil, sc.parser.Parse(stderr.String(), file).ToPipelineError(err)
	}

	return stdout.Bytes(), nil
}
