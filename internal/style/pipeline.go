// Package style implements the stylesheet pipeline: SCSS entry points are
// compiled, vendor-prefixed, stamped with the license banner and written as
// expanded and minified CSS.
package style

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/conneroisu/assetpipe/internal/banner"
	pipeerrors "github.com/conneroisu/assetpipe/internal/errors"
	"github.com/conneroisu/assetpipe/internal/fileset"
	"github.com/conneroisu/assetpipe/internal/logging"
	"github.com/conneroisu/assetpipe/internal/minify"
)

// Notifier pushes changed asset paths to live-reload clients.
type Notifier interface {
	Stream(ctx context.Context, paths ...string)
}

// Options holds the project-relative paths the pipeline reads and writes.
type Options struct {
	Source     string
	Output     string
	Descriptor string
}

// Pipeline compiles the stylesheet tree.
type Pipeline struct {
	fs       afero.Fs
	compiler Compiler
	minifier *minify.Minifier
	notifier Notifier
	logger   logging.Logger
	opts     Options
	selector *fileset.Selector
	now      func() time.Time
}

// entryPoints selects every stylesheet except partials, which Sass only
// compiles through an import.
var entryPoints = fileset.MustNew("**/*.scss", "_*.scss")

// NewPipeline creates a style pipeline.
func NewPipeline(fsys afero.Fs, compiler Compiler, minifier *minify.Minifier, notifier Notifier, logger logging.Logger, opts Options) *Pipeline {
	return &Pipeline{
		fs:       fsys,
		compiler: compiler,
		minifier: minifier,
		notifier: notifier,
		logger:   logger.WithComponent("css"),
		opts:     opts,
		selector: entryPoints,
		now:      time.Now,
	}
}

type compiled struct {
	rel string
	css []byte
}

// Run compiles every entry point. Any compile error fails the run before a
// single output is written, so the previous build stays in place. A run
// that has started is not cancelled by ctx.
func (p *Pipeline) Run(ctx context.Context) error {
	files, err := p.selector.Select(p.fs, p.opts.Source)
	if err != nil {
		return pipeerrors.NewReadError("list "+p.opts.Source, err).WithTask("css")
	}
	if len(files) == 0 {
		p.logger.Warn(ctx, nil, "No stylesheets found", "dir", p.opts.Source)
		return nil
	}

	header, err := banner.LoadAndRender(p.fs, p.opts.Descriptor, p.now())
	if err != nil {
		return pipeerrors.NewIOError(pipeerrors.ErrCodeDescriptorFailed, "banner", err).WithTask("css")
	}

	ctx = context.WithoutCancel(ctx)
	results := make([]compiled, 0, len(files))
	for _, rel := range files {
		css, err := p.compile(ctx, rel)
		if err != nil {
			return err
		}
		results = append(results, compiled{rel: rel, css: css})
	}

	var written []string
	for _, r := range results {
		paths, err := p.emit(r, header)
		if err != nil {
			return err
		}
		written = append(written, paths...)
	}

	p.logger.Info(ctx, "Compiled stylesheets", "files", len(results))
	p.notifier.Stream(ctx, written...)
	return nil
}

func (p *Pipeline) compile(ctx context.Context, rel string) ([]byte, error) {
	file := path.Join(p.opts.Source, rel)

	src, err := afero.ReadFile(p.fs, file)
	if err != nil {
		return nil, pipeerrors.NewReadError("read "+file, err).WithTask("css")
	}

	css, err := p.compiler.Compile(ctx, file, src)
	if err != nil {
		return nil, withTask(err)
	}
	return css, nil
}

// emit writes the expanded and minified outputs for one compiled file and
// returns their project-relative paths.
func (p *Pipeline) emit(r compiled, header string) ([]string, error) {
	base := path.Join(p.opts.Output, strings.TrimSuffix(r.rel, ".scss"))
	expandedPath := base + ".css"
	minifiedPath := base + ".min.css"

	prefixed, err := p.minifier.PrefixCSS(r.css, expandedPath)
	if err != nil {
		return nil, withTask(err)
	}

	minified, err := p.minifier.MinifyCSS(prefixed, minifiedPath)
	if err != nil {
		return nil, withTask(err)
	}

	if err := writeFile(p.fs, expandedPath, header, prefixed); err != nil {
		return nil, err
	}
	if err := writeFile(p.fs, minifiedPath, header, minified); err != nil {
		return nil, err
	}

	return []string{expandedPath, minifiedPath}, nil
}

func writeFile(fsys afero.Fs, name, header string, body []byte) error {
	if err := fsys.MkdirAll(path.Dir(name), 0755); err != nil {
		return pipeerrors.NewIOError(pipeerrors.ErrCodeWriteFailed, "mkdir "+path.Dir(name), err).WithTask("css")
	}

	data := make([]byte, 0, len(header)+len(body))
	data = append(data, header...)
	data = append(data, body...)

	if err := afero.WriteFile(fsys, name, data, 0644); err != nil {
		return pipeerrors.NewIOError(pipeerrors.ErrCodeWriteFailed, "write "+name, err).WithTask("css")
	}
	return nil
}

func withTask(err error) error {
	var pe *pipeerrors.PipelineError
	if errors.As(err, &pe) {
		return pe.WithTask("css")
	}
	return err
}
