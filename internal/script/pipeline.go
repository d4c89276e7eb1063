// Package script minifies the site's hand-written scripts into *.min.js
// siblings carrying the license banner.
package script

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

// Pipeline minifies every selected script in one directory.
type Pipeline struct {
	fs         afero.Fs
	minifier   *minify.Minifier
	notifier   Notifier
	logger     logging.Logger
	dir        string
	descriptor string
	selector   *fileset.Selector
	now        func() time.Time
}

// NewPipeline creates a script pipeline over dir. Only files directly inside
// dir are selected; exclude holds glob patterns for scripts that must not
// be minified, such as existing *.min.js outputs.
func NewPipeline(fsys afero.Fs, minifier *minify.Minifier, notifier Notifier, logger logging.Logger, dir, descriptor string, exclude []string) (*Pipeline, error) {
	selector, err := fileset.New("*.js", exclude...)
	if err != nil {
		return nil, pipeerrors.NewConfigError(pipeerrors.ErrCodeConfigInvalid, "scripts.exclude: "+err.Error())
	}

	return &Pipeline{
		fs:         fsys,
		minifier:   minifier,
		notifier:   notifier,
		logger:     logger.WithComponent("js"),
		dir:        dir,
		descriptor: descriptor,
		selector:   selector,
		now:        time.Now,
	}, nil
}

// Run minifies the selected scripts. Every script is minified before any
// output is written.
func (p *Pipeline) Run(ctx context.Context) error {
	files, err := p.selector.Select(p.fs, p.dir)
	if err != nil {
		return pipeerrors.NewReadError("list "+p.dir, err).WithTask("js")
	}
	if len(files) == 0 {
		p.logger.Warn(ctx, nil, "No scripts found", "dir", p.dir)
		return nil
	}

	header, err := banner.LoadAndRender(p.fs, p.descriptor, p.now())
	if err != nil {
		return pipeerrors.NewIOError(pipeerrors.ErrCodeDescriptorFailed, "banner", err).WithTask("js")
	}

	outputs := make(map[string][]byte, len(files))
	written := make([]string, 0, len(files))
	for _, rel := range files {
		src := path.Join(p.dir, rel)
		data, err := afero.ReadFile(p.fs, src)
		if err != nil {
			return pipeerrors.NewReadError("read "+src, err).WithTask("js")
		}

		minified, err := p.minifier.MinifyJS(data, src)
		if err != nil {
			var pe *pipeerrors.PipelineError
			if errors.As(err, &pe) {
				return pe.WithTask("js")
			}
			return err
		}

		dest := path.Join(p.dir, strings.TrimSuffix(rel, ".js")+".min.js")
		outputs[dest] = append([]byte(header), minified...)
		written = append(written, dest)
	}

	for _, dest := range written {
		if err := afero.WriteFile(p.fs, dest, outputs[dest], 0644); err != nil {
			return pipeerrors.NewIOError(pipeerrors.ErrCodeWriteFailed, "write "+dest, err).WithTask("js")
		}
	}

	p.logger.Info(ctx, "Minified scripts", "files", len(written))
	p.notifier.Stream(ctx, written...)
	return nil
}
