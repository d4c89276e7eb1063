// Package minify wraps esbuild's transform API for the three text-to-text
// steps of the asset pipelines: vendor-prefixing CSS for a set of browser
// targets, minifying CSS, and minifying JavaScript.
package minify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	pipeerrors "github.com/conneroisu/assetpipe/internal/errors"
)

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ie":      api.EngineIE,
	"ios":     api.EngineIOS,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

var targetPattern = regexp.MustCompile(`^([a-z]+)(\d+(?:\.\d+){0,2})$`)

// ParseTargets converts targets such as "chrome120" or "safari16.4" into
// esbuild engines.
func ParseTargets(targets []string) ([]api.Engine, error) {
	engines := make([]api.Engine, 0, len(targets))
	for _, target := range targets {
		m := targetPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(target)))
		if m == nil {
			return nil, fmt.Errorf("invalid browser target %q", target)
		}
		name, ok := engineNames[m[1]]
		if !ok {
			return nil, fmt.Errorf("unknown browser %q in target %q", m[1], target)
		}
		engines = append(engines, api.Engine{Name: name, Version: m[2]})
	}
	return engines, nil
}

// Minifier holds the browser targets used for CSS prefixing.
type Minifier struct {
	engines []api.Engine
}

// New creates a Minifier for the given browser targets.
func New(targets []string) (*Minifier, error) {
	engines, err := ParseTargets(targets)
	if err != nil {
		return nil, pipeerrors.NewConfigError(pipeerrors.ErrCodeConfigInvalid, err.Error())
	}
	return &Minifier{engines: engines}, nil
}

// PrefixCSS adds the vendor prefixes the targets need. Formatting stays
// expanded.
func (m *Minifier) PrefixCSS(src []byte, file string) ([]byte, error) {
	return transform(src, file, api.TransformOptions{
		Loader:        api.LoaderCSS,
		Engines:       m.engines,
		LegalComments: api.LegalCommentsInline,
	})
}

// MinifyCSS minifies CSS for the targets. "/*!" comments are kept.
func (m *Minifier) MinifyCSS(src []byte, file string) ([]byte, error) {
	return transform(src, file, api.TransformOptions{
		Loader:            api.LoaderCSS,
		Engines:           m.engines,
		MinifyWhitespace:  true,
		MinifySyntax:      true,
		MinifyIdentifiers: true,
		LegalComments:     api.LegalCommentsInline,
	})
}

// MinifyJS minifies and mangles a script. Top-level names are left alone so
// globals referenced from HTML keep working.
func (m *Minifier) MinifyJS(src []byte, file string) ([]byte, error) {
	return transform(src, file, api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifySyntax:      true,
		MinifyIdentifiers: true,
		LegalComments:     api.LegalCommentsInline,
	})
}

func transform(src []byte, file string, opts api.TransformOptions) ([]byte, error) {
	opts.Sourcefile = file

	result := api.Transform(string(src), opts)
	if len(result.Errors) > 0 {
		return nil, messageError(file, result.Errors[0], len(result.Errors))
	}

	return result.Code, nil
}

func messageError(file string, msg api.Message, count int) *pipeerrors.PipelineError {
	text := msg.Text
	if count > 1 {
		text = fmt.Sprintf("%s (and %d more errors)", text, count-1)
	}

	err := pipeerrors.NewCompileError(pipeerrors.ErrCodeMinifyFailed, text, nil)
	if msg.Location != nil {
		// esbuild columns are 0-based.
		return err.WithLocation(file, msg.Location.Line, msg.Location.Column+1)
	}
	return err.WithLocation(file, 0, 0)
}
