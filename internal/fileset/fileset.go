// Package fileset selects files by glob pattern the way asset build tools do:
// patterns are slash-separated and relative to a base directory, "*" stays
// within one path segment and "**" spans any number of segments, including
// none.
package fileset

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"
)

// Selector matches base-relative paths against one include pattern and any
// number of exclude patterns.
type Selector struct {
	pattern string
	include []glob.Glob
	exclude []glob.Glob
}

// New compiles a selector. Exclude patterns use the same syntax as include.
func New(include string, exclude ...string) (*Selector, error) {
	inc, err := compile(include)
	if err != nil {
		return nil, err
	}

	s := &Selector{pattern: include, include: inc}
	for _, pattern := range exclude {
		exc, err := compile(pattern)
		if err != nil {
			return nil, err
		}
		s.exclude = append(s.exclude, exc...)
	}

	return s, nil
}

// MustNew is New for fixed patterns known at compile time.
func MustNew(include string, exclude ...string) *Selector {
	s, err := New(include, exclude...)
	if err != nil {
		panic(err)
	}
	return s
}

// compile returns the globs equivalent to pattern. A leading "**/" also
// matches at the base itself, so "**/*.html" selects "index.html".
func compile(pattern string) ([]glob.Glob, error) {
	pattern = filepath.ToSlash(strings.TrimPrefix(pattern, "./"))
	if pattern == "" {
		return nil, fmt.Errorf("empty glob pattern")
	}

	variants := []string{pattern}
	for p := pattern; strings.HasPrefix(p, "**/"); {
		p = strings.TrimPrefix(p, "**/")
		variants = append(variants, p)
	}

	globs := make([]glob.Glob, 0, len(variants))
	for _, v := range variants {
		g, err := glob.Compile(v, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}

	return globs, nil
}

// String returns the include pattern.
func (s *Selector) String() string {
	return s.pattern
}

// Match reports whether the base-relative path rel is selected.
func (s *Selector) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	if !matchAny(s.include, rel) {
		return false
	}

	return !matchAny(s.exclude, rel) && !matchAny(s.exclude, path.Base(rel))
}

func matchAny(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Select walks base on fsys and returns the selected regular files as
// slash-separated paths relative to base, sorted.
func (s *Selector) Select(fsys afero.Fs, base string) ([]string, error) {
	info, err := fsys.Stat(base)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", base)
	}

	var files []string
	err = afero.Walk(fsys, base, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		if s.Match(rel) {
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
