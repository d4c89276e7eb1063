// Package vendorsync copies third-party asset bundles from the dependency
// store (node_modules) into the vendor tree.
//
// The vendor tree is owned by this package: Clean removes it entirely and
// Sync rebuilds it from the manifest, so running both twice yields identical
// trees.
package vendorsync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	pipeerrors "github.com/conneroisu/assetpipe/internal/errors"
	"github.com/conneroisu/assetpipe/internal/logging"
)

// Syncer performs the vendor clean and copy steps on a filesystem rooted at
// the project directory.
type Syncer struct {
	fs       afero.Fs
	vendor   string
	manifest []Entry
	logger   logging.Logger
}

// New creates a Syncer. vendor is the directory Clean removes.
func New(fsys afero.Fs, vendor string, manifest []Entry, logger logging.Logger) *Syncer {
	return &Syncer{
		fs:       fsys,
		vendor:   vendor,
		manifest: manifest,
		logger:   logger.WithComponent("vendor"),
	}
}

// Clean deletes the vendor tree. A missing tree is not an error.
func (s *Syncer) Clean(ctx context.Context) error {
	if err := s.fs.RemoveAll(s.vendor); err != nil {
		return pipeerrors.NewIOError(pipeerrors.ErrCodeWriteFailed, "remove "+s.vendor, err)
	}
	s.logger.Debug(ctx, "Removed vendor tree", "path", s.vendor)
	return nil
}

// Sync copies every manifest entry. All source directories are checked
// before anything is copied; entries then run concurrently and all of them
// are awaited before the first failure is returned.
func (s *Syncer) Sync(ctx context.Context) error {
	if err := s.validate(); err != nil {
		return err
	}

	var g errgroup.Group
	for _, entry := range s.manifest {
		entry := entry
		g.Go(func() error {
			n, err := s.copyEntry(entry)
			if err != nil {
				return fmt.Errorf("vendor %s: %w", entry.Name, err)
			}
			s.logger.Debug(ctx, "Copied vendor entry", "entry", entry.Name, "files", n, "dest", entry.Dest)
			return nil
		})
	}
	return g.Wait()
}

// validate fails fast when a dependency asset path cannot be resolved.
func (s *Syncer) validate() error {
	for _, entry := range s.manifest {
		if _, err := entry.selector(); err != nil {
			return pipeerrors.NewConfigError(pipeerrors.ErrCodeConfigInvalid,
				fmt.Sprintf("vendor %s: %v", entry.Name, err))
		}
		info, err := s.fs.Stat(entry.Source)
		if err != nil || !info.IsDir() {
			return pipeerrors.NewConfigError(pipeerrors.ErrCodeMissingAsset,
				fmt.Sprintf("vendor %s: dependency directory %s not found (run npm install)", entry.Name, entry.Source))
		}
	}
	return nil
}

func (s *Syncer) copyEntry(entry Entry) (int, error) {
	sel, err := entry.selector()
	if err != nil {
		return 0, err
	}

	files, err := sel.Select(s.fs, entry.Source)
	if err != nil {
		return 0, pipeerrors.NewIOError(pipeerrors.ErrCodeReadFailed, "list "+entry.Source, err)
	}

	for _, rel := range files {
		if err := copyFile(s.fs, path.Join(entry.Source, rel), path.Join(entry.Dest, rel)); err != nil {
			return 0, err
		}
	}
	return len(files), nil
}

func copyFile(fsys afero.Fs, src, dst string) error {
	in, err := fsys.Open(src)
	if err != nil {
		return pipeerrors.NewIOError(pipeerrors.ErrCodeReadFailed, "open "+src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return pipeerrors.NewIOError(pipeerrors.ErrCodeReadFailed, "stat "+src, err)
	}

	if err := fsys.MkdirAll(path.Dir(dst), 0755); err != nil {
		return pipeerrors.NewIOError(pipeerrors.ErrCodeWriteFailed, "mkdir "+path.Dir(dst), err)
	}

	out, err := fsys.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return pipeerrors.NewIOError(pipeerrors.ErrCodeWriteFailed, "create "+dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return pipeerrors.NewIOError(pipeerrors.ErrCodeWriteFailed, "copy "+src, err)
	}
	if err := out.Close(); err != nil {
		return pipeerrors.NewIOError(pipeerrors.ErrCodeWriteFailed, "close "+dst, err)
	}
	return nil
}
