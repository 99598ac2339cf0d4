// Package scratch manages the per-invocation directory that holds downloaded chunks
// between the range download and the range upload.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/sgl-project/gcs2drive/pkg/logging"
)

// Area is a directory owned by exactly one transfer.
type Area struct {
	fs     afero.Fs
	dir    string
	logger logging.Interface
}

// New creates <root>/<uuid> on fs. An empty root means os.TempDir().
func New(fs afero.Fs, root string, logger logging.Interface) (*Area, error) {
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, uuid.NewString())
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory %s: %w", dir, err)
	}

	return &Area{
		fs:     fs,
		dir:    dir,
		logger: logging.OrNop(logger).WithField("scratch_dir", dir),
	}, nil
}

// Dir returns the directory of the area
func (a *Area) Dir() string {
	return a.dir
}

// Path names the scratch file of chunk index of an object: <dir>/<base>_<index>
func (a *Area) Path(baseName string, index int) string {
	return filepath.Join(a.dir, fmt.Sprintf("%s_%d", baseName, index))
}

// Open opens a scratch file for reading
func (a *Area) Open(path string) (afero.File, error) {
	return a.fs.Open(path)
}

// Size returns the size of a scratch file in bytes
func (a *Area) Size(path string) (int64, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Remove deletes one scratch file. Failures are logged and returned, callers may ignore them.
func (a *Area) Remove(path string) error {
	if err := a.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		a.logger.WithError(err).WithField("path", path).Warn("Failed to remove scratch file")
		return err
	}
	return nil
}

// Sweep removes whatever is left in the area and then the area itself.
// All failures are collected into one error.
func (a *Area) Sweep() error {
	var result *multierror.Error

	entries, err := afero.ReadDir(a.fs, a.dir)
	if err != nil && !os.IsNotExist(err) {
		result = multierror.Append(result, fmt.Errorf("failed to list scratch directory: %w", err))
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(a.dir, name)
		a.logger.WithField("path", path).Debug("Removing leftover scratch file")
		if err := a.fs.RemoveAll(path); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to remove %s: %w", path, err))
		}
	}

	if err := a.fs.Remove(a.dir); err != nil && !os.IsNotExist(err) {
		result = multierror.Append(result, fmt.Errorf("failed to remove scratch directory: %w", err))
	}

	return result.ErrorOrNil()
}
