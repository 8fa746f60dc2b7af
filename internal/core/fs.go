package core

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileSystem abstracts the filesystem calls operations are allowed to make.
// Adapters never touch the os package directly, so tests can run against a
// temp-rooted tree instead of the live system.
type FileSystem interface {
	Open(path string) (io.ReadCloser, error)
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, mode fs.FileMode) error
	Remove(path string) error
	MkdirAll(path string, mode fs.FileMode) error
	Glob(pattern string) ([]string, error)
}

// RealFS is the local filesystem. A non-empty Root re-roots every path
// under it, which is how the test suite and image-build use cases avoid
// writing to the live /etc.
type RealFS struct {
	Root string
}

func (r *RealFS) resolve(path string) string {
	if r.Root == "" {
		return path
	}
	return filepath.Join(r.Root, path)
}

func (r *RealFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(r.resolve(path))
}

func (r *RealFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(r.resolve(path))
}

func (r *RealFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(r.resolve(path))
}

func (r *RealFS) WriteFile(path string, data []byte, mode fs.FileMode) error {
	return os.WriteFile(r.resolve(path), data, mode)
}

func (r *RealFS) Remove(path string) error {
	return os.Remove(r.resolve(path))
}

func (r *RealFS) MkdirAll(path string, mode fs.FileMode) error {
	return os.MkdirAll(r.resolve(path), mode)
}

// Glob returns matches with the Root prefix stripped, so results can be fed
// back into the other FileSystem methods.
func (r *RealFS) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(r.resolve(pattern))
	if err != nil {
		return nil, err
	}
	if r.Root == "" {
		return matches, nil
	}
	root := filepath.Clean(r.Root)
	stripped := make([]string, 0, len(matches))
	for _, m := range matches {
		stripped = append(stripped, strings.TrimPrefix(m, root))
	}
	return stripped, nil
}

// CopyFile duplicates src to dst with the given mode.
func CopyFile(fsys FileSystem, src, dst string, mode fs.FileMode) error {
	data, err := fsys.ReadFile(src)
	if err != nil {
		return err
	}
	return fsys.WriteFile(dst, data, mode)
}
