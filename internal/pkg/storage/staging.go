package storage

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Staging keeps uploaded bytes on local disk between the HTTP request and the
// object store put. Every staged file gets a unique path, so concurrent
// uploads of the same name never share a file.
type Staging struct {
	fs  afero.Fs
	dir string
}

type StagedFile struct {
	Path string
	Size int64
}

func NewStaging(fs afero.Fs, dir string) (*Staging, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging dir %s: %w", dir, err)
	}
	return &Staging{fs: fs, dir: dir}, nil
}

// Stage copies r into a new file under the staging dir. The returned size is
// read back from the file system once the copy is closed.
func (s *Staging) Stage(name string, r io.Reader) (*StagedFile, error) {
	f, err := afero.TempFile(s.fs, s.dir, "upload-*-"+name)
	if err != nil {
		return nil, fmt.Errorf("failed to create staged file: %w", err)
	}
	path := f.Name()

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		s.fs.Remove(path)
		return nil, fmt.Errorf("failed to write staged file: %w", err)
	}

	if err := f.Close(); err != nil {
		s.fs.Remove(path)
		return nil, fmt.Errorf("failed to close staged file: %w", err)
	}

	info, err := s.fs.Stat(path)
	if err != nil {
		s.fs.Remove(path)
		return nil, fmt.Errorf("failed to stat staged file: %w", err)
	}

	return &StagedFile{Path: path, Size: info.Size()}, nil
}

func (s *Staging) Open(path string) (io.ReadCloser, error) {
	return s.fs.Open(path)
}

func (s *Staging) Remove(path string) error {
	return s.fs.Remove(path)
}
