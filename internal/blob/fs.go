package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FSStore keeps blobs as files in a single directory.
type FSStore struct {
	dir string
}

// NewFSStore creates the uploads directory if needed and returns a store on it.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

// Dir returns the uploads directory.
func (s *FSStore) Dir() string {
	return s.dir
}

// Put writes data to a new file. An existing file is never overwritten.
func (s *FSStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	ref := NewRef(name)
	f, err := os.OpenFile(filepath.Join(s.dir, ref), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("creating blob file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing blob file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing blob file: %w", err)
	}

	return ref, nil
}

// Open opens the file for ref.
func (s *FSStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ValidateRef(ref); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("opening blob file: %w", err)
	}
	return f, nil
}

// Delete removes the file for ref.
func (s *FSStore) Delete(ctx context.Context, ref string) error {
	if err := ValidateRef(ref); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, ref)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return fmt.Errorf("removing blob file: %w", err)
	}
	return nil
}

// Close is a no-op for the filesystem store.
func (s *FSStore) Close() error {
	return nil
}
