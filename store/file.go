package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore holds the feed document in a local file. Used for development
// and tests; writes go through a temp file and rename so a failed write
// never leaves a partial document behind.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("reading feed file %s: %w", s.path, err)
	}
	return data, nil
}

func (s *FileStore) Put(ctx context.Context, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".feed-*")
	if err != nil {
		return fmt.Errorf("writing feed file %s: %w", s.path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing feed file %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing feed file %s: %w", s.path, err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing feed file %s: %w", s.path, err)
	}
	return nil
}
