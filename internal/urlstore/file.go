package urlstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore is a file-based store for testing. It keeps the URL in a plain
// file inside a directory and must never be used in production.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-based store rooted at dir. The directory is
// created if missing.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory path is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, "proxy-url")}, nil
}

func (s *FileStore) Set(url string) error {
	if url == "" {
		return errors.New("url cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.WriteFile(s.path, []byte(url), 0600)
}

func (s *FileStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
