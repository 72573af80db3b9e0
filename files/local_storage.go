package files

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalStorage is a Storage backed by a directory on the local filesystem.
// Load returns the path directly; Free is a no-op since nothing was
// downloaded.
type LocalStorage struct {
	root string
}

// NewLocalStorage builds a LocalStorage rooted at dir. dir must already
// exist.
func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{root: dir}
}

func (s *LocalStorage) keyPath(key string) string {
	return filepath.Join(s.root, keyPrefix(key), key)
}

func (s *LocalStorage) Load(_ context.Context, key string) (string, error) {
	path := s.keyPath(key)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("files: local storage: %w", err)
	}
	return path, nil
}

func (s *LocalStorage) Free(_ context.Context, _ string, _ string) {}

func (s *LocalStorage) GenerateKey(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *LocalStorage) Upload(_ context.Context, key string, r io.Reader) (UploadResult, error) {
	path := s.keyPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return UploadResult{}, fmt.Errorf("files: local storage: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return UploadResult{}, fmt.Errorf("files: local storage: %w", err)
	}
	defer f.Close()
	size, err := io.Copy(f, r)
	if err != nil {
		return UploadResult{}, fmt.Errorf("files: local storage: %w", err)
	}
	return UploadResult{Size: size}, nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	err := os.Remove(s.keyPath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("files: local storage: %w", err)
	}
	return nil
}
