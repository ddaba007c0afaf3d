package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type diskStorage struct {
	basePath string
}

// NewDiskStorage creates a local-filesystem ImageStorage rooted at basePath.
func NewDiskStorage(basePath string) ImageStorage {
	return &diskStorage{basePath: basePath}
}

func (s *diskStorage) SaveImage(_ context.Context, r io.Reader, namespace, fileName string) (string, error) {
	ext := filepath.Ext(fileName)
	name := uuid.New().String() + ext

	dir := filepath.Join(s.basePath, namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	fullPath := filepath.Join(dir, name)
	file, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		// Partial writes are cleaned up so a failed upload leaves nothing behind.
		os.Remove(fullPath)
		return "", err
	}

	if err := file.Close(); err != nil {
		os.Remove(fullPath)
		return "", err
	}

	return fullPath, nil
}

func (s *diskStorage) DeleteImage(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *diskStorage) DeleteNamespace(_ context.Context, namespace string) error {
	return os.RemoveAll(filepath.Join(s.basePath, namespace))
}
