package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore persists values as one JSON file per key under
// <baseDir>/<bucket>/<key>.json. It is the zero-dependency backend for local
// runs and mirrors the layout the service expects from the database backend.
type FileStore struct {
	baseDir string
	mu      sync.Mutex
}

// NewFileStore creates the base directory if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (f *FileStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(bucket, key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func (f *FileStore) Put(_ context.Context, bucket, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.write(bucket, key, value)
}

func (f *FileStore) Delete(_ context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path(bucket, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (f *FileStore) Update(_ context.Context, bucket, key string, fn UpdateFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := os.ReadFile(f.path(bucket, key))
	found := true
	if os.IsNotExist(err) {
		current, found = nil, false
	} else if err != nil {
		return fmt.Errorf("failed to read %s/%s: %w", bucket, key, err)
	}

	next, err := fn(current, found)
	if err != nil {
		return err
	}
	return f.write(bucket, key, next)
}

func (f *FileStore) write(bucket, key string, value []byte) error {
	dir := filepath.Join(f.baseDir, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create bucket directory: %w", err)
	}

	path := f.path(bucket, key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", bucket, key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (f *FileStore) path(bucket, key string) string {
	return filepath.Join(f.baseDir, bucket, sanitizeKey(key)+".json")
}

// sanitizeKey makes an arbitrary key safe to use as a filename.
func sanitizeKey(key string) string {
	replacer := strings.NewReplacer(":", "_", "/", "_", "\\", "_", " ", "_")
	return replacer.Replace(key)
}
