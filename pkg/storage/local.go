package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStore keeps blobs as files under a base directory. Locators use the
// local:// scheme.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates the base directory if missing.
func NewLocalStore(basePath string) (*LocalStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// Save writes content atomically (temp file + rename) and returns a
// local:// locator.
func (s *LocalStore) Save(_ context.Context, content []byte, suggestedName string) (string, error) {
	key := keyFor(uuid.NewString(), suggestedName)
	target := filepath.Join(s.basePath, key)

	tmp, err := os.CreateTemp(s.basePath, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", ErrWrite, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: write content: %v", ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: close temp file: %v", ErrWrite, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: rename into place: %v", ErrWrite, err)
	}
	return SchemeLocal + "://" + key, nil
}

// Read returns the stored bytes, or ErrNotFound when the key is absent.
func (s *LocalStore) Read(_ context.Context, locator string) ([]byte, error) {
	path, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
		}
		return nil, fmt.Errorf("read blob %s: %w", locator, err)
	}
	return data, nil
}

// Delete removes the file. Absent keys are not an error.
func (s *LocalStore) Delete(_ context.Context, locator string) (bool, error) {
	path, err := s.resolve(locator)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete blob %s: %w", locator, err)
	}
	return true, nil
}

// DownloadURL returns a file:// URL pointing at the stored blob.
func (s *LocalStore) DownloadURL(_ context.Context, locator string, _ time.Duration) (string, error) {
	path, err := s.resolve(locator)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, locator)
		}
		return "", fmt.Errorf("stat blob %s: %w", locator, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve blob path: %w", err)
	}
	return "file://" + abs, nil
}

func (s *LocalStore) resolve(locator string) (string, error) {
	scheme, key, err := SplitLocator(locator)
	if err != nil {
		return "", err
	}
	if scheme != SchemeLocal {
		return "", fmt.Errorf("%w: scheme %q not served by local store", ErrInvalidLocator, scheme)
	}
	// Keys never contain separators; reject anything that would escape basePath.
	if key != filepath.Base(key) {
		return "", fmt.Errorf("%w: key %q", ErrInvalidLocator, key)
	}
	return filepath.Join(s.basePath, key), nil
}
