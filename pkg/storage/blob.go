package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Locator schemes understood by this package. The scheme prefix identifies
// the backing store so locators stay valid across deployments.
const (
	SchemeLocal = "local"
	SchemeS3    = "s3"
)

var (
	// ErrNotFound means the locator is well-formed but the object is absent.
	ErrNotFound = errors.New("blob not found")
	// ErrInvalidLocator means the locator has no recognized scheme prefix.
	ErrInvalidLocator = errors.New("invalid blob locator")
	// ErrWrite means the backing store failed to persist the content.
	ErrWrite = errors.New("blob write failed")
)

// BlobStore persists uploaded file content under generated unique keys.
// There is no update-in-place: a new version of a file gets a new locator and
// the caller owning the update deletes the orphaned one.
type BlobStore interface {
	// Save writes content and returns a scheme-prefixed locator. A locator is
	// only returned on success; callers must not persist references to a
	// failed save.
	Save(ctx context.Context, content []byte, suggestedName string) (string, error)
	// Read returns the exact bytes previously saved, or ErrNotFound.
	Read(ctx context.Context, locator string) ([]byte, error)
	// Delete is idempotent and reports whether the object existed.
	Delete(ctx context.Context, locator string) (bool, error)
	// DownloadURL returns a caller-consumable URL for the object. Remote
	// backends presign; the local backend returns a file path URL.
	DownloadURL(ctx context.Context, locator string, expiry time.Duration) (string, error)
}

// SplitLocator validates the scheme prefix and returns (scheme, key).
func SplitLocator(locator string) (string, string, error) {
	scheme, key, ok := strings.Cut(locator, "://")
	if !ok || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	switch scheme {
	case SchemeLocal, SchemeS3:
		return scheme, key, nil
	default:
		return "", "", fmt.Errorf("%w: unknown scheme %q", ErrInvalidLocator, scheme)
	}
}

// keyFor prefixes the sanitized suggested name with a random id so keys are
// globally unique even when callers upload the same file twice.
func keyFor(id, suggestedName string) string {
	name := filepath.Base(strings.TrimSpace(suggestedName))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "file"
	}
	return id + "_" + name
}
