package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	ctx := context.Background()

	content := []byte("%PDF-1.4 fake body")
	locator, err := s.Save(ctx, content, "thesis a.pdf")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(locator, "local://") {
		t.Fatalf("expected local:// locator, got %q", locator)
	}

	got, err := s.Read(ctx, locator)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("round trip mismatch: got %q", got)
	}
}

func TestLocalStoreUniqueLocators(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	ctx := context.Background()

	a, err := s.Save(ctx, []byte("one"), "same.pdf")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	b, err := s.Save(ctx, []byte("two"), "same.pdf")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if a == b {
		t.Fatalf("expected unique locators for identical names")
	}
}

func TestLocalStoreDeleteIsIdempotent(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	ctx := context.Background()

	locator, err := s.Save(ctx, []byte("bytes"), "doc.pdf")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	existed, err := s.Delete(ctx, locator)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !existed {
		t.Fatalf("expected first delete to report existence")
	}

	existed, err = s.Delete(ctx, locator)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if existed {
		t.Fatalf("expected second delete to report absence")
	}

	if _, err := s.Read(ctx, locator); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got: %v", err)
	}
}

func TestLocalStoreRejectsUnknownScheme(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	ctx := context.Background()

	for _, locator := range []string{"ftp://abc", "abc", "local://", "s3://key"} {
		if _, err := s.Read(ctx, locator); !errors.Is(err, ErrInvalidLocator) {
			t.Fatalf("locator %q: expected ErrInvalidLocator, got: %v", locator, err)
		}
	}
}

func TestSplitLocator(t *testing.T) {
	scheme, key, err := SplitLocator("local://abc_def.pdf")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if scheme != SchemeLocal || key != "abc_def.pdf" {
		t.Fatalf("unexpected parts: %q %q", scheme, key)
	}
	if _, _, err := SplitLocator("gopher://x"); !errors.Is(err, ErrInvalidLocator) {
		t.Fatalf("expected ErrInvalidLocator, got: %v", err)
	}
}
