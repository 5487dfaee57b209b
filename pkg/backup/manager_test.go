package backup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"memobank/pkg/store"
)

func openTestCatalog(t *testing.T) *store.Catalog {
	t.Helper()
	c, err := store.Open(filepath.Join(t.TempDir(), "catalog.sqlite"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	return c
}

func TestCreateAndListSnapshots(t *testing.T) {
	catalog := openTestCatalog(t)
	dir := t.TempDir()
	m, err := NewManager(catalog, dir, 5)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	snap, err := m.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(snap.Name, "backup_") || !strings.HasSuffix(snap.Name, ".sqlite") {
		t.Fatalf("unexpected snapshot name %q", snap.Name)
	}
	if snap.Size == 0 {
		t.Fatalf("snapshot is empty")
	}

	snaps, err := m.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(snaps) != 1 || snaps[0].Name != snap.Name {
		t.Fatalf("unexpected list: %+v", snaps)
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	catalog := openTestCatalog(t)
	dir := t.TempDir()
	m, err := NewManager(catalog, dir, 2)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	// Snapshot names carry second precision, so fabricate aged files instead
	// of sleeping between Create calls.
	for i, name := range []string{
		"backup_20240101_000001.sqlite",
		"backup_20240101_000002.sqlite",
		"backup_20240101_000003.sqlite",
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		mt := time.Now().Add(time.Duration(i-10) * time.Hour)
		if err := os.Chtimes(path, mt, mt); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if _, err := m.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}
	snaps, err := m.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("retention 2 should keep 2 snapshots, got %d", len(snaps))
	}
	if snaps[1].Name != "backup_20240101_000003.sqlite" {
		t.Fatalf("wrong survivor: %+v", snaps)
	}
}

func TestRestoreLeavesSafetyCopy(t *testing.T) {
	catalog := openTestCatalog(t)
	dir := t.TempDir()
	m, err := NewManager(catalog, dir, 5)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	snap, err := m.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := m.Restore(snap.Name); err != nil {
		t.Fatalf("restore: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(catalog.Path()))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var safety bool
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".safety") {
			safety = true
		}
	}
	if !safety {
		t.Fatalf("restore must leave a safety copy of the replaced file")
	}
}

func TestRestoreRejectsBadNames(t *testing.T) {
	catalog := openTestCatalog(t)
	m, err := NewManager(catalog, t.TempDir(), 5)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	for _, name := range []string{"", "notes.txt", "../backup_20240101_000001.sqlite", "backup_missing.sqlite"} {
		if err := m.Restore(name); err == nil {
			t.Fatalf("Restore(%q) should fail", name)
		}
	}
}

func TestCreateFailsWhileCatalogBusy(t *testing.T) {
	catalog := openTestCatalog(t)
	m, err := NewManager(catalog, t.TempDir(), 5)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		catalog.WithFileLock(time.Minute, func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	// The lock poll interval is 250ms, so a sub-second timeout stays quick.
	if _, err := m.createWithTimeout(600 * time.Millisecond); !errors.Is(err, store.ErrStorageBusy) {
		t.Fatalf("expected ErrStorageBusy, got %v", err)
	}
}
