package backup

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"memobank/pkg/store"
)

const (
	snapshotPrefix = "backup_"
	snapshotExt    = ".sqlite"
	lockTimeout    = 10 * time.Second
)

// Snapshot is one local backup of the catalog file.
type Snapshot struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Manager creates, lists, prunes and restores local catalog snapshots. All
// file copies run under the catalog's exclusion region so a snapshot is
// always a consistent point-in-time image.
type Manager struct {
	catalog   *store.Catalog
	dir       string
	retention int
}

func NewManager(catalog *store.Catalog, dir string, retention int) (*Manager, error) {
	if retention < 1 {
		retention = 1
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &Manager{catalog: catalog, dir: dir, retention: retention}, nil
}

// Create copies the live catalog into a timestamped snapshot and prunes the
// oldest snapshots beyond the retention count.
func (m *Manager) Create() (Snapshot, error) {
	return m.createWithTimeout(lockTimeout)
}

func (m *Manager) createWithTimeout(timeout time.Duration) (Snapshot, error) {
	name := snapshotPrefix + time.Now().Format("20060102_150405") + snapshotExt
	dst := filepath.Join(m.dir, name)

	err := m.catalog.WithFileLock(timeout, func() error {
		return copyFile(m.catalog.Path(), dst)
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("create snapshot: %w", err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		return Snapshot{}, fmt.Errorf("stat snapshot: %w", err)
	}
	slog.Info("snapshot created", "name", name, "size", info.Size())

	if err := m.prune(); err != nil {
		slog.Warn("snapshot pruning failed", "error", err)
	}
	return Snapshot{Name: name, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// List returns all snapshots, newest first.
func (m *Manager) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	var snaps []Snapshot
	for _, e := range entries {
		if e.IsDir() || !isSnapshotName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		snaps = append(snaps, Snapshot{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ModTime.After(snaps[j].ModTime) })
	return snaps, nil
}

// Restore replaces the live catalog file with the named snapshot. The current
// file is first copied aside as a safety net. The process must reopen the
// catalog afterwards; callers are expected to restart.
func (m *Manager) Restore(name string) error {
	if !isSnapshotName(name) || name != filepath.Base(name) {
		return fmt.Errorf("restore: invalid snapshot name %q", name)
	}
	src := filepath.Join(m.dir, name)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	return m.catalog.WithFileLock(lockTimeout, func() error {
		live := m.catalog.Path()
		safety := live + "." + time.Now().Format("20060102_150405") + ".safety"
		if err := copyFile(live, safety); err != nil {
			return fmt.Errorf("safety copy: %w", err)
		}
		if err := copyFile(src, live); err != nil {
			return fmt.Errorf("restore copy: %w", err)
		}
		slog.Info("snapshot restored", "name", name, "safety_copy", safety)
		return nil
	})
}

// prune deletes the oldest snapshots past the retention limit.
func (m *Manager) prune() error {
	snaps, err := m.List()
	if err != nil {
		return err
	}
	for _, s := range snaps[min(len(snaps), m.retention):] {
		if err := os.Remove(filepath.Join(m.dir, s.Name)); err != nil {
			return err
		}
		slog.Info("snapshot pruned", "name", s.Name)
	}
	return nil
}

func isSnapshotName(name string) bool {
	return strings.HasPrefix(name, snapshotPrefix) && strings.HasSuffix(name, snapshotExt)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}
