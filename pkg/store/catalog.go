package store

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const lockPollDelay = 250 * time.Millisecond

// Catalog is the relational store backed by a single sqlite file. Every
// access goes through one process-wide mutex: the file doubles as the unit
// of backup and remote replication, so readers must never observe it
// mid-copy (and copies must never observe it mid-write).
type Catalog struct {
	db   *gorm.DB
	path string

	mu sync.Mutex

	hookMu sync.Mutex
	// onCommit runs after each committing write, outside the storage lock.
	// Remote replication registers its elapsed-interval push here.
	onCommit func()
}

// Open opens (creating if needed) the catalog file and runs auto-migrations.
// The DSN sets a bounded busy wait and enables foreign keys.
func Open(path string) (*Catalog, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if err := db.AutoMigrate(
		&EntityModel{},
		&ProgramModel{},
		&SessionModel{},
		&MemoirModel{},
		&PageContentModel{},
		&UserModel{},
		&FavoriteModel{},
		&LogModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Catalog{db: db, path: path}, nil
}

// Path returns the location of the live catalog file.
func (c *Catalog) Path() string { return c.path }

// SetCommitHook registers fn to run after every committing write.
func (c *Catalog) SetCommitHook(fn func()) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.onCommit = fn
}

func (c *Catalog) commitHook() func() {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	return c.onCommit
}

// read runs fn under the storage lock and maps driver errors.
func (c *Catalog) read(fn func(db *gorm.DB) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return mapSQLError(fn(c.db))
}

// write runs fn in one transaction under the storage lock, then fires the
// commit hook. The hook runs after the lock is released so it can copy the
// catalog file through WithFileLock without deadlocking.
func (c *Catalog) write(fn func(tx *gorm.DB) error) error {
	c.mu.Lock()
	err := c.db.Transaction(fn)
	c.mu.Unlock()
	if err != nil {
		return mapSQLError(err)
	}
	if hook := c.commitHook(); hook != nil {
		hook()
	}
	return nil
}

// WithFileLock runs fn while holding the catalog exclusion region, so the
// file can be copied byte-for-byte. It polls with a fixed delay until the
// lock frees or timeout elapses, then fails with ErrStorageBusy.
func (c *Catalog) WithFileLock(timeout time.Duration, fn func() error) error {
	deadline := time.Now().Add(timeout)
	for {
		if c.mu.TryLock() {
			defer c.mu.Unlock()
			return fn()
		}
		if time.Now().After(deadline) {
			return ErrStorageBusy
		}
		time.Sleep(lockPollDelay)
	}
}
