package store

import (
	"errors"
	"fmt"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateKey signals a uniqueness violation on insert. Callers show
	// an "already exists" message instead of a generic failure.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrReferentialConflict signals a refused parent deletion while child
	// rows still reference it. The operation is a no-op.
	ErrReferentialConflict = errors.New("referenced by dependent rows")
	// ErrNotFound signals an absent row, distinguished from I/O failure.
	ErrNotFound = errors.New("row not found")
	// ErrStorageBusy signals that the catalog file stayed locked past the
	// bounded wait.
	ErrStorageBusy = errors.New("catalog storage busy")
	// ErrAdminPasswordReset signals a refused reset for an admin account;
	// administrators rotate credentials out of band.
	ErrAdminPasswordReset = errors.New("password reset not allowed for admin accounts")
)

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// mapSQLError normalizes driver and gorm errors into the catalog taxonomy.
func mapSQLError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch {
		case se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		case se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked:
			return fmt.Errorf("%w: %v", ErrStorageBusy, err)
		}
	}
	// Driver errors can arrive stringified through gorm.
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "unique constraint"):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	case strings.Contains(lower, "database is locked"):
		return fmt.Errorf("%w: %v", ErrStorageBusy, err)
	}
	return err
}
