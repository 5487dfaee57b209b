package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"memobank/pkg/auth"
	"memobank/pkg/domain"
	"memobank/pkg/extract"
	"memobank/pkg/storage"
	"memobank/pkg/store"
)

// ErrInvalidCredentials is returned by Login for a wrong email or password.
// Deliberately one error for both so the API cannot be used to probe which
// emails are registered.
var ErrInvalidCredentials = errors.New("invalid email or password")

// App ties the catalog, blob store, indexer and session store together for
// the operations that span more than one of them. Single-component reads go
// straight to the catalog.
type App struct {
	Catalog  *store.Catalog
	Blobs    storage.BlobStore
	Indexer  *extract.Indexer
	Sessions store.SessionStore
}

// CreateMemoir saves the document, inserts the memoir and indexes its text.
// A failed insert cleans up the just-saved blob; a failed extraction leaves
// the memoir searchable by metadata only.
func (a *App) CreateMemoir(ctx context.Context, m domain.Memoir, fileName string, content []byte) (domain.MemoirDetail, error) {
	locator, err := a.Blobs.Save(ctx, content, fileName)
	if err != nil {
		return domain.MemoirDetail{}, fmt.Errorf("save document: %w", err)
	}
	m.FileLocator = locator

	id, err := a.Catalog.AddMemoir(m)
	if err != nil {
		if _, delErr := a.Blobs.Delete(ctx, locator); delErr != nil {
			slog.Warn("orphaned blob not deleted", "locator", locator, "error", delErr)
		}
		return domain.MemoirDetail{}, err
	}

	if err := a.Indexer.IndexMemoir(id, content); err != nil {
		slog.Warn("memoir stored without content index", "memoir_id", id, "error", err)
	}

	detail, ok, err := a.Catalog.GetMemoir(id)
	if err != nil || !ok {
		return domain.MemoirDetail{}, fmt.Errorf("reload memoir %d: %w", id, err)
	}
	return detail, nil
}

// UpdateMemoir rewrites metadata and, when content is non-empty, replaces the
// document and rebuilds the page index. The replaced blob is deleted best
// effort after the catalog commit.
func (a *App) UpdateMemoir(ctx context.Context, m domain.Memoir, fileName string, content []byte) (domain.MemoirDetail, error) {
	if len(content) > 0 {
		locator, err := a.Blobs.Save(ctx, content, fileName)
		if err != nil {
			return domain.MemoirDetail{}, fmt.Errorf("save document: %w", err)
		}
		m.FileLocator = locator
	} else {
		m.FileLocator = ""
	}

	oldLocator, err := a.Catalog.UpdateMemoir(m)
	if err != nil {
		if m.FileLocator != "" {
			if _, delErr := a.Blobs.Delete(ctx, m.FileLocator); delErr != nil {
				slog.Warn("orphaned blob not deleted", "locator", m.FileLocator, "error", delErr)
			}
		}
		return domain.MemoirDetail{}, err
	}
	if oldLocator != "" {
		if _, err := a.Blobs.Delete(ctx, oldLocator); err != nil {
			slog.Warn("replaced blob not deleted", "locator", oldLocator, "error", err)
		}
	}

	if len(content) > 0 {
		if err := a.Indexer.IndexMemoir(m.ID, content); err != nil {
			slog.Warn("memoir updated without content index", "memoir_id", m.ID, "error", err)
		}
	}

	detail, ok, err := a.Catalog.GetMemoir(m.ID)
	if err != nil || !ok {
		return domain.MemoirDetail{}, fmt.Errorf("reload memoir %d: %w", m.ID, err)
	}
	return detail, nil
}

// DeleteMemoir removes the memoir and its dependent rows, then deletes the
// document best effort. A failed blob delete never resurrects the catalog
// rows; the orphan is only logged.
func (a *App) DeleteMemoir(ctx context.Context, id int64) error {
	locator, err := a.Catalog.DeleteMemoir(id)
	if err != nil {
		return err
	}
	if locator != "" {
		if _, err := a.Blobs.Delete(ctx, locator); err != nil {
			slog.Warn("memoir blob not deleted", "memoir_id", id, "locator", locator, "error", err)
		}
	}
	return nil
}

// ReadDocument returns the stored document bytes for a memoir.
func (a *App) ReadDocument(ctx context.Context, id int64) ([]byte, domain.MemoirDetail, error) {
	detail, ok, err := a.Catalog.GetMemoir(id)
	if err != nil {
		return nil, domain.MemoirDetail{}, err
	}
	if !ok {
		return nil, domain.MemoirDetail{}, fmt.Errorf("%w: memoir %d", store.ErrNotFound, id)
	}
	content, err := a.Blobs.Read(ctx, detail.FileLocator)
	if err != nil {
		return nil, domain.MemoirDetail{}, err
	}
	return content, detail, nil
}

// Reindex re-extracts the page text of a memoir from its stored document.
func (a *App) Reindex(ctx context.Context, id int64) error {
	content, _, err := a.ReadDocument(ctx, id)
	if err != nil {
		return err
	}
	return a.Indexer.IndexMemoir(id, content)
}

// Login verifies credentials and opens a session. Every attempt lands in the
// activity log via the catalog.
func (a *App) Login(email, password string) (string, domain.User, error) {
	user, ok, err := a.Catalog.Authenticate(email, password)
	if err != nil {
		return "", domain.User{}, err
	}
	if !ok {
		return "", domain.User{}, ErrInvalidCredentials
	}
	token, err := a.Sessions.NewSession(user.ID)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("open session: %w", err)
	}
	return token, user, nil
}

// Logout closes the session. Stateless JWT sessions make this a no-op.
func (a *App) Logout(token string) error {
	return a.Sessions.DeleteSession(token)
}

// Register creates a visitor account after a password strength check. The
// birth date, when given, must be formatted 2006-01-02.
func (a *App) Register(name, surname, email, password, birthDate, gender, phone string) (domain.User, error) {
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, err
	}
	u := domain.User{
		Name: name, Surname: surname, Email: email,
		Role: domain.RoleVisitor, Gender: gender, Phone: phone,
	}
	if birthDate != "" {
		d, err := time.Parse("2006-01-02", birthDate)
		if err != nil {
			return domain.User{}, fmt.Errorf("invalid birth date %q: want YYYY-MM-DD", birthDate)
		}
		u.BirthDate = d
	}
	id, err := a.Catalog.RegisterUser(u, password)
	if err != nil {
		return domain.User{}, err
	}
	u.ID = id
	a.Catalog.AppendLog("account created: "+email, &id)
	return u, nil
}

// ResetPassword replaces a visitor's password. Admin accounts are refused by
// the catalog.
func (a *App) ResetPassword(email, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}
	if err := a.Catalog.UpdatePassword(email, newPassword); err != nil {
		return err
	}
	a.Catalog.AppendLog("password reset: "+email, nil)
	return nil
}
