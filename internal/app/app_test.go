package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"memobank/pkg/domain"
	"memobank/pkg/extract"
	"memobank/pkg/storage"
	"memobank/pkg/store"
)

type stubExtractor struct {
	pages []domain.Page
	err   error
}

func (s *stubExtractor) ExtractPages(content []byte) ([]domain.Page, error) {
	return s.pages, s.err
}

func newTestApp(t *testing.T, ex extract.Extractor) (*App, int64, int64) {
	t.Helper()
	catalog, err := store.Open(filepath.Join(t.TempDir(), "catalog.sqlite"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	blobs, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	entityID, err := catalog.AddEntity("UNSTIM")
	if err != nil {
		t.Fatalf("add entity: %v", err)
	}
	programID, err := catalog.AddProgram("Informatique", entityID)
	if err != nil {
		t.Fatalf("add program: %v", err)
	}
	sessionID, err := catalog.AddSession("2024-2025")
	if err != nil {
		t.Fatalf("add session: %v", err)
	}
	a := &App{
		Catalog:  catalog,
		Blobs:    blobs,
		Indexer:  extract.NewIndexer(catalog, ex),
		Sessions: store.NewJWTSessionStore("test-secret", time.Hour),
	}
	return a, programID, sessionID
}

func TestCreateMemoirIndexesAndReloads(t *testing.T) {
	a, programID, sessionID := newTestApp(t, &stubExtractor{pages: []domain.Page{
		{Number: 1, Text: "binary trees"},
	}})

	detail, err := a.CreateMemoir(context.Background(), domain.Memoir{
		Title: "Trees", Authors: "A", ProgramID: programID, SessionID: sessionID,
	}, "trees.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("create memoir: %v", err)
	}
	if detail.ProgramName != "Informatique" || detail.EntityName != "UNSTIM" {
		t.Fatalf("detail not joined: %+v", detail)
	}

	pages, err := a.Catalog.PagesFor(detail.ID)
	if err != nil || len(pages) != 1 {
		t.Fatalf("expected 1 indexed page, got %d (%v)", len(pages), err)
	}
	content, _, err := a.ReadDocument(context.Background(), detail.ID)
	if err != nil || string(content) != "%PDF" {
		t.Fatalf("read document: %q %v", content, err)
	}
}

func TestCreateMemoirBadProgramCleansBlob(t *testing.T) {
	a, _, sessionID := newTestApp(t, &stubExtractor{})

	_, err := a.CreateMemoir(context.Background(), domain.Memoir{
		Title: "Orphan", Authors: "A", ProgramID: 999, SessionID: sessionID,
	}, "x.pdf", []byte("%PDF"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateMemoirSurvivesExtractionFailure(t *testing.T) {
	a, programID, sessionID := newTestApp(t, &stubExtractor{err: extract.ErrExtraction})

	detail, err := a.CreateMemoir(context.Background(), domain.Memoir{
		Title: "Scanned Only", Authors: "A", ProgramID: programID, SessionID: sessionID,
	}, "scan.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("create memoir: %v", err)
	}
	pages, err := a.Catalog.PagesFor(detail.ID)
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	if len(pages) != 0 {
		t.Fatalf("no pages expected after failed extraction, got %d", len(pages))
	}
}

func TestUpdateMemoirReplacesDocument(t *testing.T) {
	a, programID, sessionID := newTestApp(t, &stubExtractor{pages: []domain.Page{
		{Number: 1, Text: "first version"},
	}})
	ctx := context.Background()

	detail, err := a.CreateMemoir(ctx, domain.Memoir{
		Title: "Versioned", Authors: "A", ProgramID: programID, SessionID: sessionID,
	}, "v1.pdf", []byte("old content"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	oldLocator := detail.FileLocator

	updated := detail.Memoir
	updated.Title = "Versioned v2"
	if _, err := a.UpdateMemoir(ctx, updated, "v2.pdf", []byte("new content")); err != nil {
		t.Fatalf("update: %v", err)
	}

	content, _, err := a.ReadDocument(ctx, detail.ID)
	if err != nil || string(content) != "new content" {
		t.Fatalf("read after update: %q %v", content, err)
	}
	if _, err := a.Blobs.Read(ctx, oldLocator); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("old blob should be deleted, got %v", err)
	}
}

func TestDeleteMemoirRemovesBlob(t *testing.T) {
	a, programID, sessionID := newTestApp(t, &stubExtractor{})
	ctx := context.Background()

	detail, err := a.CreateMemoir(ctx, domain.Memoir{
		Title: "Doomed", Authors: "A", ProgramID: programID, SessionID: sessionID,
	}, "d.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := a.DeleteMemoir(ctx, detail.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := a.Blobs.Read(ctx, detail.FileLocator); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("blob should be gone, got %v", err)
	}
}

func TestLoginSessionRoundTrip(t *testing.T) {
	a, _, _ := newTestApp(t, &stubExtractor{})

	if _, err := a.Register("Ada", "L", "ada@test.local", "strong-pass-1", "1990-03-14", "F", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, user, err := a.Login("ada@test.local", "strong-pass-1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	id, ok, err := a.Sessions.GetUserIDByToken(token)
	if err != nil || !ok || id != user.ID {
		t.Fatalf("session lookup: id=%d ok=%v err=%v", id, ok, err)
	}

	if _, _, err := a.Login("ada@test.local", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := a.Login("ghost@test.local", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email must also report ErrInvalidCredentials, got %v", err)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	a, _, _ := newTestApp(t, &stubExtractor{})
	if _, err := a.Register("Bob", "", "bob@test.local", "short", "", "", ""); err == nil {
		t.Fatalf("weak password must be rejected")
	}
}

func TestRegisterRejectsBadBirthDate(t *testing.T) {
	a, _, _ := newTestApp(t, &stubExtractor{})
	if _, err := a.Register("Bob", "", "bob@test.local", "strong-pass-1", "14/03/1990", "", ""); err == nil {
		t.Fatalf("malformed birth date must be rejected")
	}
}
