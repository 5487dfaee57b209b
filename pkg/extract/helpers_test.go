package extract

import (
	"path/filepath"
	"testing"

	"memobank/pkg/domain"
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

func seedIndexedMemoir(t *testing.T, c *store.Catalog) int64 {
	t.Helper()
	entityID, err := c.AddEntity("UNSTIM")
	if err != nil {
		t.Fatalf("add entity: %v", err)
	}
	programID, err := c.AddProgram("Informatique", entityID)
	if err != nil {
		t.Fatalf("add program: %v", err)
	}
	sessionID, err := c.AddSession("2024-2025")
	if err != nil {
		t.Fatalf("add session: %v", err)
	}
	memoirID, err := c.AddMemoir(domain.Memoir{
		Title:       "Graph Algorithms",
		Authors:     "A. Student",
		FileLocator: "local://graph.pdf",
		ProgramID:   programID,
		SessionID:   sessionID,
		Version:     "v1",
	})
	if err != nil {
		t.Fatalf("add memoir: %v", err)
	}
	return memoirID
}
