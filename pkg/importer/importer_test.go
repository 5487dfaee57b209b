package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

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

func newTestImporter(t *testing.T, ex extract.Extractor) (*Importer, *store.Catalog, string) {
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
	if _, err := catalog.AddProgram("Informatique", entityID); err != nil {
		t.Fatalf("add program: %v", err)
	}
	if _, err := catalog.AddSession("2024-2025"); err != nil {
		t.Fatalf("add session: %v", err)
	}

	pdfDir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.pdf"} {
		if err := os.WriteFile(filepath.Join(pdfDir, name), []byte("%PDF "+name), 0o644); err != nil {
			t.Fatalf("write pdf: %v", err)
		}
	}
	return New(catalog, blobs, extract.NewIndexer(catalog, ex)), catalog, pdfDir
}

const documentHeader = "title,authors,advisor,summary,tags,program_name,session_label,version,file_name\n"

func TestDocumentsPartialFailure(t *testing.T) {
	ex := &stubExtractor{pages: []domain.Page{{Number: 1, Text: "imported text"}}}
	im, catalog, pdfDir := newTestImporter(t, ex)

	csvData := documentHeader +
		"Thesis A,Alice,Dr. X,About caching,cache,Informatique,2024-2025,v1,a.pdf\n" +
		"Thesis B,Bob,Dr. Y,About parsing,parser,Unknown Program,2024-2025,v1,b.pdf\n" +
		"Thesis C,Carol,Dr. Z,About graphs,graph,Informatique,2024-2025,v1,b.pdf\n"

	report, err := im.Documents(context.Background(), strings.NewReader(csvData), pdfDir)
	if err != nil {
		t.Fatalf("documents: %v", err)
	}
	if report.SuccessCount != 2 || report.ErrorCount != 1 {
		t.Fatalf("expected 2 imported / 1 failed, got %+v", report)
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], "Unknown Program") {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}

	memoirs, err := catalog.ListMemoirs()
	if err != nil {
		t.Fatalf("list memoirs: %v", err)
	}
	if len(memoirs) != 2 {
		t.Fatalf("expected 2 memoirs, got %d", len(memoirs))
	}
	pages, err := catalog.PagesFor(memoirs[0].ID)
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("imported memoir should be indexed, got %d pages", len(pages))
	}
}

func TestDocumentsMissingFileIsRowError(t *testing.T) {
	im, _, pdfDir := newTestImporter(t, &stubExtractor{pages: []domain.Page{{Number: 1, Text: "x"}}})

	csvData := documentHeader +
		"Thesis A,Alice,Dr. X,,,Informatique,2024-2025,v1,missing.pdf\n"
	report, err := im.Documents(context.Background(), strings.NewReader(csvData), pdfDir)
	if err != nil {
		t.Fatalf("documents: %v", err)
	}
	if report.SuccessCount != 0 || report.ErrorCount != 1 {
		t.Fatalf("expected 0/1, got %+v", report)
	}
}

func TestDocumentsExtractionFailureStillImports(t *testing.T) {
	im, catalog, pdfDir := newTestImporter(t, &stubExtractor{err: extract.ErrExtraction})

	csvData := documentHeader +
		"Thesis A,Alice,Dr. X,,,Informatique,2024-2025,v1,a.pdf\n"
	report, err := im.Documents(context.Background(), strings.NewReader(csvData), pdfDir)
	if err != nil {
		t.Fatalf("documents: %v", err)
	}
	if report.SuccessCount != 1 || report.ErrorCount != 0 {
		t.Fatalf("extraction failure must not fail the row, got %+v", report)
	}
	memoirs, err := catalog.ListMemoirs()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(memoirs) != 1 {
		t.Fatalf("expected the memoir despite failed extraction, got %d", len(memoirs))
	}
}

func TestDocumentsRejectsBadHeader(t *testing.T) {
	im, _, pdfDir := newTestImporter(t, &stubExtractor{})
	if _, err := im.Documents(context.Background(), strings.NewReader("title,authors\nA,B\n"), pdfDir); err == nil {
		t.Fatalf("missing columns must fail the whole import")
	}
}

func TestStructureUpsert(t *testing.T) {
	im, catalog, _ := newTestImporter(t, &stubExtractor{})

	csvData := "entity_name,program_name,session_label\n" +
		"UNSTIM,Informatique,2024-2025\n" + // all already exist
		"UNSTIM,Genie Civil,\n" +
		"ENSGEP,Electrotechnique,2025-2026\n" +
		",Orpheline,\n" // program without entity

	report, err := im.Structure(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("structure: %v", err)
	}
	if report.SuccessCount != 3 || report.ErrorCount != 1 {
		t.Fatalf("expected 3/1, got %+v", report)
	}

	entities, err := catalog.ListEntities()
	if err != nil {
		t.Fatalf("list entities: %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities after dedup, got %d", len(entities))
	}
	sessions, err := catalog.ListSessions()
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
}
