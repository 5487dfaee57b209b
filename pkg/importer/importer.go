package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"memobank/pkg/domain"
	"memobank/pkg/extract"
	"memobank/pkg/storage"
	"memobank/pkg/store"
)

// Report summarizes one bulk import run. Errors holds one message per failed
// row; a failed row never aborts the batch.
type Report struct {
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors,omitempty"`
}

// Importer loads memoirs in bulk from a CSV metadata file plus a directory of
// PDF documents, and academic structure from a structure CSV.
type Importer struct {
	catalog *store.Catalog
	blobs   storage.BlobStore
	indexer *extract.Indexer
}

func New(catalog *store.Catalog, blobs storage.BlobStore, indexer *extract.Indexer) *Importer {
	return &Importer{catalog: catalog, blobs: blobs, indexer: indexer}
}

// documentColumns is the required header of the memoir metadata CSV.
var documentColumns = []string{
	"title", "authors", "advisor", "summary", "tags",
	"program_name", "session_label", "version", "file_name",
}

// Documents imports memoirs row by row: resolve program and session by name,
// read the named PDF from pdfDir, save it to the blob store, insert the
// memoir, then extract and index its pages. A row with missing fields, an
// unresolved program/session or a missing file is counted as an error; a
// failed page extraction is only a warning because the memoir itself is
// already valid and searchable by metadata.
func (im *Importer) Documents(ctx context.Context, metadata io.Reader, pdfDir string) (Report, error) {
	rows, err := readCSV(metadata, documentColumns)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for i, row := range rows {
		line := i + 2 // header is line 1
		if err := im.importRow(ctx, row, pdfDir); err != nil {
			report.ErrorCount++
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		report.SuccessCount++
	}
	slog.Info("document import finished",
		"imported", report.SuccessCount, "failed", report.ErrorCount)
	return report, nil
}

func (im *Importer) importRow(ctx context.Context, row map[string]string, pdfDir string) error {
	for _, col := range []string{"title", "authors", "program_name", "session_label", "file_name"} {
		if row[col] == "" {
			return fmt.Errorf("missing %s", col)
		}
	}

	programID, ok, err := im.catalog.FindProgramByName(row["program_name"], 0)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("unknown program %q", row["program_name"])
	}
	sessionID, ok, err := im.catalog.FindSessionByLabel(row["session_label"])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("unknown session %q", row["session_label"])
	}

	fileName := filepath.Base(row["file_name"])
	content, err := os.ReadFile(filepath.Join(pdfDir, fileName))
	if err != nil {
		return fmt.Errorf("read document %s: %w", fileName, err)
	}

	locator, err := im.blobs.Save(ctx, content, fileName)
	if err != nil {
		return fmt.Errorf("save document %s: %w", fileName, err)
	}

	memoirID, err := im.catalog.AddMemoir(domain.Memoir{
		Title:       row["title"],
		Authors:     row["authors"],
		Advisor:     row["advisor"],
		Summary:     row["summary"],
		Tags:        row["tags"],
		FileLocator: locator,
		ProgramID:   programID,
		SessionID:   sessionID,
		Version:     row["version"],
	})
	if err != nil {
		// The blob is orphaned if the insert fails; best effort cleanup.
		if _, delErr := im.blobs.Delete(ctx, locator); delErr != nil {
			slog.Warn("orphaned import blob not deleted", "locator", locator, "error", delErr)
		}
		return err
	}

	if err := im.indexer.IndexMemoir(memoirID, content); err != nil {
		slog.Warn("import row indexed without content",
			"memoir_id", memoirID, "file", fileName, "error", err)
	}
	return nil
}

// structureColumns is the required header of the structure CSV. Any of the
// three values may be empty on a given row.
var structureColumns = []string{"entity_name", "program_name", "session_label"}

// Structure upserts entities, programs and sessions by natural key. Rows are
// deduplicated, so repeating a name across rows creates it once. A program
// row without an entity name is an error since programs hang off entities.
func (im *Importer) Structure(r io.Reader) (Report, error) {
	rows, err := readCSV(r, structureColumns)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for i, row := range rows {
		line := i + 2
		if err := im.importStructureRow(row); err != nil {
			report.ErrorCount++
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		report.SuccessCount++
	}
	slog.Info("structure import finished",
		"imported", report.SuccessCount, "failed", report.ErrorCount)
	return report, nil
}

func (im *Importer) importStructureRow(row map[string]string) error {
	var entityID int64
	if name := row["entity_name"]; name != "" {
		id, err := im.catalog.EnsureEntity(name)
		if err != nil {
			return err
		}
		entityID = id
	}
	if name := row["program_name"]; name != "" {
		if entityID == 0 {
			return fmt.Errorf("program %q has no entity_name", name)
		}
		if _, err := im.catalog.EnsureProgram(name, entityID); err != nil {
			return err
		}
	}
	if label := row["session_label"]; label != "" {
		if _, err := im.catalog.EnsureSession(label); err != nil {
			return err
		}
	}
	return nil
}

// readCSV parses r and returns one map per data row keyed by column name.
// The header must contain every required column; extra columns are ignored.
func readCSV(r io.Reader, required []string) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("csv missing column %q", col)
		}
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		row := make(map[string]string, len(required))
		for _, col := range required {
			if i := index[col]; i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
