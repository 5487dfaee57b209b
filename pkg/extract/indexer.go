package extract

import (
	"fmt"
	"log/slog"

	"memobank/pkg/store"
)

// Indexer extracts a memoir's text and replaces its stored pages.
type Indexer struct {
	catalog   *store.Catalog
	extractor Extractor
}

func NewIndexer(catalog *store.Catalog, extractor Extractor) *Indexer {
	return &Indexer{catalog: catalog, extractor: extractor}
}

// IndexMemoir rebuilds the page index from the given document bytes. The
// previous index is dropped atomically with the insert of the new one.
func (ix *Indexer) IndexMemoir(memoirID int64, content []byte) error {
	pages, err := ix.extractor.ExtractPages(content)
	if err != nil {
		return fmt.Errorf("index memoir %d: %w", memoirID, err)
	}
	if err := ix.catalog.ReplacePages(memoirID, pages); err != nil {
		return fmt.Errorf("index memoir %d: %w", memoirID, err)
	}
	slog.Info("memoir indexed", "memoir_id", memoirID, "pages", len(pages))
	return nil
}
