package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"memobank/pkg/domain"
)

// ErrExtraction means the source document is corrupt or yields no readable
// text. Catalog metadata for the memoir stays valid; only content search is
// unavailable until a re-index succeeds.
var ErrExtraction = errors.New("pdf extraction failed")

// Extractor produces per-page text from an uploaded document.
type Extractor interface {
	ExtractPages(content []byte) ([]domain.Page, error)
}

// PDFExtractor reads text with the pure-Go pdf library.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

// ExtractPages returns the ordered page texts starting at page 1. Pages the
// library cannot decode are skipped; a document with zero readable pages
// fails with ErrExtraction. The library panics on some malformed inputs, so
// the whole parse runs behind a recover.
func (e *PDFExtractor) ExtractPages(content []byte) (pages []domain.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: parser panic: %v", ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	totalPages := reader.NumPage()
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = normalizeText(text)
		if text == "" {
			continue
		}
		pages = append(pages, domain.Page{Number: i, Text: text})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no text extracted", ErrExtraction)
	}
	return pages, nil
}

func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	text = strings.ToValidUTF8(text, "")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}
