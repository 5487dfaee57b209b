package search

import (
	"memobank/pkg/domain"
	"memobank/pkg/store"
)

// Service answers metadata and full-text queries over the catalog.
type Service struct {
	catalog *store.Catalog
}

func NewService(catalog *store.Catalog) *Service {
	return &Service{catalog: catalog}
}

// Memoirs runs a metadata search: the free-text term matched against title,
// authors, advisor, summary and tags, combined with the structural filters.
func (s *Service) Memoirs(f store.MemoirFilter) ([]domain.MemoirDetail, error) {
	return s.catalog.SearchMemoirs(f)
}

// ContentHit is one memoir matched through its extracted text. PageNumber is
// the first page that contains the term and Snippet a highlighted excerpt
// around the first occurrence on that page.
type ContentHit struct {
	Detail     domain.MemoirDetail `json:"memoir"`
	PageNumber int                 `json:"page_number"`
	Snippet    string              `json:"snippet"`
}

// Content searches the extracted page text. Each memoir appears at most once,
// represented by its lowest matching page. Results keep the catalog's
// newest-first ordering.
func (s *Service) Content(term string, f store.MemoirFilter) ([]ContentHit, error) {
	matches, err := s.catalog.SearchPages(term, f)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(matches))
	hits := make([]ContentHit, 0, len(matches))
	for _, m := range matches {
		if seen[m.Detail.ID] {
			continue
		}
		seen[m.Detail.ID] = true
		hits = append(hits, ContentHit{
			Detail:     m.Detail,
			PageNumber: m.PageNumber,
			Snippet:    Snippet(m.Text, term),
		})
	}
	return hits, nil
}
