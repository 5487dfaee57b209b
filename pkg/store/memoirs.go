package store

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"memobank/pkg/domain"
)

const memoirDetailSelect = `m.id, m.title, m.authors, m.advisor, m.summary, m.file_locator,
m.tags, m.program_id, m.session_id, m.version, m.created_at,
p.name AS program_name, s.label AS session_label, e.id AS entity_id, e.name AS entity_name`

func memoirDetailQuery(db *gorm.DB) *gorm.DB {
	return db.Table("memoirs m").
		Select(memoirDetailSelect).
		Joins("JOIN programs p ON m.program_id = p.id").
		Joins("JOIN sessions s ON m.session_id = s.id").
		Joins("JOIN entities e ON p.entity_id = e.id")
}

// AddMemoir inserts a memoir. Program and session must resolve to existing
// rows; the file locator is expected to come from a successful blob save.
func (c *Catalog) AddMemoir(m domain.Memoir) (int64, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	model := memoirToModel(m)
	err := c.write(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&ProgramModel{}).Where("id = ?", m.ProgramID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: program %d", ErrNotFound, m.ProgramID)
		}
		if err := tx.Model(&SessionModel{}).Where("id = ?", m.SessionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: session %d", ErrNotFound, m.SessionID)
		}
		return tx.Create(&model).Error
	})
	if err != nil {
		return 0, err
	}
	return model.ID, nil
}

// GetMemoir returns one memoir joined with program, session and entity names.
func (c *Catalog) GetMemoir(id int64) (domain.MemoirDetail, bool, error) {
	var rows []memoirDetailRow
	if err := c.read(func(db *gorm.DB) error {
		return memoirDetailQuery(db).Where("m.id = ?", id).Limit(1).Scan(&rows).Error
	}); err != nil {
		return domain.MemoirDetail{}, false, err
	}
	if len(rows) == 0 {
		return domain.MemoirDetail{}, false, nil
	}
	return detailFromRow(rows[0]), true, nil
}

// ListMemoirs returns all memoirs, most recently added first.
func (c *Catalog) ListMemoirs() ([]domain.MemoirDetail, error) {
	var rows []memoirDetailRow
	if err := c.read(func(db *gorm.DB) error {
		return memoirDetailQuery(db).Order("m.created_at DESC").Scan(&rows).Error
	}); err != nil {
		return nil, err
	}
	res := make([]domain.MemoirDetail, 0, len(rows))
	for _, r := range rows {
		res = append(res, detailFromRow(r))
	}
	return res, nil
}

// UpdateMemoir rewrites a memoir's metadata. When m.FileLocator is empty the
// stored locator is kept; otherwise the previous locator is returned so the
// caller can delete the orphaned blob.
func (c *Catalog) UpdateMemoir(m domain.Memoir) (string, error) {
	var oldLocator string
	err := c.write(func(tx *gorm.DB) error {
		var current MemoirModel
		if err := tx.First(&current, "id = ?", m.ID).Error; err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&ProgramModel{}).Where("id = ?", m.ProgramID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: program %d", ErrNotFound, m.ProgramID)
		}
		if err := tx.Model(&SessionModel{}).Where("id = ?", m.SessionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: session %d", ErrNotFound, m.SessionID)
		}
		updates := map[string]any{
			"title":      m.Title,
			"authors":    m.Authors,
			"advisor":    m.Advisor,
			"summary":    m.Summary,
			"tags":       m.Tags,
			"program_id": m.ProgramID,
			"session_id": m.SessionID,
			"version":    m.Version,
		}
		if m.FileLocator != "" && m.FileLocator != current.FileLocator {
			updates["file_locator"] = m.FileLocator
			oldLocator = current.FileLocator
		}
		return tx.Model(&MemoirModel{}).Where("id = ?", m.ID).Updates(updates).Error
	})
	if err != nil {
		return "", err
	}
	return oldLocator, nil
}

// DeleteMemoir removes a memoir and its dependent rows (favorites first,
// then extracted page content, then the memoir itself) in one transaction.
// The stored file locator is returned for best-effort blob cleanup by the
// caller; a failed file deletion must never roll back the catalog delete.
func (c *Catalog) DeleteMemoir(id int64) (string, error) {
	var locator string
	err := c.write(func(tx *gorm.DB) error {
		var current MemoirModel
		if err := tx.First(&current, "id = ?", id).Error; err != nil {
			return err
		}
		locator = current.FileLocator
		if err := tx.Delete(&FavoriteModel{}, "memoir_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&PageContentModel{}, "memoir_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&MemoirModel{}, "id = ?", id).Error
	})
	if err != nil {
		return "", err
	}
	return locator, nil
}

// ReplacePages swaps all extracted page content for a memoir in one atomic
// unit: delete-all-then-insert-all, never a mix of old and new pages.
func (c *Catalog) ReplacePages(memoirID int64, pages []domain.Page) error {
	return c.write(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&MemoirModel{}).Where("id = ?", memoirID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: memoir %d", ErrNotFound, memoirID)
		}
		if err := tx.Delete(&PageContentModel{}, "memoir_id = ?", memoirID).Error; err != nil {
			return err
		}
		if len(pages) == 0 {
			return nil
		}
		models := make([]PageContentModel, 0, len(pages))
		for _, p := range pages {
			models = append(models, PageContentModel{
				MemoirID:   memoirID,
				PageNumber: p.Number,
				Text:       p.Text,
			})
		}
		return tx.CreateInBatches(&models, 200).Error
	})
}

// PagesFor returns the extracted pages of a memoir in page order.
func (c *Catalog) PagesFor(memoirID int64) ([]domain.Page, error) {
	var models []PageContentModel
	if err := c.read(func(db *gorm.DB) error {
		return db.Where("memoir_id = ?", memoirID).Order("page_number ASC").Find(&models).Error
	}); err != nil {
		return nil, err
	}
	pages := make([]domain.Page, 0, len(models))
	for _, m := range models {
		pages = append(pages, domain.Page{Number: m.PageNumber, Text: m.Text})
	}
	return pages, nil
}

// MemoirFilter narrows metadata searches. Zero ids mean "no filter".
type MemoirFilter struct {
	Term      string
	EntityID  int64
	ProgramID int64
	SessionID int64
}

// SearchMemoirs matches the free-text term case-insensitively as a substring
// across title, authors, advisor, summary and tags (OR), combined with the
// exact id filters (AND). An empty term matches everything. Results are
// ordered by creation time descending.
func (c *Catalog) SearchMemoirs(f MemoirFilter) ([]domain.MemoirDetail, error) {
	var rows []memoirDetailRow
	if err := c.read(func(db *gorm.DB) error {
		q := memoirDetailQuery(db)
		q = applyMemoirFilter(q, f)
		return q.Order("m.created_at DESC").Scan(&rows).Error
	}); err != nil {
		return nil, err
	}
	res := make([]domain.MemoirDetail, 0, len(rows))
	for _, r := range rows {
		res = append(res, detailFromRow(r))
	}
	return res, nil
}

// likePattern wraps term for a substring LIKE match, escaping the LIKE
// metacharacters so % and _ in user input match literally.
func likePattern(term string) string {
	term = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + term + "%"
}

func applyMemoirFilter(q *gorm.DB, f MemoirFilter) *gorm.DB {
	if f.Term != "" {
		pattern := likePattern(f.Term)
		q = q.Where(
			`lower(m.title) LIKE lower(?) ESCAPE '\' OR lower(m.authors) LIKE lower(?) ESCAPE '\' OR lower(m.advisor) LIKE lower(?) ESCAPE '\' OR lower(m.summary) LIKE lower(?) ESCAPE '\' OR lower(m.tags) LIKE lower(?) ESCAPE '\'`,
			pattern, pattern, pattern, pattern, pattern,
		)
	}
	if f.EntityID > 0 {
		q = q.Where("e.id = ?", f.EntityID)
	}
	if f.ProgramID > 0 {
		q = q.Where("p.id = ?", f.ProgramID)
	}
	if f.SessionID > 0 {
		q = q.Where("s.id = ?", f.SessionID)
	}
	return q
}

// PageMatch is one page whose text contains the content-search term.
type PageMatch struct {
	Detail     domain.MemoirDetail
	PageNumber int
	Text       string
}

// SearchPages returns every page whose text contains term (case-insensitive
// substring), restricted to memoirs passing the metadata filters. Rows come
// back ordered by memoir creation time descending, then page number
// ascending; the search service dedupes per memoir.
func (c *Catalog) SearchPages(term string, f MemoirFilter) ([]PageMatch, error) {
	if term == "" {
		return nil, nil
	}
	var rows []struct {
		ID           int64
		Title        string
		Authors      string
		Advisor      string
		Summary      string
		FileLocator  string
		Tags         string
		ProgramID    int64
		SessionID    int64
		Version      string
		CreatedAt    time.Time
		ProgramName  string
		SessionLabel string
		EntityID     int64
		EntityName   string
		PageNumber   int
		PageText     string
	}
	if err := c.read(func(db *gorm.DB) error {
		q := db.Table("memoirs m").
			Select(memoirDetailSelect+", pc.page_number AS page_number, pc.text AS page_text").
			Joins("JOIN programs p ON m.program_id = p.id").
			Joins("JOIN sessions s ON m.session_id = s.id").
			Joins("JOIN entities e ON p.entity_id = e.id").
			Joins("JOIN page_content pc ON pc.memoir_id = m.id").
			Where(`lower(pc.text) LIKE lower(?) ESCAPE '\'`, likePattern(term))
		q = applyMemoirFilter(q, f)
		return q.Order("m.created_at DESC, pc.page_number ASC").Scan(&rows).Error
	}); err != nil {
		return nil, err
	}
	matches := make([]PageMatch, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, PageMatch{
			Detail: detailFromRow(memoirDetailRow{
				ID: r.ID, Title: r.Title, Authors: r.Authors, Advisor: r.Advisor,
				Summary: r.Summary, FileLocator: r.FileLocator, Tags: r.Tags,
				ProgramID: r.ProgramID, SessionID: r.SessionID, Version: r.Version,
				CreatedAt: r.CreatedAt, ProgramName: r.ProgramName,
				SessionLabel: r.SessionLabel, EntityID: r.EntityID, EntityName: r.EntityName,
			}),
			PageNumber: r.PageNumber,
			Text:       r.PageText,
		})
	}
	return matches, nil
}
