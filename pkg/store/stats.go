package store

import (
	"gorm.io/gorm"

	"memobank/pkg/domain"
)

type countRow struct {
	Name  string
	Count int64
}

// Statistics aggregates memoir counts for the dashboard: total, per entity,
// per session and per program.
func (c *Catalog) Statistics() (domain.Statistics, error) {
	stats := domain.Statistics{
		MemoirsByEntity:  map[string]int64{},
		MemoirsBySession: map[string]int64{},
		MemoirsByProgram: map[string]int64{},
	}
	err := c.read(func(db *gorm.DB) error {
		if err := db.Model(&MemoirModel{}).Count(&stats.TotalMemoirs).Error; err != nil {
			return err
		}
		var rows []countRow
		if err := db.Table("memoirs m").
			Select("e.name AS name, COUNT(*) AS count").
			Joins("JOIN programs p ON m.program_id = p.id").
			Joins("JOIN entities e ON p.entity_id = e.id").
			Group("e.name").
			Scan(&rows).Error; err != nil {
			return err
		}
		for _, r := range rows {
			stats.MemoirsByEntity[r.Name] = r.Count
		}
		rows = nil
		if err := db.Table("memoirs m").
			Select("s.label AS name, COUNT(*) AS count").
			Joins("JOIN sessions s ON m.session_id = s.id").
			Group("s.label").
			Scan(&rows).Error; err != nil {
			return err
		}
		for _, r := range rows {
			stats.MemoirsBySession[r.Name] = r.Count
		}
		rows = nil
		if err := db.Table("memoirs m").
			Select("p.name AS name, COUNT(*) AS count").
			Joins("JOIN programs p ON m.program_id = p.id").
			Group("p.name").
			Scan(&rows).Error; err != nil {
			return err
		}
		for _, r := range rows {
			stats.MemoirsByProgram[r.Name] = r.Count
		}
		return nil
	})
	if err != nil {
		return domain.Statistics{}, err
	}
	return stats, nil
}
