package store

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"memobank/pkg/domain"
)

// AppendLog records an action in the append-only activity log. userID is nil
// for anonymous or failed actions. Log failures never propagate to the
// caller: a broken audit trail must not block the operation it describes.
func (c *Catalog) AppendLog(action string, userID *int64) {
	model := LogModel{
		Action:    action,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.write(func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	}); err != nil {
		slog.Warn("append log failed", "action", action, "err", err)
	}
}

// ListLogs returns the most recent entries, newest first.
func (c *Catalog) ListLogs(limit int) ([]domain.LogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var models []LogModel
	if err := c.read(func(db *gorm.DB) error {
		return db.Order("created_at DESC").Limit(limit).Find(&models).Error
	}); err != nil {
		return nil, err
	}
	res := make([]domain.LogEntry, 0, len(models))
	for _, m := range models {
		res = append(res, domain.LogEntry{
			ID:        m.ID,
			Action:    m.Action,
			UserID:    m.UserID,
			CreatedAt: m.CreatedAt,
		})
	}
	return res, nil
}

// CountLogsByAction reports how many log rows carry exactly this action
// string. Used by audit views and tests.
func (c *Catalog) CountLogsByAction(action string) (int64, error) {
	var count int64
	if err := c.read(func(db *gorm.DB) error {
		return db.Model(&LogModel{}).Where("action = ?", action).Count(&count).Error
	}); err != nil {
		return 0, err
	}
	return count, nil
}
