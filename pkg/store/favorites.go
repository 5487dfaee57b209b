package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"memobank/pkg/domain"
)

// AddFavorite bookmarks a memoir for a user. The pair is unique; adding an
// existing favorite fails with ErrDuplicateKey.
func (c *Catalog) AddFavorite(userID, memoirID int64) error {
	model := FavoriteModel{
		UserID:    userID,
		MemoirID:  memoirID,
		CreatedAt: time.Now().UTC(),
	}
	return c.write(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&MemoirModel{}).Where("id = ?", memoirID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: memoir %d", ErrNotFound, memoirID)
		}
		return tx.Create(&model).Error
	})
}

// RemoveFavorite deletes the bookmark; removing an absent one is not an
// error.
func (c *Catalog) RemoveFavorite(userID, memoirID int64) error {
	return c.write(func(tx *gorm.DB) error {
		return tx.Delete(&FavoriteModel{}, "user_id = ? AND memoir_id = ?", userID, memoirID).Error
	})
}

// ListFavorites returns a user's bookmarked memoirs, most recently added
// memoir first.
func (c *Catalog) ListFavorites(userID int64) ([]domain.MemoirDetail, error) {
	var rows []memoirDetailRow
	if err := c.read(func(db *gorm.DB) error {
		return memoirDetailQuery(db).
			Joins("JOIN favorites fav ON fav.memoir_id = m.id").
			Where("fav.user_id = ?", userID).
			Order("m.created_at DESC").
			Scan(&rows).Error
	}); err != nil {
		return nil, err
	}
	res := make([]domain.MemoirDetail, 0, len(rows))
	for _, r := range rows {
		res = append(res, detailFromRow(r))
	}
	return res, nil
}
