package store

import (
	"gorm.io/gorm"

	"github.com/feedcircle/feedcircle/models"
)

// LikeStore exposes the like toggle and count queries.
type LikeStore struct {
	db *gorm.DB
}

// NewLikeStore creates a LikeStore bound to db.
func NewLikeStore(db *gorm.DB) *LikeStore {
	return &LikeStore{db: db}
}

// Toggle flips the like row for (userID, feedID): deletes it when present,
// inserts it otherwise. The delete-first transaction plus the unique index
// on (user_id, feed_id) keeps concurrent toggles from ever producing two
// rows. Returns whether the feed is liked after the call and the fresh
// post-commit count, never a locally adjusted value.
func (s *LikeStore) Toggle(userID, feedID uint) (liked bool, count int64, err error) {
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var feed models.Feed
		if err := tx.Select("id").First(&feed, feedID).Error; err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND feed_id = ?", userID, feedID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}
		liked = true
		return tx.Create(&models.Like{UserID: userID, FeedID: feedID}).Error
	})
	if err != nil {
		return false, 0, classify(err)
	}

	count, err = s.Count(feedID)
	return liked, count, err
}

// Count returns the current number of likes on a feed.
func (s *LikeStore) Count(feedID uint) (int64, error) {
	var count int64
	if err := s.db.Model(&models.Like{}).Where("feed_id = ?", feedID).Count(&count).Error; err != nil {
		return 0, classify(err)
	}
	return count, nil
}

// Exists reports whether the user currently likes the feed.
func (s *LikeStore) Exists(userID, feedID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.Like{}).
		Where("user_id = ? AND feed_id = ?", userID, feedID).
		Count(&count).Error
	if err != nil {
		return false, classify(err)
	}
	return count > 0, nil
}
