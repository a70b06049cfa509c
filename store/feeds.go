package store

import (
	"gorm.io/gorm"

	"github.com/feedcircle/feedcircle/models"
)

// FeedStore exposes typed queries over feeds.
type FeedStore struct {
	db *gorm.DB
}

// NewFeedStore creates a FeedStore bound to db.
func NewFeedStore(db *gorm.DB) *FeedStore {
	return &FeedStore{db: db}
}

// Create inserts a new feed.
func (s *FeedStore) Create(feed *models.Feed) error {
	return classify(s.db.Create(feed).Error)
}

// FindByID loads a feed with its creator.
func (s *FeedStore) FindByID(id uint) (*models.Feed, error) {
	var feed models.Feed
	if err := s.db.Preload("Creator").First(&feed, id).Error; err != nil {
		return nil, classify(err)
	}
	return &feed, nil
}

// ListByGroup returns one page of a group's feeds, newest first, with
// creator and comment authors preloaded. total is the unpaginated count.
func (s *FeedStore) ListByGroup(groupID uint, page, perPage int) ([]models.Feed, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	var total int64
	if err := s.db.Model(&models.Feed{}).Where("group_id = ?", groupID).Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	var feeds []models.Feed
	err := s.db.Where("group_id = ?", groupID).
		Preload("Creator").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.added_at ASC").Preload("Author")
		}).
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&feeds).Error
	if err != nil {
		return nil, 0, classify(err)
	}
	return feeds, total, nil
}

// Update persists heading/content/picture changes.
func (s *FeedStore) Update(feed *models.Feed) error {
	res := s.db.Model(&models.Feed{}).Where("id = ?", feed.ID).
		Updates(map[string]interface{}{
			"heading": feed.Heading,
			"content": feed.Content,
			"picture": feed.Picture,
		})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCascade removes a feed together with its comments and likes.
func (s *FeedStore) DeleteCascade(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("feed_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("feed_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Feed{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return classify(err)
}
