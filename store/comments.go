package store

import (
	"gorm.io/gorm"

	"github.com/feedcircle/feedcircle/models"
)

// CommentStore exposes typed queries over comments.
type CommentStore struct {
	db *gorm.DB
}

// NewCommentStore creates a CommentStore bound to db.
func NewCommentStore(db *gorm.DB) *CommentStore {
	return &CommentStore{db: db}
}

// Create inserts the comment after verifying the target feed exists,
// inside one transaction so a vanished feed aborts the write.
func (s *CommentStore) Create(comment *models.Comment) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var feed models.Feed
		if err := tx.Select("id").First(&feed, comment.FeedID).Error; err != nil {
			return err
		}
		return tx.Create(comment).Error
	})
	return classify(err)
}

// FindByID loads a comment with its author.
func (s *CommentStore) FindByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.Preload("Author").First(&comment, id).Error; err != nil {
		return nil, classify(err)
	}
	return &comment, nil
}

// Update persists new comment text.
func (s *CommentStore) Update(id uint, text string) error {
	res := s.db.Model(&models.Comment{}).Where("id = ?", id).Update("comment", text)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a comment.
func (s *CommentStore) Delete(id uint) error {
	res := s.db.Delete(&models.Comment{}, id)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
