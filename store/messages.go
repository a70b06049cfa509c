package store

import (
	"gorm.io/gorm"

	"github.com/feedcircle/feedcircle/models"
)

// MessageStore exposes typed queries over the append-only chat log.
type MessageStore struct {
	db *gorm.DB
}

// NewMessageStore creates a MessageStore bound to db.
func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Create appends a chat message. The row's Timestamp is filled on insert.
func (s *MessageStore) Create(msg *models.ChatMessage) error {
	return classify(s.db.Create(msg).Error)
}

// ListByGroup returns a group's chat history ordered oldest first, with
// authors preloaded for username denormalization.
func (s *MessageStore) ListByGroup(groupID uint) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := s.db.Where("group_id = ?", groupID).
		Preload("Author").
		Order("timestamp ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, classify(err)
	}
	return msgs, nil
}
