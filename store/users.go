package store

import (
	"gorm.io/gorm"

	"github.com/feedcircle/feedcircle/models"
)

// UserStore exposes typed queries over the users table.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a UserStore bound to db.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new user. Returns ErrConflict when the username or
// email is already taken.
func (s *UserStore) Create(user *models.User) error {
	return classify(s.db.Create(user).Error)
}

// FindByID loads a user by primary key.
func (s *UserStore) FindByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, classify(err)
	}
	return &user, nil
}

// FindByUsername loads a user by its unique username.
func (s *UserStore) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, classify(err)
	}
	return &user, nil
}

// DeleteCascade removes a user and everything it owns: likes, comments,
// chat messages, feeds (with their comments and likes), and memberships.
func (s *UserStore) DeleteCascade(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var feedIDs []uint
		if err := tx.Model(&models.Feed{}).Where("created_by = ?", id).Pluck("id", &feedIDs).Error; err != nil {
			return err
		}
		if len(feedIDs) > 0 {
			if err := tx.Where("feed_id IN ?", feedIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("feed_id IN ?", feedIDs).Delete(&models.Like{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", feedIDs).Delete(&models.Feed{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
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
