package store

import (
	"errors"

	"gorm.io/gorm"

	"github.com/feedcircle/feedcircle/models"
)

// GroupStore exposes typed queries over groups and their membership rows.
type GroupStore struct {
	db *gorm.DB
}

// NewGroupStore creates a GroupStore bound to db.
func NewGroupStore(db *gorm.DB) *GroupStore {
	return &GroupStore{db: db}
}

// Create inserts the group and its creator's membership in one transaction.
// Returns ErrConflict when the name or join code collides.
func (s *GroupStore) Create(group *models.Group) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return tx.Create(&models.GroupMember{UserID: group.CreatedBy, GroupID: group.ID}).Error
	})
	return classify(err)
}

// FindByCode loads a group by its join code.
func (s *GroupStore) FindByCode(code string) (*models.Group, error) {
	var group models.Group
	if err := s.db.Where("code = ?", code).First(&group).Error; err != nil {
		return nil, classify(err)
	}
	return &group, nil
}

// FindByID loads a group by primary key.
func (s *GroupStore) FindByID(id uint) (*models.Group, error) {
	var group models.Group
	if err := s.db.First(&group, id).Error; err != nil {
		return nil, classify(err)
	}
	return &group, nil
}

// AddMember registers the user in the group. Joining twice is a no-op.
func (s *GroupStore) AddMember(groupID, userID uint) error {
	err := s.db.Create(&models.GroupMember{UserID: userID, GroupID: groupID}).Error
	if err != nil && errors.Is(classify(err), ErrConflict) {
		return nil
	}
	return classify(err)
}

// RemoveMember drops the user's membership. Absent membership is a no-op.
func (s *GroupStore) RemoveMember(groupID, userID uint) error {
	return classify(s.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error)
}

// IsMember reports whether the user belongs to the group.
func (s *GroupStore) IsMember(groupID, userID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, classify(err)
	}
	return count > 0, nil
}

// ListForUser returns every group the user has joined.
func (s *GroupStore) ListForUser(userID uint) ([]models.Group, error) {
	var groups []models.Group
	err := s.db.
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Order("groups.created_at ASC").
		Find(&groups).Error
	if err != nil {
		return nil, classify(err)
	}
	return groups, nil
}

// Update persists name/description changes on an existing group.
func (s *GroupStore) Update(group *models.Group) error {
	res := s.db.Model(&models.Group{}).Where("id = ?", group.ID).
		Updates(map[string]interface{}{"name": group.Name, "description": group.Description})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCascade removes the group and everything under it: comments and
// likes of its feeds, the feeds, chat messages, and membership rows.
// Returns the picture names of deleted feeds so callers can clean storage.
func (s *GroupStore) DeleteCascade(id uint) ([]string, error) {
	var pictures []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var feedIDs []uint
		if err := tx.Model(&models.Feed{}).Where("group_id = ?", id).Pluck("id", &feedIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Feed{}).Where("group_id = ? AND picture <> ''", id).
			Pluck("picture", &pictures).Error; err != nil {
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
		if err := tx.Where("group_id = ?", id).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Group{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return pictures, nil
}
