package models

import "time"

// Group is a members-only space that owns feeds and chat messages.
// Code is the 6-character join code; it doubles as the realtime room key.
type Group struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Code        string    `gorm:"size:6;uniqueIndex;not null" json:"code"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedBy   uint      `gorm:"index;not null" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	Members     []User    `gorm:"many2many:group_members;" json:"-"`
	Feeds       []Feed    `json:"-"`
}

// GroupMember is the user<->group association row. The composite primary
// key keeps a user from appearing twice in the same group.
type GroupMember struct {
	UserID  uint `gorm:"primaryKey" json:"user_id"`
	GroupID uint `gorm:"primaryKey" json:"group_id"`
}
