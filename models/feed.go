package models

import "time"

// Feed is a post inside a group, optionally carrying a stored picture
// reference. Heading and content are the only mutable fields.
type Feed struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Heading   string    `gorm:"size:150;not null" json:"heading"`
	Content   string    `gorm:"size:500;not null" json:"content"`
	Picture   string    `gorm:"size:255" json:"picture"`
	CreatedBy uint      `gorm:"index;not null" json:"created_by"`
	GroupID   uint      `gorm:"index;not null" json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
	Creator   User      `gorm:"foreignKey:CreatedBy" json:"-"`
	Comments  []Comment `json:"comments"`
	Likes     []Like    `json:"-"`
}
