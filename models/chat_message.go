package models

import "time"

// ChatMessage is an append-only group chat entry, ordered by Timestamp
// ascending within a group.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	GroupID   uint      `gorm:"index;not null" json:"group_id"`
	Message   string    `gorm:"size:500;not null" json:"message"`
	Timestamp time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
	Author    User      `gorm:"foreignKey:UserID" json:"-"`
}
