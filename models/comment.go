package models

import "time"

// Comment is a reply to a feed. Text is mutable via a dedicated update.
type Comment struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	FeedID  uint      `gorm:"index;not null" json:"feed_id"`
	Comment string    `gorm:"size:300;not null" json:"comment"`
	UserID  uint      `gorm:"index;not null" json:"user_id"`
	AddedAt time.Time `gorm:"autoCreateTime" json:"added_at"`
	Author  User      `gorm:"foreignKey:UserID" json:"-"`
}
