package models

import "time"

// Like marks that a user liked a feed. The composite unique index enforces
// at most one row per (user, feed); likes toggle rather than accumulate.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_like_user_feed;not null" json:"user_id"`
	FeedID    uint      `gorm:"uniqueIndex:idx_like_user_feed;not null" json:"feed_id"`
	CreatedAt time.Time `json:"created_at"`
}
