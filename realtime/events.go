package realtime

import (
	"encoding/json"
	"time"
)

// Event names carried on the wire, both directions.
const (
	EventJoin    = "join"
	EventLeave   = "leave"
	EventMessage = "message"

	EventNewFeed    = "new_feed"
	EventUpdateFeed = "update_feed"
	EventDeleteFeed = "delete_feed"
	EventLikeFeed   = "like_feed"

	EventNewComment    = "new_comment"
	EventUpdateComment = "update_comment"
	EventDeleteComment = "delete_comment"

	EventUpdateGroup = "update_group"
	EventDeleteGroup = "delete_group"
	EventLeaveGroup  = "leave_group"

	EventError = "error"
)

// Envelope is the wire frame: an event name plus its typed payload.
// Inbound payloads stay raw until the dispatcher knows the event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encodeFrame(event string, data interface{}) ([]byte, error) {
	return json.Marshal(struct {
		Event string      `json:"event"`
		Data  interface{} `json:"data,omitempty"`
	}{Event: event, Data: data})
}

// RoomPayload is the client->server join/leave request and the matching ack.
type RoomPayload struct {
	GroupCode string `json:"groupCode"`
}

// ChatSendPayload is the client->server chat message request.
type ChatSendPayload struct {
	GroupCode string `json:"groupCode"`
	Content   string `json:"content"`
}

// MessagePayload is the fanned-out chat message.
type MessagePayload struct {
	User      string    `json:"user"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	GroupCode string    `json:"groupCode"`
}

// CommentPayload is a fully denormalized comment: consumers can render it
// without a follow-up fetch.
type CommentPayload struct {
	ID      uint      `json:"id"`
	Comment string    `json:"comment"`
	AddedBy string    `json:"added_by"`
	AddedAt time.Time `json:"added_at"`
}

// FeedPayload is the new_feed/update_feed shape, comments included.
type FeedPayload struct {
	ID        uint             `json:"id"`
	Heading   string           `json:"heading"`
	Content   string           `json:"content"`
	Picture   string           `json:"picture"`
	CreatedBy string           `json:"created_by"`
	CreatedAt time.Time        `json:"created_at"`
	Comments  []CommentPayload `json:"comments"`
	GroupCode string           `json:"groupCode"`
}

// DeleteFeedPayload announces a removed feed.
type DeleteFeedPayload struct {
	FeedID uint `json:"feed_id"`
}

// LikePayload carries the fresh like count, never a delta.
type LikePayload struct {
	FeedID    uint   `json:"feed_id"`
	LikeCount int64  `json:"like_count"`
	GroupCode string `json:"groupCode"`
}

// CommentEventPayload is the new_comment/update_comment shape.
type CommentEventPayload struct {
	FeedID  uint           `json:"feed_id"`
	Comment CommentPayload `json:"comment"`
}

// DeleteCommentPayload announces a removed comment.
type DeleteCommentPayload struct {
	FeedID    uint `json:"feed_id"`
	CommentID uint `json:"comment_id"`
}

// GroupPayload is the update_group shape.
type GroupPayload struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
}

// LeaveGroupPayload names the member who left a group.
type LeaveGroupPayload struct {
	GroupCode string `json:"groupCode"`
	User      string `json:"user"`
}

// ErrorPayload is sent to a single client when its request is rejected.
type ErrorPayload struct {
	Message string `json:"message"`
}
