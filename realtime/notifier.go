package realtime

import (
	"time"

	"github.com/feedcircle/feedcircle/models"
)

// Notifier builds the outbound payload for each event type from the
// persisted entity plus denormalized author and group fields, then hands
// it to the hub. Callers invoke it only after their durable write has
// committed; a lost notification never invalidates the write.
type Notifier struct {
	hub *Hub
}

// NewNotifier creates a Notifier publishing through hub.
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

// ComposeComment flattens a comment with its preloaded author.
func ComposeComment(c *models.Comment) CommentPayload {
	return CommentPayload{
		ID:      c.ID,
		Comment: c.Comment,
		AddedBy: c.Author.Username,
		AddedAt: c.AddedAt,
	}
}

// ComposeFeed flattens a feed with its preloaded creator and comments.
func ComposeFeed(f *models.Feed, groupCode string) FeedPayload {
	comments := make([]CommentPayload, 0, len(f.Comments))
	for i := range f.Comments {
		comments = append(comments, ComposeComment(&f.Comments[i]))
	}
	return FeedPayload{
		ID:        f.ID,
		Heading:   f.Heading,
		Content:   f.Content,
		Picture:   f.Picture,
		CreatedBy: f.Creator.Username,
		CreatedAt: f.CreatedAt,
		Comments:  comments,
		GroupCode: groupCode,
	}
}

// FeedCreated announces a new feed to its group's room.
func (n *Notifier) FeedCreated(feed *models.Feed, groupCode string) {
	n.hub.Publish(groupCode, EventNewFeed, ComposeFeed(feed, groupCode))
}

// FeedUpdated announces an edited feed, comments fully serialized.
func (n *Notifier) FeedUpdated(feed *models.Feed, groupCode string) {
	n.hub.Publish(groupCode, EventUpdateFeed, ComposeFeed(feed, groupCode))
}

// FeedDeleted announces a removed feed.
func (n *Notifier) FeedDeleted(feedID uint, groupCode string) {
	n.hub.Publish(groupCode, EventDeleteFeed, DeleteFeedPayload{FeedID: feedID})
}

// FeedLiked publishes the feed's fresh like count after a toggle.
func (n *Notifier) FeedLiked(feedID uint, likeCount int64, groupCode string) {
	n.hub.Publish(groupCode, EventLikeFeed, LikePayload{
		FeedID:    feedID,
		LikeCount: likeCount,
		GroupCode: groupCode,
	})
}

// CommentCreated announces a new comment on a feed.
func (n *Notifier) CommentCreated(comment *models.Comment, groupCode string) {
	n.hub.Publish(groupCode, EventNewComment, CommentEventPayload{
		FeedID:  comment.FeedID,
		Comment: ComposeComment(comment),
	})
}

// CommentUpdated announces an edited comment.
func (n *Notifier) CommentUpdated(comment *models.Comment, groupCode string) {
	n.hub.Publish(groupCode, EventUpdateComment, CommentEventPayload{
		FeedID:  comment.FeedID,
		Comment: ComposeComment(comment),
	})
}

// CommentDeleted announces a removed comment.
func (n *Notifier) CommentDeleted(feedID, commentID uint, groupCode string) {
	n.hub.Publish(groupCode, EventDeleteComment, DeleteCommentPayload{
		FeedID:    feedID,
		CommentID: commentID,
	})
}

// MessageSent fans a persisted chat message out to the group's room.
func (n *Notifier) MessageSent(username, content string, ts time.Time, groupCode string) {
	n.hub.Publish(groupCode, EventMessage, MessagePayload{
		User:      username,
		Content:   content,
		Timestamp: ts,
		GroupCode: groupCode,
	})
}

// GroupUpdated announces changed group metadata.
func (n *Notifier) GroupUpdated(group *models.Group, creator string) {
	n.hub.Publish(group.Code, EventUpdateGroup, GroupPayload{
		ID:          group.ID,
		Name:        group.Name,
		Code:        group.Code,
		Description: group.Description,
		CreatedBy:   creator,
	})
}

// GroupDeleted tells members still in the room that the group is gone.
func (n *Notifier) GroupDeleted(groupCode string) {
	n.hub.Publish(groupCode, EventDeleteGroup, RoomPayload{GroupCode: groupCode})
}

// MemberLeft announces that a user left the group.
func (n *Notifier) MemberLeft(groupCode, username string) {
	n.hub.Publish(groupCode, EventLeaveGroup, LeaveGroupPayload{
		GroupCode: groupCode,
		User:      username,
	})
}
