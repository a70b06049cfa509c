package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/feedcircle/feedcircle/models"
	"github.com/feedcircle/feedcircle/realtime"
	"github.com/feedcircle/feedcircle/store"
	"github.com/feedcircle/feedcircle/utils"
)

// CommentController manages comments under feeds.
type CommentController struct {
	comments  *store.CommentStore
	feeds     *store.FeedStore
	groups    *store.GroupStore
	notifier  *realtime.Notifier
	roomLocks *store.KeyedMutex
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(db *gorm.DB, notifier *realtime.Notifier, roomLocks *store.KeyedMutex) *CommentController {
	return &CommentController{
		comments:  store.NewCommentStore(db),
		feeds:     store.NewFeedStore(db),
		groups:    store.NewGroupStore(db),
		notifier:  notifier,
		roomLocks: roomLocks,
	}
}

// Create adds a comment to a feed. Membership in the feed's group is
// required; the new_comment event fans out only after the row commits.
func (c *CommentController) Create(ctx *gin.Context) {
	var req struct {
		Comment string `json:"comment" binding:"required,min=1,max=300"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "comment text is required")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40140, "unauthorized")
		return
	}
	feedID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid feed id")
		return
	}

	feed, err := c.feeds.FindByID(feedID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40440, "feed not found")
		return
	}
	group, err := c.groups.FindByID(feed.GroupID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40441, "group not found")
		return
	}
	if ok, err := c.groups.IsMember(group.ID, userID); err != nil || !ok {
		utils.Error(ctx, http.StatusForbidden, 40340, "not a member of this group")
		return
	}

	text := utils.Sanitize(strings.TrimSpace(req.Comment))
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40042, "comment cannot be empty")
		return
	}

	comment := models.Comment{
		FeedID:  feedID,
		Comment: text,
		UserID:  userID,
	}

	unlock := c.roomLocks.Lock("room:" + group.Code)
	defer unlock()

	if err := c.comments.Create(&comment); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40442, "feed not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to create comment")
		return
	}

	created, err := c.comments.FindByID(comment.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load created comment")
		return
	}
	utils.InvalidateByPrefix("cache:feeds:" + group.Code + ":")

	c.notifier.CommentCreated(created, group.Code)
	utils.Success(ctx, gin.H{"comment": realtime.ComposeComment(created)})
}

// Update edits a comment's text. Only the author may edit.
func (c *CommentController) Update(ctx *gin.Context) {
	var req struct {
		Comment string `json:"comment" binding:"required,min=1,max=300"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40043, "comment text is required")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40141, "unauthorized")
		return
	}
	commentID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40044, "invalid comment id")
		return
	}

	comment, err := c.comments.FindByID(commentID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40443, "comment not found")
		return
	}
	if comment.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40341, "only the author can edit this comment")
		return
	}

	feed, err := c.feeds.FindByID(comment.FeedID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40444, "feed not found")
		return
	}
	group, err := c.groups.FindByID(feed.GroupID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40445, "group not found")
		return
	}

	text := utils.Sanitize(strings.TrimSpace(req.Comment))
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40045, "comment cannot be empty")
		return
	}

	unlock := c.roomLocks.Lock("room:" + group.Code)
	defer unlock()

	if err := c.comments.Update(commentID, text); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40446, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to update comment")
		return
	}

	updated, err := c.comments.FindByID(commentID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load updated comment")
		return
	}
	utils.InvalidateByPrefix("cache:feeds:" + group.Code + ":")

	c.notifier.CommentUpdated(updated, group.Code)
	utils.Success(ctx, gin.H{"comment": realtime.ComposeComment(updated)})
}

// Delete removes a comment. Only the author may delete.
func (c *CommentController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40142, "unauthorized")
		return
	}
	commentID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40046, "invalid comment id")
		return
	}

	comment, err := c.comments.FindByID(commentID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40447, "comment not found")
		return
	}
	if comment.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40342, "only the author can delete this comment")
		return
	}

	feed, err := c.feeds.FindByID(comment.FeedID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40448, "feed not found")
		return
	}
	group, err := c.groups.FindByID(feed.GroupID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40449, "group not found")
		return
	}

	unlock := c.roomLocks.Lock("room:" + group.Code)
	defer unlock()

	if err := c.comments.Delete(commentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40450, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to delete comment")
		return
	}
	utils.InvalidateByPrefix("cache:feeds:" + group.Code + ":")

	c.notifier.CommentDeleted(comment.FeedID, commentID, group.Code)
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}
