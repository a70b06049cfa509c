package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/feedcircle/feedcircle/models"
	"github.com/feedcircle/feedcircle/realtime"
	"github.com/feedcircle/feedcircle/store"
	"github.com/feedcircle/feedcircle/utils"
)

// ChatController manages per-group chat history. Send is shared between
// the REST route and the websocket message event so both paths persist
// and fan out identically.
type ChatController struct {
	messages  *store.MessageStore
	groups    *store.GroupStore
	notifier  *realtime.Notifier
	roomLocks *store.KeyedMutex
}

// NewChatController creates a new ChatController instance.
func NewChatController(db *gorm.DB, notifier *realtime.Notifier, roomLocks *store.KeyedMutex) *ChatController {
	return &ChatController{
		messages:  store.NewMessageStore(db),
		groups:    store.NewGroupStore(db),
		notifier:  notifier,
		roomLocks: roomLocks,
	}
}

// Send persists a chat message and fans it out to the group's room.
// Returns store.ErrNotFound when the group code is unknown and
// errNotMember when the sender does not belong to the group.
func (c *ChatController) Send(userID uint, username, groupCode, content string) (*models.ChatMessage, error) {
	group, err := c.groups.FindByCode(groupCode)
	if err != nil {
		return nil, err
	}
	member, err := c.groups.IsMember(group.ID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, errNotMember
	}

	msg := models.ChatMessage{
		UserID:  userID,
		GroupID: group.ID,
		Message: utils.Sanitize(content),
	}

	unlock := c.roomLocks.Lock("room:" + group.Code)
	defer unlock()

	if err := c.messages.Create(&msg); err != nil {
		return nil, err
	}
	utils.InvalidateByPrefix("cache:messages:" + group.Code)

	c.notifier.MessageSent(username, msg.Message, msg.Timestamp, group.Code)
	return &msg, nil
}

// SendHTTP is the REST entry point for sending a chat message.
func (c *ChatController) SendHTTP(ctx *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required,min=1,max=1000"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "message is required")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40150, "unauthorized")
		return
	}

	content := strings.TrimSpace(req.Message)
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40051, "message cannot be empty")
		return
	}

	msg, err := c.Send(userID, getUsername(ctx), ctx.Param("code"), content)
	switch {
	case err == nil:
		utils.Success(ctx, gin.H{"message_id": msg.ID, "timestamp": msg.Timestamp})
	case err == errNotMember:
		utils.Error(ctx, http.StatusForbidden, 40350, "not a member of this group")
	case err == store.ErrNotFound:
		utils.Error(ctx, http.StatusNotFound, 40451, "group not found")
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to send message")
	}
}

// List returns a group's full chat history, oldest first.
func (c *ChatController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40151, "unauthorized")
		return
	}

	code := ctx.Param("code")
	group, err := c.groups.FindByCode(code)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40452, "group not found")
		return
	}
	if ok, err := c.groups.IsMember(group.ID, userID); err != nil || !ok {
		utils.Error(ctx, http.StatusForbidden, 40351, "not a member of this group")
		return
	}

	cacheKey := "cache:messages:" + code
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	msgs, err := c.messages.ListByGroup(group.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to list messages")
		return
	}

	items := make([]realtime.MessagePayload, 0, len(msgs))
	for i := range msgs {
		items = append(items, realtime.MessagePayload{
			User:      msgs[i].Author.Username,
			Content:   msgs[i].Message,
			Timestamp: msgs[i].Timestamp,
			GroupCode: code,
		})
	}

	payload := utils.JSONResponse{
		Code:    0,
		Message: "success",
		Data:    gin.H{"messages": items},
	}
	utils.CacheSetJSON(cacheKey, payload, time.Minute)
	ctx.JSON(http.StatusOK, payload)
}
