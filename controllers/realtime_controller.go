package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/feedcircle/feedcircle/config"
	"github.com/feedcircle/feedcircle/realtime"
	"github.com/feedcircle/feedcircle/store"
	"github.com/feedcircle/feedcircle/utils"
)

// RealtimeController upgrades authenticated connections to websockets and
// dispatches their join/leave/message events onto the hub.
type RealtimeController struct {
	hub      *realtime.Hub
	groups   *store.GroupStore
	chat     *ChatController
	upgrader websocket.Upgrader
}

// NewRealtimeController creates a new RealtimeController instance.
func NewRealtimeController(db *gorm.DB, hub *realtime.Hub, chat *ChatController) *RealtimeController {
	allowed := config.Get().AllowedOrigins
	return &RealtimeController{
		hub:    hub,
		groups: store.NewGroupStore(db),
		chat:   chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, o := range allowed {
					if o == "*" || strings.EqualFold(o, origin) {
						return true
					}
				}
				return false
			},
		},
	}
}

// Serve authenticates the request and upgrades it. Browsers cannot set
// headers on websocket dials, so the token is also accepted as a query
// parameter. Bad credentials are refused before the upgrade with a plain
// 401 so the client sees the handshake fail.
func (r *RealtimeController) Serve(ctx *gin.Context) {
	token := ctx.Query("token")
	if token == "" {
		header := ctx.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if token == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40160, "missing token")
		return
	}
	if utils.IsTokenBlacklisted(token) {
		utils.Error(ctx, http.StatusUnauthorized, 40161, "token revoked")
		return
	}
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40162, "invalid token")
		return
	}

	conn, err := r.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		utils.Sugar.Warnf("realtime: upgrade failed for user %d: %v", claims.UserID, err)
		return
	}

	client := realtime.NewClient(r.hub, conn, claims.UserID, claims.Username)
	utils.Sugar.Infof("realtime: client %s connected (user=%s)", client.ID, client.Username)

	go client.WritePump()
	client.ReadPump(r.dispatch)

	utils.Sugar.Infof("realtime: client %s disconnected", client.ID)
}

// dispatch routes one inbound envelope. Rejections go back to the sender
// alone as error frames; they never fan out.
func (r *RealtimeController) dispatch(c *realtime.Client, env realtime.Envelope) {
	switch env.Event {
	case realtime.EventJoin:
		r.handleJoin(c, env.Data)
	case realtime.EventLeave:
		r.handleLeave(c, env.Data)
	case realtime.EventMessage:
		r.handleMessage(c, env.Data)
	default:
		c.Send(realtime.EventError, realtime.ErrorPayload{Message: "unknown event: " + env.Event})
	}
}

// handleJoin verifies the group exists and the client is a member before
// adding it to the room. Joining twice is acked again, not an error.
func (r *RealtimeController) handleJoin(c *realtime.Client, data json.RawMessage) {
	var req realtime.RoomPayload
	if err := json.Unmarshal(data, &req); err != nil || req.GroupCode == "" {
		c.Send(realtime.EventError, realtime.ErrorPayload{Message: "groupCode is required"})
		return
	}

	group, err := r.groups.FindByCode(req.GroupCode)
	if err != nil {
		c.Send(realtime.EventError, realtime.ErrorPayload{Message: "group not found"})
		return
	}
	member, err := r.groups.IsMember(group.ID, c.UserID)
	if err != nil || !member {
		c.Send(realtime.EventError, realtime.ErrorPayload{Message: "not a member of this group"})
		return
	}

	r.hub.Join(c, group.Code)
	c.Send(realtime.EventJoin, realtime.RoomPayload{GroupCode: group.Code})
}

// handleLeave drops the client from the room. Leaving a room it never
// joined still acks so clients can treat leave as idempotent.
func (r *RealtimeController) handleLeave(c *realtime.Client, data json.RawMessage) {
	var req realtime.RoomPayload
	if err := json.Unmarshal(data, &req); err != nil || req.GroupCode == "" {
		c.Send(realtime.EventError, realtime.ErrorPayload{Message: "groupCode is required"})
		return
	}

	r.hub.Leave(c, req.GroupCode)
	c.Send(realtime.EventLeave, realtime.RoomPayload{GroupCode: req.GroupCode})
}

// handleMessage persists and fans out a chat message through the same
// path the REST route uses.
func (r *RealtimeController) handleMessage(c *realtime.Client, data json.RawMessage) {
	var req realtime.ChatSendPayload
	if err := json.Unmarshal(data, &req); err != nil || req.GroupCode == "" {
		c.Send(realtime.EventError, realtime.ErrorPayload{Message: "groupCode and content are required"})
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.Send(realtime.EventError, realtime.ErrorPayload{Message: "message cannot be empty"})
		return
	}

	_, err := r.chat.Send(c.UserID, c.Username, req.GroupCode, content)
	switch {
	case err == nil:
	case err == errNotMember:
		c.Send(realtime.EventError, realtime.ErrorPayload{Message: "not a member of this group"})
	case err == store.ErrNotFound:
		c.Send(realtime.EventError, realtime.ErrorPayload{Message: "group not found"})
	default:
		c.Send(realtime.EventError, realtime.ErrorPayload{Message: "failed to send message"})
	}
}
