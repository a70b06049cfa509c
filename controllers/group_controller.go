package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/feedcircle/feedcircle/models"
	"github.com/feedcircle/feedcircle/realtime"
	"github.com/feedcircle/feedcircle/storage"
	"github.com/feedcircle/feedcircle/store"
	"github.com/feedcircle/feedcircle/utils"
)

const groupCodeLength = 6

// GroupController manages groups and their membership.
type GroupController struct {
	groups    *store.GroupStore
	users     *store.UserStore
	notifier  *realtime.Notifier
	objects   storage.ObjectStore
	roomLocks *store.KeyedMutex
}

// NewGroupController creates a new GroupController instance.
func NewGroupController(db *gorm.DB, notifier *realtime.Notifier, objects storage.ObjectStore, roomLocks *store.KeyedMutex) *GroupController {
	return &GroupController{
		groups:    store.NewGroupStore(db),
		users:     store.NewUserStore(db),
		notifier:  notifier,
		objects:   objects,
		roomLocks: roomLocks,
	}
}

// Create registers a new group with a fresh join code; the creator becomes
// its first member. Code collisions are retried a few times before giving up.
func (g *GroupController) Create(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=1,max=100"`
		Description string `json:"description" binding:"max=255"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	name := utils.Sanitize(strings.TrimSpace(req.Name))
	if name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "group name cannot be empty")
		return
	}

	group := models.Group{
		Name:        name,
		Description: utils.Sanitize(strings.TrimSpace(req.Description)),
		CreatedBy:   userID,
	}

	for attempt := 0; ; attempt++ {
		code, err := utils.GenerateGroupCode(groupCodeLength)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to generate join code")
			return
		}
		group.Code = code

		err = g.groups.Create(&group)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrConflict) {
			// A name conflict will never resolve by rerolling the code.
			if existing, ferr := g.groups.FindByCode(code); ferr != nil || existing == nil {
				utils.Error(ctx, http.StatusBadRequest, 40022, "group name already exists")
				return
			}
			if attempt < 3 {
				continue
			}
		}
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to create group")
		return
	}

	utils.Success(ctx, gin.H{"group": group})
}

// Join adds the caller to the group named by its join code. Joining a
// group twice is reported, not treated as an error.
func (g *GroupController) Join(ctx *gin.Context) {
	var req struct {
		GroupCode string `json:"groupCode" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "groupCode is required")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40121, "unauthorized")
		return
	}

	group, err := g.groups.FindByCode(strings.ToUpper(strings.TrimSpace(req.GroupCode)))
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40420, "group not found")
		return
	}

	already, err := g.groups.IsMember(group.ID, userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to check membership")
		return
	}
	if !already {
		if err := g.groups.AddMember(group.ID, userID); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to join group")
			return
		}
	}

	utils.Success(ctx, gin.H{"group": group, "already_member": already})
}

// ListMine returns every group the caller belongs to.
func (g *GroupController) ListMine(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40122, "unauthorized")
		return
	}
	groups, err := g.groups.ListForUser(userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to list groups")
		return
	}
	utils.Success(ctx, gin.H{"groups": groups})
}

// Update edits a group's name/description. Only the creator may edit; the
// change fans out as update_group once it is durable.
func (g *GroupController) Update(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=1,max=100"`
		Description string `json:"description" binding:"max=255"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40123, "unauthorized")
		return
	}

	group, err := g.groups.FindByCode(ctx.Param("code"))
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40421, "group not found")
		return
	}
	if group.CreatedBy != userID {
		utils.Error(ctx, http.StatusForbidden, 40320, "only the group creator can edit it")
		return
	}

	group.Name = utils.Sanitize(strings.TrimSpace(req.Name))
	group.Description = utils.Sanitize(strings.TrimSpace(req.Description))

	unlock := g.roomLocks.Lock("room:" + group.Code)
	defer unlock()

	if err := g.groups.Update(group); err != nil {
		if errors.Is(err, store.ErrConflict) {
			utils.Error(ctx, http.StatusBadRequest, 40025, "group name already exists")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to update group")
		return
	}

	g.notifier.GroupUpdated(group, getUsername(ctx))
	utils.Success(ctx, gin.H{"group": group})
}

// Delete removes a group and everything it owns. Members still joined to
// the room learn about it through delete_group.
func (g *GroupController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40124, "unauthorized")
		return
	}

	group, err := g.groups.FindByCode(ctx.Param("code"))
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40422, "group not found")
		return
	}
	if group.CreatedBy != userID {
		utils.Error(ctx, http.StatusForbidden, 40321, "only the group creator can delete it")
		return
	}

	unlock := g.roomLocks.Lock("room:" + group.Code)
	defer unlock()

	pictures, err := g.groups.DeleteCascade(group.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to delete group")
		return
	}
	for _, pic := range pictures {
		if err := g.objects.Delete(pic); err != nil {
			utils.Sugar.Warnf("failed to delete picture %s: %v", pic, err)
		}
	}
	utils.InvalidateByPrefix("cache:feeds:" + group.Code + ":")
	utils.InvalidateByPrefix("cache:messages:" + group.Code)

	g.notifier.GroupDeleted(group.Code)
	utils.Success(ctx, gin.H{"message": "group deleted"})
}

// Leave drops the caller's membership and announces it to the room.
func (g *GroupController) Leave(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40125, "unauthorized")
		return
	}

	group, err := g.groups.FindByCode(ctx.Param("code"))
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40423, "group not found")
		return
	}

	member, err := g.groups.IsMember(group.ID, userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to check membership")
		return
	}
	if !member {
		utils.Error(ctx, http.StatusForbidden, 40322, "not a member of this group")
		return
	}

	unlock := g.roomLocks.Lock("room:" + group.Code)
	defer unlock()

	if err := g.groups.RemoveMember(group.ID, userID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to leave group")
		return
	}

	g.notifier.MemberLeft(group.Code, getUsername(ctx))
	utils.Success(ctx, gin.H{"message": "left the group"})
}
