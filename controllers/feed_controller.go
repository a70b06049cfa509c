package controllers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feedcircle/feedcircle/models"
	"github.com/feedcircle/feedcircle/realtime"
	"github.com/feedcircle/feedcircle/storage"
	"github.com/feedcircle/feedcircle/store"
	"github.com/feedcircle/feedcircle/utils"
)

const feedsPerPage = 10

// FeedController manages feed CRUD and like toggling inside groups.
type FeedController struct {
	feeds     *store.FeedStore
	groups    *store.GroupStore
	likes     *store.LikeStore
	notifier  *realtime.Notifier
	objects   storage.ObjectStore
	roomLocks *store.KeyedMutex
}

// NewFeedController creates a new FeedController instance.
func NewFeedController(db *gorm.DB, notifier *realtime.Notifier, objects storage.ObjectStore, roomLocks *store.KeyedMutex) *FeedController {
	return &FeedController{
		feeds:     store.NewFeedStore(db),
		groups:    store.NewGroupStore(db),
		likes:     store.NewLikeStore(db),
		notifier:  notifier,
		objects:   objects,
		roomLocks: roomLocks,
	}
}

// feedView is the REST list shape: the realtime feed payload plus the
// current like count.
type feedView struct {
	realtime.FeedPayload
	Likes int64 `json:"likes"`
}

// Create adds a feed to a group, storing the optional base64 picture
// before the row so a failed insert leaves no dangling reference to it.
func (f *FeedController) Create(ctx *gin.Context) {
	var req struct {
		Heading   string `json:"heading" binding:"required,min=1,max=150"`
		Content   string `json:"content" binding:"required,max=500"`
		GroupCode string `json:"groupCode" binding:"required"`
		Photo     string `json:"photo"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "heading and content are required")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}

	group, err := f.groups.FindByCode(req.GroupCode)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40430, "group not found")
		return
	}
	if ok, err := f.groups.IsMember(group.ID, userID); err != nil || !ok {
		utils.Error(ctx, http.StatusForbidden, 40330, "not a member of this group")
		return
	}

	picture := ""
	if req.Photo != "" {
		data, err := decodePhoto(req.Photo)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40031, "invalid photo encoding")
			return
		}
		picture = fmt.Sprintf("feed_%s.jpg", uuid.NewString())
		if err := f.objects.Put(picture, data); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to store picture")
			return
		}
	}

	feed := models.Feed{
		Heading:   utils.Sanitize(strings.TrimSpace(req.Heading)),
		Content:   utils.Sanitize(req.Content),
		Picture:   picture,
		CreatedBy: userID,
		GroupID:   group.ID,
	}

	unlock := f.roomLocks.Lock("room:" + group.Code)
	defer unlock()

	if err := f.feeds.Create(&feed); err != nil {
		if picture != "" {
			_ = f.objects.Delete(picture)
		}
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to create feed")
		return
	}

	created, err := f.feeds.FindByID(feed.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load created feed")
		return
	}
	utils.InvalidateByPrefix("cache:feeds:" + group.Code + ":")

	f.notifier.FeedCreated(created, group.Code)
	utils.Success(ctx, gin.H{"feed_id": created.ID})
}

// List returns one page of a group's feeds with comments and like counts,
// newest first. Pages without a search dimension are cached briefly.
func (f *FeedController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40131, "unauthorized")
		return
	}

	code := ctx.Param("code")
	group, err := f.groups.FindByCode(code)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40431, "group not found")
		return
	}
	if ok, err := f.groups.IsMember(group.ID, userID); err != nil || !ok {
		utils.Error(ctx, http.StatusForbidden, 40331, "not a member of this group")
		return
	}

	page := parsePage(ctx.Query("page"))
	cacheKey := fmt.Sprintf("cache:feeds:%s:page=%d", code, page)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	feeds, total, err := f.feeds.ListByGroup(group.ID, page, feedsPerPage)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to list feeds")
		return
	}

	items := make([]feedView, 0, len(feeds))
	for i := range feeds {
		count, err := f.likes.Count(feeds[i].ID)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to count likes")
			return
		}
		items = append(items, feedView{
			FeedPayload: realtime.ComposeFeed(&feeds[i], code),
			Likes:       count,
		})
	}

	payload := utils.JSONResponse{
		Code:    0,
		Message: "success",
		Data: gin.H{
			"feeds":        items,
			"total":        total,
			"pages":        (total + feedsPerPage - 1) / feedsPerPage,
			"current_page": page,
		},
	}
	utils.CacheSetJSON(cacheKey, payload, 5*time.Minute)
	ctx.JSON(http.StatusOK, payload)
}

// Update edits a feed's heading/content and optionally replaces its
// picture. Only the creator may edit. update_feed carries the full
// serialized comment list.
func (f *FeedController) Update(ctx *gin.Context) {
	var req struct {
		Heading string `json:"heading" binding:"required,min=1,max=150"`
		Content string `json:"content" binding:"required,max=500"`
		Photo   string `json:"photo"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40032, "heading and content are required")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40132, "unauthorized")
		return
	}
	feedID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40033, "invalid feed id")
		return
	}

	feed, err := f.feeds.FindByID(feedID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40432, "feed not found")
		return
	}
	if feed.CreatedBy != userID {
		utils.Error(ctx, http.StatusForbidden, 40332, "only the author can edit this feed")
		return
	}

	group, err := f.groups.FindByID(feed.GroupID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40433, "group not found")
		return
	}

	feed.Heading = utils.Sanitize(strings.TrimSpace(req.Heading))
	feed.Content = utils.Sanitize(req.Content)

	// A replacement picture goes under a fresh name; the previous object
	// stays intact until the row update commits.
	oldPicture := feed.Picture
	newPicture := ""
	if req.Photo != "" {
		data, err := decodePhoto(req.Photo)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40034, "invalid photo encoding")
			return
		}
		newPicture = fmt.Sprintf("feed_%s.jpg", uuid.NewString())
		if err := f.objects.Put(newPicture, data); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to store picture")
			return
		}
		feed.Picture = newPicture
	}

	unlock := f.roomLocks.Lock("room:" + group.Code)
	defer unlock()

	if err := f.feeds.Update(feed); err != nil {
		if newPicture != "" {
			_ = f.objects.Delete(newPicture)
		}
		utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to update feed")
		return
	}
	if newPicture != "" && oldPicture != "" {
		if err := f.objects.Delete(oldPicture); err != nil {
			utils.Sugar.Warnf("failed to delete picture %s: %v", oldPicture, err)
		}
	}

	updated, err := f.feeds.FindByID(feed.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50037, "failed to load updated feed")
		return
	}
	utils.InvalidateByPrefix("cache:feeds:" + group.Code + ":")

	f.notifier.FeedUpdated(updated, group.Code)
	utils.Success(ctx, gin.H{"message": "feed updated"})
}

// Delete removes a feed, its comments and likes, and its stored picture.
func (f *FeedController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40133, "unauthorized")
		return
	}
	feedID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40035, "invalid feed id")
		return
	}

	feed, err := f.feeds.FindByID(feedID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40434, "feed not found")
		return
	}
	if feed.CreatedBy != userID {
		utils.Error(ctx, http.StatusForbidden, 40333, "only the author can delete this feed")
		return
	}

	group, err := f.groups.FindByID(feed.GroupID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40435, "group not found")
		return
	}

	unlock := f.roomLocks.Lock("room:" + group.Code)
	defer unlock()

	if err := f.feeds.DeleteCascade(feed.ID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50038, "failed to delete feed")
		return
	}
	if feed.Picture != "" {
		if err := f.objects.Delete(feed.Picture); err != nil {
			utils.Sugar.Warnf("failed to delete picture %s: %v", feed.Picture, err)
		}
	}
	utils.InvalidateByPrefix("cache:feeds:" + group.Code + ":")

	f.notifier.FeedDeleted(feed.ID, group.Code)
	utils.Success(ctx, gin.H{"message": "feed deleted"})
}

// ToggleLike flips the caller's like on a feed and fans out the fresh
// count. Serialized per (user, feed) so racing toggles cannot double-insert.
func (f *FeedController) ToggleLike(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40134, "unauthorized")
		return
	}
	feedID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40036, "invalid feed id")
		return
	}

	feed, err := f.feeds.FindByID(feedID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40436, "feed not found")
		return
	}
	group, err := f.groups.FindByID(feed.GroupID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40437, "group not found")
		return
	}
	if ok, err := f.groups.IsMember(group.ID, userID); err != nil || !ok {
		utils.Error(ctx, http.StatusForbidden, 40334, "not a member of this group")
		return
	}

	unlockPair := f.roomLocks.Lock(fmt.Sprintf("like:%d:%d", userID, feedID))
	defer unlockPair()
	unlockRoom := f.roomLocks.Lock("room:" + group.Code)
	defer unlockRoom()

	liked, count, err := f.likes.Toggle(userID, feedID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40438, "feed not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50039, "failed to toggle like")
		return
	}
	utils.InvalidateByPrefix("cache:feeds:" + group.Code + ":")

	f.notifier.FeedLiked(feedID, count, group.Code)
	utils.Success(ctx, gin.H{"liked": liked, "like_count": count})
}

// decodePhoto accepts either a raw base64 string or a data URL.
func decodePhoto(raw string) ([]byte, error) {
	if idx := strings.IndexByte(raw, ','); idx >= 0 && strings.HasPrefix(raw, "data:") {
		raw = raw[idx+1:]
	}
	return base64.StdEncoding.DecodeString(raw)
}
