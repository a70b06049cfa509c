package routes

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/feedcircle/feedcircle/config"
	"github.com/feedcircle/feedcircle/controllers"
	"github.com/feedcircle/feedcircle/middleware"
	"github.com/feedcircle/feedcircle/realtime"
	"github.com/feedcircle/feedcircle/storage"
	"github.com/feedcircle/feedcircle/store"
	"github.com/feedcircle/feedcircle/utils"
)

// SetupRouter wires middlewares, controllers and the realtime hub.
func SetupRouter(db *gorm.DB) (*gin.Engine, error) {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.Ginzap(utils.Logger, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(utils.Logger, false))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RateLimitMiddleware())

	objects, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	hub := realtime.NewHub()
	notifier := realtime.NewNotifier(hub)
	roomLocks := store.NewKeyedMutex()

	auth := controllers.NewAuthController(db)
	groups := controllers.NewGroupController(db, notifier, objects, roomLocks)
	feeds := controllers.NewFeedController(db, notifier, objects, roomLocks)
	comments := controllers.NewCommentController(db, notifier, roomLocks)
	chat := controllers.NewChatController(db, notifier, roomLocks)
	rt := controllers.NewRealtimeController(db, hub, chat)

	// Pictures are served straight out of the object store.
	r.GET("/uploads/:filename", func(ctx *gin.Context) {
		data, err := objects.Get(ctx.Param("filename"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				utils.Error(ctx, http.StatusNotFound, 40460, "file not found")
				return
			}
			utils.Error(ctx, http.StatusBadRequest, 40060, "invalid file name")
			return
		}
		ctx.Data(http.StatusOK, "image/jpeg", data)
	})

	api := r.Group("/api/v1")
	{
		api.POST("/auth/register", auth.Register)
		api.POST("/auth/login", auth.Login)

		authed := api.Group("")
		authed.Use(middleware.AuthRequired())
		{
			authed.POST("/auth/logout", auth.Logout)
			authed.GET("/auth/me", auth.Me)
			authed.DELETE("/auth/me", auth.DeleteAccount)
			authed.GET("/users/:username", auth.GetUserByUsername)

			authed.POST("/groups", groups.Create)
			authed.GET("/groups", groups.ListMine)
			authed.POST("/groups/join", groups.Join)
			authed.PUT("/groups/:code", groups.Update)
			authed.DELETE("/groups/:code", groups.Delete)
			authed.POST("/groups/:code/leave", groups.Leave)

			authed.GET("/groups/:code/feeds", feeds.List)
			authed.POST("/feeds", feeds.Create)
			authed.PUT("/feeds/:id", feeds.Update)
			authed.DELETE("/feeds/:id", feeds.Delete)
			authed.POST("/feeds/:id/like", feeds.ToggleLike)

			authed.POST("/feeds/:id/comments", comments.Create)
			authed.PUT("/comments/:id", comments.Update)
			authed.DELETE("/comments/:id", comments.Delete)

			authed.GET("/groups/:code/messages", chat.List)
			authed.POST("/groups/:code/messages", chat.SendHTTP)
		}
	}

	// The websocket endpoint authenticates inside the handler so the token
	// can arrive as a query parameter.
	r.GET("/ws", rt.Serve)

	return r, nil
}
