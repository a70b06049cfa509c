package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/feedcircle/feedcircle/config"
	"github.com/feedcircle/feedcircle/middleware"
	"github.com/feedcircle/feedcircle/models"
	"github.com/feedcircle/feedcircle/store"
	"github.com/feedcircle/feedcircle/utils"
)

// AuthController handles registration, login and session revocation.
type AuthController struct {
	users *store.UserStore
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{users: store.NewUserStore(db)}
}

// Register creates a new account with a bcrypt-hashed password.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=64"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	username := utils.Sanitize(strings.TrimSpace(req.Username))
	if username == "" {
		utils.Error(ctx, http.StatusBadRequest, 40011, "username cannot be empty")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to hash password")
		return
	}

	user := models.User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
	}
	if err := a.users.Create(&user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			utils.Error(ctx, http.StatusBadRequest, 40012, "username or email already exists")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to create user")
		return
	}

	utils.Success(ctx, gin.H{"user": user})
}

// Login verifies credentials and issues a bearer token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40013, "invalid request payload")
		return
	}

	user, err := a.users.FindByUsername(strings.TrimSpace(req.Username))
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid credentials")
		return
	}

	ttl := time.Duration(config.Get().TokenTTLHours) * time.Hour
	token, err := utils.GenerateToken(user.ID, user.Username, ttl)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Logout revokes the presented token until its natural expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	v, _ := ctx.Get(middleware.ContextTokenKey)
	token, _ := v.(string)
	if token == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "missing token")
		return
	}

	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "invalid token")
		return
	}
	utils.BlacklistToken(token, claims.ExpiresAt.Time)

	utils.Success(ctx, gin.H{"message": "successfully logged out"})
}

// DeleteAccount removes the caller's account and everything it owns, then
// revokes the presented token.
func (a *AuthController) DeleteAccount(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	if err := a.users.DeleteCascade(userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40412, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to delete account")
		return
	}

	if v, exists := ctx.Get(middleware.ContextTokenKey); exists {
		if token, _ := v.(string); token != "" {
			if claims, err := utils.ParseToken(token); err == nil {
				utils.BlacklistToken(token, claims.ExpiresAt.Time)
			}
		}
	}

	utils.Success(ctx, gin.H{"message": "account deleted"})
}

// Me returns the authenticated user's account.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}
	user, err := a.users.FindByID(userID)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// GetUserByUsername returns another user's public profile.
func (a *AuthController) GetUserByUsername(ctx *gin.Context) {
	user, err := a.users.FindByUsername(ctx.Param("username"))
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40411, "user not found")
		return
	}
	utils.Success(ctx, gin.H{
		"username":   user.Username,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	})
}
