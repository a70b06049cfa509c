package controllers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/feedcircle/feedcircle/middleware"
)

// errNotMember marks a mutation attempted by a user outside the target
// group. Every mutation path checks membership; the realtime and REST
// layers map this onto their own rejection shapes.
var errNotMember = errors.New("not a member of this group")

func getUserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func getUsername(ctx *gin.Context) string {
	v, ok := ctx.Get(middleware.ContextUsernameKey)
	if !ok {
		return ""
	}
	name, _ := v.(string)
	return name
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
