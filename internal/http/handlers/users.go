package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/socialfeed/internal/domain/user"
	"github.com/geocoder89/socialfeed/internal/utils"
	"github.com/gin-gonic/gin"
)

type Profiles interface {
	Get(ctx context.Context, id string) (user.User, error)
	UpdateOwn(ctx context.Context, req user.UpdateProfileRequest) (user.Profile, error)
}

type UsersHandler struct {
	profiles Profiles
	feed     Feed
}

func NewUsersHandler(profiles Profiles, feed Feed) *UsersHandler {
	return &UsersHandler{profiles: profiles, feed: feed}
}

func (h *UsersHandler) GetByID(ctx *gin.Context) {
	id, ok := userIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.profiles.Get(cctx, id)
	if err != nil {
		RespondServiceError(ctx, err, "Could not fetch user")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, u)
}

func (h *UsersHandler) ListPosts(ctx *gin.Context) {
	id, ok := userIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	posts, err := h.feed.ListByAuthor(cctx, id)
	if err != nil {
		RespondServiceError(ctx, err, "Could not list user posts")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, posts)
}

// UpdateProfile edits the authenticated caller. The target user comes from
// the access token, never from the path or body.
func (h *UsersHandler) UpdateProfile(ctx *gin.Context) {
	var req user.UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	profile, err := h.profiles.UpdateOwn(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err, "Could not update profile")
		return
	}

	ctx.JSON(http.StatusOK, profile)
}

func userIDParam(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "Invalid user id", gin.H{"id": id})
		return "", false
	}

	return id, true
}
