package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/socialfeed/internal/domain/post"
	"github.com/geocoder89/socialfeed/internal/utils"
	"github.com/gin-gonic/gin"
)

// Feed is the slice of the feed service the post routes need.
type Feed interface {
	Create(ctx context.Context, content string) (post.View, error)
	List(ctx context.Context, page, limit int) (post.FeedPage, error)
	ListByAuthor(ctx context.Context, authorID string) ([]post.View, error)
}

type PostsHandler struct {
	feed Feed
}

func NewPostsHandler(feed Feed) *PostsHandler {
	return &PostsHandler{feed: feed}
}

func (h *PostsHandler) Create(ctx *gin.Context) {
	var req post.CreatePostRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	created, err := h.feed.Create(cctx, req.Content)
	if err != nil {
		RespondServiceError(ctx, err, "Could not create post")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *PostsHandler) List(ctx *gin.Context) {
	page := utils.PositiveIntOr(ctx.Query("page"), post.DefaultPage)
	limit := utils.PositiveIntOr(ctx.Query("limit"), post.DefaultLimit)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	feed, err := h.feed.List(cctx, page, limit)
	if err != nil {
		RespondServiceError(ctx, err, "Could not list posts")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, feed)
}
