package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/socialfeed/internal/domain/user"
	"github.com/geocoder89/socialfeed/internal/services"
	"github.com/gin-gonic/gin"
)

type Accounts interface {
	Register(ctx context.Context, req user.RegisterRequest) (services.Session, error)
	Login(ctx context.Context, req user.LoginRequest) (services.Session, error)
	Me(ctx context.Context) (user.User, error)
}

type AuthHandler struct {
	accounts Accounts
}

func NewAuthHandler(accounts Accounts) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// bcrypt dominates here
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	sess, err := h.accounts.Register(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, sess)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	sess, err := h.accounts.Login(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err, "Could not log in")
		return
	}

	ctx.JSON(http.StatusOK, sess)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.accounts.Me(cctx)
	if err != nil {
		RespondServiceError(ctx, err, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}
