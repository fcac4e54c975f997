package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/socialfeed/internal/domain/user"
	"github.com/geocoder89/socialfeed/internal/services"
	"github.com/geocoder89/socialfeed/internal/validation"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

func RespondValidation(ctx *gin.Context, verr *validation.Error) {
	RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": verr.Fields})
}

// RespondServiceError maps a service-layer error onto the error envelope.
// Storage failures are logged here and reported without detail.
func RespondServiceError(ctx *gin.Context, err error, fallback string) {
	var verr *validation.Error

	switch {
	case errors.As(err, &verr):
		RespondValidation(ctx, verr)
	case errors.Is(err, services.ErrUnauthenticated):
		RespondUnAuthorized(ctx, "unauthorized", "Authentication required")
	case errors.Is(err, services.ErrInvalidCredentials):
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
	case errors.Is(err, user.ErrNotFound):
		RespondError(ctx, http.StatusNotFound, "user_not_found", "User not found", nil)
	case errors.Is(err, user.ErrEmailTaken):
		RespondConflict(ctx, "email_taken", "Email is already in use.")
	default:
		slog.Default().ErrorContext(ctx.Request.Context(), fallback,
			"err", err,
			"route", ctx.FullPath(),
			"request_id", requestIDFrom(ctx),
		)
		RespondInternal(ctx, fallback)
	}
}
