package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Stable machine-readable body codes. Clients match on these, not messages.
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeInvalidBody        = "INVALID_BODY"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeIncorrectPassword  = "INCORRECT_PASSWORD"
	CodeCurrentPwdRequired = "CURRENT_PASSWORD_REQUIRED"
	CodeForbidden          = "FORBIDDEN"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeNotFound           = "NOT_FOUND"
	CodeLoginIncorrect     = "LOGIN_INCORRECT"
	CodeDuplicateEmail     = "DUPLICATE_EMAIL"
	CodeServerError        = "SERVER_ERROR"
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

func RespondBadRequest(ctx *gin.Context, code, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, code, message, details)
}

func RespondUnauthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, CodeForbidden, message, nil)
}

func RespondNotFound(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusNotFound, code, message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

// RespondInternal never passes the underlying cause to the client; callers
// log it separately.
func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, CodeServerError, message, nil)
}
