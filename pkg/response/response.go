package response

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the failure envelope: {"error": "<message>"}.
type ErrorBody struct {
	Error string `json:"error"`
}

// UserBody is the envelope of the current-user endpoint.
type UserBody[T any] struct {
	User T `json:"user"`
}

// SessionBody is the envelope of login and signup. Session is passed
// through exactly as the identity provider returned it, null when absent.
type SessionBody[T any] struct {
	User    T               `json:"user"`
	Session json.RawMessage `json:"session"`
}

func Success[T any](ctx *gin.Context, status int, user T) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, UserBody[T]{User: user})
}

func WithSession[T any](ctx *gin.Context, status int, user T, session json.RawMessage) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, SessionBody[T]{User: user, Session: session})
}

func Error(ctx *gin.Context, status int, message string) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	ctx.JSON(status, ErrorBody{Error: message})
}

// Abort writes the error envelope and stops the handler chain.
func Abort(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, ErrorBody{Error: message})
}
