package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/hemma/internal/logger"
)

// errorBody matches what the client decodes into remote.APIError.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorBody{Error: code, Message: message})
}

func internalError(c *gin.Context, op string, err error) {
	logger.Error("Handler failed", "op", op, "error", err)
	_ = c.Error(err)
	respondError(c, http.StatusInternalServerError, "internal_error", "internal server error")
}
