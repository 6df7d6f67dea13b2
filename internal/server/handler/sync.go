package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/hemma/internal/models"
	"github.com/julianstephens/hemma/internal/server/middleware"
)

func (h *Handler) Download(c *gin.Context) {
	payload, err := h.svc.Download(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		internalError(c, "download", err)
		return
	}
	c.JSON(http.StatusOK, payload.Normalize())
}

func (h *Handler) Upload(c *gin.Context) {
	var payload models.SyncPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	merged, err := h.svc.Upload(c.Request.Context(), middleware.UserID(c), payload)
	if err != nil {
		internalError(c, "upload", err)
		return
	}
	c.JSON(http.StatusOK, merged)
}

func (h *Handler) Reset(c *gin.Context) {
	if err := h.svc.Reset(c.Request.Context(), middleware.UserID(c)); err != nil {
		internalError(c, "reset", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
