// Package handler binds the sync server's HTTP endpoints to the service.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/hemma/internal/server/middleware"
	"github.com/julianstephens/hemma/internal/server/service"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	RegisterValidators()
	return &Handler{svc: svc}
}

type registerRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Email string `json:"email" binding:"required,email,max=254"`
	// bcrypt ignores everything past 72 bytes
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := h.svc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		respondError(c, http.StatusConflict, "email_taken", err.Error())
	case err != nil:
		internalError(c, "register", err)
	default:
		c.JSON(http.StatusCreated, resp)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case err != nil:
		internalError(c, "login", err)
	default:
		c.JSON(http.StatusOK, resp)
	}
}

func (h *Handler) Profile(c *gin.Context) {
	user, err := h.svc.Profile(c.Request.Context(), middleware.UserID(c))
	switch {
	case errors.Is(err, service.ErrUnknownUser):
		// the token outlived its account
		respondError(c, http.StatusUnauthorized, "unauthorized", err.Error())
	case err != nil:
		internalError(c, "profile", err)
	default:
		c.JSON(http.StatusOK, user)
	}
}
