package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/service"
)

type ShareHandler struct {
	shares *service.ShareService
	logger *zap.Logger
}

func NewShareHandler(shares *service.ShareService, logger *zap.Logger) *ShareHandler {
	return &ShareHandler{shares: shares, logger: logger}
}

type shareRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

func (h *ShareHandler) Create(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and role required"})
		return
	}

	share, err := h.shares.Share(c.Request.Context(), currentProjectID(c), req.Email, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidRole), errors.Is(err, service.ErrShareSelf):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyShared):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Share failed", zap.Error(err), zap.Int64("project_id", currentProjectID(c)))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to share project"})
		}
		return
	}

	c.JSON(http.StatusCreated, share)
}

func (h *ShareHandler) List(c *gin.Context) {
	shares, err := h.shares.List(c.Request.Context(), currentProjectID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list shares"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shares": shares})
}

type shareRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *ShareHandler) UpdateRole(c *gin.Context) {
	shareID, ok := pathID(c, "shareID")
	if !ok {
		return
	}
	var req shareRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role required"})
		return
	}

	err := h.shares.UpdateRole(c.Request.Context(), currentProjectID(c), shareID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRole):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrShareNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update share"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *ShareHandler) Revoke(c *gin.Context) {
	shareID, ok := pathID(c, "shareID")
	if !ok {
		return
	}
	if err := h.shares.Revoke(c.Request.Context(), currentProjectID(c), shareID); err != nil {
		if errors.Is(err, service.ErrShareNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke share"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}
