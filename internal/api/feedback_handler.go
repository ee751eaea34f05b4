package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/internal/repository"
)

type FeedbackHandler struct {
	feedback *repository.FeedbackRepository
	logger   *zap.Logger
}

func NewFeedbackHandler(feedback *repository.FeedbackRepository, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback, logger: logger}
}

type feedbackRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func (h *FeedbackHandler) Create(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and content required"})
		return
	}

	f := &model.Feedback{
		UserID:  currentUserID(c),
		Title:   req.Title,
		Content: req.Content,
	}
	if err := h.feedback.Insert(c.Request.Context(), f); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit feedback"})
		return
	}

	h.logger.Info("Feedback submitted", zap.Int64("user_id", f.UserID))
	c.JSON(http.StatusCreated, f)
}

func (h *FeedbackHandler) List(c *gin.Context) {
	entries, err := h.feedback.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list feedback"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": entries})
}
