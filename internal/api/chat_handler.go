package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/service"
)

type ChatHandler struct {
	chat   *service.ChatService
	logger *zap.Logger
}

func NewChatHandler(chat *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

func (h *ChatHandler) History(c *gin.Context) {
	messages, err := h.chat.History(c.Request.Context(), currentProjectID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type chatMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Send appends the user's message and returns the assistant's reply, which
// may carry a proposed project plan for review.
func (h *ChatHandler) Send(c *gin.Context) {
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content required"})
		return
	}

	reply, err := h.chat.SendMessage(c.Request.Context(), currentProjectID(c), req.Content)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "planner unavailable, message kept; retry to get a reply"})
		return
	}

	c.JSON(http.StatusOK, reply)
}

func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	messageID, ok := pathID(c, "messageID")
	if !ok {
		return
	}
	if err := h.chat.DeleteMessage(c.Request.Context(), currentProjectID(c), messageID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *ChatHandler) DeleteLast(c *gin.Context) {
	if err := h.chat.DeleteLast(c.Request.Context(), currentProjectID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete last message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *ChatHandler) Reset(c *gin.Context) {
	if err := h.chat.Reset(c.Request.Context(), currentProjectID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}
