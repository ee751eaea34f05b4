package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	contracts "github.com/piccolojnr/planning-platform/contracts/mq"
	"github.com/piccolojnr/planning-platform/internal/engine"
	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/internal/realtime"
	"github.com/piccolojnr/planning-platform/internal/repository"
)

type SubtaskHandler struct {
	subtasks *repository.SubtaskRepository
	tasks    *repository.TaskRepository
	engine   *engine.Engine
	feed     *realtime.ChangeFeed
	logger   *zap.Logger
}

func NewSubtaskHandler(
	subtasks *repository.SubtaskRepository,
	tasks *repository.TaskRepository,
	eng *engine.Engine,
	feed *realtime.ChangeFeed,
	logger *zap.Logger,
) *SubtaskHandler {
	return &SubtaskHandler{subtasks: subtasks, tasks: tasks, engine: eng, feed: feed, logger: logger}
}

// loadParentTask fetches the :taskID task and verifies project membership.
func (h *SubtaskHandler) loadParentTask(c *gin.Context) (*model.Task, bool) {
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return nil, false
	}
	task, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil || task.ProjectID != currentProjectID(c) {
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch task"})
		} else {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		}
		return nil, false
	}
	return task, true
}

// loadSubtask fetches the :subtaskID subtask and verifies, via its parent
// task, that it belongs to the project the route is scoped to.
func (h *SubtaskHandler) loadSubtask(c *gin.Context) (*model.Subtask, bool) {
	subtaskID, ok := pathID(c, "subtaskID")
	if !ok {
		return nil, false
	}
	ctx := c.Request.Context()
	subtask, err := h.subtasks.GetByID(ctx, subtaskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subtask not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch subtask"})
		}
		return nil, false
	}
	parent, err := h.tasks.GetByID(ctx, subtask.TaskID)
	if err != nil || parent.ProjectID != currentProjectID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "subtask not found"})
		return nil, false
	}
	return subtask, true
}

func (h *SubtaskHandler) List(c *gin.Context) {
	task, ok := h.loadParentTask(c)
	if !ok {
		return
	}
	subtasks, err := h.subtasks.ListByTask(c.Request.Context(), task.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch subtasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subtasks": subtasks})
}

type subtaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (h *SubtaskHandler) Create(c *gin.Context) {
	task, ok := h.loadParentTask(c)
	if !ok {
		return
	}
	var req subtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	subtask := &model.Subtask{
		TaskID:      task.ID,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := h.subtasks.Insert(c.Request.Context(), subtask); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create subtask"})
		return
	}

	h.feed.Notify(c.Request.Context(), contracts.TableSubtasks, contracts.ActionInsert, task.ProjectID)
	c.JSON(http.StatusCreated, subtask)
}

func (h *SubtaskHandler) Update(c *gin.Context) {
	subtask, ok := h.loadSubtask(c)
	if !ok {
		return
	}
	var req subtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	subtask.Title = req.Title
	subtask.Description = req.Description
	if err := h.subtasks.Update(c.Request.Context(), subtask); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update subtask"})
		return
	}

	h.feed.Notify(c.Request.Context(), contracts.TableSubtasks, contracts.ActionUpdate, currentProjectID(c))
	c.JSON(http.StatusOK, subtask)
}

func (h *SubtaskHandler) Delete(c *gin.Context) {
	subtask, ok := h.loadSubtask(c)
	if !ok {
		return
	}
	if err := h.subtasks.Delete(c.Request.Context(), subtask.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete subtask"})
		return
	}

	h.feed.Notify(c.Request.Context(), contracts.TableSubtasks, contracts.ActionDelete, currentProjectID(c))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Reorder moves a subtask within its task's list and returns the renumbered
// list.
func (h *SubtaskHandler) Reorder(c *gin.Context) {
	task, ok := h.loadParentTask(c)
	if !ok {
		return
	}
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to required"})
		return
	}

	subtasks, err := h.engine.ReorderSubtasks(c.Request.Context(), task.ID, *req.From, *req.To)
	if err != nil {
		if errors.Is(err, engine.ErrIndexOutOfRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reorder subtasks"})
		return
	}

	h.feed.Notify(c.Request.Context(), contracts.TableSubtasks, contracts.ActionReorder, task.ProjectID)
	c.JSON(http.StatusOK, gin.H{"subtasks": subtasks})
}

// SetStatus toggles a subtask between pending and completed. Subtasks are
// never dependency-gated.
func (h *SubtaskHandler) SetStatus(c *gin.Context) {
	subtask, ok := h.loadSubtask(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status required"})
		return
	}

	updated, err := h.engine.SetSubtaskStatus(c.Request.Context(), subtask.ID, req.Status)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		return
	}

	h.feed.Notify(c.Request.Context(), contracts.TableSubtasks, contracts.ActionUpdate, currentProjectID(c))
	c.JSON(http.StatusOK, updated)
}
