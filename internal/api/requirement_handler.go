package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	contracts "github.com/piccolojnr/planning-platform/contracts/mq"
	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/internal/realtime"
)

type requirementStore interface {
	Insert(ctx context.Context, req *model.Requirement) error
	ListByProject(ctx context.Context, projectID int64) ([]model.Requirement, error)
	ListByTask(ctx context.Context, taskID int64) ([]model.Requirement, error)
	Update(ctx context.Context, req *model.Requirement) error
	Delete(ctx context.Context, id int64) error
	Link(ctx context.Context, taskID, requirementID int64) error
	Unlink(ctx context.Context, taskID, requirementID int64) error
}

type taskGetter interface {
	GetByID(ctx context.Context, id int64) (*model.Task, error)
}

type RequirementHandler struct {
	requirements requirementStore
	tasks        taskGetter
	feed         *realtime.ChangeFeed
	logger       *zap.Logger
}

func NewRequirementHandler(
	requirements requirementStore,
	tasks taskGetter,
	feed *realtime.ChangeFeed,
	logger *zap.Logger,
) *RequirementHandler {
	return &RequirementHandler{requirements: requirements, tasks: tasks, feed: feed, logger: logger}
}

func (h *RequirementHandler) loadRequirement(c *gin.Context) (*model.Requirement, bool) {
	requirementID, ok := pathID(c, "requirementID")
	if !ok {
		return nil, false
	}
	list, err := h.requirements.ListByProject(c.Request.Context(), currentProjectID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch requirements"})
		return nil, false
	}
	for i := range list {
		if list[i].ID == requirementID {
			return &list[i], true
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "requirement not found"})
	return nil, false
}

func (h *RequirementHandler) List(c *gin.Context) {
	requirements, err := h.requirements.ListByProject(c.Request.Context(), currentProjectID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch requirements"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requirements": requirements})
}

// taskInProject resolves the :taskID path param and answers 404 unless the
// task belongs to the route's project.
func (h *RequirementHandler) taskInProject(c *gin.Context) (int64, bool) {
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return 0, false
	}
	task, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil || task.ProjectID != currentProjectID(c) {
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch task"})
		} else {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		}
		return 0, false
	}
	return taskID, true
}

// ListByTask returns the requirements linked to one task.
func (h *RequirementHandler) ListByTask(c *gin.Context) {
	taskID, ok := h.taskInProject(c)
	if !ok {
		return
	}
	requirements, err := h.requirements.ListByTask(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch requirements"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requirements": requirements})
}

type requirementRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *RequirementHandler) Create(c *gin.Context) {
	var req requirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content required"})
		return
	}

	requirement := &model.Requirement{
		ProjectID: currentProjectID(c),
		Content:   req.Content,
	}
	if err := h.requirements.Insert(c.Request.Context(), requirement); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create requirement"})
		return
	}

	h.feed.Notify(c.Request.Context(), contracts.TableRequirements, contracts.ActionInsert, requirement.ProjectID)
	c.JSON(http.StatusCreated, requirement)
}

func (h *RequirementHandler) Update(c *gin.Context) {
	requirement, ok := h.loadRequirement(c)
	if !ok {
		return
	}
	var req requirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content required"})
		return
	}

	requirement.Content = req.Content
	if err := h.requirements.Update(c.Request.Context(), requirement); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update requirement"})
		return
	}

	h.feed.Notify(c.Request.Context(), contracts.TableRequirements, contracts.ActionUpdate, currentProjectID(c))
	c.JSON(http.StatusOK, requirement)
}

func (h *RequirementHandler) Delete(c *gin.Context) {
	requirement, ok := h.loadRequirement(c)
	if !ok {
		return
	}
	if err := h.requirements.Delete(c.Request.Context(), requirement.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete requirement"})
		return
	}

	h.feed.Notify(c.Request.Context(), contracts.TableRequirements, contracts.ActionDelete, currentProjectID(c))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Link attaches a requirement to a task so the subtask generator can use it.
func (h *RequirementHandler) Link(c *gin.Context) {
	taskID, requirement, ok := h.loadLinkPair(c)
	if !ok {
		return
	}
	if err := h.requirements.Link(c.Request.Context(), taskID, requirement.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to link requirement"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "linked"})
}

func (h *RequirementHandler) Unlink(c *gin.Context) {
	taskID, requirement, ok := h.loadLinkPair(c)
	if !ok {
		return
	}
	if err := h.requirements.Unlink(c.Request.Context(), taskID, requirement.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unlink requirement"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unlinked"})
}

// loadLinkPair validates both sides of a task/requirement link belong to the
// project.
func (h *RequirementHandler) loadLinkPair(c *gin.Context) (int64, *model.Requirement, bool) {
	taskID, ok := h.taskInProject(c)
	if !ok {
		return 0, nil, false
	}
	requirement, ok := h.loadRequirement(c)
	if !ok {
		return 0, nil, false
	}
	return taskID, requirement, true
}
