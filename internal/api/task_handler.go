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

type TaskHandler struct {
	tasks  *repository.TaskRepository
	engine *engine.Engine
	feed   *realtime.ChangeFeed
	logger *zap.Logger
}

func NewTaskHandler(tasks *repository.TaskRepository, eng *engine.Engine, feed *realtime.ChangeFeed, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, engine: eng, feed: feed, logger: logger}
}

// loadTask fetches the :taskID task and verifies it belongs to the project
// the route is scoped to. Answers 404 on mismatch, like a missing row.
func (h *TaskHandler) loadTask(c *gin.Context) (*model.Task, bool) {
	taskID, ok := pathID(c, "taskID")
	if !ok {
		return nil, false
	}
	task, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch task"})
		}
		return nil, false
	}
	if task.ProjectID != currentProjectID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return nil, false
	}
	return task, true
}

func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.tasks.ListByProject(c.Request.Context(), currentProjectID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

type taskRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  string  `json:"description"`
	Duration     int     `json:"duration"`
	Dependencies []int64 `json:"dependencies"`
}

// validDependencies checks every id references a task of this project. A task
// may not depend on itself.
func (h *TaskHandler) validDependencies(c *gin.Context, deps []int64, selfID int64) bool {
	if len(deps) == 0 {
		return true
	}
	for _, id := range deps {
		if id == selfID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "task cannot depend on itself"})
			return false
		}
	}
	found, err := h.tasks.GetByIDs(c.Request.Context(), deps)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve dependencies"})
		return false
	}
	inProject := map[int64]bool{}
	for _, t := range found {
		if t.ProjectID == currentProjectID(c) {
			inProject[t.ID] = true
		}
	}
	for _, id := range deps {
		if !inProject[id] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dependency does not reference a task of this project"})
			return false
		}
	}
	return true
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}
	if !h.validDependencies(c, req.Dependencies, 0) {
		return
	}

	duration := req.Duration
	if duration < 1 {
		duration = 1
	}
	deps := req.Dependencies
	if deps == nil {
		deps = []int64{}
	}
	task := &model.Task{
		ProjectID:    currentProjectID(c),
		Title:        req.Title,
		Description:  req.Description,
		Duration:     duration,
		Dependencies: deps,
	}
	if err := h.tasks.Insert(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
		return
	}

	h.feed.Notify(c.Request.Context(), contracts.TableTasks, contracts.ActionInsert, task.ProjectID)
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}
	if !h.validDependencies(c, req.Dependencies, task.ID) {
		return
	}

	task.Title = req.Title
	task.Description = req.Description
	if req.Duration >= 1 {
		task.Duration = req.Duration
	}
	if req.Dependencies != nil {
		task.Dependencies = req.Dependencies
	}
	if err := h.tasks.Update(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
		return
	}

	h.feed.Notify(c.Request.Context(), contracts.TableTasks, contracts.ActionUpdate, task.ProjectID)
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), task.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete task"})
		return
	}

	h.feed.Notify(c.Request.Context(), contracts.TableTasks, contracts.ActionDelete, task.ProjectID)
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type reorderRequest struct {
	From *int `json:"from" binding:"required"`
	To   *int `json:"to" binding:"required"`
}

// Reorder moves a task from one list position to another and returns the
// full renumbered list.
func (h *TaskHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to required"})
		return
	}

	projectID := currentProjectID(c)
	tasks, err := h.engine.ReorderTasks(c.Request.Context(), projectID, *req.From, *req.To)
	if err != nil {
		if errors.Is(err, engine.ErrIndexOutOfRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reorder tasks"})
		return
	}

	h.feed.Notify(c.Request.Context(), contracts.TableTasks, contracts.ActionReorder, projectID)
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus toggles a task between pending and completed. Completion is
// refused with 409 while dependencies are incomplete; the dependency detail
// endpoint explains which ones.
func (h *TaskHandler) SetStatus(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status required"})
		return
	}

	updated, err := h.engine.SetTaskStatus(c.Request.Context(), task.ID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, engine.ErrDependencyBlocked):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		}
		return
	}

	h.feed.Notify(c.Request.Context(), contracts.TableTasks, contracts.ActionUpdate, task.ProjectID)
	c.JSON(http.StatusOK, updated)
}

// Dependencies reports, per dependency id, whether it resolves and whether
// it is completed.
func (h *TaskHandler) Dependencies(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}
	res, err := h.engine.ResolveDependencies(c.Request.Context(), task)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve dependencies"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Completion lists everything still pending in the project, grouped by task.
func (h *TaskHandler) Completion(c *gin.Context) {
	report, err := h.engine.CheckCompletion(c.Request.Context(), currentProjectID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check completion"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"complete": len(report) == 0, "incomplete": report})
}

// CompleteAll marks every pending task and subtask of the project completed.
func (h *TaskHandler) CompleteAll(c *gin.Context) {
	projectID := currentProjectID(c)
	if err := h.engine.MarkAllComplete(c.Request.Context(), projectID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete project"})
		return
	}

	h.feed.Notify(c.Request.Context(), contracts.TableTasks, contracts.ActionBulk, projectID)
	h.feed.Notify(c.Request.Context(), contracts.TableSubtasks, contracts.ActionBulk, projectID)
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}
