package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/internal/repository"
	"github.com/piccolojnr/planning-platform/internal/service"
)

type PlanHandler struct {
	plans        *service.PlanService
	tasks        *repository.TaskRepository
	requirements *repository.RequirementRepository
	logger       *zap.Logger
}

func NewPlanHandler(
	plans *service.PlanService,
	tasks *repository.TaskRepository,
	requirements *repository.RequirementRepository,
	logger *zap.Logger,
) *PlanHandler {
	return &PlanHandler{plans: plans, tasks: tasks, requirements: requirements, logger: logger}
}

// Generate derives a project plan from the conversation. The plan is returned
// for review; nothing is written until Apply.
func (h *PlanHandler) Generate(c *gin.Context) {
	plan, err := h.plans.GeneratePlan(c.Request.Context(), currentProjectID(c))
	if err != nil {
		if errors.Is(err, service.ErrEmptyPlan) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to generate plan"})
		return
	}
	c.JSON(http.StatusOK, plan)
}

// Apply replaces the project's tasks and requirements with the reviewed plan.
// Existing tasks are gone after this; the client warns before calling.
func (h *PlanHandler) Apply(c *gin.Context) {
	var plan model.ProjectPlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan required"})
		return
	}

	if err := h.plans.ApplyPlan(c.Request.Context(), currentProjectID(c), &plan); err != nil {
		if errors.Is(err, service.ErrEmptyPlan) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply plan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "applied"})
}

// GenerateSubtasks derives a subtask breakdown for one task, using the
// requirements linked to it as context.
func (h *PlanHandler) GenerateSubtasks(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	linked, err := h.requirements.ListByTask(c.Request.Context(), task.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch requirements"})
		return
	}
	contents := make([]string, len(linked))
	for i, r := range linked {
		contents[i] = r.Content
	}

	plan, err := h.plans.GenerateSubtasks(c.Request.Context(), task, contents)
	if err != nil {
		if errors.Is(err, service.ErrEmptyPlan) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to generate subtasks"})
		return
	}
	c.JSON(http.StatusOK, plan)
}

// ApplySubtasks replaces the task's subtasks with the reviewed breakdown.
func (h *PlanHandler) ApplySubtasks(c *gin.Context) {
	task, ok := h.loadTask(c)
	if !ok {
		return
	}

	var plan model.SubtaskPlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subtask plan required"})
		return
	}

	if err := h.plans.ApplySubtasks(c.Request.Context(), task.ID, task.ProjectID, &plan); err != nil {
		if errors.Is(err, service.ErrEmptyPlan) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply subtasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "applied"})
}

func (h *PlanHandler) loadTask(c *gin.Context) (*model.Task, bool) {
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
