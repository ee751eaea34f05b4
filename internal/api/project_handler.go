package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/internal/repository"
	"github.com/piccolojnr/planning-platform/pkg/rbac"
)

type ProjectHandler struct {
	projects *repository.ProjectRepository
	logger   *zap.Logger
}

func NewProjectHandler(projects *repository.ProjectRepository, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

type projectRequest struct {
	Title            string `json:"title" binding:"required"`
	Description      string `json:"description"`
	Overview         string `json:"overview"`
	DevelopmentModel string `json:"development_model"`
}

// projectEntry is one row of the project list: the project plus the caller's
// role on it.
type projectEntry struct {
	model.Project
	Role string `json:"role"`
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	devModel := req.DevelopmentModel
	if devModel == "" {
		devModel = model.ModelAgile
	}
	if !model.ValidDevelopmentModel(devModel) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "development_model must be agile, waterfall or scrum"})
		return
	}

	p := &model.Project{
		UserID:           currentUserID(c),
		Title:            req.Title,
		Description:      req.Description,
		Overview:         req.Overview,
		DevelopmentModel: devModel,
	}
	if err := h.projects.Insert(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, p)
}

// List returns every project the caller can see: owned ones and shared ones,
// each annotated with the caller's role.
func (h *ProjectHandler) List(c *gin.Context) {
	userID := currentUserID(c)
	ctx := c.Request.Context()

	owned, err := h.projects.ListOwned(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list projects"})
		return
	}
	shared, roles, err := h.projects.ListSharedWith(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list shared projects"})
		return
	}

	entries := make([]projectEntry, 0, len(owned)+len(shared))
	for _, p := range owned {
		entries = append(entries, projectEntry{Project: p, Role: rbac.RoleOwner})
	}
	for _, p := range shared {
		entries = append(entries, projectEntry{Project: p, Role: roles[p.ID]})
	}

	c.JSON(http.StatusOK, gin.H{"projects": entries})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	p, err := h.projects.GetByID(c.Request.Context(), currentProjectID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch project"})
		return
	}
	c.JSON(http.StatusOK, projectEntry{Project: *p, Role: c.GetString(ctxRole)})
}

func (h *ProjectHandler) Update(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}
	if req.DevelopmentModel != "" && !model.ValidDevelopmentModel(req.DevelopmentModel) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "development_model must be agile, waterfall or scrum"})
		return
	}

	ctx := c.Request.Context()
	p, err := h.projects.GetByID(ctx, currentProjectID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch project"})
		return
	}

	p.Title = req.Title
	p.Description = req.Description
	p.Overview = req.Overview
	if req.DevelopmentModel != "" {
		p.DevelopmentModel = req.DevelopmentModel
	}
	if err := h.projects.Update(ctx, p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update project"})
		return
	}

	c.JSON(http.StatusOK, p)
}

type deleteProjectRequest struct {
	ConfirmTitle string `json:"confirm_title" binding:"required"`
}

// Delete removes the project and everything under it. The caller must echo
// the exact project title; deletion is not undoable.
func (h *ProjectHandler) Delete(c *gin.Context) {
	var req deleteProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "confirm_title required"})
		return
	}

	ctx := c.Request.Context()
	projectID := currentProjectID(c)
	p, err := h.projects.GetByID(ctx, projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch project"})
		return
	}
	if req.ConfirmTitle != p.Title {
		c.JSON(http.StatusBadRequest, gin.H{"error": "confirmation does not match project title"})
		return
	}

	if err := h.projects.Delete(ctx, projectID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete project"})
		return
	}

	h.logger.Info("Project deleted by owner",
		zap.Int64("project_id", projectID),
		zap.Int64("user_id", currentUserID(c)),
	)
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
