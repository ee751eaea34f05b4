package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/piccolojnr/planning-platform/internal/service"
	"github.com/piccolojnr/planning-platform/pkg/otel"
	"github.com/piccolojnr/planning-platform/pkg/rbac"
)

type Router struct {
	Engine *gin.Engine
}

type Handlers struct {
	Auth        *AuthHandler
	Project     *ProjectHandler
	Task        *TaskHandler
	Subtask     *SubtaskHandler
	Requirement *RequirementHandler
	Share       *ShareHandler
	Chat        *ChatHandler
	Plan        *PlanHandler
	Feedback    *FeedbackHandler
	Realtime    *RealtimeHandler
}

func NewRouter(
	h Handlers,
	access *service.AccessService,
	jwtSecret string,
	db *pgxpool.Pool,
	rdb *goredis.Client,
) *Router {
	r := gin.Default()
	r.Use(otel.GinMiddleware())
	r.Use(TraceMiddleware())
	r.Use(MetricsMiddleware())

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			c.JSON(500, gin.H{"status": "redis_not_ready", "error": err.Error()})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/register", h.Auth.Register)
	r.POST("/login", h.Auth.Login)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.GET("/me", h.Auth.Me)
		auth.GET("/projects", h.Project.List)
		auth.POST("/projects", h.Project.Create)
		auth.POST("/feedback", h.Feedback.Create)
		auth.GET("/feedback", h.Feedback.List)

		// Per-permission route groups on a single project. Reads need a
		// share or ownership, content writes need editor, shares and
		// deletion stay owner-only.
		read := auth.Group("/projects/:projectID", RequireProjectAccess(access, rbac.PermissionRead))
		{
			read.GET("", h.Project.Get)
			read.GET("/events", h.Realtime.Stream)

			read.GET("/tasks", h.Task.List)
			read.GET("/tasks/:taskID/dependencies", h.Task.Dependencies)
			read.GET("/tasks/:taskID/subtasks", h.Subtask.List)
			read.GET("/tasks/:taskID/requirements", h.Requirement.ListByTask)
			read.GET("/completion", h.Task.Completion)
			read.GET("/requirements", h.Requirement.List)
			read.GET("/chat", h.Chat.History)
		}

		edit := auth.Group("/projects/:projectID", RequireProjectAccess(access, rbac.PermissionEditContent))
		{
			edit.PUT("", h.Project.Update)

			edit.POST("/tasks", h.Task.Create)
			edit.PUT("/tasks/:taskID", h.Task.Update)
			edit.DELETE("/tasks/:taskID", h.Task.Delete)
			edit.POST("/tasks/reorder", h.Task.Reorder)
			edit.POST("/tasks/:taskID/status", h.Task.SetStatus)
			edit.POST("/complete-all", h.Task.CompleteAll)

			edit.POST("/tasks/:taskID/subtasks", h.Subtask.Create)
			edit.POST("/tasks/:taskID/subtasks/reorder", h.Subtask.Reorder)
			edit.PUT("/subtasks/:subtaskID", h.Subtask.Update)
			edit.DELETE("/subtasks/:subtaskID", h.Subtask.Delete)
			edit.POST("/subtasks/:subtaskID/status", h.Subtask.SetStatus)

			edit.POST("/requirements", h.Requirement.Create)
			edit.PUT("/requirements/:requirementID", h.Requirement.Update)
			edit.DELETE("/requirements/:requirementID", h.Requirement.Delete)
			edit.POST("/tasks/:taskID/requirements/:requirementID", h.Requirement.Link)
			edit.DELETE("/tasks/:taskID/requirements/:requirementID", h.Requirement.Unlink)

			edit.POST("/chat", h.Chat.Send)
			edit.DELETE("/chat/:messageID", h.Chat.DeleteMessage)
			edit.POST("/chat/delete-last", h.Chat.DeleteLast)
			edit.POST("/chat/reset", h.Chat.Reset)

			edit.POST("/plan/generate", h.Plan.Generate)
			edit.POST("/plan/apply", h.Plan.Apply)
			edit.POST("/tasks/:taskID/subtasks/generate", h.Plan.GenerateSubtasks)
			edit.POST("/tasks/:taskID/subtasks/apply", h.Plan.ApplySubtasks)
		}

		owner := auth.Group("/projects/:projectID", RequireProjectAccess(access, rbac.PermissionManageShares))
		{
			owner.GET("/shares", h.Share.List)
			owner.POST("/shares", h.Share.Create)
			owner.PUT("/shares/:shareID", h.Share.UpdateRole)
			owner.DELETE("/shares/:shareID", h.Share.Revoke)
		}

		del := auth.Group("/projects/:projectID", RequireProjectAccess(access, rbac.PermissionDeleteProject))
		{
			del.DELETE("", h.Project.Delete)
		}
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
