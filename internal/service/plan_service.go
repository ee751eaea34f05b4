package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/internal/repository"
	"github.com/piccolojnr/planning-platform/pkg/metrics"
)

var ErrEmptyPlan = errors.New("plan has no tasks")

// PlanService generates AI plans and applies accepted ones. Applying is a
// bulk replace: the previous tasks (or subtasks) are gone once the user
// accepts, which is why acceptance is a separate, explicit step.
type PlanService struct {
	projects *repository.ProjectRepository
	subtasks *repository.SubtaskRepository
	chats    *repository.ChatRepository
	planner  *PlannerClient
	logger   *zap.Logger
}

func NewPlanService(
	projects *repository.ProjectRepository,
	subtasks *repository.SubtaskRepository,
	chats *repository.ChatRepository,
	planner *PlannerClient,
	logger *zap.Logger,
) *PlanService {
	return &PlanService{
		projects: projects,
		subtasks: subtasks,
		chats:    chats,
		planner:  planner,
		logger:   logger,
	}
}

// GeneratePlan derives a full project plan from the project's conversation.
// The plan is returned for review, not applied.
func (s *PlanService) GeneratePlan(ctx context.Context, projectID int64) (*model.ProjectPlan, error) {
	history, err := s.chats.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	plan, err := s.planner.GeneratePlan(ctx, history)
	if err != nil {
		return nil, err
	}
	if len(plan.Tasks) == 0 {
		return nil, ErrEmptyPlan
	}
	return plan, nil
}

// ApplyPlan replaces the project's tasks and requirements with the accepted
// plan in one transaction.
func (s *PlanService) ApplyPlan(ctx context.Context, projectID int64, plan *model.ProjectPlan) error {
	if len(plan.Tasks) == 0 {
		return ErrEmptyPlan
	}
	if err := s.projects.OverridePlan(ctx, projectID, plan); err != nil {
		metrics.IncrementPlanOverride("project", "error")
		return err
	}
	metrics.IncrementPlanOverride("project", "ok")
	s.logger.Info("Project plan applied",
		zap.Int64("project_id", projectID),
		zap.Int("tasks", len(plan.Tasks)),
		zap.Int("requirements", len(plan.Requirements)),
	)
	return nil
}

// GenerateSubtasks derives a subtask breakdown for one task. Returned for
// review, not applied.
func (s *PlanService) GenerateSubtasks(ctx context.Context, task *model.Task, requirements []string) (*model.SubtaskPlan, error) {
	plan, err := s.planner.GenerateSubtasks(ctx, task.Title, task.Description, requirements)
	if err != nil {
		return nil, err
	}
	if len(plan.Subtasks) == 0 {
		return nil, ErrEmptyPlan
	}
	return plan, nil
}

// ApplySubtasks replaces the task's subtasks with the accepted breakdown.
func (s *PlanService) ApplySubtasks(ctx context.Context, taskID, projectID int64, plan *model.SubtaskPlan) error {
	if len(plan.Subtasks) == 0 {
		return ErrEmptyPlan
	}
	if err := s.subtasks.Override(ctx, taskID, projectID, plan); err != nil {
		metrics.IncrementPlanOverride("subtasks", "error")
		return err
	}
	metrics.IncrementPlanOverride("subtasks", "ok")
	s.logger.Info("Subtask plan applied",
		zap.Int64("task_id", taskID),
		zap.Int64("project_id", projectID),
		zap.Int("subtasks", len(plan.Subtasks)),
	)
	return nil
}
