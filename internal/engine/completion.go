package engine

import (
	"context"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/model"
)

// IncompleteTask is one entry of the completion report: a task that is still
// pending, or completed but with pending subtasks left, plus those subtasks.
type IncompleteTask struct {
	TaskID   int64           `json:"task_id"`
	Title    string          `json:"title"`
	Pending  bool            `json:"pending"`
	Subtasks []model.Subtask `json:"subtasks"`
}

// CheckCompletion reports everything that still stands between the project
// and "done": pending tasks and pending subtasks, grouped by task in list
// order. An empty report means the project is fully complete.
func (e *Engine) CheckCompletion(ctx context.Context, projectID int64) ([]IncompleteTask, error) {
	tasks, err := e.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	subtasks, err := e.subtasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	pendingByTask := make(map[int64][]model.Subtask)
	for _, s := range subtasks {
		if !s.Completed() {
			pendingByTask[s.TaskID] = append(pendingByTask[s.TaskID], s)
		}
	}

	report := []IncompleteTask{}
	for i := range tasks {
		t := &tasks[i]
		pending := pendingByTask[t.ID]
		if t.Completed() && len(pending) == 0 {
			continue
		}
		report = append(report, IncompleteTask{
			TaskID:   t.ID,
			Title:    t.Title,
			Pending:  !t.Completed(),
			Subtasks: pending,
		})
	}
	return report, nil
}

// MarkAllComplete sets every pending task and subtask of the project to
// completed. The two batched writes are independent and run concurrently;
// dependency gating is skipped because after this call every dependency is
// completed by construction.
func (e *Engine) MarkAllComplete(ctx context.Context, projectID int64) error {
	tasks, err := e.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}
	subtasks, err := e.subtasks.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}

	taskIDs := []int64{}
	for _, t := range tasks {
		if !t.Completed() {
			taskIDs = append(taskIDs, t.ID)
		}
	}
	subtaskIDs := []int64{}
	for _, s := range subtasks {
		if !s.Completed() {
			subtaskIDs = append(subtaskIDs, s.ID)
		}
	}
	if len(taskIDs) == 0 && len(subtaskIDs) == 0 {
		return nil
	}

	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		return e.tasks.BulkSetStatus(ctx, projectID, taskIDs, model.StatusCompleted)
	})
	p.Go(func(ctx context.Context) error {
		return e.subtasks.BulkSetStatus(ctx, subtaskIDs, model.StatusCompleted)
	})
	if err := p.Wait(); err != nil {
		return err
	}

	e.logger.Info("Project marked complete",
		zap.Int64("project_id", projectID),
		zap.Int("tasks", len(taskIDs)),
		zap.Int("subtasks", len(subtaskIDs)),
	)
	return nil
}
