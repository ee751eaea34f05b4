package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/pkg/metrics"
)

// Dependency ids are looked up in batches to keep statements bounded on
// pathological dependency lists.
const dependencyBatchSize = 100

// DependencyStatus is the resolved state of one dependency id. Resolved is
// false when the id does not refer to an existing task; an unresolved
// dependency always counts as incomplete.
type DependencyStatus struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Resolved  bool   `json:"resolved"`
}

// DependencyResolution is the full dependency picture for one task. Blocked
// is true when any dependency is incomplete or unresolved.
type DependencyResolution struct {
	TaskID   int64              `json:"task_id"`
	Statuses []DependencyStatus `json:"statuses"`
	Blocked  bool               `json:"blocked"`
}

// ResolveDependencies looks up every dependency of the task and reports, per
// id, whether it resolves and whether it is completed. Ids that no longer
// exist fail closed: they are reported unresolved and block completion.
func (e *Engine) ResolveDependencies(ctx context.Context, task *model.Task) (*DependencyResolution, error) {
	res := &DependencyResolution{
		TaskID:   task.ID,
		Statuses: make([]DependencyStatus, 0, len(task.Dependencies)),
	}
	if len(task.Dependencies) == 0 {
		return res, nil
	}

	found := make(map[int64]*model.Task, len(task.Dependencies))
	for start := 0; start < len(task.Dependencies); start += dependencyBatchSize {
		end := start + dependencyBatchSize
		if end > len(task.Dependencies) {
			end = len(task.Dependencies)
		}
		batch, err := e.tasks.GetByIDs(ctx, task.Dependencies[start:end])
		if err != nil {
			return nil, err
		}
		for i := range batch {
			found[batch[i].ID] = &batch[i]
		}
	}

	for _, depID := range task.Dependencies {
		dep, ok := found[depID]
		status := DependencyStatus{ID: depID, Resolved: ok}
		if ok {
			status.Title = dep.Title
			status.Completed = dep.Completed()
		}
		if !status.Completed {
			res.Blocked = true
		}
		res.Statuses = append(res.Statuses, status)
	}
	return res, nil
}

// SetTaskStatus changes a task's status. Completing is refused with
// ErrDependencyBlocked while any dependency is incomplete; reverting to
// pending is always allowed. Setting the status a task already has is a
// no-op that skips the dependency check and the write.
func (e *Engine) SetTaskStatus(ctx context.Context, taskID int64, status string) (*model.Task, error) {
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}

	task, err := e.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == status {
		return task, nil
	}

	if status == model.StatusCompleted {
		res, err := e.ResolveDependencies(ctx, task)
		if err != nil {
			return nil, err
		}
		if res.Blocked {
			metrics.IncrementDependencyBlocked()
			e.logger.Info("Task completion blocked",
				zap.Int64("task_id", taskID),
				zap.Int("dependencies", len(res.Statuses)),
			)
			return nil, ErrDependencyBlocked
		}
	}

	if err := e.tasks.UpdateStatus(ctx, taskID, status); err != nil {
		return nil, err
	}
	task.Status = status
	return task, nil
}

// SetSubtaskStatus changes a subtask's status. Subtasks carry no
// dependencies, so both directions are always allowed; same-status calls are
// no-ops.
func (e *Engine) SetSubtaskStatus(ctx context.Context, subtaskID int64, status string) (*model.Subtask, error) {
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}

	subtask, err := e.subtasks.GetByID(ctx, subtaskID)
	if err != nil {
		return nil, err
	}
	if subtask.Status == status {
		return subtask, nil
	}

	if err := e.subtasks.UpdateStatus(ctx, subtaskID, status); err != nil {
		return nil, err
	}
	subtask.Status = status
	return subtask, nil
}
