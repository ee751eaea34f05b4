package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/pkg/metrics"
)

// spliceIndexes computes the permutation that moves the element at from to
// position to, shifting the rest. n is the list length; both indexes must be
// valid positions.
func spliceIndexes(n, from, to int) ([]int, error) {
	if from < 0 || from >= n || to < 0 || to >= n {
		return nil, ErrIndexOutOfRange
	}
	idx := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if i != from {
			idx = append(idx, i)
		}
	}
	idx = append(idx, 0)
	copy(idx[to+1:], idx[to:])
	idx[to] = from
	return idx, nil
}

// ReorderTasks moves the task at position from to position to within the
// project's sorted list, then renumbers every task to dense 0..n-1 orders and
// persists the whole list in one write. Positions refer to the list as sorted
// by order then id, not to stored order values.
func (e *Engine) ReorderTasks(ctx context.Context, projectID int64, from, to int) ([]model.Task, error) {
	tasks, err := e.tasks.ListByProject(ctx, projectID)
	if err != nil {
		metrics.IncrementReorder("tasks", "error")
		return nil, err
	}

	idx, err := spliceIndexes(len(tasks), from, to)
	if err != nil {
		metrics.IncrementReorder("tasks", "rejected")
		return nil, err
	}

	reordered := make([]model.Task, len(tasks))
	for i, j := range idx {
		reordered[i] = tasks[j]
		reordered[i].Order = i
	}

	if from != to {
		if err := e.tasks.BulkUpdateOrder(ctx, projectID, reordered); err != nil {
			metrics.IncrementReorder("tasks", "error")
			return nil, err
		}
	}

	metrics.IncrementReorder("tasks", "ok")
	e.logger.Info("Tasks reordered",
		zap.Int64("project_id", projectID),
		zap.Int("from", from),
		zap.Int("to", to),
		zap.Int("count", len(reordered)),
	)
	return reordered, nil
}

// ReorderSubtasks is ReorderTasks for a task's subtask list.
func (e *Engine) ReorderSubtasks(ctx context.Context, taskID int64, from, to int) ([]model.Subtask, error) {
	subtasks, err := e.subtasks.ListByTask(ctx, taskID)
	if err != nil {
		metrics.IncrementReorder("subtasks", "error")
		return nil, err
	}

	idx, err := spliceIndexes(len(subtasks), from, to)
	if err != nil {
		metrics.IncrementReorder("subtasks", "rejected")
		return nil, err
	}

	reordered := make([]model.Subtask, len(subtasks))
	for i, j := range idx {
		reordered[i] = subtasks[j]
		reordered[i].Order = i
	}

	if from != to {
		if err := e.subtasks.BulkUpdateOrder(ctx, taskID, reordered); err != nil {
			metrics.IncrementReorder("subtasks", "error")
			return nil, err
		}
	}

	metrics.IncrementReorder("subtasks", "ok")
	e.logger.Info("Subtasks reordered",
		zap.Int64("task_id", taskID),
		zap.Int("from", from),
		zap.Int("to", to),
		zap.Int("count", len(reordered)),
	)
	return reordered, nil
}
