// Package engine implements the ordering and completion rules for tasks and
// subtasks: splice-based reordering, dependency-gated status changes, and
// whole-project completion. It talks to storage through narrow interfaces so
// the rules can be tested without a database.
package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/model"
)

var (
	// ErrIndexOutOfRange is returned when a reorder index does not point at
	// an existing list position.
	ErrIndexOutOfRange = errors.New("reorder index out of range")

	// ErrDependencyBlocked is returned when a task cannot be completed
	// because at least one dependency is not completed.
	ErrDependencyBlocked = errors.New("task has incomplete dependencies")

	// ErrInvalidStatus is returned for a status outside the two-state model.
	ErrInvalidStatus = errors.New("invalid status")
)

// TaskStore is the slice of the task repository the engine needs.
type TaskStore interface {
	GetByID(ctx context.Context, id int64) (*model.Task, error)
	GetByIDs(ctx context.Context, ids []int64) ([]model.Task, error)
	ListByProject(ctx context.Context, projectID int64) ([]model.Task, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	BulkUpdateOrder(ctx context.Context, projectID int64, tasks []model.Task) error
	BulkSetStatus(ctx context.Context, projectID int64, taskIDs []int64, status string) error
}

// SubtaskStore is the slice of the subtask repository the engine needs.
type SubtaskStore interface {
	GetByID(ctx context.Context, id int64) (*model.Subtask, error)
	ListByTask(ctx context.Context, taskID int64) ([]model.Subtask, error)
	ListByProject(ctx context.Context, projectID int64) ([]model.Subtask, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	BulkUpdateOrder(ctx context.Context, taskID int64, subtasks []model.Subtask) error
	BulkSetStatus(ctx context.Context, subtaskIDs []int64, status string) error
}

type Engine struct {
	tasks    TaskStore
	subtasks SubtaskStore
	logger   *zap.Logger
}

func New(tasks TaskStore, subtasks SubtaskStore, logger *zap.Logger) *Engine {
	return &Engine{tasks: tasks, subtasks: subtasks, logger: logger}
}

func validStatus(status string) bool {
	return status == model.StatusPending || status == model.StatusCompleted
}
