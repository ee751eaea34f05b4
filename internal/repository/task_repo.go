package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/pkg/metrics"
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

const taskColumns = `id, project_id, title, description, duration, dependencies, status, "order", created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }, t *model.Task) error {
	return row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Duration,
		&t.Dependencies, &t.Status, &t.Order, &t.CreatedAt, &t.UpdatedAt,
	)
}

// Insert creates a task at the end of the project's list.
func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) error {
	r.logger.Debug("Inserting task",
		zap.Int64("project_id", t.ProjectID),
		zap.String("title", t.Title),
	)
	query := `
        INSERT INTO tasks (project_id, title, description, duration, dependencies, status, "order")
        VALUES ($1, $2, $3, $4, $5, $6,
                COALESCE((SELECT MAX("order") + 1 FROM tasks WHERE project_id = $1), 0))
        RETURNING id, status, "order", created_at, updated_at
    `
	status := t.Status
	if status == "" {
		status = model.StatusPending
	}
	err := r.db.QueryRow(ctx, query,
		t.ProjectID,
		t.Title,
		t.Description,
		t.Duration,
		t.Dependencies,
		status,
	).Scan(&t.ID, &t.Status, &t.Order, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert task",
			zap.Error(err),
			zap.Int64("project_id", t.ProjectID),
		)
		return err
	}
	r.logger.Info("Task inserted successfully",
		zap.Int64("task_id", t.ID),
		zap.Int64("project_id", t.ProjectID),
	)
	return nil
}

// GetByID returns exactly one task, or pgx.ErrNoRows.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	var t model.Task
	if err := scanTask(r.db.QueryRow(ctx, query, id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByIDs returns tasks for a batch of ids in one query. Missing ids are
// simply absent from the result; callers decide what absence means.
func (r *TaskRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Task, error) {
	if len(ids) == 0 {
		return []model.Task{}, nil
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error("Failed to query tasks by ids", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var t model.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ListByProject returns the project's tasks in list order. Order values may
// be sparse or duplicated; id breaks ties so the sort is stable.
func (r *TaskRepository) ListByProject(ctx context.Context, projectID int64) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = $1 ORDER BY "order", id`
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to query tasks",
			zap.Error(err),
			zap.Int64("project_id", projectID),
		)
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var t model.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update persists task fields edited through the task form.
func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	query := `
        UPDATE tasks
        SET title = $2, description = $3, duration = $4, dependencies = $5, updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, t.ID, t.Title, t.Description, t.Duration, t.Dependencies)
	if err != nil {
		r.logger.Error("Failed to update task",
			zap.Error(err),
			zap.Int64("task_id", t.ID),
		)
	}
	return err
}

// UpdateStatus persists only the status.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.logger.Error("Failed to update task status",
			zap.Error(err),
			zap.Int64("task_id", id),
			zap.String("status", status),
		)
	}
	return err
}

// Delete removes a task; its subtasks cascade.
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete task",
			zap.Error(err),
			zap.Int64("task_id", id),
		)
	}
	return err
}

// BulkUpdateOrder renumbers every task in the list with one upsert keyed by
// id, carrying the required non-null fields, so a partial write cannot leave
// the list half-renumbered.
func (r *TaskRepository) BulkUpdateOrder(ctx context.Context, projectID int64, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]int64, len(tasks))
	titles := make([]string, len(tasks))
	orders := make([]int32, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
		titles[i] = t.Title
		orders[i] = int32(t.Order)
	}

	query := `
        INSERT INTO tasks (id, project_id, title, "order")
        SELECT u.id, $1, u.title, u.ord
        FROM unnest($2::bigint[], $3::text[], $4::int[]) AS u(id, title, ord)
        ON CONFLICT (id) DO UPDATE
        SET "order" = EXCLUDED."order", updated_at = NOW()
    `
	start := time.Now()
	result, err := r.db.Exec(ctx, query, projectID, ids, titles, orders)
	metrics.RecordDBQueryDuration("bulk_upsert", "tasks", time.Since(start))
	if err != nil {
		r.logger.Error("Failed to bulk update task order",
			zap.Error(err),
			zap.Int64("project_id", projectID),
			zap.Int("count", len(tasks)),
		)
		return err
	}
	r.logger.Info("Task order updated",
		zap.Int64("project_id", projectID),
		zap.Int64("rows_affected", result.RowsAffected()),
	)
	return nil
}

// BulkSetStatus upserts the status of a batch of tasks in one statement.
func (r *TaskRepository) BulkSetStatus(ctx context.Context, projectID int64, taskIDs []int64, status string) error {
	if len(taskIDs) == 0 {
		return nil
	}
	query := `UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = ANY($1) AND project_id = $3`
	result, err := r.db.Exec(ctx, query, taskIDs, status, projectID)
	if err != nil {
		r.logger.Error("Failed to bulk set task status",
			zap.Error(err),
			zap.Int64("project_id", projectID),
			zap.Int("count", len(taskIDs)),
		)
		return err
	}
	r.logger.Info("Task statuses updated",
		zap.Int64("project_id", projectID),
		zap.Int64("rows_affected", result.RowsAffected()),
		zap.String("status", status),
	)
	return nil
}
