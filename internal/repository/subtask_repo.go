package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	contracts "github.com/piccolojnr/planning-platform/contracts/mq"
	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/internal/realtime"
	"github.com/piccolojnr/planning-platform/pkg/metrics"
)

type SubtaskRepository struct {
	db     *pgxpool.Pool
	feed   *realtime.ChangeFeed
	logger *zap.Logger
}

func NewSubtaskRepository(db *pgxpool.Pool, feed *realtime.ChangeFeed, logger *zap.Logger) *SubtaskRepository {
	return &SubtaskRepository{db: db, feed: feed, logger: logger}
}

const subtaskColumns = `id, task_id, title, description, status, "order", created_at, updated_at`

func scanSubtask(row interface{ Scan(...any) error }, s *model.Subtask) error {
	return row.Scan(
		&s.ID, &s.TaskID, &s.Title, &s.Description, &s.Status,
		&s.Order, &s.CreatedAt, &s.UpdatedAt,
	)
}

// Insert creates a subtask at the end of the task's list.
func (r *SubtaskRepository) Insert(ctx context.Context, s *model.Subtask) error {
	query := `
        INSERT INTO subtasks (task_id, title, description, status, "order")
        VALUES ($1, $2, $3, $4,
                COALESCE((SELECT MAX("order") + 1 FROM subtasks WHERE task_id = $1), 0))
        RETURNING id, status, "order", created_at, updated_at
    `
	status := s.Status
	if status == "" {
		status = model.StatusPending
	}
	err := r.db.QueryRow(ctx, query,
		s.TaskID,
		s.Title,
		s.Description,
		status,
	).Scan(&s.ID, &s.Status, &s.Order, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert subtask",
			zap.Error(err),
			zap.Int64("task_id", s.TaskID),
		)
		return err
	}
	r.logger.Info("Subtask inserted successfully",
		zap.Int64("subtask_id", s.ID),
		zap.Int64("task_id", s.TaskID),
	)
	return nil
}

// GetByID returns exactly one subtask, or pgx.ErrNoRows.
func (r *SubtaskRepository) GetByID(ctx context.Context, id int64) (*model.Subtask, error) {
	query := `SELECT ` + subtaskColumns + ` FROM subtasks WHERE id = $1`
	var s model.Subtask
	if err := scanSubtask(r.db.QueryRow(ctx, query, id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByTask returns the task's subtasks in list order, ties broken by id.
func (r *SubtaskRepository) ListByTask(ctx context.Context, taskID int64) ([]model.Subtask, error) {
	query := `SELECT ` + subtaskColumns + ` FROM subtasks WHERE task_id = $1 ORDER BY "order", id`
	rows, err := r.db.Query(ctx, query, taskID)
	if err != nil {
		r.logger.Error("Failed to query subtasks",
			zap.Error(err),
			zap.Int64("task_id", taskID),
		)
		return nil, err
	}
	defer rows.Close()

	subtasks := []model.Subtask{}
	for rows.Next() {
		var s model.Subtask
		if err := scanSubtask(rows, &s); err != nil {
			return nil, err
		}
		subtasks = append(subtasks, s)
	}
	return subtasks, rows.Err()
}

// ListByProject returns every subtask under the project's tasks, grouped by
// task order; used by the completion check.
func (r *SubtaskRepository) ListByProject(ctx context.Context, projectID int64) ([]model.Subtask, error) {
	query := `
        SELECT s.id, s.task_id, s.title, s.description, s.status, s."order", s.created_at, s.updated_at
        FROM subtasks s
        JOIN tasks t ON t.id = s.task_id
        WHERE t.project_id = $1
        ORDER BY t."order", t.id, s."order", s.id
    `
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to query project subtasks",
			zap.Error(err),
			zap.Int64("project_id", projectID),
		)
		return nil, err
	}
	defer rows.Close()

	subtasks := []model.Subtask{}
	for rows.Next() {
		var s model.Subtask
		if err := scanSubtask(rows, &s); err != nil {
			return nil, err
		}
		subtasks = append(subtasks, s)
	}
	return subtasks, rows.Err()
}

// Update persists subtask fields edited through the form.
func (r *SubtaskRepository) Update(ctx context.Context, s *model.Subtask) error {
	query := `
        UPDATE subtasks
        SET title = $2, description = $3, updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, s.ID, s.Title, s.Description)
	if err != nil {
		r.logger.Error("Failed to update subtask",
			zap.Error(err),
			zap.Int64("subtask_id", s.ID),
		)
	}
	return err
}

// UpdateStatus persists only the status.
func (r *SubtaskRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE subtasks SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.logger.Error("Failed to update subtask status",
			zap.Error(err),
			zap.Int64("subtask_id", id),
			zap.String("status", status),
		)
	}
	return err
}

// Delete removes a subtask.
func (r *SubtaskRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM subtasks WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete subtask",
			zap.Error(err),
			zap.Int64("subtask_id", id),
		)
	}
	return err
}

// BulkUpdateOrder renumbers every subtask of a task with one upsert keyed by
// id, mirroring the task variant.
func (r *SubtaskRepository) BulkUpdateOrder(ctx context.Context, taskID int64, subtasks []model.Subtask) error {
	if len(subtasks) == 0 {
		return nil
	}

	ids := make([]int64, len(subtasks))
	titles := make([]string, len(subtasks))
	orders := make([]int32, len(subtasks))
	for i, s := range subtasks {
		ids[i] = s.ID
		titles[i] = s.Title
		orders[i] = int32(s.Order)
	}

	query := `
        INSERT INTO subtasks (id, task_id, title, "order")
        SELECT u.id, $1, u.title, u.ord
        FROM unnest($2::bigint[], $3::text[], $4::int[]) AS u(id, title, ord)
        ON CONFLICT (id) DO UPDATE
        SET "order" = EXCLUDED."order", updated_at = NOW()
    `
	start := time.Now()
	result, err := r.db.Exec(ctx, query, taskID, ids, titles, orders)
	metrics.RecordDBQueryDuration("bulk_upsert", "subtasks", time.Since(start))
	if err != nil {
		r.logger.Error("Failed to bulk update subtask order",
			zap.Error(err),
			zap.Int64("task_id", taskID),
			zap.Int("count", len(subtasks)),
		)
		return err
	}
	r.logger.Info("Subtask order updated",
		zap.Int64("task_id", taskID),
		zap.Int64("rows_affected", result.RowsAffected()),
	)
	return nil
}

// BulkSetStatus sets the status of a batch of subtasks in one statement.
func (r *SubtaskRepository) BulkSetStatus(ctx context.Context, subtaskIDs []int64, status string) error {
	if len(subtaskIDs) == 0 {
		return nil
	}
	query := `UPDATE subtasks SET status = $2, updated_at = NOW() WHERE id = ANY($1)`
	result, err := r.db.Exec(ctx, query, subtaskIDs, status)
	if err != nil {
		r.logger.Error("Failed to bulk set subtask status",
			zap.Error(err),
			zap.Int("count", len(subtaskIDs)),
		)
		return err
	}
	r.logger.Info("Subtask statuses updated",
		zap.Int64("rows_affected", result.RowsAffected()),
		zap.String("status", status),
	)
	return nil
}

// Override replaces every subtask of a task with an AI-generated list in one
// transaction.
func (r *SubtaskRepository) Override(ctx context.Context, taskID, projectID int64, plan *model.SubtaskPlan) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin subtask override tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM subtasks WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("failed to clear subtasks: %w", err)
	}

	for i, s := range plan.Subtasks {
		_, err := tx.Exec(ctx, `
            INSERT INTO subtasks (task_id, title, description, status, "order")
            VALUES ($1, $2, $3, $4, $5)
        `, taskID, s.Name, s.Description, model.StatusPending, i)
		if err != nil {
			return fmt.Errorf("failed to insert plan subtask: %w", err)
		}
	}

	if err := r.feed.RecordInTx(ctx, tx, contracts.TableSubtasks, contracts.ActionBulk, projectID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit subtask override tx: %w", err)
	}

	r.logger.Info("Subtask override applied",
		zap.Int64("task_id", taskID),
		zap.Int("subtasks", len(plan.Subtasks)),
	)
	return nil
}
