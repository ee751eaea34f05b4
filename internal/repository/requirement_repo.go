package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/model"
)

type RequirementRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewRequirementRepository(db *pgxpool.Pool, logger *zap.Logger) *RequirementRepository {
	return &RequirementRepository{db: db, logger: logger}
}

// Insert creates a requirement at the end of the project's list.
func (r *RequirementRepository) Insert(ctx context.Context, req *model.Requirement) error {
	query := `
        INSERT INTO requirements (project_id, content, "order")
        VALUES ($1, $2,
                COALESCE((SELECT MAX("order") + 1 FROM requirements WHERE project_id = $1), 0))
        RETURNING id, "order", created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query, req.ProjectID, req.Content).Scan(
		&req.ID, &req.Order, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert requirement",
			zap.Error(err),
			zap.Int64("project_id", req.ProjectID),
		)
	}
	return err
}

// ListByProject returns the project's requirements in list order.
func (r *RequirementRepository) ListByProject(ctx context.Context, projectID int64) ([]model.Requirement, error) {
	query := `
        SELECT id, project_id, content, "order", created_at, updated_at
        FROM requirements
        WHERE project_id = $1
        ORDER BY "order", id
    `
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to query requirements",
			zap.Error(err),
			zap.Int64("project_id", projectID),
		)
		return nil, err
	}
	defer rows.Close()

	requirements := []model.Requirement{}
	for rows.Next() {
		var req model.Requirement
		if err := rows.Scan(
			&req.ID, &req.ProjectID, &req.Content, &req.Order,
			&req.CreatedAt, &req.UpdatedAt,
		); err != nil {
			return nil, err
		}
		requirements = append(requirements, req)
	}
	return requirements, rows.Err()
}

// ListByTask returns requirements linked to a task.
func (r *RequirementRepository) ListByTask(ctx context.Context, taskID int64) ([]model.Requirement, error) {
	query := `
        SELECT q.id, q.project_id, q.content, q."order", q.created_at, q.updated_at
        FROM requirements q
        JOIN task_requirements tr ON tr.requirement_id = q.id
        WHERE tr.task_id = $1
        ORDER BY q."order", q.id
    `
	rows, err := r.db.Query(ctx, query, taskID)
	if err != nil {
		r.logger.Error("Failed to query task requirements",
			zap.Error(err),
			zap.Int64("task_id", taskID),
		)
		return nil, err
	}
	defer rows.Close()

	requirements := []model.Requirement{}
	for rows.Next() {
		var req model.Requirement
		if err := rows.Scan(
			&req.ID, &req.ProjectID, &req.Content, &req.Order,
			&req.CreatedAt, &req.UpdatedAt,
		); err != nil {
			return nil, err
		}
		requirements = append(requirements, req)
	}
	return requirements, rows.Err()
}

// Update edits a requirement's content.
func (r *RequirementRepository) Update(ctx context.Context, req *model.Requirement) error {
	query := `UPDATE requirements SET content = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, req.ID, req.Content)
	if err != nil {
		r.logger.Error("Failed to update requirement",
			zap.Error(err),
			zap.Int64("requirement_id", req.ID),
		)
	}
	return err
}

// Delete removes a requirement; task links cascade.
func (r *RequirementRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM requirements WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete requirement",
			zap.Error(err),
			zap.Int64("requirement_id", id),
		)
	}
	return err
}

// Link attaches a requirement to a task. Linking twice is a no-op.
func (r *RequirementRepository) Link(ctx context.Context, taskID, requirementID int64) error {
	query := `
        INSERT INTO task_requirements (task_id, requirement_id)
        VALUES ($1, $2)
        ON CONFLICT DO NOTHING
    `
	_, err := r.db.Exec(ctx, query, taskID, requirementID)
	if err != nil {
		r.logger.Error("Failed to link requirement",
			zap.Error(err),
			zap.Int64("task_id", taskID),
			zap.Int64("requirement_id", requirementID),
		)
	}
	return err
}

// Unlink detaches a requirement from a task.
func (r *RequirementRepository) Unlink(ctx context.Context, taskID, requirementID int64) error {
	query := `DELETE FROM task_requirements WHERE task_id = $1 AND requirement_id = $2`
	_, err := r.db.Exec(ctx, query, taskID, requirementID)
	if err != nil {
		r.logger.Error("Failed to unlink requirement",
			zap.Error(err),
			zap.Int64("task_id", taskID),
			zap.Int64("requirement_id", requirementID),
		)
	}
	return err
}
