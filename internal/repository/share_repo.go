package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/model"
)

type ShareRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewShareRepository(db *pgxpool.Pool, logger *zap.Logger) *ShareRepository {
	return &ShareRepository{db: db, logger: logger}
}

// Insert grants a user access to a project. One share per (project, user).
func (r *ShareRepository) Insert(ctx context.Context, s *model.Share) error {
	query := `
        INSERT INTO shared_projects (project_id, user_id, role)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query, s.ProjectID, s.UserID, s.Role).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert share",
			zap.Error(err),
			zap.Int64("project_id", s.ProjectID),
			zap.Int64("user_id", s.UserID),
		)
		return err
	}
	r.logger.Info("Share created",
		zap.Int64("share_id", s.ID),
		zap.Int64("project_id", s.ProjectID),
		zap.String("role", s.Role),
	)
	return nil
}

// ListByProject returns the project's shares with the grantee's email.
func (r *ShareRepository) ListByProject(ctx context.Context, projectID int64) ([]model.Share, error) {
	query := `
        SELECT s.id, s.project_id, s.user_id, s.role, u.email, s.created_at
        FROM shared_projects s
        JOIN users u ON u.id = s.user_id
        WHERE s.project_id = $1
        ORDER BY s.created_at
    `
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to query shares",
			zap.Error(err),
			zap.Int64("project_id", projectID),
		)
		return nil, err
	}
	defer rows.Close()

	shares := []model.Share{}
	for rows.Next() {
		var s model.Share
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.UserID, &s.Role, &s.Email, &s.CreatedAt); err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	return shares, rows.Err()
}

// GetRole returns the role granted to the user on the project, or
// pgx.ErrNoRows when no share exists.
func (r *ShareRepository) GetRole(ctx context.Context, projectID, userID int64) (string, error) {
	query := `SELECT role FROM shared_projects WHERE project_id = $1 AND user_id = $2`
	var role string
	if err := r.db.QueryRow(ctx, query, projectID, userID).Scan(&role); err != nil {
		return "", err
	}
	return role, nil
}

// UpdateRole changes an existing share's role. The project predicate keeps a
// share id from another project from being writable through this call;
// pgx.ErrNoRows is returned when the pair does not match.
func (r *ShareRepository) UpdateRole(ctx context.Context, projectID, shareID int64, role string) error {
	query := `UPDATE shared_projects SET role = $3 WHERE id = $1 AND project_id = $2`
	tag, err := r.db.Exec(ctx, query, shareID, projectID, role)
	if err != nil {
		r.logger.Error("Failed to update share role",
			zap.Error(err),
			zap.Int64("share_id", shareID),
			zap.Int64("project_id", projectID),
			zap.String("role", role),
		)
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete revokes a share. Keyed by (share, project) like UpdateRole;
// pgx.ErrNoRows when the share is not in the project.
func (r *ShareRepository) Delete(ctx context.Context, projectID, shareID int64) error {
	query := `DELETE FROM shared_projects WHERE id = $1 AND project_id = $2`
	tag, err := r.db.Exec(ctx, query, shareID, projectID)
	if err != nil {
		r.logger.Error("Failed to delete share",
			zap.Error(err),
			zap.Int64("share_id", shareID),
			zap.Int64("project_id", projectID),
		)
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
