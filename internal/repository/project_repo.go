package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	contracts "github.com/piccolojnr/planning-platform/contracts/mq"
	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/internal/realtime"
)

type ProjectRepository struct {
	db     *pgxpool.Pool
	feed   *realtime.ChangeFeed
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, feed *realtime.ChangeFeed, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{db: db, feed: feed, logger: logger}
}

// Insert creates a project owned by the given user.
func (r *ProjectRepository) Insert(ctx context.Context, p *model.Project) error {
	r.logger.Debug("Inserting project",
		zap.Int64("user_id", p.UserID),
		zap.String("title", p.Title),
	)
	query := `
        INSERT INTO projects (user_id, title, description, overview, development_model)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		p.UserID,
		p.Title,
		p.Description,
		p.Overview,
		p.DevelopmentModel,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert project",
			zap.Error(err),
			zap.Int64("user_id", p.UserID),
		)
		return err
	}
	r.logger.Info("Project inserted successfully",
		zap.Int64("project_id", p.ID),
		zap.Int64("user_id", p.UserID),
	)
	return nil
}

// GetByID returns exactly one project, or pgx.ErrNoRows.
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	query := `
        SELECT id, user_id, title, description, overview, development_model, created_at, updated_at
        FROM projects
        WHERE id = $1
    `
	var p model.Project
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.UserID, &p.Title, &p.Description, &p.Overview,
		&p.DevelopmentModel, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListOwned returns projects owned by the user, newest first.
func (r *ProjectRepository) ListOwned(ctx context.Context, userID int64) ([]model.Project, error) {
	query := `
        SELECT id, user_id, title, description, overview, development_model, created_at, updated_at
        FROM projects
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	return r.queryProjects(ctx, query, userID)
}

// ListSharedWith returns projects shared with the user, along with the role
// granted by each share.
func (r *ProjectRepository) ListSharedWith(ctx context.Context, userID int64) ([]model.Project, map[int64]string, error) {
	query := `
        SELECT p.id, p.user_id, p.title, p.description, p.overview, p.development_model,
               p.created_at, p.updated_at, s.role
        FROM projects p
        JOIN shared_projects s ON s.project_id = p.id
        WHERE s.user_id = $1
        ORDER BY p.created_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query shared projects",
			zap.Error(err),
			zap.Int64("user_id", userID),
		)
		return nil, nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	roles := map[int64]string{}
	for rows.Next() {
		var p model.Project
		var role string
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Title, &p.Description, &p.Overview,
			&p.DevelopmentModel, &p.CreatedAt, &p.UpdatedAt, &role,
		); err != nil {
			return nil, nil, err
		}
		projects = append(projects, p)
		roles[p.ID] = role
	}
	return projects, roles, rows.Err()
}

// Update persists project title, description, overview and model.
func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	query := `
        UPDATE projects
        SET title = $2, description = $3, overview = $4, development_model = $5, updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.Exec(ctx, query, p.ID, p.Title, p.Description, p.Overview, p.DevelopmentModel)
	if err != nil {
		r.logger.Error("Failed to update project",
			zap.Error(err),
			zap.Int64("project_id", p.ID),
		)
		return err
	}
	r.feed.Notify(ctx, contracts.TableProjects, contracts.ActionUpdate, p.ID)
	return nil
}

// Delete removes the project row; tasks, subtasks, requirements, shares and
// chat messages go with it via ON DELETE CASCADE.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete project",
			zap.Error(err),
			zap.Int64("project_id", id),
		)
		return err
	}
	r.logger.Info("Project deleted",
		zap.Int64("project_id", id),
		zap.Int64("rows_affected", result.RowsAffected()),
	)
	r.feed.Notify(ctx, contracts.TableProjects, contracts.ActionDelete, id)
	return nil
}

// OverridePlan replaces the project's tasks and requirements with an accepted
// AI plan in a single transaction, so an interrupted call cannot leave a
// half-applied plan. Plan dependencies reference tasks by name and are mapped
// to the freshly inserted ids; names that match nothing are dropped.
func (r *ProjectRepository) OverridePlan(ctx context.Context, projectID int64, plan *model.ProjectPlan) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin override tx: %w", err)
	}
	defer tx.Rollback(ctx)

	devModel := plan.DevelopmentModel
	if !model.ValidDevelopmentModel(devModel) {
		devModel = model.ModelAgile
	}

	_, err = tx.Exec(ctx, `
        UPDATE projects
        SET title = $2, description = $3, overview = $4, development_model = $5, updated_at = NOW()
        WHERE id = $1
    `, projectID, plan.ProjectName, plan.ProjectDescription, plan.Overview, devModel)
	if err != nil {
		return fmt.Errorf("failed to update project from plan: %w", err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM tasks WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("failed to clear tasks: %w", err)
	}
	if _, err = tx.Exec(ctx, `DELETE FROM requirements WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("failed to clear requirements: %w", err)
	}

	// first pass inserts tasks in plan order; dependencies are resolved by
	// name in a second pass once every id is known
	idsByName := make(map[string]int64, len(plan.Tasks))
	taskIDs := make([]int64, len(plan.Tasks))
	for i, t := range plan.Tasks {
		duration := t.Duration
		if duration < 1 {
			duration = 1
		}
		var id int64
		err := tx.QueryRow(ctx, `
            INSERT INTO tasks (project_id, title, description, duration, status, "order")
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING id
        `, projectID, t.Name, t.Description, duration, model.StatusPending, i).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert plan task: %w", err)
		}
		idsByName[t.Name] = id
		taskIDs[i] = id
	}

	for i, t := range plan.Tasks {
		if len(t.Dependencies) == 0 {
			continue
		}
		deps := make([]int64, 0, len(t.Dependencies))
		for _, name := range t.Dependencies {
			if id, ok := idsByName[name]; ok && id != taskIDs[i] {
				deps = append(deps, id)
			}
		}
		if len(deps) == 0 {
			continue
		}
		if _, err := tx.Exec(ctx, `UPDATE tasks SET dependencies = $2 WHERE id = $1`, taskIDs[i], deps); err != nil {
			return fmt.Errorf("failed to set plan task dependencies: %w", err)
		}
	}

	for i, content := range plan.Requirements {
		_, err := tx.Exec(ctx, `
            INSERT INTO requirements (project_id, content, "order")
            VALUES ($1, $2, $3)
        `, projectID, content, i)
		if err != nil {
			return fmt.Errorf("failed to insert plan requirement: %w", err)
		}
	}

	if err := r.feed.RecordInTx(ctx, tx, contracts.TableTasks, contracts.ActionBulk, projectID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit override tx: %w", err)
	}

	r.logger.Info("Project plan override applied",
		zap.Int64("project_id", projectID),
		zap.Int("tasks", len(plan.Tasks)),
		zap.Int("requirements", len(plan.Requirements)),
	)
	return nil
}

func (r *ProjectRepository) queryProjects(ctx context.Context, query string, args ...any) ([]model.Project, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query projects", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Title, &p.Description, &p.Overview,
			&p.DevelopmentModel, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
