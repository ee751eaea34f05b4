package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/model"
)

type FeedbackRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewFeedbackRepository(db *pgxpool.Pool, logger *zap.Logger) *FeedbackRepository {
	return &FeedbackRepository{db: db, logger: logger}
}

// Insert stores a feedback entry.
func (r *FeedbackRepository) Insert(ctx context.Context, f *model.Feedback) error {
	query := `
        INSERT INTO feedback (user_id, title, content)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query, f.UserID, f.Title, f.Content).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert feedback",
			zap.Error(err),
			zap.Int64("user_id", f.UserID),
		)
	}
	return err
}

// List returns all feedback entries, newest first.
func (r *FeedbackRepository) List(ctx context.Context) ([]model.Feedback, error) {
	query := `
        SELECT id, user_id, title, content, created_at
        FROM feedback
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query feedback", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	entries := []model.Feedback{}
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.Title, &f.Content, &f.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, f)
	}
	return entries, rows.Err()
}
