package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/piccolojnr/planning-platform/internal/model"
)

type ChatRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewChatRepository(db *pgxpool.Pool, logger *zap.Logger) *ChatRepository {
	return &ChatRepository{db: db, logger: logger}
}

// Insert appends a message to the project's conversation.
func (r *ChatRepository) Insert(ctx context.Context, m *model.ChatMessage) error {
	query := `
        INSERT INTO chat_messages (project_id, role, content)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query, m.ProjectID, m.Role, m.Content).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert chat message",
			zap.Error(err),
			zap.Int64("project_id", m.ProjectID),
		)
	}
	return err
}

// ListByProject returns the conversation oldest first.
func (r *ChatRepository) ListByProject(ctx context.Context, projectID int64) ([]model.ChatMessage, error) {
	query := `
        SELECT id, project_id, role, content, created_at
        FROM chat_messages
        WHERE project_id = $1
        ORDER BY created_at, id
    `
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to query chat messages",
			zap.Error(err),
			zap.Int64("project_id", projectID),
		)
		return nil, err
	}
	defer rows.Close()

	messages := []model.ChatMessage{}
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Delete removes one message from the conversation.
func (r *ChatRepository) Delete(ctx context.Context, id, projectID int64) error {
	query := `DELETE FROM chat_messages WHERE id = $1 AND project_id = $2`
	_, err := r.db.Exec(ctx, query, id, projectID)
	if err != nil {
		r.logger.Error("Failed to delete chat message",
			zap.Error(err),
			zap.Int64("message_id", id),
		)
	}
	return err
}

// DeleteLast removes the most recent message of the conversation.
func (r *ChatRepository) DeleteLast(ctx context.Context, projectID int64) error {
	query := `
        DELETE FROM chat_messages
        WHERE id = (
            SELECT id FROM chat_messages
            WHERE project_id = $1
            ORDER BY created_at DESC, id DESC
            LIMIT 1
        )
    `
	_, err := r.db.Exec(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to delete last chat message",
			zap.Error(err),
			zap.Int64("project_id", projectID),
		)
	}
	return err
}

// Reset clears the whole conversation.
func (r *ChatRepository) Reset(ctx context.Context, projectID int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM chat_messages WHERE project_id = $1`, projectID)
	if err != nil {
		r.logger.Error("Failed to reset conversation",
			zap.Error(err),
			zap.Int64("project_id", projectID),
		)
		return err
	}
	r.logger.Info("Conversation reset",
		zap.Int64("project_id", projectID),
		zap.Int64("messages_deleted", result.RowsAffected()),
	)
	return nil
}
