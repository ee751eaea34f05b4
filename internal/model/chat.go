package model

import "time"

// Chat roles in a project planning conversation.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

type ChatMessage struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Role      string    `json:"role"` // user / assistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
