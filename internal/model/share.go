package model

import "time"

// Share grants a user access to someone else's project. Role is viewer or
// editor; the owner never has a share row.
type Share struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"` // viewer / editor
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
