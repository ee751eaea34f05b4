package model

import "time"

// Task and subtask statuses. There are only two states; pending -> completed
// is dependency-gated for tasks, completed -> pending is always allowed.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Task belongs to a project. Dependencies is an ordered list of task ids; an
// id that does not resolve to a loaded task counts as incomplete (fail
// closed). Order is used only for relative sort, ties broken by id; values
// may be sparse or duplicated.
type Task struct {
	ID           int64     `json:"id"`
	ProjectID    int64     `json:"project_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Duration     int       `json:"duration"` // days, positive
	Dependencies []int64   `json:"dependencies"`
	Status       string    `json:"status"`
	Order        int       `json:"order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Completed reports whether the task status is completed.
func (t *Task) Completed() bool {
	return t.Status == StatusCompleted
}

type Subtask struct {
	ID          int64     `json:"id"`
	TaskID      int64     `json:"task_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Completed reports whether the subtask status is completed.
func (s *Subtask) Completed() bool {
	return s.Status == StatusCompleted
}
