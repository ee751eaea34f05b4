package mq

import "time"

// Table names published on the change feed. Consumers treat an event as
// "table X changed for project P, refetch" - no row-level deltas are carried.
const (
	TableProjects     = "projects"
	TableTasks        = "tasks"
	TableSubtasks     = "subtasks"
	TableRequirements = "requirements"
	TableShares       = "shared_projects"
	TableChatMessages = "chat_messages"
)

// Actions recorded on change events.
const (
	ActionInsert  = "insert"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionReorder = "reorder"
	ActionBulk    = "bulk_override"
)

// TableChangedPayload is the change feed event body. Routing key is
// "changed.<table>" on the events exchange.
type TableChangedPayload struct {
	Table     string    `json:"table"`
	Action    string    `json:"action"`
	ProjectID int64     `json:"project_id"`
	ChangedAt time.Time `json:"changed_at"`
}

// RoutingKey returns the routing key for a table change.
func RoutingKey(table string) string {
	return "changed." + table
}
