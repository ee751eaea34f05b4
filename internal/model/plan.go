package model

// ProjectPlan is the structured plan returned by the hosted AI function.
// Task dependencies here reference other plan tasks by name; they are mapped
// to real task ids when the plan is applied.
type ProjectPlan struct {
	ProjectName        string     `json:"project_name"`
	ProjectDescription string     `json:"project_description"`
	DevelopmentModel   string     `json:"development_model"`
	Tasks              []PlanTask `json:"tasks"`
	Requirements       []string   `json:"requirements"`
	Overview           string     `json:"overview"`
}

type PlanTask struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Duration     int      `json:"duration"`
	Dependencies []string `json:"dependencies"`
}

// SubtaskPlan is the structured subtask list returned by the hosted AI
// function for a single task.
type SubtaskPlan struct {
	Subtasks []PlanSubtask `json:"subtasks"`
}

type PlanSubtask struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
