package model

import "time"

// Development models supported for a project plan.
const (
	ModelAgile     = "agile"
	ModelWaterfall = "waterfall"
	ModelScrum     = "scrum"
)

type Project struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Overview         string    `json:"overview"`
	DevelopmentModel string    `json:"development_model"` // agile / waterfall / scrum
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ValidDevelopmentModel reports whether m is one of the supported models.
func ValidDevelopmentModel(m string) bool {
	switch m {
	case ModelAgile, ModelWaterfall, ModelScrum:
		return true
	}
	return false
}
