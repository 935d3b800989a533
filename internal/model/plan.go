package model

const (
	PlanTypeLunch  = "lunch"
	PlanTypeDinner = "dinner"
)

// DateLayout is the calendar date format plans are stored and compared in.
const DateLayout = "2006-01-02"

// Plan assigns a recipe to a calendar date and meal slot. Recipe is populated
// on reads and is nil when the reference cannot be resolved.
type Plan struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	RecipeID    int64   `json:"recipe_id"`
	Type        string  `json:"type"`
	IsCompleted bool    `json:"is_completed"`
	Recipe      *Recipe `json:"recipe"`
}
