package model

import "time"

const DefaultMasteryLevel = "never_tried"

type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// Recipe is a dish record. Ingredients, Seasonings, Steps and Tags are never
// nil once loaded from the store.
type Recipe struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Description  *string      `json:"description"`
	Ingredients  []Ingredient `json:"ingredients"`
	Seasonings   []string     `json:"seasonings"`
	Steps        []string     `json:"steps"`
	CookingTime  *int         `json:"cooking_time"`
	Servings     *int         `json:"servings"`
	Difficulty   *string      `json:"difficulty"`
	Tags         []string     `json:"tags"`
	MasteryLevel *string      `json:"mastery_level"`
	Rating       *int         `json:"rating"`
	ImageURL     *string      `json:"image_url"`
	CookCount    int          `json:"cook_count"`
	LastCookedAt *time.Time   `json:"last_cooked_at"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// HasTag reports whether tag is one of the recipe's tags.
func (r *Recipe) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
