package service

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/dukerupert/recipebook/internal/model"
)

// RecipeForm is a recipe as submitted through a multipart form: the list
// fields arrive as JSON text and the numbers as decimal strings. Empty
// strings mean "not supplied".
type RecipeForm struct {
	Name         string
	Description  string
	Ingredients  string
	Seasonings   string
	Steps        string
	CookingTime  string
	Servings     string
	Difficulty   string
	Tags         string
	MasteryLevel string
	Rating       string
	Image        *Image
}

// Decode converts the form into a typed input. Any malformed list or number
// fails the whole decode with ErrInvalidInput.
func (f RecipeForm) Decode() (RecipeInput, error) {
	in := RecipeInput{
		Name:         f.Name,
		Description:  optionalText(f.Description),
		Difficulty:   optionalText(f.Difficulty),
		MasteryLevel: optionalText(f.MasteryLevel),
		Image:        f.Image,
	}

	if err := decodeJSONField("ingredients", f.Ingredients, &in.Ingredients); err != nil {
		return RecipeInput{}, err
	}
	if err := decodeJSONField("seasonings", f.Seasonings, &in.Seasonings); err != nil {
		return RecipeInput{}, err
	}
	if err := decodeJSONField("steps", f.Steps, &in.Steps); err != nil {
		return RecipeInput{}, err
	}
	if err := decodeJSONField("tags", f.Tags, &in.Tags); err != nil {
		return RecipeInput{}, err
	}

	var err error
	if in.CookingTime, err = optionalInt("cooking_time", f.CookingTime); err != nil {
		return RecipeInput{}, err
	}
	if in.Servings, err = optionalInt("servings", f.Servings); err != nil {
		return RecipeInput{}, err
	}
	if in.Rating, err = optionalInt("rating", f.Rating); err != nil {
		return RecipeInput{}, err
	}
	return in, nil
}

func decodeJSONField(name, text string, v any) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return invalid("%s must be a JSON array: %v", name, err)
	}
	return nil
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalInt(name, s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, invalid("%s must be an integer", name)
	}
	return &n, nil
}

func nonNilIngredients(v []model.Ingredient) []model.Ingredient {
	if v == nil {
		return []model.Ingredient{}
	}
	return v
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
