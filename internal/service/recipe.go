package service

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/recipebook/internal/model"
	"github.com/dukerupert/recipebook/internal/store"
)

const DefaultPageLimit = 100

// ImageStore persists recipe photos. Remove is best-effort and never fails.
type ImageStore interface {
	Save(originalName string, src io.Reader) (string, error)
	Remove(url string)
}

// Image is an uploaded photo waiting to be stored.
type Image struct {
	Filename string
	Body     io.Reader
}

// RecipeInput is the full set of client-writable recipe fields.
type RecipeInput struct {
	Name         string             `json:"name"`
	Description  *string            `json:"description"`
	Ingredients  []model.Ingredient `json:"ingredients"`
	Seasonings   []string           `json:"seasonings"`
	Steps        []string           `json:"steps"`
	CookingTime  *int               `json:"cooking_time"`
	Servings     *int               `json:"servings"`
	Difficulty   *string            `json:"difficulty"`
	Tags         []string           `json:"tags"`
	MasteryLevel *string            `json:"mastery_level"`
	Rating       *int               `json:"rating"`
	Image        *Image             `json:"-"`
}

func (in RecipeInput) params(imageURL *string) (store.RecipeParams, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return store.RecipeParams{}, invalid("name is required")
	}
	mastery := in.MasteryLevel
	if mastery == nil || *mastery == "" {
		m := model.DefaultMasteryLevel
		mastery = &m
	}
	return store.RecipeParams{
		Name:         name,
		Description:  in.Description,
		Ingredients:  nonNilIngredients(in.Ingredients),
		Seasonings:   nonNilStrings(in.Seasonings),
		Steps:        nonNilStrings(in.Steps),
		CookingTime:  in.CookingTime,
		Servings:     in.Servings,
		Difficulty:   in.Difficulty,
		Tags:         nonNilStrings(in.Tags),
		MasteryLevel: mastery,
		Rating:       in.Rating,
		ImageURL:     imageURL,
	}, nil
}

// ListRecipesParams selects a page of recipes. Rating and MasteryLevel filter
// in the store; Tag filters the returned page afterwards, so a tagged page
// may hold fewer than Limit recipes. A nil Limit means DefaultPageLimit and a
// zero Rating means no rating filter.
type ListRecipesParams struct {
	Skip         int
	Limit        *int
	Tag          string
	Rating       *int
	MasteryLevel string
}

type RecipeService struct {
	recipes *store.RecipeStore
	images  ImageStore
	logger  *slog.Logger
	now     func() time.Time
}

func NewRecipeService(rs *store.RecipeStore, images ImageStore, logger *slog.Logger) *RecipeService {
	return &RecipeService{recipes: rs, images: images, logger: logger, now: time.Now}
}

func (s *RecipeService) List(p ListRecipesParams) ([]model.Recipe, error) {
	limit := DefaultPageLimit
	if p.Limit != nil {
		limit = *p.Limit
	}
	if p.Skip < 0 || limit < 0 {
		return nil, invalid("skip and limit must not be negative")
	}
	if limit == 0 {
		return []model.Recipe{}, nil
	}
	rating := p.Rating
	if rating != nil && *rating == 0 {
		rating = nil
	}

	page, err := s.recipes.List(store.RecipeFilter{
		Skip:         p.Skip,
		Limit:        limit,
		Rating:       rating,
		MasteryLevel: p.MasteryLevel,
	})
	if err != nil {
		return nil, err
	}

	recipes := make([]model.Recipe, 0, len(page))
	for _, r := range page {
		if p.Tag != "" && !r.HasTag(p.Tag) {
			continue
		}
		recipes = append(recipes, r)
	}
	return recipes, nil
}

func (s *RecipeService) Get(id int64) (*model.Recipe, error) {
	r, err := s.recipes.GetByID(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
	}
	return r, nil
}

// CreateForm decodes a form submission and creates the recipe.
func (s *RecipeService) CreateForm(f RecipeForm) (*model.Recipe, error) {
	in, err := f.Decode()
	if err != nil {
		return nil, err
	}
	return s.Create(in)
}

// Create stores the optional image first so its URL is known at insert time.
func (s *RecipeService) Create(in RecipeInput) (*model.Recipe, error) {
	p, err := in.params(nil)
	if err != nil {
		return nil, err
	}

	if in.Image != nil {
		url, err := s.images.Save(in.Image.Filename, in.Image.Body)
		if err != nil {
			return nil, fmt.Errorf("save image: %w", err)
		}
		p.ImageURL = &url
	}

	r, err := s.recipes.Create(p, s.now())
	if err != nil {
		if p.ImageURL != nil {
			s.images.Remove(*p.ImageURL)
		}
		return nil, err
	}
	return r, nil
}

// UpdateForm checks the recipe exists before decoding, so a missing id wins
// over a malformed form.
func (s *RecipeService) UpdateForm(id int64, f RecipeForm) (*model.Recipe, error) {
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	in, err := f.Decode()
	if err != nil {
		return nil, err
	}
	return s.update(existing, in)
}

// Update replaces every field. The image is only touched when a new one is
// supplied: the old file is removed first, then the new one is stored.
func (s *RecipeService) Update(id int64, in RecipeInput) (*model.Recipe, error) {
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return s.update(existing, in)
}

func (s *RecipeService) update(existing *model.Recipe, in RecipeInput) (*model.Recipe, error) {
	id := existing.ID
	p, err := in.params(existing.ImageURL)
	if err != nil {
		return nil, err
	}

	var newURL *string
	if in.Image != nil {
		if existing.ImageURL != nil {
			s.images.Remove(*existing.ImageURL)
		}
		url, err := s.images.Save(in.Image.Filename, in.Image.Body)
		if err != nil {
			return nil, fmt.Errorf("save image: %w", err)
		}
		newURL = &url
		p.ImageURL = newURL
	}

	r, err := s.recipes.Update(id, p, s.now())
	if err == nil && r == nil {
		err = fmt.Errorf("recipe %d: %w", id, ErrNotFound)
	}
	if err != nil {
		if newURL != nil {
			s.images.Remove(*newURL)
		}
		return nil, err
	}
	if newURL != nil {
		s.logger.Debug("recipe image replaced", "recipe_id", id, "old", existing.ImageURL, "new", *newURL)
	}
	return r, nil
}

// Delete removes the recipe's image, best-effort, and then the row.
func (s *RecipeService) Delete(id int64) error {
	existing, err := s.Get(id)
	if err != nil {
		return err
	}
	if existing.ImageURL != nil {
		s.images.Remove(*existing.ImageURL)
	}
	return s.recipes.Delete(id)
}
