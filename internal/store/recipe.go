package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/recipebook/internal/model"
)

type RecipeStore struct {
	db *sql.DB
}

func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

// RecipeParams carries every writable recipe column. Update replaces all of
// them, so callers must pass the existing ImageURL to keep it.
type RecipeParams struct {
	Name         string
	Description  *string
	Ingredients  []model.Ingredient
	Seasonings   []string
	Steps        []string
	CookingTime  *int
	Servings     *int
	Difficulty   *string
	Tags         []string
	MasteryLevel *string
	Rating       *int
	ImageURL     *string
}

// RecipeFilter selects a page of recipes. Rating and MasteryLevel are exact
// matches; a Limit of zero or less means no limit.
type RecipeFilter struct {
	Skip         int
	Limit        int
	Rating       *int
	MasteryLevel string
}

var recipeColumns = []string{
	"id", "name", "description", "ingredients", "seasonings", "steps",
	"cooking_time", "servings", "difficulty", "tags", "mastery_level", "rating",
	"image_url", "cook_count", "last_cooked_at", "created_at", "updated_at",
}

var recipeCols = strings.Join(recipeColumns, ", ")

func prefixedRecipeCols(alias string) string {
	cols := make([]string, len(recipeColumns))
	for i, c := range recipeColumns {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// recipeRow holds nullable scan targets so the same scanner serves direct
// selects and LEFT JOINs where the whole recipe may be absent.
type recipeRow struct {
	id           sql.NullInt64
	name         sql.NullString
	description  sql.NullString
	ingredients  sql.NullString
	seasonings   sql.NullString
	steps        sql.NullString
	cookingTime  sql.NullInt64
	servings     sql.NullInt64
	difficulty   sql.NullString
	tags         sql.NullString
	masteryLevel sql.NullString
	rating       sql.NullInt64
	imageURL     sql.NullString
	cookCount    sql.NullInt64
	lastCookedAt sql.NullTime
	createdAt    sql.NullTime
	updatedAt    sql.NullTime
}

func (r *recipeRow) dest() []any {
	return []any{
		&r.id, &r.name, &r.description, &r.ingredients, &r.seasonings, &r.steps,
		&r.cookingTime, &r.servings, &r.difficulty, &r.tags, &r.masteryLevel, &r.rating,
		&r.imageURL, &r.cookCount, &r.lastCookedAt, &r.createdAt, &r.updatedAt,
	}
}

// toModel returns nil when the row carries no recipe.
func (r *recipeRow) toModel() (*model.Recipe, error) {
	if !r.id.Valid {
		return nil, nil
	}

	rec := &model.Recipe{
		ID:           r.id.Int64,
		Name:         r.name.String,
		Description:  nullString(r.description),
		CookingTime:  nullInt(r.cookingTime),
		Servings:     nullInt(r.servings),
		Difficulty:   nullString(r.difficulty),
		MasteryLevel: nullString(r.masteryLevel),
		Rating:       nullInt(r.rating),
		ImageURL:     nullString(r.imageURL),
		CookCount:    int(r.cookCount.Int64),
		CreatedAt:    r.createdAt.Time,
		UpdatedAt:    r.updatedAt.Time,
	}
	if r.lastCookedAt.Valid {
		rec.LastCookedAt = &r.lastCookedAt.Time
	}

	if err := decodeList(r.ingredients.String, &rec.Ingredients); err != nil {
		return nil, fmt.Errorf("decode ingredients: %w", err)
	}
	if err := decodeList(r.seasonings.String, &rec.Seasonings); err != nil {
		return nil, fmt.Errorf("decode seasonings: %w", err)
	}
	if err := decodeList(r.steps.String, &rec.Steps); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	if err := decodeList(r.tags.String, &rec.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if rec.Ingredients == nil {
		rec.Ingredients = []model.Ingredient{}
	}
	if rec.Seasonings == nil {
		rec.Seasonings = []string{}
	}
	if rec.Steps == nil {
		rec.Steps = []string{}
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	return rec, nil
}

func scanRecipe(scanner interface{ Scan(...any) error }) (*model.Recipe, error) {
	var row recipeRow
	if err := scanner.Scan(row.dest()...); err != nil {
		return nil, err
	}
	return row.toModel()
}

func (s *RecipeStore) Create(p RecipeParams, now time.Time) (*model.Recipe, error) {
	lists, err := encodeLists(p)
	if err != nil {
		return nil, err
	}
	now = now.UTC()

	result, err := s.db.Exec(
		`INSERT INTO recipes (name, description, ingredients, seasonings, steps, cooking_time, servings,
		   difficulty, tags, mastery_level, rating, image_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, lists[0], lists[1], lists[2], p.CookingTime, p.Servings,
		p.Difficulty, lists[3], p.MasteryLevel, p.Rating, p.ImageURL, now.UTC(), now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RecipeStore) GetByID(id int64) (*model.Recipe, error) {
	row := s.db.QueryRow(`SELECT `+recipeCols+` FROM recipes WHERE id = ?`, id)
	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return r, nil
}

// List returns recipes in id order, filtered and paginated in SQL.
func (s *RecipeStore) List(f RecipeFilter) ([]model.Recipe, error) {
	query := `SELECT ` + recipeCols + ` FROM recipes WHERE 1 = 1`
	var args []any
	if f.Rating != nil {
		query += ` AND rating = ?`
		args = append(args, *f.Rating)
	}
	if f.MasteryLevel != "" {
		query += ` AND mastery_level = ?`
		args = append(args, f.MasteryLevel)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	skip := f.Skip
	if skip < 0 {
		skip = 0
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, limit, skip)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}

// ListIDs returns the id of every recipe.
func (s *RecipeStore) ListIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT id FROM recipes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list recipe ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recipe id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *RecipeStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM recipes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	return n, nil
}

// Update replaces every writable column and refreshes updated_at. It returns
// nil when no recipe has the given id.
func (s *RecipeStore) Update(id int64, p RecipeParams, now time.Time) (*model.Recipe, error) {
	lists, err := encodeLists(p)
	if err != nil {
		return nil, err
	}

	result, err := s.db.Exec(
		`UPDATE recipes
		 SET name = ?, description = ?, ingredients = ?, seasonings = ?, steps = ?, cooking_time = ?,
		     servings = ?, difficulty = ?, tags = ?, mastery_level = ?, rating = ?, image_url = ?,
		     updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Description, lists[0], lists[1], lists[2], p.CookingTime,
		p.Servings, p.Difficulty, lists[3], p.MasteryLevel, p.Rating, p.ImageURL,
		now.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	return s.GetByID(id)
}

// Delete removes the recipe; plans referencing it are removed by the
// ON DELETE CASCADE foreign key.
func (s *RecipeStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

// encodeLists returns the JSON text for ingredients, seasonings, steps and tags.
func encodeLists(p RecipeParams) ([4]string, error) {
	var out [4]string
	values := [4]any{p.Ingredients, p.Seasonings, p.Steps, p.Tags}
	names := [4]string{"ingredients", "seasonings", "steps", "tags"}
	for i, v := range values {
		text, err := encodeList(v)
		if err != nil {
			return out, fmt.Errorf("encode %s: %w", names[i], err)
		}
		out[i] = text
	}
	return out, nil
}

func encodeList(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}

func decodeList(text string, v any) error {
	if text == "" {
		return nil
	}
	return json.Unmarshal([]byte(text), v)
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}
