package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/recipebook/internal/model"
)

type PlanStore struct {
	db *sql.DB
}

func NewPlanStore(db *sql.DB) *PlanStore {
	return &PlanStore{db: db}
}

// planSelect joins each plan with its recipe so reads come back enriched in
// a single query.
var planSelect = `SELECT p.id, p.date, p.recipe_id, p.type, p.is_completed, ` + prefixedRecipeCols("r") + `
	FROM plans p LEFT JOIN recipes r ON r.id = p.recipe_id`

func scanPlan(scanner interface{ Scan(...any) error }) (*model.Plan, error) {
	var p model.Plan
	var completed int
	var row recipeRow

	dest := append([]any{&p.ID, &p.Date, &p.RecipeID, &p.Type, &completed}, row.dest()...)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	p.IsCompleted = completed != 0

	rec, err := row.toModel()
	if err != nil {
		return nil, err
	}
	p.Recipe = rec
	return &p, nil
}

func (s *PlanStore) Create(date string, recipeID int64, planType string, completed bool) (*model.Plan, error) {
	result, err := s.db.Exec(
		`INSERT INTO plans (date, recipe_id, type, is_completed) VALUES (?, ?, ?, ?)`,
		date, recipeID, planType, boolToInt(completed),
	)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// CreateBatch inserts all plans in one transaction and returns how many were
// written. Either every plan is stored or none is.
func (s *PlanStore) CreateBatch(plans []model.Plan) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO plans (date, recipe_id, type, is_completed) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare plan insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range plans {
		if _, err := stmt.Exec(p.Date, p.RecipeID, p.Type, boolToInt(p.IsCompleted)); err != nil {
			return 0, fmt.Errorf("insert plan %s/%s: %w", p.Date, p.Type, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit plans: %w", err)
	}
	return len(plans), nil
}

func (s *PlanStore) GetByID(id int64) (*model.Plan, error) {
	row := s.db.QueryRow(planSelect+` WHERE p.id = ?`, id)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

// ListByDateRange returns plans whose date lies in [start, end]. Dates are
// YYYY-MM-DD strings, so lexical comparison matches calendar order.
func (s *PlanStore) ListByDateRange(start, end string) ([]model.Plan, error) {
	rows, err := s.db.Query(
		planSelect+` WHERE p.date >= ? AND p.date <= ?
		 ORDER BY p.date ASC, CASE p.type WHEN 'lunch' THEN 0 WHEN 'dinner' THEN 1 ELSE 2 END, p.id ASC`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// Delete removes the plan if it exists. Deleting a missing id is not an error.
func (s *PlanStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}

func (s *PlanStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM plans`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count plans: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
