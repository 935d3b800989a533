package service

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/dukerupert/recipebook/internal/model"
	"github.com/dukerupert/recipebook/internal/shopping"
	"github.com/dukerupert/recipebook/internal/store"
)

const (
	DefaultGenerateDays = 7
	MaxGenerateDays     = 366
)

// PlanInput is the client-writable shape of a plan.
type PlanInput struct {
	Date        string `json:"date"`
	RecipeID    int64  `json:"recipe_id"`
	Type        string `json:"type"`
	IsCompleted bool   `json:"is_completed"`
}

type PlanService struct {
	plans   *store.PlanStore
	recipes *store.RecipeStore
	logger  *slog.Logger
	now     func() time.Time
	pick    func(n int) int
}

func NewPlanService(ps *store.PlanStore, rs *store.RecipeStore, logger *slog.Logger) *PlanService {
	return &PlanService{
		plans:   ps,
		recipes: rs,
		logger:  logger,
		now:     time.Now,
		pick:    rand.IntN,
	}
}

// ListRange returns the plans dated within [start, end], each carrying its
// recipe when the reference resolves.
func (s *PlanService) ListRange(start, end string) ([]model.Plan, error) {
	if start == "" || end == "" {
		return nil, invalid("start_date and end_date are required")
	}
	if err := checkDate("start_date", start); err != nil {
		return nil, err
	}
	if err := checkDate("end_date", end); err != nil {
		return nil, err
	}

	plans, err := s.plans.ListByDateRange(start, end)
	if err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []model.Plan{}
	}
	return plans, nil
}

// ShoppingList gathers what the plans in [start, end] need, grouped by aisle.
func (s *PlanService) ShoppingList(start, end string) ([]shopping.Section, error) {
	plans, err := s.ListRange(start, end)
	if err != nil {
		return nil, err
	}
	return shopping.Build(plans), nil
}

func (s *PlanService) Get(id int64) (*model.Plan, error) {
	p, err := s.plans.GetByID(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("plan %d: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *PlanService) Create(in PlanInput) (*model.Plan, error) {
	if err := checkDate("date", in.Date); err != nil {
		return nil, err
	}
	planType := strings.TrimSpace(in.Type)
	if planType == "" {
		planType = model.PlanTypeDinner
	}

	r, err := s.recipes.GetByID(in.RecipeID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, invalid("recipe %d does not exist", in.RecipeID)
	}

	return s.plans.Create(in.Date, in.RecipeID, planType, in.IsCompleted)
}

// Delete is idempotent: a missing id is not an error.
func (s *PlanService) Delete(id int64) error {
	return s.plans.Delete(id)
}

// Generate adds a lunch and a dinner plan for each of the next days days,
// starting today, each with a recipe drawn uniformly at random with
// replacement. Existing plans are left alone, so duplicates are possible.
// It returns the number of plans created.
func (s *PlanService) Generate(days int) (int, error) {
	if days < 1 || days > MaxGenerateDays {
		return 0, invalid("days must be between 1 and %d", MaxGenerateDays)
	}

	ids, err := s.recipes.ListIDs()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, invalid("no recipes available to generate plans from")
	}

	today := s.now()
	plans := make([]model.Plan, 0, days*2)
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, i).Format(model.DateLayout)
		for _, slot := range []string{model.PlanTypeLunch, model.PlanTypeDinner} {
			plans = append(plans, model.Plan{
				Date:     date,
				RecipeID: ids[s.pick(len(ids))],
				Type:     slot,
			})
		}
	}

	n, err := s.plans.CreateBatch(plans)
	if err != nil {
		return 0, err
	}
	s.logger.Info("generated plans", "days", days, "count", n, "from", plans[0].Date)
	return n, nil
}

func checkDate(field, v string) error {
	if _, err := time.Parse(model.DateLayout, v); err != nil {
		return invalid("%s must be a YYYY-MM-DD date", field)
	}
	return nil
}
