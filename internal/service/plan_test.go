package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dukerupert/recipebook/internal/database"
	"github.com/dukerupert/recipebook/internal/model"
	"github.com/dukerupert/recipebook/internal/store"
)

type planFixture struct {
	plans   *PlanService
	recipes *RecipeService
	ps      *store.PlanStore
}

func setupPlanService(t *testing.T) planFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	rs := store.NewRecipeStore(db)
	ps := store.NewPlanStore(db)
	svc := NewPlanService(ps, rs, discardLogger())
	svc.now = func() time.Time { return time.Date(2025, 3, 30, 18, 0, 0, 0, time.UTC) }
	return planFixture{
		plans:   svc,
		recipes: NewRecipeService(rs, &fakeImages{}, discardLogger()),
		ps:      ps,
	}
}

func (f planFixture) addRecipes(t *testing.T, n int) []int64 {
	t.Helper()
	ids := make([]int64, n)
	for i := range ids {
		r, err := f.recipes.CreateForm(RecipeForm{Name: fmt.Sprintf("recipe %d", i)})
		if err != nil {
			t.Fatalf("create recipe: %v", err)
		}
		ids[i] = r.ID
	}
	return ids
}

func TestPlanCreateDefaultsToDinner(t *testing.T) {
	f := setupPlanService(t)
	ids := f.addRecipes(t, 1)

	p, err := f.plans.Create(PlanInput{Date: "2025-04-01", RecipeID: ids[0]})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Type != model.PlanTypeDinner {
		t.Errorf("type = %q, want dinner", p.Type)
	}
	if p.Recipe == nil || p.Recipe.ID != ids[0] {
		t.Errorf("recipe = %+v, want enriched", p.Recipe)
	}
}

func TestPlanCreateValidation(t *testing.T) {
	f := setupPlanService(t)
	ids := f.addRecipes(t, 1)

	tests := []struct {
		name string
		in   PlanInput
	}{
		{"bad date", PlanInput{Date: "04/01/2025", RecipeID: ids[0]}},
		{"empty date", PlanInput{RecipeID: ids[0]}},
		{"unknown recipe", PlanInput{Date: "2025-04-01", RecipeID: 999}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.plans.Create(tt.in); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
	if n, _ := f.ps.Count(); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestPlanListRange(t *testing.T) {
	f := setupPlanService(t)
	ids := f.addRecipes(t, 1)

	for _, in := range []PlanInput{
		{Date: "2025-04-02", RecipeID: ids[0], Type: "dinner"},
		{Date: "2025-04-02", RecipeID: ids[0], Type: "lunch"},
		{Date: "2025-04-01", RecipeID: ids[0]},
		{Date: "2025-04-05", RecipeID: ids[0]},
	} {
		if _, err := f.plans.Create(in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := f.plans.ListRange("2025-04-01", "2025-04-02")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	want := []string{"2025-04-01/dinner", "2025-04-02/lunch", "2025-04-02/dinner"}
	for i, p := range got {
		if key := p.Date + "/" + p.Type; key != want[i] {
			t.Errorf("plan %d = %s, want %s", i, key, want[i])
		}
	}

	empty, err := f.plans.ListRange("2030-01-01", "2030-01-31")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("empty range = %v, want non-nil empty slice", empty)
	}
}

func TestPlanListRangeRequiresDates(t *testing.T) {
	f := setupPlanService(t)

	for _, tc := range [][2]string{{"", "2025-01-01"}, {"2025-01-01", ""}, {"2025-1-1", "2025-01-02"}} {
		if _, err := f.plans.ListRange(tc[0], tc[1]); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ListRange(%q, %q) err = %v, want ErrInvalidInput", tc[0], tc[1], err)
		}
	}
}

func TestPlanGetAndDelete(t *testing.T) {
	f := setupPlanService(t)
	ids := f.addRecipes(t, 1)
	p, _ := f.plans.Create(PlanInput{Date: "2025-04-01", RecipeID: ids[0], Type: "lunch"})

	got, err := f.plans.Get(p.ID)
	if err != nil || got.Type != "lunch" {
		t.Fatalf("get = %+v, %v", got, err)
	}
	if err := f.plans.Delete(p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.plans.Delete(p.ID); err != nil {
		t.Errorf("second delete: %v, want nil", err)
	}
	if _, err := f.plans.Get(p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGenerateCreatesLunchAndDinnerPerDay(t *testing.T) {
	f := setupPlanService(t)
	ids := f.addRecipes(t, 3)
	calls := 0
	f.plans.pick = func(n int) int {
		calls++
		return calls % n
	}

	n, err := f.plans.Generate(3)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if n != 6 {
		t.Errorf("count = %d, want 6", n)
	}

	// The clock says March 30th, so the window crosses into April.
	got, _ := f.plans.ListRange("2025-03-30", "2025-04-01")
	if len(got) != 6 {
		t.Fatalf("len = %d, want 6", len(got))
	}
	dates := map[string][]string{}
	valid := map[int64]bool{ids[0]: true, ids[1]: true, ids[2]: true}
	for _, p := range got {
		dates[p.Date] = append(dates[p.Date], p.Type)
		if !valid[p.RecipeID] {
			t.Errorf("plan uses unknown recipe %d", p.RecipeID)
		}
		if p.IsCompleted {
			t.Errorf("generated plan %d is completed", p.ID)
		}
	}
	for _, d := range []string{"2025-03-30", "2025-03-31", "2025-04-01"} {
		types := dates[d]
		if len(types) != 2 || types[0] != "lunch" || types[1] != "dinner" {
			t.Errorf("%s types = %v, want [lunch dinner]", d, types)
		}
	}
}

func TestGenerateDoesNotReplaceExisting(t *testing.T) {
	f := setupPlanService(t)
	f.addRecipes(t, 1)

	if _, err := f.plans.Generate(1); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := f.plans.Generate(1); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if n, _ := f.ps.Count(); n != 4 {
		t.Errorf("count = %d, want 4", n)
	}
}

func TestGenerateErrors(t *testing.T) {
	f := setupPlanService(t)

	if _, err := f.plans.Generate(7); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("no recipes err = %v, want ErrInvalidInput", err)
	}

	f.addRecipes(t, 1)
	for _, days := range []int{0, -1, MaxGenerateDays + 1} {
		if _, err := f.plans.Generate(days); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Generate(%d) err = %v, want ErrInvalidInput", days, err)
		}
	}
	if n, _ := f.ps.Count(); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestDeletingRecipeCascadesToPlans(t *testing.T) {
	f := setupPlanService(t)
	ids := f.addRecipes(t, 2)
	f.plans.Create(PlanInput{Date: "2025-04-01", RecipeID: ids[0]})
	keep, _ := f.plans.Create(PlanInput{Date: "2025-04-01", RecipeID: ids[1], Type: "lunch"})

	if err := f.recipes.Delete(ids[0]); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}
	got, _ := f.plans.ListRange("2025-04-01", "2025-04-01")
	if len(got) != 1 || got[0].ID != keep.ID {
		t.Errorf("plans = %+v, want only %d", got, keep.ID)
	}
}
