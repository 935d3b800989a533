package shopping

import (
	"sort"
	"strings"

	"github.com/dukerupert/recipebook/internal/model"
)

// Item is one ingredient to buy. Amounts are free text and are listed once
// per planned meal rather than summed.
type Item struct {
	Name    string   `json:"name"`
	Amounts []string `json:"amounts"`
	Recipes []string `json:"recipes"`
}

// Section groups the items found in one aisle.
type Section struct {
	Aisle string `json:"aisle"`
	Items []Item `json:"items"`
}

// Build collects the ingredients and seasonings of every planned meal.
// Names are merged case-insensitively; plans without a resolved recipe are
// skipped. Sections follow aisle order and items are sorted by name.
func Build(plans []model.Plan) []Section {
	type entry struct {
		item    Item
		aisle   string
		recipes map[string]bool
	}
	entries := make(map[string]*entry)

	add := func(name, amount, recipe, aisle string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		e, ok := entries[key]
		if !ok {
			e = &entry{
				item:    Item{Name: name, Amounts: []string{}, Recipes: []string{}},
				aisle:   aisle,
				recipes: make(map[string]bool),
			}
			entries[key] = e
		}
		if amount = strings.TrimSpace(amount); amount != "" {
			e.item.Amounts = append(e.item.Amounts, amount)
		}
		if !e.recipes[recipe] {
			e.recipes[recipe] = true
			e.item.Recipes = append(e.item.Recipes, recipe)
		}
	}

	for _, p := range plans {
		r := p.Recipe
		if r == nil {
			continue
		}
		for _, ing := range r.Ingredients {
			add(ing.Name, ing.Amount, r.Name, Categorize(ing.Name))
		}
		for _, s := range r.Seasonings {
			aisle := Categorize(s)
			if aisle == AisleOther {
				aisle = AisleSpices
			}
			add(s, "", r.Name, aisle)
		}
	}

	byAisle := make(map[string][]Item)
	for _, e := range entries {
		byAisle[e.aisle] = append(byAisle[e.aisle], e.item)
	}

	sections := make([]Section, 0, len(byAisle))
	for _, name := range aisleOrder() {
		items, ok := byAisle[name]
		if !ok {
			continue
		}
		sort.Slice(items, func(i, j int) bool {
			return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
		})
		sections = append(sections, Section{Aisle: name, Items: items})
	}
	return sections
}

func aisleOrder() []string {
	order := make([]string, 0, len(aisles)+1)
	for _, a := range aisles {
		order = append(order, a.name)
	}
	return append(order, AisleOther)
}
