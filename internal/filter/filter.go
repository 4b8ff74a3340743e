// Package filter provides food filtering over a dining data snapshot.
//
// Filters narrow down food items by various criteria:
//   - Dietary tags the item must carry (e.g. vegetarian, gluten_free)
//   - Allergen categories the item must not list
//   - Maximum calories and minimum protein
//   - Meal periods (breakfast, lunch, ...)
//   - Hall names (substring matching, case-insensitive)
//
// Dietary tags in the snapshot are inferred from allergen absence and page
// keywords, so filtering by them is a best-effort convenience, not a
// safety guarantee.
package filter

import (
	"strings"

	"github.com/bwalsh/vt-nutrition/internal/menu"
)

// Filter represents food filtering criteria.
type Filter struct {
	// Dietary tags the item's nutrition record must include (all of them)
	DietaryTags []string `json:"dietary_tags,omitempty"`

	// Allergen categories that must be absent from the item
	ExcludeAllergens []string `json:"exclude_allergens,omitempty"`

	// Calorie ceiling; 0 means no limit. Items with unknown calories pass.
	MaxCalories int `json:"max_calories,omitempty"`

	// Protein floor in grams; 0 means no minimum
	MinProtein float64 `json:"min_protein,omitempty"`

	// Meal period filtering (exact match, case-insensitive)
	MealPeriods []string `json:"meal_periods,omitempty"`

	// Hall name filtering (case-insensitive substring match)
	Halls []string `json:"halls,omitempty"`
}

// Match is one food item that passed the filter, with its context.
type Match struct {
	Hall       string         `json:"hall"`
	MealPeriod string         `json:"meal_period"`
	Item       *menu.FoodItem `json:"item"`
}

// NewFilter creates an empty filter that matches all items.
func NewFilter() *Filter {
	return &Filter{}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return len(f.DietaryTags) == 0 &&
		len(f.ExcludeAllergens) == 0 &&
		f.MaxCalories == 0 &&
		f.MinProtein == 0 &&
		len(f.MealPeriods) == 0 &&
		len(f.Halls) == 0
}

// Matches checks if a food item in the given hall and meal period passes
// all active criteria. An empty filter matches everything. Items without a
// nutrition record fail tag, allergen, and protein criteria but pass the
// calorie ceiling (unknown is not over the limit).
func (f *Filter) Matches(hallName, mealPeriod string, item *menu.FoodItem) bool {
	if f.IsEmpty() {
		return true
	}

	if len(f.Halls) > 0 && !matchesAnySubstring(hallName, f.Halls) {
		return false
	}

	if len(f.MealPeriods) > 0 && !matchesAnyExact(mealPeriod, f.MealPeriods) {
		return false
	}

	n := item.Nutrition

	for _, tag := range f.DietaryTags {
		if n == nil || !n.HasTag(tag) {
			return false
		}
	}

	for _, allergen := range f.ExcludeAllergens {
		if n != nil && n.HasAllergen(allergen) {
			return false
		}
	}

	if f.MaxCalories > 0 && n != nil && n.Calories != nil && *n.Calories > f.MaxCalories {
		return false
	}

	if f.MinProtein > 0 {
		if n == nil || n.Protein == nil || *n.Protein < f.MinProtein {
			return false
		}
	}

	return true
}

// Apply walks a snapshot and returns every food item that passes the
// filter, in hall order then canonical meal-period order then item order.
func (f *Filter) Apply(snapshot *menu.Snapshot) []Match {
	matches := make([]Match, 0)

	for _, hall := range snapshot.DiningHalls {
		for _, period := range hall.SortedPeriods() {
			for _, item := range hall.MealPeriods[period].Items {
				if f.Matches(hall.Name, period, item) {
					matches = append(matches, Match{
						Hall:       hall.Name,
						MealPeriod: period,
						Item:       item,
					})
				}
			}
		}
	}

	return matches
}

func matchesAnyExact(value string, candidates []string) bool {
	for _, c := range candidates {
		if strings.EqualFold(value, c) {
			return true
		}
	}
	return false
}

func matchesAnySubstring(value string, candidates []string) bool {
	lower := strings.ToLower(value)
	for _, c := range candidates {
		if strings.Contains(lower, strings.ToLower(c)) {
			return true
		}
	}
	return false
}
