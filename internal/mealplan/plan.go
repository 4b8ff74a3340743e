package mealplan

import (
	"math"

	"github.com/bwalsh/vt-nutrition/internal/menu"
)

// PlanRequest carries the student's preferences for a meal plan.
type PlanRequest struct {
	Calories            int
	DietaryRestrictions []string
	MacroFocus          map[string]float64
	FoodPreferences     string
}

// PlanItem is one food in a generated meal plan.
type PlanItem struct {
	Item       string  `json:"item"`
	DiningHall string  `json:"dining_hall"`
	Calories   int     `json:"calories"`
	Protein    float64 `json:"protein"`
	Carbs      float64 `json:"carbs"`
	Fat        float64 `json:"fat"`
}

// PlanTotals sums the macros across a whole plan.
type PlanTotals struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// MealPlan is a complete day of meals with totals and an explanation.
type MealPlan struct {
	Meals  map[string][]PlanItem `json:"meal_plan"`
	Totals PlanTotals            `json:"totals"`
	Notes  string                `json:"notes"`
}

// Valid checks a plan has the structure downstream consumers rely on:
// breakfast, lunch, and dinner meal lists present.
func (p *MealPlan) Valid() bool {
	if p.Meals == nil {
		return false
	}
	for _, period := range []string{"breakfast", "lunch", "dinner"} {
		if _, ok := p.Meals[period]; !ok {
			return false
		}
	}
	return true
}

// fallbackItemsPerMeal is how many foods the deterministic planner takes
// from each hall's meal period.
const fallbackItemsPerMeal = 3

// FallbackPlan assembles a basic plan directly from the snapshot when the
// AI path is unavailable or returns something unusable. It picks up to two
// items for each of breakfast, lunch, and dinner from foods with known
// calories.
func FallbackPlan(snapshot *menu.Snapshot) *MealPlan {
	buckets := map[string][]PlanItem{
		"breakfast": {},
		"lunch":     {},
		"dinner":    {},
	}

	for _, hall := range snapshot.DiningHalls {
		for _, period := range hall.SortedPeriods() {
			items := hall.MealPeriods[period].Items
			if len(items) > fallbackItemsPerMeal {
				items = items[:fallbackItemsPerMeal]
			}

			for _, item := range items {
				n := item.Nutrition
				if n.CaloriesOrZero() <= 0 {
					continue
				}

				planItem := PlanItem{
					Item:       item.Name,
					DiningHall: hall.Name,
					Calories:   n.CaloriesOrZero(),
					Protein:    n.ProteinOrZero(),
					Carbs:      n.CarbsOrZero(),
					Fat:        n.FatOrZero(),
				}

				for _, bucket := range []string{"breakfast", "lunch", "dinner"} {
					if bucket == period {
						buckets[bucket] = append(buckets[bucket], planItem)
					}
				}
			}
		}
	}

	plan := &MealPlan{
		Meals: map[string][]PlanItem{
			"breakfast": firstN(buckets["breakfast"], 2),
			"lunch":     firstN(buckets["lunch"], 2),
			"dinner":    firstN(buckets["dinner"], 2),
			"snacks":    {},
		},
		Notes: "Basic meal plan using available VT dining options. AI meal planning temporarily unavailable.",
	}

	for _, items := range plan.Meals {
		for _, item := range items {
			plan.Totals.Calories += item.Calories
			plan.Totals.Protein += item.Protein
			plan.Totals.Carbs += item.Carbs
			plan.Totals.Fat += item.Fat
		}
	}
	plan.Totals.Protein = math.Round(plan.Totals.Protein*10) / 10
	plan.Totals.Carbs = math.Round(plan.Totals.Carbs*10) / 10
	plan.Totals.Fat = math.Round(plan.Totals.Fat*10) / 10

	return plan
}

func firstN(items []PlanItem, n int) []PlanItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}
