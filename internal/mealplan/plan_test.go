package mealplan

import (
	"testing"

	"github.com/bwalsh/vt-nutrition/internal/menu"
)

func planSnapshot() *menu.Snapshot {
	hall := menu.NewDiningHall(menu.Hall{Name: "D2 at Dietrick Hall"})
	hall.MealPeriods["breakfast"] = &menu.MealPeriodData{
		Items: []*menu.FoodItem{
			testItem("Scrambled Eggs", 180, 12, 2, 13),
			testItem("Pancakes", 320, 8, 58, 7.5),
			testItem("Bacon", 90, 6, 0, 7),
			testItem("Oatmeal", 150, 5, 27, 3),
		},
	}
	hall.MealPeriods["lunch"] = &menu.MealPeriodData{
		Items: []*menu.FoodItem{
			testItem("Grilled Chicken Sandwich", 420, 32, 38, 14.5),
			{Name: "Unlabeled Special"},
			testItem("Garden Salad", 90, 3, 12, 2),
		},
	}
	hall.MealPeriods["dinner"] = &menu.MealPeriodData{
		Items: []*menu.FoodItem{
			testItem("Beef Stir Fry", 380, 28, 30, 15),
		},
	}

	return &menu.Snapshot{DiningHalls: []*menu.DiningHall{hall}}
}

func TestMealPlanValid(t *testing.T) {
	tests := []struct {
		name string
		plan MealPlan
		want bool
	}{
		{"nil meals", MealPlan{}, false},
		{"missing dinner", MealPlan{Meals: map[string][]PlanItem{"breakfast": {}, "lunch": {}}}, false},
		{"all three present", MealPlan{Meals: map[string][]PlanItem{"breakfast": {}, "lunch": {}, "dinner": {}}}, true},
		{"snacks optional", MealPlan{Meals: map[string][]PlanItem{"breakfast": {}, "lunch": {}, "dinner": {}, "snacks": {}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.plan.Valid(); got != tt.want {
				t.Errorf("Valid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFallbackPlan(t *testing.T) {
	plan := FallbackPlan(planSnapshot())

	if !plan.Valid() {
		t.Fatal("fallback plan must be structurally valid")
	}

	// Two items per meal at most.
	for _, period := range []string{"breakfast", "lunch", "dinner"} {
		if len(plan.Meals[period]) > 2 {
			t.Errorf("%s has %d items, want at most 2", period, len(plan.Meals[period]))
		}
	}

	if len(plan.Meals["breakfast"]) != 2 {
		t.Errorf("breakfast items = %d, want 2", len(plan.Meals["breakfast"]))
	}
	if plan.Meals["breakfast"][0].Item != "Scrambled Eggs" {
		t.Errorf("first breakfast item = %q", plan.Meals["breakfast"][0].Item)
	}

	// The unlabeled item has no calories and is never planned.
	for _, items := range plan.Meals {
		for _, item := range items {
			if item.Item == "Unlabeled Special" {
				t.Error("item without calories should be skipped")
			}
		}
	}

	if len(plan.Meals["dinner"]) != 1 {
		t.Errorf("dinner items = %d, want 1", len(plan.Meals["dinner"]))
	}

	wantCalories := 180 + 320 + 420 + 90 + 380
	if plan.Totals.Calories != wantCalories {
		t.Errorf("total calories = %d, want %d", plan.Totals.Calories, wantCalories)
	}

	wantFat := 13 + 7.5 + 14.5 + 2 + 15.0
	if plan.Totals.Fat != wantFat {
		t.Errorf("total fat = %g, want %g", plan.Totals.Fat, wantFat)
	}

	if plan.Notes == "" {
		t.Error("fallback plan should carry explanatory notes")
	}
}

func TestFallbackPlanEmptySnapshot(t *testing.T) {
	plan := FallbackPlan(&menu.Snapshot{})

	if !plan.Valid() {
		t.Fatal("plan from empty snapshot must still be structurally valid")
	}
	if plan.Totals.Calories != 0 {
		t.Errorf("total calories = %d, want 0", plan.Totals.Calories)
	}
}
