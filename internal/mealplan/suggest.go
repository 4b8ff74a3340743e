package mealplan

import (
	"fmt"
	"strings"

	"github.com/bwalsh/vt-nutrition/internal/filter"
	"github.com/bwalsh/vt-nutrition/internal/menu"
)

// maxSuggestions caps the suggestion list per request.
const maxSuggestions = 5

// proteinSuggestionFloor is the grams of protein a food needs to be
// suggested for workout-related messages.
const proteinSuggestionFloor = 15.0

var quickFoodWords = []string{"cereal", "bagel", "coffee", "juice", "muffin"}
var sweetFoodWords = []string{"cookie", "cake", "pie", "ice cream", "fruit"}

// QuickSuggestions returns up to five food suggestions matched to the
// intent of the user's message (protein, speed, light eating, or sweets).
// Messages with no recognized intent get a generic pointer to the halls.
func QuickSuggestions(message string, snapshot *menu.Snapshot) []string {
	lower := strings.ToLower(message)
	suggestions := make([]string, 0)

	switch {
	case containsAny(lower, []string{"protein", "workout", "gym", "muscle"}):
		f := &filter.Filter{MinProtein: proteinSuggestionFloor}
		for _, m := range f.Apply(snapshot) {
			suggestions = append(suggestions,
				fmt.Sprintf("%s at %s - %gg protein", m.Item.Name, m.Hall, m.Item.Nutrition.ProteinOrZero()))
		}

	case containsAny(lower, []string{"quick", "fast", "rush", "hurry"}):
		suggestions = suggestByName(snapshot, quickFoodWords, "Quick option: %s at %s")

	case containsAny(lower, []string{"healthy", "light", "diet", "low cal"}):
		f := &filter.Filter{MaxCalories: 300}
		for _, m := range f.Apply(snapshot) {
			// Skip condiments and items with unknown calories
			if m.Item.Nutrition.CaloriesOrZero() <= 50 {
				continue
			}
			suggestions = append(suggestions,
				fmt.Sprintf("Healthy: %s at %s - %d cal", m.Item.Name, m.Hall, m.Item.Nutrition.CaloriesOrZero()))
		}

	case containsAny(lower, []string{"sweet", "dessert", "sugar"}):
		suggestions = suggestByName(snapshot, sweetFoodWords, "Sweet treat: %s at %s")
	}

	suggestions = dedupe(suggestions)
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	if len(suggestions) == 0 {
		suggestions = []string{"Check out today's specials at your nearest VT dining hall!"}
	}

	return suggestions
}

// suggestByName matches items whose name contains one of the given words.
func suggestByName(snapshot *menu.Snapshot, words []string, format string) []string {
	suggestions := make([]string, 0)
	for _, hall := range snapshot.DiningHalls {
		for _, period := range hall.SortedPeriods() {
			for _, item := range hall.MealPeriods[period].Items {
				if containsAny(strings.ToLower(item.Name), words) {
					suggestions = append(suggestions, fmt.Sprintf(format, item.Name, hall.Name))
				}
			}
		}
	}
	return suggestions
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}
