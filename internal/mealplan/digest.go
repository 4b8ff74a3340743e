package mealplan

import (
	"fmt"
	"strings"

	"github.com/bwalsh/vt-nutrition/internal/menu"
)

// Digest caps keep the prompt within the model's context budget while
// favoring foods that can anchor a real meal.
const (
	maxProteinLines = 80
	maxCarbLines    = 40
	maxOtherLines   = 30
)

// minDigestCalories filters out condiments and other trivial items.
const minDigestCalories = 50

var proteinWords = []string{"chicken", "beef", "fish", "wrap", "sandwich", "panini", "burger", "egg"}
var carbWords = []string{"bagel", "bread", "rice", "pasta", "potato"}
var skipWords = []string{"cereal", "milk", "juice", "dispenser"}

// FormatFoodsForAI renders the snapshot's foods as prompt text, one line
// per item with hall, meal period, and macros. Protein-bearing items come
// first, then substantial carbs, then the rest, each bucket capped.
// Returns "" when the snapshot has no items worth listing.
func FormatFoodsForAI(snapshot *menu.Snapshot) string {
	proteins := make([]string, 0)
	carbs := make([]string, 0)
	others := make([]string, 0)

	for _, hall := range snapshot.DiningHalls {
		for _, period := range hall.SortedPeriods() {
			for _, item := range hall.MealPeriods[period].Items {
				n := item.Nutrition
				if n.CaloriesOrZero() < minDigestCalories {
					continue
				}

				nameLower := strings.ToLower(item.Name)
				if containsAny(nameLower, skipWords) {
					continue
				}

				line := fmt.Sprintf("%s (%s, %s) - Cal: %d, P: %gg, C: %gg, F: %gg",
					item.Name, hall.Name, titleCase(period),
					n.CaloriesOrZero(), n.ProteinOrZero(), n.CarbsOrZero(), n.FatOrZero())

				switch {
				case containsAny(nameLower, proteinWords):
					proteins = append(proteins, line)
				case containsAny(nameLower, carbWords):
					carbs = append(carbs, line)
				default:
					others = append(others, line)
				}
			}
		}
	}

	lines := make([]string, 0, maxProteinLines+maxCarbLines+maxOtherLines)
	lines = append(lines, capLines(proteins, maxProteinLines)...)
	lines = append(lines, capLines(carbs, maxCarbLines)...)
	lines = append(lines, capLines(others, maxOtherLines)...)

	return strings.Join(lines, "\n")
}

func capLines(lines []string, max int) []string {
	if len(lines) > max {
		return lines[:max]
	}
	return lines
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// titleCase uppercases the first letter of each underscore- or
// space-separated word, so late_night renders as Late Night.
func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
