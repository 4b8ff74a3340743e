package menu

import "sort"

// Scrape status values for a dining hall.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Allergen categories recognized on nutrition label pages.
const (
	AllergenMilk      = "milk"
	AllergenEggs      = "eggs"
	AllergenFish      = "fish"
	AllergenShellfish = "shellfish"
	AllergenTreeNuts  = "tree_nuts"
	AllergenPeanuts   = "peanuts"
	AllergenWheat     = "wheat"
	AllergenSoybeans  = "soybeans"
)

// Hall identifies a dining location discovered on the directory page.
type Hall struct {
	Name        string `json:"name"`
	LocationNum string `json:"location_num"`
	URL         string `json:"url"`
}

// Nutrition holds the facts extracted from a food item's label page.
// Numeric fields are pointers: nil means the value could not be extracted,
// which is distinct from zero. Dietary tags are inferred from allergen
// absence and page-text keywords; they are heuristic, not certified.
type Nutrition struct {
	Calories    *int     `json:"calories,omitempty"`
	Protein     *float64 `json:"protein,omitempty"`
	Carbs       *float64 `json:"carbs,omitempty"`
	Fat         *float64 `json:"fat,omitempty"`
	Fiber       *float64 `json:"fiber,omitempty"`
	Sugars      *float64 `json:"sugars,omitempty"`
	Sodium      *float64 `json:"sodium,omitempty"`
	ServingSize string   `json:"serving_size,omitempty"`
	Allergens   []string `json:"allergens"`
	DietaryTags []string `json:"dietary_tags"`
}

// HasAllergen reports whether the record lists the given allergen category.
func (n *Nutrition) HasAllergen(allergen string) bool {
	for _, a := range n.Allergens {
		if a == allergen {
			return true
		}
	}
	return false
}

// HasTag reports whether the record carries the given dietary tag.
func (n *Nutrition) HasTag(tag string) bool {
	for _, t := range n.DietaryTags {
		if t == tag {
			return true
		}
	}
	return false
}

// CaloriesOrZero returns the calorie count, or 0 when unknown.
func (n *Nutrition) CaloriesOrZero() int {
	if n == nil || n.Calories == nil {
		return 0
	}
	return *n.Calories
}

// ProteinOrZero returns grams of protein, or 0 when unknown.
func (n *Nutrition) ProteinOrZero() float64 {
	if n == nil || n.Protein == nil {
		return 0
	}
	return *n.Protein
}

// CarbsOrZero returns grams of carbohydrate, or 0 when unknown.
func (n *Nutrition) CarbsOrZero() float64 {
	if n == nil || n.Carbs == nil {
		return 0
	}
	return *n.Carbs
}

// FatOrZero returns grams of fat, or 0 when unknown.
func (n *Nutrition) FatOrZero() float64 {
	if n == nil || n.Fat == nil {
		return 0
	}
	return *n.Fat
}

// FoodItem is one menu entry on a dining hall page. RecipeID is the raw
// delimited identifier string used only to derive the meal period.
type FoodItem struct {
	Name      string     `json:"name"`
	URL       string     `json:"url"`
	RecipeID  string     `json:"recipe_id"`
	Nutrition *Nutrition `json:"nutrition,omitempty"`
}

// MealPeriodData holds the items served during one meal period, the number
// of items observed on the page, and the number actually processed after
// the per-meal cap.
type MealPeriodData struct {
	Items          []*FoodItem `json:"items"`
	TotalAvailable int         `json:"total_available"`
	ScrapedCount   int         `json:"scraped_count"`
}

// DiningHall is one hall's full scrape result. It is created during
// discovery, mutated only while that hall is being extracted, and immutable
// afterward until the next full scrape replaces it wholesale.
//
// MealPeriods serializes with alphabetical keys; encounter order is not
// preserved in the JSON document. Consumers read periods by key, or in
// canonical serving order via SortedPeriods.
type DiningHall struct {
	Name         string                     `json:"name"`
	LocationNum  string                     `json:"location_num"`
	URL          string                     `json:"url"`
	MealPeriods  map[string]*MealPeriodData `json:"meal_periods"`
	ScrapeStatus string                     `json:"scrape_status"`
	Error        string                     `json:"error,omitempty"`
	ItemsScraped int                        `json:"items_scraped"`
}

// NewDiningHall creates a pending DiningHall from a discovered Hall.
func NewDiningHall(h Hall) *DiningHall {
	return &DiningHall{
		Name:         h.Name,
		LocationNum:  h.LocationNum,
		URL:          h.URL,
		MealPeriods:  make(map[string]*MealPeriodData),
		ScrapeStatus: StatusPending,
	}
}

// canonical serving order for known meal periods
var periodRank = map[string]int{
	"breakfast":  0,
	"brunch":     1,
	"lunch":      2,
	"dinner":     3,
	"late_night": 4,
}

// SortedPeriods returns the hall's meal period names in canonical serving
// order (breakfast through late_night), with unrecognized periods appended
// alphabetically after the known ones.
func (d *DiningHall) SortedPeriods() []string {
	periods := make([]string, 0, len(d.MealPeriods))
	for p := range d.MealPeriods {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool {
		ri, iok := periodRank[periods[i]]
		rj, jok := periodRank[periods[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		default:
			return periods[i] < periods[j]
		}
	})
	return periods
}
