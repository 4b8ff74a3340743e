package scraper

import (
	"bytes"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bwalsh/vt-nutrition/internal/logger"
	"github.com/bwalsh/vt-nutrition/internal/menu"
)

// nutrientField is one extractable nutrition fact with its ordered fallback
// patterns: primary label phrasing first, then reversed value-label
// phrasing, then the abbreviated form. The first pattern that matches wins
// and the rest are not tried.
type nutrientField struct {
	name     string
	patterns []*regexp.Regexp
}

var nutrientFields = []nutrientField{
	{"calories", compileAll(
		`calories?\s*[:\-]?\s*(\d+)`,
		`(\d+)\s*calories?`,
		`cal[:\-]?\s*(\d+)`,
	)},
	{"protein", compileAll(
		`protein\s*[:\-]?\s*(\d+\.?\d*)\s*g`,
		`(\d+\.?\d*)\s*g\s*protein`,
		`prot[:\-]?\s*(\d+\.?\d*)\s*g`,
	)},
	{"carbs", compileAll(
		`(?:total\s+)?carbohydrate\s*[:\-]?\s*(\d+\.?\d*)\s*g`,
		`carbs?\s*[:\-]?\s*(\d+\.?\d*)\s*g`,
		`(\d+\.?\d*)\s*g\s*carb`,
	)},
	{"fat", compileAll(
		`(?:total\s+)?fat\s*[:\-]?\s*(\d+\.?\d*)\s*g`,
		`(\d+\.?\d*)\s*g\s*fat`,
		`fat[:\-]?\s*(\d+\.?\d*)\s*g`,
	)},
	{"fiber", compileAll(
		`dietary\s+fiber\s*[:\-]?\s*(\d+\.?\d*)\s*g`,
		`fiber\s*[:\-]?\s*(\d+\.?\d*)\s*g`,
		`(\d+\.?\d*)\s*g\s*fiber`,
	)},
	{"sodium", compileAll(
		`sodium\s*[:\-]?\s*(\d+\.?\d*)\s*mg`,
		`(\d+\.?\d*)\s*mg\s*sodium`,
		`salt\s*[:\-]?\s*(\d+\.?\d*)\s*mg`,
	)},
	{"sugars", compileAll(
		`(?:total\s+)?sugars?\s*[:\-]?\s*(\d+\.?\d*)\s*g`,
		`(\d+\.?\d*)\s*g\s*sugar`,
		`sugar[:\-]?\s*(\d+\.?\d*)\s*g`,
	)},
}

var servingSizePatterns = compileAll(
	`serving\s*size\s*[:\-]?\s*([^,\n]+)`,
	`portion\s*[:\-]?\s*([^,\n]+)`,
	`size\s*[:\-]?\s*(\d+\.?\d*\s*(?:oz|g|ml|cup|piece))`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(`(?i)` + p)
	}
	return compiled
}

// allergenKeywords maps each allergen category to the page-text keywords
// that indicate it. Slice order keeps extraction output deterministic.
var allergenKeywords = []struct {
	allergen string
	keywords []string
}{
	{menu.AllergenMilk, []string{"milk", "dairy", "lactose"}},
	{menu.AllergenEggs, []string{"egg", "eggs"}},
	{menu.AllergenFish, []string{"fish"}},
	{menu.AllergenShellfish, []string{"shellfish", "shrimp", "crab", "lobster"}},
	{menu.AllergenTreeNuts, []string{"tree nuts", "almonds", "walnuts", "pecans", "cashews"}},
	{menu.AllergenPeanuts, []string{"peanuts", "peanut"}},
	{menu.AllergenWheat, []string{"wheat", "gluten"}},
	{menu.AllergenSoybeans, []string{"soy", "soybeans", "soybean"}},
}

// dietaryIndicators maps explicit page-text keywords to dietary tags.
var dietaryIndicators = []struct {
	tag      string
	keywords []string
}{
	{"vegetarian", []string{"vegetarian", "veggie"}},
	{"vegan", []string{"vegan"}},
	{"halal", []string{"halal"}},
	{"kosher", []string{"kosher"}},
	{"organic", []string{"organic"}},
	{"low_sodium", []string{"low sodium", "reduced sodium"}},
	{"whole_grain", []string{"whole grain", "whole wheat"}},
}

// ExtractNutrition fetches an item's label page and extracts its nutrition
// facts. A failed fetch or parse returns an all-absent record: no numbers,
// no allergens, no tags.
func (s *Scraper) ExtractNutrition(itemURL string) *menu.Nutrition {
	empty := &menu.Nutrition{Allergens: []string{}, DietaryTags: []string{}}

	body, err := s.client.Get(itemURL)
	if err != nil {
		logger.Warn("failed to fetch nutrition page", logger.Fields{"url": itemURL, "error": err.Error()})
		return empty
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		logger.Warn("failed to parse nutrition page", logger.Fields{"url": itemURL, "error": err.Error()})
		return empty
	}

	return parseNutrition(doc)
}

// parseNutrition runs the full extraction over a parsed label page. It is
// deterministic: the same page text always yields an identical record.
func parseNutrition(doc *goquery.Document) *menu.Nutrition {
	pageText := doc.Text()

	n := &menu.Nutrition{
		Allergens:   []string{},
		DietaryTags: []string{},
	}

	for _, field := range nutrientFields {
		value, ok := matchFirst(field.patterns, pageText)
		if !ok {
			continue
		}
		switch field.name {
		case "calories":
			cal := int(value)
			n.Calories = &cal
		case "protein":
			n.Protein = round1(value)
		case "carbs":
			n.Carbs = round1(value)
		case "fat":
			n.Fat = round1(value)
		case "fiber":
			n.Fiber = round1(value)
		case "sodium":
			n.Sodium = round1(value)
		case "sugars":
			n.Sugars = round1(value)
		}
	}

	n.Allergens = extractAllergens(doc, pageText)
	n.DietaryTags = deriveDietaryTags(n.Allergens, pageText)

	if serving := extractServingSize(pageText); serving != "" {
		n.ServingSize = serving
	}

	return n
}

// matchFirst tries each pattern in order and parses the first capture that
// matches. Unparseable captures fall through to the next pattern.
func matchFirst(patterns []*regexp.Regexp, text string) (float64, bool) {
	for _, p := range patterns {
		match := p.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		return value, true
	}
	return 0, false
}

func round1(v float64) *float64 {
	r := math.Round(v*10) / 10
	return &r
}

// extractAllergens pulls allergen categories from a dedicated allergen
// section when the page marks one, otherwise from "contains:" or
// "allergens:" sentinel text, deduplicated per page.
func extractAllergens(doc *goquery.Document, pageText string) []string {
	var sections []string

	allergenDiv := findAllergenSection(doc)
	if allergenDiv != "" {
		sections = append(sections, allergenDiv)
	} else {
		lower := strings.ToLower(pageText)
		if section, ok := sentinelSection(lower, "contains:"); ok {
			sections = append(sections, section)
		}
		if section, ok := sentinelSection(lower, "allergens:"); ok {
			sections = append(sections, section)
		}
	}

	found := make([]string, 0)
	seen := make(map[string]bool)
	for _, section := range sections {
		for _, a := range parseAllergenText(section) {
			if !seen[a] {
				seen[a] = true
				found = append(found, a)
			}
		}
	}
	return found
}

// findAllergenSection returns the text of the first div whose class
// mentions allergens, or "" when the page has none.
func findAllergenSection(doc *goquery.Document) string {
	var text string
	doc.Find("div[class]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		class := strings.ToLower(sel.AttrOr("class", ""))
		if strings.Contains(class, "allergen") {
			text = sel.Text()
			return false
		}
		return true
	})
	return text
}

// sentinelSection returns the text between the sentinel and the next
// period, mirroring how labels phrase allergen statements as a sentence.
func sentinelSection(lowerText, sentinel string) (string, bool) {
	idx := strings.Index(lowerText, sentinel)
	if idx < 0 {
		return "", false
	}
	rest := lowerText[idx+len(sentinel):]
	if dot := strings.Index(rest, "."); dot >= 0 {
		rest = rest[:dot]
	}
	return rest, true
}

// parseAllergenText matches allergen keywords in a text fragment.
func parseAllergenText(text string) []string {
	lower := strings.ToLower(text)

	found := make([]string, 0)
	for _, entry := range allergenKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				found = append(found, entry.allergen)
				break
			}
		}
	}
	return found
}

// deriveDietaryTags unions allergen-absence inference with explicit
// page-text keywords. The tags are heuristic: absence of an allergen
// marker does not guarantee the food truly lacks that allergen.
func deriveDietaryTags(allergens []string, pageText string) []string {
	has := make(map[string]bool, len(allergens))
	for _, a := range allergens {
		has[a] = true
	}

	tags := make([]string, 0)
	seen := make(map[string]bool)
	add := func(tag string) {
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	if !has[menu.AllergenMilk] && !has[menu.AllergenEggs] &&
		!has[menu.AllergenFish] && !has[menu.AllergenShellfish] {
		add("potentially_vegan")
	}
	if !has[menu.AllergenMilk] {
		add("dairy_free")
	}
	if !has[menu.AllergenWheat] {
		add("gluten_free")
	}
	if !has[menu.AllergenPeanuts] && !has[menu.AllergenTreeNuts] {
		add("nut_free")
	}

	lower := strings.ToLower(pageText)
	for _, entry := range dietaryIndicators {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				add(entry.tag)
				break
			}
		}
	}

	return tags
}

// extractServingSize tries the ordered serving-size patterns; the first
// match wins, absent if none match.
func extractServingSize(pageText string) string {
	for _, p := range servingSizePatterns {
		if match := p.FindStringSubmatch(pageText); match != nil {
			return strings.TrimSpace(match[1])
		}
	}
	return ""
}
