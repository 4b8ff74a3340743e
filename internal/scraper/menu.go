package scraper

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bwalsh/vt-nutrition/internal/logger"
	"github.com/bwalsh/vt-nutrition/internal/menu"
)

// markerScanLimit bounds the forward scan from a food item link to its
// recipe-identifier marker. Items whose marker sits beyond the bound are
// dropped, indistinguishable from items with no marker at all; the
// scraper.marker_missed counter records both.
const markerScanLimit = 10

// minRecipeFields is the minimum number of *-delimited fields a recipe
// identifier must carry for its last field to be the meal period.
const minRecipeFields = 4

var labelLinkPattern = regexp.MustCompile(`label\.aspx`)

// mealPeriodSynonyms normalizes the label found in recipe identifiers.
// Unrecognized labels pass through as given.
var mealPeriodSynonyms = map[string]string{
	"breakfast":  "breakfast",
	"lunch":      "lunch",
	"dinner":     "dinner",
	"brunch":     "brunch",
	"late night": "late_night",
}

// ExtractMenu fetches a hall page and returns its food items grouped by
// meal period, plus the period names in first-encounter order. A failed
// fetch returns an empty mapping; items whose meal period cannot be
// derived are silently dropped.
func (s *Scraper) ExtractMenu(hallURL string) (map[string][]*menu.FoodItem, []string) {
	body, err := s.client.Get(hallURL)
	if err != nil {
		logger.Warn("failed to fetch hall page", logger.Fields{"url": hallURL, "error": err.Error()})
		return map[string][]*menu.FoodItem{}, nil
	}

	periods, order, err := s.parseMenu(bytes.NewReader(body))
	if err != nil {
		logger.Warn("failed to parse hall page", logger.Fields{"url": hallURL, "error": err.Error()})
		return map[string][]*menu.FoodItem{}, nil
	}

	return periods, order
}

// parseMenu scans the flattened document node sequence for nutrition label
// links and associates each with the next recipe-identifier marker within
// markerScanLimit nodes. The marker's last *-delimited field names the
// item's meal period.
func (s *Scraper) parseMenu(r io.Reader) (map[string][]*menu.FoodItem, []string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing HTML: %w", err)
	}

	periods := make(map[string][]*menu.FoodItem)
	order := make([]string, 0)

	nodes := doc.Find("*")
	total := nodes.Length()

	for i := 0; i < total; i++ {
		sel := nodes.Eq(i)
		if goquery.NodeName(sel) != "a" {
			continue
		}

		href, ok := sel.Attr("href")
		if !ok || !labelLinkPattern.MatchString(href) {
			continue
		}

		name := strings.TrimSpace(sel.Text())
		if name == "" {
			continue
		}

		recipeText, found := findRecipeMarker(nodes, i, total)
		if !found {
			logger.IncrCounter("scraper.marker_missed")
			logger.Debug("no recipe identifier found", logger.Fields{"item": name})
			continue
		}

		period, ok := mealPeriodFromRecipe(recipeText)
		if !ok {
			logger.IncrCounter("scraper.malformed_recipe")
			logger.Debug("malformed recipe identifier", logger.Fields{"item": name, "recipe": recipeText})
			continue
		}

		if _, seen := periods[period]; !seen {
			order = append(order, period)
		}

		periods[period] = append(periods[period], &menu.FoodItem{
			Name:     name,
			URL:      s.resolveItemURL(href),
			RecipeID: recipeText,
		})
	}

	return periods, order, nil
}

// findRecipeMarker performs the bounded forward scan from the node after
// index i for a div carrying the report_recipe_identifier class. Scan
// exhaustion is a normal no-association outcome, not an error.
func findRecipeMarker(nodes *goquery.Selection, i, total int) (string, bool) {
	for j := i + 1; j <= i+markerScanLimit && j < total; j++ {
		cand := nodes.Eq(j)
		if goquery.NodeName(cand) == "div" && cand.HasClass("report_recipe_identifier") {
			return strings.TrimSpace(cand.Text()), true
		}
	}
	return "", false
}

// mealPeriodFromRecipe derives the meal period from a recipe identifier of
// the form recipeNum*portion*...*MealPeriod. Records without a '*' or with
// fewer than minRecipeFields fields yield no assignment.
func mealPeriodFromRecipe(recipeText string) (string, bool) {
	if !strings.Contains(recipeText, "*") {
		return "", false
	}

	parts := strings.Split(recipeText, "*")
	if len(parts) < minRecipeFields {
		return "", false
	}

	label := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	if label == "" {
		return "", false
	}

	if normalized, ok := mealPeriodSynonyms[label]; ok {
		return normalized, true
	}
	return label, true
}

// resolveItemURL turns a relative label link into an absolute URL.
func (s *Scraper) resolveItemURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return s.baseURL + "/menus/" + href
}
