package api

import (
	"math"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/bwalsh/vt-nutrition/internal/logger"
	"github.com/bwalsh/vt-nutrition/internal/mealplan"
)

// Input limits for the chatbot endpoints.
const (
	minPlanCalories     = 800
	maxPlanCalories     = 5000
	defaultPlanCalories = 2000

	// macro percentages must sum to 100 within this tolerance
	macroSumTolerance = 5.0

	maxPreferencesLen = 500
	maxMessageLen     = 200
)

// unsafeChars matches everything sanitize strips from free-text input.
var unsafeChars = regexp.MustCompile(`[^\w\s,.\-]`)

// sanitize strips characters outside the word/space/punctuation whitelist
// and enforces a length cap.
func sanitize(s string, maxLen int) string {
	s = unsafeChars.ReplaceAllString(s, "")
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}

// mealPlanRequest is the JSON body for POST /api/chatbot/meal-plan. A nil
// Calories means the default target.
type mealPlanRequest struct {
	Calories            *int               `json:"calories"`
	DietaryRestrictions []string           `json:"dietary_restrictions"`
	MacroFocus          map[string]float64 `json:"macro_focus"`
	FoodPreferences     string             `json:"food_preferences"`
}

// validate applies defaults and checks ranges, returning a user-facing
// error message or "".
func (r *mealPlanRequest) validate() string {
	if r.Calories == nil {
		calories := defaultPlanCalories
		r.Calories = &calories
	}
	if *r.Calories < minPlanCalories || *r.Calories > maxPlanCalories {
		return "calories must be between 800 and 5000"
	}

	if len(r.MacroFocus) > 0 {
		sum := 0.0
		for _, pct := range r.MacroFocus {
			sum += pct
		}
		if math.Abs(sum-100) > macroSumTolerance {
			return "macro_focus percentages must sum to approximately 100"
		}
	}

	r.FoodPreferences = sanitize(r.FoodPreferences, maxPreferencesLen)
	return ""
}

// MealPlan generates a personalized daily meal plan from today's dining
// data. Always returns a plan: if the AI path fails the deterministic
// fallback is used.
func (h *Handler) MealPlan(c *gin.Context) {
	var req mealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   msg,
		})
		return
	}

	snapshot := h.data.Current()
	if snapshot == nil || snapshot.TotalItems() == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "No dining data available for meal planning",
		})
		return
	}

	plan := h.planner.GeneratePlan(snapshot, mealplan.PlanRequest{
		Calories:            *req.Calories,
		DietaryRestrictions: req.DietaryRestrictions,
		MacroFocus:          req.MacroFocus,
		FoodPreferences:     req.FoodPreferences,
	})

	logger.Info("meal plan generated", logger.Fields{
		"calories":     *req.Calories,
		"restrictions": len(req.DietaryRestrictions),
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    plan,
	})
}

// quickSuggestRequest is the JSON body for POST /api/chatbot/quick-suggest.
type quickSuggestRequest struct {
	Message string `json:"message"`
}

// QuickSuggest returns a handful of food suggestions keyed to the intent
// of a short free-text message.
func (h *Handler) QuickSuggest(c *gin.Context) {
	var req quickSuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	message := sanitize(req.Message, maxMessageLen)
	if trimLower(message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "message is required",
		})
		return
	}

	snapshot := h.data.Current()
	if snapshot == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "No dining data available",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"suggestions": mealplan.QuickSuggestions(message, snapshot),
	})
}
