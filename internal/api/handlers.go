package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bwalsh/vt-nutrition/internal/filter"
	"github.com/bwalsh/vt-nutrition/internal/logger"
	"github.com/bwalsh/vt-nutrition/internal/mealplan"
	"github.com/bwalsh/vt-nutrition/internal/menu"
)

// ErrRefreshBusy is returned by DataSource.Refresh when a scrape is
// already running; concurrent refreshes are rejected, not queued.
var ErrRefreshBusy = errors.New("data refresh already in progress")

// DataSource provides the current dining snapshot and on-demand refresh.
// The serving layer implements it; handlers never touch storage directly.
type DataSource interface {
	// Current returns the latest snapshot, or nil when no data has been
	// loaded or scraped yet.
	Current() *menu.Snapshot

	// Refresh runs a full scrape and returns the new snapshot. Returns
	// ErrRefreshBusy when a scrape is already in flight.
	Refresh() (*menu.Snapshot, error)
}

// Rate limits for the chatbot endpoints, per client IP.
const (
	mealPlanRateLimit     = 5
	quickSuggestRateLimit = 15
	rateLimitWindow       = time.Minute
)

// Handler holds the dependencies for all HTTP endpoints.
type Handler struct {
	data        DataSource
	planner     *mealplan.Planner
	adminAPIKey string
}

// NewHandler creates a Handler backed by the given data source and planner.
func NewHandler(data DataSource, planner *mealplan.Planner, adminAPIKey string) *Handler {
	return &Handler{
		data:        data,
		planner:     planner,
		adminAPIKey: adminAPIKey,
	}
}

// RegisterRoutes attaches all endpoints to the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/dining-halls", h.DiningHalls)
		api.GET("/foods", h.Foods)
		api.POST("/refresh-data", h.RefreshData)

		chatbot := api.Group("/chatbot")
		{
			chatbot.POST("/meal-plan",
				NewRateLimiter(mealPlanRateLimit, rateLimitWindow).Middleware(), h.MealPlan)
			chatbot.POST("/quick-suggest",
				NewRateLimiter(quickSuggestRateLimit, rateLimitWindow).Middleware(), h.QuickSuggest)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Endpoint not found",
		})
	})
}

// Health reports service status, data freshness, and AI availability.
func (h *Handler) Health(c *gin.Context) {
	snapshot := h.data.Current()

	lastUpdate := ""
	hallCount := 0
	if snapshot != nil {
		lastUpdate = snapshot.LastUpdated
		hallCount = snapshot.HallCount()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             "healthy",
		"last_data_update":   lastUpdate,
		"dining_halls_count": hallCount,
		"ai_configured":      h.planner.Configured(),
	})
}

// DiningHalls returns the full snapshot of halls, meal periods, and items.
func (h *Handler) DiningHalls(c *gin.Context) {
	snapshot := h.data.Current()
	if snapshot == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "Dining data not available yet. Try again shortly.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"data":         snapshot.DiningHalls,
		"last_updated": snapshot.LastUpdated,
	})
}

// Foods returns items matching the filter criteria in the query string:
// dietary_tag, exclude_allergen (repeatable), max_calories, min_protein,
// meal_period, and hall.
func (h *Handler) Foods(c *gin.Context) {
	snapshot := h.data.Current()
	if snapshot == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "Dining data not available yet. Try again shortly.",
		})
		return
	}

	f, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	matches := f.Apply(snapshot)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"count":        len(matches),
		"data":         matches,
		"last_updated": snapshot.LastUpdated,
	})
}

// filterFromQuery builds a filter from query parameters. Unknown
// parameters are ignored; malformed numeric ones are an error.
func filterFromQuery(c *gin.Context) (*filter.Filter, error) {
	f := filter.NewFilter()

	f.DietaryTags = c.QueryArray("dietary_tag")
	f.ExcludeAllergens = c.QueryArray("exclude_allergen")
	f.MealPeriods = c.QueryArray("meal_period")
	f.Halls = c.QueryArray("hall")

	if v := c.Query("max_calories"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, errors.New("max_calories must be a non-negative integer")
		}
		f.MaxCalories = n
	}

	if v := c.Query("min_protein"); v != "" {
		g, err := strconv.ParseFloat(v, 64)
		if err != nil || g < 0 {
			return nil, errors.New("min_protein must be a non-negative number")
		}
		f.MinProtein = g
	}

	return f, nil
}

// RefreshData triggers a scrape on demand. Requires the admin API key in
// the X-API-Key header.
func (h *Handler) RefreshData(c *gin.Context) {
	if c.GetHeader("X-API-Key") != h.adminAPIKey {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Invalid API key",
		})
		return
	}

	logger.Info("manual data refresh requested", logger.Fields{
		"client_ip": c.ClientIP(),
	})

	snapshot, err := h.data.Refresh()
	if err != nil {
		if errors.Is(err, ErrRefreshBusy) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error":   "A data refresh is already in progress",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Data refresh failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Dining data refreshed",
		"halls":        snapshot.HallCount(),
		"total_items":  snapshot.TotalItems(),
		"last_updated": snapshot.LastUpdated,
	})
}

// trimLower is a small helper for case-insensitive comparisons of user
// supplied strings.
func trimLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
