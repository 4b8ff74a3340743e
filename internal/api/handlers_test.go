package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bwalsh/vt-nutrition/internal/config"
	"github.com/bwalsh/vt-nutrition/internal/mealplan"
	"github.com/bwalsh/vt-nutrition/internal/menu"
)

// stubDataSource serves a fixed snapshot and scripted refresh behavior.
type stubDataSource struct {
	snapshot   *menu.Snapshot
	refreshErr error
	refreshed  int
}

func (s *stubDataSource) Current() *menu.Snapshot {
	return s.snapshot
}

func (s *stubDataSource) Refresh() (*menu.Snapshot, error) {
	s.refreshed++
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return s.snapshot, nil
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func apiSnapshot() *menu.Snapshot {
	hall := menu.NewDiningHall(menu.Hall{Name: "D2 at Dietrick Hall", LocationNum: "15"})
	hall.ScrapeStatus = menu.StatusCompleted
	hall.MealPeriods["lunch"] = &menu.MealPeriodData{
		Items: []*menu.FoodItem{
			{
				Name: "Grilled Chicken Sandwich",
				Nutrition: &menu.Nutrition{
					Calories:    intPtr(420),
					Protein:     floatPtr(32),
					Carbs:       floatPtr(38),
					Fat:         floatPtr(14.5),
					Allergens:   []string{menu.AllergenWheat},
					DietaryTags: []string{"dairy_free", "nut_free"},
				},
			},
			{
				Name: "Garden Salad",
				Nutrition: &menu.Nutrition{
					Calories:    intPtr(90),
					Protein:     floatPtr(3),
					Allergens:   []string{},
					DietaryTags: []string{"potentially_vegan", "dairy_free", "gluten_free", "nut_free"},
				},
			},
		},
		TotalAvailable: 2,
		ScrapedCount:   2,
	}
	hall.ItemsScraped = 2

	return &menu.Snapshot{
		LastUpdated: "2026-01-15T08:00:00Z",
		DiningHalls: []*menu.DiningHall{hall},
	}
}

func newTestRouter(data DataSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	planner := mealplan.NewPlanner(&config.Config{})

	r := gin.New()
	NewHandler(data, planner, "test-admin-key").RegisterRoutes(r)
	return r
}

func doJSON(r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&stubDataSource{snapshot: apiSnapshot()})

	w := doJSON(r, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "2026-01-15T08:00:00Z", body["last_data_update"])
	assert.Equal(t, float64(1), body["dining_halls_count"])
	assert.Equal(t, false, body["ai_configured"])
}

func TestHealthBeforeFirstLoad(t *testing.T) {
	r := newTestRouter(&stubDataSource{})

	w := doJSON(r, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(0), body["dining_halls_count"])
}

func TestDiningHalls(t *testing.T) {
	r := newTestRouter(&stubDataSource{snapshot: apiSnapshot()})

	w := doJSON(r, http.MethodGet, "/api/dining-halls", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "2026-01-15T08:00:00Z", body["last_updated"])

	halls, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, halls, 1)
}

func TestDiningHallsNoData(t *testing.T) {
	r := newTestRouter(&stubDataSource{})

	w := doJSON(r, http.MethodGet, "/api/dining-halls", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestFoodsFiltering(t *testing.T) {
	r := newTestRouter(&stubDataSource{snapshot: apiSnapshot()})

	w := doJSON(r, http.MethodGet, "/api/foods?max_calories=100", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["count"])

	matches := body["data"].([]any)
	match := matches[0].(map[string]any)
	item := match["item"].(map[string]any)
	assert.Equal(t, "Garden Salad", item["name"])
}

func TestFoodsBadQuery(t *testing.T) {
	r := newTestRouter(&stubDataSource{snapshot: apiSnapshot()})

	w := doJSON(r, http.MethodGet, "/api/foods?max_calories=lots", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/foods?min_protein=-3", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshDataAuth(t *testing.T) {
	data := &stubDataSource{snapshot: apiSnapshot()}
	r := newTestRouter(data)

	w := doJSON(r, http.MethodPost, "/api/refresh-data", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/api/refresh-data", nil, map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, data.refreshed)

	w = doJSON(r, http.MethodPost, "/api/refresh-data", nil, map[string]string{"X-API-Key": "test-admin-key"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, data.refreshed)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["halls"])
}

func TestRefreshDataBusy(t *testing.T) {
	data := &stubDataSource{snapshot: apiSnapshot(), refreshErr: ErrRefreshBusy}
	r := newTestRouter(data)

	w := doJSON(r, http.MethodPost, "/api/refresh-data", nil, map[string]string{"X-API-Key": "test-admin-key"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMealPlanValidation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"defaults accepted", map[string]any{}, http.StatusOK},
		{"valid calories", map[string]any{"calories": 2200}, http.StatusOK},
		{"calories too low", map[string]any{"calories": 500}, http.StatusBadRequest},
		{"calories too high", map[string]any{"calories": 9000}, http.StatusBadRequest},
		{"macro sum valid", map[string]any{"macro_focus": map[string]float64{"protein": 30, "carbs": 40, "fat": 30}}, http.StatusOK},
		{"macro sum within tolerance", map[string]any{"macro_focus": map[string]float64{"protein": 30, "carbs": 42, "fat": 30}}, http.StatusOK},
		{"macro sum invalid", map[string]any{"macro_focus": map[string]float64{"protein": 70, "carbs": 70, "fat": 30}}, http.StatusBadRequest},
		{"malformed body type", map[string]any{"calories": "many"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Fresh router per case keeps the rate limiter out of the way.
			r := newTestRouter(&stubDataSource{snapshot: apiSnapshot()})
			w := doJSON(r, http.MethodPost, "/api/chatbot/meal-plan", tt.body, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestMealPlanReturnsPlan(t *testing.T) {
	r := newTestRouter(&stubDataSource{snapshot: apiSnapshot()})

	w := doJSON(r, http.MethodPost, "/api/chatbot/meal-plan", map[string]any{"calories": 2000}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])

	plan := body["data"].(map[string]any)
	meals := plan["meal_plan"].(map[string]any)
	assert.Contains(t, meals, "breakfast")
	assert.Contains(t, meals, "lunch")
	assert.Contains(t, meals, "dinner")
}

func TestMealPlanNoData(t *testing.T) {
	r := newTestRouter(&stubDataSource{})

	w := doJSON(r, http.MethodPost, "/api/chatbot/meal-plan", map[string]any{"calories": 2000}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestQuickSuggest(t *testing.T) {
	r := newTestRouter(&stubDataSource{snapshot: apiSnapshot()})

	w := doJSON(r, http.MethodPost, "/api/chatbot/quick-suggest",
		map[string]any{"message": "protein after the gym"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	suggestions := body["suggestions"].([]any)
	require.NotEmpty(t, suggestions)
	assert.Contains(t, suggestions[0], "Grilled Chicken Sandwich")
}

func TestQuickSuggestEmptyMessage(t *testing.T) {
	r := newTestRouter(&stubDataSource{snapshot: apiSnapshot()})

	for _, message := range []string{"", "   ", "!!!"} {
		w := doJSON(r, http.MethodPost, "/api/chatbot/quick-suggest",
			map[string]any{"message": message}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "message %q", message)
	}
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(&stubDataSource{snapshot: apiSnapshot()})

	body := map[string]any{"calories": 2000}
	for i := 0; i < mealPlanRateLimit; i++ {
		w := doJSON(r, http.MethodPost, "/api/chatbot/meal-plan", body, nil)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
	}

	w := doJSON(r, http.MethodPost, "/api/chatbot/meal-plan", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestNotFound(t *testing.T) {
	r := newTestRouter(&stubDataSource{snapshot: apiSnapshot()})

	w := doJSON(r, http.MethodGet, "/api/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"chicken & rice!", 500, "chicken  rice"},
		{"no pork, extra veggies.", 500, "no pork, extra veggies."},
		{"abcdef", 3, "abc"},
		// The whitelist classes are ASCII-only, so multi-byte runes are
		// stripped before the cap applies and byte truncation is safe.
		{"crème brûlée", 500, "crme brle"},
		{"héllo wörld", 4, "hllo"},
	}

	for _, tt := range tests {
		got := sanitize(tt.in, tt.maxLen)
		assert.Equal(t, tt.want, got, "sanitize(%q, %d)", tt.in, tt.maxLen)
		assert.True(t, utf8.ValidString(got), "sanitize(%q) produced invalid UTF-8", tt.in)
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Now()

	assert.True(t, rl.allow("1.2.3.4", now))
	assert.True(t, rl.allow("1.2.3.4", now))
	assert.False(t, rl.allow("1.2.3.4", now))

	// Other clients are unaffected.
	assert.True(t, rl.allow("5.6.7.8", now))

	// Once the window passes, the client may request again.
	assert.True(t, rl.allow("1.2.3.4", now.Add(61*time.Second)))
}
