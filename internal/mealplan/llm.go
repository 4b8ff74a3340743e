package mealplan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bwalsh/vt-nutrition/internal/config"
	"github.com/bwalsh/vt-nutrition/internal/logger"
	"github.com/bwalsh/vt-nutrition/internal/menu"
)

// Planner generates meal plans from snapshots, preferring the configured
// chat-completions API and degrading to the deterministic fallback.
type Planner struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewPlanner creates a Planner. An empty API key disables the AI path;
// every plan then comes from FallbackPlan.
func NewPlanner(cfg *config.Config) *Planner {
	return &Planner{
		apiKey: cfg.OpenAIAPIKey,
		apiURL: cfg.OpenAIAPIURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether the AI path is available.
func (p *Planner) Configured() bool {
	return p.apiKey != ""
}

// GeneratePlan produces a meal plan for the request. It never fails: any
// problem on the AI path (no key, no food data, transport error, invalid
// response structure) falls back to a plan assembled from the snapshot.
func (p *Planner) GeneratePlan(snapshot *menu.Snapshot, req PlanRequest) *MealPlan {
	if !p.Configured() {
		logger.Warn("AI planner not configured, using fallback", nil)
		return FallbackPlan(snapshot)
	}

	foods := FormatFoodsForAI(snapshot)
	if foods == "" {
		logger.Warn("no food data available, using fallback", nil)
		return FallbackPlan(snapshot)
	}

	plan, err := p.generateAIPlan(foods, req)
	if err != nil {
		logger.Error("AI meal plan generation failed, using fallback", nil, err)
		return FallbackPlan(snapshot)
	}

	return plan
}

// message is one chat turn in a completions request.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// completionRequest is the chat-completions request body.
type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

func (p *Planner) generateAIPlan(foods string, req PlanRequest) (*MealPlan, error) {
	restrictions := "None"
	if len(req.DietaryRestrictions) > 0 {
		restrictions = strings.Join(req.DietaryRestrictions, ", ")
	}

	preferences := req.FoodPreferences
	if preferences == "" {
		preferences = "None specified"
	}

	prompt := fmt.Sprintf(`You are a nutrition expert helping a Virginia Tech student create a meal plan for today.

STUDENT REQUIREMENTS:
- Target calories: %d
- Dietary restrictions: %s
- Macro targets: Protein %g%%, Carbs %g%%, Fat %g%%
- Food preferences: %s

AVAILABLE FOODS TODAY AT VT DINING HALLS:
%s

Create a complete meal plan with breakfast, lunch, dinner, and optional snacks.
Focus on creating balanced, realistic meals using ONLY the foods listed above.
Ensure the total calories are within 10%% of the target.

Return ONLY valid JSON in this exact format:
{
    "meal_plan": {
        "breakfast": [
            {
                "item": "Food Name",
                "dining_hall": "Hall Name",
                "calories": 000,
                "protein": 00,
                "carbs": 00,
                "fat": 00
            }
        ],
        "lunch": [...],
        "dinner": [...],
        "snacks": [...]
    },
    "totals": {
        "calories": 0000,
        "protein": 000,
        "carbs": 000,
        "fat": 000
    },
    "notes": "Brief explanation of food choices and how they meet the student's goals"
}`,
		req.Calories, restrictions,
		macroOr(req.MacroFocus, "protein", 25),
		macroOr(req.MacroFocus, "carbs", 45),
		macroOr(req.MacroFocus, "fat", 30),
		preferences, foods)

	content, err := p.complete([]message{
		{Role: "system", Content: "You are a helpful nutrition assistant. Always respond with valid JSON only."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, err
	}

	var plan MealPlan
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &plan); err != nil {
		return nil, fmt.Errorf("parsing meal plan JSON: %w", err)
	}

	if !plan.Valid() {
		return nil, fmt.Errorf("model returned invalid meal plan structure")
	}

	return &plan, nil
}

// complete sends one chat-completions request and returns the first
// choice's content.
func (p *Planner) complete(messages []message) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       "gpt-3.5-turbo",
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   1500,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequest("POST", p.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

// stripCodeFences removes markdown code fences some models wrap JSON in.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func macroOr(macros map[string]float64, key string, fallback float64) float64 {
	if v, ok := macros[key]; ok {
		return v
	}
	return fallback
}
