// Package mealplan turns a dining data snapshot into AI-assisted meal
// plans and quick food suggestions.
//
// The snapshot is condensed into a bounded textual digest of available
// foods (protein-bearing items first, then carbohydrate staples, then
// everything else) and embedded in a chat-completions prompt. When no API
// key is configured, or the model returns something unusable, a
// deterministic fallback plan is assembled directly from the snapshot so
// the endpoint always answers.
package mealplan
