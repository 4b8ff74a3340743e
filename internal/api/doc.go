// Package api implements the HTTP endpoints for dining hall data, the
// meal-plan chatbot, and administrative refreshes.
//
// Handlers read the current snapshot through a DataSource so the serving
// layer can swap in fresh data without restarting. Chatbot endpoints are
// rate limited per client IP with an in-memory sliding window.
package api
