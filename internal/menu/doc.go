// Package menu provides types for dining hall menus, food items, and
// nutrition data scraped from the VT FoodPro website.
//
// The menu package defines the normalized schema produced by a scrape run:
// dining halls with per-meal-period item lists, optional nutrition records
// attached to items, and the Snapshot type that bundles one complete run
// together with the configuration used and summary statistics. The Snapshot
// is the sole unit of persistence and the sole input to downstream
// consumers (the HTTP API and AI prompt formatting).
package menu
