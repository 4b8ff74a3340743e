// Package scraper fetches and parses dining menu data from the VT FoodPro
// website.
//
// A scrape run proceeds in three stages: hall discovery from the menu
// directory page, per-hall menu extraction that associates each food item
// with a meal period via a bounded forward scan for its recipe-identifier
// marker, and per-item nutrition extraction from label pages using ordered
// regex fallback chains. The aggregator drives the stages sequentially with
// a courtesy delay between nutrition fetches and degrades gracefully: a
// failed fetch yields empty or fallback data and a failed hall never aborts
// the run.
package scraper
