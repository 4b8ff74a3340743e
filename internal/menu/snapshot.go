package menu

import "time"

// ScraperConfig records the limits a scrape ran with.
type ScraperConfig struct {
	MaxItemsPerMeal int     `json:"max_items_per_meal"`
	RequestDelay    float64 `json:"request_delay"`
}

// ScrapeSummary holds the counters accumulated over one scrape run.
type ScrapeSummary struct {
	TotalHalls        int     `json:"total_halls"`
	SuccessfulHalls   int     `json:"successful_halls"`
	FailedHalls       int     `json:"failed_halls"`
	TotalItemsScraped int     `json:"total_items_scraped"`
	ScrapeDuration    float64 `json:"scrape_duration"`
}

// Snapshot is the complete, timestamped result of one scrape run across all
// dining halls. Each run produces a brand-new Snapshot; there is no
// incremental merge with prior snapshots.
type Snapshot struct {
	LastUpdated   string        `json:"last_updated"`
	DiningHalls   []*DiningHall `json:"dining_halls"`
	ScraperConfig ScraperConfig `json:"scraper_config"`
	ScrapeSummary ScrapeSummary `json:"scrape_summary"`
}

// NewSnapshot creates an empty snapshot stamped with the given start time.
func NewSnapshot(start time.Time, cfg ScraperConfig) *Snapshot {
	return &Snapshot{
		LastUpdated:   start.UTC().Format(time.RFC3339),
		DiningHalls:   make([]*DiningHall, 0),
		ScraperConfig: cfg,
	}
}

// HallCount returns the number of dining halls in the snapshot.
func (s *Snapshot) HallCount() int {
	return len(s.DiningHalls)
}

// TotalItems counts every food item across all halls and meal periods.
func (s *Snapshot) TotalItems() int {
	total := 0
	for _, hall := range s.DiningHalls {
		for _, period := range hall.MealPeriods {
			total += len(period.Items)
		}
	}
	return total
}
