package scraper

import (
	"fmt"
	"time"

	"github.com/bwalsh/vt-nutrition/internal/config"
	"github.com/bwalsh/vt-nutrition/internal/fetch"
	"github.com/bwalsh/vt-nutrition/internal/logger"
	"github.com/bwalsh/vt-nutrition/internal/menu"
)

const (
	// BaseURL is the FoodPro site root.
	BaseURL = "https://foodpro.students.vt.edu"

	// MenuBaseURL is the menu directory page listing all dining halls.
	MenuBaseURL = BaseURL + "/menus"
)

// Scraper drives the full discovery → menu → nutrition pipeline. One
// Scraper instance runs one scrape at a time; callers wanting periodic
// refreshes must serialize invocations themselves.
type Scraper struct {
	client          *fetch.Client
	baseURL         string
	menuBase        string
	maxItemsPerMeal int
	requestDelay    time.Duration

	// sleep is swapped out by tests to avoid real delays
	sleep func(time.Duration)
}

// New creates a Scraper with limits taken from cfg.
func New(cfg *config.Config) *Scraper {
	return &Scraper{
		client:          fetch.New(),
		baseURL:         BaseURL,
		menuBase:        MenuBaseURL,
		maxItemsPerMeal: cfg.MaxItemsPerMeal,
		requestDelay:    cfg.RequestDelayDuration(),
		sleep:           time.Sleep,
	}
}

// ScrapeAll runs one complete scrape across all dining halls and returns
// the resulting snapshot. Individual fetch failures degrade to empty or
// fallback data and one hall's failure never aborts the run, so a snapshot
// is always returned.
func (s *Scraper) ScrapeAll() *menu.Snapshot {
	start := time.Now()
	snapshot := menu.NewSnapshot(start, menu.ScraperConfig{
		MaxItemsPerMeal: s.maxItemsPerMeal,
		RequestDelay:    s.requestDelay.Seconds(),
	})

	logger.Info("starting dining data scrape", nil)

	halls := s.DiscoverHalls()
	logger.Info("dining halls discovered", logger.Fields{"count": len(halls)})

	successful := 0
	totalItems := 0

	for _, h := range halls {
		hall := menu.NewDiningHall(h)

		if err := s.scrapeHall(hall); err != nil {
			logger.Error("hall scrape failed", logger.Fields{"hall": hall.Name}, err)
			hall.ScrapeStatus = menu.StatusFailed
			hall.Error = err.Error()
		} else {
			hall.ScrapeStatus = menu.StatusCompleted
			successful++
		}

		totalItems += hall.ItemsScraped
		snapshot.DiningHalls = append(snapshot.DiningHalls, hall)
	}

	snapshot.ScrapeSummary = menu.ScrapeSummary{
		TotalHalls:        len(halls),
		SuccessfulHalls:   successful,
		FailedHalls:       len(halls) - successful,
		TotalItemsScraped: totalItems,
		ScrapeDuration:    time.Since(start).Seconds(),
	}

	logger.Info("scrape complete", logger.Fields{
		"successful_halls": successful,
		"total_halls":      len(halls),
		"items":            totalItems,
	})

	return snapshot
}

// scrapeHall extracts one hall's menu and nutrition data in place. Any
// panic while processing is captured as the hall's error so the caller can
// mark it failed and continue with the next hall.
func (s *Scraper) scrapeHall(hall *menu.DiningHall) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hall processing panic: %v", r)
		}
	}()

	periods, order := s.ExtractMenu(hall.URL)

	fetched := 0
	for _, period := range order {
		items := periods[period]

		limited := items
		if len(limited) > s.maxItemsPerMeal {
			limited = limited[:s.maxItemsPerMeal]
		}

		for _, item := range limited {
			if fetched > 0 {
				s.sleep(s.requestDelay)
			}
			item.Nutrition = s.ExtractNutrition(item.URL)
			fetched++
		}

		hall.MealPeriods[period] = &menu.MealPeriodData{
			Items:          limited,
			TotalAvailable: len(items),
			ScrapedCount:   len(limited),
		}
		hall.ItemsScraped += len(limited)

		logger.Debug("meal period scraped", logger.Fields{
			"hall":   hall.Name,
			"period": period,
			"items":  len(limited),
		})
	}

	return nil
}
