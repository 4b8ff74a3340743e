package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bwalsh/vt-nutrition/internal/config"
	"github.com/bwalsh/vt-nutrition/internal/scraper"
	"github.com/bwalsh/vt-nutrition/internal/storage"
)

var (
	scrapeMaxItems int
	scrapeDelay    float64
	scrapeDataDir  string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape dining data once and write the JSON snapshot",
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().IntVar(&scrapeMaxItems, "max-items", 0,
		"max items scraped per meal period (overrides MAX_ITEMS_PER_MEAL)")
	scrapeCmd.Flags().Float64Var(&scrapeDelay, "delay", -1,
		"seconds to wait between item requests (overrides SCRAPER_DELAY)")
	scrapeCmd.Flags().StringVar(&scrapeDataDir, "data-dir", "",
		"directory for the snapshot file (overrides DATA_DIR)")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if scrapeMaxItems > 0 {
		cfg.MaxItemsPerMeal = scrapeMaxItems
	}
	if scrapeDelay >= 0 {
		cfg.RequestDelay = scrapeDelay
	}
	if scrapeDataDir != "" {
		cfg.DataDir = scrapeDataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return err
	}

	snapshot := scraper.New(cfg).ScrapeAll()
	if err := store.SaveSnapshot(snapshot); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	fmt.Printf("Scraped %d halls (%d ok, %d failed), %d items in %.1fs\n",
		snapshot.ScrapeSummary.TotalHalls,
		snapshot.ScrapeSummary.SuccessfulHalls,
		snapshot.ScrapeSummary.FailedHalls,
		snapshot.ScrapeSummary.TotalItemsScraped,
		snapshot.ScrapeSummary.ScrapeDuration)
	fmt.Printf("Snapshot written to %s\n", store.SnapshotPath())
	return nil
}
