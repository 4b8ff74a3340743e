// Package cli defines the command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vt-nutrition",
	Short: "Virginia Tech dining hall nutrition scraper and API",
	Long: `vt-nutrition scrapes menus and nutrition facts from Virginia Tech's
FoodPro dining site into a JSON snapshot, and serves the data over an
HTTP API with meal planning endpoints.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
