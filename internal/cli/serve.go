package cli

import (
	"github.com/spf13/cobra"

	"github.com/bwalsh/vt-nutrition/internal/config"
	"github.com/bwalsh/vt-nutrition/internal/server"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dining data API server",
	Long: `Starts the HTTP API. If no snapshot exists yet, an initial scrape
runs before the server accepts traffic. Data refreshes daily in the
background and on demand via POST /api/refresh-data.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "",
		"port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if servePort != "" {
		cfg.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	return srv.Run()
}
