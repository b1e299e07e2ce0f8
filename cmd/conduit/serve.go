package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vixgo/conduit/bootstrap"
	"github.com/vixgo/conduit/config"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pipeline server",
	Long: `Start the conduit server.

The server will:
  - Load configuration from conduit.yaml (or --config)
  - Or load configuration from CONDUIT_* environment variables
  - Run every request through the middleware chain
  - Expose /healthz and, when enabled, Prometheus metrics

Environment variables (for container deployments):
  CONDUIT_SERVER_PORT        - Server port (default: 8080)
  CONDUIT_RATELIMIT_ENABLED  - Enable rate limiting
  CONDUIT_LOG_LEVEL          - Log level: debug, info, warn, error
  CONDUIT_METRICS_ENABLED    - Enable /metrics endpoint
  VIX_ENV                    - "dev" enables the dev diagnostics bundle

Examples:
  conduit serve
  conduit serve --config /etc/conduit/config.yaml
  conduit serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	var app *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		// Hot reload only works with a config file.
		app, err = bootstrap.NewWithHotReload(cfgFile)
	} else {
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}

		if !hasConfigFile {
			fmt.Println("Running with environment variables (no config file)")
		}

		app, err = bootstrap.New(cfg)
	}

	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
