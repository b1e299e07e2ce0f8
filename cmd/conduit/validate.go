package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vixgo/conduit/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the conduit configuration file.

Checks:
  - YAML syntax is valid
  - Field values are within range
  - Defaults are applied where fields are omitted

Examples:
  conduit validate
  conduit validate --config /etc/conduit/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)

	fmt.Printf("  %s Listen: %s:%d\n", checkMark, cfg.Server.Host, cfg.Server.Port)
	if cfg.RateLimit.Enabled {
		fmt.Printf("  %s Rate limit: %.0f tokens, %.2f/s refill (key: %s)\n",
			checkMark, cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec, cfg.RateLimit.KeyHeader)
	} else {
		fmt.Printf("  %s Rate limit: disabled\n", checkMark)
	}
	fmt.Printf("  %s Logging: %s (%s)\n", checkMark, cfg.Logging.Level, cfg.Logging.Format)
	if cfg.Metrics.Enabled {
		fmt.Printf("  %s Metrics: %s\n", checkMark, cfg.Metrics.Path)
	}

	fmt.Println()
	fmt.Println("Configuration is valid.")
	return nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
