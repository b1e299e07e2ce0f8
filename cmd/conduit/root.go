package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "conduit",
	Short: "Middleware pipeline server with rate limiting and observability",
	Long: `Conduit is an HTTP middleware pipeline server.

Requests flow through an ordered middleware chain with exactly-once
continuation semantics, lifecycle hooks, per-request typed state and a
type-keyed service registry. Built-in middleware covers panic recovery,
request ids, timing, structured logging and token-bucket rate limiting.

Quick start:
  conduit serve     # Start the server
  conduit validate  # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "conduit.yaml", "config file path")
}
