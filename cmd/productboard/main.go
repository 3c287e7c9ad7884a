// Package main is the entry point for the productboard CLI.
//
// ProductBoard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	productboard serve -c config.yaml    # Start the dashboard
//	productboard serve --mock-api        # Dashboard over a bundled in-memory backend
//	productboard tui -c config.yaml      # Terminal dashboard
//	productboard seed -c config.yaml     # Populate a backend with demo data
//	productboard mockapi                 # Run only the in-memory backend
//	productboard validate -c config.yaml # Validate configuration
//	productboard version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/productboard/config"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "productboard",
	Short: "A live dashboard for a product inventory backend",
	Long: `ProductBoard is a live dashboard for a product inventory backend.

It keeps the product list fresh by polling the backend's REST API,
lets you create, edit and delete products, and pushes every change to
the browser with Server-Sent Events.

Quick start (no backend needed):
  1. Run: productboard serve --mock-api --demo-data
  2. Open http://localhost:3000 in your browser

Against a real backend:
  store_url: https://shop.example.com/api
  poll_interval: 15s
  headers:
    Authorization: Bearer ${STORE_TOKEN}`,
	SilenceUsage: true,
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this productboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "productboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the file named by the command's --config flag, or the
// defaults when the flag is empty.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
