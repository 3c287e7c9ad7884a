package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/productboard/config"
	"github.com/jpalmerr/productboard/internal/seed"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a ProductBoard configuration file without starting the server.

This command parses the YAML, expands environment variables, validates
all fields and loads the seed catalog file if one is set. It's useful for
CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  productboard validate -c config.yaml
  productboard validate --config /etc/productboard/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seedOpts, err := config.BuildSeedOptions(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	catalogSize := len(seedOpts.Catalog)
	if catalogSize == 0 {
		catalogSize = len(seed.DefaultCatalog())
	}
	scenarios := len(seedOpts.Scenarios)
	if scenarios == 0 {
		scenarios = len(seed.DefaultScenarios())
	}

	headers := make([]string, 0, len(cfg.Headers))
	for k := range cfg.Headers {
		headers = append(headers, k)
	}
	sort.Strings(headers)
	headerList := "none"
	if len(headers) > 0 {
		headerList = strings.Join(headers, ", ")
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Store URL:       %s\n", cfg.StoreURL)
	fmt.Printf("  Port:            %d\n", cfg.Port)
	fmt.Printf("  Poll interval:   %s\n", cfg.PollInterval.Duration())
	fmt.Printf("  Request timeout: %s\n", cfg.RequestTimeout.Duration())
	fmt.Printf("  Headers:         %s\n", headerList)
	fmt.Printf("  Mock API port:   %d\n", cfg.MockAPI.Port)
	fmt.Printf("  Seed catalog:    %d products, %d scenarios\n", catalogSize, scenarios)

	return nil
}
