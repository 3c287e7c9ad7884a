package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/productboard/config"
	"github.com/jpalmerr/productboard/internal/restclient"
	"github.com/jpalmerr/productboard/internal/seed"
)

// seedCmd populates a backend with demo data.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate a product backend with demo data",
	Long: `Populate a product backend with a demo catalog and order history.

Seeding checks the backend is reachable, creates every catalog product,
then places orders from a set of scenarios: paid, cancelled, pending and
mixed outcomes, plus a large basket and a single high-value item. Stock is
tracked locally so no order asks for more than is available.

Flags override the seed section of the config file.

Example:
  productboard seed --store-url http://localhost:8080/api --quick
  productboard seed -c config.yaml --seed 42`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringP("config", "c", "", "path to config file")
	seedCmd.Flags().String("store-url", "", "backend REST root (overrides store_url)")
	seedCmd.Flags().String("catalog", "", "YAML catalog file (overrides seed.catalog_file)")
	seedCmd.Flags().Bool("quick", false, "place a quarter of the orders")
	seedCmd.Flags().Bool("products-only", false, "create products but no orders")
	seedCmd.Flags().Uint64("seed", 0, "random seed for a reproducible order history")
	seedCmd.Flags().Duration("delay", 0, "minimum spacing between API calls (negative disables)")
	seedCmd.Flags().Int("retries", 0, "attempts per API call")
	seedCmd.Flags().BoolP("verbose", "v", false, "log every API call")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("store-url") {
		cfg.StoreURL, _ = flags.GetString("store-url")
	}
	if flags.Changed("catalog") {
		cfg.Seed.CatalogFile, _ = flags.GetString("catalog")
		cfg.Seed.Products = nil
	}

	opts, err := config.BuildSeedOptions(cfg)
	if err != nil {
		return err
	}
	if flags.Changed("quick") {
		opts.Quick, _ = flags.GetBool("quick")
	}
	if flags.Changed("products-only") {
		opts.ProductsOnly, _ = flags.GetBool("products-only")
	}
	if flags.Changed("seed") {
		opts.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("delay") {
		opts.Delay, _ = flags.GetDuration("delay")
	}
	if flags.Changed("retries") {
		opts.Retries, _ = flags.GetInt("retries")
	}
	opts.Verbose, _ = flags.GetBool("verbose")

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelInfo
	}
	logger := newLogger(level)

	client, err := restclient.New(cfg.StoreURL, config.ClientOptions(cfg)...)
	if err != nil {
		return err
	}
	defer client.Close()

	seeder, err := seed.New(client, opts, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Seeding %s\n\n", cfg.StoreURL)

	report, err := seeder.Run(ctx)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	return report.Render(out)
}
