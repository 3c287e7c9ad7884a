package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// mockapiCmd runs only the in-memory product backend.
var mockapiCmd = &cobra.Command{
	Use:   "mockapi",
	Short: "Run the in-memory product backend",
	Long: `Run the bundled in-memory product backend on its own.

It implements the same REST contract the dashboard consumes (products
under /api/products, orders under /api/orders). Data lives in memory and
is lost on exit.

Example:
  productboard mockapi --port 8080 --demo-data
  productboard seed --store-url http://localhost:8080/api`,
	RunE: runMockAPI,
}

func init() {
	rootCmd.AddCommand(mockapiCmd)

	mockapiCmd.Flags().StringP("config", "c", "", "path to config file")
	mockapiCmd.Flags().IntP("port", "p", 0, "port to listen on (overrides mock_api.port)")
	mockapiCmd.Flags().Bool("demo-data", false, "seed the backend with demo data on start")
}

func runMockAPI(cmd *cobra.Command, args []string) error {
	logger := newLogger(slog.LevelInfo)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	port := cfg.MockAPI.Port
	if cmd.Flags().Changed("port") {
		port, _ = cmd.Flags().GetInt("port")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := startMockAPI(ctx, port, logger); err != nil {
		return err
	}

	if demo, _ := cmd.Flags().GetBool("demo-data"); demo {
		if err := seedDemoData(ctx, port, logger); err != nil {
			return err
		}
	}

	<-ctx.Done()
	logger.Info("mock API stopped")
	return nil
}
