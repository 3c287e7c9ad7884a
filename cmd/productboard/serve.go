package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/productboard"
	"github.com/jpalmerr/productboard/config"
	"github.com/jpalmerr/productboard/internal/httpserve"
	"github.com/jpalmerr/productboard/internal/productapi"
	"github.com/jpalmerr/productboard/internal/restclient"
	"github.com/jpalmerr/productboard/internal/seed"
	"github.com/jpalmerr/productboard/internal/store"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// serveCmd starts the ProductBoard dashboard server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the ProductBoard dashboard server.

The server will:
  - Load configuration from the specified YAML file (defaults otherwise)
  - Fetch the product list and refresh it every poll_interval
  - Serve the dashboard UI on the configured port

With --mock-api an in-memory product backend is started on mock_api.port
and the dashboard is pointed at it. --demo-data seeds that backend with a
grocery catalog and a short order history.

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  productboard serve -c config.yaml
  productboard serve --mock-api --demo-data`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file")
	serveCmd.Flags().Bool("mock-api", false, "run the bundled in-memory product backend")
	serveCmd.Flags().Bool("demo-data", false, "seed the in-memory backend with demo data (requires --mock-api)")
	serveCmd.Flags().Bool("debug", false, "enable debug logging")
}

func runServe(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := newLogger(level)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	mockAPI, _ := cmd.Flags().GetBool("mock-api")
	demoData, _ := cmd.Flags().GetBool("demo-data")
	if demoData && !mockAPI {
		return errors.New("--demo-data requires --mock-api")
	}

	opts := append(config.BuildOptions(cfg), productboard.WithLogger(logger))
	if mockAPI {
		opts = append(opts, productboard.WithStoreURL(mockStoreURL(cfg.MockAPI.Port)))
	}

	board, err := productboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create ProductBoard: %w", err)
	}

	logger.Info("starting server",
		"port", cfg.Port,
		"poll_interval", cfg.PollInterval.Duration().String(),
		"store_url", board.StoreURL(),
	)

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	if mockAPI {
		// the backend must be listening before the board's first fetch
		if err := startMockAPI(gctx, cfg.MockAPI.Port, logger); err != nil {
			return err
		}
		if demoData {
			if err := seedDemoData(gctx, cfg.MockAPI.Port, logger); err != nil {
				return err
			}
		}
	}
	g.Go(func() error {
		return board.Start(gctx)
	})

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- g.Wait()
	}()

	// wait for server to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

func mockStoreURL(port int) string {
	return fmt.Sprintf("http://localhost:%d/api", port)
}

// startMockAPI serves an empty in-memory product backend on port until ctx
// is cancelled.
func startMockAPI(ctx context.Context, port int, logger *slog.Logger) error {
	handler := productapi.NewRouter(store.NewMemoryStore(), logger.With("component", "mockapi"))
	addr, err := httpserve.Serve(ctx, port, handler, logger)
	if err != nil {
		return fmt.Errorf("failed to start mock API: %w", err)
	}
	logger.Info("mock API listening", "addr", addr.String())
	return nil
}

// seedDemoData populates the mock backend with the built-in catalog and a
// quick order history.
func seedDemoData(ctx context.Context, port int, logger *slog.Logger) error {
	client, err := restclient.New(mockStoreURL(port))
	if err != nil {
		return err
	}
	defer client.Close()

	seeder, err := seed.New(client, seed.Options{Quick: true, Delay: -1}, logger.With("component", "seed"))
	if err != nil {
		return err
	}
	report, err := seeder.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}
	logger.Info("demo data seeded",
		"products", report.ProductsCreated,
		"orders", report.OrdersCreated,
		"seed", report.Seed,
	)
	return nil
}
