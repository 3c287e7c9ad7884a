package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/productboard/config"
	"github.com/jpalmerr/productboard/internal/coordinator"
	"github.com/jpalmerr/productboard/internal/restclient"
	"github.com/jpalmerr/productboard/internal/tui"
)

// tuiCmd runs the terminal dashboard.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the terminal dashboard",
	Long: `Run ProductBoard in the terminal.

Keys:
  r  refresh now          p  pause/resume auto-refresh
  n  new product          e  edit selected product
  d  delete selected      /  filter by name
  c  dismiss error        q  quit

Auto-refresh is held while a form or confirmation dialog is open.
Logs go to --log-file, or nowhere, since the screen belongs to the UI.

Example:
  productboard tui --store-url http://localhost:8080/api`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().StringP("config", "c", "", "path to config file")
	tuiCmd.Flags().String("store-url", "", "backend REST root (overrides store_url)")
	tuiCmd.Flags().String("log-file", "", "write JSON logs to this file")
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("store-url") {
		cfg.StoreURL, _ = cmd.Flags().GetString("store-url")
	}

	var logOut io.Writer = io.Discard
	if path, _ := cmd.Flags().GetString("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client, err := restclient.New(cfg.StoreURL, config.ClientOptions(cfg)...)
	if err != nil {
		return err
	}
	defer client.Close()

	coord, err := coordinator.New(client,
		coordinator.WithPollingInterval(cfg.PollInterval.Duration()),
		coordinator.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer coord.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// the first fetch runs behind the UI so the screen appears immediately
	go coord.Start(ctx)

	return tui.Run(ctx, coord)
}
