package productboard

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/productboard/dashboard"
	"github.com/jpalmerr/productboard/internal/coordinator"
	"github.com/jpalmerr/productboard/internal/restclient"
	"github.com/jpalmerr/productboard/internal/server"
)

const (
	defaultPollingInterval = coordinator.DefaultPollingInterval
	defaultRequestTimeout  = restclient.DefaultTimeout
	defaultPort            = 3000
	defaultStoreURL        = restclient.DefaultBaseURL
)

// Board keeps a live view of a product backend and serves it as a web
// dashboard.
//
// Board is created using [New] with functional options and run with
// [Board.Start]:
//
//	b, err := productboard.New(productboard.WithStoreURL("http://localhost:8080/api"))
//	if err != nil {
//	    slog.Error("failed to create productboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	b.Start(ctx) // blocks until context cancelled
type Board struct {
	title           string
	storeURL        string
	pollingInterval time.Duration
	requestTimeout  time.Duration
	port            int
	headers         map[string]string
	logger          *slog.Logger
	registry        *prometheus.Registry
	pollingPaused   bool
	stateCallbacks  []func(State)
}

// New creates a [Board] with the given options.
//
// Defaults:
//   - Store URL: http://localhost:8080/api
//   - Polling interval: 15 seconds
//   - Request timeout: 10 seconds
//   - Port: 3000
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*Board, error) {
	cfg := &pbConfig{
		storeURL:        defaultStoreURL,
		pollingInterval: defaultPollingInterval,
		requestTimeout:  defaultRequestTimeout,
		port:            defaultPort,
		headers:         make(map[string]string),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Board{
		title:           cfg.title,
		storeURL:        cfg.storeURL,
		pollingInterval: cfg.pollingInterval,
		requestTimeout:  cfg.requestTimeout,
		port:            cfg.port,
		headers:         cfg.headers,
		logger:          logger,
		registry:        cfg.registry,
		pollingPaused:   cfg.pollingPaused,
		stateCallbacks:  cfg.stateCallbacks,
	}, nil
}

// Start fetches the product list, begins background polling and serves the
// dashboard.
//
// Start blocks until ctx is cancelled and returns nil on graceful shutdown.
// It returns an error if the dashboard server cannot bind its port or the
// backend client cannot be built. A failing backend is not an error: the
// dashboard starts anyway and shows the failure.
func (b *Board) Start(ctx context.Context) error {
	b.logger.Info("productboard starting", "store_url", b.storeURL)
	b.logger.Info("polling configured", "interval", b.pollingInterval.String(), "paused", b.pollingPaused)
	b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.port))

	if ctx.Err() != nil {
		return nil
	}

	client, err := restclient.New(b.storeURL, b.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create store client: %w", err)
	}
	defer client.Close()

	registry := b.registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	metrics, err := coordinator.NewMetrics(registry)
	if err != nil {
		return err
	}

	coord, err := coordinator.New(client, b.coordinatorOptions(metrics)...)
	if err != nil {
		return fmt.Errorf("failed to create refresh coordinator: %w", err)
	}

	httpServer := server.NewServer(coord, b.port, dashboard.Assets, b.title, b.logger,
		server.WithGatherer(registry))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Start(gctx); err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		<-gctx.Done()
		return nil
	})
	g.Go(func() error {
		coord.Start(gctx)
		<-gctx.Done()
		coord.Close()
		return nil
	})

	err = g.Wait()
	b.logger.Info("productboard stopped")
	return err
}

func (b *Board) clientOptions() []restclient.Option {
	opts := []restclient.Option{restclient.WithTimeout(b.requestTimeout)}
	for k, v := range b.headers {
		opts = append(opts, restclient.WithHeader(k, v))
	}
	return opts
}

func (b *Board) coordinatorOptions(metrics *coordinator.Metrics) []coordinator.Option {
	opts := []coordinator.Option{
		coordinator.WithPollingInterval(b.pollingInterval),
		coordinator.WithLogger(b.logger),
		coordinator.WithMetrics(metrics),
		coordinator.WithPollingEnabled(!b.pollingPaused),
	}
	// one coordinator callback per public callback so a panic in one does
	// not skip the rest
	for _, cb := range b.stateCallbacks {
		opts = append(opts, coordinator.WithStateCallback(func(st coordinator.State) {
			cb(toPublicState(st))
		}))
	}
	return opts
}

// StoreURL returns the configured product backend root.
func (b *Board) StoreURL() string {
	return b.storeURL
}

// Port returns the configured HTTP port for the dashboard server.
func (b *Board) Port() int {
	return b.port
}

// PollingInterval returns the configured interval between background refreshes.
func (b *Board) PollingInterval() time.Duration {
	return b.pollingInterval
}

// Headers returns a copy of the headers sent with every backend request.
func (b *Board) Headers() map[string]string {
	return maps.Clone(b.headers)
}
