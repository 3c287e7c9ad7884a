package productboard

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// pbConfig holds mutable state during Board construction.
type pbConfig struct {
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

// Option is a function that configures a [Board] during construction.
//
// Options return an error if validation fails, and [New] returns the first
// such error.
type Option func(*pbConfig) error

// WithStoreURL sets the root of the product backend's REST API, for example
// "https://shop.example.com/api". Defaults to http://localhost:8080/api.
//
// Returns an error unless the URL is absolute with an http or https scheme.
func WithStoreURL(rawURL string) Option {
	return func(cfg *pbConfig) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("invalid store url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("store url scheme must be http or https, got %q", u.Scheme)
		}
		if u.Host == "" {
			return errors.New("store url must include a host")
		}
		cfg.storeURL = rawURL
		return nil
	}
}

// WithPollingInterval sets how often the product list is refreshed in the
// background. Defaults to 15 seconds.
//
// The interval is fixed for the lifetime of the Board. Polling can be paused
// and resumed at runtime from the dashboard, but not re-timed.
//
// Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *pbConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithPollingPaused starts the Board with background polling switched off.
// The initial fetch still runs.
func WithPollingPaused() Option {
	return func(cfg *pbConfig) error {
		cfg.pollingPaused = true
		return nil
	}
}

// WithRequestTimeout bounds every call to the product backend.
// Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *pbConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
// Defaults to 3000.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *pbConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithHeaders adds headers sent with every backend request, given as
// alternating key/value pairs:
//
//	productboard.WithHeaders("Authorization", "Bearer "+token)
//
// Returns an error if an odd number of arguments is given or a key is empty.
func WithHeaders(pairs ...string) Option {
	return func(cfg *pbConfig) error {
		if len(pairs)%2 != 0 {
			return errors.New("headers must be key/value pairs")
		}
		for i := 0; i < len(pairs); i += 2 {
			if pairs[i] == "" {
				return errors.New("header key cannot be empty")
			}
			cfg.headers[pairs[i]] = pairs[i+1]
		}
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *pbConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithMetricsRegistry registers the coordinator's Prometheus collectors with
// reg and serves reg on the dashboard's /metrics endpoint. Without it each
// call to [Board.Start] uses a fresh registry.
//
// A registry can back only one running Board; a second Start against the
// same registry fails with a duplicate registration error.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(cfg *pbConfig) error {
		if reg == nil {
			return errors.New("metrics registry cannot be nil")
		}
		cfg.registry = reg
		return nil
	}
}

// WithStateCallback registers a function called with every published
// [State]: after each fetch, mutation and flag change.
//
// Callbacks run synchronously on the goroutine that changed the state and
// must not block. Panics within callbacks are recovered and logged.
//
// Nil callbacks are silently ignored.
func WithStateCallback(cb func(State)) Option {
	return func(cfg *pbConfig) error {
		if cb == nil {
			return nil
		}
		cfg.stateCallbacks = append(cfg.stateCallbacks, cb)
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and
// header. If not specified, defaults to "ProductBoard".
func WithTitle(title string) Option {
	return func(cfg *pbConfig) error {
		cfg.title = title
		return nil
	}
}
