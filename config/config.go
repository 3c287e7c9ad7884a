// Package config provides YAML configuration parsing for ProductBoard.
//
// This package enables running ProductBoard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Corner Shop Inventory
//	port: 3000
//	poll_interval: 15s
//	request_timeout: 5s
//	store_url: ${STORE_URL:-http://localhost:8080/api}
//	headers:
//	  Authorization: Bearer ${STORE_TOKEN}
//
//	mock_api:
//	  port: 8080
//
//	seed:
//	  catalog_file: ./catalog.yaml
//	  quick: true
//	  seed: 42
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/productboard/internal/restclient"
	"github.com/jpalmerr/productboard/internal/seed"
)

// minPollInterval is the minimum allowed polling interval for production configs.
// This prevents accidental DoS of the backend with overly aggressive polling.
const minPollInterval = 1 * time.Second

const (
	maxPollInterval    = time.Hour
	minRequestTimeout  = 100 * time.Millisecond
	defaultPort        = 3000
	defaultMockAPIPort = 8080
	defaultPollSeconds = 15
)

// Config is the root configuration structure for ProductBoard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "ProductBoard" if not set.
	Title string `yaml:"title"`

	// Port is the dashboard HTTP port. Defaults to 3000.
	Port int `yaml:"port"`

	// PollInterval is the time between background refreshes.
	// Accepts duration strings like "10s", "1m". Defaults to 15s.
	PollInterval Duration `yaml:"poll_interval"`

	// RequestTimeout bounds each backend request. Defaults to 10s.
	RequestTimeout Duration `yaml:"request_timeout"`

	// StoreURL is the root of the product backend's REST API.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	StoreURL string `yaml:"store_url"`

	// Headers are sent with every backend request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// MockAPI configures the bundled in-memory product backend.
	MockAPI MockAPIConfig `yaml:"mock_api"`

	// Seed configures the seed command.
	Seed SeedConfig `yaml:"seed"`
}

// MockAPIConfig configures the bundled in-memory product backend.
type MockAPIConfig struct {
	// Port is the HTTP port for the mock API. Defaults to 8080.
	Port int `yaml:"port"`
}

// SeedConfig configures demo data seeding.
type SeedConfig struct {
	// CatalogFile is a YAML product catalog replacing the built-in one.
	// Supports environment variable substitution.
	CatalogFile string `yaml:"catalog_file"`

	// Products is an inline catalog. Mutually exclusive with CatalogFile.
	Products []seed.Item `yaml:"products"`

	// Scenarios replaces the built-in order scenarios.
	Scenarios []seed.Scenario `yaml:"scenarios"`

	Quick        bool `yaml:"quick"`
	ProductsOnly bool `yaml:"products_only"`

	// Delay is the minimum spacing between API calls.
	Delay Duration `yaml:"delay"`

	// Retries is the number of attempts per API call.
	Retries int `yaml:"retries"`

	// RetryDelay is the base of the linear retry backoff.
	RetryDelay Duration `yaml:"retry_delay"`

	// Seed makes the generated order history reproducible.
	Seed uint64 `yaml:"seed"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Unknown keys are rejected. Environment variables are expanded in
// StoreURL, Headers and Seed.CatalogFile. An empty document yields the
// defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(defaultPollSeconds * time.Second)
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = Duration(restclient.DefaultTimeout)
	}
	if c.StoreURL == "" {
		c.StoreURL = restclient.DefaultBaseURL
	}
	if c.MockAPI.Port == 0 {
		c.MockAPI.Port = defaultMockAPIPort
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if err := validatePort("port", c.Port); err != nil {
		return err
	}
	if err := validatePort("mock_api.port", c.MockAPI.Port); err != nil {
		return err
	}
	if c.Port == c.MockAPI.Port {
		return fmt.Errorf("mock_api.port must differ from port, both are %d", c.Port)
	}

	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}
	if c.PollInterval.Duration() > maxPollInterval {
		return fmt.Errorf("poll_interval must not exceed %s, got %s", maxPollInterval, c.PollInterval.Duration())
	}
	if c.RequestTimeout.Duration() < minRequestTimeout {
		return fmt.Errorf("request_timeout must be at least %s, got %s", minRequestTimeout, c.RequestTimeout.Duration())
	}

	expanded, err := expandEnvVars(c.StoreURL)
	if err != nil {
		return fmt.Errorf("store_url: %w", err)
	}
	c.StoreURL = expanded

	parsedURL, err := url.Parse(c.StoreURL)
	if err != nil {
		return fmt.Errorf("invalid store_url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return errors.New("store_url must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("store_url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return errors.New("store_url must include a host")
	}

	for k, v := range c.Headers {
		if k == "" {
			return errors.New("headers: key cannot be empty")
		}
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("headers[%s]: %w", k, err)
		}
		c.Headers[k] = expanded
	}

	return c.Seed.expandAndValidate()
}

func (s *SeedConfig) expandAndValidate() error {
	if s.CatalogFile != "" {
		if len(s.Products) > 0 {
			return errors.New("seed: catalog_file and products are mutually exclusive")
		}
		expanded, err := expandEnvVars(s.CatalogFile)
		if err != nil {
			return fmt.Errorf("seed.catalog_file: %w", err)
		}
		s.CatalogFile = expanded
	}

	for i, item := range s.Products {
		if err := item.Request().Normalize().Validate(); err != nil {
			return fmt.Errorf("seed.products[%d] (%s): %w", i, item.Name, err)
		}
	}

	for i, sc := range s.Scenarios {
		if err := sc.Validate(); err != nil {
			return fmt.Errorf("seed.scenarios[%d] (%s): %w", i, sc.Name, err)
		}
	}

	if s.Delay.Duration() < 0 {
		return fmt.Errorf("seed.delay cannot be negative, got %s", s.Delay.Duration())
	}
	if s.Retries < 0 {
		return fmt.Errorf("seed.retries cannot be negative, got %d", s.Retries)
	}
	if s.RetryDelay.Duration() < 0 {
		return fmt.Errorf("seed.retry_delay cannot be negative, got %s", s.RetryDelay.Duration())
	}
	return nil
}

func validatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", field, port)
	}
	return nil
}
