package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/jpalmerr/productboard"
	"github.com/jpalmerr/productboard/internal/restclient"
	"github.com/jpalmerr/productboard/internal/seed"
)

// BuildOptions converts parsed configuration into SDK options for
// [productboard.New]. The logger is left to the caller.
func BuildOptions(cfg *Config) []productboard.Option {
	opts := []productboard.Option{
		productboard.WithPort(cfg.Port),
		productboard.WithPollingInterval(cfg.PollInterval.Duration()),
		productboard.WithRequestTimeout(cfg.RequestTimeout.Duration()),
		productboard.WithStoreURL(cfg.StoreURL),
	}

	if cfg.Title != "" {
		opts = append(opts, productboard.WithTitle(cfg.Title))
	}

	if len(cfg.Headers) > 0 {
		opts = append(opts, productboard.WithHeaders(mapToKeyValuePairs(cfg.Headers)...))
	}

	return opts
}

// ClientOptions converts parsed configuration into options for a backend
// REST client, for commands that talk to the backend directly.
func ClientOptions(cfg *Config) []restclient.Option {
	opts := []restclient.Option{restclient.WithTimeout(cfg.RequestTimeout.Duration())}

	pairs := mapToKeyValuePairs(cfg.Headers)
	for i := 0; i < len(pairs); i += 2 {
		opts = append(opts, restclient.WithHeader(pairs[i], pairs[i+1]))
	}
	return opts
}

// BuildSeedOptions converts the seed section into seeder options, loading
// the catalog file if one is configured.
func BuildSeedOptions(cfg *Config) (seed.Options, error) {
	sc := cfg.Seed
	opts := seed.Options{
		Catalog:      sc.Products,
		Scenarios:    sc.Scenarios,
		Quick:        sc.Quick,
		ProductsOnly: sc.ProductsOnly,
		Seed:         sc.Seed,
		Delay:        sc.Delay.Duration(),
		Retries:      sc.Retries,
		RetryDelay:   sc.RetryDelay.Duration(),
	}

	if sc.CatalogFile != "" {
		f, err := os.Open(sc.CatalogFile)
		if err != nil {
			return seed.Options{}, fmt.Errorf("failed to open catalog file: %w", err)
		}
		defer f.Close()

		items, err := seed.LoadCatalog(f)
		if err != nil {
			return seed.Options{}, fmt.Errorf("catalog file %s: %w", sc.CatalogFile, err)
		}
		opts.Catalog = items
	}

	return opts, nil
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
