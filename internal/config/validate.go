package config

import (
	"fmt"
	"net/url"

	"github.com/shopharvest/shopharvest/internal/types"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.API.Key == "" {
		return types.ErrMissingAPIKey
	}
	if cfg.API.RequestTimeout <= 0 {
		return fmt.Errorf("api.request_timeout must be > 0")
	}
	if cfg.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must be >= 0, got %d", cfg.API.MaxRetries)
	}
	if cfg.API.ScrapeInterval < 0 {
		return fmt.Errorf("api.scrape_interval must be >= 0")
	}
	if err := ValidateURL(cfg.API.Endpoint); err != nil {
		return fmt.Errorf("invalid api.endpoint %q: %w", cfg.API.Endpoint, err)
	}

	if err := ValidateURL(cfg.Site.Root); err != nil {
		return fmt.Errorf("invalid site.root %q: %w", cfg.Site.Root, err)
	}
	if len(cfg.Discovery.CollectionPaths) == 0 {
		return fmt.Errorf("discovery.collection_paths must not be empty")
	}
	if cfg.Discovery.ProductPattern == "" {
		return fmt.Errorf("discovery.product_pattern must not be empty")
	}

	if cfg.Images.MaxSizeBytes <= 0 {
		return fmt.Errorf("images.max_size_bytes must be > 0")
	}
	if cfg.Images.FetchTimeout <= 0 {
		return fmt.Errorf("images.fetch_timeout must be > 0")
	}

	if cfg.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir must not be empty")
	}
	validBackends := map[string]bool{
		"json": true, "csv": true, "mongodb": true,
	}
	if len(cfg.Storage.Backends) == 0 {
		return fmt.Errorf("storage.backends must not be empty")
	}
	for _, b := range cfg.Storage.Backends {
		if !validBackends[b] {
			return fmt.Errorf("storage backend %q is not supported (valid: json, csv, mongodb)", b)
		}
		if b == "mongodb" {
			if cfg.Storage.Mongo.URI == "" {
				return fmt.Errorf("storage.mongo.uri is required for the mongodb backend")
			}
			if cfg.Storage.Mongo.OpTimeout <= 0 {
				return fmt.Errorf("storage.mongo.op_timeout must be > 0")
			}
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}

	return nil
}

// ValidateURL checks if a URL string is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", types.ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", types.ErrInvalidURL)
	}
	return nil
}
