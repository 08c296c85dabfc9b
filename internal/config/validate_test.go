package config

import (
	"errors"
	"testing"

	"github.com/shopharvest/shopharvest/internal/types"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.API.Key = "fc-test"
	return cfg
}

func TestValidateDefaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("default config with key should validate: %v", err)
	}
}

func TestValidateMissingAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); !errors.Is(err, types.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad endpoint scheme", func(c *Config) { c.API.Endpoint = "ftp://api.example.com" }},
		{"bad site root", func(c *Config) { c.Site.Root = "not a url" }},
		{"no collection paths", func(c *Config) { c.Discovery.CollectionPaths = nil }},
		{"empty product pattern", func(c *Config) { c.Discovery.ProductPattern = "" }},
		{"zero image size cap", func(c *Config) { c.Images.MaxSizeBytes = 0 }},
		{"unknown backend", func(c *Config) { c.Storage.Backends = []string{"sqlite"} }},
		{"mongodb without uri", func(c *Config) { c.Storage.Backends = []string{"mongodb"} }},
		{"mongodb zero op timeout", func(c *Config) {
			c.Storage.Backends = []string{"mongodb"}
			c.Storage.Mongo.URI = "mongodb://localhost:27017"
			c.Storage.Mongo.OpTimeout = 0
		}},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("https://www.the-citizenry.com"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateURL("/collections/all"); !errors.Is(err, types.ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
}
