package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for shopharvest.
type Config struct {
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Site      SiteConfig      `mapstructure:"site"      yaml:"site"`
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	Mapper    MapperConfig    `mapstructure:"mapper"    yaml:"mapper"`
	Images    ImagesConfig    `mapstructure:"images"    yaml:"images"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// APIConfig controls access to the extraction API.
type APIConfig struct {
	Key            string        `mapstructure:"key"              yaml:"key"`
	Endpoint       string        `mapstructure:"endpoint"         yaml:"endpoint"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"  yaml:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"      yaml:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
	ScrapeInterval time.Duration `mapstructure:"scrape_interval"  yaml:"scrape_interval"`
	UserAgent      string        `mapstructure:"user_agent"       yaml:"user_agent"`
}

// SiteConfig identifies the single target site.
type SiteConfig struct {
	Root string `mapstructure:"root" yaml:"root"`
}

// DiscoveryConfig controls product URL discovery.
type DiscoveryConfig struct {
	CollectionPaths []string      `mapstructure:"collection_paths" yaml:"collection_paths"`
	PageDelay       time.Duration `mapstructure:"page_delay"       yaml:"page_delay"`
	ProductPattern  string        `mapstructure:"product_pattern"  yaml:"product_pattern"`
}

// MapperConfig controls field mapping of extraction results.
type MapperConfig struct {
	KeywordVocabulary []string `mapstructure:"keyword_vocabulary" yaml:"keyword_vocabulary"`
}

// ImagesConfig controls product image downloads.
type ImagesConfig struct {
	Enabled      bool          `mapstructure:"enabled"        yaml:"enabled"`
	SubDir       string        `mapstructure:"sub_dir"        yaml:"sub_dir"`
	MaxSizeBytes int64         `mapstructure:"max_size_bytes" yaml:"max_size_bytes"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"  yaml:"fetch_timeout"`
}

// StorageConfig controls output/storage backends.
type StorageConfig struct {
	OutputDir string      `mapstructure:"output_dir" yaml:"output_dir"`
	Backends  []string    `mapstructure:"backends"   yaml:"backends"`
	Mongo     MongoConfig `mapstructure:"mongo"      yaml:"mongo"`
}

// MongoConfig configures the optional MongoDB backend.
type MongoConfig struct {
	URI        string        `mapstructure:"uri"        yaml:"uri"`
	Database   string        `mapstructure:"database"   yaml:"database"`
	Collection string        `mapstructure:"collection" yaml:"collection"`
	OpTimeout  time.Duration `mapstructure:"op_timeout" yaml:"op_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Endpoint:       "https://api.firecrawl.dev",
			RequestTimeout: 120 * time.Second,
			MaxRetries:     3,
			RetryBaseDelay: 30 * time.Second,
			ScrapeInterval: 2 * time.Second,
			UserAgent:      "shopharvest/" + Version,
		},
		Site: SiteConfig{
			Root: "https://www.the-citizenry.com",
		},
		Discovery: DiscoveryConfig{
			CollectionPaths: []string{
				"/collections/all",
				"/collections/accents",
				"/collections/baskets",
				"/collections/bedding",
				"/collections/furniture",
				"/collections/lighting",
				"/collections/rugs",
				"/collections/pillows",
				"/collections/throws",
				"/collections/tabletop",
				"/collections/wall-art",
				"/collections/mirrors",
			},
			PageDelay:      1 * time.Second,
			ProductPattern: "/products/",
		},
		Mapper: MapperConfig{
			KeywordVocabulary: []string{
				"Fairtrade",
				"FSC",
				"Handmade",
				"Artisan",
				"Sustainable",
				"Organic",
				"Eco-friendly",
				"Recycled",
			},
		},
		Images: ImagesConfig{
			Enabled:      true,
			SubDir:       "images",
			MaxSizeBytes: 20 * 1024 * 1024, // 20MB
			FetchTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			OutputDir: "./harvest_data",
			Backends:  []string{"json", "csv"},
			Mongo: MongoConfig{
				Database:   "shopharvest",
				Collection: "products",
				OpTimeout:  15 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
