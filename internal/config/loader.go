package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
// A .env file in the working directory is loaded first so that
// FIRECRAWL_API_KEY can live there, matching the operator workflow.
func Load(configPath string) (*Config, error) {
	godotenv.Load()

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("SHOPHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The API key keeps its upstream-service variable name.
	v.BindEnv("api.key", "FIRECRAWL_API_KEY")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("shopharvest")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.endpoint", cfg.API.Endpoint)
	v.SetDefault("api.request_timeout", cfg.API.RequestTimeout)
	v.SetDefault("api.max_retries", cfg.API.MaxRetries)
	v.SetDefault("api.retry_base_delay", cfg.API.RetryBaseDelay)
	v.SetDefault("api.scrape_interval", cfg.API.ScrapeInterval)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)

	v.SetDefault("site.root", cfg.Site.Root)

	v.SetDefault("discovery.collection_paths", cfg.Discovery.CollectionPaths)
	v.SetDefault("discovery.page_delay", cfg.Discovery.PageDelay)
	v.SetDefault("discovery.product_pattern", cfg.Discovery.ProductPattern)

	v.SetDefault("mapper.keyword_vocabulary", cfg.Mapper.KeywordVocabulary)

	v.SetDefault("images.enabled", cfg.Images.Enabled)
	v.SetDefault("images.sub_dir", cfg.Images.SubDir)
	v.SetDefault("images.max_size_bytes", cfg.Images.MaxSizeBytes)
	v.SetDefault("images.fetch_timeout", cfg.Images.FetchTimeout)

	v.SetDefault("storage.output_dir", cfg.Storage.OutputDir)
	v.SetDefault("storage.backends", cfg.Storage.Backends)
	v.SetDefault("storage.mongo.uri", cfg.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", cfg.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", cfg.Storage.Mongo.Collection)
	v.SetDefault("storage.mongo.op_timeout", cfg.Storage.Mongo.OpTimeout)

	v.SetDefault("logging.level", cfg.Logging.Level)
}
