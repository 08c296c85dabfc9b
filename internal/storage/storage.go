package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/shopharvest/shopharvest/internal/config"
	"github.com/shopharvest/shopharvest/internal/types"
)

// Storage is the interface for all output backends.
type Storage interface {
	// Store persists a batch of records.
	Store(records []types.ProductRecord) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// NewFromConfig builds the configured backends for one run. The timestamp
// becomes part of the output filenames so each run writes fresh files.
// More than one backend is combined with MultiStorage.
func NewFromConfig(cfg *config.StorageConfig, timestamp string, logger *slog.Logger) (Storage, error) {
	var backends []Storage
	for _, name := range cfg.Backends {
		switch name {
		case "json":
			s, err := NewJSONStorage(filepath.Join(cfg.OutputDir, "products_"+timestamp+".json"), logger)
			if err != nil {
				return nil, err
			}
			backends = append(backends, s)
		case "csv":
			s, err := NewCSVStorage(filepath.Join(cfg.OutputDir, "products_"+timestamp+".csv"), logger)
			if err != nil {
				return nil, err
			}
			backends = append(backends, s)
		case "mongodb":
			s, err := NewMongoStorage(&cfg.Mongo, logger)
			if err != nil {
				return nil, err
			}
			backends = append(backends, s)
		default:
			return nil, fmt.Errorf("unsupported storage backend: %s", name)
		}
	}

	if len(backends) == 1 {
		return backends[0], nil
	}
	return NewMultiStorage(backends, logger), nil
}
