package engine

import (
	"context"
	"log/slog"

	"github.com/shopharvest/shopharvest/internal/firecrawl"
	"github.com/shopharvest/shopharvest/internal/mapper"
	"github.com/shopharvest/shopharvest/internal/media"
	"github.com/shopharvest/shopharvest/internal/storage"
	"github.com/shopharvest/shopharvest/internal/types"
)

// Stats summarizes one run.
type Stats struct {
	Processed     int
	Skipped       int
	ImagesFetched int
	ImagesFailed  int
}

// Engine drives the per-URL pipeline: extract, map, download the lead
// image, store. URLs are processed strictly sequentially — the extraction
// API pacing is global, so parallelism would only fight the limiter.
type Engine struct {
	extractor firecrawl.Extractor
	mapper    *mapper.Mapper
	images    *media.Downloader
	store     storage.Storage
	logger    *slog.Logger
}

// New creates an Engine. images may be nil to disable image downloads.
func New(extractor firecrawl.Extractor, m *mapper.Mapper, images *media.Downloader, store storage.Storage, logger *slog.Logger) *Engine {
	return &Engine{
		extractor: extractor,
		mapper:    m,
		images:    images,
		store:     store,
		logger:    logger.With("component", "engine"),
	}
}

// Run processes every URL in order. Extraction failures skip the URL and
// continue; storage failures abort the run. Cancellation stops between
// URLs.
func (e *Engine) Run(ctx context.Context, urls []string) (Stats, error) {
	var stats Stats

	for i, pageURL := range urls {
		select {
		case <-ctx.Done():
			e.logger.Warn("run cancelled", "remaining", len(urls)-i)
			return stats, ctx.Err()
		default:
		}

		e.logger.Info("processing product", "n", i+1, "total", len(urls), "url", pageURL)

		result, err := e.extractor.Scrape(ctx, pageURL)
		if err != nil {
			stats.Skipped++
			e.logger.Warn("product skipped", "url", pageURL, "error", err)
			continue
		}

		record := e.mapper.Map(result, pageURL)

		if e.images != nil && len(record.ImageURLs) > 0 {
			// Only the lead image; the rest stay as URLs on the record.
			localPath, err := e.images.Download(ctx, record.ImageURLs[0], record.Name)
			if err != nil {
				stats.ImagesFailed++
				e.logger.Warn("image download failed", "url", record.ImageURLs[0], "error", err)
			} else {
				record.ImagePath = localPath
				stats.ImagesFetched++
			}
		}

		if err := e.store.Store([]types.ProductRecord{record}); err != nil {
			return stats, err
		}
		stats.Processed++
		e.logger.Info("product recorded", "name", record.Name, "url", pageURL)
	}

	e.logger.Info("run complete",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"images_fetched", stats.ImagesFetched,
		"images_failed", stats.ImagesFailed,
	)
	return stats, nil
}
