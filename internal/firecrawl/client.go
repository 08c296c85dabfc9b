package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/shopharvest/shopharvest/internal/config"
	"github.com/shopharvest/shopharvest/internal/types"
)

const scrapePath = "/v1/scrape"

// productPrompt asks the extraction API for the structured product schema
// that types.ExtractionResult decodes.
const productPrompt = `Extract product information in JSON format:
{
    "name": "product title/name",
    "current_price": "current price",
    "original_price": "original price if discounted, null if not",
    "description": "full product description text",
    "images": ["array of image URLs"],
    "colors_sizes": ["array of available colors/sizes/variants"],
    "upsells": ["array of related/recommended products or 'complete the set' items"],
    "sustainability_text": "any text mentioning sustainability, ethical sourcing, handmade, artisan, etc."
}
Return null for missing fields.`

const discoverPrompt = `Find all product links on this page. Look for URLs containing '/products/'. Return as JSON: {"product_urls": ["url1", "url2"]}`

// Extractor is the interface the rest of the pipeline consumes. It exists
// so the orchestrator can be exercised without network access.
type Extractor interface {
	// Scrape extracts structured product data for one product page.
	Scrape(ctx context.Context, pageURL string) (*types.ExtractionResult, error)

	// Discover lists candidate product URLs found on a listing page.
	Discover(ctx context.Context, pageURL string) ([]string, error)
}

// Client talks to the Firecrawl scrape endpoint. All outbound calls pass
// through a single limiter so pacing holds globally across the run.
type Client struct {
	cfg        *config.APIConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New creates a new extraction API client.
func New(cfg *config.APIConfig, logger *slog.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(cfg.ScrapeInterval), 1),
		logger:  logger.With("component", "firecrawl_client"),
	}
}

type scrapeRequest struct {
	URL             string      `json:"url"`
	Formats         []string    `json:"formats"`
	OnlyMainContent bool        `json:"onlyMainContent"`
	JSONOptions     jsonOptions `json:"jsonOptions"`
}

type jsonOptions struct {
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		JSON json.RawMessage `json:"json"`
	} `json:"data"`
}

// Scrape extracts structured product data for one product page.
// Retries transient failures internally; callers treat any returned error
// as a skip for that URL.
func (c *Client) Scrape(ctx context.Context, pageURL string) (*types.ExtractionResult, error) {
	payload, err := c.request(ctx, pageURL, productPrompt)
	if err != nil {
		return nil, err
	}

	var result types.ExtractionResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, &types.ExtractError{URL: pageURL, Err: fmt.Errorf("decode product payload: %w", err)}
	}
	if result.IsEmpty() {
		return nil, &types.ExtractError{URL: pageURL, Err: types.ErrEmptyResult}
	}
	return &result, nil
}

// Discover lists candidate product URLs found on a listing page. Returned
// strings are raw: relative references and query strings are the
// discoverer's problem.
func (c *Client) Discover(ctx context.Context, pageURL string) ([]string, error) {
	payload, err := c.request(ctx, pageURL, discoverPrompt)
	if err != nil {
		return nil, err
	}

	var listing struct {
		ProductURLs []string `json:"product_urls"`
	}
	if err := json.Unmarshal(payload, &listing); err != nil {
		return nil, &types.ExtractError{URL: pageURL, Err: fmt.Errorf("decode listing payload: %w", err)}
	}
	return listing.ProductURLs, nil
}

// request issues one scrape call with the retry policy applied: transient
// transport errors, HTTP 429 (honoring Retry-After), and 5xx responses are
// retried with exponential backoff up to the configured attempt limit.
func (c *Client) request(ctx context.Context, pageURL, prompt string) (json.RawMessage, error) {
	attempts := c.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &types.ExtractError{URL: pageURL, Err: err}
		}

		payload, err := c.do(ctx, pageURL, prompt)
		if err == nil {
			return payload, nil
		}
		lastErr = err

		var ee *types.ExtractError
		if !errors.As(err, &ee) || !ee.Retryable {
			return nil, err
		}

		// No backoff after the last attempt; the caller skips the URL.
		if attempt == attempts-1 {
			break
		}

		wait := c.cfg.RetryBaseDelay << attempt
		if ee.RetryAfter > 0 {
			wait = ee.RetryAfter
		}
		c.logger.Warn("transient extraction failure, backing off",
			"url", pageURL,
			"attempt", attempt+1,
			"wait", wait,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, &types.ExtractError{URL: pageURL, Err: ctx.Err()}
		case <-time.After(wait):
		}
	}

	return nil, &types.ExtractError{
		URL: pageURL,
		Err: fmt.Errorf("%w after %d attempts: %v", types.ErrMaxRetries, attempts, lastErr),
	}
}

// do executes a single scrape call without retries.
func (c *Client) do(ctx context.Context, pageURL, prompt string) (json.RawMessage, error) {
	body, err := json.Marshal(scrapeRequest{
		URL:             pageURL,
		Formats:         []string{"json"},
		OnlyMainContent: true,
		JSONOptions:     jsonOptions{Prompt: prompt, Temperature: 0},
	})
	if err != nil {
		return nil, &types.ExtractError{URL: pageURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+scrapePath, bytes.NewReader(body))
	if err != nil {
		return nil, &types.ExtractError{URL: pageURL, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &types.ExtractError{
			URL:       pageURL,
			Err:       err,
			Retryable: isRetryableError(err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &types.ExtractError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("rate limited (retry after %s): %s", retryAfter, strings.TrimSpace(string(snippet))),
			Retryable:  true,
			RetryAfter: retryAfter,
		}
	}

	if resp.StatusCode >= 500 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &types.ExtractError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("server error: %s", strings.TrimSpace(string(snippet))),
			Retryable:  true,
		}
	}

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &types.ExtractError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(snippet))),
		}
	}

	var sr scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, &types.ExtractError{URL: pageURL, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(sr.Data.JSON) == 0 {
		return nil, &types.ExtractError{URL: pageURL, Err: types.ErrEmptyResult}
	}

	c.logger.Debug("scrape complete",
		"url", pageURL,
		"bytes", len(sr.Data.JSON),
		"duration", time.Since(start),
	)
	return sr.Data.JSON, nil
}

// isRetryableError checks if a network error warrants a retry.
// Covers timeouts, connection resets, unexpected EOF, and connection refused.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	// Context cancellation is NOT retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
	}
	return false
}

// parseRetryAfter parses the Retry-After header value.
// Supports both integer seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 30 * time.Second // default back-off
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		if secs > 120 {
			secs = 120 // cap at 2 minutes
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return time.Second
		}
		if d > 2*time.Minute {
			return 2 * time.Minute
		}
		return d
	}
	return 30 * time.Second
}
