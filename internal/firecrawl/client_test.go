package firecrawl

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopharvest/shopharvest/internal/config"
	"github.com/shopharvest/shopharvest/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func testConfig(endpoint string) *config.APIConfig {
	return &config.APIConfig{
		Key:            "test-key",
		Endpoint:       endpoint,
		RequestTimeout: 5 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: 10 * time.Millisecond,
		ScrapeInterval: time.Millisecond,
		UserAgent:      "shopharvest/test",
	}
}

func productResponse(t *testing.T, result types.ExtractionResult) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"success": true,
		"data":    map[string]any{"json": result},
	})
	if err != nil {
		t.Fatal(err)
	}
	return payload
}

func TestScrapeSuccess(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq scrapeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write(productResponse(t, types.ExtractionResult{
			Name:         "Vela Table Lamp",
			CurrentPrice: "249.00",
			Description:  "Hand-blown glass.",
		}))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), testLogger)
	result, err := c.Scrape(context.Background(), "https://shop.example.com/products/vela-lamp")
	if err != nil {
		t.Fatalf("scrape error: %v", err)
	}

	if result.Name != "Vela Table Lamp" || result.CurrentPrice != "249.00" {
		t.Errorf("unexpected result: %+v", result)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotPath != "/v1/scrape" {
		t.Errorf("expected /v1/scrape, got %q", gotPath)
	}
	if gotReq.URL != "https://shop.example.com/products/vela-lamp" {
		t.Errorf("unexpected request URL %q", gotReq.URL)
	}
	if !gotReq.OnlyMainContent || len(gotReq.Formats) != 1 || gotReq.Formats[0] != "json" {
		t.Errorf("unexpected request options: %+v", gotReq)
	}
}

func TestScrapeRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "upstream broke", http.StatusBadGateway)
			return
		}
		w.Write(productResponse(t, types.ExtractionResult{Name: "Recovered"}))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), testLogger)
	result, err := c.Scrape(context.Background(), "https://shop.example.com/products/x")
	if err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	if result.Name != "Recovered" || calls != 3 {
		t.Errorf("expected success on call 3, got %q after %d calls", result.Name, calls)
	}
}

func TestScrapeHonorsRetryAfter(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		w.Write(productResponse(t, types.ExtractionResult{Name: "After 429"}))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), testLogger)
	result, err := c.Scrape(context.Background(), "https://shop.example.com/products/x")
	if err != nil {
		t.Fatalf("expected recovery after 429, got %v", err)
	}
	if result.Name != "After 429" || calls != 2 {
		t.Errorf("expected success on call 2, got %q after %d calls", result.Name, calls)
	}
}

func TestScrapeDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), testLogger)
	_, err := c.Scrape(context.Background(), "https://shop.example.com/products/x")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("client error should not retry, got %d calls", calls)
	}

	var ee *types.ExtractError
	if !errors.As(err, &ee) || ee.StatusCode != http.StatusBadRequest {
		t.Errorf("expected ExtractError with status 400, got %v", err)
	}
}

func TestScrapeExhaustsRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RetryBaseDelay = 100 * time.Millisecond

	c := New(cfg, testLogger)
	start := time.Now()
	_, err := c.Scrape(context.Background(), "https://shop.example.com/products/x")
	elapsed := time.Since(start)

	if !errors.Is(err, types.ErrMaxRetries) {
		t.Fatalf("expected ErrMaxRetries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	// Backoff runs between attempts only: base + 2*base. A sleep after the
	// final attempt would add another 4*base and push past the bound.
	if elapsed >= 600*time.Millisecond {
		t.Errorf("exhaustion took %s, backoff ran after the final attempt", elapsed)
	}
}

func TestScrapeEmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": {}}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), testLogger)
	_, err := c.Scrape(context.Background(), "https://shop.example.com/products/x")
	if !errors.Is(err, types.ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
}

func TestScrapeEmptyExtraction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(productResponse(t, types.ExtractionResult{}))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), testLogger)
	_, err := c.Scrape(context.Background(), "https://shop.example.com/products/x")
	if !errors.Is(err, types.ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult for all-empty payload, got %v", err)
	}
}

func TestDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": {"json": {"product_urls": ["/products/a", "/products/b"]}}}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), testLogger)
	urls, err := c.Discover(context.Background(), "https://shop.example.com/collections/all")
	if err != nil {
		t.Fatalf("discover error: %v", err)
	}
	if len(urls) != 2 || urls[0] != "/products/a" {
		t.Errorf("unexpected urls: %v", urls)
	}
}

func TestRateLimiterPacing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(productResponse(t, types.ExtractionResult{Name: "Paced"}))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.ScrapeInterval = 50 * time.Millisecond
	c := New(cfg, testLogger)

	const n = 3
	start := time.Now()
	for i := 0; i < n; i++ {
		if _, err := c.Scrape(context.Background(), "https://shop.example.com/products/x"); err != nil {
			t.Fatalf("scrape %d: %v", i, err)
		}
	}

	if elapsed := time.Since(start); elapsed < (n-1)*50*time.Millisecond {
		t.Errorf("calls not paced: %d calls in %s", n, elapsed)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		header   string
		expected time.Duration
	}{
		{"30", 30 * time.Second},
		{"0", 0},
		{"500", 120 * time.Second}, // capped
		{"", 30 * time.Second},     // default
		{"garbage", 30 * time.Second},
	}

	for _, tt := range tests {
		if got := parseRetryAfter(tt.header); got != tt.expected {
			t.Errorf("parseRetryAfter(%q): expected %s, got %s", tt.header, tt.expected, got)
		}
	}
}
