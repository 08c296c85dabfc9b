package firecrawl

import (
	"context"
	"fmt"

	"github.com/shopharvest/shopharvest/internal/types"
)

// MockExtractor implements Extractor with canned data. It backs the
// --mock CLI flag so the pipeline can be exercised end to end without an
// API key, and it is what the orchestrator tests run against.
type MockExtractor struct {
	// PerPage controls how many fake product links Discover returns.
	PerPage int

	// FailURLs maps page URLs to the error Scrape should return for them.
	FailURLs map[string]error

	scraped int
}

// NewMockExtractor creates a mock extractor producing three links per page.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{PerPage: 3}
}

func (m *MockExtractor) Scrape(ctx context.Context, pageURL string) (*types.ExtractionResult, error) {
	if err, ok := m.FailURLs[pageURL]; ok {
		return nil, &types.ExtractError{URL: pageURL, Err: err}
	}
	m.scraped++
	return &types.ExtractionResult{
		Name:               fmt.Sprintf("Sample Product %d", m.scraped),
		CurrentPrice:       "$79.00",
		OriginalPrice:      "$99.00",
		Description:        "Handmade by artisans using FSC-certified wood.",
		Images:             []string{"https://cdn.example.com/sample.jpg"},
		ColorsSizes:        []string{"Natural", "Walnut"},
		Upsells:            []string{"Sample Throw", "Sample Basket"},
		SustainabilityText: "Fair trade certified, sustainably sourced.",
	}, nil
}

func (m *MockExtractor) Discover(ctx context.Context, pageURL string) ([]string, error) {
	urls := make([]string, 0, m.PerPage)
	for i := 0; i < m.PerPage; i++ {
		urls = append(urls, fmt.Sprintf("/products/sample-%02d", i+1))
	}
	return urls, nil
}
