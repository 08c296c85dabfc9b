package mapper

import (
	"strings"
	"time"

	"github.com/shopharvest/shopharvest/internal/types"
)

// Mapper converts raw extraction payloads into output records. It is a
// pure transform: missing fields map to empty values and mapping never
// fails.
type Mapper struct {
	vocabulary []string
}

// New creates a Mapper with the given keyword vocabulary. Matches are
// reported in vocabulary order.
func New(vocabulary []string) *Mapper {
	return &Mapper{vocabulary: vocabulary}
}

// Map builds the output record for one product page.
func (m *Mapper) Map(res *types.ExtractionResult, sourceURL string) types.ProductRecord {
	name := res.Name
	if name == "" {
		name = "Unknown Product"
	}

	keywordText := strings.Join([]string{name, res.Description, res.SustainabilityText}, " ")

	return types.ProductRecord{
		Name:         name,
		Price:        FormatPrice(res.CurrentPrice, res.OriginalPrice),
		Description:  CleanDescription(res.Description),
		OriginalURL:  sourceURL,
		Keywords:     strings.Join(m.Keywords(keywordText), ", "),
		StretchGoals: joinList(res.Upsells),
		Alternatives: joinList(res.ColorsSizes),
		ImageURLs:    res.Images,
		ScrapedAt:    time.Now().UTC(),
	}
}

// Keywords returns the vocabulary terms contained in text, case-insensitive,
// deduplicated, in vocabulary order. Matching is substring containment, so
// "Artisan" matches "artisans".
func (m *Mapper) Keywords(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var found []string
	for _, kw := range m.vocabulary {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	return found
}

// FormatPrice renders the display price. A differing original price is
// appended as the pre-discount value; upstream "null" artifacts are
// discarded.
func FormatPrice(current, original string) string {
	current = strings.TrimSpace(current)
	original = strings.TrimSpace(original)

	if original == "" || original == "null" || original == current {
		return current
	}
	if current == "" {
		return original
	}
	return current + " (was " + original + ")"
}

// boilerplateMarkers are description fragments after which product pages
// carry reviews, shipping blurbs, and other storefront chrome rather than
// product copy. The description is cut at the first occurrence of any.
var boilerplateMarkers = []string{
	"### Story",
	"### Product Details",
	"### Care",
	"### Shipping",
	"### Returns",
	"Customer Reviews",
	"Write a Review",
	"Shipping",
	"Returns",
	"Easy 30 Day Returns",
	"In stock. Ready to ship.",
	"Translation missing:",
	"Add To Bag",
	"Your email address",
	"Want early access",
	"Ships ",
	"Most in-stock items",
	"Exchanges and returns",
	"White glove delivery",
	"For more information",
	"Customer Photos",
	"Ask a Question",
	"Based on",
	"Reviews",
	"Was this helpful?",
	"Loading more...",
	"Filter Reviews:",
}

// CleanDescription strips storefront boilerplate from a product
// description and collapses whitespace.
func CleanDescription(description string) string {
	if description == "" {
		return ""
	}
	for _, marker := range boilerplateMarkers {
		if i := strings.Index(description, marker); i >= 0 {
			description = description[:i]
		}
	}
	return strings.Join(strings.Fields(description), " ")
}

func joinList(items []string) string {
	var kept []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			kept = append(kept, it)
		}
	}
	return strings.Join(kept, ", ")
}
