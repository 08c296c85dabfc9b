package discover

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/shopharvest/shopharvest/internal/config"
	"github.com/shopharvest/shopharvest/internal/firecrawl"
	"github.com/shopharvest/shopharvest/internal/types"
)

// Discoverer enumerates product URLs for one site. It asks the extraction
// API for product links on each configured collection page, falls back to
// the site root, and finally to the sitemap. The result is deduplicated
// and sorted so repeated runs see the same order.
type Discoverer struct {
	extractor  firecrawl.Extractor
	siteRoot   string
	cfg        *config.DiscoveryConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Discoverer rooted at siteRoot.
func New(extractor firecrawl.Extractor, siteRoot string, cfg *config.DiscoveryConfig, logger *slog.Logger) *Discoverer {
	return &Discoverer{
		extractor:  extractor,
		siteRoot:   strings.TrimRight(siteRoot, "/"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With("component", "discoverer"),
	}
}

// Run produces the deduplicated, order-stable product URL list.
// A run without any discovered URL is fatal.
func (d *Discoverer) Run(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})

	for i, path := range d.cfg.CollectionPaths {
		pageURL := d.siteRoot + path
		d.logger.Info("scraping collection", "url", pageURL)

		raw, err := d.extractor.Discover(ctx, pageURL)
		if err != nil {
			d.logger.Error("collection discovery failed", "url", pageURL, "error", err)
		} else {
			added := d.collect(seen, raw)
			d.logger.Info("collection scraped", "url", pageURL, "found", len(raw), "new", added)
		}

		if i < len(d.cfg.CollectionPaths)-1 && d.cfg.PageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, &types.DiscoveryError{Source: d.siteRoot, Err: ctx.Err()}
			case <-time.After(d.cfg.PageDelay):
			}
		}
	}

	if len(seen) == 0 {
		d.logger.Warn("no products found in collections, trying site root")
		if raw, err := d.extractor.Discover(ctx, d.siteRoot); err != nil {
			d.logger.Error("root discovery failed", "error", err)
		} else {
			d.collect(seen, raw)
		}
	}

	if len(seen) == 0 {
		d.logger.Warn("root discovery empty, trying sitemap")
		locs, err := d.sitemapLocs(ctx)
		if err != nil {
			d.logger.Error("sitemap discovery failed", "error", err)
		} else {
			d.collect(seen, locs)
		}
	}

	if len(seen) == 0 {
		return nil, &types.DiscoveryError{Source: d.siteRoot, Err: types.ErrNoProductURLs}
	}

	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	d.logger.Info("discovery complete", "unique_products", len(urls))
	return urls, nil
}

// collect resolves, filters, and canonicalizes raw link strings into the
// seen set, returning how many were new.
func (d *Discoverer) collect(seen map[string]struct{}, raw []string) int {
	added := 0
	for _, link := range raw {
		resolved := Resolve(d.siteRoot, link)
		if resolved == "" || !strings.Contains(resolved, d.cfg.ProductPattern) {
			continue
		}
		canonical := Canonicalize(resolved)
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		added++
	}
	return added
}

// sitemapLocs fetches the site's sitemap.xml and returns its <loc> entries.
// Nested sitemap indexes are followed one level deep.
func (d *Discoverer) sitemapLocs(ctx context.Context) ([]string, error) {
	entries, err := fetchSitemap(ctx, d.httpClient, d.siteRoot+"/sitemap.xml")
	if err != nil {
		return nil, err
	}

	var locs []string
	for _, e := range entries {
		if strings.Contains(e, d.cfg.ProductPattern) {
			locs = append(locs, e)
			continue
		}
		// Shopify-style index: child sitemaps, typically one per resource
		// type. Only descend into ones that could list products.
		if strings.HasSuffix(e, ".xml") && strings.Contains(e, "product") {
			children, err := fetchSitemap(ctx, d.httpClient, e)
			if err != nil {
				d.logger.Warn("child sitemap fetch failed", "url", e, "error", err)
				continue
			}
			locs = append(locs, children...)
		}
	}
	return locs, nil
}

// Resolve turns a possibly relative or scheme-relative link into an
// absolute URL under root. Returns "" for unusable links.
func Resolve(root, link string) string {
	link = strings.TrimSpace(link)
	switch {
	case link == "":
		return ""
	case strings.HasPrefix(link, "//"):
		return "https:" + link
	case strings.HasPrefix(link, "/"):
		return root + link
	case strings.HasPrefix(link, "http://"), strings.HasPrefix(link, "https://"):
		return link
	default:
		return ""
	}
}

// Canonicalize normalizes a product URL for deduplication:
// lowercases scheme and host, strips the query string and fragment,
// removes default ports, and trims the trailing slash.
func Canonicalize(rawURL string) string {
	// Query strings on product pages are variant/tracking noise.
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		rawURL = rawURL[:i]
	}
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		rawURL = rawURL[:i]
	}

	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return strings.TrimRight(rawURL, "/")
	}
	host, path, _ := strings.Cut(rest, "/")
	host = strings.ToLower(host)
	host = strings.TrimSuffix(host, ":80")
	host = strings.TrimSuffix(host, ":443")

	out := strings.ToLower(scheme) + "://" + host
	if path != "" {
		out += "/" + strings.TrimRight(path, "/")
	}
	return out
}

// fetchSitemap GETs a sitemap URL and extracts every <loc> value.
func fetchSitemap(ctx context.Context, client *http.Client, sitemapURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sitemap fetch %s: status %d", sitemapURL, resp.StatusCode)
	}

	return parseLocs(resp.Body)
}
