package media

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/andybalholm/brotli"

	"github.com/shopharvest/shopharvest/internal/config"
)

// Downloader fetches product images into the run's images directory under
// deterministic filenames derived from the product name. A failed download
// never fails the owning record.
type Downloader struct {
	imagesDir string
	siteRoot  string
	client    *http.Client
	maxSize   int64
	logger    *slog.Logger
	used      map[string]int
}

// NewDownloader creates a Downloader writing into imagesDir.
func NewDownloader(imagesDir, siteRoot string, cfg *config.ImagesConfig, logger *slog.Logger) (*Downloader, error) {
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}
	return &Downloader{
		imagesDir: imagesDir,
		siteRoot:  strings.TrimRight(siteRoot, "/"),
		client: &http.Client{
			Timeout: cfg.FetchTimeout,
			Transport: &http.Transport{
				// Decompression handled below, including brotli.
				DisableCompression: true,
			},
		},
		maxSize: cfg.MaxSizeBytes,
		logger:  logger.With("component", "image_downloader"),
		used:    make(map[string]int),
	}, nil
}

// Download fetches one image and writes it under a filename derived from
// productName. Returns the local path of the written file.
func (d *Downloader) Download(ctx context.Context, imageURL, productName string) (string, error) {
	resolved := d.resolve(imageURL)
	if resolved == "" {
		return "", fmt.Errorf("unusable image URL %q", imageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", resolved, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: status %d", resolved, resp.StatusCode)
	}
	if d.maxSize > 0 && resp.ContentLength > d.maxSize {
		return "", fmt.Errorf("image too large: %d bytes (max %d)", resp.ContentLength, d.maxSize)
	}

	var reader io.Reader = resp.Body
	if d.maxSize > 0 {
		reader = io.LimitReader(reader, d.maxSize)
	}
	reader, err = decompressReader(resp, reader)
	if err != nil {
		return "", err
	}

	localPath := filepath.Join(d.imagesDir, d.filename(productName, resolved))
	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, reader)
	if err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("write image file: %w", err)
	}

	d.logger.Info("image downloaded", "url", resolved, "path", localPath, "size", size)
	return localPath, nil
}

// resolve makes scheme-relative and site-relative image URLs absolute.
func (d *Downloader) resolve(imageURL string) string {
	imageURL = strings.TrimSpace(imageURL)
	switch {
	case imageURL == "":
		return ""
	case strings.HasPrefix(imageURL, "//"):
		return "https:" + imageURL
	case strings.HasPrefix(imageURL, "/"):
		return d.siteRoot + imageURL
	default:
		return imageURL
	}
}

// filename builds the deterministic local filename: cleaned product name,
// an index suffix when another product already claimed that name, and the
// extension taken from the image URL path.
func (d *Downloader) filename(productName, imageURL string) string {
	key := CleanName(productName)

	n := d.used[key]
	d.used[key]++
	if n > 0 {
		key = fmt.Sprintf("%s_%d", key, n)
	}

	ext := ".jpg"
	if u, err := url.Parse(imageURL); err == nil {
		if e := path.Ext(u.Path); e != "" {
			ext = e
		}
	}
	return key + ext
}

var (
	nonWordChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	separators   = regexp.MustCompile(`[-\s]+`)
)

// CleanName reduces a product name to a filesystem-safe naming key:
// punctuation stripped, space/hyphen runs collapsed to underscores,
// capped at 50 characters.
func CleanName(name string) string {
	cleaned := nonWordChars.ReplaceAllString(name, "")
	cleaned = separators.ReplaceAllString(cleaned, "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		return "unknown_product"
	}
	// Cap is in runes so multi-byte names are never cut mid-character.
	if runes := []rune(cleaned); len(runes) > 50 {
		cleaned = string(runes[:50])
	}
	return cleaned
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
