package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/shopharvest/shopharvest/internal/types"
)

// Generate reads a run's JSON output and renders a static HTML report:
// keyword frequency and price distribution. The report is a flat file, not
// a server.
func Generate(jsonPath, outPath string, logger *slog.Logger) error {
	records, err := loadRecords(jsonPath)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no records in %s", jsonPath)
	}

	page := components.NewPage()
	page.SetPageTitle("shopharvest report")
	page.AddCharts(keywordChart(records), priceChart(records))

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	logger.Info("report written", "path", outPath, "records", len(records))
	return nil
}

func loadRecords(path string) ([]types.ProductRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run output: %w", err)
	}
	var records []types.ProductRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode run output: %w", err)
	}
	return records, nil
}

func keywordChart(records []types.ProductRecord) *charts.Bar {
	counts := make(map[string]int)
	for _, r := range records {
		for _, kw := range strings.Split(r.Keywords, ", ") {
			if kw != "" {
				counts[kw]++
			}
		}
	}

	keywords := make([]string, 0, len(counts))
	for k := range counts {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)

	var values []opts.BarData
	for _, k := range keywords {
		values = append(values, opts.BarData{Value: counts[k]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Sustainability Keywords"}))
	bar.SetXAxis(keywords).AddSeries("Products", values)
	return bar
}

var priceBuckets = []struct {
	label string
	upper float64
}{
	{"< $50", 50},
	{"$50-100", 100},
	{"$100-250", 250},
	{"$250-500", 500},
	{"$500+", 0},
}

func priceChart(records []types.ProductRecord) *charts.Bar {
	counts := make([]int, len(priceBuckets))
	for _, r := range records {
		price, ok := parsePrice(r.Price)
		if !ok {
			continue
		}
		placed := false
		for i, b := range priceBuckets {
			if b.upper > 0 && price < b.upper {
				counts[i]++
				placed = true
				break
			}
		}
		if !placed {
			counts[len(counts)-1]++
		}
	}

	var labels []string
	var values []opts.BarData
	for i, b := range priceBuckets {
		labels = append(labels, b.label)
		values = append(values, opts.BarData{Value: counts[i]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Price Distribution"}))
	bar.SetXAxis(labels).AddSeries("Products", values)
	return bar
}

var priceNumber = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// parsePrice extracts the current numeric price from a display string like
// "$79.00 (was $99.00)".
func parsePrice(display string) (float64, bool) {
	m := priceNumber.FindString(display)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
