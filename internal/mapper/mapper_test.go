package mapper

import (
	"reflect"
	"strings"
	"testing"

	"github.com/shopharvest/shopharvest/internal/types"
)

var testVocabulary = []string{
	"Fairtrade", "FSC", "Handmade", "Artisan",
	"Sustainable", "Organic", "Eco-friendly", "Recycled",
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		current  string
		original string
		expected string
	}{
		{"79.00", "99.00", "79.00 (was 99.00)"},
		{"79.00", "", "79.00"},
		{"79.00", "null", "79.00"},
		{"79.00", "79.00", "79.00"},
		{"", "99.00", "99.00"},
		{"", "", ""},
		{"$1,240.00", "$1,540.00", "$1,240.00 (was $1,540.00)"},
	}

	for _, tt := range tests {
		got := FormatPrice(tt.current, tt.original)
		if got != tt.expected {
			t.Errorf("FormatPrice(%q, %q): expected %q, got %q", tt.current, tt.original, tt.expected, got)
		}
	}
}

func TestKeywords(t *testing.T) {
	m := New(testVocabulary)

	tests := []struct {
		text     string
		expected []string
	}{
		// Vocabulary order, case-insensitive; "Artisan" matches "artisans"
		{"Handmade by artisans using FSC-certified wood", []string{"FSC", "Handmade", "Artisan"}},
		{"100% ORGANIC cotton, organic dyes", []string{"Organic"}},
		{"fairtrade and eco-friendly", []string{"Fairtrade", "Eco-friendly"}},
		{"plain cotton throw", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got := m.Keywords(tt.text)
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Keywords(%q): expected %v, got %v", tt.text, tt.expected, got)
		}
	}
}

func TestKeywordsRespectsVocabularyOrder(t *testing.T) {
	m := New([]string{"Handmade", "FSC"})
	got := m.Keywords("FSC-certified, fully handmade")
	if !reflect.DeepEqual(got, []string{"Handmade", "FSC"}) {
		t.Errorf("expected [Handmade FSC], got %v", got)
	}
}

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"marker cut",
			"Woven by hand in Oaxaca. Customer Reviews 4.8 stars",
			"Woven by hand in Oaxaca.",
		},
		{
			"heading marker",
			"A sturdy oak frame.\n\n### Shipping\nShips in 2 days",
			"A sturdy oak frame.",
		},
		{
			"whitespace collapse",
			"Line one\n\nLine   two",
			"Line one Line two",
		},
		{"empty", "", ""},
		{"clean text untouched", "Simple linen pillow cover.", "Simple linen pillow cover."},
	}

	for _, tt := range tests {
		if got := CleanDescription(tt.input); got != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, got)
		}
	}
}

func TestMapFullResult(t *testing.T) {
	m := New(testVocabulary)

	res := &types.ExtractionResult{
		Name:               "Mercado Streamer Basket",
		CurrentPrice:       "79.00",
		OriginalPrice:      "99.00",
		Description:        "Handwoven palm leaf basket.",
		Images:             []string{"https://cdn.example.com/basket.jpg"},
		ColorsSizes:        []string{"Small", "Large"},
		Upsells:            []string{"Palm Tray", "Jute Rug"},
		SustainabilityText: "Fairtrade certified, handmade by artisans.",
	}

	rec := m.Map(res, "https://shop.example.com/products/mercado-basket")

	if rec.Name != "Mercado Streamer Basket" {
		t.Errorf("unexpected name %q", rec.Name)
	}
	if rec.Price != "79.00 (was 99.00)" {
		t.Errorf("unexpected price %q", rec.Price)
	}
	if rec.OriginalURL != "https://shop.example.com/products/mercado-basket" {
		t.Errorf("unexpected URL %q", rec.OriginalURL)
	}
	if rec.Keywords != "Fairtrade, Handmade, Artisan" {
		t.Errorf("unexpected keywords %q", rec.Keywords)
	}
	if rec.StretchGoals != "Palm Tray, Jute Rug" {
		t.Errorf("unexpected stretch goals %q", rec.StretchGoals)
	}
	if rec.Alternatives != "Small, Large" {
		t.Errorf("unexpected alternatives %q", rec.Alternatives)
	}
	if rec.ScrapedAt.IsZero() {
		t.Error("expected ScrapedAt to be set")
	}
}

func TestMapMissingFields(t *testing.T) {
	m := New(testVocabulary)

	rec := m.Map(&types.ExtractionResult{}, "https://shop.example.com/products/mystery")

	if rec.Name != "Unknown Product" {
		t.Errorf("expected name fallback, got %q", rec.Name)
	}
	for field, val := range map[string]string{
		"Price":        rec.Price,
		"Description":  rec.Description,
		"Keywords":     rec.Keywords,
		"StretchGoals": rec.StretchGoals,
		"Alternatives": rec.Alternatives,
	} {
		if val != "" {
			t.Errorf("expected empty %s, got %q", field, val)
		}
	}
}

func TestMapCSVRowOrder(t *testing.T) {
	m := New(testVocabulary)
	rec := m.Map(&types.ExtractionResult{
		Name:         "Throw",
		CurrentPrice: "45.00",
		Description:  "Alpaca wool, hand-loomed.",
	}, "https://shop.example.com/products/throw")

	row := rec.CSVRow()
	if len(row) != len(types.CSVHeader) {
		t.Fatalf("row length %d != header length %d", len(row), len(types.CSVHeader))
	}
	if row[0] != "Throw" || row[1] != "45.00" || row[3] != rec.OriginalURL {
		t.Errorf("row values out of order: %v", row)
	}
	if !strings.Contains(row[2], "hand-loomed") {
		t.Errorf("description not preserved: %q", row[2])
	}
}
