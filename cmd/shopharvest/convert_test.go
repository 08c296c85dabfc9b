package main

import (
	"testing"

	"github.com/shopharvest/shopharvest/internal/mapper"
)

func TestSplitPrice(t *testing.T) {
	tests := []struct {
		display  string
		current  string
		original string
	}{
		{"79.00", "79.00", ""},
		{"79.00 (was 99.00)", "79.00", "99.00"},
		{"79.00 (was null)", "79.00", "null"},
		{"", "", ""},
	}

	for _, tt := range tests {
		current, original := splitPrice(tt.display)
		if current != tt.current || original != tt.original {
			t.Errorf("splitPrice(%q): expected (%q, %q), got (%q, %q)",
				tt.display, tt.current, tt.original, current, original)
		}
	}
}

// Re-rendering a price through splitPrice + FormatPrice must drop upstream
// null artifacts and leave clean prices untouched.
func TestSplitPriceReformatRoundTrip(t *testing.T) {
	tests := []struct {
		display  string
		expected string
	}{
		{"79.00 (was 99.00)", "79.00 (was 99.00)"},
		{"79.00 (was null)", "79.00"},
		{"79.00 (was 79.00)", "79.00"},
		{"249.00", "249.00"},
	}

	for _, tt := range tests {
		if got := mapper.FormatPrice(splitPrice(tt.display)); got != tt.expected {
			t.Errorf("reformat %q: expected %q, got %q", tt.display, tt.expected, got)
		}
	}
}

func TestStem(t *testing.T) {
	if got := stem("harvest_data/products_20260830_120000.json"); got != "harvest_data/products_20260830_120000" {
		t.Errorf("unexpected stem %q", got)
	}
	if got := stem("plain.csv"); got != "plain.csv" {
		t.Errorf("stem should only strip .json, got %q", got)
	}
}
