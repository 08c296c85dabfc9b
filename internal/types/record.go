package types

import "time"

// CSVHeader is the fixed column order for CSV export. Storage backends
// must never reorder or rename these.
var CSVHeader = []string{
	"Name",
	"Price",
	"Description",
	"Original URL",
	"Keywords",
	"Stretch goals",
	"Alternative sizes or colors",
}

// ProductRecord is one normalized output row. Records are immutable after
// the mapper creates them; every OriginalURL is unique within a run.
type ProductRecord struct {
	Name         string    `json:"name"`
	Price        string    `json:"price"`
	Description  string    `json:"description"`
	OriginalURL  string    `json:"original_url"`
	Keywords     string    `json:"keywords"`
	StretchGoals string    `json:"stretch_goals"`
	Alternatives string    `json:"alternative_sizes_colors"`
	ImagePath    string    `json:"image_path,omitempty"`
	ImageURLs    []string  `json:"image_urls,omitempty"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

// CSVRow returns the record's values in CSVHeader order.
func (r *ProductRecord) CSVRow() []string {
	return []string{
		r.Name,
		r.Price,
		r.Description,
		r.OriginalURL,
		r.Keywords,
		r.StretchGoals,
		r.Alternatives,
	}
}
