package types

// ExtractionResult is the structured payload the extraction API returns
// for a single product page. Field names follow the JSON schema requested
// in the extraction prompt. Missing fields decode to zero values.
type ExtractionResult struct {
	Name               string   `json:"name"`
	CurrentPrice       string   `json:"current_price"`
	OriginalPrice      string   `json:"original_price"`
	Description        string   `json:"description"`
	Images             []string `json:"images"`
	ColorsSizes        []string `json:"colors_sizes"`
	Upsells            []string `json:"upsells"`
	SustainabilityText string   `json:"sustainability_text"`
}

// IsEmpty reports whether the extraction yielded nothing usable.
func (e *ExtractionResult) IsEmpty() bool {
	return e.Name == "" && e.CurrentPrice == "" && e.Description == "" &&
		len(e.Images) == 0 && len(e.ColorsSizes) == 0 && len(e.Upsells) == 0
}
