package discover

import (
	"encoding/xml"
	"io"
	"strings"
)

// parseLocs pulls every <loc> text value out of a sitemap document.
// Works for both <urlset> and <sitemapindex> roots, so callers can treat
// plain sitemaps and sitemap indexes uniformly.
func parseLocs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var locs []string
	inLoc := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			inLoc = t.Name.Local == "loc"
		case xml.CharData:
			if inLoc {
				if loc := strings.TrimSpace(string(t)); loc != "" {
					locs = append(locs, loc)
				}
			}
		case xml.EndElement:
			inLoc = false
		}
	}
	return locs, nil
}
