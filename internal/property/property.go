package property

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Data is the structured description of a rental property pulled from a
// listing page. Any field may be empty when the page does not expose it.
type Data struct {
	Company          string  `json:"company"`
	PropertyName     string  `json:"property_name"`
	AddressLine1     string  `json:"address_line1"`
	AddressLine2     string  `json:"address_line2"`
	City             string  `json:"city"`
	State            string  `json:"state"`
	PostalCode       string  `json:"postal_code"`
	Country          string  `json:"country"`
	Bedrooms         float64 `json:"bedrooms"`
	Bathrooms        float64 `json:"bathrooms"`
	Sleeps           int     `json:"sleeps"`
	RateMin          float64 `json:"rate_min"`
	RateMax          float64 `json:"rate_max"`
	Amenities        string  `json:"amenities"`
	Description      string  `json:"description"`
	PropertyID       string  `json:"property_id"`
	ExtractionMethod string  `json:"extraction_method"`
	Confidence       float64 `json:"confidence"`
}

// Extractor turns a listing page into structured property data.
// Implementations may call external models; they must be safe to skip
// when they return false.
type Extractor interface {
	Extract(html, pageURL string) (Data, bool)
}

var (
	bedroomsRe  = regexp.MustCompile(`(?i)(\d+)\s*(?:bed(?:room)?s?|BR)`)
	bathroomsRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:bath(?:room)?s?|BA)`)
	sleepsRe    = regexp.MustCompile(`(?i)(?:sleeps?|accommodates?)\s*(\d+)`)
)

// RegexExtractor is the no-model fallback. It scrapes the obvious bits
// (title, bed/bath/sleeps counts) with low confidence.
type RegexExtractor struct{}

func (RegexExtractor) Extract(html, pageURL string) (Data, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Data{}, false
	}

	data := Data{
		ExtractionMethod: "fallback_regex",
		Confidence:       0.3,
	}

	data.PropertyName = pageTitle(doc)

	text := doc.Text()
	if m := bedroomsRe.FindStringSubmatch(text); m != nil {
		data.Bedrooms, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := bathroomsRe.FindStringSubmatch(text); m != nil {
		data.Bathrooms, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := sleepsRe.FindStringSubmatch(text); m != nil {
		data.Sleeps, _ = strconv.Atoi(m[1])
	}

	if data.PropertyName == "" && data.Bedrooms == 0 && data.Bathrooms == 0 && data.Sleeps == 0 {
		return Data{}, false
	}
	return data, true
}

func pageTitle(doc *goquery.Document) string {
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	// Strip the site name suffix commonly appended after a separator.
	for _, sep := range []string{" | ", " - ", " – "} {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
			break
		}
	}
	return strings.TrimSpace(title)
}
