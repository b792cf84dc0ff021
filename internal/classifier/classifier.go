// Package classifier decides whether a fetched page is a property listing.
package classifier

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Classification methods. Exactly one is attached to every result.
const (
	MethodEmptyContent  = "empty_content"
	MethodURLPattern    = "url_pattern"
	MethodKeyword       = "keyword_heuristic"
	MethodBookingWidget = "booking_widget"
	MethodSchemaOrg     = "schema_org"
	MethodKeywordLow    = "keyword_heuristic_low_confidence"
	MethodNoIndicators  = "no_listing_indicators"
)

var listingKeywords = []string{
	"bedroom", "bathroom", "sleeps", "guests", "nightly", "rate",
	"book now", "check availability", "calendar", "reserve",
	"sq ft", "square feet", "amenities",
}

var nonListingKeywords = []string{
	"blog", "article", "about-us", "contact-us", "careers",
	"privacy-policy", "terms-of-service", "faq",
}

var bookingSelectors = []string{
	`[class*="booking"]`, `[id*="booking"]`,
	`[class*="calendar"]`, `[id*="calendar"]`,
	`[class*="reserve"]`, `[class*="availability"]`,
}

var schemaLodgingTypes = []string{"lodging", "accommodation", "house", "apartment"}

// Result is a classification outcome attached to a fetched page.
type Result struct {
	IsListing bool
	Method    string
}

// Classify is a pure function of (html, url). The decision order is fixed;
// the first matching rule wins.
func Classify(html, pageURL string) Result {
	if html == "" {
		return Result{false, MethodEmptyContent}
	}

	urlLower := strings.ToLower(pageURL)
	for _, keyword := range nonListingKeywords {
		if strings.Contains(urlLower, keyword) {
			return Result{false, MethodURLPattern}
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Result{false, MethodEmptyContent}
	}

	text := strings.ToLower(doc.Text())

	score := 0
	for _, keyword := range listingKeywords {
		if strings.Contains(text, keyword) {
			score++
		}
	}

	if score >= 3 {
		return Result{true, MethodKeyword}
	}

	if hasBookingWidget(doc) {
		return Result{true, MethodBookingWidget}
	}

	if hasSchemaLodging(doc) {
		return Result{true, MethodSchemaOrg}
	}

	if score >= 2 {
		return Result{true, MethodKeywordLow}
	}

	return Result{false, MethodNoIndicators}
}

func hasBookingWidget(doc *goquery.Document) bool {
	for _, selector := range bookingSelectors {
		if doc.Find(selector).Length() > 0 {
			return true
		}
	}
	return false
}

func hasSchemaLodging(doc *goquery.Document) bool {
	found := false

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return true // malformed block, try the next one
		}

		schemaType, _ := data["@type"].(string)
		schemaType = strings.ToLower(schemaType)

		for _, t := range schemaLodgingTypes {
			if strings.Contains(schemaType, t) {
				found = true
				return false
			}
		}
		return true
	})

	return found
}
