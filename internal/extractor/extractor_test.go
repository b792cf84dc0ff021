package extractor

import (
	"reflect"
	"testing"

	"rentscout/internal/config"
)

func newTestExtractor(containers ...string) *Extractor {
	return NewExtractor(&config.SiteProfile{
		ListingPageSelectors: config.ListingPageSelectors{
			AddressContainers: containers,
		},
	})
}

func findMethod(candidates []Candidate, method string) *Candidate {
	for i := range candidates {
		if candidates[i].ExtractionMethod == method {
			return &candidates[i]
		}
	}
	return nil
}

func TestExtractEmptyHTML(t *testing.T) {
	e := newTestExtractor()
	if got := e.Extract("", "https://example.com/property/1"); got != nil {
		t.Errorf("empty HTML should yield no candidates, got %v", got)
	}
}

func TestExtractSchemaAddress(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@type": "VacationRental", "address": {"@type": "PostalAddress",
		 "streetAddress": "123 Gulf Shore Dr", "addressLocality": "Destin",
		 "addressRegion": "FL", "postalCode": "32541"}}
		</script>
	</head><body></body></html>`

	e := newTestExtractor()
	candidates := e.Extract(html, "https://example.com/property/1")

	c := findMethod(candidates, "schema_ld")
	if c == nil {
		t.Fatalf("expected a schema_ld candidate, got %v", candidates)
	}
	if c.AddressRaw != "123 Gulf Shore Dr, Destin, FL, 32541" {
		t.Errorf("AddressRaw = %q", c.AddressRaw)
	}
	if c.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", c.Confidence)
	}
}

func TestExtractSchemaNestedInGraph(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@graph": [{"@type": "WebPage"}, {"@type": "House",
		 "address": {"@type": "PostalAddress", "streetAddress": "9 Bay Cir",
		 "addressLocality": "Tampa"}}]}
		</script>
	</head><body></body></html>`

	e := newTestExtractor()
	c := findMethod(e.Extract(html, ""), "schema_ld")
	if c == nil {
		t.Fatalf("expected PostalAddress found inside @graph")
	}
	if c.AddressRaw != "9 Bay Cir, Tampa" {
		t.Errorf("AddressRaw = %q", c.AddressRaw)
	}
}

func TestExtractSchemaMultipleAddressesDeterministic(t *testing.T) {
	// Two PostalAddress objects under sibling keys in one block. The walk
	// must pick the same one every run.
	html := `<html><head>
		<script type="application/ld+json">
		{"first": {"@type": "PostalAddress", "streetAddress": "1 Alpha St",
		 "addressLocality": "Destin"},
		 "second": {"@type": "PostalAddress", "streetAddress": "2 Beta Ave",
		 "addressLocality": "Tampa"}}
		</script>
	</head><body></body></html>`

	e := newTestExtractor()
	for i := 0; i < 50; i++ {
		c := findMethod(e.Extract(html, ""), "schema_ld")
		if c == nil {
			t.Fatal("expected a schema_ld candidate")
		}
		if c.AddressRaw != "1 Alpha St, Destin" {
			t.Fatalf("run %d: AddressRaw = %q, want %q", i, c.AddressRaw, "1 Alpha St, Destin")
		}
	}
}

func TestExtractSchemaGraphFirstAddressWins(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@graph": [
		 {"@type": "House", "address": {"@type": "PostalAddress",
		  "streetAddress": "10 First St", "addressLocality": "Destin"}},
		 {"@type": "House", "address": {"@type": "PostalAddress",
		  "streetAddress": "99 Last Rd", "addressLocality": "Tampa"}}]}
		</script>
	</head><body></body></html>`

	e := newTestExtractor()
	c := findMethod(e.Extract(html, ""), "schema_ld")
	if c == nil {
		t.Fatal("expected a schema_ld candidate")
	}
	if c.AddressRaw != "10 First St, Destin" {
		t.Errorf("AddressRaw = %q, want the first @graph entry", c.AddressRaw)
	}
}

func TestExtractLabeledPair(t *testing.T) {
	html := `<html><body>
		<div>Address: 456 Harbor Blvd
Location: Destin Harbor
Type: Condo</div>
	</body></html>`

	e := newTestExtractor(".property-address")
	candidates := e.Extract(html, "https://example.com/property/1")

	c := findMethod(candidates, "address_location_pattern")
	if c == nil {
		t.Fatalf("expected address_location_pattern candidate, got %v", candidates)
	}
	if c.AddressRaw != "456 Harbor Blvd, Destin Harbor" {
		t.Errorf("AddressRaw = %q", c.AddressRaw)
	}
	if c.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", c.Confidence)
	}

	// A labeled pair suppresses the configured-selector strategy.
	for _, cand := range candidates {
		if cand.ExtractionMethod == "selector:.property-address" {
			t.Errorf("selector strategy must not run after a labeled-pair hit")
		}
	}
}

func TestExtractLabeledPairSingleLine(t *testing.T) {
	html := `<html><body><p>Address: 456 Beach Ave Location: Destin Area Type: Condo</p></body></html>`

	e := newTestExtractor()
	c := findMethod(e.Extract(html, ""), "address_location_pattern")
	if c == nil {
		t.Fatalf("expected address_location_pattern candidate")
	}
	if c.AddressRaw != "456 Beach Ave, Destin Area" {
		t.Errorf("AddressRaw = %q", c.AddressRaw)
	}
}

func TestExtractConfiguredSelectors(t *testing.T) {
	html := `<html><body>
		<div class="property-address">789 Scenic Gulf Drive, Miramar Beach, FL</div>
	</body></html>`

	e := newTestExtractor(".property-address")
	candidates := e.Extract(html, "https://example.com/property/1")

	c := findMethod(candidates, "selector:.property-address")
	if c == nil {
		t.Fatalf("expected selector candidate, got %v", candidates)
	}
	if c.AddressRaw != "789 Scenic Gulf Drive, Miramar Beach, FL" {
		t.Errorf("AddressRaw = %q", c.AddressRaw)
	}
	if c.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", c.Confidence)
	}
}

func TestExtractGoogleMapsIframe(t *testing.T) {
	html := `<html><body>
		<iframe src="https://www.google.com/maps?q=100+Main+St+Destin+FL"></iframe>
	</body></html>`

	e := newTestExtractor()
	candidates := e.Extract(html, "https://example.com/property/1")

	c := findMethod(candidates, "google_maps_iframe")
	if c == nil {
		t.Fatalf("expected google_maps_iframe candidate, got %v", candidates)
	}
	if c.AddressRaw != "100 Main St Destin FL" {
		t.Errorf("AddressRaw = %q", c.AddressRaw)
	}
	if c.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7", c.Confidence)
	}
}

func TestExtractMapsSkippedWhenCandidatesExist(t *testing.T) {
	html := `<html><body>
		<div class="property-address">789 Scenic Gulf Drive, Miramar Beach, FL</div>
		<iframe src="https://www.google.com/maps?q=100+Main+St"></iframe>
	</body></html>`

	e := newTestExtractor(".property-address")
	candidates := e.Extract(html, "https://example.com/property/1")

	if findMethod(candidates, "google_maps_iframe") != nil {
		t.Errorf("maps strategy must not run when earlier strategies produced candidates")
	}
}

func TestExtractRegexHeuristic(t *testing.T) {
	html := `<html><body>
		<p>Our office sits at 42 Emerald Coast Parkway while the rental is at 550 Seaside Avenue near the beach.</p>
	</body></html>`

	e := newTestExtractor()
	candidates := e.Extract(html, "https://example.com/property/1")

	c := findMethod(candidates, "regex_heuristic")
	if c == nil {
		t.Fatalf("expected regex_heuristic candidate, got %v", candidates)
	}
	if c.Confidence != 0.6 {
		t.Errorf("Confidence = %v, want 0.6", c.Confidence)
	}
}

func TestExtractMetaTags(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="Beachfront Paradise in Destin">
		<meta property="og:description" content="Stunning home at 123 Ocean Blvd with gulf views.">
	</head><body></body></html>`

	e := newTestExtractor()
	candidates := e.Extract(html, "https://example.com/property/1")

	title := findMethod(candidates, "og:title")
	if title == nil {
		t.Fatalf("expected og:title candidate, got %v", candidates)
	}
	if title.Confidence != 0.3 {
		t.Errorf("og:title Confidence = %v, want 0.3", title.Confidence)
	}

	desc := findMethod(candidates, "og:description")
	if desc == nil {
		t.Fatalf("expected og:description candidate")
	}
	if desc.AddressRaw != "123 Ocean Blvd" {
		t.Errorf("og:description AddressRaw = %q", desc.AddressRaw)
	}
	if desc.Confidence != 0.4 {
		t.Errorf("og:description Confidence = %v, want 0.4", desc.Confidence)
	}
}

func TestExtractDeterministic(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@type": "PostalAddress", "streetAddress": "123 Gulf Shore Dr", "addressLocality": "Destin"}
		</script>
	</head><body>
		<div class="property-address">789 Scenic Gulf Drive, Miramar Beach, FL</div>
	</body></html>`

	e := newTestExtractor(".property-address")
	first := e.Extract(html, "https://example.com/property/1")
	second := e.Extract(html, "https://example.com/property/1")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Extract is not deterministic:\n%v\n%v", first, second)
	}
}
