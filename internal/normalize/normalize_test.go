package normalize

import (
	"testing"

	"rentscout/internal/config"
	"rentscout/internal/extractor"
)

func destinProfile() *config.SiteProfile {
	return &config.SiteProfile{
		ManagerDomain: "example.com",
		MarketName:    "Destin, FL",
	}
}

func TestNormalizeFullAddress(t *testing.T) {
	n := NewNormalizer(destinProfile(), nil)

	addr := n.Normalize(extractor.Candidate{
		AddressRaw: "123 Gulf Shore Dr, Destin, FL 32541",
	}, "https://example.com/property/1")

	if addr.Line1 != "123 Gulf Shore Dr" {
		t.Errorf("Line1 = %q", addr.Line1)
	}
	if addr.City != "Destin" {
		t.Errorf("City = %q", addr.City)
	}
	if addr.State != "FL" {
		t.Errorf("State = %q", addr.State)
	}
	if addr.PostalCode != "32541" {
		t.Errorf("PostalCode = %q", addr.PostalCode)
	}
	if addr.Country != "USA" {
		t.Errorf("Country = %q", addr.Country)
	}
	if addr.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", addr.Confidence)
	}
	if addr.InferenceMethod != "parser" {
		t.Errorf("InferenceMethod = %q, want parser", addr.InferenceMethod)
	}
	if addr.AddressRaw != "123 Gulf Shore Dr, Destin, FL 32541" {
		t.Errorf("AddressRaw not retained: %q", addr.AddressRaw)
	}
}

func TestNormalizeStateFromFullName(t *testing.T) {
	n := NewNormalizer(destinProfile(), nil)

	addr := n.Normalize(extractor.Candidate{
		AddressRaw: "456 Harbor Blvd, Destin, Florida",
	}, "")

	if addr.State != "FL" {
		t.Errorf("State = %q, want FL", addr.State)
	}
}

func TestNormalizeMarketEnrichment(t *testing.T) {
	n := NewNormalizer(destinProfile(), nil)

	// Street only; city and state must come from the market label.
	addr := n.Normalize(extractor.Candidate{
		AddressRaw: "456 Harbor Blvd",
	}, "https://example.com/property/1")

	if addr.City != "Destin" {
		t.Errorf("City = %q, want Destin", addr.City)
	}
	if addr.State != "FL" {
		t.Errorf("State = %q, want FL", addr.State)
	}
	if addr.InferredMarket != "Destin, FL" {
		t.Errorf("InferredMarket = %q", addr.InferredMarket)
	}
	if addr.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7", addr.Confidence)
	}
	if addr.InferenceMethod != "context_enrichment" {
		t.Errorf("InferenceMethod = %q, want context_enrichment", addr.InferenceMethod)
	}
}

func TestNormalizeCityFromURL(t *testing.T) {
	profile := &config.SiteProfile{ManagerDomain: "example.com"}
	n := NewNormalizer(profile, nil)

	addr := n.Normalize(extractor.Candidate{
		AddressRaw: "789 Scenic Way, FL",
	}, "https://example.com/destin-rentals/beach-house")

	if addr.City != "Destin Rentals" {
		t.Errorf("City = %q, want Destin Rentals", addr.City)
	}
	if addr.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7", addr.Confidence)
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"destin rentals", "Destin Rentals"},
		{"GULF SHORES", "Gulf Shores"},
		{"émerald coast", "Émerald Coast"}, // first rune may be multi-byte
	}
	for _, tt := range tests {
		if got := titleCase(tt.in); got != tt.want {
			t.Errorf("titleCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type stubEnricher struct {
	city  string
	state string
}

func (s stubEnricher) Enrich(addr *Address, addressRaw, pageURL string) bool {
	if addr.City == "" {
		addr.City = s.city
	}
	if addr.State == "" {
		addr.State = s.state
	}
	return true
}

func TestNormalizeExternalEnricher(t *testing.T) {
	profile := &config.SiteProfile{ManagerDomain: "example.com"}
	n := NewNormalizer(profile, stubEnricher{city: "Destin", state: "FL"})

	addr := n.Normalize(extractor.Candidate{
		AddressRaw: "456 Harbor Blvd",
	}, "")

	if !addr.Complete() {
		t.Fatalf("enricher should have completed the address: %+v", addr)
	}
	if addr.Confidence != 0.6 {
		t.Errorf("Confidence = %v, want 0.6", addr.Confidence)
	}
	if addr.InferenceMethod != "llm_stub" {
		t.Errorf("InferenceMethod = %q, want llm_stub", addr.InferenceMethod)
	}
}

func TestNormalizeIncomplete(t *testing.T) {
	profile := &config.SiteProfile{ManagerDomain: "example.com"}
	n := NewNormalizer(profile, nil)

	addr := n.Normalize(extractor.Candidate{
		AddressRaw: "Beautiful gulf-front home",
	}, "https://example.com/p/1")

	if addr.Complete() {
		t.Fatalf("non-address text should stay incomplete: %+v", addr)
	}
	if addr.Confidence != 0.4 {
		t.Errorf("Confidence = %v, want 0.4", addr.Confidence)
	}
	if addr.InferenceMethod != "incomplete" {
		t.Errorf("InferenceMethod = %q, want incomplete", addr.InferenceMethod)
	}
	if addr.AddressRaw != "Beautiful gulf-front home" {
		t.Errorf("AddressRaw not retained: %q", addr.AddressRaw)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	n := NewNormalizer(destinProfile(), nil)
	candidate := extractor.Candidate{AddressRaw: "123 Gulf Shore Dr, Destin, FL 32541"}

	first := n.Normalize(candidate, "https://example.com/p/1")
	second := n.Normalize(candidate, "https://example.com/p/1")

	if first != second {
		t.Errorf("Normalize is not deterministic:\n%+v\n%+v", first, second)
	}
}
