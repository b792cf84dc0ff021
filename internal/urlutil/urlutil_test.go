package urlutil

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		rawURL string
		base   string
		want   string
	}{
		{"trailing slash stripped", "https://example.com/rentals/", "", "https://example.com/rentals"},
		{"fragment stripped", "https://example.com/rentals#photos", "", "https://example.com/rentals"},
		{"relative resolved against base", "/vacation-rental/beach-house", "https://example.com/rentals", "https://example.com/vacation-rental/beach-house"},
		{"absolute unchanged by base", "https://other.com/x", "https://example.com", "https://other.com/x"},
		{"whitespace trimmed", "  https://example.com/a  ", "", "https://example.com/a"},
		{"query preserved", "https://example.com/rentals?page=2", "", "https://example.com/rentals?page=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.rawURL, tt.base)
			if got != tt.want {
				t.Errorf("Normalize(%q, %q) = %q, want %q", tt.rawURL, tt.base, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	url := "https://example.com/rentals/#section"
	once := Normalize(url, "")
	twice := Normalize(once, "")
	if once != twice {
		t.Errorf("Normalize not idempotent: %q != %q", once, twice)
	}
}

func TestIsSameDomain(t *testing.T) {
	tests := []struct {
		rawURL string
		domain string
		want   bool
	}{
		{"https://example.com/rentals", "example.com", true},
		{"https://www.example.com/rentals", "example.com", true},
		{"https://booking.example.com/x", "example.com", true},
		{"https://other.com/rentals", "example.com", false},
		{"https://notexample.com/x", "example.com", false},
		{"https://EXAMPLE.COM/x", "example.com", true},
	}

	for _, tt := range tests {
		got := IsSameDomain(tt.rawURL, tt.domain)
		if got != tt.want {
			t.Errorf("IsSameDomain(%q, %q) = %v, want %v", tt.rawURL, tt.domain, got, tt.want)
		}
	}
}

func TestMatchesPattern(t *testing.T) {
	patterns := []string{"/vacation-rental/", `property-\d+`}

	if !MatchesPattern("https://example.com/vacation-rental/beach-house", patterns) {
		t.Errorf("substring pattern should match")
	}
	if !MatchesPattern("https://example.com/listings/property-42", patterns) {
		t.Errorf("regex pattern should match")
	}
	if MatchesPattern("https://example.com/about", patterns) {
		t.Errorf("unrelated URL should not match")
	}
	if MatchesPattern("https://example.com/about", nil) {
		t.Errorf("empty pattern list should never match")
	}

	// An invalid regex must be skipped, not break matching.
	broken := []string{"[unclosed", "/rental/"}
	if !MatchesPattern("https://example.com/rental/1", broken) {
		t.Errorf("valid pattern after invalid regex should still match")
	}
}

func TestIsLikelyListingURL(t *testing.T) {
	tests := []struct {
		name     string
		rawURL   string
		patterns []string
		excluded []string
		want     bool
	}{
		{"built-in indicator", "https://example.com/vacation-rental/beach-house", nil, nil, true},
		{"profile pattern", "https://example.com/stays/beach-house", []string{"/stays/"}, nil, true},
		{"built-in exclusion wins", "https://example.com/blog/property/cool-houses", nil, nil, false},
		{"profile exclusion wins", "https://example.com/property/specials", nil, []string{"/specials"}, false},
		{"slug last segment", "https://example.com/homes/gulf-breeze-cottage", nil, nil, true},
		{"numeric last segment", "https://example.com/p/12345", nil, nil, true},
		{"single short segment", "https://example.com/team", nil, nil, false},
		{"asset excluded", "https://example.com/property/photo.jpg", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsLikelyListingURL(tt.rawURL, tt.patterns, tt.excluded)
			if got != tt.want {
				t.Errorf("IsLikelyListingURL(%q) = %v, want %v", tt.rawURL, got, tt.want)
			}
		})
	}
}

func TestDeduplicate(t *testing.T) {
	input := []string{
		"https://example.com/a",
		"https://example.com/a/",
		"https://example.com/a#photos",
		"https://example.com/b",
	}

	got := Deduplicate(input)
	want := []string{"https://example.com/a", "https://example.com/b"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Deduplicate = %v, want %v", got, want)
	}
}

func TestDeduplicatePreservesOrder(t *testing.T) {
	input := []string{"https://example.com/c", "https://example.com/a", "https://example.com/c"}
	got := Deduplicate(input)

	if len(got) != 2 || got[0] != "https://example.com/c" || got[1] != "https://example.com/a" {
		t.Errorf("first-seen order not preserved: %v", got)
	}
}
