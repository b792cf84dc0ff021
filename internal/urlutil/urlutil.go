// Package urlutil provides URL normalization, domain matching, and
// listing-URL heuristics shared by discovery and the processing loop.
package urlutil

import (
	"net/url"
	"regexp"
	"strings"
)

var slugRe = regexp.MustCompile(`^[a-z0-9-]{10,}$`)
var digitsRe = regexp.MustCompile(`^[0-9]+$`)

// Normalize resolves rawURL against base (if non-empty), strips the fragment
// and the trailing slash. Two URLs that normalize identically are treated as
// the same resource.
func Normalize(rawURL, base string) string {
	rawURL = strings.TrimSpace(rawURL)

	if base != "" {
		baseURL, err := url.Parse(base)
		if err == nil {
			ref, err := url.Parse(rawURL)
			if err == nil {
				rawURL = baseURL.ResolveReference(ref).String()
			}
		}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		if idx := strings.Index(rawURL, "#"); idx > -1 {
			rawURL = rawURL[:idx]
		}
		return strings.TrimRight(rawURL, "/")
	}

	parsed.Fragment = ""
	return strings.TrimRight(parsed.String(), "/")
}

// IsSameDomain reports whether the URL host equals domain or is one of its
// subdomains. Case-insensitive.
func IsSameDomain(rawURL, domain string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	target := strings.ToLower(domain)

	return host == target || strings.HasSuffix(host, "."+target)
}

// Built-in URL segments that never lead to listings.
var excludedKeywords = []string{
	"/blog", "/about", "/contact", "/faq", "/careers", "/news",
	"/search", "/filter", "/category", "/tag", "/author",
	".pdf", ".jpg", ".png", ".gif", ".css", ".js",
	"/login", "/signup", "/register", "/cart", "/checkout",
}

// Built-in path segments that indicate a listing page.
var listingIndicators = []string{
	"/property/", "/rental/", "/listing/", "/vacation-rental/",
	"/home/", "/unit/", "/condo/", "/house/", "/villa/",
}

// MatchesPattern reports whether the URL matches any pattern, first as a
// case-insensitive substring, then as a regex. Invalid regexes are ignored.
func MatchesPattern(rawURL string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	urlLower := strings.ToLower(rawURL)

	for _, pattern := range patterns {
		if strings.Contains(urlLower, pattern) {
			return true
		}
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			continue
		}
		if re.MatchString(rawURL) {
			return true
		}
	}

	return false
}

// IsLikelyListingURL heuristically decides whether a URL points at a property
// listing page. Exclusions win over everything; then profile patterns, then
// built-in indicators, then a slug-shaped or numeric last path segment.
func IsLikelyListingURL(rawURL string, listingPatterns, excludedPatterns []string) bool {
	urlLower := strings.ToLower(rawURL)

	excluded := make([]string, 0, len(excludedKeywords)+len(excludedPatterns))
	excluded = append(excluded, excludedKeywords...)
	excluded = append(excluded, excludedPatterns...)

	for _, keyword := range excluded {
		if strings.Contains(urlLower, keyword) {
			return false
		}
	}

	if MatchesPattern(rawURL, listingPatterns) {
		return true
	}

	for _, indicator := range listingIndicators {
		if strings.Contains(urlLower, indicator) {
			return true
		}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	var parts []string
	for _, p := range strings.Split(parsed.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if slugRe.MatchString(last) || digitsRe.MatchString(last) {
			return true
		}
	}

	return false
}

// Deduplicate removes duplicate URLs by normalized form, preserving
// first-seen order. Returned entries keep their original text.
func Deduplicate(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	result := make([]string, 0, len(urls))

	for _, u := range urls {
		normalized := Normalize(u, "")
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, u)
	}

	return result
}
