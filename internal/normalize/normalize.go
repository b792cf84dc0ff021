// Package normalize parses raw address candidates into structured,
// confidence-scored addresses, filling gaps from site context.
package normalize

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"rentscout/internal/config"
	"rentscout/internal/extractor"
)

// Address is a parsed and normalized address. Complete iff Line1, City and
// State are all non-empty.
type Address struct {
	Line1           string
	Line2           string
	City            string
	State           string
	PostalCode      string
	Country         string
	InferredMarket  string
	InferenceMethod string
	Confidence      float64
	AddressRaw      string
}

func (a *Address) Complete() bool {
	return a.Line1 != "" && a.City != "" && a.State != ""
}

// Enricher is the external completion collaborator consulted when parsing
// and context enrichment both leave an address incomplete. A no-op
// implementation is valid.
type Enricher interface {
	// Enrich may fill missing fields in place and reports whether it did
	// anything with the address.
	Enrich(addr *Address, addressRaw, pageURL string) bool
}

// NoopEnricher leaves the address untouched.
type NoopEnricher struct{}

func (NoopEnricher) Enrich(*Address, string, string) bool { return false }

var (
	zipRe        = regexp.MustCompile(`\b(\d{5}(?:-\d{4})?)\b`)
	stateCodeRe  = regexp.MustCompile(`(?i)\b(AL|AK|AZ|AR|CA|CO|CT|DE|FL|GA|HI|ID|IL|IN|IA|KS|KY|LA|ME|MD|MA|MI|MN|MS|MO|MT|NE|NV|NH|NJ|NM|NY|NC|ND|OH|OK|OR|PA|RI|SC|SD|TN|TX|UT|VT|VA|WA|WV|WI|WY)\b`)
	streetLineRe = regexp.MustCompile(`(?i)^(\d+\s+[A-Za-z0-9\s]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln|Way|Court|Ct|Circle|Cir|Highway|Hwy)\.?)`)
	upperCodeRe  = regexp.MustCompile(`\b[A-Z]{2}\b`)
	zipStripRe   = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	marketSepRe  = regexp.MustCompile(`[/,]`)
)

var urlCityKeywords = []string{"destin", "miami", "orlando", "tampa", "beach", "bay", "island"}

type Normalizer struct {
	profile  *config.SiteProfile
	enricher Enricher
}

func NewNormalizer(profile *config.SiteProfile, enricher Enricher) *Normalizer {
	if enricher == nil {
		enricher = NoopEnricher{}
	}
	return &Normalizer{profile: profile, enricher: enricher}
}

// Normalize parses a candidate into components; if the parse is incomplete it
// enriches from the profile's market label, the page URL path, and finally
// the external enricher. The raw text is always retained.
func (n *Normalizer) Normalize(candidate extractor.Candidate, pageURL string) Address {
	raw := strings.TrimSpace(candidate.AddressRaw)

	addr := parseComponents(raw)

	if addr.Complete() {
		addr.Confidence = 0.9
		addr.InferenceMethod = "parser"
	} else {
		n.enrich(&addr, raw, pageURL)
	}

	addr.AddressRaw = raw
	return addr
}

func parseComponents(raw string) Address {
	addr := Address{
		Country:         "USA",
		Confidence:      0.5,
		InferenceMethod: "parser",
	}

	if match := zipRe.FindStringSubmatch(raw); match != nil {
		addr.PostalCode = match[1]
	}

	if match := stateCodeRe.FindStringSubmatch(raw); match != nil {
		addr.State = strings.ToUpper(match[1])
	} else {
		lower := strings.ToLower(raw)
		for _, entry := range stateTable {
			if strings.Contains(lower, entry.name) {
				addr.State = entry.code
				break
			}
		}
	}

	if match := streetLineRe.FindStringSubmatch(raw); match != nil {
		addr.Line1 = strings.TrimSpace(match[1])
	}

	parts := splitTrimmed(raw, ",")

	if len(parts) >= 2 {
		if addr.Line1 == "" {
			addr.Line1 = parts[0]
		}

		cityCandidate := parts[len(parts)-1]
		if len(parts) > 2 {
			cityCandidate = parts[len(parts)-2]
		}

		cityCandidate = upperCodeRe.ReplaceAllString(cityCandidate, "")
		cityCandidate = zipStripRe.ReplaceAllString(cityCandidate, "")
		cityCandidate = strings.TrimSpace(cityCandidate)

		if len(cityCandidate) > 2 {
			addr.City = cityCandidate
		}
	}

	return addr
}

func (n *Normalizer) enrich(addr *Address, raw, pageURL string) {
	if addr.City == "" || addr.State == "" {
		city, state := n.fromMarketName()

		if addr.City == "" && city != "" {
			addr.City = city
			addr.InferredMarket = n.profile.MarketName
		}
		if addr.State == "" && state != "" {
			addr.State = state
			addr.InferredMarket = n.profile.MarketName
		}
	}

	if pageURL != "" && addr.City == "" {
		if city := cityFromURL(pageURL); city != "" {
			addr.City = city
			addr.InferenceMethod = "url_path"
		}
	}

	if addr.Complete() {
		addr.Confidence = 0.7
		addr.InferenceMethod = "context_enrichment"
		return
	}

	n.enricher.Enrich(addr, raw, pageURL)

	if addr.Complete() {
		addr.Confidence = 0.6
		addr.InferenceMethod = "llm_stub"
	} else {
		addr.Confidence = 0.4
		addr.InferenceMethod = "incomplete"
	}
}

// fromMarketName derives (city, state) from the profile market label by
// locating a known state name or code inside it.
func (n *Normalizer) fromMarketName() (string, string) {
	market := n.profile.MarketName
	if market == "" {
		return "", ""
	}

	for _, entry := range stateTable {
		// The code check is token-bounded: "Destin" must not match DE.
		if strings.Contains(strings.ToLower(market), entry.name) || hasToken(market, entry.code) {
			city := market
			city = removeFold(city, entry.name)
			city = strings.ReplaceAll(city, entry.code, "")
			city = marketSepRe.ReplaceAllString(city, " ")
			city = strings.TrimSpace(city)

			return city, entry.code
		}
	}

	if parts := splitTrimmed(market, "/,"); len(parts) > 0 {
		return parts[0], ""
	}

	return "", ""
}

// cityFromURL title-cases a path segment containing a city-indicating keyword.
func cityFromURL(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	for _, part := range strings.Split(parsed.Path, "/") {
		if part == "" {
			continue
		}
		clean := strings.ReplaceAll(part, "-", " ")
		clean = strings.ReplaceAll(clean, "_", " ")

		lower := strings.ToLower(clean)
		for _, keyword := range urlCityKeywords {
			if strings.Contains(lower, keyword) {
				return titleCase(clean)
			}
		}
	}

	return ""
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// hasToken reports whether s contains token as a standalone alphabetic word,
// compared case-insensitively.
func hasToken(s, token string) bool {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if strings.EqualFold(w, token) {
			return true
		}
	}
	return false
}

// removeFold strips every case-insensitive occurrence of sub from s.
func removeFold(s, sub string) string {
	if sub == "" {
		return s
	}
	var b strings.Builder
	lower := strings.ToLower(s)
	subLower := strings.ToLower(sub)
	for {
		idx := strings.Index(lower, subLower)
		if idx < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:idx])
		s = s[idx+len(sub):]
		lower = lower[idx+len(sub):]
	}
}

func splitTrimmed(s, seps string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
