// Package extractor harvests raw address candidates from a listing page
// using an ordered chain of strategies with fixed precedence.
package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"rentscout/internal/config"
)

// Candidate is an unverified address string tagged with the strategy that
// produced it. Candidates are never mutated after creation.
type Candidate struct {
	AddressRaw       string
	ExtractionMethod string
	Confidence       float64
	HTMLSnippet      string
}

const snippetLimit = 500

var (
	streetSuffixRe  = regexp.MustCompile(`(?i)\d+\s+[A-Za-z\s]+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Drive|Dr|Lane|Ln|Way|Court|Ct|Circle|Cir)`)
	addressLabelRe  = regexp.MustCompile(`(?im)Address:\s*([^\n]+?)(?:Location:|Type:|$)`)
	locationLabelRe = regexp.MustCompile(`(?im)Location:\s*([^\n]+?)(?:Type:|$)`)
	mapsQueryRe     = regexp.MustCompile(`[?&]q=([^&]+)`)
	descSuffixRe    = regexp.MustCompile(`\d+\s+[A-Za-z\s]+(?:St|Ave|Rd|Blvd|Dr|Ln|Way)`)
)

var addressKeywords = []string{"address", "location", "where you'll be", "property location"}

var titleKeywords = []string{"beach", "avenue", "street", "road", "drive"}

// strategy appends zero or more candidates. guard decides whether the
// strategy runs at all given what earlier strategies produced.
type strategy struct {
	name  string
	guard func(existing []Candidate) bool
	run   func(e *Extractor, doc *goquery.Document, existing []Candidate) []Candidate
}

func always([]Candidate) bool { return true }

var strategies = []strategy{
	{
		name:  "schema_ld",
		guard: always,
		run:   (*Extractor).fromSchema,
	},
	{
		name:  "labeled_pair",
		guard: always,
		run:   (*Extractor).fromLabeledPairs,
	},
	{
		name: "selectors",
		guard: func(existing []Candidate) bool {
			for _, c := range existing {
				if c.ExtractionMethod == "address_location_pattern" {
					return false
				}
			}
			return true
		},
		run: (*Extractor).fromSelectors,
	},
	{
		name: "maps",
		guard: func(existing []Candidate) bool {
			return len(existing) == 0
		},
		run: (*Extractor).fromMaps,
	},
	{
		name:  "heuristics",
		guard: always,
		run:   (*Extractor).fromHeuristics,
	},
	{
		name:  "meta_tags",
		guard: always,
		run:   (*Extractor).fromMetaTags,
	},
}

type Extractor struct {
	profile *config.SiteProfile
}

func NewExtractor(profile *config.SiteProfile) *Extractor {
	return &Extractor{profile: profile}
}

// Extract runs every applicable strategy in precedence order and returns the
// concatenated candidate list. Never fails: unusable input yields an empty
// list. Cross-strategy deduplication is the normalizer's job.
func (e *Extractor) Extract(html, pageURL string) []Candidate {
	if html == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var candidates []Candidate
	for _, s := range strategies {
		if !s.guard(candidates) {
			continue
		}
		candidates = append(candidates, s.run(e, doc, candidates)...)
	}

	return candidates
}

// fromLabeledPairs matches the "Address: ... Location: ... Type: ..." text
// layout some sites render, emitting street plus area as one candidate.
func (e *Extractor) fromLabeledPairs(doc *goquery.Document, _ []Candidate) []Candidate {
	text := doc.Text()

	addressMatch := addressLabelRe.FindStringSubmatch(text)
	if addressMatch == nil {
		return nil
	}

	street := strings.TrimSpace(addressMatch[1])
	if idx := strings.Index(street, "Location:"); idx > -1 {
		street = strings.TrimSpace(street[:idx])
	}
	if len(street) <= 5 {
		return nil
	}

	full := street
	snippet := "Address: " + street

	if locationMatch := locationLabelRe.FindStringSubmatch(text); locationMatch != nil {
		location := strings.TrimSpace(locationMatch[1])
		if idx := strings.Index(location, "Type:"); idx > -1 {
			location = strings.TrimSpace(location[:idx])
		}
		if location != "" {
			full = street + ", " + location
			snippet += ", Location: " + location
		}
	}

	return []Candidate{{
		AddressRaw:       full,
		ExtractionMethod: "address_location_pattern",
		Confidence:       0.9,
		HTMLSnippet:      snippet,
	}}
}

// fromSelectors runs the profile's configured address-container selectors.
func (e *Extractor) fromSelectors(doc *goquery.Document, _ []Candidate) []Candidate {
	var candidates []Candidate

	for _, selector := range e.profile.ListingPageSelectors.AddressContainers {
		doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len(text) <= 5 {
				return
			}
			candidates = append(candidates, Candidate{
				AddressRaw:       text,
				ExtractionMethod: "selector:" + selector,
				Confidence:       0.8,
				HTMLSnippet:      snippet(sel),
			})
		})
	}

	return candidates
}

// fromMaps scans map-provider iframes and map-indicating elements.
func (e *Extractor) fromMaps(doc *goquery.Document, _ []Candidate) []Candidate {
	var candidates []Candidate

	doc.Find("iframe").Each(func(i int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		if !strings.Contains(src, "google.com/maps") && !strings.Contains(src, "maps.google") {
			return
		}
		match := mapsQueryRe.FindStringSubmatch(src)
		if match == nil {
			return
		}
		address := strings.ReplaceAll(match[1], "+", " ")
		candidates = append(candidates, Candidate{
			AddressRaw:       address,
			ExtractionMethod: "google_maps_iframe",
			Confidence:       0.7,
			HTMLSnippet:      snippet(sel),
		})
	})

	mapElements := doc.Find(`[class*="map"], [id*="map"]`)
	mapElements.Each(func(i int, sel *goquery.Selection) {
		if i >= 3 {
			return
		}
		for _, attr := range sel.Nodes[0].Attr {
			if !strings.Contains(strings.ToLower(attr.Key), "address") {
				continue
			}
			if len(attr.Val) <= 5 {
				continue
			}
			candidates = append(candidates, Candidate{
				AddressRaw:       attr.Val,
				ExtractionMethod: "map_data_attr:" + attr.Key,
				Confidence:       0.6,
				HTMLSnippet:      snippet(sel),
			})
		}
	})

	return candidates
}

// fromHeuristics runs the street-suffix regex over visible text plus a
// keyword-container scan. The combined output of this step is capped at 5.
func (e *Extractor) fromHeuristics(doc *goquery.Document, existing []Candidate) []Candidate {
	var candidates []Candidate
	text := doc.Text()

	for _, match := range streetSuffixRe.FindAllString(text, -1) {
		addressText := strings.TrimSpace(match)

		if containsAsSubstring(existing, addressText) || containsAsSubstring(candidates, addressText) {
			continue
		}
		if len(addressText) <= 5 || len(addressText) >= 200 {
			continue
		}

		candidates = append(candidates, Candidate{
			AddressRaw:       addressText,
			ExtractionMethod: "regex_heuristic",
			Confidence:       0.6,
			HTMLSnippet:      addressText,
		})
	}

	for _, keyword := range addressKeywords {
		matched := 0
		doc.Find("*").EachWithBreak(func(i int, sel *goquery.Selection) bool {
			if matched >= 3 {
				return false
			}
			if sel.Children().Length() > 0 {
				return true
			}
			// Script and style text is not page copy.
			if name := goquery.NodeName(sel); name == "script" || name == "style" {
				return true
			}
			if !strings.Contains(strings.ToLower(sel.Text()), keyword) {
				return true
			}
			matched++

			parent := sel.Parent()
			if parent.Length() == 0 {
				return true
			}
			containerText := strings.TrimSpace(parent.Text())
			if len(containerText) <= 10 || len(containerText) >= 200 {
				return true
			}
			if hasRaw(existing, containerText) || hasRaw(candidates, containerText) {
				return true
			}

			candidates = append(candidates, Candidate{
				AddressRaw:       containerText,
				ExtractionMethod: "keyword:" + keyword,
				Confidence:       0.5,
				HTMLSnippet:      snippet(parent),
			})
			return true
		})
	}

	if len(candidates) > 5 {
		candidates = candidates[:5]
	}

	return candidates
}

// fromMetaTags is the last-resort fallback over og:title / og:description.
func (e *Extractor) fromMetaTags(doc *goquery.Document, _ []Candidate) []Candidate {
	var candidates []Candidate

	if content, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && content != "" {
		lower := strings.ToLower(content)
		for _, keyword := range titleKeywords {
			if strings.Contains(lower, keyword) {
				candidates = append(candidates, Candidate{
					AddressRaw:       content,
					ExtractionMethod: "og:title",
					Confidence:       0.3,
					HTMLSnippet:      content,
				})
				break
			}
		}
	}

	if content, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok && content != "" {
		if match := descSuffixRe.FindString(content); match != "" {
			snippetText := content
			if len(snippetText) > 200 {
				snippetText = snippetText[:200]
			}
			candidates = append(candidates, Candidate{
				AddressRaw:       match,
				ExtractionMethod: "og:description",
				Confidence:       0.4,
				HTMLSnippet:      snippetText,
			})
		}
	}

	return candidates
}

func containsAsSubstring(candidates []Candidate, text string) bool {
	for _, c := range candidates {
		if strings.Contains(c.AddressRaw, text) {
			return true
		}
	}
	return false
}

func hasRaw(candidates []Candidate, text string) bool {
	for _, c := range candidates {
		if c.AddressRaw == text {
			return true
		}
	}
	return false
}

func snippet(sel *goquery.Selection) string {
	html, err := goquery.OuterHtml(sel)
	if err != nil {
		return ""
	}
	if len(html) > snippetLimit {
		return html[:snippetLimit]
	}
	return html
}
