package extractor

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxSchemaDepth caps traversal of JSON-LD blocks. Pages are untrusted and
// may nest pathologically.
const maxSchemaDepth = 32

// fromSchema searches embedded JSON-LD blocks for a PostalAddress object and
// formats it as "street, locality, region, postal".
func (e *Extractor) fromSchema(doc *goquery.Document, _ []Candidate) []Candidate {
	var candidates []Candidate

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		var data interface{}
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return // skip this block, other strategies still run
		}

		address := findPostalAddress(data)
		if address == nil {
			return
		}

		formatted := formatSchemaAddress(address)
		if formatted == "" {
			return
		}

		candidates = append(candidates, Candidate{
			AddressRaw:       formatted,
			ExtractionMethod: "schema_ld",
			Confidence:       0.9,
			HTMLSnippet:      snippet(sel),
		})
	})

	return candidates
}

type schemaNode struct {
	value interface{}
	depth int
}

// findPostalAddress walks the parsed JSON value with an explicit work-stack in
// deterministic preorder, returning the first object typed "PostalAddress"
// (top-level or under an "address" key). Map keys are visited in sorted order
// and children are pushed in reverse so the stack pops them in document order.
func findPostalAddress(data interface{}) map[string]interface{} {
	stack := []schemaNode{{value: data}}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node.depth > maxSchemaDepth {
			continue
		}

		switch v := node.value.(type) {
		case map[string]interface{}:
			if t, _ := v["@type"].(string); t == "PostalAddress" {
				return v
			}
			if addr, ok := v["address"].(map[string]interface{}); ok {
				if t, _ := addr["@type"].(string); t == "PostalAddress" {
					return addr
				}
			}
			keys := make([]string, 0, len(v))
			for key, value := range v {
				switch value.(type) {
				case map[string]interface{}, []interface{}:
					keys = append(keys, key)
				}
			}
			sort.Strings(keys)
			for i := len(keys) - 1; i >= 0; i-- {
				stack = append(stack, schemaNode{value: v[keys[i]], depth: node.depth + 1})
			}
		case []interface{}:
			for i := len(v) - 1; i >= 0; i-- {
				stack = append(stack, schemaNode{value: v[i], depth: node.depth + 1})
			}
		}
	}

	return nil
}

func formatSchemaAddress(address map[string]interface{}) string {
	var parts []string

	for _, key := range []string{"streetAddress", "addressLocality", "addressRegion", "postalCode"} {
		if value, _ := address[key].(string); value != "" {
			parts = append(parts, value)
		}
	}

	return strings.Join(parts, ", ")
}
