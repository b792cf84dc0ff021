package normalize

import (
	"sort"
	"strings"
)

// Dedupe collapses near-duplicate addresses by a lower-cased
// (line1, city, state, postal) key, dropping all-empty keys, keeping the
// first occurrence, and sorting by confidence descending. The sort is stable:
// ties preserve the original relative order. Idempotent.
func Dedupe(addresses []Address) []Address {
	if len(addresses) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(addresses))
	unique := make([]Address, 0, len(addresses))

	for _, addr := range addresses {
		parts := []string{addr.Line1, addr.City, addr.State, addr.PostalCode}

		allEmpty := true
		for i, p := range parts {
			parts[i] = strings.TrimSpace(strings.ToLower(p))
			if parts[i] != "" {
				allEmpty = false
			}
		}
		if allEmpty {
			continue
		}

		key := strings.Join(parts, "\x1f")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, addr)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Confidence > unique[j].Confidence
	})

	return unique
}
