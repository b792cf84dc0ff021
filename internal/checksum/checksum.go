package checksum

import (
	"crypto/sha256"
	"fmt"
	"time"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GeneratePageHash hashes a fetched page for change detection.
// Formula: SHA256(url|html|fetch_date_iso)
func (g *Generator) GeneratePageHash(url, html string, fetchedAt time.Time) string {
	dateISO := fetchedAt.UTC().Format("2006-01-02")

	content := fmt.Sprintf("%s|%s|%s", url, html, dateISO)

	hash := sha256.Sum256([]byte(content))

	return fmt.Sprintf("%x", hash)
}

// VerifyPageHash checks a stored hash against freshly computed content.
func (g *Generator) VerifyPageHash(expectedHash, url, html string, fetchedAt time.Time) bool {
	computed := g.GeneratePageHash(url, html, fetchedAt)
	return computed == expectedHash
}
