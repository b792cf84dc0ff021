package checksum

import (
	"testing"
	"time"
)

func TestGeneratePageHashDeterministic(t *testing.T) {
	g := NewGenerator()
	fetchedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	h1 := g.GeneratePageHash("https://example.com/p/1", "<html></html>", fetchedAt)
	h2 := g.GeneratePageHash("https://example.com/p/1", "<html></html>", fetchedAt)

	if h1 != h2 {
		t.Errorf("same inputs must hash identically: %s != %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h1))
	}
}

func TestGeneratePageHashVariesByInput(t *testing.T) {
	g := NewGenerator()
	fetchedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	base := g.GeneratePageHash("https://example.com/p/1", "<html></html>", fetchedAt)

	if got := g.GeneratePageHash("https://example.com/p/2", "<html></html>", fetchedAt); got == base {
		t.Errorf("different URL must change hash")
	}
	if got := g.GeneratePageHash("https://example.com/p/1", "<html>x</html>", fetchedAt); got == base {
		t.Errorf("different HTML must change hash")
	}
	if got := g.GeneratePageHash("https://example.com/p/1", "<html></html>", fetchedAt.AddDate(0, 0, 1)); got == base {
		t.Errorf("different fetch date must change hash")
	}
}

func TestGeneratePageHashIgnoresTimeOfDay(t *testing.T) {
	g := NewGenerator()
	morning := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 6, 1, 22, 30, 0, 0, time.UTC)

	h1 := g.GeneratePageHash("https://example.com/p/1", "<html></html>", morning)
	h2 := g.GeneratePageHash("https://example.com/p/1", "<html></html>", evening)

	if h1 != h2 {
		t.Errorf("hash must only depend on the fetch date, not time of day")
	}
}

func TestVerifyPageHash(t *testing.T) {
	g := NewGenerator()
	fetchedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	hash := g.GeneratePageHash("https://example.com/p/1", "<html></html>", fetchedAt)

	if !g.VerifyPageHash(hash, "https://example.com/p/1", "<html></html>", fetchedAt) {
		t.Errorf("matching content must verify")
	}
	if g.VerifyPageHash(hash, "https://example.com/p/1", "<html>changed</html>", fetchedAt) {
		t.Errorf("changed content must not verify")
	}
}
