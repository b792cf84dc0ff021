package fetcher

import (
	"context"
	"time"
)

// Pacer enforces the inter-request politeness delay. The crawl is a single
// logical worker, so a plain sequential pause is sufficient.
type Pacer struct {
	delay time.Duration
}

func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Wait blocks for the configured delay or until the context is cancelled.
func (p *Pacer) Wait(ctx context.Context) {
	if p.delay <= 0 {
		return
	}
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
	}
}
