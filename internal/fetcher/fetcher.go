// Package fetcher provides the plain-HTTP acquisition path used outside the
// render-driven crawl loop: sitemap downloads and the politeness pacer.
package fetcher

import (
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rentscout/internal/config"
	"rentscout/internal/observability"
)

type Fetcher struct {
	client *http.Client
	cfg    *config.Config
	logger *observability.Logger
}

func NewFetcher(cfg *config.Config, logger *observability.Logger) *Fetcher {
	client := &http.Client{
		Timeout: cfg.GetTotalTimeout(),
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Fetcher{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// FetchSitemapURLs downloads every sitemap and returns the union of their
// <loc> entries. Sitemap fetches sit outside the per-page crawl loop, so a
// bounded retry is allowed here. A failed sitemap is logged and skipped.
func (f *Fetcher) FetchSitemapURLs(ctx context.Context, sitemapURLs []string) []string {
	var urls []string

	for _, sitemapURL := range sitemapURLs {
		locs, err := f.fetchSitemap(ctx, sitemapURL)
		if err != nil {
			f.logger.Warn("Sitemap fetch failed", "url", sitemapURL, "error", err.Error())
			continue
		}
		f.logger.Info("Sitemap fetched", "url", sitemapURL, "locations", len(locs))
		urls = append(urls, locs...)
	}

	return urls
}

func (f *Fetcher) fetchSitemap(ctx context.Context, sitemapURL string) ([]string, error) {
	var lastErr error

	for attempt := 0; attempt <= f.cfg.HTTP.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := f.fetchOnce(ctx, sitemapURL)
		if err != nil {
			lastErr = err
			continue
		}

		return parseSitemap(body)
	}

	return nil, fmt.Errorf("sitemap fetch failed after %d retries: %w", f.cfg.HTTP.MaxRetries, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, urlStr string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.cfg.HTTP.UserAgent)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Accept", "application/xml,text/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Warn("Failed to close response body", "error", err.Error())
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	reader := resp.Body
	// Sitemaps are commonly served pre-compressed (.xml.gz) as well.
	if resp.Header.Get("Content-Encoding") == "gzip" || strings.HasSuffix(urlStr, ".gz") {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer func() { _ = gzipReader.Close() }()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

type sitemapDoc struct {
	URLs     []sitemapLoc `xml:"url"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// parseSitemap extracts <loc> entries from a urlset or sitemapindex
// document. Nested sitemap index entries are returned as-is; callers decide
// whether to follow them.
func parseSitemap(body []byte) ([]string, error) {
	var doc sitemapDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse sitemap XML: %w", err)
	}

	var urls []string
	for _, entry := range doc.URLs {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	for _, entry := range doc.Sitemaps {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}

	return urls, nil
}
