// Package discovery implements the crawl-frontier state machine that finds
// candidate listing URLs across a site's index pages, driving the render
// driver through scroll expansion, load-more clicking, and pagination.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentscout/internal/config"
	"rentscout/internal/fetcher"
	"rentscout/internal/observability"
	"rentscout/internal/render"
	"rentscout/internal/urlutil"
)

// pattern pairs a CSS selector with an optional required text fragment.
type pattern struct {
	Selector string
	Text     string
}

var loadMorePatterns = []pattern{
	{"button, a", "Load More"},
	{"button, a", "Show More"},
	{"button, a", "View More"},
	{"button", "Load"},
	{"button", "More"},
	{".load-more", ""},
	{".show-more", ""},
}

var paginationPatterns = []pattern{
	{`a[rel="next"]`, ""},
	{"a", "Next"},
	{".pagination a", "Next"},
}

const (
	maxLoadMoreClicks = 20
	scrollSettle      = 1500 * time.Millisecond
	clickSettle       = 1500 * time.Millisecond
)

// Engine walks seed and directory pages, expanding dynamic content and
// following pagination, and produces the deduplicated candidate listing-URL
// set. Single worker per run; the visited and discovered sets are not
// shared across goroutines.
type Engine struct {
	profile      *config.SiteProfile
	driver       render.Driver
	logger       *observability.Logger
	pacer        *fetcher.Pacer
	pageTimeout  time.Duration
	settleDelay  time.Duration
	scrollSettle time.Duration
	clickSettle  time.Duration

	visited    map[string]struct{}
	discovered map[string]struct{}
	order      []string
}

func NewEngine(profile *config.SiteProfile, driver render.Driver, logger *observability.Logger,
	pageTimeout, settleDelay time.Duration) *Engine {
	return &Engine{
		profile:      profile,
		driver:       driver,
		logger:       logger,
		pacer:        fetcher.NewPacer(profile.GetMinDelay()),
		pageTimeout:  pageTimeout,
		settleDelay:  settleDelay,
		scrollSettle: scrollSettle,
		clickSettle:  clickSettle,
		visited:      make(map[string]struct{}),
		discovered:   make(map[string]struct{}),
	}
}

// AddCandidates injects externally sourced URLs (e.g. sitemap entries) into
// the discovered set, subject to the same domain filter as crawled links.
func (e *Engine) AddCandidates(urls []string) {
	for _, u := range urls {
		if urlutil.IsSameDomain(u, e.profile.ManagerDomain) {
			e.addDiscovered(u)
		}
	}
}

// Discover crawls every seed and directory URL and returns the deduplicated
// set of likely listing URLs in discovery order.
func (e *Engine) Discover(ctx context.Context) ([]string, error) {
	for _, seed := range e.profile.SeedURLs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.logger.Info("Processing seed URL", "url", seed)
		e.crawlIndexPage(ctx, seed)
	}

	for _, dir := range e.profile.PropertyDirectoryURLs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.logger.Info("Processing directory URL", "url", dir)
		e.crawlIndexPage(ctx, dir)
	}

	var listings []string
	for _, u := range e.order {
		if urlutil.IsLikelyListingURL(u, e.profile.ListingURLPatterns, e.profile.ExcludedURLPatterns) {
			listings = append(listings, u)
		}
	}

	e.logger.Info("Discovery complete",
		"discovered", len(e.order),
		"listings", len(listings),
	)

	return urlutil.Deduplicate(listings), nil
}

// crawlIndexPage processes one index page. Failures are logged and the crawl
// continues; only the caller's context cancellation stops the run.
func (e *Engine) crawlIndexPage(ctx context.Context, pageURL string) {
	normalized := urlutil.Normalize(pageURL, "")
	if _, ok := e.visited[normalized]; ok {
		return
	}
	// Mark before processing so recursive pagination can never revisit.
	e.visited[normalized] = struct{}{}

	session, err := e.driver.Open(ctx)
	if err != nil {
		e.logger.Error("Failed to open render session", "url", pageURL, "error", err.Error())
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			e.logger.Warn("Failed to close render session", "url", pageURL, "error", err.Error())
		}
		// Politeness delay after every page, success or not.
		e.pacer.Wait(ctx)
	}()

	e.logger.Info("Loading page", "url", pageURL)

	finalURL, _, err := session.Render(ctx, pageURL, e.pageTimeout)
	if err != nil {
		e.logger.Error("Error crawling page", "url", pageURL, "error", err.Error())
		return
	}

	// Let client-side navigation and redirects settle.
	e.sleep(ctx, e.settleDelay)

	if current, err := session.CurrentURL(); err == nil && current != "" {
		finalURL = current
	}
	if finalURL != pageURL {
		e.logger.Info("Redirected", "from", pageURL, "to", finalURL)
		e.visited[urlutil.Normalize(finalURL, "")] = struct{}{}
	}

	if sel := e.profile.IndexPageSelectors.ListingLink; sel != "" {
		if err := session.WaitVisible(sel, e.profile.GetSelectorWaitTimeout()); err != nil {
			e.logger.Debug("Listing selector not found, continuing anyway", "selector", sel)
		}
	}

	e.expandScroll(ctx, session)
	e.expandLoadMore(ctx, session)

	links := e.extractLinks(session, finalURL)
	for _, link := range links {
		if urlutil.IsSameDomain(link, e.profile.ManagerDomain) {
			e.addDiscovered(link)
		}
	}

	e.logger.Info("Found links on page", "url", finalURL, "count", len(links))

	e.followPagination(ctx, session, finalURL)
}

// expandScroll repeats bottom-scrolls until the anchor count stops growing,
// the attempt budget runs out, or the page navigates away mid-scroll.
func (e *Engine) expandScroll(ctx context.Context, session render.Session) {
	attempts := e.profile.CrawlSettings.ScrollAttempts
	if attempts <= 0 {
		return
	}

	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return
		}

		initial, err := session.ElementCount("a")
		if err != nil {
			if errors.Is(err, render.ErrPageNavigated) {
				e.logger.Warn("Page navigated during scroll, stopping scroll attempts")
				return
			}
			e.logger.Debug("Error during scroll attempt", "attempt", i+1, "error", err.Error())
			continue
		}

		if err := session.ScrollToBottom(); err != nil {
			if errors.Is(err, render.ErrPageNavigated) {
				e.logger.Warn("Page navigated during scroll, stopping scroll attempts")
				return
			}
			e.logger.Debug("Error during scroll attempt", "attempt", i+1, "error", err.Error())
			continue
		}

		e.sleep(ctx, e.scrollSettle)

		newCount, err := session.ElementCount("a")
		if err != nil {
			if errors.Is(err, render.ErrPageNavigated) {
				e.logger.Warn("Page navigated during scroll, stopping scroll attempts")
				return
			}
			continue
		}

		if newCount == initial {
			e.logger.Debug("No new content after scroll attempt", "attempt", i+1)
			return
		}

		e.logger.Debug("Scroll expansion found new links",
			"attempt", i+1,
			"new_links", newCount-initial,
		)
	}
}

// expandLoadMore clicks load-more buttons, profile pattern first, with a
// global click budget shared across all patterns.
func (e *Engine) expandLoadMore(ctx context.Context, session render.Session) {
	patterns := loadMorePatterns
	if sel := e.profile.IndexPageSelectors.LoadMore; sel != "" {
		patterns = append([]pattern{{sel, ""}}, patterns...)
	}

	clicks := 0
	for _, p := range patterns {
		for clicks < maxLoadMoreClicks {
			if ctx.Err() != nil {
				return
			}

			clicked, err := session.ClickFirstVisible(p.Selector, p.Text)
			if err != nil || !clicked {
				break
			}

			e.logger.Debug("Clicked load-more button", "selector", p.Selector, "text", p.Text)
			e.sleep(ctx, e.clickSettle)
			clicks++
		}
	}

	if clicks > 0 {
		e.logger.Info("Clicked load-more buttons", "clicks", clicks)
	}
}

// extractLinks collects hrefs via the configured listing-link selector, or
// all anchors minus in-page and script links, resolved against baseURL and
// deduplicated.
func (e *Engine) extractLinks(session render.Session, baseURL string) []string {
	selector := e.profile.IndexPageSelectors.ListingLink

	hrefs, err := session.QueryLinks(selector)
	if err != nil {
		e.logger.Error("Error extracting links", "error", err.Error())
		return nil
	}

	var links []string
	for _, href := range hrefs {
		if selector == "" {
			if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
				continue
			}
		}
		links = append(links, urlutil.Normalize(href, baseURL))
	}

	return urlutil.Deduplicate(links)
}

// followPagination finds the first visible next-link and recurses into it.
// Depth is bounded by the visited set, not an explicit counter.
func (e *Engine) followPagination(ctx context.Context, session render.Session, currentURL string) {
	patterns := paginationPatterns
	if sel := e.profile.IndexPageSelectors.PaginationNext; sel != "" {
		patterns = append([]pattern{{sel, ""}}, patterns...)
	}

	for _, p := range patterns {
		href, err := session.FirstVisibleHref(p.Selector, p.Text)
		if err != nil || href == "" {
			continue
		}

		nextURL := urlutil.Normalize(href, currentURL)
		if _, ok := e.visited[nextURL]; !ok {
			e.logger.Info("Following pagination", "url", nextURL)
			e.crawlIndexPage(ctx, nextURL)
		}

		// First selector that yields a next-link wins.
		return
	}
}

func (e *Engine) addDiscovered(rawURL string) {
	key := urlutil.Normalize(rawURL, "")
	if _, ok := e.discovered[key]; ok {
		return
	}
	e.discovered[key] = struct{}{}
	e.order = append(e.order, key)
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// FetchPage renders a single page for the processing loop, returning the
// final URL and HTML. Always closes the session and applies the politeness
// delay.
func (e *Engine) FetchPage(ctx context.Context, pageURL string) (string, string, error) {
	session, err := e.driver.Open(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to open render session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			e.logger.Warn("Failed to close render session", "url", pageURL, "error", err.Error())
		}
		e.pacer.Wait(ctx)
	}()

	finalURL, html, err := session.Render(ctx, pageURL, e.pageTimeout)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}

	return finalURL, html, nil
}
