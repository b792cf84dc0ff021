package app

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"rentscout/internal/checksum"
	"rentscout/internal/classifier"
	"rentscout/internal/config"
	"rentscout/internal/discovery"
	"rentscout/internal/extractor"
	"rentscout/internal/fetcher"
	"rentscout/internal/normalize"
	"rentscout/internal/observability"
	"rentscout/internal/property"
	"rentscout/internal/render"
	"rentscout/internal/storage"
)

type Orchestrator struct {
	cfg      *config.Config
	logger   *observability.Logger
	fetcher  *fetcher.Fetcher
	driver   render.Driver
	repo     storage.Repository
	enricher normalize.Enricher
	propex   property.Extractor
	checksum *checksum.Generator
	registry *RunRegistry
}

func NewOrchestrator(
	cfg *config.Config,
	logger *observability.Logger,
	f *fetcher.Fetcher,
	driver render.Driver,
	repo storage.Repository,
	enricher normalize.Enricher,
	propex property.Extractor,
	registry *RunRegistry,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		logger:   logger,
		fetcher:  f,
		driver:   driver,
		repo:     repo,
		enricher: enricher,
		propex:   propex,
		checksum: checksum.NewGenerator(),
		registry: registry,
	}
}

// RunStats summarises one scrape run.
type RunStats struct {
	RunID              int64
	PagesVisited       int
	ListingPagesFound  int
	AddressesExtracted int
	ErrorsCount        int
	StoppedReason      string
}

// Run executes the full pipeline for a site profile: discover listing
// URLs, fetch and classify each page, extract and normalize addresses,
// and persist everything under a scrape run record.
func (o *Orchestrator) Run(ctx context.Context, profile *config.SiteProfile) (*RunStats, error) {
	siteID, err := o.repo.UpsertSite(ctx, profile.ManagerName, profile.ManagerDomain, profile.MarketName)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert site: %w", err)
	}

	snapshot, err := yaml.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot profile: %w", err)
	}

	runID, err := o.repo.CreateRun(ctx, siteID, string(snapshot))
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	o.registry.Register(runID, profile.ManagerDomain, cancel)
	defer o.registry.Remove(runID)

	stats := &RunStats{RunID: runID}

	if err := o.repo.UpdateRunStatus(ctx, runID, storage.StatusRunning, ""); err != nil {
		return stats, fmt.Errorf("failed to mark run running: %w", err)
	}

	o.logger.Info("Starting scrape run",
		"run_id", runID,
		"site_id", siteID,
		"domain", profile.ManagerDomain,
		"seed_urls", len(profile.SeedURLs),
	)

	err = o.execute(ctx, runID, profile, stats)

	metrics := storage.RunMetrics{
		PagesVisited:       stats.PagesVisited,
		ListingPagesFound:  stats.ListingPagesFound,
		AddressesExtracted: stats.AddressesExtracted,
		ErrorsCount:        stats.ErrorsCount,
	}

	finalStatus := storage.StatusCompleted
	errorMessage := ""
	if err != nil {
		finalStatus = storage.StatusFailed
		errorMessage = err.Error()
		stats.StoppedReason = errorMessage
	}

	if ferr := o.repo.FinalizeRun(context.WithoutCancel(ctx), runID, finalStatus, metrics, errorMessage); ferr != nil {
		o.logger.Error("Failed to finalize run", "run_id", runID, "error", ferr.Error())
	}

	o.logger.Info("Scrape run finished",
		"run_id", runID,
		"status", finalStatus,
		"pages_visited", stats.PagesVisited,
		"listing_pages_found", stats.ListingPagesFound,
		"addresses_extracted", stats.AddressesExtracted,
		"errors", stats.ErrorsCount,
	)

	return stats, err
}

func (o *Orchestrator) execute(ctx context.Context, runID int64, profile *config.SiteProfile, stats *RunStats) error {
	engine := discovery.NewEngine(profile, o.driver, o.logger,
		o.cfg.GetRodPageTimeout(), o.cfg.GetRodSettleDelay())

	// Sitemaps are cheap candidates; a failed sitemap never fails the run.
	if len(profile.SitemapURLs) > 0 {
		sitemapURLs := o.fetcher.FetchSitemapURLs(ctx, profile.SitemapURLs)
		engine.AddCandidates(sitemapURLs)
		o.logger.Info("Sitemap candidates added",
			"run_id", runID,
			"count", len(sitemapURLs),
		)
	}

	urls, err := engine.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	o.logger.Info("Discovery completed", "run_id", runID, "candidate_urls", len(urls))
	o.appendLog(ctx, runID, fmt.Sprintf("discovery completed: %d candidate URLs", len(urls)))

	for _, pageURL := range urls {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := o.processPage(ctx, runID, engine, profile, pageURL, stats); err != nil {
			stats.ErrorsCount++
			o.logger.Error("Page processing failed",
				"run_id", runID,
				"url", pageURL,
				"error", err.Error(),
			)
			o.appendLog(ctx, runID, fmt.Sprintf("error processing %s: %v", pageURL, err))
		}

		metrics := storage.RunMetrics{
			PagesVisited:       stats.PagesVisited,
			ListingPagesFound:  stats.ListingPagesFound,
			AddressesExtracted: stats.AddressesExtracted,
			ErrorsCount:        stats.ErrorsCount,
		}
		if err := o.repo.UpdateRunMetrics(ctx, runID, metrics); err != nil {
			o.logger.Warn("Failed to update run metrics", "run_id", runID, "error", err.Error())
		}
	}

	return nil
}

func (o *Orchestrator) processPage(ctx context.Context, runID int64, engine *discovery.Engine,
	profile *config.SiteProfile, pageURL string, stats *RunStats) error {

	finalURL, html, err := engine.FetchPage(ctx, pageURL)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	stats.PagesVisited++

	fetchedAt := time.Now().UTC()
	page := &storage.ListingPage{
		ScrapeRunID: runID,
		URL:         finalURL,
		HTMLContent: html,
		ContentHash: o.checksum.GeneratePageHash(finalURL, html, fetchedAt),
		FetchTime:   fetchedAt,
	}

	pageID, err := o.repo.InsertListingPage(ctx, page)
	if err != nil {
		return fmt.Errorf("failed to store page: %w", err)
	}

	result := classifier.Classify(html, finalURL)
	if err := o.repo.UpdatePageClassification(ctx, pageID, result.IsListing, result.Method); err != nil {
		return fmt.Errorf("failed to store classification: %w", err)
	}

	o.logger.Debug("Page classified",
		"run_id", runID,
		"url", finalURL,
		"is_listing", result.IsListing,
		"method", result.Method,
	)

	if !result.IsListing {
		return nil
	}
	stats.ListingPagesFound++

	ex := extractor.NewExtractor(profile)
	candidates := ex.Extract(html, finalURL)
	for _, c := range candidates {
		if _, err := o.repo.InsertCandidate(ctx, pageID, c); err != nil {
			return fmt.Errorf("failed to store candidate: %w", err)
		}
	}

	o.logger.Debug("Candidates extracted",
		"run_id", runID,
		"url", finalURL,
		"count", len(candidates),
	)

	if addr, ok := o.bestAddress(profile, candidates, finalURL); ok {
		if _, err := o.repo.InsertAddress(ctx, pageID, addr); err != nil {
			return fmt.Errorf("failed to store address: %w", err)
		}
		stats.AddressesExtracted++
		o.logger.Info("Address extracted",
			"run_id", runID,
			"url", finalURL,
			"line1", addr.Line1,
			"city", addr.City,
			"state", addr.State,
			"confidence", addr.Confidence,
		)
	} else if data, ok := o.propex.Extract(html, finalURL); ok {
		// No usable address; keep what the fallback extractor could pull.
		o.logger.Info("Property data fallback",
			"run_id", runID,
			"url", finalURL,
			"property_name", data.PropertyName,
			"bedrooms", data.Bedrooms,
			"method", data.ExtractionMethod,
		)
	}

	return nil
}

// bestAddress normalizes all candidates, dedupes them and picks the
// highest-confidence one, preferring complete addresses.
func (o *Orchestrator) bestAddress(profile *config.SiteProfile,
	candidates []extractor.Candidate, pageURL string) (normalize.Address, bool) {

	if len(candidates) == 0 {
		return normalize.Address{}, false
	}

	n := normalize.NewNormalizer(profile, o.enricher)
	addresses := make([]normalize.Address, 0, len(candidates))
	for _, c := range candidates {
		addresses = append(addresses, n.Normalize(c, pageURL))
	}

	deduped := normalize.Dedupe(addresses)
	if len(deduped) == 0 {
		return normalize.Address{}, false
	}

	for _, addr := range deduped {
		if addr.Complete() {
			return addr, true
		}
	}
	return deduped[0], true
}

func (o *Orchestrator) appendLog(ctx context.Context, runID int64, message string) {
	if err := o.repo.AppendRunLog(ctx, runID, message); err != nil {
		o.logger.Warn("Failed to append run log", "run_id", runID, "error", err.Error())
	}
}
