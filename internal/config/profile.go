package config

import (
	"fmt"
	"time"
)

// SiteProfile describes one scraping target. Loaded once per run from a YAML
// file in profiles_dir and read-only thereafter.
type SiteProfile struct {
	ManagerName   string `yaml:"manager_name"`
	ManagerDomain string `yaml:"manager_domain"`
	MarketName    string `yaml:"market_name"`

	SeedURLs              []string `yaml:"seed_urls"`
	SitemapURLs           []string `yaml:"sitemap_urls"`
	PropertyDirectoryURLs []string `yaml:"property_directory_urls"`
	ListingURLPatterns    []string `yaml:"listing_url_patterns"`
	ExcludedURLPatterns   []string `yaml:"excluded_url_patterns"`

	IndexPageSelectors   IndexPageSelectors   `yaml:"index_page_selectors"`
	ListingPageSelectors ListingPageSelectors `yaml:"listing_page_selectors"`
	CrawlSettings        CrawlSettings        `yaml:"crawl_settings"`
}

// IndexPageSelectors locate listing links on index/search pages.
type IndexPageSelectors struct {
	ListingLink    string `yaml:"listing_link"`
	PaginationNext string `yaml:"pagination_next"`
	LoadMore       string `yaml:"load_more"`
	TotalCount     string `yaml:"total_count"`
}

// ListingPageSelectors locate data on listing detail pages.
type ListingPageSelectors struct {
	AddressContainers []string `yaml:"address_containers"`
	PropertyName      string   `yaml:"property_name"`
	Bedrooms          string   `yaml:"bedrooms"`
	MapContainer      string   `yaml:"map_container"`
}

// CrawlSettings tune the discovery engine. MaxConcurrency and MaxDepth are
// accepted for compatibility but not enforced: discovery runs a single worker
// and bounds depth via the visited set.
type CrawlSettings struct {
	MaxConcurrency        int    `yaml:"max_concurrency"`
	MinDelayMS            int    `yaml:"min_delay_ms"`
	MaxDepth              int    `yaml:"max_depth"`
	ScrollAttempts        int    `yaml:"scroll_attempts"`
	SelectorWaitTimeoutMS int    `yaml:"selector_wait_timeout_ms"`
	UserAgent             string `yaml:"user_agent"`
}

func (p *SiteProfile) Validate() error {
	if p.ManagerDomain == "" {
		return fmt.Errorf("manager_domain is required")
	}
	if len(p.SeedURLs) == 0 {
		return fmt.Errorf("seed_urls must be a non-empty list")
	}
	if p.CrawlSettings.MinDelayMS < 0 {
		return fmt.Errorf("crawl_settings.min_delay_ms must be >= 0")
	}
	if p.CrawlSettings.ScrollAttempts < 0 {
		return fmt.Errorf("crawl_settings.scroll_attempts must be >= 0")
	}
	if p.CrawlSettings.MaxConcurrency < 0 {
		return fmt.Errorf("crawl_settings.max_concurrency must be >= 0")
	}
	if p.CrawlSettings.MaxDepth < 0 {
		return fmt.Errorf("crawl_settings.max_depth must be >= 0")
	}
	return nil
}

// ApplyDefaults fills unset crawl settings with the original defaults.
func (p *SiteProfile) ApplyDefaults() {
	cs := &p.CrawlSettings
	if cs.MaxConcurrency == 0 {
		cs.MaxConcurrency = 3
	}
	if cs.MinDelayMS == 0 {
		cs.MinDelayMS = 500
	}
	if cs.MaxDepth == 0 {
		cs.MaxDepth = 4
	}
	if cs.ScrollAttempts == 0 {
		cs.ScrollAttempts = 5
	}
	if cs.SelectorWaitTimeoutMS == 0 {
		cs.SelectorWaitTimeoutMS = 5000
	}
	if cs.UserAgent == "" {
		cs.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
}

func (p *SiteProfile) GetMinDelay() time.Duration {
	return time.Duration(p.CrawlSettings.MinDelayMS) * time.Millisecond
}

func (p *SiteProfile) GetSelectorWaitTimeout() time.Duration {
	return time.Duration(p.CrawlSettings.SelectorWaitTimeoutMS) * time.Millisecond
}
