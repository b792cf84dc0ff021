package storage

import (
	"context"
	"time"

	"rentscout/internal/extractor"
	"rentscout/internal/normalize"
)

// Run statuses.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ListingPage is one fetched page within a run.
type ListingPage struct {
	ID                   int64
	ScrapeRunID          int64
	URL                  string
	HTMLContent          string
	ContentHash          string
	FetchTime            time.Time
	IsValidListing       bool
	ClassificationMethod string
}

// RunMetrics accumulates run counters.
type RunMetrics struct {
	PagesVisited       int
	ListingPagesFound  int
	AddressesExtracted int
	ErrorsCount        int
}

// Repository persists sites, scrape runs, fetched pages, address candidates
// and normalized addresses.
type Repository interface {
	// UpsertSite creates or updates the site record, returning its id.
	UpsertSite(ctx context.Context, managerName, managerDomain, marketName string) (int64, error)

	// CreateRun opens a new scrape run for the site with a config snapshot.
	CreateRun(ctx context.Context, siteID int64, configSnapshot string) (int64, error)

	// UpdateRunStatus sets status and optionally an error message.
	UpdateRunStatus(ctx context.Context, runID int64, status, errorMessage string) error

	// UpdateRunMetrics writes the current counters for a run.
	UpdateRunMetrics(ctx context.Context, runID int64, m RunMetrics) error

	// FinalizeRun closes the run with a terminal status and final counters.
	FinalizeRun(ctx context.Context, runID int64, status string, m RunMetrics, errorMessage string) error

	// InsertListingPage stores a fetched page, returning its id.
	InsertListingPage(ctx context.Context, page *ListingPage) (int64, error)

	// UpdatePageClassification records the classifier's verdict for a page.
	UpdatePageClassification(ctx context.Context, pageID int64, isListing bool, method string) error

	// InsertCandidate stores one raw address candidate for a page.
	InsertCandidate(ctx context.Context, pageID int64, candidate extractor.Candidate) (int64, error)

	// InsertAddress stores one normalized address for a page.
	InsertAddress(ctx context.Context, pageID int64, addr normalize.Address) (int64, error)

	// AppendRunLog appends a timestamped line to the run's log trail.
	AppendRunLog(ctx context.Context, runID int64, message string) error

	Close() error
}
