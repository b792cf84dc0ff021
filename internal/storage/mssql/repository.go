package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"rentscout/internal/extractor"
	"rentscout/internal/normalize"
	"rentscout/internal/observability"
	"rentscout/internal/storage"
)

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(dsn string, commandTimeoutMS int, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{
		db:             db,
		commandTimeout: time.Duration(commandTimeoutMS) * time.Millisecond,
		logger:         logger,
	}, nil
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.commandTimeout)
}

func (r *Repository) UpsertSite(ctx context.Context, managerName, managerDomain, marketName string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `
MERGE sites AS target
USING (SELECT @p1 AS manager_name, @p2 AS manager_domain, @p3 AS market_name) AS src
ON target.manager_domain = src.manager_domain
WHEN MATCHED THEN
    UPDATE SET manager_name = src.manager_name, market_name = src.market_name, updated_at = SYSUTCDATETIME()
WHEN NOT MATCHED THEN
    INSERT (manager_name, manager_domain, market_name, created_at, updated_at)
    VALUES (src.manager_name, src.manager_domain, src.market_name, SYSUTCDATETIME(), SYSUTCDATETIME())
OUTPUT inserted.id;`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, managerName, managerDomain, marketName).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert site: %w", err)
	}
	return id, nil
}

func (r *Repository) CreateRun(ctx context.Context, siteID int64, configSnapshot string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `
INSERT INTO scrape_runs (site_id, status, start_time, config_snapshot)
OUTPUT inserted.id
VALUES (@p1, @p2, SYSUTCDATETIME(), @p3);`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, siteID, storage.StatusQueued, configSnapshot).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create scrape run: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateRunStatus(ctx context.Context, runID int64, status, errorMessage string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `
UPDATE scrape_runs
SET status = @p2, error_message = NULLIF(@p3, '')
WHERE id = @p1;`

	if _, err := r.db.ExecContext(ctx, query, runID, status, errorMessage); err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}
	return nil
}

func (r *Repository) UpdateRunMetrics(ctx context.Context, runID int64, m storage.RunMetrics) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `
UPDATE scrape_runs
SET pages_visited = @p2, listing_pages_found = @p3, addresses_extracted = @p4, errors_count = @p5
WHERE id = @p1;`

	if _, err := r.db.ExecContext(ctx, query, runID,
		m.PagesVisited, m.ListingPagesFound, m.AddressesExtracted, m.ErrorsCount); err != nil {
		return fmt.Errorf("failed to update run metrics: %w", err)
	}
	return nil
}

func (r *Repository) FinalizeRun(ctx context.Context, runID int64, status string, m storage.RunMetrics, errorMessage string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `
UPDATE scrape_runs
SET status = @p2,
    end_time = SYSUTCDATETIME(),
    pages_visited = @p3,
    listing_pages_found = @p4,
    addresses_extracted = @p5,
    errors_count = @p6,
    error_message = NULLIF(@p7, '')
WHERE id = @p1;`

	if _, err := r.db.ExecContext(ctx, query, runID, status,
		m.PagesVisited, m.ListingPagesFound, m.AddressesExtracted, m.ErrorsCount, errorMessage); err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}
	return nil
}

func (r *Repository) InsertListingPage(ctx context.Context, page *storage.ListingPage) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `
INSERT INTO listing_pages (scrape_run_id, url, html_content, content_hash, fetch_time)
OUTPUT inserted.id
VALUES (@p1, @p2, @p3, @p4, @p5);`

	var id int64
	if err := r.db.QueryRowContext(ctx, query,
		page.ScrapeRunID, page.URL, page.HTMLContent, page.ContentHash, page.FetchTime).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert listing page: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdatePageClassification(ctx context.Context, pageID int64, isListing bool, method string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `
UPDATE listing_pages
SET is_valid_listing = @p2, classification_method = @p3
WHERE id = @p1;`

	if _, err := r.db.ExecContext(ctx, query, pageID, isListing, method); err != nil {
		return fmt.Errorf("failed to update page classification: %w", err)
	}
	return nil
}

func (r *Repository) InsertCandidate(ctx context.Context, pageID int64, candidate extractor.Candidate) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `
INSERT INTO address_candidates (listing_page_id, address_raw, extraction_method, confidence, html_snippet)
OUTPUT inserted.id
VALUES (@p1, @p2, @p3, @p4, @p5);`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, pageID,
		candidate.AddressRaw, candidate.ExtractionMethod, candidate.Confidence, candidate.HTMLSnippet).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert address candidate: %w", err)
	}
	return id, nil
}

func (r *Repository) InsertAddress(ctx context.Context, pageID int64, addr normalize.Address) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `
INSERT INTO addresses (listing_page_id, address_raw, address_line1, address_line2,
                       city, state, postal_code, country, inferred_market,
                       inference_method, confidence_score)
OUTPUT inserted.id
VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10, @p11);`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, pageID,
		addr.AddressRaw, addr.Line1, addr.Line2, addr.City, addr.State,
		addr.PostalCode, addr.Country, addr.InferredMarket,
		addr.InferenceMethod, addr.Confidence).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert address: %w", err)
	}
	return id, nil
}

func (r *Repository) AppendRunLog(ctx context.Context, runID int64, message string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `
UPDATE scrape_runs
SET logs = CONCAT(COALESCE(logs, ''), @p2, CHAR(10))
WHERE id = @p1;`

	line := fmt.Sprintf("[%s] %s", time.Now().UTC().Format(time.RFC3339), message)

	if _, err := r.db.ExecContext(ctx, query, runID, line); err != nil {
		return fmt.Errorf("failed to append run log: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
