package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"rentscout/internal/app"
	"rentscout/internal/config"
	"rentscout/internal/fetcher"
	"rentscout/internal/normalize"
	"rentscout/internal/observability"
	"rentscout/internal/property"
	"rentscout/internal/render"
	"rentscout/internal/storage/mssql"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: rentscout <site-profile.yaml> [config.yaml]")
		os.Exit(2)
	}
	profilePath := os.Args[1]

	configPath := "configs/config.yaml"
	if len(os.Args) > 2 {
		configPath = os.Args[2]
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Bare profile names resolve against the configured profiles directory.
	if _, err := os.Stat(profilePath); err != nil {
		profilePath = filepath.Join(cfg.ProfilesDir, profilePath)
	}

	profile, err := config.LoadProfile(profilePath)
	if err != nil {
		log.Fatalf("Failed to load site profile: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogPath, cfg.Observability.LogLevel)

	repo, err := mssql.NewRepository(cfg.Storage.DSN, cfg.Storage.CommandTimeoutMS, logger)
	if err != nil {
		log.Fatalf("Failed to connect to storage: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn("Failed to close repository", "error", err.Error())
		}
	}()

	driver := render.NewRodDriver(cfg.Rod, profile.CrawlSettings.UserAgent, logger)
	if err := driver.Start(); err != nil {
		log.Fatalf("Failed to start browser: %v", err)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			logger.Warn("Failed to close browser", "error", err.Error())
		}
	}()

	registry := app.NewRunRegistry()
	ctx, cancel := app.GracefulShutdown(logger, registry)
	defer cancel()

	orch := app.NewOrchestrator(
		cfg,
		logger,
		fetcher.NewFetcher(cfg, logger),
		driver,
		repo,
		normalize.NoopEnricher{},
		property.RegexExtractor{},
		registry,
	)

	stats, err := orch.Run(ctx, profile)
	if err != nil {
		logger.Error("Run failed", "error", err.Error())
		os.Exit(1)
	}

	fmt.Printf("Run %d completed: %d pages visited, %d listing pages, %d addresses\n",
		stats.RunID, stats.PagesVisited, stats.ListingPagesFound, stats.AddressesExtracted)
}
