// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

// Package main is the entry point for the Agora harvest server.
//
// Agora collects public city events from unreliable external providers
// (a structured places API plus several web-scraping strategies), normalizes
// and deduplicates them, enriches them with categories, tags and coordinates,
// and persists them to a DuckDB store. Harvest runs are triggered over HTTP
// by an external scheduler.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: settings from environment variables and config files (Koanf v2)
//  2. Database: DuckDB store with the events, cities and activities schema
//  3. Geocoder: Nominatim client with politeness rate limiting
//  4. Source registry: adapters, enabled by credential presence
//  5. HTTP server: harvest trigger, health endpoints, Prometheus metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (config.yaml),
// built-in defaults.
//
// Provider credentials are the only feature flags:
//   - FOURSQUARE_API_KEY enables the structured places source
//   - FIRECRAWL_API_KEY enables every scraping source
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, waits up to 10 seconds for in-flight requests
// (an in-flight harvest run is abandoned at the next adapter boundary),
// then closes the database.
//
// # Example Usage
//
//	export FIRECRAWL_API_KEY=fc-...
//	export FOURSQUARE_API_KEY=fsq-...
//	export DUCKDB_PATH=/data/agora.duckdb
//	./agora
//
// # Port 4326
//
// The default port 4326 references EPSG:4326 (WGS 84), the coordinate
// system the harvested events are stored in.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agora-city/agora/internal/api"
	"github.com/agora-city/agora/internal/config"
	"github.com/agora-city/agora/internal/database"
	"github.com/agora-city/agora/internal/geocode"
	"github.com/agora-city/agora/internal/logging"
	"github.com/agora-city/agora/internal/pipeline"
	"github.com/agora-city/agora/internal/sources"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Bool("foursquare_enabled", cfg.Foursquare.APIKey != "").
		Bool("firecrawl_enabled", cfg.Firecrawl.APIKey != "").
		Str("db_path", cfg.Database.Path).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	geocoder := geocode.NewClient(&cfg.Geocoder)
	defer geocoder.Close()

	pacer := sources.SleepPacer{}
	registry := sources.BuildRegistry(cfg, pacer)
	if enabled := registry.Enabled(nil); len(enabled) == 0 {
		// Not fatal at startup: the server still serves health endpoints
		// and reports the condition on every harvest attempt.
		logging.Warn().Msg("No source credentials configured - every harvest will fail until one is set")
	} else {
		names := make([]string, 0, len(enabled))
		for _, a := range enabled {
			names = append(names, a.Name())
		}
		logging.Info().Strs("sources", names).Msg("Source adapters enabled")
	}

	harvester := pipeline.New(db, geocoder, registry, pacer, &cfg.Pipeline)

	handler := api.NewHandler(harvester, db)
	router := api.NewRouter(handler, &cfg.API)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		// Harvest runs are synchronous and slow by design; the write
		// timeout must cover a full paced run.
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logging.Info().Msg("Application stopped gracefully")
}
