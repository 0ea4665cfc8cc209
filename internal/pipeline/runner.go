// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/agora-city/agora/internal/config"
	"github.com/agora-city/agora/internal/database"
	"github.com/agora-city/agora/internal/geocode"
	"github.com/agora-city/agora/internal/logging"
	"github.com/agora-city/agora/internal/metrics"
	"github.com/agora-city/agora/internal/models"
	"github.com/agora-city/agora/internal/sources"
)

// ErrNoSources is the one configuration-fatal harvest condition: not a
// single adapter is both enabled and requested. The HTTP layer maps it to a
// non-2xx failure response.
var ErrNoSources = errors.New("no sources configured: set provider credentials or widen the requested sources")

// ErrUnknownCity marks a request naming a catalog city id that does not
// exist. The HTTP layer maps it to a client error.
var ErrUnknownCity = errors.New("unknown city id")

// Harvester runs harvest invocations. One instance serves the whole process;
// invocations are independent and the store is the only shared state.
type Harvester struct {
	db       *database.DB
	geocoder geocode.Geocoder
	registry *sources.Registry
	pacer    sources.Pacer
	cfg      *config.PipelineConfig
}

// New creates a Harvester.
func New(db *database.DB, geocoder geocode.Geocoder, registry *sources.Registry, pacer sources.Pacer, cfg *config.PipelineConfig) *Harvester {
	return &Harvester{
		db:       db,
		geocoder: geocoder,
		registry: registry,
		pacer:    pacer,
		cfg:      cfg,
	}
}

// Run executes one harvest invocation and always produces the structured
// summary, including on cancellation (partial counts) and on the "every
// source failed" run (success with zero counts). The returned error is
// non-nil only for conditions the HTTP layer must surface as failures:
// zero enabled sources, or a store/resolver breakdown before any harvesting
// started.
func (h *Harvester) Run(ctx context.Context, req models.HarvestRequest) (*models.HarvestResponse, error) {
	start := time.Now()

	adapters := h.registry.Enabled(req.Sources)
	if len(adapters) == 0 {
		metrics.HarvestRuns.WithLabelValues("no_sources").Inc()
		return &models.HarvestResponse{Success: false, Error: ErrNoSources.Error()}, ErrNoSources
	}

	sourcesUsed := make([]string, 0, len(adapters))
	bySource := make(map[string]models.SourceOutcome, len(adapters))
	for _, adapter := range adapters {
		sourcesUsed = append(sourcesUsed, adapter.Name())
		bySource[adapter.Name()] = models.SourceOutcome{}
	}

	cities, err := h.resolveCities(ctx, req)
	if err != nil {
		metrics.HarvestRuns.WithLabelValues("resolve_failed").Inc()
		return &models.HarvestResponse{Success: false, Error: err.Error(), SourcesUsed: sourcesUsed}, err
	}
	if len(cities) == 0 {
		// Nothing to do is a trivially successful run.
		metrics.HarvestRuns.WithLabelValues("no_cities").Inc()
		logging.Info().Msg("Harvest run found no target cities")
		return &models.HarvestResponse{Success: true, SourcesUsed: sourcesUsed, BySource: bySource}, nil
	}

	logging.Info().Int("cities", len(cities)).Strs("sources", sourcesUsed).Msg("Harvest run starting")

	summary := &models.HarvestResponse{
		Success:     true,
		SourcesUsed: sourcesUsed,
		BySource:    bySource,
	}

cityLoop:
	for ci, city := range cities {
		if ci > 0 {
			if err := h.pacer.Pause(ctx, h.cfg.CityDelay); err != nil {
				logging.Warn().Err(err).Msg("Harvest run cancelled between cities, returning partial summary")
				break
			}
		}

		for si, adapter := range adapters {
			if si > 0 {
				if err := h.pacer.Pause(ctx, h.cfg.SourceDelay); err != nil {
					logging.Warn().Err(err).Msg("Harvest run cancelled between sources, returning partial summary")
					break cityLoop
				}
			}
			h.harvestSource(ctx, city, adapter, summary)
			if ctx.Err() != nil {
				logging.Warn().Err(ctx.Err()).Msg("Harvest run cancelled, returning partial summary")
				break cityLoop
			}
		}

		summary.CitiesProcessed++
	}

	metrics.HarvestRuns.WithLabelValues("ok").Inc()
	metrics.HarvestDuration.Observe(time.Since(start).Seconds())
	logging.Info().
		Int("cities", summary.CitiesProcessed).
		Int("added", summary.EventsAdded).
		Dur("elapsed", time.Since(start)).
		Msg("Harvest run finished")

	return summary, nil
}

// harvestSource fetches one (city, source) batch and pushes every record
// through dedup, enrichment and persistence. All failures are contained
// here: they adjust the source's tallies and never propagate.
func (h *Harvester) harvestSource(ctx context.Context, city models.CityInfo, adapter sources.Adapter, summary *models.HarvestResponse) {
	name := adapter.Name()
	fetchStart := time.Now()

	events, err := adapter.FetchEvents(ctx, city)
	metrics.SourceFetchDuration.WithLabelValues(name).Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		// Informational: the batch (possibly partial) is still processed.
		logging.Warn().Str("source", name).Str("city", city.Name).Err(err).Msg("Source fetch reported errors")
		if len(events) == 0 {
			metrics.SourceFetchFailures.WithLabelValues(name).Inc()
		}
	}

	outcome := summary.BySource[name]
	defer func() { summary.BySource[name] = outcome }()

	for i := range events {
		event := &events[i]

		if err := event.Normalize(h.cfg.DefaultCurrency); err != nil {
			logging.Debug().Str("source", name).Err(err).Msg("Dropping malformed record")
			outcome.Errors++
			metrics.HarvestRecords.WithLabelValues(name, "error").Inc()
			continue
		}

		duplicate, err := h.isDuplicate(ctx, event)
		if err != nil {
			logging.Warn().Str("source", name).Str("event", event.Name).Err(err).Msg("Dedup check failed")
			outcome.Errors++
			metrics.HarvestRecords.WithLabelValues(name, "error").Inc()
			continue
		}
		if duplicate {
			outcome.Skipped++
			metrics.HarvestRecords.WithLabelValues(name, "skipped").Inc()
			continue
		}

		if err := h.persist(ctx, city, event); err != nil {
			logging.Warn().Str("source", name).Str("event", event.Name).Err(err).Msg("Failed to persist record")
			outcome.Errors++
			metrics.HarvestRecords.WithLabelValues(name, "error").Inc()
			continue
		}

		outcome.Added++
		summary.EventsAdded++
		metrics.HarvestRecords.WithLabelValues(name, "added").Inc()
	}

	logging.Info().
		Str("source", name).
		Str("city", city.Name).
		Int("added", outcome.Added).
		Int("skipped", outcome.Skipped).
		Int("errors", outcome.Errors).
		Msg("Source harvested")
}
