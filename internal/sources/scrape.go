// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agora-city/agora/internal/config"
	"github.com/agora-city/agora/internal/logging"
	"github.com/agora-city/agora/internal/models"
)

// searchWindow renders the current and upcoming months as a search query
// hint ("September 2026 October 2026"), steering results toward listings
// inside the harvest window rather than archived ones.
func searchWindow(now time.Time, months int) string {
	if months <= 0 {
		months = 2
	}
	parts := make([]string, 0, months)
	for i := 0; i < months; i++ {
		m := now.AddDate(0, i, 0)
		parts = append(parts, fmt.Sprintf("%s %d", m.Month(), m.Year()))
	}
	return strings.Join(parts, " ")
}

// ScrapeAdapter is one search-and-extract source. All scraping adapters
// share the same fetch routine (FirecrawlClient.harvestQuery); they differ
// only in name and in how the search query is built. The three site-scoped
// listing adapters and the local-press adapter are all this one type.
type ScrapeAdapter struct {
	name         string
	client       *FirecrawlClient
	buildQuery   func(city models.CityInfo, window string) string
	windowMonths int

	now func() time.Time
}

func newScrapeAdapter(name string, client *FirecrawlClient, pipeline *config.PipelineConfig,
	buildQuery func(city models.CityInfo, window string) string) *ScrapeAdapter {
	return &ScrapeAdapter{
		name:         name,
		client:       client,
		buildQuery:   buildQuery,
		windowMonths: pipeline.SearchWindowMonths,
		now:          time.Now,
	}
}

// NewSiteAdapter creates a scraping adapter scoped to one event listing
// site. Used for eventbrite, meetup and residentadvisor, which are
// identical apart from the host their searches are scoped to.
func NewSiteAdapter(name, host string, client *FirecrawlClient, pipeline *config.PipelineConfig) *ScrapeAdapter {
	return newScrapeAdapter(name, client, pipeline, func(city models.CityInfo, window string) string {
		return fmt.Sprintf("site:%s events in %s %s", host, city.Name, window)
	})
}

// NewLocalPressAdapter creates the local-press scraping adapter. Same
// routine as the site-scoped adapters; the query targets "what's on" and
// agenda pages of local news outlets instead of one listing site.
func NewLocalPressAdapter(client *FirecrawlClient, pipeline *config.PipelineConfig) *ScrapeAdapter {
	return newScrapeAdapter("localpress", client, pipeline, func(city models.CityInfo, window string) string {
		return fmt.Sprintf("\"what's on\" OR agenda %s events local news %s", city.Name, window)
	})
}

func (a *ScrapeAdapter) Name() string { return a.name }

func (a *ScrapeAdapter) Enabled() bool { return a.client.enabled() }

func (a *ScrapeAdapter) FetchEvents(ctx context.Context, city models.CityInfo) ([]models.NormalizedEvent, error) {
	query := a.buildQuery(city, searchWindow(a.now(), a.windowMonths))
	return a.client.harvestQuery(ctx, query, city, a.name)
}

// webcrawlThemes are the general catch-all's open-web queries. One search
// per theme, paced, so a single city pass never bursts the search provider.
var webcrawlThemes = []string{
	"concerts and live music",
	"theater and performing arts",
	"art exhibitions and galleries",
	"outdoor activities and markets",
	"cultural festivals",
	"food and culinary events",
}

// WebcrawlAdapter is the general catch-all scraping source: thematic
// open-web searches with no site scope, for events the listing sites and
// local press miss.
type WebcrawlAdapter struct {
	client       *FirecrawlClient
	pacer        Pacer
	themeDelay   time.Duration
	windowMonths int

	now func() time.Time
}

// NewWebcrawlAdapter constructs the catch-all adapter. Enabled whenever the
// shared search-and-extract client is.
func NewWebcrawlAdapter(client *FirecrawlClient, pipeline *config.PipelineConfig, pacer Pacer) *WebcrawlAdapter {
	return &WebcrawlAdapter{
		client:       client,
		pacer:        pacer,
		themeDelay:   pipeline.ThemeDelay,
		windowMonths: pipeline.SearchWindowMonths,
		now:          time.Now,
	}
}

func (a *WebcrawlAdapter) Name() string { return "webcrawl" }

func (a *WebcrawlAdapter) Enabled() bool { return a.client.enabled() }

// FetchEvents runs every thematic query in turn, pacing between themes.
// A failed theme is logged and skipped; the remaining themes still run.
func (a *WebcrawlAdapter) FetchEvents(ctx context.Context, city models.CityInfo) ([]models.NormalizedEvent, error) {
	window := searchWindow(a.now(), a.windowMonths)

	var events []models.NormalizedEvent
	var errs []error

	for i, theme := range webcrawlThemes {
		if i > 0 {
			if err := a.pacer.Pause(ctx, a.themeDelay); err != nil {
				return events, err
			}
		}

		query := fmt.Sprintf("%s in %s %s", theme, city.Name, window)
		batch, err := a.client.harvestQuery(ctx, query, city, a.Name())
		if err != nil {
			logging.Warn().Str("source", a.Name()).Str("theme", theme).Err(err).Msg("Thematic query failed")
			errs = append(errs, fmt.Errorf("theme %q: %w", theme, err))
			continue
		}
		events = append(events, batch...)
	}

	return events, errors.Join(errs...)
}
