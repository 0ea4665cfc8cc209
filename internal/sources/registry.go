// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package sources

import (
	"github.com/agora-city/agora/internal/config"
)

// BuildRegistry constructs the full adapter set in canonical order. The
// order is deliberate: the structured source runs first so the place catalog
// signal lands before the noisier scraped sources, and the general catch-all
// runs last.
func BuildRegistry(cfg *config.Config, pacer Pacer) *Registry {
	firecrawl := NewFirecrawlClient(&cfg.Firecrawl)

	return NewRegistry(
		NewFoursquareAdapter(&cfg.Foursquare, &cfg.Pipeline, pacer),
		NewSiteAdapter("eventbrite", "www.eventbrite.com", firecrawl, &cfg.Pipeline),
		NewSiteAdapter("meetup", "www.meetup.com", firecrawl, &cfg.Pipeline),
		NewSiteAdapter("residentadvisor", "ra.co", firecrawl, &cfg.Pipeline),
		NewLocalPressAdapter(firecrawl, &cfg.Pipeline),
		NewWebcrawlAdapter(firecrawl, &cfg.Pipeline, pacer),
	)
}
