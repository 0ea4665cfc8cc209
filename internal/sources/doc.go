// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

// Package sources implements the provider adapters that feed the harvest
// pipeline. Each adapter owns its provider-specific fetch/parse/extract
// logic and emits the canonical models.NormalizedEvent shape; everything
// downstream is provider-agnostic.
//
// Two fetch strategies exist:
//
//   - foursquare: structured Places API lookups per category bucket. The
//     response carries coordinates, addresses and photos directly.
//   - scraping (eventbrite, meetup, residentadvisor, localpress, webcrawl):
//     web search followed by LLM-backed structured extraction from the top
//     result pages. The site-scoped adapters differ only in how they build
//     the search query.
//
// Adapters are enabled by credential presence alone: constructing an adapter
// without its provider credential yields a disabled adapter that the registry
// filters out. Fetch errors are informational - adapters return whatever
// partial batch they collected, and the orchestrator logs and continues.
package sources
