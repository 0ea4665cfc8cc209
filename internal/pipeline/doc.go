// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

// Package pipeline orchestrates one harvest run: resolve target cities,
// select enabled sources, then for every (city, source) pair fetch candidate
// events and push each one through dedup, classification, tagging, geocoding
// and persistence.
//
// The run is strictly sequential - one city, one source, one record at a
// time - with configured pauses between sources and cities. This is
// deliberate client-side throttling: the providers involved are free or
// cheap tiers that ban bursty clients. The injected Pacer makes the
// sequencing policy explicit and lets tests run with zero delays.
//
// Failure containment is the core contract: a failed record never aborts its
// batch, a failed source never aborts its city, and a failed city never
// aborts the run. The only fatal condition is having zero enabled sources.
package pipeline
