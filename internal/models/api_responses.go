// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package models

// HarvestRequest is the trigger contract body. All fields are optional:
// with City+Country the run targets exactly that city; with nothing the run
// targets a bounded batch of catalog cities. Sources, when present, restricts
// the run to the named providers.
type HarvestRequest struct {
	City    string   `json:"city,omitempty" validate:"omitempty,max=128"`
	Country string   `json:"country,omitempty" validate:"omitempty,max=128"`
	CityID  *int64   `json:"city_id,omitempty" validate:"omitempty,min=1"`
	Sources []string `json:"sources,omitempty" validate:"omitempty,dive,min=1,max=64"`
}

// SourceOutcome is the per-provider tally of one harvest run.
// Skipped counts deduplicated records; they are neither added nor errors.
type SourceOutcome struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// HarvestResponse is the structured outcome of one harvest run. It is
// returned even when every source failed outright; Success is false only for
// configuration-fatal conditions (zero enabled sources).
type HarvestResponse struct {
	Success         bool                     `json:"success"`
	Error           string                   `json:"error,omitempty"`
	SourcesUsed     []string                 `json:"sources_used,omitempty"`
	BySource        map[string]SourceOutcome `json:"by_source,omitempty"`
	CitiesProcessed int                      `json:"cities_processed"`
	EventsAdded     int                      `json:"events_added"`
}

// APIError is the structured error payload for non-harvest endpoints.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
