// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar date format used throughout the pipeline.
const DateLayout = "2006-01-02"

// NormalizedEvent is the canonical intermediate shape every source adapter
// must produce. Adapters own the provider-specific fetch/parse/extract logic;
// everything downstream (dedup, classification, geocoding, persistence)
// operates on this one shape.
//
// Invariants, enforced by Normalize():
//   - StartDate is a valid YYYY-MM-DD calendar date
//   - EndDate >= StartDate once defaulted
//   - Source is a non-empty registered adapter name
type NormalizedEvent struct {
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	ShortDescription string   `json:"short_description,omitempty"`
	// Category is the provider-assigned category, set only by structured
	// sources whose API carries one. When present it is stored as-is; the
	// keyword classifier only runs for records without it.
	Category string `json:"category,omitempty"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date,omitempty"`
	StartTime        string   `json:"start_time,omitempty"`
	EndTime          string   `json:"end_time,omitempty"`
	Address          string   `json:"address,omitempty"`
	VenueName        string   `json:"venue_name,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	PriceFrom        *float64 `json:"price_from,omitempty"`
	PriceTo          *float64 `json:"price_to,omitempty"`
	Currency         string   `json:"currency,omitempty"`
	ImageURLs        []string `json:"image_urls,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	TicketURL        string   `json:"ticket_url,omitempty"`
	EventType        string   `json:"event_type,omitempty"`
	Source           string   `json:"source"`
}

// Normalize validates the required fields and applies defaults: EndDate falls
// back to StartDate, Currency falls back to defaultCurrency. Records failing
// validation are record-local errors - the caller skips them and continues.
func (e *NormalizedEvent) Normalize(defaultCurrency string) error {
	if e.Name == "" {
		return fmt.Errorf("event has no name")
	}
	if e.Source == "" {
		return fmt.Errorf("event %q has no source", e.Name)
	}

	start, err := time.Parse(DateLayout, e.StartDate)
	if err != nil {
		return fmt.Errorf("event %q has unparseable start date %q", e.Name, e.StartDate)
	}

	if e.EndDate == "" {
		e.EndDate = e.StartDate
	} else if end, err := time.Parse(DateLayout, e.EndDate); err != nil || end.Before(start) {
		// Unparseable or inverted end dates collapse to the start date rather
		// than discarding the record.
		e.EndDate = e.StartDate
	}

	if e.Currency == "" {
		e.Currency = defaultCurrency
	}

	return nil
}

// HasCoordinates reports whether both coordinates were filled by the source.
func (e *NormalizedEvent) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// Event is the persisted store-side record: a NormalizedEvent plus the fields
// this core generates on write (category, merged tags, active flag, city FK).
// This core only ever inserts events; updates and deletion belong to the
// surrounding application.
type Event struct {
	ID               uuid.UUID `json:"id"`
	CityID           *int64    `json:"city_id,omitempty"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	ShortDescription string    `json:"short_description,omitempty"`
	Category         string    `json:"category"`
	StartDate        string    `json:"start_date"`
	EndDate          string    `json:"end_date"`
	StartTime        string    `json:"start_time,omitempty"`
	EndTime          string    `json:"end_time,omitempty"`
	Address          string    `json:"address,omitempty"`
	VenueName        string    `json:"venue_name,omitempty"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
	PriceFrom        *float64  `json:"price_from,omitempty"`
	PriceTo          *float64  `json:"price_to,omitempty"`
	Currency         string    `json:"currency"`
	ImageURLs        []string  `json:"image_urls,omitempty"`
	Tags             []string  `json:"tags"`
	TicketURL        string    `json:"ticket_url,omitempty"`
	EventType        string    `json:"event_type,omitempty"`
	Source           string    `json:"source"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}

// Activity is a catalog place row (read-only for this core). The harvest
// pipeline consults activities during deduplication: a scraped event whose
// name is contained in an existing place name is treated as a re-discovery
// of that place, not a new event.
type Activity struct {
	ID        int64    `json:"id"`
	CityID    *int64   `json:"city_id,omitempty"`
	Name      string   `json:"name"`
	Category  string   `json:"category,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}
