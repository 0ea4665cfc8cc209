// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package pipeline

import (
	"context"
	"fmt"

	"github.com/agora-city/agora/internal/classify"
	"github.com/agora-city/agora/internal/models"
)

// persist enriches one normalized record and writes it.
//
// Enrichment order matters only for geocoding: classification and tagging
// are pure text work, the geocode-fill runs last so a record that already
// carries coordinates never costs a lookup. Missing coordinates after a
// failed lookup are acceptable - the record is stored without them.
func (h *Harvester) persist(ctx context.Context, city models.CityInfo, event *models.NormalizedEvent) error {
	text := event.Name + " " + event.Description

	// A provider-assigned category wins over the keyword classifier: the
	// structured source already knows what kind of place it returned, and a
	// venue name rarely contains its own category keywords.
	category := event.Category
	if category == "" {
		category = classify.Match(text)
	}
	tags := classify.MergeTags(event.Tags, classify.ExtractTags(text), []string{event.Source})

	if !event.HasCoordinates() {
		h.fillCoordinates(ctx, city, event)
	}

	stored := models.Event{
		CityID:           city.ID,
		Name:             event.Name,
		Description:      event.Description,
		ShortDescription: event.ShortDescription,
		Category:         category,
		StartDate:        event.StartDate,
		EndDate:          event.EndDate,
		StartTime:        event.StartTime,
		EndTime:          event.EndTime,
		Address:          event.Address,
		VenueName:        event.VenueName,
		Latitude:         event.Latitude,
		Longitude:        event.Longitude,
		PriceFrom:        event.PriceFrom,
		PriceTo:          event.PriceTo,
		Currency:         event.Currency,
		ImageURLs:        event.ImageURLs,
		Tags:             tags,
		TicketURL:        event.TicketURL,
		EventType:        event.EventType,
		Source:           event.Source,
		Active:           true,
	}

	if err := h.db.InsertEvent(ctx, &stored); err != nil {
		return fmt.Errorf("failed to persist event: %w", err)
	}
	return nil
}

// fillCoordinates resolves missing event coordinates, best address first,
// falling back to the city's own coordinates. Geocoder failures leave the
// record without coordinates; they never fail the record.
func (h *Harvester) fillCoordinates(ctx context.Context, city models.CityInfo, event *models.NormalizedEvent) {
	address := event.Address
	if address == "" && event.VenueName != "" {
		address = event.VenueName + ", " + city.Name
	}

	if address != "" {
		coords, err := h.geocoder.Geocode(ctx, address)
		if err == nil && coords != nil {
			event.Latitude = &coords.Latitude
			event.Longitude = &coords.Longitude
			return
		}
	}

	if city.HasCoordinates() {
		lat, lon := city.Latitude, city.Longitude
		event.Latitude = &lat
		event.Longitude = &lon
	}
}
