// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/agora-city/agora/internal/logging"
	"github.com/agora-city/agora/internal/models"
)

// resolveCities turns the request into the list of target cities.
//
// Three shapes:
//   - explicit city id: catalog lookup, unknown id is an error (the caller
//     named a row that does not exist)
//   - explicit city name: catalog lookup for coordinates and country; a city
//     absent from the catalog, or a catalog row without coordinates on file,
//     has its coordinates resolved through the geocoder when possible
//   - nothing: a bounded batch of catalog cities
func (h *Harvester) resolveCities(ctx context.Context, req models.HarvestRequest) ([]models.CityInfo, error) {
	if req.CityID != nil {
		city, err := h.db.GetCityByID(ctx, *req.CityID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve city id %d: %w", *req.CityID, err)
		}
		if city == nil {
			return nil, fmt.Errorf("%w: %d", ErrUnknownCity, *req.CityID)
		}
		return []models.CityInfo{*city}, nil
	}

	if name := strings.TrimSpace(req.City); name != "" {
		city, err := h.db.GetCityByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve city %q: %w", name, err)
		}
		if city != nil {
			// Catalog rows can predate their coordinates; geocode those
			// too so the per-event city fallback has something to use.
			if !city.HasCoordinates() {
				if err := h.geocodeCity(ctx, city); err != nil {
					return nil, err
				}
			}
			return []models.CityInfo{*city}, nil
		}

		// Not in the catalog: harvest anyway, geocoding "{city}, {country}"
		// for coordinates. An unknown geocode outcome just means the run
		// relies on per-event geocoding instead.
		resolved := models.CityInfo{Name: name, Country: strings.TrimSpace(req.Country)}
		if err := h.geocodeCity(ctx, &resolved); err != nil {
			return nil, err
		}
		return []models.CityInfo{resolved}, nil
	}

	cities, err := h.db.ListCities(ctx, h.cfg.MaxCities)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog cities: %w", err)
	}
	return cities, nil
}

// geocodeCity fills a city's coordinates from a "{city}, {country}" lookup.
// An unknown outcome leaves the city without coordinates and the run relies
// on per-event geocoding instead; only a cancelled lookup is an error.
func (h *Harvester) geocodeCity(ctx context.Context, city *models.CityInfo) error {
	address := city.Name
	if city.Country != "" {
		address = city.Name + ", " + city.Country
	}
	coords, err := h.geocoder.Geocode(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to geocode city %q: %w", city.Name, err)
	}
	if coords != nil {
		city.Latitude = coords.Latitude
		city.Longitude = coords.Longitude
	} else {
		logging.Warn().Str("city", city.Name).Msg("City geocoding came back unknown")
	}
	return nil
}
