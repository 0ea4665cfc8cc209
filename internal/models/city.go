// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package models

// CityInfo is the per-run description of a target city.
//
// It is constructed fresh for each harvest run, either from caller input or
// from a bounded read of the city catalog, and is never mutated afterwards.
// ID is nil when the city is not present in the catalog; events harvested for
// such a city are stored with a NULL city reference.
type CityInfo struct {
	ID        *int64  `json:"id,omitempty"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HasCoordinates reports whether the city carries usable coordinates.
// (0,0) is treated as unset: it is open ocean, not a plausible catalog city.
func (c CityInfo) HasCoordinates() bool {
	return c.Latitude != 0 || c.Longitude != 0
}
