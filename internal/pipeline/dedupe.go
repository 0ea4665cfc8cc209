// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package pipeline

import (
	"context"
	"fmt"

	"github.com/agora-city/agora/internal/models"
)

// isDuplicate decides whether an incoming record is already represented in
// the store. Two checks:
//
//  1. Exact signature: an event with the same (name, start date) exists.
//  2. Catalog containment, scraped records only: the record's name appears
//     inside an existing catalog place name. Scrapers routinely surface
//     venue pages as "events"; a name contained in a known place name is a
//     re-discovery of that place, not a new event. Structured records skip
//     this check - their provider already distinguishes places from events.
//
// The containment heuristic is deliberately loose; it trades occasional
// false drops of venue-named events for a much lower duplicate rate.
func (h *Harvester) isDuplicate(ctx context.Context, event *models.NormalizedEvent) (bool, error) {
	exists, err := h.db.EventExists(ctx, event.Name, event.StartDate)
	if err != nil {
		return false, fmt.Errorf("dedup signature check failed: %w", err)
	}
	if exists {
		return true, nil
	}

	if event.EventType == "place" {
		return false, nil
	}

	contained, err := h.db.ActivityNameContains(ctx, event.Name)
	if err != nil {
		return false, fmt.Errorf("dedup containment check failed: %w", err)
	}
	return contained, nil
}
