// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package database

import (
	"context"
	"fmt"

	"github.com/agora-city/agora/internal/models"
)

// ActivityNameContains reports whether any catalog place name contains the
// given event name as a case-insensitive substring. Scraped "events" that are
// really venue pages (e.g. "Paradiso" extracted from a listing about the
// Paradiso concert hall) are caught here and skipped by deduplication.
//
// An empty name never matches: LIKE '%%' would match every row.
func (db *DB) ActivityNameContains(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activities WHERE lower(name) LIKE '%' || lower(?) || '%'`,
		name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check activity containment: %w", err)
	}

	return count > 0, nil
}

// InsertActivity adds a catalog place. The harvest core itself never creates
// activities in production; this exists for seeding and tests.
func (db *DB) InsertActivity(ctx context.Context, activity *models.Activity) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO activities (id, city_id, name, category, latitude, longitude)
		 VALUES (nextval('seq_activities'), ?, ?, ?, ?, ?) RETURNING id`,
		activity.CityID, activity.Name, activity.Category, activity.Latitude, activity.Longitude,
	).Scan(&activity.ID)
	if err != nil {
		return fmt.Errorf("failed to insert activity %q: %w", activity.Name, err)
	}

	return nil
}
