// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/agora-city/agora/internal/metrics"
	"github.com/agora-city/agora/internal/models"
)

// EventExists tests the dedup signature: whether an event with the same
// (name, start_date) pair is already stored. Name comparison is
// case-insensitive; scrapers routinely change casing between visits.
func (db *DB) EventExists(ctx context.Context, name, startDate string) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE lower(name) = lower(?) AND start_date = CAST(? AS DATE)`,
		name, startDate,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check event existence: %w", err)
	}

	return count > 0, nil
}

// InsertEvent persists one event row. The caller has already classified,
// tagged and geocode-filled the record; this is a single independent insert
// with no surrounding transaction - partial success within a batch is
// expected and acceptable.
func (db *DB) InsertEvent(ctx context.Context, event *models.Event) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	imageURLs, err := json.Marshal(event.ImageURLs)
	if err != nil {
		return fmt.Errorf("failed to encode image urls: %w", err)
	}
	tags, err := json.Marshal(event.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `INSERT INTO events (
		id, city_id, name, description, short_description, category,
		start_date, end_date, start_time, end_time,
		address, venue_name, latitude, longitude,
		price_from, price_to, currency, image_urls, tags,
		ticket_url, event_type, source, active, created_at
	) VALUES (?, ?, ?, ?, ?, ?, CAST(? AS DATE), CAST(? AS DATE), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = db.conn.ExecContext(ctx, query,
		event.ID, event.CityID, event.Name, event.Description, event.ShortDescription, event.Category,
		event.StartDate, event.EndDate, event.StartTime, event.EndTime,
		event.Address, event.VenueName, event.Latitude, event.Longitude,
		event.PriceFrom, event.PriceTo, event.Currency, string(imageURLs), string(tags),
		event.TicketURL, event.EventType, event.Source, event.Active, event.CreatedAt,
	)
	if err != nil {
		metrics.DBInserts.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to insert event %q: %w", event.Name, err)
	}

	metrics.DBInserts.WithLabelValues("ok").Inc()
	return nil
}

// CountEvents returns the number of stored events. Used by health reporting
// and tests.
func (db *DB) CountEvents(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// GetEventByName fetches one stored event by exact name, most recent first.
// Test helper for round-trip assertions.
func (db *DB) GetEventByName(ctx context.Context, name string) (*models.Event, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, city_id, name, COALESCE(description, ''), COALESCE(short_description, ''),
		category, CAST(start_date AS VARCHAR), CAST(end_date AS VARCHAR),
		COALESCE(start_time, ''), COALESCE(end_time, ''),
		COALESCE(address, ''), COALESCE(venue_name, ''), latitude, longitude,
		price_from, price_to, currency, COALESCE(image_urls, '[]'), COALESCE(tags, '[]'),
		COALESCE(ticket_url, ''), COALESCE(event_type, ''), source, active, created_at
	FROM events WHERE name = ? ORDER BY created_at DESC LIMIT 1`

	row := db.conn.QueryRowContext(ctx, query, name)

	var event models.Event
	var imageURLs, tags string
	err := row.Scan(
		&event.ID, &event.CityID, &event.Name, &event.Description, &event.ShortDescription,
		&event.Category, &event.StartDate, &event.EndDate,
		&event.StartTime, &event.EndTime,
		&event.Address, &event.VenueName, &event.Latitude, &event.Longitude,
		&event.PriceFrom, &event.PriceTo, &event.Currency, &imageURLs, &tags,
		&event.TicketURL, &event.EventType, &event.Source, &event.Active, &event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get event %q: %w", name, err)
	}

	if err := json.Unmarshal([]byte(imageURLs), &event.ImageURLs); err != nil {
		return nil, fmt.Errorf("failed to decode image urls: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &event.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}

	return &event, nil
}
