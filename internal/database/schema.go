// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema creates the store tables if they do not exist.
//
// countries, cities and activities are catalogs owned by the surrounding
// application; they are created here as well so a fresh deployment (and the
// test suite) has a complete schema to run against. events is the one table
// this core writes.
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_countries START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_cities START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_activities START 1`,

		`CREATE TABLE IF NOT EXISTS countries (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_countries'),
			name TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS cities (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_cities'),
			name TEXT NOT NULL,
			country_id BIGINT REFERENCES countries(id),
			latitude DOUBLE,
			longitude DOUBLE
		)`,

		// Generic place catalog seeded by the structured POI source and the
		// surrounding application. Read-only for the harvest pipeline except
		// through the dedup containment check.
		`CREATE TABLE IF NOT EXISTS activities (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_activities'),
			city_id BIGINT REFERENCES cities(id),
			name TEXT NOT NULL,
			category TEXT,
			latitude DOUBLE,
			longitude DOUBLE
		)`,

		`CREATE TABLE IF NOT EXISTS events (
			id UUID PRIMARY KEY,
			city_id BIGINT REFERENCES cities(id),
			name TEXT NOT NULL,
			description TEXT,
			short_description TEXT,
			category TEXT NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			start_time TEXT,
			end_time TEXT,
			address TEXT,
			venue_name TEXT,
			latitude DOUBLE,
			longitude DOUBLE,
			price_from DOUBLE,
			price_to DOUBLE,
			currency TEXT NOT NULL,
			image_urls TEXT,
			tags TEXT,
			ticket_url TEXT,
			event_type TEXT,
			source TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Dedup signature lookup and city-scoped listings.
		`CREATE INDEX IF NOT EXISTS idx_events_name_start ON events(name, start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_events_city ON events(city_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cities_name ON cities(name)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %s: %w", query, err)
		}
	}

	return nil
}
