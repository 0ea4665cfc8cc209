// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/agora-city/agora/internal/models"
)

// GetCityByName looks up a catalog city by name (case-insensitive), joined
// with its country name. Returns (nil, nil) when the city is not in the
// catalog - an unknown city is not an error for the harvest pipeline.
func (db *DB) GetCityByName(ctx context.Context, name string) (*models.CityInfo, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT c.id, c.name, COALESCE(co.name, ''), COALESCE(c.latitude, 0), COALESCE(c.longitude, 0)
		FROM cities c
		LEFT JOIN countries co ON co.id = c.country_id
		WHERE lower(c.name) = lower(?)
		LIMIT 1`

	return db.scanCity(db.conn.QueryRowContext(ctx, query, strings.TrimSpace(name)))
}

// GetCityByID looks up a catalog city by id. Returns (nil, nil) when absent.
func (db *DB) GetCityByID(ctx context.Context, id int64) (*models.CityInfo, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT c.id, c.name, COALESCE(co.name, ''), COALESCE(c.latitude, 0), COALESCE(c.longitude, 0)
		FROM cities c
		LEFT JOIN countries co ON co.id = c.country_id
		WHERE c.id = ?`

	return db.scanCity(db.conn.QueryRowContext(ctx, query, id))
}

func (db *DB) scanCity(row *sql.Row) (*models.CityInfo, error) {
	var city models.CityInfo
	var id int64
	err := row.Scan(&id, &city.Name, &city.Country, &city.Latitude, &city.Longitude)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan city: %w", err)
	}
	city.ID = &id
	return &city, nil
}

// ListCities reads up to limit catalog cities joined with their country
// names. The bound is deliberate: an unbounded "every city in the catalog"
// run is the external scheduler's job, not one invocation's.
func (db *DB) ListCities(ctx context.Context, limit int) ([]models.CityInfo, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `SELECT c.id, c.name, COALESCE(co.name, ''), COALESCE(c.latitude, 0), COALESCE(c.longitude, 0)
		FROM cities c
		LEFT JOIN countries co ON co.id = c.country_id
		ORDER BY c.id
		LIMIT ?`

	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	defer rows.Close()

	var cities []models.CityInfo
	for rows.Next() {
		var city models.CityInfo
		var id int64
		if err := rows.Scan(&id, &city.Name, &city.Country, &city.Latitude, &city.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan city row: %w", err)
		}
		city.ID = &id
		cities = append(cities, city)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cities: %w", err)
	}

	return cities, nil
}

// InsertCity adds a city (and its country, if new) to the catalog and
// returns the city id. The catalog is owned by the surrounding application;
// this method exists for seeding and tests.
func (db *DB) InsertCity(ctx context.Context, name, country string, lat, lon float64) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var countryID *int64
	if country != "" {
		id, err := db.upsertCountry(ctx, country)
		if err != nil {
			return 0, err
		}
		countryID = &id
	}

	var cityID int64
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO cities (name, country_id, latitude, longitude) VALUES (?, ?, ?, ?) RETURNING id`,
		name, countryID, lat, lon,
	).Scan(&cityID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert city %q: %w", name, err)
	}

	return cityID, nil
}

func (db *DB) upsertCountry(ctx context.Context, name string) (int64, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx, `SELECT id FROM countries WHERE lower(name) = lower(?)`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up country %q: %w", name, err)
	}

	err = db.conn.QueryRowContext(ctx, `INSERT INTO countries (name) VALUES (?) RETURNING id`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert country %q: %w", name, err)
	}
	return id, nil
}
