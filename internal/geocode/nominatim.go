// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

// Package geocode wraps the free Nominatim address lookup service.
//
// The service is unauthenticated and rate-limited by politeness convention:
// a distinct User-Agent is mandatory and requests are paced to one per
// second via golang.org/x/time/rate. Every failure mode (network error,
// non-2xx status, empty result set) surfaces as the typed "unknown" outcome
// rather than an error the caller must branch on - callers proceed without
// coordinates.
package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/agora-city/agora/internal/cache"
	"github.com/agora-city/agora/internal/config"
	"github.com/agora-city/agora/internal/logging"
	"github.com/agora-city/agora/internal/metrics"
)

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Geocoder resolves free-text addresses to coordinates.
// Implementations must return (nil, nil)-style unknown outcomes on failure;
// a nil *Coordinates means "proceed without coordinates", never "abort".
type Geocoder interface {
	// Geocode resolves an address. A nil result with nil error is the
	// "unknown" outcome and is not exceptional.
	Geocode(ctx context.Context, address string) (*Coordinates, error)
}

// nominatimResult is one entry of Nominatim's JSON search response.
// Coordinates arrive as strings.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Client is a Nominatim-backed Geocoder.
//
// Thread Safety: safe for concurrent use; the shared rate limiter serializes
// request admission.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	results    *cache.Cache[*Coordinates]
}

// NewClient creates a Nominatim client from configuration.
// Nominatim's usage policy caps anonymous clients at 1 request/second, so
// the limiter is fixed at that rate regardless of configuration. Resolved
// lookups, including the unknown outcome, are cached for cfg.CacheTTL so
// repeated harvests of the same venues do not burn politeness slots.
func NewClient(cfg *config.GeocoderConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		results:    cache.New[*Coordinates](cfg.CacheTTL),
	}
}

// Close releases the client's lookup cache.
func (c *Client) Close() {
	c.results.Close()
}

// Geocode resolves a free-text address to coordinates via one Nominatim
// search call. Any failure returns (nil, nil): geocoding is best-effort and
// must never abort the caller's record processing.
func (c *Client) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	if address == "" {
		return nil, nil
	}

	key := strings.ToLower(strings.TrimSpace(address))
	if coords, ok := c.results.Get(key); ok {
		metrics.GeocodeRequests.WithLabelValues("cached").Inc()
		return coords, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		// Context cancelled while waiting for a politeness slot.
		return nil, err
	}

	coords, err := c.lookup(ctx, address)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		logging.Warn().Err(err).Str("address", address).Msg("Geocode lookup failed, proceeding without coordinates")
		return nil, nil
	}
	if coords == nil {
		metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		logging.Debug().Str("address", address).Msg("Geocode returned no results")
		// An address Nominatim cannot resolve today will not resolve on
		// the next harvest either; cache the unknown outcome too.
		c.results.Set(key, nil)
		return nil, nil
	}

	metrics.GeocodeRequests.WithLabelValues("ok").Inc()
	c.results.Set(key, coords)
	return coords, nil
}

// lookup performs the raw Nominatim search request.
func (c *Client) lookup(ctx context.Context, address string) (*Coordinates, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Nominatim: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Nominatim returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode Nominatim response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("unparseable latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("unparseable longitude %q: %w", results[0].Lon, err)
	}

	return &Coordinates{Latitude: lat, Longitude: lon}, nil
}
