// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/agora-city/agora/internal/config"
	"github.com/agora-city/agora/internal/logging"
	"github.com/agora-city/agora/internal/models"
)

// foursquareBucket maps one Places API category filter to the label attached
// to everything found through it. The table is fixed: buckets are the
// adapter's notion of "what kinds of places are worth surfacing as outings".
type foursquareBucket struct {
	// categories is the comma-separated Places API category id filter.
	categories string
	// label seeds the tags of every place found through this bucket.
	label string
}

var foursquareBuckets = []foursquareBucket{
	{categories: "10000", label: "performing-arts"}, // Arts and Entertainment
	{categories: "10032,10039", label: "nightlife"}, // Night Club, Music Venue
	{categories: "13000", label: "food-drink"},      // Dining and Drinking
	{categories: "16000", label: "outdoors"},        // Landmarks and Outdoors
	{categories: "18000", label: "sports"},          // Sports and Recreation
}

const foursquareBucketLimit = 10

// FoursquareAdapter is the structured POI source. One Places API search per
// category bucket; the response carries names, addresses and coordinates
// directly, so nothing found here ever needs the geocoder. Places have no
// schedule of their own - each is emitted as available "today".
type FoursquareAdapter struct {
	apiKey        string
	baseURL       string
	client        *http.Client
	breaker       *apiBreaker
	pacer         Pacer
	categoryDelay time.Duration

	// now is injectable for date-stamping tests.
	now func() time.Time
}

// NewFoursquareAdapter constructs the adapter. A missing API key yields a
// disabled adapter; construction never fails.
func NewFoursquareAdapter(cfg *config.FoursquareConfig, pipeline *config.PipelineConfig, pacer Pacer) *FoursquareAdapter {
	return &FoursquareAdapter{
		apiKey:        cfg.APIKey,
		baseURL:       cfg.BaseURL,
		client:        &http.Client{Timeout: 30 * time.Second},
		breaker:       newAPIBreaker("foursquare-api"),
		pacer:         pacer,
		categoryDelay: pipeline.CategoryDelay,
		now:           time.Now,
	}
}

func (a *FoursquareAdapter) Name() string { return "foursquare" }

func (a *FoursquareAdapter) Enabled() bool { return a.apiKey != "" }

// FetchEvents searches each category bucket in turn, pacing between buckets.
// A failed bucket is logged and skipped; the remaining buckets still run.
func (a *FoursquareAdapter) FetchEvents(ctx context.Context, city models.CityInfo) ([]models.NormalizedEvent, error) {
	var events []models.NormalizedEvent
	var errs []error

	today := a.now().Format(models.DateLayout)

	for i, bucket := range foursquareBuckets {
		if i > 0 {
			if err := a.pacer.Pause(ctx, a.categoryDelay); err != nil {
				return events, err
			}
		}

		places, err := a.searchBucket(ctx, city, bucket)
		if err != nil {
			logging.Warn().Str("source", a.Name()).Str("bucket", bucket.label).Err(err).Msg("Category bucket search failed")
			errs = append(errs, fmt.Errorf("bucket %s: %w", bucket.label, err))
			continue
		}

		for _, place := range places {
			event, ok := place.toEvent(today, bucket.label)
			if !ok {
				continue
			}
			events = append(events, event)
		}
	}

	return events, errors.Join(errs...)
}

// foursquarePlace mirrors the subset of the Places API search response the
// adapter consumes.
type foursquarePlace struct {
	FsqID      string `json:"fsq_id"`
	Name       string `json:"name"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Geocodes struct {
		Main struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"main"`
	} `json:"geocodes"`
	Location struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"location"`
	Description string `json:"description"`
}

type foursquareSearchResponse struct {
	Results []foursquarePlace `json:"results"`
}

func (p foursquarePlace) toEvent(date, bucketLabel string) (models.NormalizedEvent, bool) {
	if p.Name == "" {
		return models.NormalizedEvent{}, false
	}

	lat := p.Geocodes.Main.Latitude
	lon := p.Geocodes.Main.Longitude

	event := models.NormalizedEvent{
		Name:        p.Name,
		Description: p.Description,
		Category:    bucketLabel,
		StartDate:   date,
		Address:     p.Location.FormattedAddress,
		VenueName:   p.Name,
		Tags:        []string{bucketLabel},
		EventType:   "place",
		Source:      "foursquare",
	}
	if lat != 0 || lon != 0 {
		event.Latitude = &lat
		event.Longitude = &lon
	}
	if len(p.Categories) > 0 {
		event.ShortDescription = p.Categories[0].Name
	}
	return event, true
}

func (a *FoursquareAdapter) searchBucket(ctx context.Context, city models.CityInfo, bucket foursquareBucket) ([]foursquarePlace, error) {
	near := city.Name
	if city.Country != "" {
		near = city.Name + ", " + city.Country
	}

	params := url.Values{}
	params.Set("near", near)
	params.Set("categories", bucket.categories)
	params.Set("limit", fmt.Sprintf("%d", foursquareBucketLimit))
	params.Set("sort", "POPULARITY")

	reqURL := fmt.Sprintf("%s/places/search?%s", a.baseURL, params.Encode())

	body, err := a.breaker.execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", a.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := a.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	})
	if err != nil {
		return nil, err
	}

	var decoded foursquareSearchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return decoded.Results, nil
}
