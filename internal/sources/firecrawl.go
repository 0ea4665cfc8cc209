// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/agora-city/agora/internal/config"
	"github.com/agora-city/agora/internal/logging"
	"github.com/agora-city/agora/internal/models"
)

// FirecrawlClient talks to the web-search-and-extract API shared by every
// scraping adapter: /search finds candidate pages, /scrape with an extract
// schema pulls structured event listings out of them. One client instance is
// shared across all scraping adapters so they share a circuit breaker and
// rate-limit budget.
type FirecrawlClient struct {
	apiKey     string
	baseURL    string
	maxResults int
	client     *http.Client
	breaker    *apiBreaker

	maxRetries     int
	retryBaseDelay time.Duration
}

// NewFirecrawlClient constructs the shared client. A missing API key yields
// a client whose adapters all report disabled.
func NewFirecrawlClient(cfg *config.FirecrawlConfig) *FirecrawlClient {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 3
	}
	return &FirecrawlClient{
		apiKey:         cfg.APIKey,
		baseURL:        cfg.BaseURL,
		maxResults:     maxResults,
		client:         &http.Client{Timeout: 90 * time.Second},
		breaker:        newAPIBreaker("firecrawl-api"),
		maxRetries:     3,
		retryBaseDelay: time.Second,
	}
}

func (c *FirecrawlClient) enabled() bool { return c.apiKey != "" }

// extractedEvent mirrors the extraction schema sent with every /scrape call.
// The extractor fills what it can find; only name and start_date are
// required downstream.
type extractedEvent struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"short_description"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	StartTime        string   `json:"start_time"`
	EndTime          string   `json:"end_time"`
	VenueName        string   `json:"venue_name"`
	Address          string   `json:"address"`
	PriceFrom        *float64 `json:"price_from"`
	PriceTo          *float64 `json:"price_to"`
	Currency         string   `json:"currency"`
	TicketURL        string   `json:"ticket_url"`
	ImageURLs        []string `json:"image_urls"`
}

// extractionSchema is the JSON schema constraining the extractor output.
// Kept as a plain map so goccy/go-json serializes it verbatim into the
// request payload.
var extractionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"events": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":              map[string]any{"type": "string"},
					"description":       map[string]any{"type": "string"},
					"short_description": map[string]any{"type": "string"},
					"start_date":        map[string]any{"type": "string", "description": "YYYY-MM-DD"},
					"end_date":          map[string]any{"type": "string", "description": "YYYY-MM-DD"},
					"start_time":        map[string]any{"type": "string"},
					"end_time":          map[string]any{"type": "string"},
					"venue_name":        map[string]any{"type": "string"},
					"address":           map[string]any{"type": "string"},
					"price_from":        map[string]any{"type": "number"},
					"price_to":          map[string]any{"type": "number"},
					"currency":          map[string]any{"type": "string"},
					"ticket_url":        map[string]any{"type": "string"},
					"image_urls":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
				"required": []string{"name", "start_date"},
			},
		},
	},
	"required": []string{"events"},
}

// Search runs one web search and returns up to maxResults result URLs.
func (c *FirecrawlClient) Search(ctx context.Context, query string) ([]string, error) {
	payload := map[string]any{
		"query": query,
		"limit": c.maxResults,
	}

	body, err := c.doRequest(ctx, "/search", payload)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Success bool `json:"success"`
		Data    []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if !decoded.Success {
		return nil, fmt.Errorf("search reported failure")
	}

	urls := make([]string, 0, len(decoded.Data))
	for _, result := range decoded.Data {
		if result.URL != "" {
			urls = append(urls, result.URL)
		}
	}
	if len(urls) > c.maxResults {
		urls = urls[:c.maxResults]
	}
	return urls, nil
}

// Extract scrapes one page and returns the structured event listings the
// extractor found on it, constrained to events in or near the given city.
func (c *FirecrawlClient) Extract(ctx context.Context, pageURL string, city models.CityInfo) ([]extractedEvent, error) {
	prompt := fmt.Sprintf(
		"Extract all upcoming public events taking place in or near %s. "+
			"Use YYYY-MM-DD for dates. Omit events in other cities.", city.Name)

	payload := map[string]any{
		"url":     pageURL,
		"formats": []string{"extract"},
		"extract": map[string]any{
			"schema": extractionSchema,
			"prompt": prompt,
		},
	}

	body, err := c.doRequest(ctx, "/scrape", payload)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Success bool `json:"success"`
		Data    struct {
			Extract struct {
				Events []extractedEvent `json:"events"`
			} `json:"extract"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode extract response: %w", err)
	}
	if !decoded.Success {
		return nil, fmt.Errorf("extract reported failure")
	}

	return decoded.Data.Extract.Events, nil
}

// harvestQuery is the shared scraping routine: search for candidate pages,
// extract structured listings from each, and keep only items with a name
// and a parseable start date. A failed page extract is logged and skipped;
// the remaining pages still run. One malformed listing never discards the
// page's remaining listings.
func (c *FirecrawlClient) harvestQuery(ctx context.Context, query string, city models.CityInfo, source string) ([]models.NormalizedEvent, error) {
	urls, err := c.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var events []models.NormalizedEvent
	for _, pageURL := range urls {
		if ctx.Err() != nil {
			return events, ctx.Err()
		}

		extracted, err := c.Extract(ctx, pageURL, city)
		if err != nil {
			logging.Warn().Str("source", source).Str("url", pageURL).Err(err).Msg("Page extraction failed")
			continue
		}

		for _, item := range extracted {
			if item.Name == "" {
				continue
			}
			if _, err := time.Parse(models.DateLayout, item.StartDate); err != nil {
				logging.Debug().Str("source", source).Str("event", item.Name).Str("start_date", item.StartDate).Msg("Dropping listing with unparseable start date")
				continue
			}

			events = append(events, models.NormalizedEvent{
				Name:             item.Name,
				Description:      item.Description,
				ShortDescription: item.ShortDescription,
				StartDate:        item.StartDate,
				EndDate:          item.EndDate,
				StartTime:        item.StartTime,
				EndTime:          item.EndTime,
				Address:          item.Address,
				VenueName:        item.VenueName,
				PriceFrom:        item.PriceFrom,
				PriceTo:          item.PriceTo,
				Currency:         item.Currency,
				ImageURLs:        item.ImageURLs,
				TicketURL:        item.TicketURL,
				EventType:        "event",
				Source:           source,
			})
		}
	}

	return events, nil
}

// doRequest performs one authenticated POST with automatic HTTP 429
// handling: exponential backoff (1s, 2s, 4s), honoring a Retry-After header
// (RFC 6585) when the service provides one. The call runs through the shared
// circuit breaker.
func (c *FirecrawlClient) doRequest(ctx context.Context, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request payload: %w", err)
	}
	reqURL := c.baseURL + path

	return c.breaker.execute(func() ([]byte, error) {
		var lastErr error

		for attempt := 0; attempt <= c.maxRetries; attempt++ {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(encoded))
			if err != nil {
				return nil, fmt.Errorf("failed to create request: %w", err)
			}
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("HTTP request failed: %w", err)
			}

			if resp.StatusCode == http.StatusOK {
				body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
				_ = resp.Body.Close()
				if err != nil {
					return nil, fmt.Errorf("failed to read response body: %w", err)
				}
				return body, nil
			}

			_ = resp.Body.Close()

			if resp.StatusCode != http.StatusTooManyRequests {
				return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
			}

			if attempt == c.maxRetries {
				lastErr = fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
				break
			}

			delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
					delay = seconds
				}
			}

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		return nil, lastErr
	})
}
