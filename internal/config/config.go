// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

// Package config provides layered application configuration via Koanf v2.
//
// Configuration Loading Order:
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Credential presence is the sole feature-flag mechanism for source adapters:
// an adapter is enabled exactly when its provider credential is configured.
// Credentials are injected into adapter constructors from this package so
// that enablement is testable without process-environment manipulation.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from environment
// variables and config files.
//
// Thread Safety: Config is immutable after Load() and safe for concurrent
// read access from multiple goroutines.
type Config struct {
	Foursquare FoursquareConfig `koanf:"foursquare"`
	Firecrawl  FirecrawlConfig  `koanf:"firecrawl"`
	Geocoder   GeocoderConfig   `koanf:"geocoder"`
	Database   DatabaseConfig   `koanf:"database"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
	Server     ServerConfig     `koanf:"server"`
	API        APIConfig        `koanf:"api"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// FoursquareConfig holds credentials for the Foursquare Places API,
// the structured POI source. The adapter is enabled when APIKey is set.
//
// Environment Variables:
//   - FOURSQUARE_API_KEY: Places API service key
type FoursquareConfig struct {
	APIKey string `koanf:"api_key"`
	// BaseURL is overridable for tests; defaults to the production endpoint.
	BaseURL string `koanf:"base_url"`
}

// FirecrawlConfig holds credentials for the web-search-and-extract API used
// by all scraping adapters (site-scoped and general). Every scraping adapter
// is enabled when APIKey is set.
//
// Environment Variables:
//   - FIRECRAWL_API_KEY: search/extract service key
type FirecrawlConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	// MaxResults bounds how many search result URLs are extracted per query.
	MaxResults int `koanf:"max_results"`
}

// GeocoderConfig holds settings for the free address geocoding service
// (Nominatim). The service is unauthenticated but requires a distinct
// User-Agent by politeness convention.
type GeocoderConfig struct {
	BaseURL   string        `koanf:"base_url"`
	UserAgent string        `koanf:"user_agent"`
	Timeout   time.Duration `koanf:"timeout"`
	CacheTTL  time.Duration `koanf:"cache_ttl"` // 0 = cached lookups never expire
}

// DatabaseConfig holds DuckDB settings. An empty Path opens an in-memory
// database, which tests rely on.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use runtime.NumCPU()
}

// PipelineConfig holds harvest orchestration settings. The delays implement
// deliberate client-side throttling against third-party rate limits; tests
// inject a zero-delay pacer instead of overriding these.
type PipelineConfig struct {
	// MaxCities bounds how many catalog cities one invocation processes when
	// no explicit city is requested. Unbounded runs are the scheduler's job.
	MaxCities int `koanf:"max_cities"`

	SourceDelay        time.Duration `koanf:"source_delay"`         // between sources within a city
	CityDelay          time.Duration `koanf:"city_delay"`           // between cities
	CategoryDelay      time.Duration `koanf:"category_delay"`       // between Foursquare category buckets
	ThemeDelay         time.Duration `koanf:"theme_delay"`          // between general catch-all thematic queries
	DefaultCurrency    string        `koanf:"default_currency"`     // applied when a source reports no currency
	SearchWindowMonths int           `koanf:"search_window_months"` // date range appended to scrape queries
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// APIConfig holds HTTP surface settings (CORS, rate limiting).
type APIConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the loaded configuration for malformed values.
// Missing provider credentials are not an error here: a provider credential's
// absence merely disables its adapter, and "zero enabled sources" is reported
// at harvest time, not at startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Pipeline.MaxCities <= 0 {
		return fmt.Errorf("pipeline.max_cities must be positive, got %d", c.Pipeline.MaxCities)
	}
	if c.Pipeline.SourceDelay < 0 || c.Pipeline.CityDelay < 0 {
		return fmt.Errorf("pipeline delays must not be negative")
	}
	if c.Pipeline.DefaultCurrency == "" {
		return fmt.Errorf("pipeline.default_currency must not be empty")
	}
	if c.Geocoder.UserAgent == "" {
		return fmt.Errorf("geocoder.user_agent must not be empty (Nominatim requires a distinct User-Agent)")
	}
	if c.Firecrawl.MaxResults < 1 || c.Firecrawl.MaxResults > 10 {
		return fmt.Errorf("firecrawl.max_results must be in 1..10, got %d", c.Firecrawl.MaxResults)
	}
	if c.API.RateLimitReqs <= 0 {
		return fmt.Errorf("api.rate_limit_reqs must be positive, got %d", c.API.RateLimitReqs)
	}
	return nil
}
