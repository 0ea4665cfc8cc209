// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/agora-city/agora/internal/config"
)

// ChiMiddleware provides Chi-compatible middleware configured from the API
// settings: CORS from go-chi/cors, rate limiting from go-chi/httprate.
type ChiMiddleware struct {
	cfg  *config.APIConfig
	cors func(http.Handler) http.Handler
}

// NewChiMiddleware builds the middleware factory. CORS origins default to
// empty: cross-origin access requires explicit configuration.
func NewChiMiddleware(cfg *config.APIConfig) *ChiMiddleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           86400,
	})

	return &ChiMiddleware{cfg: cfg, cors: corsHandler}
}

// CORS returns the global CORS middleware. It must wrap every route so
// OPTIONS preflight requests are answered.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns an IP-keyed rate limiter for the API endpoints.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return passthrough
	}
	window := m.cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(
		m.cfg.RateLimitReqs,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

// RateLimitHealth returns a permissive limiter for health endpoints:
// frequent orchestrator probes are expected, abuse is not.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return passthrough
	}
	return httprate.LimitByIP(1000, time.Minute)
}

func passthrough(next http.Handler) http.Handler { return next }
