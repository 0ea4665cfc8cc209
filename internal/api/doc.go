// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

// Package api provides the HTTP surface using the Chi router: the harvest
// trigger endpoint, health endpoints for orchestrators, and the Prometheus
// scrape endpoint. CORS (go-chi/cors) is applied globally so OPTIONS
// preflight requests are answered for every route; rate limiting uses
// go-chi/httprate.
package api
