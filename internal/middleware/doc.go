// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

// Package middleware provides the hand-rolled HTTP middleware that is not
// covered by the chi ecosystem: request ID propagation and Prometheus
// request instrumentation. CORS and rate limiting come from go-chi/cors and
// go-chi/httprate and are configured in the api package.
package middleware
