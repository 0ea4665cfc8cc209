// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/agora-city/agora/internal/database"
	"github.com/agora-city/agora/internal/logging"
	"github.com/agora-city/agora/internal/models"
	"github.com/agora-city/agora/internal/pipeline"
)

// HarvestRunner is the pipeline surface the HTTP layer depends on.
type HarvestRunner interface {
	Run(ctx context.Context, req models.HarvestRequest) (*models.HarvestResponse, error)
}

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	runner    HarvestRunner
	db        *database.DB
	startTime time.Time
}

// NewHandler creates a Handler.
func NewHandler(runner HarvestRunner, db *database.DB) *Handler {
	return &Handler{
		runner:    runner,
		db:        db,
		startTime: time.Now(),
	}
}

// Harvest triggers one harvest run. The body is optional JSON; an empty or
// absent body means "bounded batch of catalog cities, all enabled sources".
// The run executes synchronously and the full summary is the response.
func (h *Handler) Harvest(w http.ResponseWriter, r *http.Request) {
	var req models.HarvestRequest

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Failed to read request body", err)
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON body", err)
			return
		}
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	logging.Info().
		Str("city", sanitizeLogValue(req.City)).
		Strs("sources", req.Sources).
		Msg("Harvest triggered")

	summary, err := h.runner.Run(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, pipeline.ErrNoSources):
			status = http.StatusServiceUnavailable
		case errors.Is(err, pipeline.ErrUnknownCity):
			status = http.StatusNotFound
		}
		if summary == nil {
			summary = &models.HarvestResponse{Success: false, Error: err.Error()}
		}
		respondJSON(w, status, summary)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// HealthLive reports process liveness. It answers 200 whenever the process
// can serve HTTP at all.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "alive",
		"uptime": time.Since(h.startTime).String(),
	})
}

// HealthReady reports readiness: the store must answer a ping. Orchestrators
// gate traffic on this.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"reason": "database unreachable",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}
