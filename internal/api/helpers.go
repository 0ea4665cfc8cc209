// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package api

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/agora-city/agora/internal/logging"
	"github.com/agora-city/agora/internal/models"
	"github.com/agora-city/agora/internal/validation"
)

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError writes a structured error payload and logs server-side errors.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIError{
		Code:    code,
		Message: message,
	})
}

// validateRequest validates a request struct, returning a translated
// VALIDATION_ERROR or nil.
func validateRequest(s any) *validation.APIError {
	if err := validation.ValidateStruct(s); err != nil {
		return err.ToAPIError()
	}
	return nil
}

// sanitizeLogValue strips newlines from user-influenced values before they
// reach the log stream.
func sanitizeLogValue(v string) string {
	v = strings.ReplaceAll(v, "\n", " ")
	return strings.ReplaceAll(v, "\r", " ")
}
