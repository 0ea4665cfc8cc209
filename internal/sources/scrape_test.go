// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package sources

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/agora-city/agora/internal/config"
	"github.com/agora-city/agora/internal/models"
)

func TestSearchWindow(t *testing.T) {
	now := time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		months int
		want   string
	}{
		{"two months crossing year boundary", 2, "November 2026 December 2026"},
		{"three months", 3, "November 2026 December 2026 January 2027"},
		{"non-positive defaults to two", 0, "November 2026 December 2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := searchWindow(now, tt.months); got != tt.want {
				t.Errorf("searchWindow(%d) = %q, want %q", tt.months, got, tt.want)
			}
		})
	}
}

func TestSiteAdapterQueryScoping(t *testing.T) {
	var queries []string
	client := newTestFirecrawl(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		queries = append(queries, payload.Query)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	})

	adapter := NewSiteAdapter("eventbrite", "www.eventbrite.com", client, testPipelineConfig())
	adapter.now = func() time.Time { return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC) }

	if _, err := adapter.FetchEvents(context.Background(), models.CityInfo{Name: "Ghent", Country: "Belgium"}); err != nil {
		t.Fatalf("FetchEvents() error = %v", err)
	}

	if len(queries) != 1 {
		t.Fatalf("made %d searches, want 1", len(queries))
	}
	query := queries[0]
	if !strings.Contains(query, "site:www.eventbrite.com") {
		t.Errorf("query %q is not site-scoped", query)
	}
	if !strings.Contains(query, "Ghent") {
		t.Errorf("query %q does not name the city", query)
	}
	if !strings.Contains(query, "September 2026") {
		t.Errorf("query %q carries no date window", query)
	}
}

func TestLocalPressAdapterQuery(t *testing.T) {
	var query string
	client := newTestFirecrawl(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		query = payload.Query

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	})

	adapter := NewLocalPressAdapter(client, testPipelineConfig())
	if adapter.Name() != "localpress" {
		t.Errorf("Name() = %q, want localpress", adapter.Name())
	}

	if _, err := adapter.FetchEvents(context.Background(), models.CityInfo{Name: "Ghent"}); err != nil {
		t.Fatalf("FetchEvents() error = %v", err)
	}
	if strings.Contains(query, "site:") {
		t.Errorf("local press query %q must not be site-scoped", query)
	}
	if !strings.Contains(query, "Ghent") {
		t.Errorf("query %q does not name the city", query)
	}
}

func TestWebcrawlRunsEveryTheme(t *testing.T) {
	var queries []string
	client := newTestFirecrawl(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search":
			var payload struct {
				Query string `json:"query"`
			}
			_ = json.NewDecoder(r.Body).Decode(&payload)
			queries = append(queries, payload.Query)
			_, _ = w.Write([]byte(`{"success":true,"data":[{"url":"https://a.example"}]}`))
		case "/scrape":
			_, _ = w.Write([]byte(`{"success":true,"data":{"extract":{"events":[{"name":"Theme Event","start_date":"2026-09-10"}]}}}`))
		}
	})

	adapter := NewWebcrawlAdapter(client, testPipelineConfig(), NopPacer{})
	events, err := adapter.FetchEvents(context.Background(), models.CityInfo{Name: "Ghent"})
	if err != nil {
		t.Fatalf("FetchEvents() error = %v", err)
	}

	if len(queries) != len(webcrawlThemes) {
		t.Errorf("made %d thematic searches, want %d", len(queries), len(webcrawlThemes))
	}
	if len(events) != len(webcrawlThemes) {
		t.Errorf("got %d events, want one per theme", len(events))
	}
	for _, event := range events {
		if event.Source != "webcrawl" {
			t.Errorf("Source = %q, want webcrawl", event.Source)
		}
	}
}

func TestWebcrawlThemeFailureIsIsolated(t *testing.T) {
	var searches int
	client := newTestFirecrawl(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search":
			searches++
			if searches == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`{"success":true,"data":[{"url":"https://a.example"}]}`))
		case "/scrape":
			_, _ = w.Write([]byte(`{"success":true,"data":{"extract":{"events":[{"name":"Theme Event","start_date":"2026-09-10"}]}}}`))
		}
	})

	adapter := NewWebcrawlAdapter(client, testPipelineConfig(), NopPacer{})
	events, err := adapter.FetchEvents(context.Background(), models.CityInfo{Name: "Ghent"})
	if err == nil {
		t.Error("FetchEvents() should report the failed theme")
	}
	if len(events) != len(webcrawlThemes)-1 {
		t.Errorf("got %d events, want %d (every theme except the failed one)", len(events), len(webcrawlThemes)-1)
	}
}

func TestScrapeAdaptersDisabledWithoutKey(t *testing.T) {
	client := NewFirecrawlClient(&config.FirecrawlConfig{})
	site := NewSiteAdapter("meetup", "www.meetup.com", client, testPipelineConfig())
	webcrawl := NewWebcrawlAdapter(client, testPipelineConfig(), NopPacer{})

	if site.Enabled() {
		t.Error("site adapter without credential must report disabled")
	}
	if webcrawl.Enabled() {
		t.Error("webcrawl adapter without credential must report disabled")
	}
}
