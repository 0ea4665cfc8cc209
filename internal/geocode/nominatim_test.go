// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/agora-city/agora/internal/config"
)

// newTestClient builds a client against a test server with pacing disabled.
func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := NewClient(&config.GeocoderConfig{
		BaseURL:   baseURL,
		UserAgent: "agora-test/1.0",
		Timeout:   5 * time.Second,
	})
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	t.Cleanup(c.Close)
	return c
}

func TestGeocodeSuccess(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if q := r.URL.Query().Get("q"); q != "Shibuya, Tokyo, Japan" {
			t.Errorf("unexpected query %q", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"35.6595","lon":"139.7005","display_name":"Shibuya"}]`))
	}))
	defer srv.Close()

	coords, err := newTestClient(t, srv.URL).Geocode(context.Background(), "Shibuya, Tokyo, Japan")
	if err != nil {
		t.Fatalf("Geocode failed: %v", err)
	}
	if coords == nil {
		t.Fatal("expected coordinates, got unknown outcome")
	}
	if coords.Latitude != 35.6595 || coords.Longitude != 139.7005 {
		t.Errorf("unexpected coordinates: %+v", coords)
	}
	if gotUA != "agora-test/1.0" {
		t.Errorf("expected distinct User-Agent, got %q", gotUA)
	}
}

func TestGeocodeFailureModesReturnUnknown(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"empty result set", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}},
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"rate limited", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}},
		{"malformed body", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}},
		{"unparseable coordinates", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"lat":"north","lon":"west"}]`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			coords, err := newTestClient(t, srv.URL).Geocode(context.Background(), "Nowhere")
			if err != nil {
				t.Fatalf("failure must surface as unknown outcome, not error: %v", err)
			}
			if coords != nil {
				t.Errorf("expected unknown outcome, got %+v", coords)
			}
		})
	}
}

func TestGeocodeNetworkErrorReturnsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	coords, err := newTestClient(t, srv.URL).Geocode(context.Background(), "Nowhere")
	if err != nil {
		t.Fatalf("network failure must surface as unknown outcome, not error: %v", err)
	}
	if coords != nil {
		t.Errorf("expected unknown outcome, got %+v", coords)
	}
}

func TestGeocodeEmptyAddressShortCircuits(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer srv.Close()

	coords, err := newTestClient(t, srv.URL).Geocode(context.Background(), "")
	if err != nil || coords != nil {
		t.Fatalf("empty address must be unknown outcome, got %v, %v", coords, err)
	}
	if called {
		t.Error("empty address must not hit the network")
	}
}

func TestGeocodeCachesRepeatedLookups(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`[{"lat":"52.37","lon":"4.89","display_name":"Amsterdam"}]`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	ctx := context.Background()

	for _, addr := range []string{"Dam Square, Amsterdam", "dam square, amsterdam", "  Dam Square, Amsterdam  "} {
		coords, err := client.Geocode(ctx, addr)
		if err != nil {
			t.Fatalf("Geocode(%q) failed: %v", addr, err)
		}
		if coords == nil || coords.Latitude != 52.37 {
			t.Fatalf("Geocode(%q) = %+v", addr, coords)
		}
	}

	if calls != 1 {
		t.Errorf("server saw %d requests, want 1 (case and whitespace variants must share a cache entry)", calls)
	}
}

func TestGeocodeCachesUnknownOutcome(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	for range 2 {
		coords, err := client.Geocode(context.Background(), "Nowhere")
		if err != nil || coords != nil {
			t.Fatalf("expected unknown outcome, got %v, %v", coords, err)
		}
	}

	if calls != 1 {
		t.Errorf("server saw %d requests, want 1 (unknown outcome must be cached)", calls)
	}
}

func TestGeocodeDoesNotCacheTransientFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[{"lat":"48.85","lon":"2.35","display_name":"Paris"}]`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if coords, _ := client.Geocode(context.Background(), "Paris"); coords != nil {
		t.Fatalf("first call should fail, got %+v", coords)
	}
	coords, err := client.Geocode(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if coords == nil {
		t.Fatal("server error must not poison the cache")
	}
	if calls != 2 {
		t.Errorf("server saw %d requests, want 2", calls)
	}
}

func TestGeocodeHonorsCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestClient(t, srv.URL).Geocode(ctx, "Somewhere"); err == nil {
		t.Error("cancelled context must surface as an error, not a silent unknown")
	}
}
