// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package sources

import (
	"context"
	"time"

	"github.com/agora-city/agora/internal/models"
)

// Adapter is one event provider. Implementations must be safe for
// sequential reuse across cities within a single harvest run.
type Adapter interface {
	// Name returns the stable source label recorded on every event.
	Name() string

	// Enabled reports whether the provider credential was configured.
	// Computed once at construction; never reads the process environment.
	Enabled() bool

	// FetchEvents collects candidate events for one city. The returned
	// error is informational: callers log it and move on, and a non-nil
	// error may still accompany a partial batch. A malformed item never
	// discards the rest of the batch.
	FetchEvents(ctx context.Context, city models.CityInfo) ([]models.NormalizedEvent, error)
}

// Pacer is the client-side throttling policy between paced steps (sources,
// cities, category buckets, thematic queries). Production uses SleepPacer
// with configured delays; tests inject NopPacer so suites stay fast without
// touching the production configuration.
type Pacer interface {
	// Pause blocks for the given delay or until ctx is cancelled,
	// returning ctx.Err() in the latter case.
	Pause(ctx context.Context, d time.Duration) error
}

// SleepPacer waits out the full delay, abandoning early on cancellation.
type SleepPacer struct{}

func (SleepPacer) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NopPacer never waits. Test use only.
type NopPacer struct{}

func (NopPacer) Pause(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Registry holds the constructed adapters in fixed registration order.
// Order matters: it is the processing order within each city and the
// order sources appear in summaries.
type Registry struct {
	adapters []Adapter
}

// NewRegistry builds a registry from adapters in the given order.
func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// All returns every registered adapter, enabled or not.
func (r *Registry) All() []Adapter {
	return r.adapters
}

// Names returns all registered source labels in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	return names
}

// Enabled returns the enabled adapters, optionally filtered to a requested
// subset of source names. Requested names that are unknown or disabled are
// silently dropped; an empty result is the caller's configuration-fatal
// condition, not this method's.
func (r *Registry) Enabled(requested []string) []Adapter {
	want := make(map[string]bool, len(requested))
	for _, name := range requested {
		want[name] = true
	}

	var enabled []Adapter
	for _, a := range r.adapters {
		if !a.Enabled() {
			continue
		}
		if len(requested) > 0 && !want[a.Name()] {
			continue
		}
		enabled = append(enabled, a)
	}
	return enabled
}
