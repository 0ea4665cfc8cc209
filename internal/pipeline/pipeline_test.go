// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/agora-city/agora/internal/config"
	"github.com/agora-city/agora/internal/database"
	"github.com/agora-city/agora/internal/geocode"
	"github.com/agora-city/agora/internal/models"
	"github.com/agora-city/agora/internal/sources"
)

// fakeAdapter is a scripted source for orchestration tests.
type fakeAdapter struct {
	name    string
	enabled bool
	events  []models.NormalizedEvent
	err     error
	// onFetch, when set, runs before returning (used to cancel contexts).
	onFetch func()
	calls   int
}

func (f *fakeAdapter) Name() string  { return f.name }
func (f *fakeAdapter) Enabled() bool { return f.enabled }
func (f *fakeAdapter) FetchEvents(_ context.Context, _ models.CityInfo) ([]models.NormalizedEvent, error) {
	f.calls++
	if f.onFetch != nil {
		f.onFetch()
	}
	// Copy so Normalize's in-place defaulting never mutates the script.
	events := make([]models.NormalizedEvent, len(f.events))
	copy(events, f.events)
	return events, f.err
}

// fakeGeocoder resolves every address to a fixed point, or to unknown.
type fakeGeocoder struct {
	coords      *geocode.Coordinates
	calls       int
	lastAddress string
}

func (f *fakeGeocoder) Geocode(_ context.Context, address string) (*geocode.Coordinates, error) {
	f.calls++
	f.lastAddress = address
	return f.coords, nil
}

func testEvent(name, source, date string) models.NormalizedEvent {
	return models.NormalizedEvent{Name: name, Source: source, StartDate: date}
}

func pipelineConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		MaxCities:       20,
		DefaultCurrency: "EUR",
	}
}

func newTestHarvester(t *testing.T, geocoder geocode.Geocoder, adapters ...sources.Adapter) (*Harvester, *database.DB) {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{Path: ""})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	registry := sources.NewRegistry(adapters...)
	return New(db, geocoder, registry, sources.NopPacer{}, pipelineConfig()), db
}

func TestRunNoEnabledSourcesIsFatal(t *testing.T) {
	h, _ := newTestHarvester(t, &fakeGeocoder{},
		&fakeAdapter{name: "foursquare", enabled: false},
	)

	summary, err := h.Run(context.Background(), models.HarvestRequest{City: "Ghent"})
	if !errors.Is(err, ErrNoSources) {
		t.Fatalf("Run() error = %v, want ErrNoSources", err)
	}
	if summary == nil || summary.Success {
		t.Errorf("summary = %+v, want success=false", summary)
	}
}

func TestRunEmptyCatalogIsTrivialSuccess(t *testing.T) {
	adapter := &fakeAdapter{name: "eventbrite", enabled: true}
	h, _ := newTestHarvester(t, &fakeGeocoder{}, adapter)

	summary, err := h.Run(context.Background(), models.HarvestRequest{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !summary.Success {
		t.Error("summary.Success = false, want true")
	}
	if summary.CitiesProcessed != 0 || summary.EventsAdded != 0 {
		t.Errorf("summary = %+v, want zero counts", summary)
	}
	if adapter.calls != 0 {
		t.Errorf("adapter fetched %d times, want 0 (no cities)", adapter.calls)
	}
}

func TestRunExplicitCityOutsideCatalog(t *testing.T) {
	adapter := &fakeAdapter{
		name:    "eventbrite",
		enabled: true,
		events: []models.NormalizedEvent{
			testEvent("Light Festival Opening", "eventbrite", "2026-10-01"),
			testEvent("Harbour Fun Run", "eventbrite", "2026-10-02"),
		},
	}
	geocoder := &fakeGeocoder{coords: &geocode.Coordinates{Latitude: 51.05, Longitude: 3.72}}
	h, db := newTestHarvester(t, geocoder, adapter)

	summary, err := h.Run(context.Background(), models.HarvestRequest{City: "Ghent", Country: "Belgium"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !summary.Success {
		t.Error("summary.Success = false, want true")
	}
	if summary.CitiesProcessed != 1 {
		t.Errorf("CitiesProcessed = %d, want 1", summary.CitiesProcessed)
	}
	if summary.EventsAdded != 2 {
		t.Errorf("EventsAdded = %d, want 2", summary.EventsAdded)
	}
	if got := summary.BySource["eventbrite"]; got.Added != 2 || got.Skipped != 0 || got.Errors != 0 {
		t.Errorf("BySource[eventbrite] = %+v, want {2 0 0}", got)
	}

	// The stored record got defaults and coordinate fill applied.
	stored, err := db.GetEventByName(context.Background(), "Light Festival Opening")
	if err != nil {
		t.Fatalf("GetEventByName() error = %v", err)
	}
	if stored.Currency != "EUR" {
		t.Errorf("Currency = %q, want default EUR", stored.Currency)
	}
	if stored.EndDate != stored.StartDate {
		t.Errorf("EndDate = %q, want defaulted to start date %q", stored.EndDate, stored.StartDate)
	}
	if stored.Latitude == nil || *stored.Latitude != 51.05 {
		t.Errorf("Latitude = %v, want geocode-filled 51.05", stored.Latitude)
	}
	if stored.CityID != nil {
		t.Errorf("CityID = %v, want nil for a city outside the catalog", stored.CityID)
	}
	if stored.Category == "" {
		t.Error("Category is empty, want classifier output")
	}
}

func TestRunCatalogCityAttachesCityID(t *testing.T) {
	adapter := &fakeAdapter{
		name:    "meetup",
		enabled: true,
		events:  []models.NormalizedEvent{testEvent("Board Game Night", "meetup", "2026-10-05")},
	}
	h, db := newTestHarvester(t, &fakeGeocoder{}, adapter)

	cityID, err := db.InsertCity(context.Background(), "Ghent", "Belgium", 51.05, 3.72)
	if err != nil {
		t.Fatalf("InsertCity() error = %v", err)
	}

	summary, err := h.Run(context.Background(), models.HarvestRequest{City: "ghent"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.EventsAdded != 1 {
		t.Fatalf("EventsAdded = %d, want 1", summary.EventsAdded)
	}

	stored, err := db.GetEventByName(context.Background(), "Board Game Night")
	if err != nil {
		t.Fatalf("GetEventByName() error = %v", err)
	}
	if stored.CityID == nil || *stored.CityID != cityID {
		t.Errorf("CityID = %v, want %d", stored.CityID, cityID)
	}
	// No geocoder hit needed: the catalog city's coordinates back-fill.
	if stored.Latitude == nil || *stored.Latitude != 51.05 {
		t.Errorf("Latitude = %v, want city coordinates 51.05", stored.Latitude)
	}
}

func TestRunProviderCategoryBeatsClassifier(t *testing.T) {
	adapter := &fakeAdapter{
		name:    "foursquare",
		enabled: true,
		events: []models.NormalizedEvent{
			// A structured place whose name carries no category keywords.
			{
				Name:      "Sample Shrine",
				Category:  "performing-arts",
				StartDate: "2026-09-01",
				Tags:      []string{"performing-arts"},
				EventType: "place",
				Source:    "foursquare",
			},
			// No provider category: the keyword classifier decides.
			testEvent("Jazz Evening", "foursquare", "2026-09-01"),
		},
	}
	h, db := newTestHarvester(t, &fakeGeocoder{}, adapter)

	if _, err := db.InsertCity(context.Background(), "Ghent", "Belgium", 51.05, 3.72); err != nil {
		t.Fatalf("InsertCity() error = %v", err)
	}

	summary, err := h.Run(context.Background(), models.HarvestRequest{City: "Ghent"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.EventsAdded != 2 {
		t.Fatalf("EventsAdded = %d, want 2", summary.EventsAdded)
	}

	place, err := db.GetEventByName(context.Background(), "Sample Shrine")
	if err != nil {
		t.Fatalf("GetEventByName() error = %v", err)
	}
	if place.Category != "performing-arts" {
		t.Errorf("place Category = %q, want provider-assigned %q", place.Category, "performing-arts")
	}

	classified, err := db.GetEventByName(context.Background(), "Jazz Evening")
	if err != nil {
		t.Fatalf("GetEventByName() error = %v", err)
	}
	if classified.Category != "music" {
		t.Errorf("classified Category = %q, want %q", classified.Category, "music")
	}
}

func TestRunCatalogCityWithoutCoordinatesIsGeocoded(t *testing.T) {
	adapter := &fakeAdapter{
		name:    "meetup",
		enabled: true,
		events:  []models.NormalizedEvent{testEvent("Pub Quiz", "meetup", "2026-10-05")},
	}
	geocoder := &fakeGeocoder{coords: &geocode.Coordinates{Latitude: 51.05, Longitude: 3.72}}
	h, db := newTestHarvester(t, geocoder, adapter)

	// Catalog row without coordinates on file.
	cityID, err := db.InsertCity(context.Background(), "Ghent", "Belgium", 0, 0)
	if err != nil {
		t.Fatalf("InsertCity() error = %v", err)
	}

	summary, err := h.Run(context.Background(), models.HarvestRequest{City: "Ghent"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.EventsAdded != 1 {
		t.Fatalf("EventsAdded = %d, want 1", summary.EventsAdded)
	}

	if geocoder.calls != 1 {
		t.Errorf("geocoder called %d times, want 1 (coordinate-less catalog city)", geocoder.calls)
	}
	if geocoder.lastAddress != "Ghent, Belgium" {
		t.Errorf("geocoded address = %q, want %q", geocoder.lastAddress, "Ghent, Belgium")
	}

	stored, err := db.GetEventByName(context.Background(), "Pub Quiz")
	if err != nil {
		t.Fatalf("GetEventByName() error = %v", err)
	}
	if stored.CityID == nil || *stored.CityID != cityID {
		t.Errorf("CityID = %v, want %d", stored.CityID, cityID)
	}
	// The geocoded city coordinates back-fill the event.
	if stored.Latitude == nil || *stored.Latitude != 51.05 {
		t.Errorf("Latitude = %v, want geocoded city coordinates 51.05", stored.Latitude)
	}
}

func TestRunSourceFailureIsIsolated(t *testing.T) {
	adapterA := &fakeAdapter{
		name: "foursquare", enabled: true,
		events: []models.NormalizedEvent{
			testEvent("Museum of Industry", "foursquare", "2026-09-01"),
			testEvent("Botanical Garden", "foursquare", "2026-09-01"),
		},
	}
	adapterB := &fakeAdapter{name: "eventbrite", enabled: true, err: errors.New("provider down")}
	adapterC := &fakeAdapter{
		name: "webcrawl", enabled: true,
		events: []models.NormalizedEvent{testEvent("Street Food Market", "webcrawl", "2026-09-03")},
	}
	h, _ := newTestHarvester(t, &fakeGeocoder{}, adapterA, adapterB, adapterC)

	summary, err := h.Run(context.Background(), models.HarvestRequest{City: "Ghent"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !summary.Success {
		t.Error("summary.Success = false; a failed source must not fail the run")
	}
	if summary.EventsAdded != 3 {
		t.Errorf("EventsAdded = %d, want 3", summary.EventsAdded)
	}
	if got := summary.BySource["foursquare"]; got.Added != 2 {
		t.Errorf("BySource[foursquare].Added = %d, want 2", got.Added)
	}
	if got := summary.BySource["eventbrite"]; got.Added != 0 {
		t.Errorf("BySource[eventbrite].Added = %d, want 0", got.Added)
	}
	if got := summary.BySource["webcrawl"]; got.Added != 1 {
		t.Errorf("BySource[webcrawl].Added = %d, want 1", got.Added)
	}
	if adapterC.calls != 1 {
		t.Error("source after the failed one never ran")
	}
}

func TestRunEverySourceFailingIsStillSuccess(t *testing.T) {
	h, _ := newTestHarvester(t, &fakeGeocoder{},
		&fakeAdapter{name: "eventbrite", enabled: true, err: errors.New("down")},
		&fakeAdapter{name: "meetup", enabled: true, err: errors.New("also down")},
	)

	summary, err := h.Run(context.Background(), models.HarvestRequest{City: "Ghent"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !summary.Success || summary.EventsAdded != 0 {
		t.Errorf("summary = %+v, want success with zero counts", summary)
	}
}

func TestRunDeduplicatesAcrossRuns(t *testing.T) {
	adapter := &fakeAdapter{
		name: "eventbrite", enabled: true,
		events: []models.NormalizedEvent{testEvent("Jazz Evening", "eventbrite", "2026-09-10")},
	}
	h, _ := newTestHarvester(t, &fakeGeocoder{}, adapter)
	req := models.HarvestRequest{City: "Ghent"}

	first, err := h.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if first.EventsAdded != 1 {
		t.Fatalf("first run EventsAdded = %d, want 1", first.EventsAdded)
	}

	second, err := h.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if second.EventsAdded != 0 {
		t.Errorf("second run EventsAdded = %d, want 0", second.EventsAdded)
	}
	if got := second.BySource["eventbrite"]; got.Skipped != 1 {
		t.Errorf("BySource[eventbrite].Skipped = %d, want 1", got.Skipped)
	}
}

func TestRunActivityContainmentSkipsScrapedRecords(t *testing.T) {
	scraped := testEvent("Paradiso", "webcrawl", "2026-09-15")
	scraped.EventType = "event"
	structured := testEvent("Paradiso", "foursquare", "2026-09-16")
	structured.EventType = "place"

	adapterScrape := &fakeAdapter{name: "webcrawl", enabled: true, events: []models.NormalizedEvent{scraped}}
	adapterPlace := &fakeAdapter{name: "foursquare", enabled: true, events: []models.NormalizedEvent{structured}}
	h, db := newTestHarvester(t, &fakeGeocoder{}, adapterPlace, adapterScrape)

	if err := db.InsertActivity(context.Background(), &models.Activity{Name: "Paradiso Concert Hall"}); err != nil {
		t.Fatalf("InsertActivity() error = %v", err)
	}

	summary, err := h.Run(context.Background(), models.HarvestRequest{City: "Amsterdam"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The scraped record's name is contained in a catalog place name and is
	// skipped; the structured record bypasses the containment check.
	if got := summary.BySource["webcrawl"]; got.Skipped != 1 || got.Added != 0 {
		t.Errorf("BySource[webcrawl] = %+v, want skipped=1", got)
	}
	if got := summary.BySource["foursquare"]; got.Added != 1 {
		t.Errorf("BySource[foursquare] = %+v, want added=1", got)
	}
}

func TestRunMalformedRecordsAreCountedNotFatal(t *testing.T) {
	adapter := &fakeAdapter{
		name: "localpress", enabled: true,
		events: []models.NormalizedEvent{
			testEvent("", "localpress", "2026-09-01"),          // no name
			testEvent("Vague Plans", "localpress", "whenever"), // bad date
			testEvent("Proper Concert", "localpress", "2026-09-02"),
		},
	}
	h, _ := newTestHarvester(t, &fakeGeocoder{}, adapter)

	summary, err := h.Run(context.Background(), models.HarvestRequest{City: "Ghent"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := summary.BySource["localpress"]; got.Added != 1 || got.Errors != 2 {
		t.Errorf("BySource[localpress] = %+v, want added=1 errors=2", got)
	}
}

func TestRunRequestedSourceSubset(t *testing.T) {
	adapterA := &fakeAdapter{name: "foursquare", enabled: true,
		events: []models.NormalizedEvent{testEvent("Place A", "foursquare", "2026-09-01")}}
	adapterB := &fakeAdapter{name: "meetup", enabled: true,
		events: []models.NormalizedEvent{testEvent("Meetup B", "meetup", "2026-09-01")}}
	h, _ := newTestHarvester(t, &fakeGeocoder{}, adapterA, adapterB)

	summary, err := h.Run(context.Background(), models.HarvestRequest{City: "Ghent", Sources: []string{"meetup"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(summary.SourcesUsed) != 1 || summary.SourcesUsed[0] != "meetup" {
		t.Errorf("SourcesUsed = %v, want [meetup]", summary.SourcesUsed)
	}
	if adapterA.calls != 0 {
		t.Error("unrequested source was fetched")
	}
	if summary.EventsAdded != 1 {
		t.Errorf("EventsAdded = %d, want 1", summary.EventsAdded)
	}
}

func TestRunCancellationReturnsPartialSummary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	adapterA := &fakeAdapter{name: "foursquare", enabled: true,
		events: []models.NormalizedEvent{testEvent("First Batch", "foursquare", "2026-09-01")}}
	// The second source cancels the run mid-fetch; work stops at the next
	// adapter boundary.
	adapterB := &fakeAdapter{name: "webcrawl", enabled: true, onFetch: cancel,
		events: []models.NormalizedEvent{testEvent("Never Stored", "webcrawl", "2026-09-01")}}
	adapterC := &fakeAdapter{name: "meetup", enabled: true,
		events: []models.NormalizedEvent{testEvent("Unreached", "meetup", "2026-09-01")}}
	h, _ := newTestHarvester(t, &fakeGeocoder{}, adapterA, adapterB, adapterC)

	summary, err := h.Run(ctx, models.HarvestRequest{City: "Ghent"})
	if err != nil {
		t.Fatalf("Run() error = %v, want partial summary with nil error", err)
	}
	if got := summary.BySource["foursquare"]; got.Added != 1 {
		t.Errorf("BySource[foursquare].Added = %d, want 1 (work before cancellation kept)", got.Added)
	}
	if adapterC.calls != 0 {
		t.Error("adapter after the cancellation point still ran")
	}
}

func TestRunUnknownCityIDFails(t *testing.T) {
	adapter := &fakeAdapter{name: "eventbrite", enabled: true}
	h, _ := newTestHarvester(t, &fakeGeocoder{}, adapter)

	badID := int64(424242)
	summary, err := h.Run(context.Background(), models.HarvestRequest{CityID: &badID})
	if err == nil {
		t.Fatal("Run() with unknown city id should fail")
	}
	if summary == nil || summary.Success {
		t.Errorf("summary = %+v, want success=false", summary)
	}
}
