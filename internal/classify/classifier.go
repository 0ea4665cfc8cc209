// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

// Package classify assigns fixed-vocabulary categories and descriptive tags
// to free text. Both functions are pure: no state, no I/O, deterministic for
// a fixed table.
package classify

import "strings"

// Category identifiers. The store's taxonomy is owned by the surrounding
// application; this core consumes the fixed mapping below.
const (
	CategoryMusic          = "music"
	CategoryPerformingArts = "performing-arts"
	CategoryVisualArts     = "visual-arts"
	CategoryFestival       = "festival"
	CategoryFoodDrink      = "food-drink"
	CategoryNightlife      = "nightlife"
	CategoryOutdoors       = "outdoors"
	CategorySports         = "sports"
	CategoryMarket         = "market"
	CategoryFamily         = "family"
	CategoryWorkshop       = "workshop"
	CategoryCommunity      = "community"
)

// DefaultCategory is returned when no keyword matches.
const DefaultCategory = CategoryCommunity

// keywordRule maps one keyword to a category.
type keywordRule struct {
	keyword  string
	category string
}

// categoryTable is the ordered keyword lookup table. ORDER IS THE TIE-BREAK:
// the first entry whose keyword is a substring of the lower-cased input wins,
// so when keywords co-occur ("jazz festival" contains both a music and a
// festival keyword) the earlier entry decides. Reordering this table changes
// classification behavior.
var categoryTable = []keywordRule{
	// Music before festival: "jazz festival" and "rock festival" are music.
	{"concert", CategoryMusic},
	{"jazz", CategoryMusic},
	{"rock", CategoryMusic},
	{"techno", CategoryMusic},
	{"electronic", CategoryMusic},
	{"symphony", CategoryMusic},
	{"orchestra", CategoryMusic},
	{"choir", CategoryMusic},
	{"live music", CategoryMusic},
	{"dj ", CategoryMusic},
	{"band", CategoryMusic},

	{"opera", CategoryPerformingArts},
	{"theatre", CategoryPerformingArts},
	{"theater", CategoryPerformingArts},
	{"ballet", CategoryPerformingArts},
	{"dance", CategoryPerformingArts},
	{"comedy", CategoryPerformingArts},
	{"stand-up", CategoryPerformingArts},
	{"circus", CategoryPerformingArts},
	{"cabaret", CategoryPerformingArts},

	{"exhibition", CategoryVisualArts},
	{"gallery", CategoryVisualArts},
	{"museum", CategoryVisualArts},
	{"vernissage", CategoryVisualArts},
	{"photography", CategoryVisualArts},
	{"sculpture", CategoryVisualArts},
	{"art ", CategoryVisualArts},

	{"festival", CategoryFestival},
	{"carnival", CategoryFestival},
	{"parade", CategoryFestival},
	{"biennale", CategoryFestival},

	{"food", CategoryFoodDrink},
	{"wine", CategoryFoodDrink},
	{"beer", CategoryFoodDrink},
	{"tasting", CategoryFoodDrink},
	{"brunch", CategoryFoodDrink},
	{"dinner", CategoryFoodDrink},
	{"street eats", CategoryFoodDrink},

	{"club night", CategoryNightlife},
	{"nightclub", CategoryNightlife},
	{"rave", CategoryNightlife},
	{"bar crawl", CategoryNightlife},
	{"party", CategoryNightlife},

	{"hike", CategoryOutdoors},
	{"outdoor", CategoryOutdoors},
	{"park", CategoryOutdoors},
	{"garden", CategoryOutdoors},
	{"picnic", CategoryOutdoors},
	{"trail", CategoryOutdoors},

	{"marathon", CategorySports},
	{"tournament", CategorySports},
	{"match", CategorySports},
	{"football", CategorySports},
	{"basketball", CategorySports},
	{"climbing", CategorySports},
	{"yoga", CategorySports},
	{"run", CategorySports},

	{"market", CategoryMarket},
	{"bazaar", CategoryMarket},
	{"flea", CategoryMarket},
	{"fair", CategoryMarket},

	{"kids", CategoryFamily},
	{"children", CategoryFamily},
	{"family", CategoryFamily},
	{"puppet", CategoryFamily},

	{"workshop", CategoryWorkshop},
	{"class", CategoryWorkshop},
	{"course", CategoryWorkshop},
	{"lecture", CategoryWorkshop},
	{"talk", CategoryWorkshop},
	{"meetup", CategoryWorkshop},
}

// Match maps free text to a category identifier via ordered keyword lookup.
// The input is lower-cased and the first table entry whose keyword is a
// substring wins; DefaultCategory is returned when nothing matches. Match is
// total and deterministic for a fixed table.
func Match(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range categoryTable {
		if strings.Contains(lower, rule.keyword) {
			return rule.category
		}
	}
	return DefaultCategory
}

// Categories returns the distinct category identifiers the table can
// produce, including the default. Useful for seeding and validation.
func Categories() []string {
	seen := map[string]bool{DefaultCategory: true}
	out := []string{DefaultCategory}
	for _, rule := range categoryTable {
		if !seen[rule.category] {
			seen[rule.category] = true
			out = append(out, rule.category)
		}
	}
	return out
}
