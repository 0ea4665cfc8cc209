// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package classify

import (
	"sort"
	"strings"
)

// tagVocabulary is the fixed descriptive tag vocabulary. Unlike the category
// table this is NOT first-match: every tag whose keyword is a substring of
// the input is returned. Order is irrelevant and duplicates are impossible
// since the output is a set over this vocabulary.
var tagVocabulary = map[string]string{
	// keyword -> tag
	"music":      "music",
	"jazz":       "jazz",
	"rock":       "rock",
	"techno":     "techno",
	"electronic": "electronic",
	"classical":  "classical",
	"opera":      "opera",
	"theatre":    "theatre",
	"theater":    "theatre",
	"dance":      "dance",
	"comedy":     "comedy",
	"art":        "art",
	"exhibition": "exhibition",
	"museum":     "museum",
	"gallery":    "gallery",
	"film":       "film",
	"cinema":     "film",
	"festival":   "festival",
	"market":     "market",
	"food":       "food",
	"wine":       "wine",
	"beer":       "beer",
	"coffee":     "coffee",
	"outdoor":    "outdoor",
	"park":       "park",
	"hike":       "hiking",
	"sport":      "sport",
	"yoga":       "yoga",
	"run":        "running",
	"family":     "family",
	"kids":       "kids",
	"workshop":   "workshop",
	"tech":       "tech",
	"night":      "night",
	"free":       "free",
	"local":      "local",
	"culture":    "culture",
	"tradition":  "tradition",
}

// ExtractTags returns every tag from the fixed vocabulary whose keyword is a
// substring of the lower-cased input. The result is sorted for deterministic
// output; callers treat it as a set.
func ExtractTags(text string) []string {
	lower := strings.ToLower(text)
	set := make(map[string]bool)
	for keyword, tag := range tagVocabulary {
		if strings.Contains(lower, keyword) {
			set[tag] = true
		}
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// MergeTags unions tag lists into one sorted, de-duplicated list. Empty
// strings are dropped. The harvest writer uses this to fold extracted tags,
// source-supplied tags, and the provenance tag (source name) together.
func MergeTags(lists ...[]string) []string {
	set := make(map[string]bool)
	for _, list := range lists {
		for _, tag := range list {
			if tag != "" {
				set[tag] = true
			}
		}
	}

	merged := make([]string, 0, len(set))
	for tag := range set {
		merged = append(merged, tag)
	}
	sort.Strings(merged)
	return merged
}
