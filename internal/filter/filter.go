// Package filter applies structured filters and free-text search to an
// in-memory creator list. All functions are pure: they never mutate their
// inputs and have no side effects, so search-then-filter and
// filter-then-search compose to the same result set.
package filter

import (
	"strings"

	"github.com/xaenox/creator-search/internal/models"
)

// Apply returns the creators matching every active constraint in f. The zero
// FilterModel is the identity: Apply(c, FilterModel{}) returns all of c.
func Apply(creators []models.Creator, f models.FilterModel) []models.Creator {
	out := make([]models.Creator, 0, len(creators))
	for _, c := range creators {
		if Matches(c, f) {
			out = append(out, c)
		}
	}
	return out
}

// Matches reports whether a single creator passes every active constraint.
func Matches(c models.Creator, f models.FilterModel) bool {
	if len(f.Platforms) > 0 && !matchesPlatform(c.Platforms, f.Platforms) {
		return false
	}
	if c.Followers < f.Followers.Min {
		return false
	}
	if f.Followers.Max != 0 && c.Followers > f.Followers.Max {
		return false
	}
	if c.EngagementRate < f.Engagement.Min {
		return false
	}
	if f.Engagement.Max != 0 && c.EngagementRate > f.Engagement.Max {
		return false
	}
	if len(f.Niches) > 0 && !matchesAnyFuzzy(c.Niches, f.Niches) {
		return false
	}
	if len(f.Locations) > 0 && !matchesLocation(c.Location, f.Locations) {
		return false
	}
	if c.Rates.Post < f.PriceRange.Min {
		return false
	}
	if f.PriceRange.Max != 0 && c.Rates.Post > f.PriceRange.Max {
		return false
	}
	if f.Verified != nil && c.Verified != *f.Verified {
		return false
	}
	return true
}

func matchesPlatform(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

// matchesAnyFuzzy passes when any creator niche fuzzy-matches any requested
// niche. The match is a bidirectional case-insensitive substring test, so
// "fitness" matches "fitness & wellness" and vice versa.
func matchesAnyFuzzy(have, want []string) bool {
	for _, w := range want {
		lw := strings.ToLower(w)
		for _, h := range have {
			lh := strings.ToLower(h)
			if strings.Contains(lh, lw) || strings.Contains(lw, lh) {
				return true
			}
		}
	}
	return false
}

func matchesLocation(location string, want []string) bool {
	ll := strings.ToLower(location)
	for _, w := range want {
		lw := strings.ToLower(w)
		if strings.Contains(ll, lw) || strings.Contains(lw, ll) {
			return true
		}
	}
	return false
}

// ApplySearch narrows creators by a free-text term. A single-word term (or
// one made of short words) passes a creator when it substring-matches any of
// name, username, location, niches, or platforms. When the term has two or
// more words longer than two characters, every such word must match at least
// one field, possibly different fields per word.
func ApplySearch(creators []models.Creator, term string) []models.Creator {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return creators
	}

	words := significantWords(term)
	out := make([]models.Creator, 0, len(creators))
	for _, c := range creators {
		if len(words) >= 2 {
			if matchesAllWords(c, words) {
				out = append(out, c)
			}
		} else if matchesTerm(c, term) {
			out = append(out, c)
		}
	}
	return out
}

func significantWords(term string) []string {
	var words []string
	for _, w := range strings.Fields(term) {
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	return words
}

func matchesAllWords(c models.Creator, words []string) bool {
	for _, w := range words {
		if !matchesTerm(c, w) {
			return false
		}
	}
	return true
}

func matchesTerm(c models.Creator, term string) bool {
	if strings.Contains(strings.ToLower(c.Name), term) ||
		strings.Contains(strings.ToLower(c.Username), term) ||
		strings.Contains(strings.ToLower(c.Location), term) {
		return true
	}
	for _, n := range c.Niches {
		if strings.Contains(strings.ToLower(n), term) {
			return true
		}
	}
	for _, p := range c.Platforms {
		if strings.Contains(strings.ToLower(p), term) {
			return true
		}
	}
	return false
}
