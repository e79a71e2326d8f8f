package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FollowerRange bounds a follower count. Max of 0 means unbounded above.
type FollowerRange struct {
	Min int64 `json:"min,omitempty"`
	Max int64 `json:"max,omitempty"`
}

// EngagementRange bounds an engagement rate in percentage points.
// Max of 0 means unbounded above.
type EngagementRange struct {
	Min float64 `json:"min,omitempty"`
	Max float64 `json:"max,omitempty"`
}

// PriceRange bounds a per-post rate. Max of 0 means unbounded above.
type PriceRange struct {
	Min int64 `json:"min,omitempty"`
	Max int64 `json:"max,omitempty"`
}

// FilterModel is the structured form of a creator search query. Every field
// is optional: the zero value of a field means "no constraint", so the zero
// FilterModel matches every creator. Adding a constraint only ever narrows
// the matched set.
type FilterModel struct {
	Platforms  []string        `json:"platforms,omitempty"`
	Followers  FollowerRange   `json:"followers,omitempty"`
	Engagement EngagementRange `json:"engagement,omitempty"`
	Niches     []string        `json:"niches,omitempty"`
	Locations  []string        `json:"locations,omitempty"`
	PriceRange PriceRange      `json:"price_range,omitempty"`
	Verified   *bool           `json:"verified,omitempty"`
}

// IsZero reports whether the model carries no constraints at all.
func (f FilterModel) IsZero() bool {
	return len(f.Platforms) == 0 &&
		f.Followers == (FollowerRange{}) &&
		f.Engagement == (EngagementRange{}) &&
		len(f.Niches) == 0 &&
		len(f.Locations) == 0 &&
		f.PriceRange == (PriceRange{}) &&
		f.Verified == nil
}

// Validate rejects models that cannot describe a real constraint: negative
// bounds, or a closed range with min above max.
func (f FilterModel) Validate() error {
	if f.Followers.Min < 0 || f.Followers.Max < 0 {
		return fmt.Errorf("invalid follower range [%d, %d]", f.Followers.Min, f.Followers.Max)
	}
	if f.Followers.Max != 0 && f.Followers.Min > f.Followers.Max {
		return fmt.Errorf("follower range min %d above max %d", f.Followers.Min, f.Followers.Max)
	}
	if f.Engagement.Min < 0 || f.Engagement.Max < 0 {
		return fmt.Errorf("invalid engagement range [%g, %g]", f.Engagement.Min, f.Engagement.Max)
	}
	if f.Engagement.Max != 0 && f.Engagement.Min > f.Engagement.Max {
		return fmt.Errorf("engagement range min %g above max %g", f.Engagement.Min, f.Engagement.Max)
	}
	if f.PriceRange.Min < 0 || f.PriceRange.Max < 0 {
		return fmt.Errorf("invalid price range [%d, %d]", f.PriceRange.Min, f.PriceRange.Max)
	}
	if f.PriceRange.Max != 0 && f.PriceRange.Min > f.PriceRange.Max {
		return fmt.Errorf("price range min %d above max %d", f.PriceRange.Min, f.PriceRange.Max)
	}
	return nil
}

// Normalize lowercases and trims the set fields, dropping empty entries.
func (f FilterModel) Normalize() FilterModel {
	f.Platforms = normalizeSet(f.Platforms)
	f.Niches = normalizeSet(f.Niches)
	f.Locations = normalizeSet(f.Locations)
	return f
}

func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// DecodeFilterModel parses raw JSON into a validated, normalized FilterModel.
// Type mismatches and impossible ranges are errors; unknown keys are ignored
// so the decoder tolerates chatty model output around the recognized shape.
func DecodeFilterModel(data []byte) (FilterModel, error) {
	var f FilterModel
	if err := json.Unmarshal(data, &f); err != nil {
		return FilterModel{}, fmt.Errorf("decoding filters: %w", err)
	}
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return FilterModel{}, err
	}
	return f, nil
}
