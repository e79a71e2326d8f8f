package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/creator-search/internal/models"
)

func TestParseBasicNeverFails(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"!!!???",
		"找到一些创作者",
		"followers followers followers",
		"99999999999999999999 followers",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { ParseBasic(in) }, "input %q", in)
	}
}

func TestParseBasicNicheDetection(t *testing.T) {
	f := ParseBasic("fitness creators with high engagement")
	assert.Equal(t, []string{"fitness"}, f.Niches)
	assert.Empty(t, f.Platforms)
	assert.Equal(t, models.FollowerRange{}, f.Followers)
}

func TestParseBasicFollowerBand(t *testing.T) {
	f := ParseBasic("YouTubers from US with 150k followers")
	assert.Equal(t, []string{"youtube"}, f.Platforms)
	assert.Equal(t, models.FollowerRange{Min: 140_000, Max: 200_000}, f.Followers)
}

func TestParseBasicFollowerBandClampsAtZero(t *testing.T) {
	f := ParseBasic("micro creators with 5k followers")
	assert.Equal(t, models.FollowerRange{Min: 0, Max: 55_000}, f.Followers)
}

func TestParseBasicPlainCountAndSubs(t *testing.T) {
	f := ParseBasic("streamers with 20000 subs on twitch")
	assert.Equal(t, models.FollowerRange{Min: 10_000, Max: 70_000}, f.Followers)
	assert.Equal(t, []string{"twitch"}, f.Platforms)
}

func TestParseBasicCommaDecimal(t *testing.T) {
	f := ParseBasic("creators with 1,5k followers")
	assert.Equal(t, models.FollowerRange{Min: 0, Max: 51_500}, f.Followers)
}

func TestParseBasicGroupedThousands(t *testing.T) {
	f := ParseBasic("mega creators with 1,500,000 followers")
	assert.Equal(t, models.FollowerRange{Min: 1_490_000, Max: 1_550_000}, f.Followers)
}

func TestParseBasicAbsurdCountSaturates(t *testing.T) {
	// Counts beyond any real creator clamp to the ceiling instead of
	// overflowing into an inverted or negative band.
	f := ParseBasic("99999999999999999999 followers")
	assert.Equal(t, models.FollowerRange{
		Min: 10_000_000_000 - 10_000,
		Max: 10_000_000_000 + 50_000,
	}, f.Followers)
	assert.NoError(t, f.Validate())

	f = ParseBasic("20000000k followers")
	assert.Equal(t, models.FollowerRange{
		Min: 10_000_000_000 - 10_000,
		Max: 10_000_000_000 + 50_000,
	}, f.Followers)
	assert.NoError(t, f.Validate())
}

func TestParseBasicMultipleVocabularyHits(t *testing.T) {
	f := ParseBasic("food and travel creators on instagram and tiktok")
	assert.ElementsMatch(t, []string{"food", "travel"}, f.Niches)
	assert.ElementsMatch(t, []string{"instagram", "tiktok"}, f.Platforms)
}

func TestParseBasicLeavesOtherFieldsUnconstrained(t *testing.T) {
	f := ParseBasic("gaming creators")
	assert.Equal(t, models.EngagementRange{}, f.Engagement)
	assert.Equal(t, models.PriceRange{}, f.PriceRange)
	assert.Empty(t, f.Locations)
	assert.Nil(t, f.Verified)
}

func TestKeywordParserMatchesParseBasic(t *testing.T) {
	query := "beauty creators on youtube with 50k followers"
	got := KeywordParser{}.ExtractFilters(context.Background(), query, ExtractionContext{})
	require.Equal(t, ParseBasic(query), got)
	assert.False(t, KeywordParser{}.Enabled())
}
