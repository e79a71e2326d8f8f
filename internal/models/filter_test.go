package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFilterModel(t *testing.T) {
	f, err := DecodeFilterModel([]byte(`{
		"platforms": ["Instagram", "instagram", " TikTok "],
		"followers": {"min": 1000},
		"niches": ["Fitness"],
		"verified": false,
		"unknown_key": 42
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"instagram", "tiktok"}, f.Platforms)
	assert.Equal(t, FollowerRange{Min: 1000}, f.Followers)
	assert.Equal(t, []string{"fitness"}, f.Niches)
	require.NotNil(t, f.Verified)
	assert.False(t, *f.Verified)
}

func TestDecodeFilterModelRejectsWrongShapes(t *testing.T) {
	cases := map[string]string{
		"not json":           `fitness creators`,
		"platforms not list": `{"platforms": "instagram"}`,
		"followers not obj":  `{"followers": 5000}`,
		"negative min":       `{"followers": {"min": -1}}`,
		"inverted range":     `{"price_range": {"min": 500, "max": 100}}`,
		"verified not bool":  `{"verified": "yes"}`,
	}
	for name, raw := range cases {
		_, err := DecodeFilterModel([]byte(raw))
		assert.Error(t, err, name)
	}
}

func TestDecodeFilterModelNullVerified(t *testing.T) {
	f, err := DecodeFilterModel([]byte(`{"verified": null}`))
	require.NoError(t, err)
	assert.Nil(t, f.Verified)
	assert.True(t, f.IsZero())
}

func TestFilterModelIsZero(t *testing.T) {
	assert.True(t, FilterModel{}.IsZero())

	f, err := DecodeFilterModel([]byte(`{}`))
	require.NoError(t, err)
	assert.True(t, f.IsZero())

	assert.False(t, FilterModel{Niches: []string{"tech"}}.IsZero())
	verified := true
	assert.False(t, FilterModel{Verified: &verified}.IsZero())
}

func TestFilterModelValidateOpenRanges(t *testing.T) {
	// Max of 0 means unbounded, so min above a zero max is fine.
	f := FilterModel{Followers: FollowerRange{Min: 1_000_000}}
	assert.NoError(t, f.Validate())
}

func TestOwnerRefValidate(t *testing.T) {
	assert.NoError(t, OwnerRef{UserID: "u1"}.Validate())
	assert.NoError(t, OwnerRef{GuestID: "g1"}.Validate())
	assert.Error(t, OwnerRef{}.Validate())
	assert.Error(t, OwnerRef{UserID: "u1", GuestID: "g1"}.Validate())
}
