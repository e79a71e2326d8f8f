package parser

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/xaenox/creator-search/internal/models"
)

// Parser converts a free-text query into structured creator filters.
// Enabled reports whether the parser can make use of few-shot extraction
// context; when false, callers skip assembling it.
type Parser interface {
	ExtractFilters(ctx context.Context, query string, ectx ExtractionContext) models.FilterModel
	Enabled() bool
}

// KnownNiches and KnownPlatforms are the fixed vocabularies the keyword
// parser scans for and the extraction prompt advertises.
var (
	KnownNiches = []string{
		"fitness", "fashion", "beauty", "tech", "gaming", "food", "travel",
		"music", "comedy", "education", "lifestyle", "sports", "finance",
		"parenting", "photography", "art", "health", "wellness", "diy",
	}
	KnownPlatforms = []string{
		"instagram", "tiktok", "youtube", "twitter", "twitch", "facebook",
		"linkedin",
	}
)

// Follower-count phrase, e.g. "150k followers", "20000 subs", "1,5k followers",
// "1,500,000 followers".
var (
	followerPhrase  = regexp.MustCompile(`(\d+(?:[.,]\d+)*)\s*(k?)\s*(?:followers|subs)`)
	groupedThousand = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
)

const (
	// Heuristic band around a stated follower count. A user asking for
	// "150k followers" is browsing a neighborhood, not an exact figure.
	followerBandBelow = 10_000
	followerBandAbove = 50_000

	// Stated counts are capped well above any real creator so absurd numbers
	// still produce an ordered, non-negative band instead of overflowing.
	maxStatedFollowers = 10_000_000_000
)

// parseFollowerCount turns the matched number into a follower count,
// handling thousand separators ("1,500,000") and comma decimals ("1,5").
func parseFollowerCount(raw, suffix string) (int64, bool) {
	if groupedThousand.MatchString(raw) {
		raw = strings.ReplaceAll(raw, ",", "")
	} else {
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	count, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if suffix == "k" {
		count *= 1000
	}
	if count > maxStatedFollowers {
		count = maxStatedFollowers
	}
	return int64(count), true
}

// ParseBasic is the dependency-free fallback extractor. It scans the query
// for known niche and platform words and one follower-count phrase. It never
// fails: any input, including the empty string, yields a valid FilterModel.
func ParseBasic(query string) models.FilterModel {
	var f models.FilterModel
	q := strings.ToLower(query)

	for _, niche := range KnownNiches {
		if strings.Contains(q, niche) {
			f.Niches = append(f.Niches, niche)
		}
	}
	for _, platform := range KnownPlatforms {
		if strings.Contains(q, platform) {
			f.Platforms = append(f.Platforms, platform)
		}
	}

	if m := followerPhrase.FindStringSubmatch(q); m != nil {
		if n, ok := parseFollowerCount(m[1], m[2]); ok {
			min := n - followerBandBelow
			if min < 0 {
				min = 0
			}
			f.Followers = models.FollowerRange{Min: min, Max: n + followerBandAbove}
		}
	}

	return f
}

// KeywordParser adapts ParseBasic to the Parser interface for deployments
// with no language-model provider configured.
type KeywordParser struct{}

func (KeywordParser) ExtractFilters(_ context.Context, query string, _ ExtractionContext) models.FilterModel {
	return ParseBasic(query)
}

// Enabled is always false: the keyword parser ignores extraction context.
func (KeywordParser) Enabled() bool {
	return false
}
