// Package domain contains the core entities shared by the catalog search, review harvesting and summary cache.
package domain

import (
	"strconv"
	"unicode/utf8"
)

// StoreURLPrefix is the public store page prefix for an app.
const StoreURLPrefix = "https://store.steampowered.com/app/"

// CatalogEntry is one item of the flat app catalog.
type CatalogEntry struct {
	ID   int64  `json:"appid"`
	Name string `json:"name"`
}

// NameLength returns the name length in runes, used as the ranking tie-break.
func (e CatalogEntry) NameLength() int {
	return utf8.RuneCountInString(e.Name)
}

// StoreURL returns the store page for the entry.
func (e CatalogEntry) StoreURL() string {
	return StoreURLPrefix + strconv.FormatInt(e.ID, 10)
}

// PopularityTier labels how many reviews a candidate has.
type PopularityTier string

// Popularity tiers, matching the thresholds shown next to search results.
const (
	TierLow     PopularityTier = "low"     // fewer than 50 reviews
	TierEnough  PopularityTier = "enough"  // 50 to 999 reviews
	TierPopular PopularityTier = "popular" // 1000 reviews or more
)

// Candidate is a catalog entry scored against a query. Candidates are
// recomputed for every query and never persisted.
type Candidate struct {
	Entry        CatalogEntry `json:"entry"`
	FuzzyScore   float64      `json:"fuzzy_score"`
	ReviewCount  int          `json:"review_count"`
	BoostedScore float64      `json:"boosted_score"`
}

// Tier returns the popularity tier of the candidate. The label is for
// display only; ranking.BoostTier grants the popular bonus strictly above
// 1000 reviews, so a candidate with exactly 1000 is labelled popular but
// boosted as enough.
func (c Candidate) Tier() PopularityTier {
	switch {
	case c.ReviewCount < 50:
		return TierLow
	case c.ReviewCount < 1000:
		return TierEnough
	default:
		return TierPopular
	}
}

// ReviewStats is the aggregate review summary the store reports for an app.
type ReviewStats struct {
	AppID           int64  `json:"appid"`
	NumReviews      int    `json:"num_reviews"`
	ReviewScore     int    `json:"review_score"`
	ReviewScoreDesc string `json:"review_score_desc"`
	TotalPositive   int    `json:"total_positive"`
	TotalNegative   int    `json:"total_negative"`
	TotalReviews    int    `json:"total_reviews"`
}

// PositiveRatio returns the share of positive reviews, or 0 without reviews.
func (s ReviewStats) PositiveRatio() float64 {
	if s.TotalReviews == 0 {
		return 0
	}
	return float64(s.TotalPositive) / float64(s.TotalReviews)
}
