package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogEntry_StoreURL(t *testing.T) {
	e := CatalogEntry{ID: 413150, Name: "Stardew Valley"}
	assert.Equal(t, "https://store.steampowered.com/app/413150", e.StoreURL())
}

func TestCatalogEntry_NameLength_CountsRunes(t *testing.T) {
	assert.Equal(t, 7, CatalogEntry{Name: "Pokémon"}.NameLength())
	assert.Equal(t, 0, CatalogEntry{}.NameLength())
}

func TestCandidate_Tier(t *testing.T) {
	tests := []struct {
		reviews int
		want    PopularityTier
	}{
		{0, TierLow},
		{49, TierLow},
		{50, TierEnough},
		{999, TierEnough},
		{1000, TierPopular},
		{300000, TierPopular},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Candidate{ReviewCount: tt.reviews}.Tier(), "reviews=%d", tt.reviews)
	}
}

func TestReviewStats_PositiveRatio(t *testing.T) {
	assert.Equal(t, 0.0, ReviewStats{}.PositiveRatio())
	assert.InDelta(t, 0.75, ReviewStats{TotalPositive: 75, TotalReviews: 100}.PositiveRatio(), 1e-9)
}

func TestReviewBatch_Counts(t *testing.T) {
	b := NewReviewBatch()
	b.Records[3] = ReviewRecord{ID: 3, Text: "meh", Sentiment: SentimentNegative}
	b.Records[1] = ReviewRecord{ID: 1, Text: "great", Sentiment: SentimentPositive}
	b.Records[2] = ReviewRecord{ID: 2, Text: "fun", Sentiment: SentimentFromVote(true)}

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 2, b.Positive())
	assert.Equal(t, 1, b.Negative())

	sorted := b.Sorted()
	assert.Equal(t, []int{1, 2, 3}, []int{sorted[0].ID, sorted[1].ID, sorted[2].ID})
}

func TestReviewBatch_Nil(t *testing.T) {
	var b *ReviewBatch
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.Positive())
	assert.Nil(t, b.Sorted())
}
