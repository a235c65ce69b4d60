package search

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
)

// setupTestIndex creates a temporary on-disk search index for testing.
func setupTestIndex(t *testing.T) *SearchIndex {
	t.Helper()

	index, err := NewSearchIndex(Options{Path: filepath.Join(t.TempDir(), "search.bleve")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func record(appID int64, content string) *domain.SummaryRecord {
	return &domain.SummaryRecord{
		AppID:                 appID,
		SummaryDate:           time.Date(2026, 9, int(appID%28)+1, 0, 0, 0, 0, time.UTC),
		TotalReviewsAtSummary: int(appID) * 10,
		Content:               json.RawMessage(content),
	}
}

var names = map[int64]string{
	620: "Portal 2",
	730: "Counter-Strike 2",
	105: "Buggy Racer",
}

func seed(t *testing.T, index *SearchIndex) {
	t.Helper()
	index.SetNameResolver(func(id int64) string { return names[id] })

	ctx := context.Background()
	require.NoError(t, index.IndexSummary(ctx, record(620,
		`{"summary":"A witty puzzle game with portals and a memorable soundtrack.","score":10,
		  "positive_factors":["Clever puzzles","Great writing"],"negative_factors":[]}`)))
	require.NoError(t, index.IndexSummary(ctx, record(730,
		`{"summary":"Competitive shooter with a toxic community.","score":6,
		  "positive_factors":["Tight gunplay"],"negative_factors":["Cheaters everywhere","Toxic players"]}`)))

	buggy := record(105, `{"summary":"Racing game that crashes constantly.","score":2,
		"positive_factors":["Nice cars"],"negative_factors":["Constant crashes"]}`)
	buggy.BugFlag = true
	require.NoError(t, index.IndexSummary(ctx, buggy))
}

func TestNewSearchIndex(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestNewSearchIndex_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.bleve")

	first, err := NewSearchIndex(Options{Path: path})
	require.NoError(t, err)
	require.NoError(t, first.IndexSummary(context.Background(), record(1, `{"summary":"x","score":5}`)))
	require.NoError(t, first.Close())

	second, err := NewSearchIndex(Options{Path: path})
	require.NoError(t, err)
	defer second.Close()

	count, err := second.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearch_MatchesSummaryAndFactors(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	tests := []struct {
		name  string
		query string
		want  int64
	}{
		{"summary text", "puzzle", 620},
		{"stemmed factor", "cheater", 730},
		{"app name", "portal", 620},
		{"negative factor", "crashes", 105},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultSearchParams()
			params.Query = tt.query

			result, err := index.Search(context.Background(), params)
			require.NoError(t, err)
			require.NotEmpty(t, result.Hits)
			assert.Equal(t, tt.want, result.Hits[0].AppID)
		})
	}
}

func TestSearch_StoredFields(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	params := DefaultSearchParams()
	params.Query = "toxic"
	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)

	hit := result.Hits[0]
	assert.Equal(t, "Counter-Strike 2", hit.Name)
	assert.Equal(t, 6, hit.SummaryScore)
	assert.Equal(t, 7300, hit.TotalReviews)
	assert.Equal(t, []string{"Tight gunplay"}, hit.PositiveFactors)
	assert.Equal(t, []string{"Cheaters everywhere", "Toxic players"}, hit.NegativeFactors)
	assert.NotEmpty(t, hit.Highlights)
}

func TestSearch_Filters(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	params := DefaultSearchParams()
	params.MinScore = 5
	params.SortBy = "score"
	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, int64(620), result.Hits[0].AppID)
	assert.Equal(t, int64(730), result.Hits[1].AppID)

	params = DefaultSearchParams()
	params.ExcludeFlagged = true
	result, err = index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
	for _, hit := range result.Hits {
		assert.NotEqual(t, int64(105), hit.AppID)
	}
}

func TestIndexSummary_ReplacesPrevious(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexSummary(ctx, record(42, `{"summary":"Old words about dragons.","score":4}`)))
	require.NoError(t, index.IndexSummary(ctx, record(42, `{"summary":"New words about spaceships.","score":8}`)))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	params := DefaultSearchParams()
	params.Query = "dragons"
	result, err := index.Search(ctx, params)
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
}

func TestIndexSummary_RejectsEmptyContent(t *testing.T) {
	index := setupTestIndex(t)
	err := index.IndexSummary(context.Background(), record(7, ``))
	assert.Error(t, err)
}

func TestIndexSummaries_Batch(t *testing.T) {
	index := setupTestIndex(t)

	records := make([]*domain.SummaryRecord, 0, 1203)
	for i := range 1200 {
		records = append(records, record(int64(i+1), `{"summary":"Bulk entry.","score":5}`))
	}
	records = append(records, record(5000, `not json`), record(5001, ``), record(5002, `{"summary":"Last.","score":1}`))

	indexed, skipped, err := index.IndexSummaries(records)
	require.NoError(t, err)
	assert.Equal(t, 1201, indexed)
	assert.Equal(t, 2, skipped)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1201), count)
}

func TestDeleteAndRebuild(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)
	ctx := context.Background()

	require.NoError(t, index.DeleteSummary(ctx, 620))
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	require.NoError(t, index.Rebuild())
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestMemOnlyIndex(t *testing.T) {
	index, err := NewSearchIndex(Options{})
	require.NoError(t, err)
	defer index.Close()

	seed(t, index)
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}
