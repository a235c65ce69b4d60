package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string // Free text matched against name, summary and factors

	// Filters
	MinScore       int  // Minimum summary score (0 = no filter)
	MaxScore       int  // Maximum summary score (0 = no filter)
	ExcludeFlagged bool // Drop summaries with an open bug report

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy string // "relevance", "score", "recent", "reviews"

	Highlight bool
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:     20,
		SortBy:    "relevance",
		Highlight: true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	AppID           int64             `json:"appid"`
	Score           float64           `json:"score"`
	Name            string            `json:"name,omitempty"`
	Summary         string            `json:"summary"`
	SummaryScore    int               `json:"summary_score"`
	TotalReviews    int               `json:"total_reviews"`
	PositiveFactors []string          `json:"positive_factors,omitempty"`
	NegativeFactors []string          `json:"negative_factors,omitempty"`
	BugFlag         bool              `json:"bug_flag"`
	Highlights      map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(searchRequest, params)

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("summary")
		searchRequest.Highlight.AddField("positive_factors")
		searchRequest.Highlight.AddField("negative_factors")
	}

	searchRequest.Fields = []string{
		"appid", "name", "summary", "score", "total_reviews",
		"positive_factors", "negative_factors", "bug_flag",
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{Score: hit.Score}
		searchHit.AppID, _ = strconv.ParseInt(hit.ID, 10, 64)

		if n, ok := hit.Fields["name"].(string); ok {
			searchHit.Name = n
		}
		if sm, ok := hit.Fields["summary"].(string); ok {
			searchHit.Summary = sm
		}
		if sc, ok := hit.Fields["score"].(float64); ok {
			searchHit.SummaryScore = int(sc)
		}
		if tr, ok := hit.Fields["total_reviews"].(float64); ok {
			searchHit.TotalReviews = int(tr)
		}
		if b, ok := hit.Fields["bug_flag"].(bool); ok {
			searchHit.BugFlag = b
		}
		searchHit.PositiveFactors = stringList(hit.Fields["positive_factors"])
		searchHit.NegativeFactors = stringList(hit.Fields["negative_factors"])

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// stringList reads a stored field that Bleve returns as a string for one
// value and as []any for several.
func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		nameMatch := bleve.NewMatchQuery(q)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)

		summaryMatch := bleve.NewMatchQuery(q)
		summaryMatch.SetField("summary")
		summaryMatch.SetBoost(1.5)

		positiveMatch := bleve.NewMatchQuery(q)
		positiveMatch.SetField("positive_factors")

		negativeMatch := bleve.NewMatchQuery(q)
		negativeMatch.SetField("negative_factors")

		// Typo tolerance on the name.
		fuzzyQuery := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("name")
		fuzzyQuery.SetBoost(0.8)

		queries = append(queries, bleve.NewDisjunctionQuery(
			nameMatch, summaryMatch, positiveMatch, negativeMatch, fuzzyQuery,
		))
	}

	if params.MinScore > 0 || params.MaxScore > 0 {
		minScore := float64(params.MinScore)
		maxScore := float64(params.MaxScore)
		if params.MaxScore == 0 {
			maxScore = 10
		}
		inclusive := true
		rangeQuery := bleve.NewNumericRangeInclusiveQuery(&minScore, &maxScore, &inclusive, &inclusive)
		rangeQuery.SetField("score")
		queries = append(queries, rangeQuery)
	}

	if params.ExcludeFlagged {
		flagged := bleve.NewBoolFieldQuery(false)
		flagged.SetField("bug_flag")
		queries = append(queries, flagged)
	}

	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	switch params.SortBy {
	case "score":
		req.SortBy([]string{"-score", "-_score"})
	case "recent":
		req.SortBy([]string{"-summary_date"})
	case "reviews":
		req.SortBy([]string{"-total_reviews"})
	default:
		req.SortBy([]string{"-_score"})
	}
}
