package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Duerkos/steam-reviews-ai/internal/search"
)

func (s *Server) registerSummarySearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchSummaries",
		Method:      http.MethodGet,
		Path:        "/api/v1/summaries/search",
		Summary:     "Search summaries",
		Description: "Full-text search over stored review summaries",
		Tags:        []string{"Search"},
	}, s.handleSearchSummaries)
}

// SummarySearchInput contains parameters for searching stored summaries.
type SummarySearchInput struct {
	Query          string `query:"q" maxLength:"200" doc:"Free text matched against names, summaries and factors; empty lists everything"`
	MinScore       int    `query:"min_score" minimum:"0" maximum:"10" doc:"Minimum summary score"`
	MaxScore       int    `query:"max_score" minimum:"0" maximum:"10" doc:"Maximum summary score"`
	ExcludeFlagged bool   `query:"exclude_flagged" doc:"Hide summaries with a pending bug report"`
	Sort           string `query:"sort" enum:"relevance,score,recent,reviews" default:"relevance" doc:"Sort order"`
	Limit          int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
	Offset         int    `query:"offset" minimum:"0" doc:"Pagination offset"`
}

// SummarySearchOutput wraps the search result for Huma.
type SummarySearchOutput struct {
	Body *search.SearchResult
}

func (s *Server) handleSearchSummaries(ctx context.Context, input *SummarySearchInput) (*SummarySearchOutput, error) {
	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.MinScore = input.MinScore
	params.MaxScore = input.MaxScore
	params.ExcludeFlagged = input.ExcludeFlagged
	params.SortBy = input.Sort
	params.Limit = input.Limit
	params.Offset = input.Offset

	result, err := s.services.SummaryIndex.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SummarySearchOutput{Body: result}, nil
}
