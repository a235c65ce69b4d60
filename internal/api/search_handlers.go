package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchApps",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search apps",
		Description: "Fuzzy-matches the query against the app catalog and ranks matches by relevance and review count",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching the catalog.
type SearchInput struct {
	Query string `query:"q" required:"true" minLength:"1" maxLength:"200" doc:"App name to look for"`
	Limit int    `query:"limit" minimum:"0" maximum:"100" doc:"Maximum results (default 30)"`
}

// CandidateResult is one ranked match.
type CandidateResult struct {
	ID           int64   `json:"id" doc:"Steam app id"`
	Name         string  `json:"name" doc:"App name"`
	FuzzyScore   float64 `json:"fuzzy_score" doc:"Match score, 0 to 100"`
	ReviewCount  int     `json:"review_count" doc:"Total reviews"`
	BoostedScore float64 `json:"boosted_score" doc:"Match score plus popularity boost"`
	Tier         string  `json:"tier" doc:"Popularity tier: low, enough or popular"`
	StoreURL     string  `json:"store_url" doc:"Store page"`
}

// SearchResponse contains the ranked shortlist.
type SearchResponse struct {
	Query string            `json:"query" doc:"Original search query"`
	Total int               `json:"total" doc:"Number of results"`
	Hits  []CandidateResult `json:"hits" doc:"Ranked matches, best first"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	candidates, err := s.services.Search.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}

	hits := make([]CandidateResult, len(candidates))
	for i, c := range candidates {
		hits[i] = toCandidateResult(c)
	}

	return &SearchOutput{
		Body: SearchResponse{
			Query: input.Query,
			Total: len(hits),
			Hits:  hits,
		},
	}, nil
}

func toCandidateResult(c domain.Candidate) CandidateResult {
	return CandidateResult{
		ID:           c.Entry.ID,
		Name:         c.Entry.Name,
		FuzzyScore:   c.FuzzyScore,
		ReviewCount:  c.ReviewCount,
		BoostedScore: c.BoostedScore,
		Tier:         string(c.Tier()),
		StoreURL:     c.Entry.StoreURL(),
	}
}
