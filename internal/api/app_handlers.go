package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Duerkos/steam-reviews-ai/internal/summarizer"
)

func (s *Server) registerAppRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getAppStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/apps/{id}/stats",
		Summary:     "Get review stats",
		Description: "Returns the review counts Steam reports for an app",
		Tags:        []string{"Apps"},
	}, s.handleGetAppStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAppSummary",
		Method:      http.MethodGet,
		Path:        "/api/v1/apps/{id}/summary",
		Summary:     "Get review summary",
		Description: "Returns the AI summary of an app's reviews, generating it when the stored one is missing, stale or flagged",
		Tags:        []string{"Apps"},
	}, s.handleGetAppSummary)
}

// === DTOs ===

// AppPathInput identifies an app.
type AppPathInput struct {
	ID int64 `path:"id" minimum:"1" doc:"Steam app id"`
}

// StatsResponse contains an app's review counts.
type StatsResponse struct {
	ID              int64   `json:"id" doc:"Steam app id"`
	Name            string  `json:"name,omitempty" doc:"App name when the catalog is loaded"`
	TotalReviews    int     `json:"total_reviews" doc:"Total reviews"`
	TotalPositive   int     `json:"total_positive" doc:"Positive reviews"`
	TotalNegative   int     `json:"total_negative" doc:"Negative reviews"`
	PositiveRatio   float64 `json:"positive_ratio" doc:"Share of positive reviews, 0 to 1"`
	ReviewScore     int     `json:"review_score" doc:"Steam review score bucket"`
	ReviewScoreDesc string  `json:"review_score_desc,omitempty" doc:"Steam review score label"`
}

// StatsOutput wraps the stats response for Huma.
type StatsOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         StatsResponse
}

// SummaryResponse contains an app summary and its cache metadata.
type SummaryResponse struct {
	ID                    int64               `json:"id" doc:"Steam app id"`
	Name                  string              `json:"name,omitempty" doc:"App name when the catalog is loaded"`
	Available             bool                `json:"available" doc:"False when the app has no reviews to summarize"`
	FromCache             bool                `json:"from_cache" doc:"True when the stored summary was reused"`
	Summary               string              `json:"summary,omitempty" doc:"Summary text"`
	Score                 int                 `json:"score" doc:"Overall score, 0 to 10"`
	PositiveFactors       []summarizer.Factor `json:"positive_factors" doc:"What reviewers liked"`
	NegativeFactors       []summarizer.Factor `json:"negative_factors" doc:"What reviewers disliked"`
	SummaryDate           *time.Time          `json:"summary_date,omitempty" doc:"When the summary was generated"`
	TotalReviewsAtSummary int                 `json:"total_reviews_at_summary" doc:"Review count when the summary was generated"`
	CurrentReviewCount    int                 `json:"current_review_count" doc:"Review count now"`
	TimesConsulted        int                 `json:"times_consulted" doc:"How many times this summary was served"`
	BugFlag               bool                `json:"bug_flag" doc:"Whether a bug report is pending"`
}

// SummaryOutput wraps the summary response for Huma.
type SummaryOutput struct {
	Body SummaryResponse
}

// === Handlers ===

func (s *Server) handleGetAppStats(ctx context.Context, input *AppPathInput) (*StatsOutput, error) {
	stats, err := s.services.Search.Stats(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &StatsOutput{
		CacheControl: CacheFiveMinutes,
		Body: StatsResponse{
			ID:              input.ID,
			Name:            s.appName(input.ID),
			TotalReviews:    stats.TotalReviews,
			TotalPositive:   stats.TotalPositive,
			TotalNegative:   stats.TotalNegative,
			PositiveRatio:   stats.PositiveRatio(),
			ReviewScore:     stats.ReviewScore,
			ReviewScoreDesc: stats.ReviewScoreDesc,
		},
	}, nil
}

func (s *Server) handleGetAppSummary(ctx context.Context, input *AppPathInput) (*SummaryOutput, error) {
	res, err := s.services.Summary.Summarize(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	body := SummaryResponse{
		ID:              input.ID,
		Name:            s.appName(input.ID),
		Available:       res.Available,
		PositiveFactors: []summarizer.Factor{},
		NegativeFactors: []summarizer.Factor{},
	}
	if !res.Available {
		return &SummaryOutput{Body: body}, nil
	}

	body.FromCache = res.FromCache
	body.CurrentReviewCount = res.CurrentReviewCount
	if c := res.Content; c != nil {
		body.Summary = c.Summary
		body.Score = c.Score
		if c.PositiveFactors != nil {
			body.PositiveFactors = c.PositiveFactors
		}
		if c.NegativeFactors != nil {
			body.NegativeFactors = c.NegativeFactors
		}
	}
	if rec := res.Record; rec != nil {
		date := rec.SummaryDate
		body.SummaryDate = &date
		body.TotalReviewsAtSummary = rec.TotalReviewsAtSummary
		body.TimesConsulted = rec.TimesConsulted
		body.BugFlag = rec.BugFlag
	}

	return &SummaryOutput{Body: body}, nil
}

// appName returns the catalog name without forcing a catalog load.
func (s *Server) appName(appID int64) string {
	if s.services.Catalog == nil {
		return ""
	}
	return s.services.Catalog.Name(appID)
}
