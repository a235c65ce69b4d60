package steam

import "github.com/Duerkos/steam-reviews-ai/internal/domain"

// Default upstream hosts.
const (
	DefaultStoreURL = "https://store.steampowered.com"
	DefaultAPIURL   = "https://api.steampowered.com"
)

// FirstCursor starts a review listing.
const FirstCursor = "*"

// PageRequest selects one page of the review listing.
type PageRequest struct {
	Cursor       string
	NumPerPage   int
	Language     string
	PurchaseType string
	ReviewType   string
	DayRange     int
}

// DefaultPageRequest returns the first-page request used by the harvester.
func DefaultPageRequest() PageRequest {
	return PageRequest{
		Cursor:       FirstCursor,
		NumPerPage:   50,
		Language:     "english",
		PurchaseType: "all",
		ReviewType:   "all",
		DayRange:     365,
	}
}

// Review is one upstream review.
type Review struct {
	RecommendationID string `json:"recommendationid"`
	Text             string `json:"review"`
	VotedUp          bool   `json:"voted_up"`
}

// ReviewPage is one page of the listing.
type ReviewPage struct {
	Summary QuerySummary
	Reviews []Review
	Cursor  string
}

// QuerySummary is the query_summary object. Pages after the first only
// carry NumReviews.
type QuerySummary struct {
	NumReviews      int    `json:"num_reviews"`
	ReviewScore     int    `json:"review_score"`
	ReviewScoreDesc string `json:"review_score_desc"`
	TotalPositive   int    `json:"total_positive"`
	TotalNegative   int    `json:"total_negative"`
	TotalReviews    int    `json:"total_reviews"`
}

// Stats converts the summary into the domain type.
func (q QuerySummary) Stats(appID int64) *domain.ReviewStats {
	return &domain.ReviewStats{
		AppID:           appID,
		NumReviews:      q.NumReviews,
		ReviewScore:     q.ReviewScore,
		ReviewScoreDesc: q.ReviewScoreDesc,
		TotalPositive:   q.TotalPositive,
		TotalNegative:   q.TotalNegative,
		TotalReviews:    q.TotalReviews,
	}
}

// Raw API response types (internal)

type rawReviewsResponse struct {
	Success      int          `json:"success"`
	QuerySummary QuerySummary `json:"query_summary"`
	Reviews      []Review     `json:"reviews"`
	Cursor       string       `json:"cursor"`
}

type rawAppListResponse struct {
	AppList struct {
		Apps []domain.CatalogEntry `json:"apps"`
	} `json:"applist"`
}
