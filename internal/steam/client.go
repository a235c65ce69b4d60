// Package steam reads the public Steam store endpoints: the flat app list,
// per-app review summaries and the cursor-paginated review listing.
package steam

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	domainerrors "github.com/Duerkos/steam-reviews-ai/internal/errors"
	"github.com/Duerkos/steam-reviews-ai/internal/fetch"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
)

// Client is a Steam client on top of a retrying fetcher.
type Client struct {
	fetcher  fetch.Fetcher
	storeURL string
	apiURL   string
	logger   *slog.Logger
}

// New creates a Steam client. Empty URLs fall back to the public hosts.
func New(fetcher fetch.Fetcher, storeURL, apiURL string, log *slog.Logger) *Client {
	if storeURL == "" {
		storeURL = DefaultStoreURL
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		fetcher:  fetcher,
		storeURL: strings.TrimRight(storeURL, "/"),
		apiURL:   strings.TrimRight(apiURL, "/"),
		logger:   logger.OrNop(log).With("component", "steam"),
	}
}

// AppList downloads the full catalog. Entries with an empty name are skipped.
func (c *Client) AppList(ctx context.Context) ([]domain.CatalogEntry, error) {
	var resp rawAppListResponse
	if err := c.fetcher.GetJSON(ctx, c.apiURL+"/ISteamApps/GetAppList/v2/", nil, &resp); err != nil {
		return nil, fmt.Errorf("app list: %w", err)
	}

	entries := make([]domain.CatalogEntry, 0, len(resp.AppList.Apps))
	for _, app := range resp.AppList.Apps {
		if strings.TrimSpace(app.Name) == "" {
			continue
		}
		entries = append(entries, app)
	}

	c.logger.Debug("app list loaded", "entries", len(entries), "raw", len(resp.AppList.Apps))
	return entries, nil
}

// ReviewStats returns the all-language review summary for an app.
func (c *Client) ReviewStats(ctx context.Context, appID int64) (*domain.ReviewStats, error) {
	params := url.Values{
		"json":          {"1"},
		"purchase_type": {"all"},
		"review_type":   {"all"},
	}

	var resp rawReviewsResponse
	if err := c.fetcher.GetJSON(ctx, c.reviewsURL(appID), params, &resp); err != nil {
		return nil, fmt.Errorf("review stats for %d: %w", appID, err)
	}
	return resp.QuerySummary.Stats(appID), nil
}

// ReviewCount returns total_reviews for an app. It satisfies the ranker's
// popularity source.
func (c *Client) ReviewCount(ctx context.Context, appID int64) (int, error) {
	stats, err := c.ReviewStats(ctx, appID)
	if err != nil {
		return 0, err
	}
	return stats.TotalReviews, nil
}

// ReviewPage fetches one page of the review listing.
func (c *Client) ReviewPage(ctx context.Context, appID int64, req PageRequest) (*ReviewPage, error) {
	if req.Cursor == "" {
		return nil, domainerrors.Validation("review page cursor is required")
	}

	params := url.Values{
		"json":          {"1"},
		"cursor":        {req.Cursor},
		"num_per_page":  {strconv.Itoa(req.NumPerPage)},
		"language":      {req.Language},
		"purchase_type": {req.PurchaseType},
		"review_type":   {req.ReviewType},
		"day_range":     {strconv.Itoa(req.DayRange)},
	}

	var resp rawReviewsResponse
	if err := c.fetcher.GetJSON(ctx, c.reviewsURL(appID), params, &resp); err != nil {
		return nil, fmt.Errorf("review page for %d: %w", appID, err)
	}

	return &ReviewPage{
		Summary: resp.QuerySummary,
		Reviews: resp.Reviews,
		Cursor:  resp.Cursor,
	}, nil
}

func (c *Client) reviewsURL(appID int64) string {
	return c.storeURL + "/appreviews/" + strconv.FormatInt(appID, 10)
}
