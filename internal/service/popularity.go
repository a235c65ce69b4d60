package service

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	"github.com/Duerkos/steam-reviews-ai/internal/logger"
)

// Popularity cache defaults.
const (
	DefaultPopularityCacheSize = 4096
	DefaultPopularityTTL       = 10 * time.Minute
	DefaultPopularityTimeout   = 30 * time.Second
)

// ReviewStatsSource fetches the review summary of an app.
type ReviewStatsSource interface {
	ReviewStats(ctx context.Context, appID int64) (*domain.ReviewStats, error)
}

// PopularityCache keeps recent review summaries so that repeated searches do
// not refetch counts for the same candidates. Concurrent misses for one app
// share a single upstream request.
type PopularityCache struct {
	source  ReviewStatsSource
	cache   *expirable.LRU[int64, *domain.ReviewStats]
	group   singleflight.Group
	timeout time.Duration
	logger  *slog.Logger
}

// NewPopularityCache creates a cache holding up to size apps for ttl.
func NewPopularityCache(source ReviewStatsSource, size int, ttl time.Duration, log *slog.Logger) *PopularityCache {
	if size <= 0 {
		size = DefaultPopularityCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultPopularityTTL
	}
	return &PopularityCache{
		source: source,
		cache:   expirable.NewLRU[int64, *domain.ReviewStats](size, nil, ttl),
		timeout: DefaultPopularityTimeout,
		logger:  logger.OrNop(log).With("component", "popularity"),
	}
}

// Stats returns the review summary of an app.
func (p *PopularityCache) Stats(ctx context.Context, appID int64) (*domain.ReviewStats, error) {
	if stats, ok := p.cache.Get(appID); ok {
		return stats, nil
	}

	// The shared fetch runs detached from the caller that started it; each
	// caller waits on its own ctx.
	ch := p.group.DoChan(strconv.FormatInt(appID, 10), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		stats, err := p.source.ReviewStats(fetchCtx, appID)
		if err != nil {
			return nil, err
		}
		p.cache.Add(appID, stats)
		return stats, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.ReviewStats), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ReviewCount returns the total review count of an app. It satisfies
// ranking.PopularitySource.
func (p *PopularityCache) ReviewCount(ctx context.Context, appID int64) (int, error) {
	stats, err := p.Stats(ctx, appID)
	if err != nil {
		return 0, err
	}
	return stats.TotalReviews, nil
}

// Forget drops an app so the next call refetches it.
func (p *PopularityCache) Forget(appID int64) {
	p.cache.Remove(appID)
}

// Len returns the number of cached apps.
func (p *PopularityCache) Len() int {
	return p.cache.Len()
}
