package ranking

import (
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
	"github.com/Duerkos/steam-reviews-ai/internal/fuzzy"
)

// Boost values by popularity.
const (
	BoostPopular = 5.0
	BoostEnough  = 2.0
)

// minChunk keeps small catalogs on a single goroutine.
const minChunk = 4096

// ScoreAll scores every entry against the query and keeps those strictly
// above threshold. The result preserves catalog order.
func ScoreAll(ctx context.Context, catalog []domain.CatalogEntry, query string, threshold float64, workers int) ([]domain.Candidate, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := max(minChunk, (len(catalog)+workers-1)/workers)

	parts := make([][]domain.Candidate, (len(catalog)+chunk-1)/chunk)

	g, ctx := errgroup.WithContext(ctx)
	for i := range parts {
		start := i * chunk
		end := min(start+chunk, len(catalog))
		g.Go(func() error {
			var out []domain.Candidate
			for j, e := range catalog[start:end] {
				if j%1024 == 0 && ctx.Err() != nil {
					return ctx.Err()
				}
				if s := fuzzy.Score(e.Name, query); s > threshold {
					out = append(out, domain.Candidate{Entry: e, FuzzyScore: s})
				}
			}
			parts[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return slices.Concat(parts...), nil
}

// SortByRelevance orders by fuzzy score descending, then shorter name first.
// Equal candidates keep their input order.
func SortByRelevance(cands []domain.Candidate) []domain.Candidate {
	out := slices.Clone(cands)
	slices.SortStableFunc(out, func(a, b domain.Candidate) int {
		switch {
		case a.FuzzyScore > b.FuzzyScore:
			return -1
		case a.FuzzyScore < b.FuzzyScore:
			return 1
		}
		return a.Entry.NameLength() - b.Entry.NameLength()
	})
	return out
}

// BoostTier returns the score bonus for a review count. The popular bonus
// needs more than 1000 reviews, one above the domain.TierPopular label.
func BoostTier(reviewCount int) float64 {
	switch {
	case reviewCount > 1000:
		return BoostPopular
	case reviewCount >= 50:
		return BoostEnough
	default:
		return 0
	}
}

// PopularitySource reports how many reviews an app has.
type PopularitySource interface {
	ReviewCount(ctx context.Context, appID int64) (int, error)
}

// SelectPopular walks cands in order, fills in review counts and boosted
// scores, drops candidates without reviews and stops once topK have been
// accepted. Candidates after that point are never looked up.
func SelectPopular(ctx context.Context, cands []domain.Candidate, src PopularitySource, topK int) ([]domain.Candidate, error) {
	out := make([]domain.Candidate, 0, min(topK, len(cands)))
	for _, c := range cands {
		if len(out) >= topK {
			break
		}
		n, err := src.ReviewCount(ctx, c.Entry.ID)
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			continue
		}
		c.ReviewCount = n
		c.BoostedScore = c.FuzzyScore + BoostTier(n)
		out = append(out, c)
	}
	return out, nil
}

// SortByBoost orders by boosted score descending, then review count descending.
func SortByBoost(cands []domain.Candidate) []domain.Candidate {
	out := slices.Clone(cands)
	slices.SortStableFunc(out, func(a, b domain.Candidate) int {
		switch {
		case a.BoostedScore > b.BoostedScore:
			return -1
		case a.BoostedScore < b.BoostedScore:
			return 1
		}
		return b.ReviewCount - a.ReviewCount
	})
	return out
}
